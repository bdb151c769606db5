package playback

import (
	"log"
	"sync"
)

// ToneFunc starts and immediately stops a near-silent tone on the shared
// audio output.
type ToneFunc func() error

// Unlocker performs the one-shot audio unlock on gated platforms. It is
// independent of any session and runs at most once per process.
type Unlocker struct {
	platform Platform
	tone     ToneFunc

	mu       sync.Mutex
	armed    bool
	once     sync.Once
	unlocked bool
	err      error
}

func NewUnlocker(p Platform, tone ToneFunc) *Unlocker {
	return &Unlocker{platform: p, tone: tone}
}

// Arm starts listening for the first gesture. On ungated platforms output
// is already available and the unlocker reports unlocked immediately.
func (u *Unlocker) Arm() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.platform.Gated {
		u.unlocked = true
		return
	}
	u.armed = true
}

// Armed reports whether a gesture is still awaited.
func (u *Unlocker) Armed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.armed && !u.unlocked
}

// Gesture handles a click or touch. Only the first one after Arm plays the
// unlock tone; later ones are ignored.
func (u *Unlocker) Gesture() {
	u.mu.Lock()
	armed := u.armed
	u.mu.Unlock()
	if !armed {
		return
	}

	u.once.Do(func() {
		var err error
		if u.tone != nil {
			err = u.tone()
		}
		u.mu.Lock()
		u.armed = false
		u.unlocked = err == nil
		u.err = err
		u.mu.Unlock()
		if err != nil {
			log.Printf("playback: unlock tone: %v", err)
		}
	})
}

// Unlocked reports whether audio output is usable.
func (u *Unlocker) Unlocked() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.unlocked
}

// Err is the error from the unlock tone, if it failed.
func (u *Unlocker) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}
