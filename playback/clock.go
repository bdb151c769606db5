package playback

import (
	"math"
	"sync"
	"time"
)

// ClockOptions tunes the polling completion watcher.
type ClockOptions struct {
	PollInterval time.Duration
	EndThreshold float64
}

// Clock turns a backend's current time and duration into a progress value
// and a single completion event.
//
// Duration is resolved in order: the backend's synchronous answer, then its
// metadata signal, else it stays unknown. Completion uses the backend's end
// signal when there is one and a polling watcher otherwise. Callbacks run
// from Update, on the caller's goroutine.
type Clock struct {
	backend Backend

	mu          sync.Mutex
	duration    float64
	hasDuration bool
	canResolve  bool

	watcher  completionWatcher
	onFire   func()
	onDone   []func()
	fired    bool
	disposed bool
}

func newClock(b Backend, opts ClockOptions) *Clock {
	c := &Clock{backend: b}

	if d, ok := b.Duration(); ok && d > 0 {
		c.duration = d
		c.hasDuration = true
		c.canResolve = true
	} else if n, ok := b.(MetadataNotifier); ok {
		c.canResolve = true
		n.OnMetadata(c.setDuration)
	}

	if n, ok := b.(EndNotifier); ok {
		c.watcher = newEventWatcher(n)
	} else {
		c.watcher = newPollWatcher(c, opts.PollInterval, opts.EndThreshold)
	}
	return c
}

func (c *Clock) setDuration(d float64) {
	if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.duration = d
	c.hasDuration = true
}

// Duration reports the track length in seconds once it is known.
func (c *Clock) Duration() (float64, bool) {
	c.mu.Lock()
	if c.hasDuration || c.disposed {
		defer c.mu.Unlock()
		return c.duration, c.hasDuration
	}
	c.mu.Unlock()

	// Some backends only answer once their decoder has cached the length.
	d, ok := c.backend.Duration()
	if !ok || d <= 0 {
		return 0, false
	}
	c.setDuration(d)
	return d, true
}

// Resolvable reports whether the duration is known or can still arrive.
func (c *Clock) Resolvable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canResolve
}

// CurrentTime is the playback position in seconds, zero after disposal.
func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if disposed {
		return 0
	}
	return c.backend.CurrentTime()
}

// Progress is CurrentTime/Duration clamped to [0,1]; zero while the
// duration is unknown.
func (c *Clock) Progress() float64 {
	d, ok := c.Duration()
	if !ok {
		return 0
	}
	return clamp01(c.CurrentTime() / d)
}

// OnComplete registers fn to run when the track completes. It runs at most
// once per session.
func (c *Clock) OnComplete(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.onDone = append(c.onDone, fn)
}

// Strategy names the completion watcher in use.
func (c *Clock) Strategy() string {
	return c.watcher.name()
}

// Update samples the completion watcher and fires completion once.
func (c *Clock) Update(now time.Time) {
	c.mu.Lock()
	if c.disposed || c.fired {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if !c.watcher.due(now) {
		return
	}
	c.fire()
}

func (c *Clock) fire() {
	c.mu.Lock()
	if c.disposed || c.fired {
		c.mu.Unlock()
		return
	}
	c.fired = true
	c.watcher.stop()
	onFire := c.onFire
	callbacks := append([]func(){}, c.onDone...)
	c.mu.Unlock()

	if onFire != nil {
		onFire()
	}
	for _, fn := range callbacks {
		fn()
	}
}

// Fired reports whether completion has fired.
func (c *Clock) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired
}

// Dispose detaches the watcher and drops all callbacks.
func (c *Clock) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.watcher.stop()
	c.onDone = nil
	c.onFire = nil
	c.duration = 0
	c.hasDuration = false
}

// takeCallbacks moves registered completion callbacks off c, for handing
// them to the clock of a fallback backend.
func (c *Clock) takeCallbacks() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.onDone
	c.onDone = nil
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
