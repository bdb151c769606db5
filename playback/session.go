package playback

import (
	"fmt"
	"time"
)

// State is the lifecycle of a Session.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateEnded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one narration track bound to one backend. Sessions are created
// and disposed only by a Selector.
type Session struct {
	ref  string
	path string

	backend Backend
	clock   *Clock
	state   State
	err     error

	gated    bool
	wantPlay bool
	muted    bool
	volume   float64

	loadedAt time.Time
	fallback Kind
	disposed bool
	onFailed []func(error)
}

func newSession(ref, path string, gated bool) *Session {
	return &Session{ref: ref, path: path, gated: gated, volume: 1, state: StateUnloaded}
}

// Ref is the audio reference the session was prepared for.
func (s *Session) Ref() string {
	return s.ref
}

// Kind is the active backend's kind.
func (s *Session) Kind() Kind {
	if s.backend == nil {
		return KindNone
	}
	return s.backend.Kind()
}

func (s *Session) State() State {
	return s.state
}

// Err is the failure that moved the session to StateFailed.
func (s *Session) Err() error {
	return s.err
}

// Clock is the session's playback clock. It is nil for a failed session.
func (s *Session) Clock() *Clock {
	return s.clock
}

// OnFailed registers fn to run when the session fails after Prepare has
// returned: a fallback that never reports a duration, or a deferred start
// that is rejected. fn runs on the goroutine that calls Selector.Update or
// Play.
func (s *Session) OnFailed(fn func(err error)) {
	if fn == nil || s.disposed {
		return
	}
	s.onFailed = append(s.onFailed, fn)
}

// Play starts or resumes playback. A session still loading starts as soon as
// it becomes ready.
func (s *Session) Play() error {
	if s.disposed {
		return ErrDisposed
	}
	switch s.state {
	case StateLoading:
		s.wantPlay = true
		return nil
	case StateReady, StatePaused:
		return s.start()
	case StateFailed:
		return s.err
	default:
		return nil
	}
}

// Pause pauses playback. A loading session will not auto-start.
func (s *Session) Pause() {
	if s.disposed {
		return
	}
	switch s.state {
	case StateLoading:
		s.wantPlay = false
	case StatePlaying:
		s.backend.Pause()
		s.state = StatePaused
	}
}

// Stop halts and rewinds. The session stays usable.
func (s *Session) Stop() {
	if s.disposed || s.backend == nil {
		return
	}
	s.wantPlay = false
	switch s.state {
	case StatePlaying, StatePaused:
		s.backend.Stop()
		s.state = StateReady
	}
}

// Playing reports whether audio is currently advancing.
func (s *Session) Playing() bool {
	return !s.disposed && s.state == StatePlaying
}

// SetMuted silences the track without pausing it.
func (s *Session) SetMuted(muted bool) {
	s.muted = muted
	s.applyVolume()
}

func (s *Session) Muted() bool {
	return s.muted
}

func (s *Session) applyVolume() {
	if s.disposed || s.backend == nil {
		return
	}
	if s.muted {
		s.backend.SetVolume(0)
		return
	}
	s.backend.SetVolume(s.volume)
}

func (s *Session) start() error {
	err := s.backend.Play()
	if err != nil && s.gated {
		// Gated platforms can reject a play until the output is resumed.
		if r, ok := s.backend.(Resumer); ok {
			if rerr := r.Resume(); rerr == nil {
				err = s.backend.Play()
			}
		}
	}
	if err != nil {
		s.fail(&PlaybackError{Ref: s.ref, Kind: s.Kind(), Err: err})
		return s.err
	}
	s.wantPlay = false
	s.state = StatePlaying
	return nil
}

// attach binds a loaded backend and its clock. Completion callbacks already
// registered on a previous clock carry over.
func (s *Session) attach(b Backend, c *Clock, ready bool, now time.Time) {
	var carried []func()
	if s.clock != nil {
		carried = s.clock.takeCallbacks()
		s.clock.Dispose()
	}
	if s.backend != nil {
		s.backend.Stop()
		_ = s.backend.Close()
	}

	s.backend = b
	s.clock = c
	s.clock.onFire = s.markEnded
	for _, fn := range carried {
		s.clock.OnComplete(fn)
	}
	s.loadedAt = now
	s.state = StateLoading
	s.applyVolume()
	if ready {
		s.markReady()
	}
}

func (s *Session) markReady() {
	if s.state != StateLoading {
		return
	}
	s.state = StateReady
	if s.wantPlay {
		_ = s.start()
	}
}

func (s *Session) markEnded() {
	if s.disposed {
		return
	}
	s.state = StateEnded
}

func (s *Session) fail(err error) {
	s.err = err
	s.state = StateFailed
	s.wantPlay = false
	if s.backend != nil {
		s.backend.Stop()
	}
	if s.disposed {
		return
	}
	for _, fn := range s.onFailed {
		fn(err)
	}
}

// dispose stops playback, detaches the source and releases the decoder.
func (s *Session) dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.onFailed = nil
	if s.clock != nil {
		s.clock.Dispose()
	}
	if s.backend != nil {
		s.backend.Pause()
		s.backend.Stop()
		_ = s.backend.Close()
	}
	s.wantPlay = false
	if s.state != StateFailed {
		s.state = StateUnloaded
	}
}

// Disposed reports whether the session has been torn down.
func (s *Session) Disposed() bool {
	return s.disposed
}
