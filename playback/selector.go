package playback

import (
	"errors"
	"fmt"
	"log"
	"time"
)

const DefaultDurationWait = 3 * time.Second

// Options configures a Selector.
type Options struct {
	Platform Platform
	Factory  Factory
	// Resolve maps an audio reference to a loadable path.
	Resolve func(ref string) string
	// Force pins a backend kind regardless of platform; KindNone means auto.
	Force Kind
	// DurationWait bounds how long a backend may take to report a duration
	// before the selector gives up on it.
	DurationWait time.Duration
	Clock        ClockOptions
	Now          func() time.Time
	Logf         func(format string, args ...any)
}

// Selector owns the single live playback Session. Preparing a session always
// disposes the previous one first.
type Selector struct {
	opts    Options
	current *Session
}

func NewSelector(opts Options) *Selector {
	if opts.DurationWait <= 0 {
		opts.DurationWait = DefaultDurationWait
	}
	if opts.Resolve == nil {
		opts.Resolve = func(ref string) string { return ref }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	return &Selector{opts: opts}
}

// Platform is the platform class the selector prefers backends for.
func (s *Selector) Platform() Platform {
	return s.opts.Platform
}

// Current is the live session, or nil.
func (s *Selector) Current() *Session {
	return s.current
}

// Order lists backend kinds in the order they will be tried.
func (s *Selector) Order() []Kind {
	preferred := KindStream
	if s.opts.Platform.Gated {
		preferred = KindBuffered
	}
	if s.opts.Force != KindNone {
		preferred = s.opts.Force
	}
	if preferred == KindBuffered {
		return []Kind{KindBuffered, KindStream}
	}
	return []Kind{KindStream, KindBuffered}
}

// Prepare disposes any live session and loads ref on the preferred backend,
// falling back to the other backend once. When both fail the returned
// session is in StateFailed and the error is a *PlaybackError.
func (s *Selector) Prepare(ref string) (*Session, error) {
	s.Dispose()

	path := s.opts.Resolve(ref)
	sess := newSession(ref, path, s.opts.Platform.Gated)
	s.current = sess

	order := s.Order()
	firstErr := s.open(sess, order[0])
	if firstErr == nil {
		sess.fallback = order[1]
		return sess, nil
	}
	s.opts.Logf("playback: %s backend failed for %q, trying %s: %v", order[0], ref, order[1], firstErr)

	secondErr := s.open(sess, order[1])
	if secondErr == nil {
		return sess, nil
	}

	err := &PlaybackError{Ref: ref, Err: errors.Join(firstErr, secondErr)}
	sess.fail(err)
	return sess, err
}

func (s *Selector) open(sess *Session, kind Kind) error {
	if s.opts.Factory == nil {
		return fmt.Errorf("%w: no backend factory", ErrBackendInit)
	}
	b, err := s.opts.Factory(kind)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBackendInit, kind, err)
	}
	if err := b.Load(sess.path); err != nil {
		_ = b.Close()
		return fmt.Errorf("%w: %s: load %q: %v", ErrBackendInit, kind, sess.path, err)
	}

	c := newClock(b, s.opts.Clock)
	if c.Strategy() == "poll" {
		s.opts.Logf("playback: %s backend: %v, polling every %s", kind, ErrUnsupportedCompletion, pollInterval(s.opts.Clock))
	}

	_, known := c.Duration()
	ready := known
	if !known && !c.Resolvable() {
		s.opts.Logf("playback: %s backend for %q: %v", kind, sess.ref, ErrDurationUnavailable)
		ready = true
	}
	sess.attach(b, c, ready, s.opts.Now())
	return nil
}

// Update advances loading sessions and drives the completion watcher. It
// must be called once per frame.
func (s *Selector) Update(now time.Time) {
	sess := s.current
	if sess == nil || sess.disposed {
		return
	}

	if sess.state == StateLoading {
		if _, ok := sess.clock.Duration(); ok {
			sess.markReady()
		} else if now.Sub(sess.loadedAt) >= s.opts.DurationWait {
			s.durationTimeout(sess)
		}
	}

	switch sess.state {
	case StatePlaying, StatePaused:
		sess.clock.Update(now)
	}
}

func (s *Selector) durationTimeout(sess *Session) {
	failed := sess.Kind()
	if sess.fallback == KindNone {
		err := &PlaybackError{Ref: sess.ref, Kind: failed, Err: fmt.Errorf("%w after %s", ErrDurationUnavailable, s.opts.DurationWait)}
		s.opts.Logf("%v", err)
		sess.fail(err)
		return
	}

	next := sess.fallback
	sess.fallback = KindNone
	s.opts.Logf("playback: %s backend reported no duration for %q within %s, trying %s", failed, sess.ref, s.opts.DurationWait, next)
	if err := s.open(sess, next); err != nil {
		perr := &PlaybackError{Ref: sess.ref, Kind: next, Err: errors.Join(ErrDurationUnavailable, err)}
		s.opts.Logf("%v", perr)
		sess.fail(perr)
	}
}

// Dispose tears down the live session, if any.
func (s *Selector) Dispose() {
	if s.current == nil {
		return
	}
	s.current.dispose()
	s.current = nil
}

func pollInterval(opts ClockOptions) time.Duration {
	if opts.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return opts.PollInterval
}
