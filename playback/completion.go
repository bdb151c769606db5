package playback

import (
	"sync/atomic"
	"time"
)

const (
	DefaultPollInterval = time.Second
	DefaultEndThreshold = 0.5
)

// completionWatcher decides when a session's track has finished. One
// strategy is picked per session when its clock is built.
type completionWatcher interface {
	due(now time.Time) bool
	stop()
	name() string
}

// eventWatcher latches the backend's native end signal.
type eventWatcher struct {
	checker   EndChecker
	signalled atomic.Bool
	stopped   atomic.Bool
}

func newEventWatcher(n EndNotifier) *eventWatcher {
	w := &eventWatcher{}
	w.checker, _ = n.(EndChecker)
	n.OnEnded(func() {
		if w.stopped.Load() {
			return
		}
		w.signalled.Store(true)
	})
	return w
}

func (w *eventWatcher) due(time.Time) bool {
	if w.checker != nil && !w.stopped.Load() && !w.signalled.Load() {
		w.checker.CheckEnded()
	}
	return !w.stopped.Load() && w.signalled.Load()
}

func (w *eventWatcher) stop() {
	w.stopped.Store(true)
}

func (w *eventWatcher) name() string {
	return "event"
}

// pollWatcher samples remaining time on a fixed interval and reports the
// first sample that lands inside the end threshold.
type pollWatcher struct {
	clock     *Clock
	interval  time.Duration
	threshold float64
	last      time.Time
	stopped   bool
}

func newPollWatcher(c *Clock, interval time.Duration, threshold float64) *pollWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if threshold <= 0 {
		threshold = DefaultEndThreshold
	}
	return &pollWatcher{clock: c, interval: interval, threshold: threshold}
}

func (w *pollWatcher) due(now time.Time) bool {
	if w.stopped {
		return false
	}
	if w.last.IsZero() {
		w.last = now
		return false
	}
	if now.Sub(w.last) < w.interval {
		return false
	}
	w.last = now

	duration, ok := w.clock.Duration()
	if !ok {
		return false
	}
	return duration-w.clock.CurrentTime() < w.threshold
}

func (w *pollWatcher) stop() {
	w.stopped = true
}

func (w *pollWatcher) name() string {
	return "poll"
}
