// Package scrollsync keeps a scrollable view aligned with audio progress.
package scrollsync

import "math"

// ProgressSource reports playback position.
type ProgressSource interface {
	Progress() float64
	CurrentTime() float64
}

// Engine issues one smooth scroll command per frame while armed. It is armed
// only when audio is playing, the user has not paused, auto-scroll is
// enabled and both the scrollable height and the duration are positive.
type Engine struct {
	scroller Scroller
	source   ProgressSource

	height   float64
	duration float64
	progress float64

	enabled      bool
	playing      bool
	pausedByUser bool
	isScrolling  bool

	manualOffset float64
	hasManual    bool

	// OnFrame runs after every armed tick with the audio time and progress.
	OnFrame func(currentTime, progress float64)
}

func NewEngine(scroller Scroller) *Engine {
	return &Engine{scroller: scroller, enabled: true}
}

// Target is the offset that corresponds to progress.
func Target(height, progress float64) float64 {
	if height <= 0 {
		return 0
	}
	return height * clamp01(progress)
}

// Armed reports whether ticks will issue scroll commands.
func (e *Engine) Armed() bool {
	return e.playing && !e.pausedByUser && e.enabled && e.height > 0 && e.duration > 0
}

// Tick scrolls to the offset for progress. It is a no-op while disarmed.
func (e *Engine) Tick(progress float64) {
	if !e.Armed() {
		e.isScrolling = false
		return
	}
	e.progress = clamp01(progress)
	e.isScrolling = true
	e.scroller.ScrollTo(Target(e.height, e.progress))
}

// Frame pulls progress from the source and ticks. It returns whether the
// engine was armed.
func (e *Engine) Frame() bool {
	if !e.Armed() || e.source == nil {
		e.isScrolling = false
		return false
	}
	p := e.source.Progress()
	e.Tick(p)
	if e.OnFrame != nil {
		e.OnFrame(e.source.CurrentTime(), e.progress)
	}
	return true
}

// NotifyManualScroll records a user scroll made while the engine is
// scrolling. It does not stop the engine.
func (e *Engine) NotifyManualScroll(offset float64) {
	if !e.isScrolling {
		return
	}
	e.manualOffset = offset
	e.hasManual = true
}

// ManualOffset is the last offset recorded by NotifyManualScroll.
func (e *Engine) ManualOffset() (float64, bool) {
	return e.manualOffset, e.hasManual
}

// ResumeAutoScroll clears the user pause and re-anchors at the offset the
// audio implies now, not at a recorded manual offset.
func (e *Engine) ResumeAutoScroll() {
	e.pausedByUser = false
	e.hasManual = false
	e.realign()
}

// SetEnabled toggles auto-scroll. Enabling performs one smooth scroll to the
// current audio offset.
func (e *Engine) SetEnabled(enabled bool) {
	was := e.enabled
	e.enabled = enabled
	if !enabled {
		e.isScrolling = false
		return
	}
	if !was {
		e.realign()
	}
}

func (e *Engine) Enabled() bool {
	return e.enabled
}

func (e *Engine) SetPausedByUser(paused bool) {
	e.pausedByUser = paused
	if paused {
		e.isScrolling = false
	}
}

func (e *Engine) PausedByUser() bool {
	return e.pausedByUser
}

func (e *Engine) SetPlaying(playing bool) {
	e.playing = playing
	if !playing {
		e.isScrolling = false
	}
}

func (e *Engine) SetContentHeight(h float64) {
	if h < 0 || math.IsNaN(h) {
		h = 0
	}
	e.height = h
}

func (e *Engine) ContentHeight() float64 {
	return e.height
}

func (e *Engine) SetDuration(d float64) {
	if d < 0 || math.IsNaN(d) {
		d = 0
	}
	e.duration = d
}

func (e *Engine) SetSource(src ProgressSource) {
	e.source = src
}

func (e *Engine) Progress() float64 {
	return e.progress
}

func (e *Engine) Scrolling() bool {
	return e.isScrolling
}

// Reset clears all per-node state and jumps back to the top.
func (e *Engine) Reset() {
	e.source = nil
	e.height = 0
	e.duration = 0
	e.progress = 0
	e.playing = false
	e.pausedByUser = false
	e.isScrolling = false
	e.manualOffset = 0
	e.hasManual = false
	e.scroller.JumpTo(0)
}

func (e *Engine) realign() {
	if e.source != nil {
		e.progress = clamp01(e.source.Progress())
	}
	if e.height <= 0 || e.duration <= 0 {
		return
	}
	e.scroller.ScrollTo(Target(e.height, e.progress))
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
