package scrollsync

import "math"

const (
	DefaultSmoothing = 0.18
	snapDistance     = 0.5
)

// Scroller is the surface the engine drives.
type Scroller interface {
	// ScrollTo eases towards offset over the next frames.
	ScrollTo(offset float64)
	// JumpTo moves to offset immediately.
	JumpTo(offset float64)
	Offset() float64
}

// SmoothScroller eases a vertical offset towards a target by a fixed
// fraction every Step.
type SmoothScroller struct {
	offset    float64
	target    float64
	max       float64
	smoothing float64
}

func NewSmoothScroller(smoothing float64) *SmoothScroller {
	if smoothing <= 0 || smoothing > 1 {
		smoothing = DefaultSmoothing
	}
	return &SmoothScroller{smoothing: smoothing}
}

// SetMax bounds offsets to [0, max].
func (s *SmoothScroller) SetMax(max float64) {
	if max < 0 {
		max = 0
	}
	s.max = max
	s.offset = s.clamp(s.offset)
	s.target = s.clamp(s.target)
}

func (s *SmoothScroller) Max() float64 {
	return s.max
}

func (s *SmoothScroller) ScrollTo(offset float64) {
	s.target = s.clamp(offset)
}

func (s *SmoothScroller) JumpTo(offset float64) {
	s.offset = s.clamp(offset)
	s.target = s.offset
}

// UserScroll applies a user-driven delta immediately.
func (s *SmoothScroller) UserScroll(delta float64) {
	s.JumpTo(s.offset + delta)
}

// Step advances one frame.
func (s *SmoothScroller) Step() {
	d := s.target - s.offset
	if math.Abs(d) <= snapDistance {
		s.offset = s.target
		return
	}
	s.offset += d * s.smoothing
}

func (s *SmoothScroller) Offset() float64 {
	return s.offset
}

func (s *SmoothScroller) Target() float64 {
	return s.target
}

// Settled reports whether the offset has reached its target.
func (s *SmoothScroller) Settled() bool {
	return s.offset == s.target
}

func (s *SmoothScroller) clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if s.max > 0 && v > s.max {
		return s.max
	}
	return v
}
