package scrollsync

import (
	"math"
	"testing"
)

type recordingScroller struct {
	offset  float64
	scrolls []float64
	jumps   []float64
}

func (r *recordingScroller) ScrollTo(o float64) { r.scrolls = append(r.scrolls, o) }
func (r *recordingScroller) JumpTo(o float64) {
	r.offset = o
	r.jumps = append(r.jumps, o)
}
func (r *recordingScroller) Offset() float64 { return r.offset }

type fixedSource struct {
	now, duration float64
}

func (s *fixedSource) Progress() float64    { return clamp01(s.now / s.duration) }
func (s *fixedSource) CurrentTime() float64 { return s.now }

func armedEngine(height float64) (*Engine, *recordingScroller) {
	sc := &recordingScroller{}
	e := NewEngine(sc)
	e.SetContentHeight(height)
	e.SetDuration(10)
	e.SetPlaying(true)
	return e, sc
}

func TestTargetMonotonic(t *testing.T) {
	heights := []float64{1, 480, 1234.5, 20000}
	for _, h := range heights {
		prev := -1.0
		for i := 0; i <= 100; i++ {
			p := float64(i) / 100
			got := Target(h, p)
			if math.Abs(got-h*p) > 1e-9 {
				t.Fatalf("height %v progress %v: expected %v, got %v", h, p, h*p, got)
			}
			if got < prev {
				t.Fatalf("height %v: target decreased at progress %v", h, p)
			}
			prev = got
		}
	}
}

func TestTickIssuesTarget(t *testing.T) {
	e, sc := armedEngine(1000)
	for _, p := range []float64{0, 0.25, 0.6, 1, 1.3} {
		e.Tick(p)
	}
	want := []float64{0, 250, 600, 1000, 1000}
	if len(sc.scrolls) != len(want) {
		t.Fatalf("expected %d scroll commands, got %v", len(want), sc.scrolls)
	}
	for i := range want {
		if math.Abs(sc.scrolls[i]-want[i]) > 1e-9 {
			t.Fatalf("command %d: expected %v, got %v", i, want[i], sc.scrolls[i])
		}
	}
}

func TestEngineArming(t *testing.T) {
	cases := []struct {
		name  string
		setup func(e *Engine)
		armed bool
	}{
		{"all_conditions", func(e *Engine) {}, true},
		{"not_playing", func(e *Engine) { e.SetPlaying(false) }, false},
		{"paused_by_user", func(e *Engine) { e.SetPausedByUser(true) }, false},
		{"disabled", func(e *Engine) { e.SetEnabled(false) }, false},
		{"no_height", func(e *Engine) { e.SetContentHeight(0) }, false},
		{"no_duration", func(e *Engine) { e.SetDuration(0) }, false},
		{"negative_height", func(e *Engine) { e.SetContentHeight(-5) }, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, sc := armedEngine(800)
			c.setup(e)
			if e.Armed() != c.armed {
				t.Fatalf("expected armed=%v", c.armed)
			}
			e.Tick(0.5)
			if c.armed && len(sc.scrolls) != 1 {
				t.Fatalf("armed engine issued %d commands", len(sc.scrolls))
			}
			if !c.armed && len(sc.scrolls) != 0 {
				t.Fatalf("disarmed engine issued %v", sc.scrolls)
			}
		})
	}
}

func TestManualScrollDoesNotStopEngine(t *testing.T) {
	e, sc := armedEngine(1000)

	e.NotifyManualScroll(50)
	if _, ok := e.ManualOffset(); ok {
		t.Fatalf("manual scroll recorded while engine was idle")
	}

	e.Tick(0.2)
	e.NotifyManualScroll(700)
	if off, ok := e.ManualOffset(); !ok || off != 700 {
		t.Fatalf("expected recorded offset 700, got %v %v", off, ok)
	}
	if !e.Armed() {
		t.Fatalf("manual scroll disarmed the engine")
	}
	e.Tick(0.3)
	if got := sc.scrolls[len(sc.scrolls)-1]; got != 300 {
		t.Fatalf("engine should keep following audio, got %v", got)
	}
}

func TestResumeAutoScrollReanchors(t *testing.T) {
	e, sc := armedEngine(1000)
	src := &fixedSource{now: 4, duration: 10}
	e.SetSource(src)
	e.Frame()

	e.NotifyManualScroll(900)
	e.SetPausedByUser(true)
	src.now = 7
	if e.Frame() {
		t.Fatalf("frame ran while paused by user")
	}

	e.ResumeAutoScroll()
	if got := sc.scrolls[len(sc.scrolls)-1]; math.Abs(got-700) > 1e-9 {
		t.Fatalf("expected resume at audio offset 700, got %v", got)
	}
	if _, ok := e.ManualOffset(); ok {
		t.Fatalf("resume should drop the stale manual offset")
	}
}

func TestReenableSmoothScrollsToAudioOffset(t *testing.T) {
	e, sc := armedEngine(2000)
	src := &fixedSource{now: 2, duration: 10}
	e.SetSource(src)
	e.Frame()

	e.SetEnabled(false)
	src.now = 5
	e.Frame()
	n := len(sc.scrolls)

	e.SetEnabled(true)
	if len(sc.scrolls) != n+1 {
		t.Fatalf("expected one realign command, got %d", len(sc.scrolls)-n)
	}
	if got := sc.scrolls[n]; math.Abs(got-1000) > 1e-9 {
		t.Fatalf("expected realign to 1000, got %v", got)
	}
	if len(sc.jumps) != 0 {
		t.Fatalf("re-enable must not jump, got %v", sc.jumps)
	}

	e.SetEnabled(true)
	if len(sc.scrolls) != n+1 {
		t.Fatalf("enabling twice realigned twice")
	}
}

func TestFrameHookAndReset(t *testing.T) {
	e, sc := armedEngine(1000)
	src := &fixedSource{now: 6, duration: 10}
	e.SetSource(src)

	var gotTime, gotProgress float64
	e.OnFrame = func(ct, p float64) { gotTime, gotProgress = ct, p }
	if !e.Frame() {
		t.Fatalf("expected armed frame")
	}
	if gotTime != 6 || math.Abs(gotProgress-0.6) > 1e-9 {
		t.Fatalf("hook got time=%v progress=%v", gotTime, gotProgress)
	}
	if got := sc.scrolls[0]; math.Abs(got-600) > 1e-9 {
		t.Fatalf("expected target 600, got %v", got)
	}

	e.Reset()
	if e.Armed() || e.Progress() != 0 || sc.offset != 0 {
		t.Fatalf("reset left state behind")
	}
	if e.Frame() {
		t.Fatalf("frame ran after reset")
	}
}

func TestSmoothScroller(t *testing.T) {
	s := NewSmoothScroller(0.5)
	s.SetMax(1000)
	s.ScrollTo(400)
	s.Step()
	if s.Offset() != 200 {
		t.Fatalf("expected half step to 200, got %v", s.Offset())
	}
	for i := 0; i < 20 && !s.Settled(); i++ {
		s.Step()
	}
	if !s.Settled() || s.Offset() != 400 {
		t.Fatalf("expected settle at 400, got %v", s.Offset())
	}

	s.ScrollTo(5000)
	if s.Target() != 1000 {
		t.Fatalf("target not clamped to max, got %v", s.Target())
	}
	s.UserScroll(-1000)
	if s.Offset() != 0 {
		t.Fatalf("user scroll not clamped at top, got %v", s.Offset())
	}
}
