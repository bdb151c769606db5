package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/milk9111/horizons/config"
	"github.com/milk9111/horizons/gamestate"
	"github.com/milk9111/horizons/narrative"
	"github.com/milk9111/horizons/narratives"
	"github.com/milk9111/horizons/playback"
	"github.com/milk9111/horizons/reader"
)

type testBackend struct {
	kind     playback.Kind
	path     string
	duration float64
	now      float64
	volume   float64
	playing  bool
	closed   bool
	ended    func()
}

func (b *testBackend) Kind() playback.Kind       { return b.kind }
func (b *testBackend) Load(path string) error    { b.path = path; return nil }
func (b *testBackend) Play() error               { b.playing = true; return nil }
func (b *testBackend) Pause()                    { b.playing = false }
func (b *testBackend) Stop()                     { b.playing = false; b.now = 0 }
func (b *testBackend) Seek(s float64) error      { b.now = s; return nil }
func (b *testBackend) CurrentTime() float64      { return b.now }
func (b *testBackend) Duration() (float64, bool) { return b.duration, b.duration > 0 }
func (b *testBackend) SetVolume(v float64)       { b.volume = v }
func (b *testBackend) Close() error              { b.closed = true; return nil }
func (b *testBackend) OnEnded(fn func())         { b.ended = fn }

// metaBackend never learns its duration.
type metaBackend struct {
	*testBackend
}

func (b *metaBackend) OnMetadata(func(float64)) {}

// finish plays the track to its end.
func (b *testBackend) finish() {
	b.now = b.duration
	b.playing = false
	if b.ended != nil {
		b.ended()
	}
}

// testView lays pages out one character per unit, ten units per line.
type testView struct {
	pages    []narrative.Page
	layout   reader.Layout
	viewport float64
}

func (v *testView) SetPages(pages []narrative.Page) {
	v.pages = pages
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	v.layout = reader.BuildLayout(texts, reader.LayoutOptions{Width: 40, LineHeight: 10, PageGap: 10}, func(s string) float64 {
		return float64(len(s))
	})
}

func (v *testView) ScrollableHeight() float64 {
	return v.layout.ScrollableHeight(v.viewport)
}

func (v *testView) Layout() reader.Layout {
	return v.layout
}

func (v *testView) PageText(i int) (string, bool) {
	if i < 0 || i >= len(v.pages) {
		return "", false
	}
	return v.pages[i].Text, true
}

type memSaver struct {
	mu     sync.Mutex
	saved  []gamestate.State
	loaded gamestate.State
	hasOne bool
}

func (m *memSaver) Save(_ context.Context, s gamestate.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, s)
	return nil
}

func (m *memSaver) Load(context.Context) (gamestate.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded, m.hasOne, nil
}

func (m *memSaver) last() (gamestate.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return gamestate.State{}, false
	}
	return m.saved[len(m.saved)-1], true
}

type harness struct {
	t        *testing.T
	rt       *Runtime
	now      time.Time
	view     *testView
	saver    *memSaver
	backends []*testBackend
	input    reader.Input
	copied   []string
	tones    int
}

func newHarness(t *testing.T, mutate func(cfg *config.Config, opts *Options)) *harness {
	t.Helper()

	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default: %v", err)
	}
	cfg.Save.Mode = config.SaveNone
	cfg.Narratives.Watch = false

	h := &harness{
		t:     t,
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		view:  &testView{viewport: 50},
		saver: &memSaver{},
	}
	desktop := playback.DetectPlatform("")
	opts := Options{
		Config:  cfg,
		View:    h.view,
		Fetcher: &narrative.FSFetcher{Embedded: narratives.NarrativesFS},
		Factory: func(kind playback.Kind) (playback.Backend, error) {
			b := &testBackend{kind: kind, duration: 12, volume: 1}
			h.backends = append(h.backends, b)
			return b, nil
		},
		Platform: &desktop,
		Tone: func() error {
			h.tones++
			return nil
		},
		Saver: h.saver,
		Input: func() reader.Input {
			in := h.input
			h.input = reader.Input{}
			return in
		},
		Copy: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
		Now:  func() time.Time { return h.now },
		Logf: func(string, ...any) {},
	}
	if mutate != nil {
		mutate(cfg, &opts)
	}

	rt, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	h.rt = rt
	return h
}

func (h *harness) frame(in reader.Input) {
	h.input = in
	h.now = h.now.Add(time.Second / 60)
	h.rt.Update()
}

// settle waits for fetches and saves in flight and runs one frame.
func (h *harness) settle() {
	h.rt.Wait()
	h.frame(reader.Input{})
}

// start starts the runtime and runs until the first node is applied.
func (h *harness) start() {
	h.rt.Start(context.Background())
	h.frame(reader.Input{})
	h.settle()
}

func (h *harness) last() *testBackend {
	h.t.Helper()
	if len(h.backends) == 0 {
		h.t.Fatalf("expected a backend to have been created")
	}
	return h.backends[len(h.backends)-1]
}
