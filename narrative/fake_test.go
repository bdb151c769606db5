package narrative

import (
	"context"
	"sync"
	"time"

	"github.com/milk9111/horizons/playback"
)

type testBackend struct {
	duration float64
	now      float64
	playing  bool
	closed   bool
	playErr  error
	ended    func()
}

func (b *testBackend) Kind() playback.Kind       { return playback.KindStream }
func (b *testBackend) Load(string) error         { return nil }
func (b *testBackend) Play() error {
	if b.playErr != nil {
		return b.playErr
	}
	b.playing = true
	return nil
}
func (b *testBackend) Pause()                    { b.playing = false }
func (b *testBackend) Stop()                     { b.playing = false }
func (b *testBackend) Seek(s float64) error      { b.now = s; return nil }
func (b *testBackend) CurrentTime() float64      { return b.now }
func (b *testBackend) Duration() (float64, bool) { return b.duration, b.duration > 0 }
func (b *testBackend) SetVolume(float64)         {}
func (b *testBackend) Close() error              { b.closed = true; return nil }
func (b *testBackend) OnEnded(fn func())         { b.ended = fn }

// metaTestBackend only learns its duration when a test calls meta.
type metaTestBackend struct {
	*testBackend
	meta func(float64)
}

func (b *metaTestBackend) OnMetadata(fn func(float64)) { b.meta = fn }

// testSessions wraps a real selector and remembers every backend it built.
type testSessions struct {
	sel      *playback.Selector
	backends []*testBackend
	refs     []string
	disposes int
	now      time.Time
}

func newTestSessions() *testSessions {
	return newTestSessionsWith(func(playback.Kind) (playback.Backend, *testBackend) {
		b := &testBackend{duration: 10}
		return b, b
	})
}

// newTestSessionsWith builds sessions from build, which returns the backend
// handed to the selector and the testBackend under it.
func newTestSessionsWith(build func(kind playback.Kind) (playback.Backend, *testBackend)) *testSessions {
	ts := &testSessions{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	ts.sel = playback.NewSelector(playback.Options{
		Platform: playback.Platform{Name: "desktop"},
		Factory: func(kind playback.Kind) (playback.Backend, error) {
			b, under := build(kind)
			ts.backends = append(ts.backends, under)
			return b, nil
		},
		Now:  func() time.Time { return ts.now },
		Logf: func(string, ...any) {},
	})
	return ts
}

func (ts *testSessions) Prepare(ref string) (*playback.Session, error) {
	ts.refs = append(ts.refs, ref)
	return ts.sel.Prepare(ref)
}

func (ts *testSessions) Dispose() {
	ts.disposes++
	ts.sel.Dispose()
}

func (ts *testSessions) tick(d time.Duration) {
	ts.now = ts.now.Add(d)
	ts.sel.Update(ts.now)
}

func (ts *testSessions) last() *testBackend {
	if len(ts.backends) == 0 {
		return nil
	}
	return ts.backends[len(ts.backends)-1]
}

type testStore struct {
	current    []string
	challenges []*ChallengeConfig
	scores     map[string]int
	applied    []Outcome
}

func (s *testStore) UpdateCurrentNode(id string) { s.current = append(s.current, id) }
func (s *testStore) SetActiveChallenge(cfg *ChallengeConfig) {
	s.challenges = append(s.challenges, cfg)
}
func (s *testStore) Scores() map[string]int              { return s.scores }
func (s *testStore) ApplyOutcome(_, _ string, o Outcome) { s.applied = append(s.applied, o) }

func (s *testStore) currentNode() string {
	if len(s.current) == 0 {
		return ""
	}
	return s.current[len(s.current)-1]
}

type testFetcher struct {
	mu     sync.Mutex
	nodes  map[string]*Node
	calls  []string
	onCall func(id string)
	gates  map[string]chan struct{}
}

func newTestFetcher(nodes ...*Node) *testFetcher {
	f := &testFetcher{nodes: map[string]*Node{}, gates: map[string]chan struct{}{}}
	for _, n := range nodes {
		f.nodes[n.ID] = n
	}
	return f
}

func (f *testFetcher) Fetch(ctx context.Context, id string) (*Node, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	hook := f.onCall
	gate := f.gates[id]
	n, ok := f.nodes[id]
	f.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &FetchError{ID: id, Source: "test", Err: ctx.Err()}
		}
	}
	if !ok {
		return nil, &FetchError{ID: id, Source: "test", Err: ErrNotFound}
	}
	return n, nil
}

func (f *testFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestProgression(f Fetcher, ss *testSessions, st *testStore) *Progression {
	return NewProgression(ProgressionOptions{
		Fetcher:  f,
		Sessions: ss,
		Store:    st,
		Outcomes: st,
		Logf:     func(string, ...any) {},
	})
}

// settle waits for fetches in flight and applies their results.
func settle(p *Progression) {
	p.Wait()
	p.Update()
}
