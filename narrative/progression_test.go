package narrative

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/milk9111/horizons/pagesync"
	"github.com/milk9111/horizons/playback"
	"github.com/milk9111/horizons/scrollsync"
)

func TestProgressionWithoutAudio(t *testing.T) {
	cases := []struct {
		name      string
		node      *Node
		wantState State
		wantStore []string
	}{
		{"advances_to_next", &Node{ID: "a", Pages: []Page{{Text: "x"}}, Next: "b"}, StateIdle, []string{"b"}},
		{"ends_without_next", &Node{ID: "a", Pages: []Page{{Text: "x"}}}, StateEnded, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ss := newTestSessions()
			st := &testStore{}
			ended := 0
			p := newTestProgression(newTestFetcher(c.node), ss, st)
			p.opts.Hooks.Ended = func() { ended++ }

			p.Sync("a")
			settle(p)

			if p.State() != c.wantState {
				t.Fatalf("expected %s, got %s", c.wantState, p.State())
			}
			if len(ss.refs) != 0 || len(ss.backends) != 0 {
				t.Fatalf("no session should be created, got %v", ss.refs)
			}
			if len(st.current) != len(c.wantStore) || (len(c.wantStore) > 0 && st.current[0] != c.wantStore[0]) {
				t.Fatalf("expected store writes %v, got %v", c.wantStore, st.current)
			}
			if c.wantState == StateEnded {
				if ended != 1 {
					t.Fatalf("expected one end hook, got %d", ended)
				}
				p.Update()
				if len(st.current) != 0 || len(st.challenges) != 0 {
					t.Fatalf("ended narrative changed state")
				}
			}
		})
	}
}

func TestProgressionSyncIdempotent(t *testing.T) {
	f := newTestFetcher(&Node{ID: "a", AudioRef: "a.mp3", Next: "b"})
	ss := newTestSessions()
	p := newTestProgression(f, ss, &testStore{})

	p.Sync("a")
	settle(p)
	p.Sync("a")
	settle(p)
	p.Sync("a")

	if f.callCount() != 1 {
		t.Fatalf("expected one fetch, got %d", f.callCount())
	}
	if len(ss.refs) != 1 {
		t.Fatalf("expected one session, got %d", len(ss.refs))
	}
	if p.State() != StatePlaying {
		t.Fatalf("expected playing, got %s", p.State())
	}
}

func TestProgressionTuningHandoff(t *testing.T) {
	cfg := &ChallengeConfig{
		ID:              "lunar_signal",
		Interpretations: map[string]Interpretation{"A": {Label: "Precision"}, "B": {Label: "Source"}},
		Outcomes: map[string]Outcome{
			"A": {Next: "path_a", Points: map[string]int{"Reality": 3}, Indicators: map[string]float64{"NeuralStability": 0.01}},
			"B": {Next: "path_b"},
		},
	}
	f := newTestFetcher(
		&Node{ID: "intro", AudioRef: "intro.mp3", Next: "tune"},
		&Node{ID: "tune", AudioRef: "ignored.mp3", RequiresTuning: true, Challenge: cfg},
	)
	ss := newTestSessions()
	st := &testStore{}
	p := newTestProgression(f, ss, st)

	p.Sync("intro")
	settle(p)
	intro := ss.last()
	if !intro.playing {
		t.Fatalf("intro narration not playing")
	}

	p.Sync("tune")
	settle(p)

	if intro.playing || !intro.closed {
		t.Fatalf("tuning node left earlier playback running")
	}
	if len(ss.refs) != 1 {
		t.Fatalf("tuning node started playback: %v", ss.refs)
	}
	if p.State() != StateTuningHandoff {
		t.Fatalf("expected tuning hand-off, got %s", p.State())
	}
	if len(st.challenges) != 1 || st.challenges[0] != cfg {
		t.Fatalf("expected exactly one challenge publish with the node config, got %v", st.challenges)
	}
	if p.Session() != nil {
		t.Fatalf("tuning node holds a session")
	}

	if err := p.Play(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	out, err := p.ResolveTuning("A")
	if err != nil {
		t.Fatalf("ResolveTuning: %v", err)
	}
	if out.Next != "path_a" || st.currentNode() != "path_a" {
		t.Fatalf("expected advance to path_a, got %q / %q", out.Next, st.currentNode())
	}
	if len(st.challenges) != 2 || st.challenges[1] != nil {
		t.Fatalf("expected challenge cleared once, got %v", st.challenges)
	}
	if len(st.applied) != 1 || st.applied[0].Points["Reality"] != 3 {
		t.Fatalf("outcome not applied: %v", st.applied)
	}

	if _, err := p.ResolveTuning("B"); !errors.Is(err, ErrNotTuning) {
		t.Fatalf("second resolve should fail with ErrNotTuning, got %v", err)
	}
}

func TestProgressionSupersedeDisposesFirst(t *testing.T) {
	f := newTestFetcher(
		&Node{ID: "a", AudioRef: "a.mp3", Next: "x"},
		&Node{ID: "b", AudioRef: "b.mp3", Next: "y"},
	)
	ss := newTestSessions()
	st := &testStore{}
	p := newTestProgression(f, ss, st)

	p.Sync("a")
	settle(p)
	a := ss.last()
	aSession := p.Session()

	var disposedAtFetch, teardownAtFetch bool
	teardowns := 0
	p.opts.Hooks.Teardown = func() { teardowns++ }
	f.onCall = func(id string) {
		if id == "b" {
			disposedAtFetch = aSession.Disposed() && a.closed
			teardownAtFetch = teardowns == 1
		}
	}

	p.Sync("b")
	settle(p)

	if !disposedAtFetch {
		t.Fatalf("session for a was still live when b's fetch began")
	}
	if !teardownAtFetch {
		t.Fatalf("derived state was not reset before b's fetch")
	}

	a.ended()
	ss.tick(time.Second)
	p.Update()
	if len(st.current) != 0 {
		t.Fatalf("a's completion advanced the narrative: %v", st.current)
	}
	if p.Node().ID != "b" || p.State() != StatePlaying {
		t.Fatalf("expected b playing, got %v %s", p.Node(), p.State())
	}
}

func TestProgressionDropsStaleFetch(t *testing.T) {
	f := newTestFetcher(
		&Node{ID: "a", AudioRef: "a.mp3"},
		&Node{ID: "b", Next: "c"},
	)
	gate := make(chan struct{})
	f.gates["a"] = gate
	ss := newTestSessions()
	st := &testStore{}
	p := newTestProgression(f, ss, st)

	p.Sync("a")
	if p.State() != StateFetching {
		t.Fatalf("expected fetching, got %s", p.State())
	}
	p.Sync("b")
	close(gate)
	settle(p)

	if len(ss.refs) != 0 {
		t.Fatalf("stale node a created a session")
	}
	if st.currentNode() != "c" {
		t.Fatalf("expected b to advance to c, got %v", st.current)
	}
}

func TestProgressionFetchFailure(t *testing.T) {
	ss := newTestSessions()
	failed := 0
	p := newTestProgression(newTestFetcher(), ss, &testStore{})
	p.opts.Hooks.Failed = func(error) { failed++ }

	p.Sync("missing")
	settle(p)

	if p.State() != StateFailed || failed != 1 {
		t.Fatalf("expected failed state once, got %s (%d)", p.State(), failed)
	}
	var ferr *FetchError
	if !errors.As(p.Err(), &ferr) || !errors.Is(p.Err(), ErrNotFound) {
		t.Fatalf("expected FetchError wrapping ErrNotFound, got %v", p.Err())
	}
	if len(ss.refs) != 0 || p.Session() != nil {
		t.Fatalf("failed fetch created a session")
	}
}

func TestProgressionScenario(t *testing.T) {
	n1 := &Node{
		ID:       "n1",
		Pages:    []Page{{Text: "a", Timestamp: 0}, {Text: "b", Timestamp: 5}},
		AudioRef: "n1.mp3",
		Next:     "n2",
	}
	ss := newTestSessions()
	st := &testStore{}
	p := newTestProgression(newTestFetcher(n1), ss, st)

	p.Sync("n1")
	settle(p)
	if ss.refs[0] != "n1.mp3" {
		t.Fatalf("expected n1.mp3 session, got %v", ss.refs)
	}
	clock := p.Session().Clock()
	b := ss.last()

	b.now = 6
	ss.tick(6 * time.Second)
	p.Update()
	if got := clock.Progress(); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("expected progress 0.6, got %v", got)
	}
	pages := []pagesync.Page{{Timestamp: n1.Pages[0].Timestamp}, {Timestamp: n1.Pages[1].Timestamp}}
	if got := pagesync.SelectPage(pages, clock.CurrentTime()); got != 1 {
		t.Fatalf("expected page at timestamp 5, got %d", got)
	}
	const height = 2400.0
	if got := scrollsync.Target(height, clock.Progress()); math.Abs(got-0.6*height) > 1e-9 {
		t.Fatalf("expected scroll target %v, got %v", 0.6*height, got)
	}

	b.now = 10
	b.ended()
	ss.tick(4 * time.Second)
	p.Update()
	ss.tick(time.Second)
	p.Update()

	if len(st.current) != 1 || st.current[0] != "n2" {
		t.Fatalf("expected a single advance to n2, got %v", st.current)
	}
	if p.Session().State() != playback.StateEnded {
		t.Fatalf("expected ended session, got %s", p.Session().State())
	}
}

func TestProgressionPlayPause(t *testing.T) {
	ss := newTestSessions()
	p := newTestProgression(newTestFetcher(&Node{ID: "a", AudioRef: "a.mp3"}), ss, &testStore{})
	p.Sync("a")
	settle(p)

	p.Pause()
	if ss.last().playing {
		t.Fatalf("pause did not reach backend")
	}
	if err := p.Play(); err != nil || !ss.last().playing {
		t.Fatalf("play did not resume: %v", err)
	}

	p.Dispose()
	if p.State() != StateIdle || p.Target() != "" || !ss.last().closed {
		t.Fatalf("dispose left state behind")
	}
}

func TestProgressionSessionFailsAfterStart(t *testing.T) {
	errRejected := errors.New("output rejected play")
	cases := []struct {
		name    string
		playErr error
		run     func(ss *testSessions, built []*metaTestBackend)
		wantErr error
	}{
		{
			name: "no_duration_on_either_backend",
			run: func(ss *testSessions, _ []*metaTestBackend) {
				ss.tick(playback.DefaultDurationWait)
				ss.tick(playback.DefaultDurationWait)
			},
			wantErr: playback.ErrDurationUnavailable,
		},
		{
			name:    "deferred_play_rejected",
			playErr: errRejected,
			run: func(ss *testSessions, built []*metaTestBackend) {
				built[0].meta(10)
				ss.tick(16 * time.Millisecond)
			},
			wantErr: errRejected,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var built []*metaTestBackend
			ss := newTestSessionsWith(func(playback.Kind) (playback.Backend, *testBackend) {
				b := &metaTestBackend{testBackend: &testBackend{playErr: c.playErr}}
				built = append(built, b)
				return b, b.testBackend
			})
			st := &testStore{}
			var failures []error
			p := newTestProgression(newTestFetcher(&Node{ID: "n1", AudioRef: "n1.mp3", Next: "n2"}), ss, st)
			p.opts.Hooks.Failed = func(err error) { failures = append(failures, err) }

			p.Sync("n1")
			settle(p)
			if p.State() != StatePlaying {
				t.Fatalf("expected playing while the track loads, got %s", p.State())
			}
			sess := p.Session()

			c.run(ss, built)
			p.Update()

			if sess.State() != playback.StateFailed {
				t.Fatalf("expected failed session, got %s", sess.State())
			}
			if p.State() != StateFailed {
				t.Fatalf("expected failed progression, got %s", p.State())
			}
			if len(failures) != 1 || !errors.Is(failures[0], c.wantErr) {
				t.Fatalf("expected one failure wrapping %v, got %v", c.wantErr, failures)
			}
			var perr *playback.PlaybackError
			if !errors.As(p.Err(), &perr) {
				t.Fatalf("expected a PlaybackError, got %v", p.Err())
			}
			if len(st.current) != 0 {
				t.Fatalf("failed session advanced the narrative: %v", st.current)
			}

			p.Update()
			if len(failures) != 1 {
				t.Fatalf("failure reported more than once: %v", failures)
			}
		})
	}
}

func TestProgressionNextIsSelf(t *testing.T) {
	f := newTestFetcher(&Node{ID: "loop", AudioRef: "loop.mp3", Next: "loop"})
	ss := newTestSessions()
	st := &testStore{}
	p := newTestProgression(f, ss, st)

	p.Sync("loop")
	settle(p)
	first := ss.last()

	first.ended()
	ss.tick(time.Second)
	p.Update()
	settle(p)

	if f.callCount() != 2 {
		t.Fatalf("expected the node fetched again, got %d fetches", f.callCount())
	}
	if p.State() != StatePlaying || len(ss.refs) != 2 {
		t.Fatalf("expected a fresh session, got %s with %v", p.State(), ss.refs)
	}
	if !first.closed {
		t.Fatalf("previous session not disposed")
	}
}
