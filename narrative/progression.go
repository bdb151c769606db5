package narrative

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/milk9111/horizons/playback"
)

// State is the progression state.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateTuningHandoff
	StatePlaying
	StateAdvancing
	StateEnded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateTuningHandoff:
		return "tuning"
	case StatePlaying:
		return "playing"
	case StateAdvancing:
		return "advancing"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrNoSession = errors.New("narrative: no playback session")
	ErrNotTuning = errors.New("narrative: no tuning challenge active")
)

// Store receives the only writes progression makes outside itself.
type Store interface {
	UpdateCurrentNode(id string)
	SetActiveChallenge(cfg *ChallengeConfig)
}

// OutcomeApplier records a resolved tuning choice.
type OutcomeApplier interface {
	Scores() map[string]int
	ApplyOutcome(nodeID, choice string, o Outcome)
}

// Sessions owns the single playback session.
type Sessions interface {
	Prepare(ref string) (*playback.Session, error)
	Dispose()
}

// Hooks let the presentation layer follow progression. Every hook runs on
// the goroutine that calls Sync or Update.
type Hooks struct {
	// Teardown runs when a node is superseded, before the next fetch starts.
	Teardown       func()
	NodeLoaded     func(n *Node)
	SessionStarted func(s *playback.Session)
	Advanced       func(from, to string)
	Failed         func(err error)
	Ended          func()
}

type ProgressionOptions struct {
	Fetcher  Fetcher
	Sessions Sessions
	Store    Store
	Outcomes OutcomeApplier
	Hooks    Hooks
	Logf     func(format string, args ...any)
}

type fetchResult struct {
	gen  int
	id   string
	node *Node
	err  error
}

// Progression walks the node graph: fetch a node, then either hand off to
// the tuning minigame, play its narration until completion, or advance at
// once. Sync and Update must be called from one goroutine.
type Progression struct {
	opts ProgressionOptions

	state   State
	target  string
	node    *Node
	session *playback.Session
	err     error

	gen       int
	cancel    context.CancelFunc
	results   chan fetchResult
	completed bool
	lost      error
	inflight  sync.WaitGroup
}

func NewProgression(opts ProgressionOptions) *Progression {
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	return &Progression{opts: opts, results: make(chan fetchResult, 4)}
}

func (p *Progression) State() State {
	return p.state
}

// Node is the loaded node, or nil.
func (p *Progression) Node() *Node {
	return p.node
}

// Target is the node id most recently requested.
func (p *Progression) Target() string {
	return p.target
}

// Err is the error behind StateFailed.
func (p *Progression) Err() error {
	return p.err
}

// Session is the playback session of the current node, or nil.
func (p *Progression) Session() *playback.Session {
	return p.session
}

// Sync loads id unless it is already the requested node.
func (p *Progression) Sync(id string) {
	if id == "" || id == p.target {
		return
	}
	p.load(id)
}

// Reload fetches the requested node again, tearing down its session first.
func (p *Progression) Reload() {
	if p.target == "" {
		return
	}
	p.load(p.target)
}

func (p *Progression) load(id string) {
	p.teardown()
	p.target = id
	p.state = StateFetching

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	gen := p.gen
	fetcher := p.opts.Fetcher
	results := p.results

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		n, err := fetcher.Fetch(ctx, id)
		select {
		case results <- fetchResult{gen: gen, id: id, node: n, err: err}:
		case <-ctx.Done():
		}
	}()
}

// teardown cancels any fetch in flight and disposes the live session. It
// runs synchronously before a new fetch begins.
func (p *Progression) teardown() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.opts.Sessions != nil {
		p.opts.Sessions.Dispose()
	}
	p.session = nil
	p.node = nil
	p.err = nil
	p.completed = false
	p.lost = nil
	if p.opts.Hooks.Teardown != nil {
		p.opts.Hooks.Teardown()
	}
}

// Update applies finished fetches, a session failure and a pending
// completion.
func (p *Progression) Update() {
drain:
	for {
		select {
		case r := <-p.results:
			if r.gen != p.gen {
				continue
			}
			if p.cancel != nil {
				p.cancel()
				p.cancel = nil
			}
			p.apply(r)
		default:
			break drain
		}
	}

	if p.lost != nil {
		err := p.lost
		p.lost = nil
		if p.state == StatePlaying {
			p.fail(err)
		}
	}

	if p.completed && p.state == StatePlaying {
		p.completed = false
		p.advance(p.node.Next)
	}
}

func (p *Progression) apply(r fetchResult) {
	if r.err != nil {
		p.fail(r.err)
		return
	}

	n := r.node
	p.node = n
	if p.opts.Hooks.NodeLoaded != nil {
		p.opts.Hooks.NodeLoaded(n)
	}

	switch {
	case n.RequiresTuning:
		if p.opts.Sessions != nil {
			p.opts.Sessions.Dispose()
		}
		p.state = StateTuningHandoff
		p.opts.Store.SetActiveChallenge(n.Challenge)
	case n.AudioRef != "":
		p.startSession(n)
	default:
		p.advance(n.Next)
	}
}

func (p *Progression) startSession(n *Node) {
	if p.opts.Sessions == nil {
		p.fail(ErrNoSession)
		return
	}
	sess, err := p.opts.Sessions.Prepare(n.AudioRef)
	if err != nil {
		p.fail(err)
		return
	}

	gen := p.gen
	sess.Clock().OnComplete(func() {
		if gen == p.gen {
			p.completed = true
		}
	})
	sess.OnFailed(func(err error) {
		if gen == p.gen {
			p.lost = err
		}
	})
	p.session = sess
	p.state = StatePlaying
	if p.opts.Hooks.SessionStarted != nil {
		p.opts.Hooks.SessionStarted(sess)
	}
	if err := sess.Play(); err != nil {
		p.opts.Logf("narrative: play %q: %v", n.AudioRef, err)
		p.fail(err)
	}
}

func (p *Progression) advance(next string) {
	from := p.target
	p.state = StateAdvancing
	if next == "" {
		p.state = StateEnded
		if p.opts.Hooks.Ended != nil {
			p.opts.Hooks.Ended()
		}
		return
	}

	p.opts.Store.UpdateCurrentNode(next)
	p.state = StateIdle
	if p.opts.Hooks.Advanced != nil {
		p.opts.Hooks.Advanced(from, next)
	}
	// The store does not report a node that is already current, so a node
	// that leads to itself is reloaded here.
	if next == from {
		p.load(next)
	}
}

func (p *Progression) fail(err error) {
	p.err = err
	p.state = StateFailed
	p.session = nil
	p.opts.Logf("narrative: node %q: %v", p.target, err)
	if p.opts.Hooks.Failed != nil {
		p.opts.Hooks.Failed(err)
	}
}

// ResolveTuning finishes a tuning hand-off with the player's choice: it
// applies the outcome, clears the challenge and moves to the outcome's
// successor.
func (p *Progression) ResolveTuning(choice string) (Outcome, error) {
	if p.state != StateTuningHandoff || p.node == nil {
		return Outcome{}, ErrNotTuning
	}

	var scores map[string]int
	if p.opts.Outcomes != nil {
		scores = p.opts.Outcomes.Scores()
	}
	out, err := ResolveOutcome(p.node.Challenge, choice, scores)
	if err != nil {
		return Outcome{}, err
	}
	if out.Next == "" {
		out.Next = p.node.Next
	}

	if p.opts.Outcomes != nil {
		p.opts.Outcomes.ApplyOutcome(p.node.ID, choice, out)
	}
	p.opts.Store.SetActiveChallenge(nil)
	p.advance(out.Next)
	return out, nil
}

// Play resumes narration after a user pause.
func (p *Progression) Play() error {
	if p.session == nil {
		return ErrNoSession
	}
	return p.session.Play()
}

// Pause pauses narration at the user's request.
func (p *Progression) Pause() {
	if p.session != nil {
		p.session.Pause()
	}
}

// Wait blocks until every fetch started so far has delivered its result or
// been cancelled. Results are applied by the next Update.
func (p *Progression) Wait() {
	p.inflight.Wait()
}

// Dispose tears everything down and forgets the requested node.
func (p *Progression) Dispose() {
	p.teardown()
	p.target = ""
	p.state = StateIdle
}
