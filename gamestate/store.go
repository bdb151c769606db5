package gamestate

import (
	"slices"
	"sync"

	"github.com/milk9111/horizons/narrative"
)

// EventKind says what part of the store changed.
type EventKind int

const (
	EventNode EventKind = iota
	EventChallenge
	EventView
	EventOutcome
	EventRestore
)

type Event struct {
	Kind EventKind
	Node string
}

// Store is the game state shared by the reader, the progression and the
// save system. It is safe for concurrent use; subscribers run on the
// goroutine that made the change.
type Store struct {
	mu        sync.Mutex
	state     State
	view      View
	challenge *narrative.ChallengeConfig
	dirty     bool

	nextSub int
	subs    map[int]func(Event)
}

func NewStore() *Store {
	return &Store{state: DefaultState(), view: ViewNarrative, subs: make(map[int]func(Event))}
}

func (s *Store) CurrentNode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentNodeID
}

// UpdateCurrentNode points the game at a new node.
func (s *Store) UpdateCurrentNode(id string) {
	s.mu.Lock()
	if s.state.CurrentNodeID == id {
		s.mu.Unlock()
		return
	}
	s.state.CurrentNodeID = id
	s.dirty = true
	s.mu.Unlock()
	s.publish(Event{Kind: EventNode, Node: id})
}

// SetActiveChallenge publishes or clears the tuning challenge. A challenge
// switches to the perception view; clearing it returns to the narrative.
func (s *Store) SetActiveChallenge(cfg *narrative.ChallengeConfig) {
	s.mu.Lock()
	s.challenge = cfg
	if cfg != nil {
		s.view = ViewPerception
	} else {
		s.view = ViewNarrative
	}
	node := s.state.CurrentNodeID
	s.mu.Unlock()
	s.publish(Event{Kind: EventChallenge, Node: node})
}

func (s *Store) ActiveChallenge() *narrative.ChallengeConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge
}

// ApplyOutcome records choice at nodeID and applies the outcome's deltas.
// Neural stability stays within [0,1].
func (s *Store) ApplyOutcome(nodeID, choice string, o narrative.Outcome) {
	s.mu.Lock()
	if s.state.HiddenPointScores == nil {
		s.state.HiddenPointScores = map[string]int{}
	}
	for k, v := range o.Points {
		s.state.HiddenPointScores[k] += v
	}
	if d, ok := o.Indicators[IndicatorNeuralStability]; ok {
		s.state.Indicators.NeuralStability = clamp01(s.state.Indicators.NeuralStability + d)
	}
	if s.state.DecisionHistory == nil {
		s.state.DecisionHistory = map[string]string{}
	}
	s.state.DecisionHistory[nodeID] = choice
	s.dirty = true
	s.mu.Unlock()
	s.publish(Event{Kind: EventOutcome, Node: nodeID})
}

// Scores returns a copy of the hidden point scores.
func (s *Store) Scores() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone().HiddenPointScores
}

func (s *Store) Indicators() Indicators {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Indicators
}

func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Store) SetView(v View) {
	s.mu.Lock()
	if s.view == v {
		s.mu.Unlock()
		return
	}
	s.view = v
	s.mu.Unlock()
	s.publish(Event{Kind: EventView})
}

// ToggleView flips between the narrative and perception views.
func (s *Store) ToggleView() View {
	next := ViewPerception
	if s.View() == ViewPerception {
		next = ViewNarrative
	}
	s.SetView(next)
	return next
}

// VisitScene records id once.
func (s *Store) VisitScene(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || slices.Contains(s.state.ScenesVisited, id) {
		return
	}
	s.state.ScenesVisited = append(s.state.ScenesVisited, id)
	s.dirty = true
}

// Snapshot returns a deep copy of the saveable state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Restore replaces the state with saved merged over defaults.
func (s *Store) Restore(saved State) {
	s.mu.Lock()
	s.state = Merge(DefaultState(), saved)
	s.dirty = false
	node := s.state.CurrentNodeID
	s.mu.Unlock()
	s.publish(Event{Kind: EventRestore, Node: node})
}

// Dirty reports unsaved changes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) MarkSaved() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// Subscribe registers fn for change events and returns a function that
// removes it.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) publish(e Event) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}
