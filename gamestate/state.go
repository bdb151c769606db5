// Package gamestate holds the player's progress: current node, the active
// tuning challenge, scores, indicators and the decisions made so far.
package gamestate

import "maps"

// View is the screen the player is looking at.
type View string

const (
	ViewNarrative  View = "narrative"
	ViewPerception View = "perception"
)

const (
	ScoreEnlightenment = "Enlightenment"
	ScoreTrust         = "Trust"
	ScoreWitness       = "Witness"
	ScoreReality       = "Reality"

	IndicatorNeuralStability = "NeuralStability"
)

// Indicators are the values shown to the player.
type Indicators struct {
	NeuralStability       float64 `json:"NeuralStability" yaml:"neural_stability"`
	PhysicalVitality      string  `json:"PhysicalVitality" yaml:"physical_vitality"`
	ConsciousnessSpectrum string  `json:"ConsciousnessSpectrum" yaml:"consciousness_spectrum"`
}

// State is the saveable part of the game.
type State struct {
	CurrentNodeID     string            `json:"currentNodeId" yaml:"current_node_id"`
	DecisionHistory   map[string]string `json:"decisionHistory" yaml:"decision_history"`
	HiddenPointScores map[string]int    `json:"hiddenPointScores" yaml:"hidden_point_scores"`
	Indicators        Indicators        `json:"visibleIndicatorValues" yaml:"visible_indicator_values"`
	ScenesVisited     []string          `json:"scenesVisited,omitempty" yaml:"scenes_visited,omitempty"`
}

// DefaultState is a new game.
func DefaultState() State {
	return State{
		DecisionHistory: map[string]string{},
		HiddenPointScores: map[string]int{
			ScoreEnlightenment: 0,
			ScoreTrust:         0,
			ScoreWitness:       0,
			ScoreReality:       100,
		},
		Indicators: Indicators{
			NeuralStability:       0.95,
			PhysicalVitality:      "OPTIMAL",
			ConsciousnessSpectrum: "SEPARATE",
		},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.DecisionHistory = maps.Clone(s.DecisionHistory)
	out.HiddenPointScores = maps.Clone(s.HiddenPointScores)
	out.ScenesVisited = append([]string(nil), s.ScenesVisited...)
	if out.DecisionHistory == nil {
		out.DecisionHistory = map[string]string{}
	}
	if out.HiddenPointScores == nil {
		out.HiddenPointScores = map[string]int{}
	}
	return out
}

// Merge lays saved over defaults. Saved scores and decisions win key by key;
// a saved indicator block replaces the default one whole.
func Merge(defaults, saved State) State {
	out := defaults.Clone()
	if saved.CurrentNodeID != "" {
		out.CurrentNodeID = saved.CurrentNodeID
	}
	for k, v := range saved.DecisionHistory {
		out.DecisionHistory[k] = v
	}
	for k, v := range saved.HiddenPointScores {
		out.HiddenPointScores[k] = v
	}
	if saved.Indicators != (Indicators{}) {
		out.Indicators = saved.Indicators
		out.Indicators.NeuralStability = clamp01(out.Indicators.NeuralStability)
	}
	if len(saved.ScenesVisited) > 0 {
		out.ScenesVisited = append([]string(nil), saved.ScenesVisited...)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
