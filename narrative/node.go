// Package narrative loads narrative nodes and walks the node graph in step
// with narration playback.
package narrative

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Node is one unit of narrative content.
type Node struct {
	ID    string `json:"id" jsonschema:"required,description=Unique node id; also the document file name"`
	Title string `json:"title,omitempty"`
	Pages []Page `json:"pages" jsonschema:"description=Pages in reading order with non-decreasing timestamps"`
	// AudioRef names a narration file under the narration asset directory.
	AudioRef       string           `json:"audioRef,omitempty"`
	Next           string           `json:"next,omitempty" jsonschema:"description=Successor node id; absent ends the narrative"`
	RequiresTuning bool             `json:"requiresTuning,omitempty"`
	Challenge      *ChallengeConfig `json:"challengeConfig,omitempty"`
}

// Page is a block of text shown from Timestamp seconds into the narration.
type Page struct {
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp" jsonschema:"minimum=0"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// UnmarshalJSON accepts either a page object or a bare string of text.
func (p *Page) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*p = Page{Text: text}
		return nil
	}
	type page Page
	var raw page
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Page(raw)
	return nil
}

// UnmarshalJSON accepts the older "audio" key as an alias for "audioRef".
func (n *Node) UnmarshalJSON(data []byte) error {
	type node Node
	var raw struct {
		node
		Audio string `json:"audio"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node(raw.node)
	if n.AudioRef == "" {
		n.AudioRef = raw.Audio
	}
	return nil
}

// ChallengeConfig describes the tuning minigame a node hands off to.
type ChallengeConfig struct {
	ID     string `json:"id,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	// Interpretations are keyed by choice id ("A", "B", ...).
	Interpretations map[string]Interpretation `json:"interpretations"`
	Outcomes        map[string]Outcome        `json:"outcomes,omitempty"`
	// Script is tengo source that may compute the outcome instead of the
	// static table.
	Script string `json:"script,omitempty"`
	// Default is the successor used when a choice has no outcome.
	Default string `json:"default,omitempty"`
}

type Interpretation struct {
	Label                string    `json:"label"`
	Description          string    `json:"description,omitempty"`
	TargetFrequencyRange []float64 `json:"targetFrequencyRange,omitempty" jsonschema:"minItems=2,maxItems=2"`
	StabilityThreshold   float64   `json:"stabilityThreshold,omitempty"`
}

// Outcome is the result of a resolved choice: where to go next and how the
// hidden scores and visible indicators move.
type Outcome struct {
	Next       string             `json:"next,omitempty"`
	Points     map[string]int     `json:"points,omitempty"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

// Choices returns the interpretation keys in sorted order.
func (c *ChallengeConfig) Choices() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Interpretations))
	for k := range c.Interpretations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode reads and validates a node document.
func Decode(r io.Reader) (*Node, error) {
	var n Node
	dec := json.NewDecoder(r)
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	if err := Validate(&n); err != nil {
		return nil, err
	}
	return &n, nil
}
