package narrative

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var ErrNoOutcomes = errors.New("tuning node has no outcomes")

// Issue is one problem found in a node graph.
type Issue struct {
	Node string
	Err  error
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %v", i.Node, i.Err)
}

// AudioCheck reports whether an audio reference can be loaded.
type AudioCheck func(ref string) error

// Lint walks the graph reachable from start. It follows next links, tuning
// outcomes and challenge defaults, and returns the ids it reached in walk
// order with every problem it found on the way.
func Lint(ctx context.Context, f Fetcher, start string, audio AudioCheck) ([]string, []Issue) {
	var (
		visited []string
		issues  []Issue
		seen    = map[string]bool{start: true}
		queue   = []string{start}
	)

	follow := func(from, to string) {
		if to == "" || to == from || seen[to] {
			return
		}
		seen[to] = true
		queue = append(queue, to)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		n, err := f.Fetch(ctx, id)
		if err != nil {
			issues = append(issues, Issue{Node: id, Err: err})
			continue
		}
		visited = append(visited, id)

		if n.AudioRef != "" && audio != nil {
			if err := audio(n.AudioRef); err != nil {
				issues = append(issues, Issue{Node: id, Err: fmt.Errorf("audio %q: %w", n.AudioRef, err)})
			}
		}
		follow(id, n.Next)

		if !n.RequiresTuning || n.Challenge == nil {
			continue
		}
		cfg := n.Challenge
		if len(cfg.Outcomes) == 0 && cfg.Default == "" && n.Next == "" {
			issues = append(issues, Issue{Node: id, Err: ErrNoOutcomes})
		}
		if cfg.Script != "" {
			if err := CompileOutcomeScript(cfg.Script); err != nil {
				issues = append(issues, Issue{Node: id, Err: fmt.Errorf("challenge %q script: %w", cfg.ID, err)})
			}
		}
		for _, choice := range sortedOutcomeKeys(cfg.Outcomes) {
			if _, ok := cfg.Interpretations[choice]; !ok {
				issues = append(issues, Issue{Node: id, Err: fmt.Errorf("outcome for %w %q", ErrUnknownChoice, choice)})
			}
			follow(id, cfg.Outcomes[choice].Next)
		}
		follow(id, cfg.Default)
	}
	return visited, issues
}

// Unreachable returns the ids in all that the walk never reached.
func Unreachable(all, visited []string) []string {
	reached := make(map[string]bool, len(visited))
	for _, id := range visited {
		reached[id] = true
	}
	var out []string
	for _, id := range all {
		if !reached[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sortedOutcomeKeys(m map[string]Outcome) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
