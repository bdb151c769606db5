package narrative

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

var ErrUnknownChoice = errors.New("unknown choice")

// ResolveOutcome decides what a tuning choice leads to. A challenge script,
// when present, sees the globals `choice` and `scores` and may assign a map
// with `next`, `points` and `indicators` to `outcome`. Without a script, or
// when the script leaves `outcome` empty, the static outcome table is used.
func ResolveOutcome(cfg *ChallengeConfig, choice string, scores map[string]int) (Outcome, error) {
	if cfg == nil {
		return Outcome{}, errors.New("resolve outcome: no challenge")
	}
	choice = strings.TrimSpace(choice)
	if _, ok := cfg.Interpretations[choice]; !ok {
		return Outcome{}, fmt.Errorf("resolve outcome: %w %q", ErrUnknownChoice, choice)
	}

	if strings.TrimSpace(cfg.Script) != "" {
		out, ok, err := runOutcomeScript(cfg.Script, choice, scores)
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve outcome: challenge %q script: %w", cfg.ID, err)
		}
		if ok {
			if out.Next == "" {
				out.Next = cfg.Default
			}
			return out, nil
		}
	}

	if out, ok := cfg.Outcomes[choice]; ok {
		if out.Next == "" {
			out.Next = cfg.Default
		}
		return out, nil
	}
	return Outcome{Next: cfg.Default}, nil
}

// CompileOutcomeScript checks that src compiles with the globals
// ResolveOutcome provides.
func CompileOutcomeScript(src string) error {
	_, err := compileOutcomeScript(src, "", nil)
	return err
}

func compileOutcomeScript(src, choice string, scores map[string]int) (*tengo.Compiled, error) {
	vars := make(map[string]any, len(scores))
	for k, v := range scores {
		vars[k] = v
	}

	script := tengo.NewScript([]byte(src))
	_ = script.Add("choice", choice)
	_ = script.Add("scores", vars)
	_ = script.Add("outcome", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	return script.Compile()
}

func runOutcomeScript(src, choice string, scores map[string]int) (Outcome, bool, error) {
	compiled, err := compileOutcomeScript(src, choice, scores)
	if err != nil {
		return Outcome{}, false, err
	}
	if err := compiled.Run(); err != nil {
		return Outcome{}, false, err
	}

	raw := compiled.Get("outcome").Map()
	if len(raw) == 0 {
		return Outcome{}, false, nil
	}

	var out Outcome
	if next, ok := raw["next"].(string); ok {
		out.Next = next
	}
	if pts, ok := raw["points"].(map[string]any); ok {
		out.Points = make(map[string]int, len(pts))
		for k, v := range pts {
			n, ok := toFloat(v)
			if !ok {
				return Outcome{}, false, fmt.Errorf("points[%q]: not a number", k)
			}
			out.Points[k] = int(n)
		}
	}
	if ind, ok := raw["indicators"].(map[string]any); ok {
		out.Indicators = make(map[string]float64, len(ind))
		for k, v := range ind {
			n, ok := toFloat(v)
			if !ok {
				return Outcome{}, false, fmt.Errorf("indicators[%q]: not a number", k)
			}
			out.Indicators[k] = n
		}
	}
	return out, true, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
