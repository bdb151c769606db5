package narrative

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrInvalidNode = errors.New("invalid node")

// Validate checks a node document for the problems that would break
// playback or progression. All problems are reported together.
func Validate(n *Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil", ErrInvalidNode)
	}

	var errs []error
	if strings.TrimSpace(n.ID) == "" {
		errs = append(errs, errors.New("missing id"))
	}
	prev := 0.0
	for i, p := range n.Pages {
		if p.Timestamp < 0 {
			errs = append(errs, fmt.Errorf("page %d: negative timestamp %v", i, p.Timestamp))
		}
		if i > 0 && p.Timestamp < prev {
			errs = append(errs, fmt.Errorf("page %d: timestamp %v before page %d at %v", i, p.Timestamp, i-1, prev))
		}
		prev = p.Timestamp
	}
	if n.AudioRef != "" {
		clean := path.Clean("/" + n.AudioRef)
		if strings.Contains(n.AudioRef, "..") || strings.Contains(n.AudioRef, "://") || clean == "/" {
			errs = append(errs, fmt.Errorf("audioRef %q must be a local narration file", n.AudioRef))
		}
	}
	if n.Next != "" && n.Next == n.ID {
		errs = append(errs, fmt.Errorf("next points back at %q", n.ID))
	}
	if n.RequiresTuning {
		switch {
		case n.Challenge == nil:
			errs = append(errs, errors.New("requiresTuning without challengeConfig"))
		case len(n.Challenge.Interpretations) == 0:
			errs = append(errs, errors.New("challengeConfig has no interpretations"))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidNode, n.ID, errors.Join(errs...))
}
