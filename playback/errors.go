package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendInit is returned when an adapter cannot be constructed or
	// cannot load a track.
	ErrBackendInit = errors.New("playback: backend init failed")
	// ErrDurationUnavailable marks a session whose duration never became
	// known. Playback continues; progress-driven sync stays off.
	ErrDurationUnavailable = errors.New("playback: duration unavailable")
	// ErrUnsupportedCompletion marks a backend without a native end signal.
	// The clock polls instead.
	ErrUnsupportedCompletion = errors.New("playback: no native completion signal")
	// ErrDisposed is returned by operations on a disposed session.
	ErrDisposed = errors.New("playback: session disposed")
	// ErrNotLoaded is returned by adapters asked to play before a track is loaded.
	ErrNotLoaded = errors.New("playback: no track loaded")
)

// PlaybackError reports a track that could not be played on any backend.
type PlaybackError struct {
	Ref  string
	Kind Kind
	Err  error
}

func (e *PlaybackError) Error() string {
	if e.Kind == KindNone {
		return fmt.Sprintf("playback: %q: %v", e.Ref, e.Err)
	}
	return fmt.Sprintf("playback: %q on %s backend: %v", e.Ref, e.Kind, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}
