package ebitenplayer

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/milk9111/horizons/playback"
)

// NewFactory builds ebiten-backed adapters that read tracks through load.
func NewFactory(ctx *audio.Context, load Loader) playback.Factory {
	return func(kind playback.Kind) (playback.Backend, error) {
		if ctx == nil {
			return nil, fmt.Errorf("no audio context")
		}
		switch kind {
		case playback.KindStream:
			return NewStreamBackend(ctx, load), nil
		case playback.KindBuffered:
			return NewBufferedBackend(ctx, load), nil
		default:
			return nil, fmt.Errorf("unknown backend kind %s", kind)
		}
	}
}
