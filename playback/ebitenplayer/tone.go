package ebitenplayer

import (
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/milk9111/horizons/playback"
)

// UnlockTone plays about a millisecond of silence on ctx and stops it at
// once. Browsers that gate audio behind a gesture unlock the output on the
// first play inside the gesture handler.
func UnlockTone(ctx *audio.Context) playback.ToneFunc {
	return func() error {
		frames := ctx.SampleRate() / 1000
		if frames < 1 {
			frames = 1
		}
		p := ctx.NewPlayerFromBytes(make([]byte, frames*bytesPerFrame))
		p.SetVolume(0)
		p.Play()
		p.Pause()
		return p.Close()
	}
}
