package ebitenplayer

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

const DefaultSampleRate = 44100

var contextMu sync.Mutex

// Context returns the process-wide audio context, creating it at sampleRate
// on first use. Ebiten allows only one context per process, so later calls
// get the existing one whatever rate they ask for.
func Context(sampleRate int) *audio.Context {
	contextMu.Lock()
	defer contextMu.Unlock()
	if ctx := audio.CurrentContext(); ctx != nil {
		return ctx
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return audio.NewContext(sampleRate)
}
