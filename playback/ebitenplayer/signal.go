package ebitenplayer

import (
	"io"
	"sync"
)

// endSignalReader records when its stream returns io.EOF. Seeking away from
// the end clears it.
type endSignalReader struct {
	src io.ReadSeeker

	mu      sync.Mutex
	drained bool
}

func newEndSignalReader(src io.ReadSeeker) *endSignalReader {
	return &endSignalReader{src: src}
}

func (r *endSignalReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if err == io.EOF {
		r.mu.Lock()
		r.drained = true
		r.mu.Unlock()
	}
	return n, err
}

func (r *endSignalReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := r.src.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	r.mu.Lock()
	r.drained = false
	r.mu.Unlock()
	return pos, nil
}

// Drained reports whether the decoder has handed over its last sample.
func (r *endSignalReader) Drained() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drained
}

// endGate lets the end of a track through once: after the decoder has
// drained and the player has gone quiet on its own.
type endGate struct {
	sent bool
}

func (g *endGate) open(drained, playing, paused bool) bool {
	if g.sent || !drained || playing || paused {
		return false
	}
	g.sent = true
	return true
}

func (g *endGate) reset() {
	g.sent = false
}
