package ebitenplayer

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/milk9111/horizons/playback"
)

// BufferedBackend decodes the whole track in the background before it can
// play. The duration arrives through OnMetadata once decoding finishes; it
// has no end-of-track signal.
type BufferedBackend struct {
	ctx  *audio.Context
	load Loader

	mu       sync.Mutex
	path     string
	player   *audio.Player
	duration float64
	volume   float64
	meta     func(float64)
	gen      int
	closed   bool
}

func NewBufferedBackend(ctx *audio.Context, load Loader) *BufferedBackend {
	return &BufferedBackend{ctx: ctx, load: load, volume: 1}
}

func (b *BufferedBackend) Kind() playback.Kind {
	return playback.KindBuffered
}

// Load reads the file and starts decoding. Decode failures are logged and
// leave the duration unknown.
func (b *BufferedBackend) Load(path string) error {
	data, err := b.load(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}

	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.path = path
	b.mu.Unlock()

	go b.decode(gen, path, data)
	return nil
}

func (b *BufferedBackend) decode(gen int, path string, data []byte) {
	sampleRate := b.ctx.SampleRate()
	stream, err := decode(path, data, sampleRate)
	if err != nil {
		log.Printf("playback: buffered: %v", err)
		return
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		log.Printf("playback: buffered: read %q: %v", path, err)
		return
	}

	b.mu.Lock()
	if b.closed || gen != b.gen {
		b.mu.Unlock()
		return
	}
	if b.player != nil {
		_ = b.player.Close()
	}
	b.player = b.ctx.NewPlayerFromBytes(pcm)
	b.player.SetVolume(b.volume)
	b.duration = byteDuration(int64(len(pcm)), sampleRate)
	d := b.duration
	fn := b.meta
	b.mu.Unlock()

	if fn != nil {
		fn(d)
	}
}

// OnMetadata registers the duration callback. It runs on the decode
// goroutine.
func (b *BufferedBackend) OnMetadata(fn func(duration float64)) {
	b.mu.Lock()
	b.meta = fn
	b.mu.Unlock()
}

func (b *BufferedBackend) current() *audio.Player {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.player
}

func (b *BufferedBackend) Play() error {
	p := b.current()
	if p == nil {
		return playback.ErrNotLoaded
	}
	if !b.ctx.IsReady() {
		return errOutputSuspended
	}
	p.Play()
	return nil
}

// Resume succeeds once the shared output is ready; the decoded buffer needs
// no rebuilding.
func (b *BufferedBackend) Resume() error {
	if !b.ctx.IsReady() {
		return errOutputSuspended
	}
	return nil
}

func (b *BufferedBackend) Pause() {
	if p := b.current(); p != nil {
		p.Pause()
	}
}

func (b *BufferedBackend) Stop() {
	p := b.current()
	if p == nil {
		return
	}
	p.Pause()
	_ = p.Rewind()
}

func (b *BufferedBackend) Seek(s float64) error {
	p := b.current()
	if p == nil {
		return playback.ErrNotLoaded
	}
	return p.SetPosition(seconds(s))
}

func (b *BufferedBackend) CurrentTime() float64 {
	p := b.current()
	if p == nil {
		return 0
	}
	return p.Position().Seconds()
}

func (b *BufferedBackend) Duration() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duration, b.duration > 0
}

func (b *BufferedBackend) SetVolume(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = v
	if b.player != nil {
		b.player.SetVolume(v)
	}
}

func (b *BufferedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.meta = nil
	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil
	return err
}
