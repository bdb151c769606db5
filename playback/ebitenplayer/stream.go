package ebitenplayer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/milk9111/horizons/playback"
)

var errOutputSuspended = errors.New("audio output suspended")

// StreamBackend decodes on the fly into an ebiten player. Its duration is
// known as soon as the track is loaded and it signals the end of the track
// once the decoder has drained and the player has played out its buffer.
type StreamBackend struct {
	ctx  *audio.Context
	load Loader

	path     string
	reader   *endSignalReader
	player   *audio.Player
	duration float64
	volume   float64
	paused   bool
	gate     endGate

	mu    sync.Mutex
	ended func()
}

func NewStreamBackend(ctx *audio.Context, load Loader) *StreamBackend {
	return &StreamBackend{ctx: ctx, load: load, volume: 1}
}

func (b *StreamBackend) Kind() playback.Kind {
	return playback.KindStream
}

func (b *StreamBackend) Load(path string) error {
	data, err := b.load(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	stream, err := decode(path, data, b.ctx.SampleRate())
	if err != nil {
		return err
	}

	reader := newEndSignalReader(stream)
	player, err := b.ctx.NewPlayer(reader)
	if err != nil {
		return fmt.Errorf("new player %q: %w", path, err)
	}

	b.closePlayer()
	b.path = path
	b.reader = reader
	b.player = player
	b.duration = byteDuration(stream.Length(), b.ctx.SampleRate())
	b.player.SetVolume(b.volume)
	b.paused = true
	b.gate.reset()
	return nil
}

// CheckEnded delivers the end of the track when the decoder has drained and
// the player stopped by itself rather than through Pause.
func (b *StreamBackend) CheckEnded() {
	if b.player == nil || b.reader == nil {
		return
	}
	if !b.gate.open(b.reader.Drained(), b.player.IsPlaying(), b.paused) {
		return
	}
	b.mu.Lock()
	fn := b.ended
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// OnEnded registers the end-of-track callback. It runs from CheckEnded.
func (b *StreamBackend) OnEnded(fn func()) {
	b.mu.Lock()
	b.ended = fn
	b.mu.Unlock()
}

func (b *StreamBackend) Play() error {
	if b.player == nil {
		return playback.ErrNotLoaded
	}
	if !b.ctx.IsReady() {
		return errOutputSuspended
	}
	b.player.Play()
	b.paused = false
	return nil
}

// Resume rebuilds the player at its current position. A player created
// before the output was unlocked can stay silent otherwise.
func (b *StreamBackend) Resume() error {
	if b.player == nil {
		return playback.ErrNotLoaded
	}
	if !b.ctx.IsReady() {
		return errOutputSuspended
	}
	pos := b.player.Position()
	_ = b.player.Close()

	player, err := b.ctx.NewPlayer(b.reader)
	if err != nil {
		b.player = nil
		return fmt.Errorf("resume %q: %w", b.path, err)
	}
	b.player = player
	b.player.SetVolume(b.volume)
	return b.player.SetPosition(pos)
}

func (b *StreamBackend) Pause() {
	if b.player != nil {
		b.player.Pause()
	}
	b.paused = true
}

func (b *StreamBackend) Stop() {
	b.paused = true
	if b.player == nil {
		return
	}
	b.player.Pause()
	_ = b.player.Rewind()
	b.gate.reset()
}

func (b *StreamBackend) Seek(s float64) error {
	if b.player == nil {
		return playback.ErrNotLoaded
	}
	b.gate.reset()
	return b.player.SetPosition(seconds(s))
}

func (b *StreamBackend) CurrentTime() float64 {
	if b.player == nil {
		return 0
	}
	return b.player.Position().Seconds()
}

func (b *StreamBackend) Duration() (float64, bool) {
	return b.duration, b.duration > 0
}

func (b *StreamBackend) SetVolume(v float64) {
	b.volume = v
	if b.player != nil {
		b.player.SetVolume(v)
	}
}

func (b *StreamBackend) Close() error {
	b.OnEnded(nil)
	return b.closePlayer()
}

func (b *StreamBackend) closePlayer() error {
	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil
	b.reader = nil
	return err
}
