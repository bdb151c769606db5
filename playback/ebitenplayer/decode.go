package ebitenplayer

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// Decoded streams are 16-bit little endian stereo.
const bytesPerFrame = 4

type decodedStream interface {
	io.ReadSeeker
	Length() int64
}

// Loader reads raw audio bytes for a resolved path.
type Loader func(path string) ([]byte, error)

func decode(path string, data []byte, sampleRate int) (decodedStream, error) {
	r := bytes.NewReader(data)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		s, err := mp3.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, fmt.Errorf("decode mp3 %q: %w", path, err)
		}
		return s, nil
	case ".wav":
		s, err := wav.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, fmt.Errorf("decode wav %q: %w", path, err)
		}
		return s, nil
	case ".ogg", ".oga":
		s, err := vorbis.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, fmt.Errorf("decode ogg %q: %w", path, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("decode %q: unsupported format %q", path, ext)
	}
}

// byteDuration converts a decoded byte length to seconds.
func byteDuration(n int64, sampleRate int) float64 {
	if n <= 0 || sampleRate <= 0 {
		return 0
	}
	return float64(n/bytesPerFrame) / float64(sampleRate)
}

func seconds(d float64) time.Duration {
	return time.Duration(d * float64(time.Second))
}
