package playback

// Kind identifies a playback adapter.
type Kind int

const (
	KindNone Kind = iota
	// KindStream streams decoded audio straight into the output device and
	// reports end of track natively.
	KindStream
	// KindBuffered decodes the whole track up front. Duration arrives
	// asynchronously and there is no end signal.
	KindBuffered
)

func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindBuffered:
		return "buffered"
	default:
		return "none"
	}
}

// ParseKind maps a config value to a Kind. Unknown values map to KindNone.
func ParseKind(s string) Kind {
	switch s {
	case "stream":
		return KindStream
	case "buffered":
		return KindBuffered
	default:
		return KindNone
	}
}

// Backend is the capability set every playback adapter exposes. Times are in
// seconds from the start of the track.
type Backend interface {
	Kind() Kind
	Load(path string) error
	Play() error
	Pause()
	// Stop halts playback and rewinds to the start.
	Stop()
	Seek(seconds float64) error
	CurrentTime() float64
	// Duration reports the track length when it is known without waiting.
	Duration() (float64, bool)
	SetVolume(volume float64)
	Close() error
}

// EndNotifier is implemented by backends with a native end-of-track signal.
// The callback may run on any goroutine.
type EndNotifier interface {
	OnEnded(fn func())
}

// EndChecker is implemented by end notifiers that deliver their signal only
// when polled, once audio already handed to the output has drained.
// CheckEnded runs once per frame on the update goroutine.
type EndChecker interface {
	CheckEnded()
}

// MetadataNotifier is implemented by backends that learn the track duration
// asynchronously. The callback may run on any goroutine.
type MetadataNotifier interface {
	OnMetadata(fn func(duration float64))
}

// Resumer is implemented by backends that can recover a suspended output
// before a play attempt is retried.
type Resumer interface {
	Resume() error
}

// Factory constructs an unloaded backend of the given kind.
type Factory func(kind Kind) (Backend, error)
