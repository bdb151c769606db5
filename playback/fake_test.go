package playback

import (
	"errors"
	"fmt"
	"time"
)

// fakeBackend is a scripted adapter. Its position only moves when a test
// sets now.
type fakeBackend struct {
	kind Kind
	log  *[]string

	loadErr   error
	playErrs  int
	resumeErr error

	duration float64
	hasDur   bool
	now      float64

	playing bool
	volume  float64
	path    string

	plays   int
	resumes int
	stops   int
	closed  bool
}

func (b *fakeBackend) record(format string, args ...any) {
	if b.log != nil {
		*b.log = append(*b.log, fmt.Sprintf(format, args...))
	}
}

func (b *fakeBackend) Kind() Kind { return b.kind }

func (b *fakeBackend) Load(path string) error {
	b.path = path
	b.record("load %s %s", b.kind, path)
	return b.loadErr
}

func (b *fakeBackend) Play() error {
	b.plays++
	if b.playErrs > 0 {
		b.playErrs--
		return errors.New("play rejected")
	}
	b.playing = true
	return nil
}

func (b *fakeBackend) Pause() { b.playing = false }

func (b *fakeBackend) Stop() {
	b.playing = false
	b.now = 0
	b.stops++
}

func (b *fakeBackend) Seek(seconds float64) error {
	b.now = seconds
	return nil
}

func (b *fakeBackend) CurrentTime() float64 { return b.now }

func (b *fakeBackend) Duration() (float64, bool) { return b.duration, b.hasDur }

func (b *fakeBackend) SetVolume(v float64) { b.volume = v }

func (b *fakeBackend) Close() error {
	b.closed = true
	b.record("close %s %s", b.kind, b.path)
	return nil
}

func (b *fakeBackend) Resume() error {
	b.resumes++
	return b.resumeErr
}

// endBackend adds a native end signal.
type endBackend struct {
	*fakeBackend
	ended func()
}

func (b *endBackend) OnEnded(fn func()) { b.ended = fn }

// metaBackend learns its duration asynchronously.
type metaBackend struct {
	*fakeBackend
	meta func(float64)
}

func (b *metaBackend) OnMetadata(fn func(float64)) { b.meta = fn }

// fakeFactory hands out prepared backends per kind, in order.
type fakeFactory struct {
	log    []string
	queues map[Kind][]Backend
	err    map[Kind]error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{queues: map[Kind][]Backend{}, err: map[Kind]error{}}
}

func (f *fakeFactory) push(kind Kind, b Backend) {
	f.queues[kind] = append(f.queues[kind], b)
}

func (f *fakeFactory) build(kind Kind) (Backend, error) {
	f.log = append(f.log, fmt.Sprintf("new %s", kind))
	if err := f.err[kind]; err != nil {
		return nil, err
	}
	q := f.queues[kind]
	if len(q) == 0 {
		return nil, fmt.Errorf("no %s backend queued", kind)
	}
	f.queues[kind] = q[1:]
	return q[0], nil
}

func (f *fakeFactory) stream(dur float64) *endBackend {
	b := &endBackend{fakeBackend: &fakeBackend{kind: KindStream, log: &f.log, duration: dur, hasDur: dur > 0, volume: 1}}
	f.push(KindStream, b)
	return b
}

func (f *fakeFactory) buffered() *metaBackend {
	b := &metaBackend{fakeBackend: &fakeBackend{kind: KindBuffered, log: &f.log, volume: 1}}
	f.push(KindBuffered, b)
	return b
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

func newTestSelector(f *fakeFactory, clk *fakeClock, p Platform) *Selector {
	return NewSelector(Options{
		Platform: p,
		Factory:  f.build,
		Resolve:  func(ref string) string { return "narration/" + ref },
		Now:      clk.Now,
		Logf:     func(string, ...any) {},
	})
}

// checkedBackend only delivers its end signal when polled.
type checkedBackend struct {
	*endBackend
	checks  int
	drained bool
}

func (b *checkedBackend) CheckEnded() {
	b.checks++
	if b.drained && b.ended != nil {
		b.ended()
	}
}
