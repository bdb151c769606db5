// Package engine wires playback, progression, scroll and page sync, the game
// state and the reader into one cooperative per-frame update.
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/milk9111/horizons/assets"
	"github.com/milk9111/horizons/config"
	"github.com/milk9111/horizons/gamestate"
	"github.com/milk9111/horizons/narrative"
	"github.com/milk9111/horizons/narratives"
	"github.com/milk9111/horizons/pagesync"
	"github.com/milk9111/horizons/playback"
	"github.com/milk9111/horizons/playback/ebitenplayer"
	"github.com/milk9111/horizons/reader"
	"github.com/milk9111/horizons/scrollsync"
)

const saveTimeout = 5 * time.Second

// PageView is the laid-out text the runtime scrolls.
type PageView interface {
	SetPages(pages []narrative.Page)
	ScrollableHeight() float64
	Layout() reader.Layout
	PageText(i int) (string, bool)
}

// Options configures a Runtime. Zero fields get production defaults.
type Options struct {
	Config  *config.Config
	View    PageView
	Fetcher narrative.Fetcher
	Factory playback.Factory
	// Platform overrides platform detection.
	Platform *playback.Platform
	Tone     playback.ToneFunc
	Saver    gamestate.Saver
	Input    func() reader.Input
	Copy     func(text string) error
	Now      func() time.Time
	// ForceStart begins at Config.StartNode even when a save names another
	// node. Saved scores and history are still restored.
	ForceStart bool
	Logf       func(format string, args ...any)
}

// Runtime is the running game.
type Runtime struct {
	cfg  *config.Config
	logf func(format string, args ...any)
	now  func() time.Time

	Store       *gamestate.Store
	Selector    *playback.Selector
	Unlocker    *playback.Unlocker
	Progression *narrative.Progression
	Scroller    *scrollsync.SmoothScroller
	Scroll      *scrollsync.Engine
	Pages       *pagesync.Publisher

	// Input is the input sampled this frame.
	Input reader.Input

	view       PageView
	fetcher    narrative.Fetcher
	saver      gamestate.Saver
	watcher    *narrative.Watcher
	readInput  func() reader.Input
	copyText   func(string) error
	forceStart bool

	pages      []pagesync.Page
	muted      bool
	resumeView bool
	synced     bool
	status     string

	unsubscribe func()
	saving      atomic.Bool
	saves       sync.WaitGroup

	scheduler *Scheduler
}

func New(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Default(); err != nil {
			return nil, err
		}
	}
	if opts.View == nil {
		return nil, fmt.Errorf("engine: no page view")
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Input == nil {
		opts.Input = reader.ReadInput
	}
	if opts.Copy == nil {
		opts.Copy = reader.CopyText
	}

	platform := playback.CurrentPlatform()
	if opts.Platform != nil {
		platform = *opts.Platform
	}

	if opts.Factory == nil {
		ctx := ebitenplayer.Context(cfg.Audio.SampleRate)
		opts.Factory = ebitenplayer.NewFactory(ctx, assets.LoadAudio)
		if opts.Tone == nil {
			opts.Tone = ebitenplayer.UnlockTone(ctx)
		}
	}

	rt := &Runtime{
		cfg:        cfg,
		logf:       opts.Logf,
		now:        opts.Now,
		view:       opts.View,
		readInput:  opts.Input,
		copyText:   opts.Copy,
		forceStart: opts.ForceStart,
		Store:      gamestate.NewStore(),
	}

	rt.fetcher = opts.Fetcher
	if rt.fetcher == nil {
		rt.fetcher = newFetcher(cfg)
	}
	rt.saver = opts.Saver
	if rt.saver == nil {
		rt.saver = newSaver(cfg)
	}
	if cfg.Narratives.Watch && cfg.Narratives.BaseURL == "" && cfg.Narratives.Dir != "" {
		w, err := narrative.NewWatcher(cfg.Narratives.Dir)
		if err != nil {
			rt.logf("engine: watch %s: %v", cfg.Narratives.Dir, err)
		} else {
			rt.watcher = w
		}
	}

	rt.Selector = playback.NewSelector(playback.Options{
		Platform:     platform,
		Factory:      opts.Factory,
		Resolve:      assets.NarrationPath,
		Force:        playback.ParseKind(cfg.Audio.ForceBackend),
		DurationWait: cfg.Audio.DurationWait,
		Clock: playback.ClockOptions{
			PollInterval: cfg.Audio.PollInterval,
			EndThreshold: cfg.Audio.EndThreshold,
		},
		Now:  opts.Now,
		Logf: opts.Logf,
	})
	rt.Unlocker = playback.NewUnlocker(platform, opts.Tone)

	rt.Scroller = scrollsync.NewSmoothScroller(cfg.Reader.Smoothing)
	rt.Scroll = scrollsync.NewEngine(rt.Scroller)
	rt.Scroll.SetEnabled(cfg.Reader.AutoScroll)
	rt.Scroll.OnFrame = func(currentTime, _ float64) {
		rt.publishPages(currentTime)
	}
	rt.Pages = pagesync.NewPublisher(cfg.Reader.FadeFrames)

	rt.Progression = narrative.NewProgression(narrative.ProgressionOptions{
		Fetcher:  rt.fetcher,
		Sessions: rt.Selector,
		Store:    rt.Store,
		Outcomes: rt.Store,
		Logf:     opts.Logf,
		Hooks: narrative.Hooks{
			Teardown:       rt.onTeardown,
			NodeLoaded:     rt.onNodeLoaded,
			SessionStarted: rt.onSessionStarted,
			Advanced:       rt.onAdvanced,
			Failed:         rt.onFailed,
			Ended:          rt.onEnded,
		},
	})
	rt.unsubscribe = rt.Store.Subscribe(rt.onStoreEvent)

	rt.scheduler = NewScheduler(
		NewInputSystem(),
		NewUnlockSystem(),
		NewControlSystem(),
	)
	if rt.watcher != nil {
		rt.scheduler.Add(NewReloadSystem())
	}
	rt.scheduler.Add(NewProgressionSystem())
	rt.scheduler.Add(NewPlaybackSystem())
	rt.scheduler.Add(NewScrollSystem())
	rt.scheduler.Add(NewPageSystem())
	rt.scheduler.Add(NewSaveSystem())
	return rt, nil
}

func newFetcher(cfg *config.Config) *narrative.CachingFetcher {
	if cfg.Narratives.BaseURL != "" {
		return narrative.NewCachingFetcher(&narrative.HTTPFetcher{BaseURL: cfg.Narratives.BaseURL})
	}
	return narrative.NewCachingFetcher(&narrative.FSFetcher{Dir: cfg.Narratives.Dir, Embedded: narratives.NarrativesFS})
}

func newSaver(cfg *config.Config) gamestate.Saver {
	switch cfg.Save.Mode {
	case config.SaveFile:
		return &gamestate.FileSaver{Path: cfg.Save.Path}
	case config.SaveRemote:
		return &gamestate.RemoteSaver{URL: cfg.Save.RemoteURL, Slot: cfg.Save.Slot}
	default:
		return gamestate.NopSaver{}
	}
}

// Start arms the audio unlock and restores the saved game. A save that
// cannot be read is logged and play starts fresh.
func (rt *Runtime) Start(ctx context.Context) {
	rt.Unlocker.Arm()
	if rt.Unlocker.Armed() {
		rt.status = "Tap or press a key to begin"
	}

	saved, ok, err := rt.saver.Load(ctx)
	if err != nil {
		rt.logf("save: load: %v", err)
	}
	if ok {
		rt.Store.Restore(saved)
	}
	if rt.forceStart || rt.Store.CurrentNode() == "" {
		rt.Store.UpdateCurrentNode(rt.cfg.StartNode)
	}
}

// Update runs one frame.
func (rt *Runtime) Update() {
	rt.scheduler.Update(rt)
}

// Close tears down playback and waits for pending saves.
func (rt *Runtime) Close() error {
	rt.Progression.Dispose()
	rt.Selector.Dispose()
	rt.saves.Wait()
	if rt.unsubscribe != nil {
		rt.unsubscribe()
	}

	var err error
	if rt.watcher != nil {
		err = rt.watcher.Close()
	}
	if c, ok := rt.saver.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Wait blocks until fetches and saves in flight have finished.
func (rt *Runtime) Wait() {
	rt.Progression.Wait()
	rt.saves.Wait()
}

func (rt *Runtime) Status() string {
	return rt.status
}

func (rt *Runtime) Muted() bool {
	return rt.muted
}

// ControlState is what the control bar should show this frame.
func (rt *Runtime) ControlState() reader.ControlState {
	sess := rt.Progression.Session()
	return reader.ControlState{
		Playing:    sess != nil && sess.Playing(),
		AutoScroll: rt.Scroll.Enabled(),
		Muted:      rt.muted,
		Status:     rt.status,
	}
}

// ScrollOffset is the reader's current scroll position.
func (rt *Runtime) ScrollOffset() float64 {
	return rt.Scroller.Offset()
}

// Play resumes narration and lifts a user pause on auto-scroll.
func (rt *Runtime) Play() {
	if err := rt.Progression.Play(); err != nil {
		rt.logf("engine: play: %v", err)
		return
	}
	if rt.Scroll.PausedByUser() {
		rt.Scroll.ResumeAutoScroll()
	}
}

// Pause pauses narration at the user's request.
func (rt *Runtime) Pause() {
	rt.Progression.Pause()
	rt.Scroll.SetPausedByUser(true)
}

func (rt *Runtime) TogglePlay() {
	sess := rt.Progression.Session()
	if sess == nil {
		return
	}
	if sess.Playing() {
		rt.Pause()
		return
	}
	rt.Play()
}

func (rt *Runtime) SetAutoScrollEnabled(enabled bool) {
	rt.Scroll.SetEnabled(enabled)
}

func (rt *Runtime) ToggleMute() {
	rt.muted = !rt.muted
	if sess := rt.Progression.Session(); sess != nil {
		sess.SetMuted(rt.muted)
	}
}

// ToggleView flips between the narrative and perception views. Narration
// playing when the perception view opens resumes when the narrative view
// returns.
func (rt *Runtime) ToggleView() {
	if rt.Store.View() == gamestate.ViewNarrative {
		if sess := rt.Progression.Session(); sess != nil && sess.Playing() {
			rt.Progression.Pause()
			rt.resumeView = true
		}
		rt.Store.SetView(gamestate.ViewPerception)
		return
	}

	rt.Store.SetView(gamestate.ViewNarrative)
	if rt.resumeView {
		rt.resumeView = false
		if err := rt.Progression.Play(); err != nil {
			rt.logf("engine: resume after view toggle: %v", err)
		}
	}
}

// Choose resolves the active tuning challenge with an interpretation key.
func (rt *Runtime) Choose(choice string) {
	out, err := rt.Progression.ResolveTuning(choice)
	if err != nil {
		rt.logf("engine: choose %q: %v", choice, err)
		return
	}
	if rt.cfg.Debug {
		rt.logf("engine: chose %q, next %q", choice, out.Next)
	}
}

// ScrollBy moves the reader by a user scroll.
func (rt *Runtime) ScrollBy(delta float64) {
	rt.Scroller.UserScroll(delta)
	rt.Scroll.NotifyManualScroll(rt.Scroller.Offset())
}

// TurnPage moves the reader delta pages from the page at the top.
func (rt *Runtime) TurnPage(delta int) {
	layout := rt.view.Layout()
	if len(layout.PageOffsets) == 0 {
		return
	}
	page := layout.PageAt(rt.Scroller.Target()) + delta
	page = max(0, min(page, len(layout.PageOffsets)-1))
	off, _ := layout.PageOffset(page)
	rt.Scroller.ScrollTo(off)
	rt.Scroll.NotifyManualScroll(off)
}

// CopyPage copies the text of the current page.
func (rt *Runtime) CopyPage() {
	page := rt.Pages.Page()
	if page < 0 {
		page = rt.view.Layout().PageAt(rt.Scroller.Offset())
	}
	text, ok := rt.view.PageText(page)
	if !ok {
		return
	}
	if err := rt.copyText(text); err != nil {
		rt.logf("engine: copy page: %v", err)
	}
}

func (rt *Runtime) currentTime() float64 {
	sess := rt.Progression.Session()
	if sess == nil || sess.Clock() == nil {
		return 0
	}
	return sess.Clock().CurrentTime()
}

func (rt *Runtime) publishPages(t float64) {
	if rt.Pages.Update(rt.pages, t) && rt.cfg.Debug {
		img, _ := rt.Pages.Image()
		rt.logf("engine: page %d image %q at %.2fs", rt.Pages.Page(), img, t)
	}
}

func (rt *Runtime) onTeardown() {
	rt.Scroll.Reset()
	rt.Pages.Reset()
	rt.view.SetPages(nil)
	rt.pages = nil
	rt.resumeView = false
}

func (rt *Runtime) onNodeLoaded(n *narrative.Node) {
	rt.view.SetPages(n.Pages)
	rt.pages = make([]pagesync.Page, len(n.Pages))
	for i, p := range n.Pages {
		rt.pages[i] = pagesync.Page{Timestamp: p.Timestamp, ImageURL: p.ImageURL}
	}
	rt.Store.VisitScene(n.ID)
	rt.status = n.Title
}

func (rt *Runtime) onSessionStarted(sess *playback.Session) {
	sess.SetMuted(rt.muted)
	rt.Scroll.SetSource(sess.Clock())
	if rt.cfg.Debug {
		rt.logf("engine: %q on %s backend", sess.Ref(), sess.Kind())
	}
}

func (rt *Runtime) onAdvanced(from, to string) {
	if rt.cfg.Debug {
		rt.logf("engine: advanced %q -> %q", from, to)
	}
}

func (rt *Runtime) onFailed(err error) {
	rt.status = "Error: " + err.Error()
}

func (rt *Runtime) onEnded() {
	rt.status = "The End"
}

func (rt *Runtime) onStoreEvent(e gamestate.Event) {
	switch e.Kind {
	case gamestate.EventChallenge:
		if rt.Store.ActiveChallenge() != nil {
			rt.status = "A signal waits to be tuned"
		}
	case gamestate.EventRestore:
		rt.logf("save: restored at %q", e.Node)
	}
}
