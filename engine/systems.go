package engine

import (
	"context"
)

// InputSystem samples input once per frame.
type InputSystem struct{}

func NewInputSystem() *InputSystem {
	return &InputSystem{}
}

func (s *InputSystem) Update(rt *Runtime) {
	rt.Input = rt.readInput()
}

// UnlockSystem hands the first gesture to the audio unlocker.
type UnlockSystem struct{}

func NewUnlockSystem() *UnlockSystem {
	return &UnlockSystem{}
}

func (s *UnlockSystem) Update(rt *Runtime) {
	if !rt.Input.Gesture || !rt.Unlocker.Armed() {
		return
	}
	rt.Unlocker.Gesture()
	rt.status = ""
}

// ControlSystem applies reader controls.
type ControlSystem struct{}

func NewControlSystem() *ControlSystem {
	return &ControlSystem{}
}

func (s *ControlSystem) Update(rt *Runtime) {
	in := rt.Input
	if in.TogglePlay {
		rt.TogglePlay()
	}
	if in.ToggleAuto {
		rt.SetAutoScrollEnabled(!rt.Scroll.Enabled())
	}
	if in.ResumeAuto {
		rt.Scroll.ResumeAutoScroll()
	}
	if in.ToggleMute {
		rt.ToggleMute()
	}
	if in.ToggleView {
		rt.ToggleView()
	}
	if in.PrevPage {
		rt.TurnPage(-1)
	}
	if in.NextPage {
		rt.TurnPage(1)
	}
	if in.Scroll != 0 {
		rt.ScrollBy(in.Scroll)
	}
	if in.Copy {
		rt.CopyPage()
	}
	if in.Choice > 0 {
		if cfg := rt.Store.ActiveChallenge(); cfg != nil {
			choices := cfg.Choices()
			if in.Choice <= len(choices) {
				rt.Choose(choices[in.Choice-1])
			}
		}
	}
}

// ReloadSystem refetches node documents that changed on disk.
type ReloadSystem struct{}

func NewReloadSystem() *ReloadSystem {
	return &ReloadSystem{}
}

func (s *ReloadSystem) Update(rt *Runtime) {
	if rt.watcher == nil {
		return
	}
	for {
		select {
		case id := <-rt.watcher.Events:
			if inv, ok := rt.fetcher.(interface{ Invalidate(id string) }); ok {
				inv.Invalidate(id)
			}
			if id == rt.Progression.Target() {
				rt.logf("engine: %q changed, reloading", id)
				rt.Progression.Reload()
			}
		case err := <-rt.watcher.Errors:
			rt.logf("engine: watch: %v", err)
		default:
			return
		}
	}
}

// ProgressionSystem applies finished fetches and completions, then follows
// the store's current node. Nothing loads while the audio unlock still waits
// for a gesture.
type ProgressionSystem struct{}

func NewProgressionSystem() *ProgressionSystem {
	return &ProgressionSystem{}
}

func (s *ProgressionSystem) Update(rt *Runtime) {
	if rt.Unlocker.Armed() {
		return
	}
	rt.Progression.Update()
	rt.Progression.Sync(rt.Store.CurrentNode())
}

// PlaybackSystem drives the live session's loading and completion watcher.
type PlaybackSystem struct{}

func NewPlaybackSystem() *PlaybackSystem {
	return &PlaybackSystem{}
}

func (s *PlaybackSystem) Update(rt *Runtime) {
	rt.Selector.Update(rt.now())
}

// ScrollSystem feeds the scroll engine and steps the scroller.
type ScrollSystem struct{}

func NewScrollSystem() *ScrollSystem {
	return &ScrollSystem{}
}

func (s *ScrollSystem) Update(rt *Runtime) {
	h := rt.view.ScrollableHeight()
	rt.Scroller.SetMax(h)
	rt.Scroll.SetContentHeight(h)

	sess := rt.Progression.Session()
	if sess != nil && sess.Clock() != nil {
		d, _ := sess.Clock().Duration()
		rt.Scroll.SetSource(sess.Clock())
		rt.Scroll.SetDuration(d)
		rt.Scroll.SetPlaying(sess.Playing())
	} else {
		rt.Scroll.SetDuration(0)
		rt.Scroll.SetPlaying(false)
	}

	rt.synced = rt.Scroll.Frame()
	rt.Scroller.Step()
}

// PageSystem publishes the page for the audio position when the scroll
// engine did not already do so this frame, and steps the fade.
type PageSystem struct{}

func NewPageSystem() *PageSystem {
	return &PageSystem{}
}

func (s *PageSystem) Update(rt *Runtime) {
	if !rt.synced {
		rt.publishPages(rt.currentTime())
	}
	rt.Pages.Step()
}

// SaveSystem writes the game state whenever it changes. Only one save runs
// at a time; changes made meanwhile are written by the next one.
type SaveSystem struct{}

func NewSaveSystem() *SaveSystem {
	return &SaveSystem{}
}

func (s *SaveSystem) Update(rt *Runtime) {
	if !rt.Store.Dirty() || !rt.saving.CompareAndSwap(false, true) {
		return
	}
	rt.Store.MarkSaved()
	snap := rt.Store.Snapshot()

	rt.saves.Add(1)
	go func() {
		defer rt.saves.Done()
		defer rt.saving.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := rt.saver.Save(ctx, snap); err != nil {
			rt.logf("save: %v", err)
		}
	}()
}
