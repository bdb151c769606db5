package main

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/milk9111/horizons/assets"
	"github.com/milk9111/horizons/config"
	"github.com/milk9111/horizons/engine"
	"github.com/milk9111/horizons/gamestate"
	"github.com/milk9111/horizons/reader"
)

const uiFontSize = 16

type Game struct {
	debug         bool
	width, height int

	rt         *engine.Runtime
	view       *reader.View
	controls   *reader.Controls
	perception *reader.Perception
}

func NewGame(cfg *config.Config, forceStart bool) (*Game, error) {
	face, err := reader.Face(cfg.Reader.FontSize)
	if err != nil {
		return nil, err
	}
	uiFace, err := reader.Face(uiFontSize)
	if err != nil {
		return nil, err
	}

	g := &Game{
		debug:  cfg.Debug,
		width:  cfg.Reader.Width,
		height: cfg.Reader.Height,
	}
	g.view = reader.NewView(face, g.width, g.height, assets.LoadImage)

	rt, err := engine.New(engine.Options{Config: cfg, View: g.view, ForceStart: forceStart})
	if err != nil {
		return nil, err
	}
	g.rt = rt

	g.controls = reader.NewControls(uiFace, g.width, reader.ControlHandlers{
		TogglePlay: rt.TogglePlay,
		ToggleAuto: func() { rt.SetAutoScrollEnabled(!rt.Scroll.Enabled()) },
		ToggleMute: rt.ToggleMute,
		ToggleView: rt.ToggleView,
	})
	g.perception = reader.NewPerception(uiFace, g.width, g.height, rt.Choose)

	rt.Start(context.Background())
	return g, nil
}

func (g *Game) Update() error {
	g.rt.Update()

	g.controls.SetState(g.rt.ControlState())
	if g.rt.Store.View() == gamestate.ViewPerception {
		g.perception.SetChallenge(g.rt.Store.ActiveChallenge())
		g.perception.Update()
		return nil
	}
	g.controls.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	url, shown := g.rt.Pages.Image()
	if !shown {
		url = ""
	}
	g.view.Draw(screen, g.rt.ScrollOffset(), url, g.rt.Pages.Alpha())
	g.controls.Draw(screen)

	if g.rt.Store.View() == gamestate.ViewPerception {
		g.perception.Draw(screen)
	}

	if g.debug {
		p := g.rt.Progression
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.2f    node: %s    state: %s    progress: %.2f",
			ebiten.ActualFPS(), p.Target(), p.State(), g.rt.Scroll.Progress()))
	}
}

// Close stops playback and flushes pending saves.
func (g *Game) Close() error {
	return g.rt.Close()
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return float64(g.width), float64(g.height)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
