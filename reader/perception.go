package reader

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/milk9111/horizons/narrative"
)

// Perception shows the active tuning challenge and its interpretations. The
// tuning minigame itself lives elsewhere; this panel only collects a choice.
type Perception struct {
	face   ebtext.Face
	width  int
	height int
	choose func(choice string)

	challenge *narrative.ChallengeConfig
	choices   []string
	ui        *ebitenui.UI
}

func NewPerception(face ebtext.Face, width, height int, choose func(choice string)) *Perception {
	p := &Perception{face: face, width: width, height: height, choose: choose}
	p.build()
	return p
}

// SetChallenge rebuilds the panel for cfg. Nil shows an idle panel.
func (p *Perception) SetChallenge(cfg *narrative.ChallengeConfig) {
	if cfg == p.challenge {
		return
	}
	p.challenge = cfg
	p.choices = nil
	if cfg != nil {
		p.choices = cfg.Choices()
	}
	p.build()
}

// Choice maps a 1-based number key to an interpretation key.
func (p *Perception) Choice(n int) (string, bool) {
	if n < 1 || n > len(p.choices) {
		return "", false
	}
	return p.choices[n-1], true
}

func (p *Perception) build() {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x04, G: 0x10, B: 0x18, A: 230})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x12, G: 0x30, B: 0x3c, A: 255})
	btnHover := imageui.NewNineSliceColor(color.NRGBA{R: 0x1c, G: 0x48, B: 0x5a, A: 255})
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	dim := color.NRGBA{R: 0x9a, G: 0xc4, B: 0xd0, A: 0xff}
	face := p.face
	center := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(12),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 24, Bottom: 24, Left: 32, Right: 32}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(p.width*2/3, p.height/2),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionCenter, VerticalPosition: widget.AnchorLayoutPositionCenter}),
		),
	)

	title := "Perception"
	prompt := "No signal to tune."
	if p.challenge != nil {
		title = "Tune the signal"
		if p.challenge.Prompt != "" {
			prompt = p.challenge.Prompt
		} else {
			prompt = "Choose an interpretation."
		}
	}
	panel.AddChild(widget.NewText(widget.TextOpts.Text(title, &face, white), widget.TextOpts.WidgetOpts(center)))
	panel.AddChild(widget.NewText(
		widget.TextOpts.Text(p.wrap(prompt), &face, dim),
		widget.TextOpts.WidgetOpts(center),
	))

	if p.challenge != nil {
		for i, key := range p.choices {
			in := p.challenge.Interpretations[key]
			label := in.Label
			if label == "" {
				label = key
			}
			choice := key
			panel.AddChild(widget.NewButton(
				widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Hover: btnHover, Pressed: btnImg}),
				widget.ButtonOpts.Text(fmt.Sprintf("%d. %s", i+1, label), &face, &widget.ButtonTextColor{Idle: white}),
				widget.ButtonOpts.WidgetOpts(center),
				widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
					if p.choose != nil {
						p.choose(choice)
					}
				}),
			))
			if in.Description != "" {
				panel.AddChild(widget.NewText(widget.TextOpts.Text(p.wrap(in.Description), &face, dim), widget.TextOpts.WidgetOpts(center)))
			}
		}
	}

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	root.AddChild(panel)
	p.ui = &ebitenui.UI{Container: root}
}

func (p *Perception) wrap(s string) string {
	width := float64(p.width)*2/3 - 64
	return strings.Join(WrapText(s, width, func(s string) float64 {
		return ebtext.Advance(s, p.face)
	}), "\n")
}

func (p *Perception) Update() {
	p.ui.Update()
}

func (p *Perception) Draw(screen *ebiten.Image) {
	p.ui.Draw(screen)
}
