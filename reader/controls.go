package reader

import (
	"image/color"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
)

// ControlHandlers run when a control bar button is clicked.
type ControlHandlers struct {
	TogglePlay func()
	ToggleAuto func()
	ToggleMute func()
	ToggleView func()
}

// ControlState is what the control bar shows.
type ControlState struct {
	Playing    bool
	AutoScroll bool
	Muted      bool
	Status     string
}

// Controls is the bottom bar of the reader.
type Controls struct {
	ui     *ebitenui.UI
	play   *widget.Button
	auto   *widget.Button
	mute   *widget.Button
	status *widget.Text
	state  ControlState
}

func NewControls(face ebtext.Face, width int, h ControlHandlers) *Controls {
	barImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 200})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnHover := imageui.NewNineSliceColor(color.NRGBA{R: 0x4a, G: 0x4a, B: 0x55, A: 255})
	btnPressed := imageui.NewNineSliceColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x2a, A: 255})
	btnTextColor := &widget.ButtonTextColor{Idle: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}}

	button := func(label string, fn func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Hover: btnHover, Pressed: btnPressed}),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				if fn != nil {
					fn()
				}
			}),
		)
	}

	c := &Controls{}
	c.play = button("Play", h.TogglePlay)
	c.auto = button("Auto-scroll: on", h.ToggleAuto)
	c.mute = button("Mute", h.ToggleMute)
	view := button("Perceive", h.ToggleView)
	c.status = widget.NewText(
		widget.TextOpts.Text("", &face, color.NRGBA{R: 0xc8, G: 0xc8, B: 0xd0, A: 0xff}),
		widget.TextOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})),
	)
	c.state = ControlState{AutoScroll: true}

	bar := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(barImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
			widget.RowLayoutOpts.Spacing(10),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 10, Bottom: 10, Left: 20, Right: 20}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(width, controlsRoom-8),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionCenter, VerticalPosition: widget.AnchorLayoutPositionEnd}),
		),
	)
	bar.AddChild(c.play)
	bar.AddChild(c.auto)
	bar.AddChild(c.mute)
	bar.AddChild(view)
	bar.AddChild(c.status)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(bar)

	c.ui = &ebitenui.UI{Container: root}
	return c
}

// SetState relabels the buttons and the status line.
func (c *Controls) SetState(s ControlState) {
	if s == c.state {
		return
	}
	c.state = s
	play := "Play"
	if s.Playing {
		play = "Pause"
	}
	auto := "Auto-scroll: off"
	if s.AutoScroll {
		auto = "Auto-scroll: on"
	}
	mute := "Mute"
	if s.Muted {
		mute = "Unmute"
	}
	setLabel(c.play, play)
	setLabel(c.auto, auto)
	setLabel(c.mute, mute)
	c.status.Label = s.Status
}

func setLabel(btn *widget.Button, label string) {
	if text := btn.Text(); text != nil {
		text.Label = label
	}
}

func (c *Controls) State() ControlState {
	return c.state
}

func (c *Controls) Update() {
	c.ui.Update()
}

func (c *Controls) Draw(screen *ebiten.Image) {
	c.ui.Draw(screen)
}
