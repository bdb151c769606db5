package reader

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// WheelStep is the scroll distance of one wheel notch.
const WheelStep = 48

var choiceKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
	ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

// Input is one frame of reader input.
type Input struct {
	// Gesture is any click, touch or key press this frame.
	Gesture bool

	TogglePlay bool
	ToggleAuto bool
	ResumeAuto bool
	ToggleMute bool
	ToggleView bool
	PrevPage   bool
	NextPage   bool
	Copy       bool

	// Scroll is the manual scroll distance this frame.
	Scroll float64
	// Choice is a 1-based interpretation number, 0 for none.
	Choice int
}

// ReadInput samples the keyboard, mouse and touch state.
func ReadInput() Input {
	var in Input

	keys := inpututil.AppendJustPressedKeys(nil)
	in.Gesture = len(keys) > 0 ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) ||
		len(inpututil.AppendJustPressedTouchIDs(nil)) > 0

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	in.Copy = ctrl && inpututil.IsKeyJustPressed(ebiten.KeyC)

	in.TogglePlay = inpututil.IsKeyJustPressed(ebiten.KeySpace)
	in.ToggleAuto = inpututil.IsKeyJustPressed(ebiten.KeyA)
	in.ResumeAuto = inpututil.IsKeyJustPressed(ebiten.KeyR)
	in.ToggleMute = inpututil.IsKeyJustPressed(ebiten.KeyM)
	in.ToggleView = inpututil.IsKeyJustPressed(ebiten.KeyTab)
	in.PrevPage = inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) || inpututil.IsKeyJustPressed(ebiten.KeyPageUp)
	in.NextPage = inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) || inpututil.IsKeyJustPressed(ebiten.KeyPageDown)

	if _, dy := ebiten.Wheel(); dy != 0 {
		in.Scroll = -dy * WheelStep
	}

	for i, k := range choiceKeys {
		if inpututil.IsKeyJustPressed(k) {
			in.Choice = i + 1
			break
		}
	}
	return in
}
