package reader

import (
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/milk9111/horizons/narrative"
)

const (
	textMargin   = 64
	textTop      = 48
	controlsRoom = 72
)

var (
	textColor  = color.NRGBA{R: 0xe8, G: 0xe4, B: 0xda, A: 0xff}
	panelColor = color.NRGBA{R: 0x05, G: 0x07, B: 0x10, A: 0xb0}
	bgColor    = color.NRGBA{R: 0x0a, G: 0x0c, B: 0x14, A: 0xff}
)

// ImageLoader loads an illustration by its page URL.
type ImageLoader func(url string) (*ebiten.Image, error)

// View draws a node's pages scrolled by an offset, over the page
// illustration.
type View struct {
	face       *text.GoTextFace
	width      float64
	height     float64
	lineHeight float64

	layout Layout
	pages  []narrative.Page

	load   ImageLoader
	images map[string]*ebiten.Image
}

func NewView(face *text.GoTextFace, width, height int, load ImageLoader) *View {
	return &View{
		face:       face,
		width:      float64(width),
		height:     float64(height),
		lineHeight: face.Size * 1.5,
		load:       load,
		images:     make(map[string]*ebiten.Image),
	}
}

// SetPages lays out pages for drawing. Nil clears the view.
func (v *View) SetPages(pages []narrative.Page) {
	v.pages = pages
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	v.layout = BuildLayout(texts, LayoutOptions{
		Width:      v.width - 2*textMargin,
		LineHeight: v.lineHeight,
		PageGap:    v.lineHeight,
	}, v.measure)
}

func (v *View) measure(s string) float64 {
	return text.Advance(s, v.face)
}

func (v *View) Layout() Layout {
	return v.layout
}

// Viewport is the height available to text.
func (v *View) Viewport() float64 {
	return v.height - textTop - controlsRoom
}

// ScrollableHeight is the total distance the text can scroll.
func (v *View) ScrollableHeight() float64 {
	return v.layout.ScrollableHeight(v.Viewport())
}

// PageText is the text of page i.
func (v *View) PageText(i int) (string, bool) {
	if i < 0 || i >= len(v.pages) {
		return "", false
	}
	return v.pages[i].Text, true
}

func (v *View) image(url string) *ebiten.Image {
	if img, ok := v.images[url]; ok {
		return img
	}
	var img *ebiten.Image
	if v.load != nil {
		loaded, err := v.load(url)
		if err != nil {
			log.Printf("reader: load image %q: %v", url, err)
		} else {
			img = loaded
		}
	}
	// failures are cached too so a missing file logs once
	v.images[url] = img
	return img
}

// Draw renders the illustration at alpha, then the text scrolled to offset.
func (v *View) Draw(screen *ebiten.Image, offset float64, imageURL string, alpha float64) {
	screen.Fill(bgColor)

	if imageURL != "" && alpha > 0 {
		if img := v.image(imageURL); img != nil {
			v.drawImage(screen, img, alpha)
		}
	}

	vector.FillRect(screen, textMargin/2, textTop/2, float32(v.width-textMargin), float32(v.height-textTop/2-controlsRoom), panelColor, false)

	top := float64(textTop)
	bottom := top + v.Viewport()
	for _, line := range v.layout.Lines {
		y := top + line.Y - offset
		if y+v.lineHeight < top || y > bottom {
			continue
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(textMargin, y)
		op.ColorScale.ScaleWithColor(textColor)
		text.Draw(screen, line.Text, v.face, op)
	}
}

func (v *View) drawImage(screen, img *ebiten.Image, alpha float64) {
	b := img.Bounds()
	sx := v.width / float64(b.Dx())
	sy := v.height / float64(b.Dy())
	scale := max(sx, sy)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((v.width-float64(b.Dx())*scale)/2, (v.height-float64(b.Dy())*scale)/2)
	op.ColorScale.ScaleAlpha(float32(alpha))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(img, op)
}
