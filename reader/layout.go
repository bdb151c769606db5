// Package reader lays out, draws and drives the narrative page view.
package reader

import (
	"sort"
	"strings"
)

// Measure returns the drawn width of s.
type Measure func(s string) float64

type Line struct {
	Text string
	Y    float64
	Page int
}

type LayoutOptions struct {
	Width      float64
	LineHeight float64
	// PageGap is the extra space between two pages.
	PageGap float64
}

// Layout is the wrapped text of a node's pages.
type Layout struct {
	Lines       []Line
	PageOffsets []float64
	Height      float64
}

// WrapText breaks s into lines no wider than width. Newlines start a new
// line; a single word wider than width gets a line of its own.
func WrapText(s string, width float64, measure Measure) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			next := cur + " " + w
			if width > 0 && measure(next) > width {
				lines = append(lines, cur)
				cur = w
				continue
			}
			cur = next
		}
		lines = append(lines, cur)
	}
	return lines
}

// BuildLayout stacks the wrapped pages top to bottom.
func BuildLayout(pages []string, opts LayoutOptions, measure Measure) Layout {
	var l Layout
	y := 0.0
	for i, text := range pages {
		if i > 0 {
			y += opts.PageGap
		}
		l.PageOffsets = append(l.PageOffsets, y)
		for _, s := range WrapText(text, opts.Width, measure) {
			l.Lines = append(l.Lines, Line{Text: s, Y: y, Page: i})
			y += opts.LineHeight
		}
	}
	l.Height = y
	return l
}

// ScrollableHeight is how far the content can scroll inside a viewport.
func (l Layout) ScrollableHeight(viewport float64) float64 {
	if h := l.Height - viewport; h > 0 {
		return h
	}
	return 0
}

// PageAt is the page showing at the top of the view for offset, or -1.
func (l Layout) PageAt(offset float64) int {
	i := sort.Search(len(l.PageOffsets), func(i int) bool {
		return l.PageOffsets[i] > offset
	})
	return i - 1
}

// PageOffset is the offset that brings page i to the top.
func (l Layout) PageOffset(i int) (float64, bool) {
	if i < 0 || i >= len(l.PageOffsets) {
		return 0, false
	}
	return l.PageOffsets[i], true
}
