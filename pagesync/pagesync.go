// Package pagesync picks the page and illustration that match the audio
// position and fades illustrations in when they change.
package pagesync

import "sort"

const DefaultFadeFrames = 20

// Page is the slice of a node that pagesync needs.
type Page struct {
	Timestamp float64
	ImageURL  string
}

// SelectPage returns the index of the last page whose timestamp is at or
// before t, or -1. Timestamps are non-decreasing.
func SelectPage(pages []Page, t float64) int {
	i := sort.Search(len(pages), func(i int) bool {
		return pages[i].Timestamp > t
	})
	return i - 1
}

// SelectImage returns the image of the last page whose timestamp is at or
// before t. Pages without an image do not replace the previous one.
func SelectImage(pages []Page, t float64) (string, bool) {
	for i := SelectPage(pages, t); i >= 0; i-- {
		if pages[i].ImageURL != "" {
			return pages[i].ImageURL, true
		}
	}
	return "", false
}

// Publisher tracks the shown page and image and only reports a change when
// one of them actually differs.
type Publisher struct {
	fadeFrames int

	page  int
	image string
	shown bool
	fade  int
}

func NewPublisher(fadeFrames int) *Publisher {
	if fadeFrames <= 0 {
		fadeFrames = DefaultFadeFrames
	}
	return &Publisher{fadeFrames: fadeFrames, page: -1}
}

// Update selects for time t and reports whether the page or image changed.
// A changed image restarts the fade-in.
func (p *Publisher) Update(pages []Page, t float64) bool {
	page := SelectPage(pages, t)
	image, shown := SelectImage(pages, t)

	changed := page != p.page
	p.page = page
	if image != p.image || shown != p.shown {
		p.image = image
		p.shown = shown
		p.fade = 0
		changed = true
	}
	return changed
}

// Step advances the fade one frame.
func (p *Publisher) Step() {
	if p.shown && p.fade < p.fadeFrames {
		p.fade++
	}
}

// Alpha is the current image opacity in [0,1].
func (p *Publisher) Alpha() float64 {
	if !p.shown {
		return 0
	}
	return float64(p.fade) / float64(p.fadeFrames)
}

// Image is the published image URL, if any.
func (p *Publisher) Image() (string, bool) {
	return p.image, p.shown
}

// Page is the published page index, or -1 before the first page.
func (p *Publisher) Page() int {
	return p.page
}

func (p *Publisher) Reset() {
	p.page = -1
	p.image = ""
	p.shown = false
	p.fade = 0
}
