// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import "math"

type Point struct {
	X, Y float64
}

type Size struct {
	W, H float64
}

// Scale returns s multiplied by f on both axes.
func (s Size) Scale(f float64) Size {
	return Size{W: s.W * f, H: s.H * f}
}

func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Box is the reserved layout box of one page wrapper, in content pixels.
type Box struct {
	Top, Left     float64
	Width, Height float64
}

func (b Box) Bottom() float64 { return b.Top + b.Height }
func (b Box) Right() float64  { return b.Left + b.Width }

func (b Box) Center() Point {
	return Point{X: b.Left + b.Width/2, Y: b.Top + b.Height/2}
}

// Layout places every page in a single vertical column. All pages share the
// size of the reference page (page 1) at the committed scale.
type Layout struct {
	Pages    int
	PageSize Size
	Gap      float64
	Margin   float64
}

// Box returns the box of page p (1-based). Out of range pages get a zero box.
func (l Layout) Box(p int) Box {
	if p < 1 || p > l.Pages {
		return Box{}
	}
	return Box{
		Top:    l.Margin + float64(p-1)*(l.PageSize.H+l.Gap),
		Left:   0,
		Width:  l.PageSize.W,
		Height: l.PageSize.H,
	}
}

func (l Layout) Boxes() []Box {
	boxes := make([]Box, l.Pages)
	for i := range boxes {
		boxes[i] = l.Box(i + 1)
	}
	return boxes
}

// ContentSize is the scrollable extent of the whole page column.
func (l Layout) ContentSize() Size {
	if l.Pages == 0 {
		return Size{}
	}
	n := float64(l.Pages)
	return Size{
		W: l.PageSize.W,
		H: 2*l.Margin + n*l.PageSize.H + (n-1)*l.Gap,
	}
}

// PageAt returns the page whose box contains y. Points in a gap or margin
// resolve to the nearest page. Returns 0 when the layout has no pages.
func (l Layout) PageAt(y float64) int {
	if l.Pages == 0 || l.PageSize.H <= 0 {
		return 0
	}
	stride := l.PageSize.H + l.Gap
	p := int(math.Floor((y-l.Margin)/stride)) + 1
	if p < 1 {
		return 1
	}
	if p > l.Pages {
		return l.Pages
	}
	box := l.Box(p)
	if y > box.Bottom() && p < l.Pages {
		// in the gap below p
		if y-box.Bottom() > l.Box(p+1).Top-y {
			return p + 1
		}
	}
	return p
}

// maxScroll is the largest valid scroll offset for a viewport of size vp.
func (l Layout) maxScroll(vp Size) Point {
	c := l.ContentSize()
	return Point{X: math.Max(0, c.W-vp.W), Y: math.Max(0, c.H-vp.H)}
}

func (l Layout) clampScroll(p Point, vp Size) Point {
	m := l.maxScroll(vp)
	return Point{
		X: math.Min(m.X, math.Max(0, p.X)),
		Y: math.Min(m.Y, math.Max(0, p.Y)),
	}
}
