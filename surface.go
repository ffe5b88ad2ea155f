// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"sync"
)

// Surface is the scrollable container the page column is mounted into.
// The viewer calls it only from its event loop; implementations that are
// also read by other goroutines must synchronise themselves.
type Surface interface {
	ScrollOffset() Point
	ViewportSize() Size
	// SetScrollOffset moves the viewport directly, without animation.
	SetScrollOffset(p Point)
	SetContentSize(s Size)

	// Mount shows r inside the reserved box of page p.
	Mount(p int, box Box, r *Raster)
	// Placeholder replaces page p's content with a stand-in of the same box.
	Placeholder(p int, box Box)
	// Clear removes every page, before a new document is laid out.
	Clear()

	// SetTransform scales the whole mounted column by ratio around origin
	// (content coordinates). Purely visual.
	SetTransform(ratio float64, origin Point)
	ClearTransform()
}

// Transform is the visual scale currently applied to a MemorySurface.
type Transform struct {
	Ratio  float64
	Origin Point
}

// MemorySurface is a headless Surface. It keeps the scroll offset clamped to
// the content size and records what is mounted where.
type MemorySurface struct {
	mu        sync.Mutex
	offset    Point
	viewport  Size
	content   Size
	mounted   map[int]*Raster
	boxes     map[int]Box
	transform Transform
	mounts    int
}

func NewMemorySurface(viewport Size) *MemorySurface {
	return &MemorySurface{
		viewport:  viewport,
		mounted:   make(map[int]*Raster),
		boxes:     make(map[int]Box),
		transform: Transform{Ratio: 1},
	}
}

func (s *MemorySurface) ScrollOffset() Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

func (s *MemorySurface) ViewportSize() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

func (s *MemorySurface) SetScrollOffset(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = s.clamp(p)
}

// ScrollTo is the user-side scroll. Callers notify the viewer afterwards
// with HandleScroll.
func (s *MemorySurface) ScrollTo(y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = s.clamp(Point{X: s.offset.X, Y: y})
}

// Resize changes the viewport, e.g. after a window resize.
func (s *MemorySurface) Resize(vp Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = vp
	s.offset = s.clamp(s.offset)
}

func (s *MemorySurface) clamp(p Point) Point {
	maxX := max(0, s.content.W-s.viewport.W)
	maxY := max(0, s.content.H-s.viewport.H)
	return Point{X: min(maxX, max(0, p.X)), Y: min(maxY, max(0, p.Y))}
}

func (s *MemorySurface) SetContentSize(c Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = c
	s.offset = s.clamp(s.offset)
}

func (s *MemorySurface) ContentSize() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

func (s *MemorySurface) Mount(p int, box Box, r *Raster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted[p] = r
	s.boxes[p] = box
	s.mounts++
}

func (s *MemorySurface) Placeholder(p int, box Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mounted, p)
	s.boxes[p] = box
}

func (s *MemorySurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.mounted)
	clear(s.boxes)
}

// Box reports the box last reserved for page p.
func (s *MemorySurface) Box(p int) (Box, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boxes[p]
	return b, ok
}

func (s *MemorySurface) SetTransform(ratio float64, origin Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transform = Transform{Ratio: ratio, Origin: origin}
}

func (s *MemorySurface) ClearTransform() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transform = Transform{Ratio: 1}
}

func (s *MemorySurface) Transform() Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

// Mounted reports the raster shown for page p, if any.
func (s *MemorySurface) Mounted(p int) (*Raster, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.mounted[p]
	return r, ok
}

// MountCount is the total number of Mount calls so far.
func (s *MemorySurface) MountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounts
}
