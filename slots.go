// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import "sort"

// SlotState is the residency of one page.
type SlotState int

const (
	Unloaded SlotState = iota
	Queued
	Resident
)

func (s SlotState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Queued:
		return "queued"
	case Resident:
		return "resident"
	}
	return "unknown"
}

type slot struct {
	state  SlotState
	raster *Raster
}

// slotTable tracks every page of the open document. Pages missing from the
// map are Unloaded.
type slotTable struct {
	total int
	slots map[int]*slot
}

func newSlotTable(total int) *slotTable {
	return &slotTable{total: total, slots: make(map[int]*slot)}
}

func (t *slotTable) state(p int) SlotState {
	if s, ok := t.slots[p]; ok {
		return s.state
	}
	return Unloaded
}

func (t *slotTable) markQueued(p int) {
	t.slots[p] = &slot{state: Queued}
}

// markResident stores r for page p, releasing any raster it replaces.
func (t *slotTable) markResident(p int, r *Raster) {
	if s, ok := t.slots[p]; ok && s.raster != nil && s.raster != r {
		s.raster.Release()
	}
	t.slots[p] = &slot{state: Resident, raster: r}
}

// unload drops page p back to Unloaded and releases its raster.
func (t *slotTable) unload(p int) {
	s, ok := t.slots[p]
	if !ok {
		return
	}
	if s.raster != nil {
		s.raster.Release()
	}
	delete(t.slots, p)
}

func (t *slotTable) raster(p int) *Raster {
	if s, ok := t.slots[p]; ok {
		return s.raster
	}
	return nil
}

// pagesIn returns the pages in state st, ascending.
func (t *slotTable) pagesIn(st SlotState) []int {
	var out []int
	for p, s := range t.slots {
		if s.state == st {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// renderQueue is the pending page list. The front is rendered first.
type renderQueue struct {
	pages []int
}

func (q *renderQueue) len() int { return len(q.pages) }

func (q *renderQueue) contains(p int) bool {
	for _, x := range q.pages {
		if x == p {
			return true
		}
	}
	return false
}

// prepend puts pages, in order, ahead of everything already queued.
func (q *renderQueue) prepend(pages ...int) {
	if len(pages) == 0 {
		return
	}
	out := make([]int, 0, len(pages)+len(q.pages))
	out = append(out, pages...)
	q.pages = append(out, q.pages...)
}

func (q *renderQueue) push(p int) {
	q.pages = append(q.pages, p)
}

func (q *renderQueue) pop() (int, bool) {
	if len(q.pages) == 0 {
		return 0, false
	}
	p := q.pages[0]
	q.pages = q.pages[1:]
	return p, true
}

func (q *renderQueue) remove(p int) {
	for i, x := range q.pages {
		if x == p {
			q.pages = append(q.pages[:i], q.pages[i+1:]...)
			return
		}
	}
}

func (q *renderQueue) clear() { q.pages = nil }

func (q *renderQueue) snapshot() []int {
	out := make([]int, len(q.pages))
	copy(out, q.pages)
	return out
}
