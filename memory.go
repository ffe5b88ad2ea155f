// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"fmt"
	"math"
	"sort"

	"github.com/sassoftware/pdf-pager/logger"
)

// Plan is the outcome of one reconcile pass.
type Plan struct {
	ToQueue []int
	ToEvict []int
}

func (p Plan) Empty() bool {
	return len(p.ToQueue) == 0 && len(p.ToEvict) == 0
}

// pageMemory owns the slot table and the render queue of one document.
// It performs every Resident -> Unloaded transition.
type pageMemory struct {
	total        int
	renderBuffer int
	unloadBuffer int
	trace        bool
	slots        *slotTable
	queue        *renderQueue
	// seeded pages render even outside the render window
	seeded map[int]bool
}

func newPageMemory(total int, cfg *Config) *pageMemory {
	return &pageMemory{
		total:        total,
		renderBuffer: cfg.RenderBuffer,
		unloadBuffer: cfg.UnloadBuffer,
		trace:        cfg.DebugOn,
		slots:        newSlotTable(total),
		queue:        &renderQueue{},
		seeded:       map[int]bool{},
	}
}

// renderWindow is the visible range grown by the render buffer, clamped to
// the document.
func (m *pageMemory) renderWindow(visible PageRange) PageRange {
	return visible.Expand(m.renderBuffer).Clamp(1, m.total)
}

// keepWindow is the visible range grown by the unload buffer. Resident pages
// outside it are evicted. It is not clamped: pages never fall outside
// [1, total] anyway.
func (m *pageMemory) keepWindow(visible PageRange) PageRange {
	return visible.Expand(m.unloadBuffer)
}

// plan computes a reconcile pass from one snapshot of the visible range
// without touching any state.
func (m *pageMemory) plan(visible PageRange) Plan {
	var plan Plan
	for _, p := range m.renderWindow(visible).Pages() {
		if m.slots.state(p) == Unloaded && !m.queue.contains(p) {
			plan.ToQueue = append(plan.ToQueue, p)
		}
	}
	mid := visible.Mid()
	sort.SliceStable(plan.ToQueue, func(i, j int) bool {
		a, b := plan.ToQueue[i], plan.ToQueue[j]
		da, db := math.Abs(float64(a)-mid), math.Abs(float64(b)-mid)
		if da != db {
			return da < db
		}
		return a < b
	})

	keep := m.keepWindow(visible)
	for _, p := range m.slots.pagesIn(Resident) {
		if !keep.Contains(p) {
			plan.ToEvict = append(plan.ToEvict, p)
		}
	}
	return plan
}

// reconcile plans and applies one pass. Evicted pages are handed to
// placeholder after their raster is released; newly relevant pages go to the
// front of the queue, closest to the visible midpoint first.
func (m *pageMemory) reconcile(visible PageRange, placeholder func(p int)) Plan {
	plan := m.plan(visible)
	for _, p := range plan.ToEvict {
		m.slots.unload(p)
		if placeholder != nil {
			placeholder(p)
		}
	}
	m.queue.prepend(plan.ToQueue...)
	for _, p := range plan.ToQueue {
		m.slots.markQueued(p)
	}
	if !plan.Empty() {
		logger.Debug(fmt.Sprintf("Reconciled: visible=%d-%d queued=%v evicted=%v", visible.First, visible.Last, plan.ToQueue, plan.ToEvict), m.trace)
	}
	return plan
}

// seed queues the first n pages regardless of the visible range.
func (m *pageMemory) seed(n int) {
	for p := 1; p <= min(n, m.total); p++ {
		if m.slots.state(p) == Unloaded && !m.queue.contains(p) {
			m.queue.push(p)
			m.slots.markQueued(p)
			m.seeded[p] = true
		}
	}
}

// takeSeed reports whether p was seeded and forgets it.
func (m *pageMemory) takeSeed(p int) bool {
	ok := m.seeded[p]
	delete(m.seeded, p)
	return ok
}

// prioritize moves p to the front of the queue unless it is already resident.
func (m *pageMemory) prioritize(p int) {
	if p < 1 || p > m.total || m.slots.state(p) == Resident {
		return
	}
	m.queue.remove(p)
	m.queue.prepend(p)
	m.slots.markQueued(p)
}

// clear drops every raster and every pending page.
func (m *pageMemory) clear(placeholder func(p int)) {
	for _, p := range m.slots.pagesIn(Resident) {
		m.slots.unload(p)
		if placeholder != nil {
			placeholder(p)
		}
	}
	for _, p := range m.slots.pagesIn(Queued) {
		m.slots.unload(p)
	}
	m.queue.clear()
	clear(m.seeded)
}

// residentBytes sums the pixel memory currently held.
func (m *pageMemory) residentBytes() int {
	n := 0
	for _, p := range m.slots.pagesIn(Resident) {
		n += m.slots.raster(p).Bytes()
	}
	return n
}
