// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"errors"
	"fmt"

	"github.com/sassoftware/pdf-pager/logger"
)

var errNoRaster = errors.New("renderer returned no raster")

// scheduleNext starts the raster for the front of the queue. It runs on the
// event loop. While a raster is in flight it does nothing: the running
// chain drains the queue on its own.
func (v *Viewer) scheduleNext() {
	s := v.session
	if s == nil {
		return
	}
	if !v.rendering.TryAcquire(1) {
		return
	}
	page, ok := v.nextRenderable(s)
	if !ok {
		v.rendering.Release(1)
		return
	}

	gen, scale, doc := v.gen, v.zoom.committed, s.doc
	v.inFlight = page
	logger.Debug(fmt.Sprintf("Rendering page: page=%d scale=%.2f", page, scale), v.cfg.DebugOn)

	go func() {
		ctx, cancel := context.WithTimeout(v.ctx, v.cfg.RenderTimeout)
		r, err := doc.RenderPage(ctx, page, scale)
		cancel()
		if !v.loop.Post(func() { v.completeRender(s, gen, page, scale, r, err) }) {
			r.Release()
		}
	}()
}

// nextRenderable pops until it finds a page that still needs a raster.
// Pages that became resident or left the render window while waiting are
// dropped; the latter go back to Unloaded. Seeded pages skip the window
// check.
func (v *Viewer) nextRenderable(s *session) (int, bool) {
	window := s.memory.renderWindow(v.state.visible)
	for {
		p, ok := s.memory.queue.pop()
		if !ok {
			return 0, false
		}
		seeded := s.memory.takeSeed(p)
		if s.memory.slots.state(p) == Resident {
			continue
		}
		if !seeded && !window.Contains(p) {
			s.memory.slots.unload(p)
			logger.Debug(fmt.Sprintf("Skipping page outside render window: page=%d window=%d-%d", p, window.First, window.Last), v.cfg.DebugOn)
			continue
		}
		return p, true
	}
}

// completeRender mounts a finished raster and keeps the chain going. A
// result from an older document or scale is dropped.
func (v *Viewer) completeRender(s *session, gen, page int, scale float64, r *Raster, err error) {
	v.inFlight = 0
	v.rendering.Release(1)

	if v.session != s || v.gen != gen {
		r.Release()
		logger.Debug(fmt.Sprintf("Discarding stale raster: page=%d scale=%.2f", page, scale), v.cfg.DebugOn)
		v.loop.Post(v.scheduleNext)
		return
	}

	if err == nil && r == nil {
		err = errNoRaster
	}
	if err != nil {
		rerr := &RenderError{Page: page, Scale: scale, Err: err}
		logger.Error(rerr.Error(), "page", page)
		v.renderFailures++
		s.memory.slots.unload(page)
		// no reconcile: the page waits for the next pass
		v.loop.Post(v.scheduleNext)
		return
	}

	s.memory.slots.markResident(page, r)
	v.surface.Mount(page, s.layout.Box(page), r)
	logger.Debug(fmt.Sprintf("Page mounted: page=%d bytes=%d", page, r.Bytes()), v.cfg.DebugOn)

	v.reconcile()
	v.loop.Post(v.scheduleNext)
}
