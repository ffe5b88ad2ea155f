// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sassoftware/pdf-pager/logger"
)

// ZoomState is the phase of the zoom controller.
type ZoomState int

const (
	ZoomIdle ZoomState = iota
	ZoomGestureActive
	ZoomFinalizing
)

func (z ZoomState) String() string {
	switch z {
	case ZoomIdle:
		return "idle"
	case ZoomGestureActive:
		return "gesture"
	case ZoomFinalizing:
		return "finalizing"
	}
	return "unknown"
}

// WheelEvent is one wheel tick. Only ticks with a zoom modifier (ctrl or
// meta) reach the zoom controller; plain ticks scroll.
type WheelEvent struct {
	DeltaY   float64
	Modifier bool
}

type TouchKind int

const (
	TouchStart TouchKind = iota
	TouchMove
	TouchEnd
	TouchCancel
)

// TouchEvent carries the touch points still down after the event.
type TouchEvent struct {
	Kind   TouchKind
	Points []Point
}

// zoomController tracks the committed scale and the presentational ratio
// applied on top of it during a gesture. The ratio never touches rasters.
type zoomController struct {
	cfg       *Config
	state     ZoomState
	committed float64
	ratio     float64

	// pinch bookkeeping
	touchDist  float64
	touchRatio float64

	wheelTimer *time.Timer
}

func newZoomController(cfg *Config) *zoomController {
	return &zoomController{
		cfg:       cfg,
		committed: cfg.ClampScale(cfg.InitialScale),
		ratio:     1,
	}
}

// begin moves Idle to GestureActive. It reports false while finalizing.
func (z *zoomController) begin() bool {
	switch z.state {
	case ZoomFinalizing:
		return false
	case ZoomIdle:
		z.state = ZoomGestureActive
		z.ratio = 1
		logger.Debug(fmt.Sprintf("Zoom gesture started: scale=%.2f", z.committed), z.cfg.DebugOn)
	}
	return true
}

// setRatio stores r, bounded so that committed×ratio stays within the scale
// limits, and returns the stored ratio.
func (z *zoomController) setRatio(r float64) float64 {
	z.ratio = z.cfg.ClampScale(z.committed*r) / z.committed
	return z.ratio
}

// target is the scale the gesture would commit.
func (z *zoomController) target() float64 {
	return z.cfg.ClampScale(z.committed * z.ratio)
}

// end leaves GestureActive. It reports whether the target differs enough
// from the committed scale to need a re-render; if not, the gesture is
// reverted and the controller is Idle again.
func (z *zoomController) end() (float64, bool) {
	target := z.target()
	if math.Abs(target-z.committed) <= z.cfg.ScaleEpsilon {
		z.cancel()
		return z.committed, false
	}
	z.state = ZoomFinalizing
	return target, true
}

func (z *zoomController) cancel() {
	z.stopWheel()
	z.state = ZoomIdle
	z.ratio = 1
	z.touchDist = 0
}

// commit installs a new committed scale while finalizing.
func (z *zoomController) commit(scale float64) {
	z.stopWheel()
	z.state = ZoomFinalizing
	z.committed = z.cfg.ClampScale(scale)
	z.ratio = 1
	z.touchDist = 0
}

func (z *zoomController) settle() {
	z.state = ZoomIdle
	logger.Debug(fmt.Sprintf("Zoom settled: scale=%.2f", z.committed), z.cfg.DebugOn)
}

func (z *zoomController) stopWheel() {
	if z.wheelTimer != nil {
		z.wheelTimer.Stop()
		z.wheelTimer = nil
	}
}

// anchor is the focal page and the relative position of the viewport
// centre inside its box, each axis in [0, 1].
type anchor struct {
	page int
	rel  Point
}

var defaultAnchor = anchor{page: 1, rel: Point{X: 0.5, Y: 0.5}}

func clamp01(f float64) float64 {
	if math.IsNaN(f) {
		return 0.5
	}
	return math.Min(1, math.Max(0, f))
}

// captureAnchor finds the page under the viewport centre.
func captureAnchor(l Layout, scroll Point, vp Size) anchor {
	if l.Pages == 0 || l.PageSize.Empty() {
		return defaultAnchor
	}
	cx, cy := scroll.X+vp.W/2, scroll.Y+vp.H/2
	p := l.PageAt(cy)
	b := l.Box(p)
	if b.Height <= 0 || b.Width <= 0 {
		return defaultAnchor
	}
	return anchor{
		page: p,
		rel: Point{
			X: clamp01((cx - b.Left) / b.Width),
			Y: clamp01((cy - b.Top) / b.Height),
		},
	}
}

// focalScroll is the scroll offset that puts the anchor's relative point
// back at the viewport centre under layout l.
func focalScroll(l Layout, a anchor, vp Size) Point {
	b := l.Box(a.page)
	if b.Height <= 0 {
		b = l.Box(1)
		a = defaultAnchor
	}
	p := Point{
		X: b.Left + a.rel.X*b.Width - vp.W/2,
		Y: b.Top + a.rel.Y*b.Height - vp.H/2,
	}
	return l.clampScroll(p, vp)
}

// viewportCenter is the transform origin in content coordinates.
func (v *Viewer) viewportCenter() Point {
	return Point{
		X: v.state.scroll.X + v.state.viewport.W/2,
		Y: v.state.scroll.Y + v.state.viewport.H/2,
	}
}

// applyLive shows the current live ratio without any raster work.
func (v *Viewer) applyLive() {
	v.syncSurface()
	v.surface.SetTransform(v.zoom.ratio, v.viewportCenter())
}

func (v *Viewer) handleWheel(e WheelEvent) {
	if !e.Modifier || e.DeltaY == 0 || v.session == nil {
		return
	}
	z := v.zoom
	if !z.begin() {
		return
	}
	f := v.cfg.WheelZoomIn
	if e.DeltaY > 0 {
		f = v.cfg.WheelZoomOut
	}
	z.setRatio(z.ratio * f)
	v.applyLive()

	z.stopWheel()
	var t *time.Timer
	t = v.loop.AfterFunc(v.cfg.WheelSettle, func() {
		if z.wheelTimer != t {
			return
		}
		z.wheelTimer = nil
		v.endGesture()
	})
	z.wheelTimer = t
}

func touchDistance(pts []Point) float64 {
	return math.Hypot(pts[0].X-pts[1].X, pts[0].Y-pts[1].Y)
}

func (v *Viewer) handleTouch(e TouchEvent) {
	if v.session == nil {
		return
	}
	z := v.zoom
	switch e.Kind {
	case TouchStart:
		if len(e.Points) != 2 {
			return
		}
		d := touchDistance(e.Points)
		if d <= 0 || !z.begin() {
			return
		}
		z.stopWheel()
		z.touchDist = d
		z.touchRatio = z.ratio
	case TouchMove:
		if len(e.Points) != 2 || z.state != ZoomGestureActive || z.touchDist <= 0 {
			return
		}
		want := z.cfg.ClampScale(z.committed * z.touchRatio * touchDistance(e.Points) / z.touchDist)
		if math.Abs(want-z.target()) <= v.cfg.ScaleEpsilon {
			return
		}
		z.setRatio(want / z.committed)
		v.applyLive()
	case TouchEnd:
		if len(e.Points) < 2 && z.state == ZoomGestureActive && z.touchDist > 0 {
			v.endGesture()
		}
	case TouchCancel:
		if z.state == ZoomGestureActive {
			v.cancelZoom()
		}
	}
}

// cancelZoom drops the live ratio. Nothing is committed; only pages that
// scrolled into view during the gesture are rendered.
func (v *Viewer) cancelZoom() {
	if v.zoom.state != ZoomGestureActive {
		return
	}
	v.zoom.cancel()
	v.surface.ClearTransform()
	logger.Debug("Zoom gesture cancelled", v.cfg.DebugOn)
	v.resumeScroll()
}

// resumeScroll runs the scroll settle that was held back while a gesture
// was active.
func (v *Viewer) resumeScroll() {
	if v.scrollTimer != nil {
		return
	}
	v.settleScroll()
}

// endGesture commits the gesture, or reverts it when the scale barely moved.
func (v *Viewer) endGesture() {
	z := v.zoom
	if z.state != ZoomGestureActive {
		return
	}
	target, ok := z.end()
	if !ok {
		v.surface.ClearTransform()
		v.resumeScroll()
		return
	}
	v.finalize(target, nil)
}

// applyScale is the discrete path (buttons, bookmarks). then runs once the
// new layout is in place.
func (v *Viewer) applyScale(scale float64, then func()) error {
	z := v.zoom
	if z.state != ZoomIdle {
		return ErrZoomInProgress
	}
	target := v.cfg.ClampScale(scale)
	if math.Abs(target-z.committed) <= v.cfg.ScaleEpsilon {
		if then != nil {
			then()
		}
		return nil
	}
	if v.session == nil {
		z.committed = target
		if then != nil {
			then()
		}
		return nil
	}
	v.finalize(target, then)
	return nil
}

// finalize commits target and starts the relayout. Boxes keep their old
// size until the reference page size at the new scale is known.
func (v *Viewer) finalize(target float64, then func()) {
	s := v.session
	z := v.zoom
	v.syncSurface()
	a := captureAnchor(s.layout, v.state.scroll, v.state.viewport)
	old := z.committed
	z.commit(target)
	v.gen++
	s.memory.clear(v.placeholderFor(s))
	logger.Debug(fmt.Sprintf("Zoom finalizing: from=%.2f to=%.2f anchor=%d rel=(%.3f,%.3f)", old, z.committed, a.page, a.rel.X, a.rel.Y), v.cfg.DebugOn)

	gen, scale, doc := v.gen, z.committed, s.doc
	go func() {
		ctx, cancel := context.WithTimeout(v.ctx, v.cfg.RenderTimeout)
		size, err := doc.PageSize(ctx, 1)
		cancel()
		v.loop.Post(func() { v.relayout(s, gen, a, size.Scale(scale), old, err, then) })
	}()
}

// relayout resizes every box, restores the focal point and restarts
// rendering around the new visible range.
func (v *Viewer) relayout(s *session, gen int, a anchor, size Size, oldScale float64, err error, then func()) {
	if v.session != s || v.gen != gen {
		return
	}
	if err != nil || size.Empty() {
		logger.Error(fmt.Sprintf("Reference page size unavailable, scaling old layout: err=%v", err))
		size = s.layout.PageSize.Scale(v.zoom.committed / oldScale)
	}
	s.layout.PageSize = size
	v.surface.SetContentSize(s.layout.ContentSize())
	for p := 1; p <= s.layout.Pages; p++ {
		v.surface.Placeholder(p, s.layout.Box(p))
	}
	v.surface.ClearTransform()

	v.syncSurface()
	v.surface.SetScrollOffset(focalScroll(s.layout, a, v.state.viewport))
	v.syncSurface()
	v.refreshVisible()
	logger.Debug(fmt.Sprintf("Relayout done: page=%.0fx%.0f scroll=%.1f visible=%d-%d", size.W, size.H, v.state.scroll.Y, v.state.visible.First, v.state.visible.Last), v.cfg.DebugOn)

	v.reconcile()
	v.zoom.settle()
	v.scheduleNext()
	if then != nil {
		then()
	}
}
