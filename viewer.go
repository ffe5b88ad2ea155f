// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sassoftware/pdf-pager/logger"
	"golang.org/x/sync/semaphore"
)

// viewState is the scroll geometry the tracker, memory manager and zoom
// controller work from. It is refreshed from the surface on the loop.
type viewState struct {
	scroll   Point
	viewport Size
	visible  PageRange
	current  int
}

// session is one opened document.
type session struct {
	name   string
	doc    Document
	layout Layout
	memory *pageMemory
}

// Viewer drives progressive rendering of one document into a Surface.
// All state lives on a single event loop; exported methods may be called
// from any goroutine. Event handlers (HandleScroll, HandleWheel, ...) only
// post work and never block.
type Viewer struct {
	cfg     *Config
	opener  Opener
	surface Surface
	store   Store

	loop   *eventLoop
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	// loop-owned
	session        *session
	state          viewState
	zoom           *zoomController
	gen            int
	rendering      *semaphore.Weighted
	inFlight       int
	renderFailures int
	scrollTimer    *time.Timer
}

// NewViewer validates cfg and starts the viewer's event loop. store may be
// nil when bookmarks are not needed.
func NewViewer(cfg *Config, opener Opener, surface Surface, store Store) (*Viewer, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opener == nil || surface == nil {
		return nil, errors.New("opener and surface are required")
	}
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &Viewer{
		cfg:       cfg,
		opener:    opener,
		surface:   surface,
		store:     store,
		loop:      newEventLoop(),
		ctx:       ctx,
		cancel:    cancel,
		zoom:      newZoomController(cfg),
		rendering: semaphore.NewWeighted(1),
		state:     viewState{visible: PageRange{First: 1, Last: 1}},
	}
	go v.loop.run()

	logger.Debug(fmt.Sprintf("Viewer initialized: scale=%.2f render_buffer=%d unload_buffer=%d",
		v.zoom.committed, cfg.RenderBuffer, cfg.UnloadBuffer), cfg.DebugOn)
	return v, nil
}

// documentName turns an import file name into the bookmark namespace.
func documentName(name string) string {
	base := filepath.Base(name)
	if strings.EqualFold(filepath.Ext(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	return base
}

// Open decodes data and replaces the current document. On failure the
// previous document stays open and the error is a *DecodeError. A ctx that
// expires before the document is installed abandons it; once installed,
// Open reports success.
func (v *Viewer) Open(ctx context.Context, name string, data []byte) error {
	name = documentName(name)
	logger.Info("Opening document", "name", name, "bytes", len(data))

	if len(data) == 0 {
		return &DecodeError{Name: name, Err: ErrEmptyDocument}
	}
	doc, err := v.opener.Open(ctx, data)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to decode document: name=%s err=%v", name, err))
		return &DecodeError{Name: name, Err: err}
	}
	if doc.PageCount() < 1 {
		_ = doc.Close()
		return &DecodeError{Name: name, Err: ErrEmptyDocument}
	}
	size, err := doc.PageSize(ctx, 1)
	if err == nil && size.Empty() {
		err = fmt.Errorf("reference page has no size")
	}
	if err != nil {
		_ = doc.Close()
		return &DecodeError{Name: name, Err: err}
	}

	// Exactly one of the loop task and a caller that gave up owns doc.
	var claimed atomic.Bool
	err = v.loop.Do(ctx, func() {
		if claimed.CompareAndSwap(false, true) {
			v.install(name, doc, size)
		}
	})
	if err != nil {
		if claimed.CompareAndSwap(false, true) {
			_ = doc.Close()
			return err
		}
		if errors.Is(err, ErrViewerClosed) {
			return err
		}
		// the document went in before ctx ran out
	}
	logger.Info("Document opened", "name", name, "pages", doc.PageCount())
	return nil
}

func (v *Viewer) install(name string, doc Document, refSize Size) {
	if old := v.session; old != nil {
		old.memory.clear(nil)
		if err := old.doc.Close(); err != nil {
			logger.Error(fmt.Sprintf("Failed to close previous document: err=%v", err))
		}
	}
	v.stopScrollTimer()
	v.zoom.cancel()
	v.surface.ClearTransform()
	v.surface.Clear()
	v.gen++

	n := doc.PageCount()
	s := &session{
		name: name,
		doc:  doc,
		layout: Layout{
			Pages:    n,
			PageSize: refSize.Scale(v.zoom.committed),
			Gap:      v.cfg.PageGap,
			Margin:   v.cfg.PageMargin,
		},
		memory: newPageMemory(n, v.cfg),
	}
	v.session = s

	v.surface.SetContentSize(s.layout.ContentSize())
	for p := 1; p <= n; p++ {
		v.surface.Placeholder(p, s.layout.Box(p))
	}
	v.surface.SetScrollOffset(Point{})
	v.syncSurface()
	v.refreshVisible()

	s.memory.seed(v.cfg.InitialPages)
	v.reconcile()
	v.scheduleNext()
}

func (v *Viewer) placeholderFor(s *session) func(p int) {
	return func(p int) {
		v.surface.Placeholder(p, s.layout.Box(p))
	}
}

func (v *Viewer) syncSurface() {
	v.state.scroll = v.surface.ScrollOffset()
	v.state.viewport = v.surface.ViewportSize()
}

// refreshVisible recomputes the visible range and the current page.
func (v *Viewer) refreshVisible() {
	s := v.session
	if s == nil {
		v.state.visible = PageRange{First: 1, Last: 1}
		v.state.current = 0
		return
	}
	v.state.visible = ComputeVisibleRange(v.state.scroll.Y, v.state.viewport.H, s.layout.Boxes(), v.cfg.VisibleMargin)
	v.state.current = v.state.visible.Current()
}

func (v *Viewer) reconcile() Plan {
	s := v.session
	if s == nil {
		return Plan{}
	}
	return s.memory.reconcile(v.state.visible, v.placeholderFor(s))
}

func (v *Viewer) stopScrollTimer() {
	if v.scrollTimer != nil {
		v.scrollTimer.Stop()
		v.scrollTimer = nil
	}
}

// HandleScroll is called after every scroll of the surface. The page
// indicator updates at once; memory management waits for the scroll to
// settle.
func (v *Viewer) HandleScroll() {
	v.loop.Post(func() {
		v.syncSurface()
		v.refreshVisible()

		v.stopScrollTimer()
		var t *time.Timer
		t = v.loop.AfterFunc(v.cfg.ScrollDebounce, func() {
			if v.scrollTimer != t {
				return
			}
			v.scrollTimer = nil
			v.settleScroll()
		})
		v.scrollTimer = t
	})
}

// HandleScrollEnd reconciles immediately, e.g. on a platform scroll-end event.
func (v *Viewer) HandleScrollEnd() {
	v.loop.Post(func() {
		v.stopScrollTimer()
		v.settleScroll()
	})
}

func (v *Viewer) settleScroll() {
	if v.session == nil || v.zoom.state != ZoomIdle {
		return
	}
	v.syncSurface()
	v.refreshVisible()
	v.reconcile()
	v.scheduleNext()
}

// HandleWheel feeds a wheel tick to the zoom controller.
func (v *Viewer) HandleWheel(e WheelEvent) {
	v.loop.Post(func() { v.handleWheel(e) })
}

// HandleTouch feeds a touch event to the zoom controller.
func (v *Viewer) HandleTouch(e TouchEvent) {
	pts := append([]Point(nil), e.Points...)
	v.loop.Post(func() { v.handleTouch(TouchEvent{Kind: e.Kind, Points: pts}) })
}

// CancelZoom abandons a running gesture without changing the scale.
func (v *Viewer) CancelZoom() {
	v.loop.Post(v.cancelZoom)
}

// do runs fn on the loop and returns its error.
func (v *Viewer) do(ctx context.Context, fn func() error) error {
	var err error
	if doErr := v.loop.Do(ctx, func() { err = fn() }); doErr != nil {
		return doErr
	}
	return err
}

// GoToPage scrolls page n to the top of the viewport and makes sure it is
// rendered first. It returns ErrZoomInProgress while a zoom runs.
func (v *Viewer) GoToPage(ctx context.Context, n int) error {
	return v.do(ctx, func() error { return v.goToPage(n) })
}

func (v *Viewer) goToPage(n int) error {
	s := v.session
	if s == nil {
		return ErrNoDocument
	}
	if n < 1 || n > s.layout.Pages {
		return fmt.Errorf("page %d of %d: %w", n, s.layout.Pages, ErrPageOutOfRange)
	}
	if v.zoom.state != ZoomIdle {
		return ErrZoomInProgress
	}
	v.syncSurface()
	v.surface.SetScrollOffset(Point{X: v.state.scroll.X, Y: s.layout.Box(n).Top})
	v.syncSurface()
	v.refreshVisible()
	v.state.current = n

	v.reconcile()
	s.memory.prioritize(n)
	v.scheduleNext()
	logger.Debug(fmt.Sprintf("Navigated: page=%d scroll=%.1f", n, v.state.scroll.Y), v.cfg.DebugOn)
	return nil
}

// NextPage moves one page forward; a no-op on the last page.
func (v *Viewer) NextPage(ctx context.Context) error {
	return v.do(ctx, func() error {
		if v.session == nil {
			return ErrNoDocument
		}
		if v.state.current >= v.session.layout.Pages {
			return nil
		}
		return v.goToPage(v.state.current + 1)
	})
}

// PreviousPage moves one page back; a no-op on the first page.
func (v *Viewer) PreviousPage(ctx context.Context) error {
	return v.do(ctx, func() error {
		if v.session == nil {
			return ErrNoDocument
		}
		if v.state.current <= 1 {
			return nil
		}
		return v.goToPage(v.state.current - 1)
	})
}

// SetScale commits a new scale, clamped to the configured bounds, keeping
// the point under the viewport centre in place.
func (v *Viewer) SetScale(ctx context.Context, scale float64) error {
	return v.do(ctx, func() error { return v.applyScale(scale, nil) })
}

// AdjustScale multiplies the committed scale by factor.
func (v *Viewer) AdjustScale(ctx context.Context, factor float64) error {
	return v.do(ctx, func() error { return v.applyScale(v.zoom.committed*factor, nil) })
}

// Status is a snapshot of the viewer for page indicators and tests.
type Status struct {
	Document       string
	Pages          int
	CurrentPage    int
	Visible        PageRange
	Scale          float64
	LiveRatio      float64
	Zoom           ZoomState
	Scroll         Point
	Resident       []int
	Queue          []int
	Rendering      int
	ScrollPending  bool
	ResidentBytes  int
	RenderFailures int
}

func (v *Viewer) Status(ctx context.Context) (Status, error) {
	var st Status
	err := v.loop.Do(ctx, func() {
		st = Status{
			CurrentPage:    v.state.current,
			Visible:        v.state.visible,
			Scale:          v.zoom.committed,
			LiveRatio:      v.zoom.ratio,
			Zoom:           v.zoom.state,
			Scroll:         v.state.scroll,
			Rendering:      v.inFlight,
			ScrollPending:  v.scrollTimer != nil,
			RenderFailures: v.renderFailures,
		}
		if s := v.session; s != nil {
			st.Document = s.name
			st.Pages = s.layout.Pages
			st.Resident = s.memory.slots.pagesIn(Resident)
			st.Queue = s.memory.queue.snapshot()
			st.ResidentBytes = s.memory.residentBytes()
		}
	})
	return st, err
}

// Idle reports whether there is no pending render, scroll or zoom work.
func (st Status) Idle() bool {
	return st.Rendering == 0 && len(st.Queue) == 0 && st.Zoom == ZoomIdle && !st.ScrollPending
}

// WaitIdle blocks until the queue is drained and no scroll settle or zoom
// is pending.
func (v *Viewer) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		st, err := v.Status(ctx)
		if err != nil {
			return err
		}
		if st.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the loop and closes the open document. In-flight rasters are
// abandoned.
func (v *Viewer) Close() error {
	var closeErr error
	v.once.Do(func() {
		_ = v.loop.Do(context.Background(), func() {
			v.stopScrollTimer()
			v.zoom.stopWheel()
			if s := v.session; s != nil {
				s.memory.clear(nil)
				closeErr = s.doc.Close()
				v.session = nil
			}
		})
		v.cancel()
		v.loop.stop()
		logger.Debug("Viewer closed", v.cfg.DebugOn)
	})
	return closeErr
}
