// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDoc is a Document whose pages all share one size. It records every
// render and the highest number of renders that overlapped.
type fakeDoc struct {
	pages int
	size  Size
	delay time.Duration
	gate  chan struct{}

	active    atomic.Int32
	maxActive atomic.Int32

	mu      sync.Mutex
	fail    map[int]error
	renders []int
	closed  bool
}

func newFakeDoc(pages int) *fakeDoc {
	return &fakeDoc{pages: pages, size: Size{W: 600, H: 800}, fail: map[int]error{}}
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) PageSize(ctx context.Context, p int) (Size, error) {
	if p < 1 || p > d.pages {
		return Size{}, ErrPageOutOfRange
	}
	return d.size, nil
}

func (d *fakeDoc) RenderPage(ctx context.Context, p int, scale float64) (*Raster, error) {
	n := d.active.Add(1)
	defer d.active.Add(-1)
	for {
		m := d.maxActive.Load()
		if n <= m || d.maxActive.CompareAndSwap(m, n) {
			break
		}
	}

	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.delay > 0 {
		time.Sleep(d.delay)
	}

	d.mu.Lock()
	d.renders = append(d.renders, p)
	err := d.fail[p]
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &Raster{Page: p, Scale: scale, Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}, nil
}

func (d *fakeDoc) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDoc) setFail(p int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, p)
		return
	}
	d.fail[p] = err
}

func (d *fakeDoc) renderLog() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.renders...)
}

func (d *fakeDoc) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// docOpener hands out the documents registered under the input bytes.
type docOpener map[string]*fakeDoc

func (o docOpener) Open(ctx context.Context, data []byte) (Document, error) {
	d, ok := o[string(data)]
	if !ok {
		return nil, fmt.Errorf("unrecognized input %q", data)
	}
	return d, nil
}

// testConfig uses scale 1.0 and short timers.
func testConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.InitialScale = 1.0
	cfg.ScrollDebounce = 5 * time.Millisecond
	cfg.WheelSettle = 20 * time.Millisecond
	cfg.RenderTimeout = 2 * time.Second
	return cfg
}

type viewerFixture struct {
	v       *Viewer
	surface *MemorySurface
	doc     *fakeDoc
	opener  docOpener
}

// newFixture opens a 10 page document of 600x800 pages in an 600x800
// viewport and waits for the initial renders.
func newFixture(t *testing.T, cfg *Config, store Store) *viewerFixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	doc := newFakeDoc(10)
	opener := docOpener{"doc": doc}
	surface := NewMemorySurface(Size{W: 600, H: 800})
	v, err := NewViewer(cfg, opener, surface, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })

	require.NoError(t, v.Open(testCtx(t), "manual.pdf", []byte("doc")))
	waitIdle(t, v)
	return &viewerFixture{v: v, surface: surface, doc: doc, opener: opener}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func waitIdle(t *testing.T, v *Viewer) {
	t.Helper()
	require.NoError(t, v.WaitIdle(testCtx(t)))
}

func status(t *testing.T, v *Viewer) Status {
	t.Helper()
	st, err := v.Status(testCtx(t))
	require.NoError(t, err)
	return st
}
