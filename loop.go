// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"sync"
	"time"
)

// eventLoop runs posted tasks one at a time on a single goroutine. Every
// piece of viewer state is touched only from inside a task.
type eventLoop struct {
	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

func newEventLoop() *eventLoop {
	ctx, cancel := context.WithCancel(context.Background())
	return &eventLoop{
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Post enqueues fn. It never blocks, so tasks may post follow-up work.
// Returns false once the loop has stopped.
func (l *eventLoop) Post(fn func()) bool {
	if l.ctx.Err() != nil {
		return false
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// AfterFunc posts fn once d has elapsed.
func (l *eventLoop) AfterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Do runs fn on the loop and waits for it to return.
func (l *eventLoop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrViewerClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrViewerClosed
	}
}

func (l *eventLoop) run() {
	defer close(l.stopped)
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-l.wake:
			l.drain()
		}
	}
}

// drain runs what is queued right now. Tasks posted while draining run on
// the next wake, so a self-posting task yields to everything else.
func (l *eventLoop) drain() {
	l.mu.Lock()
	batch := l.tasks
	l.tasks = nil
	l.mu.Unlock()
	for _, fn := range batch {
		if l.ctx.Err() != nil {
			return
		}
		fn()
	}
	l.mu.Lock()
	pending := len(l.tasks) > 0
	l.mu.Unlock()
	if pending {
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
}

func (l *eventLoop) stop() {
	l.cancel()
	<-l.stopped
}
