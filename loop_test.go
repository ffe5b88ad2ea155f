// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *eventLoop {
	t.Helper()
	l := newEventLoop()
	go l.run()
	t.Cleanup(l.stop)
	return l
}

func TestEventLoop_RunsTasksInOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := range 5 {
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestEventLoop_TasksMayPostFromTheLoop(t *testing.T) {
	l := startLoop(t)

	var got []string
	done := make(chan struct{})
	l.Post(func() {
		got = append(got, "first")
		l.Post(func() {
			got = append(got, "follow-up")
			close(done)
		})
	})
	l.Post(func() { got = append(got, "second") })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("follow-up task never ran")
	}
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.Equal(t, []string{"first", "second", "follow-up"}, got)
}

func TestEventLoop_AfterFuncRunsOnLoop(t *testing.T) {
	l := startLoop(t)

	ran := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("timer task never ran")
	}
}

func TestEventLoop_DoHonoursContext(t *testing.T) {
	l := startLoop(t)

	block := make(chan struct{})
	l.Post(func() { <-block })
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEventLoop_Stopped(t *testing.T) {
	l := newEventLoop()
	go l.run()
	l.stop()

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrViewerClosed)
}
