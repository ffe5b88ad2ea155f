// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package tracer

import (
	"fmt"
	"io"
	"sync"
)

// maxMessages bounds the buffer; the oldest entries are dropped first.
const maxMessages = 4096

var (
	mu            sync.Mutex
	traceMessages []string
)

// Log just adds a message to the trace log.
func Log(msg string) {
	mu.Lock()
	defer mu.Unlock()
	if len(traceMessages) == maxMessages {
		traceMessages = append(traceMessages[:0], traceMessages[1:]...)
	}
	traceMessages = append(traceMessages, msg)
}

// Messages returns a copy of the accumulated trace log.
func Messages() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(traceMessages))
	copy(out, traceMessages)
	return out
}

// Flush writes the accumulated trace log to w and resets it.
func Flush(w io.Writer) {
	mu.Lock()
	msgs := traceMessages
	traceMessages = nil
	mu.Unlock()
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}
}

// Reset drops everything logged so far.
func Reset() {
	mu.Lock()
	traceMessages = nil
	mu.Unlock()
}
