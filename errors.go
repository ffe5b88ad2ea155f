// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyDocument    = errors.New("document is empty")
	ErrEncrypted        = errors.New("document is password protected")
	ErrNoDocument       = errors.New("no document loaded")
	ErrPageOutOfRange   = errors.New("page out of range")
	ErrZoomInProgress   = errors.New("zoom in progress")
	ErrViewerClosed     = errors.New("viewer closed")
	ErrBookmarkNotFound = errors.New("bookmark not found")
)

// DecodeError is returned when input bytes cannot be opened as a document.
// The session keeps whatever document it had before.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("decode document: %v", e.Err)
	}
	return fmt.Sprintf("decode document %q: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RenderError reports a failed raster for a single page.
type RenderError struct {
	Page  int
	Scale float64
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render page %d at scale %.2f: %v", e.Page, e.Scale, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
