// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import "math"

// PageRange is an inclusive, 1-based range of page numbers.
type PageRange struct {
	First, Last int
}

// Expand grows the range by n pages on both sides without clamping.
func (r PageRange) Expand(n int) PageRange {
	return PageRange{First: r.First - n, Last: r.Last + n}
}

// Clamp bounds the range to [lo, hi]. The result may be empty (First > Last).
func (r PageRange) Clamp(lo, hi int) PageRange {
	return PageRange{First: max(r.First, lo), Last: min(r.Last, hi)}
}

func (r PageRange) Contains(p int) bool {
	return p >= r.First && p <= r.Last
}

func (r PageRange) Empty() bool {
	return r.First > r.Last
}

// Mid is the midpoint used to order render priority.
func (r PageRange) Mid() float64 {
	return float64(r.First+r.Last) / 2
}

// Current is the page shown in the page indicator.
func (r PageRange) Current() int {
	return int(math.Floor(r.Mid()))
}

// Pages lists every page in the range in ascending order.
func (r PageRange) Pages() []int {
	if r.Empty() {
		return nil
	}
	out := make([]int, 0, r.Last-r.First+1)
	for p := r.First; p <= r.Last; p++ {
		out = append(out, p)
	}
	return out
}

// ComputeVisibleRange returns the pages whose boxes intersect the viewport
// grown by margin×viewport on each side. Page numbers are box index + 1.
// When nothing intersects the result is {1, 1}.
func ComputeVisibleRange(scroll, viewport float64, boxes []Box, margin float64) PageRange {
	buffer := viewport * margin
	top := scroll - buffer
	bottom := scroll + viewport + buffer

	first, last := 0, 0
	for i, b := range boxes {
		if b.Bottom() >= top && b.Top <= bottom {
			if first == 0 {
				first = i + 1
			}
			last = i + 1
		}
	}
	if first == 0 {
		return PageRange{First: 1, Last: 1}
	}
	return PageRange{First: first, Last: last}
}
