// Package splice computes cut lists from removal intervals and rebuilds audio
// without them.
package splice

import (
	"fmt"
	"slices"
)

// Interval is a half-open span [StartMs, EndMs) of the audio timeline.
type Interval struct {
	StartMs int `json:"start_ms"`
	EndMs   int `json:"end_ms"`
}

func (iv Interval) Duration() int {
	return max(iv.EndMs-iv.StartMs, 0)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d)", iv.StartMs, iv.EndMs)
}

// Widen moves the start back by lookbackMs (not below zero) and the end forward
// by paddingMs (not past totalMs).
func Widen(iv Interval, lookbackMs, paddingMs, totalMs int) Interval {
	return Interval{
		StartMs: max(0, iv.StartMs-lookbackMs),
		EndMs:   min(totalMs, iv.EndMs+paddingMs),
	}
}

// Merge returns the minimal disjoint, chronologically ordered set covering
// intervals. Overlapping and touching intervals coalesce, so adjacent output
// intervals always satisfy a.EndMs < b.StartMs. The input is not modified.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := slices.Clone(intervals)
	slices.SortStableFunc(sorted, func(a, b Interval) int {
		if a.StartMs != b.StartMs {
			return a.StartMs - b.StartMs
		}
		return a.EndMs - b.EndMs
	})

	merged := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.StartMs <= cur.EndMs {
			cur.EndMs = max(cur.EndMs, next.EndMs)
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	return append(merged, cur)
}

// padding applied to every raw interval before merging
type PlanOptions struct {
	LookbackMs int
	PaddingMs  int
}

// Plan widens each raw interval and merges the result into the cut list.
// Widening happens first because widened neighbours are the ones that overlap.
func Plan(raw []Interval, opts PlanOptions, totalMs int) []Interval {
	widened := make([]Interval, 0, len(raw))
	for _, iv := range raw {
		w := Widen(iv, opts.LookbackMs, opts.PaddingMs, totalMs)
		if w.EndMs < w.StartMs {
			// raw interval starts beyond the end of the audio
			continue
		}
		widened = append(widened, w)
	}
	return Merge(widened)
}

// Kept returns the spans of [0, totalMs) not covered by the disjoint cuts.
func Kept(cuts []Interval, totalMs int) []Interval {
	var kept []Interval
	last := 0
	for _, cut := range cuts {
		if last < cut.StartMs {
			kept = append(kept, Interval{StartMs: last, EndMs: cut.StartMs})
		}
		last = max(last, cut.EndMs)
	}
	if last < totalMs {
		kept = append(kept, Interval{StartMs: last, EndMs: totalMs})
	}
	return kept
}

// total milliseconds covered by disjoint intervals
func TotalDuration(intervals []Interval) int {
	total := 0
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}
