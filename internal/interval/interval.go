// Package interval implements half-open time intervals and the set
// operations the availability index is built on.
package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End). An interval with
// End <= Start covers no instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the interval covers no instants.
func (iv Interval) IsZero() bool {
	return !iv.End.After(iv.Start)
}

// Duration returns the length of the interval, never negative.
func (iv Interval) Duration() time.Duration {
	if iv.IsZero() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Contains reports whether the instant t falls inside the interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Overlaps reports whether two intervals share at least one instant.
// Touching intervals (a.End == b.Start) do not overlap, and zero-length
// intervals never overlap anything.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Clip constrains iv to the bounds of the horizon. The result is zero when
// the two do not overlap.
func Clip(iv, horizon Interval) Interval {
	out := iv
	if out.Start.Before(horizon.Start) {
		out.Start = horizon.Start
	}
	if out.End.After(horizon.End) {
		out.End = horizon.End
	}
	if out.IsZero() {
		return Interval{}
	}
	return out
}

// SortByStart orders intervals by start time ascending, breaking ties by end
// time so the ordering is total.
func SortByStart(intervals []Interval) {
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start.Equal(intervals[j].Start) {
			return intervals[i].End.Before(intervals[j].End)
		}
		return intervals[i].Start.Before(intervals[j].Start)
	})
}

// MergeSorted coalesces a start-sorted sequence into a minimal disjoint,
// start-sorted sequence. Overlapping and adjacent intervals are combined,
// zero-length inputs are dropped. Merging an already merged sequence yields
// the same sequence.
func MergeSorted(intervals []Interval) []Interval {
	merged := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.IsZero() {
			continue
		}
		if len(merged) == 0 {
			merged = append(merged, iv)
			continue
		}
		last := &merged[len(merged)-1]
		if iv.Start.After(last.End) {
			merged = append(merged, iv)
			continue
		}
		if iv.End.After(last.End) {
			last.End = iv.End
		}
	}
	return merged
}

// Complement returns the sub-intervals of the horizon not covered by busy.
// The busy sequence must already be merged and start-sorted; the result is a
// disjoint, start-sorted partition of the horizon minus the busy set. An
// empty busy set yields the whole horizon.
func Complement(busy []Interval, horizon Interval) []Interval {
	if horizon.IsZero() {
		return nil
	}

	free := make([]Interval, 0, len(busy)+1)
	cursor := horizon.Start

	for _, iv := range busy {
		clipped := Clip(iv, horizon)
		if clipped.IsZero() {
			continue
		}
		if clipped.Start.After(cursor) {
			free = append(free, Interval{Start: cursor, End: clipped.Start})
		}
		if clipped.End.After(cursor) {
			cursor = clipped.End
		}
	}

	if cursor.Before(horizon.End) {
		free = append(free, Interval{Start: cursor, End: horizon.End})
	}

	return free
}
