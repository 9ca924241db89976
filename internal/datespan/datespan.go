// Package datespan splits a date span into fixed-width calendar ranges.
package datespan

import "time"

// Layout is the wire format for dates used throughout the pipeline.
const Layout = "2006-01-02"

// Range is one inclusive sub-range of a partitioned span.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartString returns the range start in YYYY-MM-DD form.
func (r Range) StartString() string { return r.Start.Format(Layout) }

// EndString returns the range end in YYYY-MM-DD form.
func (r Range) EndString() string { return r.End.Format(Layout) }

// Ranges partitions [start, end] into consecutive sub-ranges spanning
// intervalMonths calendar months each; the final range is clipped to end.
// The result is ordered, gap-free and non-overlapping. When start >= end
// the result is empty.
func Ranges(start, end time.Time, intervalMonths int) []Range {
	var out []Range

	current := start
	for current.Before(end) {
		currentEnd := current.AddDate(0, intervalMonths, 0).AddDate(0, 0, -1)
		if currentEnd.After(end) {
			currentEnd = end
		}

		out = append(out, Range{Start: current, End: currentEnd})
		current = currentEnd.AddDate(0, 0, 1)
	}

	return out
}
