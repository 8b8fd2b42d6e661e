// Package dedupe collapses runs of identical consecutive lines.
//
// Lines are compared byte for byte, including any line terminator the caller
// kept. Only immediate repeats are dropped: a line equal to one two positions
// back is preserved.
package dedupe

import "github.com/chmouel/nodupe/internal/models"

// Filter decides, one line at a time, whether a line is kept.
// The zero value is ready to use.
type Filter struct {
	last    string
	hasLast bool
	counts  models.Counts
}

// Keep records line and reports whether it should be emitted.
func (f *Filter) Keep(line string) bool {
	f.counts.Lines++
	dup := f.hasLast && line == f.last
	if dup {
		f.counts.Dupes++
	}
	f.last = line
	f.hasLast = true
	return !dup
}

// Counts returns the counters accumulated so far.
func (f *Filter) Counts() models.Counts {
	return f.counts
}

// Collapse returns lines with consecutive duplicates removed, along with
// the number of lines read and dropped.
func Collapse(lines []string) ([]string, models.Counts) {
	var f Filter
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if f.Keep(line) {
			out = append(out, line)
		}
	}
	return out, f.Counts()
}
