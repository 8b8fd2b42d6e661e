// Package models defines the data objects shared across nodupe packages.
package models

import "time"

// Counts holds the per-file counters of a deduplication pass.
type Counts struct {
	Lines int // Lines read
	Dupes int // Lines equal to their immediate predecessor
}

// Kept returns the number of lines written out.
func (c Counts) Kept() int {
	return c.Lines - c.Dupes
}

// Add returns the sum of two counters.
func (c Counts) Add(o Counts) Counts {
	return Counts{Lines: c.Lines + o.Lines, Dupes: c.Dupes + o.Dupes}
}

// Outcome is the result kind of handling one directory entry.
type Outcome string

const (
	// OutcomeProcessed means the entry was deduplicated (or counted, in dry-run mode).
	OutcomeProcessed Outcome = "processed"
	// OutcomeSkipped means the entry was not opened, see FileResult.Reason.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means reading or writing the entry failed, see FileResult.Err.
	OutcomeFailed Outcome = "failed"
)

// Skip reasons reported in FileResult.Reason.
const (
	ReasonNotFound   = "not found"
	ReasonDirectory  = "directory"
	ReasonIrregular  = "not a regular file"
	ReasonFiltered   = "filtered"
	ReasonGenerated  = "generated output"
	ReasonBinary     = "binary"
	ReasonUnreadable = "unreadable"
)

// FileResult describes what happened to one directory entry.
type FileResult struct {
	Input    string
	Output   string // Derived output path; empty for skipped entries
	Counts   Counts
	Outcome  Outcome
	Reason   string // Skip reason, only set for OutcomeSkipped
	Err      error  // Only set for OutcomeFailed
	DryRun   bool
	Duration time.Duration
}

// Summary aggregates the results of a run.
type Summary struct {
	Dir       string
	Processed int
	Skipped   int
	Failed    int
	Counts    Counts
}

// Record folds a file result into the summary.
func (s *Summary) Record(r FileResult) {
	switch r.Outcome {
	case OutcomeProcessed:
		s.Processed++
		s.Counts = s.Counts.Add(r.Counts)
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// Total returns the number of entries seen.
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}
