// Package report prints per-file results and run summaries.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/chmouel/nodupe/internal/config"
	"github.com/chmouel/nodupe/internal/models"
	"github.com/chmouel/nodupe/internal/theme"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"
)

const nameWidth = 32

// Reporter writes results in one of the config.Format* formats.
type Reporter struct {
	out     io.Writer
	errOut  io.Writer
	format  string
	verbose bool
	styled  bool
	theme   string

	headerDone bool
	err        error
}

// New returns a Reporter writing results to out and failures to errOut.
// Skipped entries are only reported when verbose is set. errOut must be safe
// for concurrent use when it is also the debug log mirror.
func New(out, errOut io.Writer, format string, verbose bool) *Reporter {
	return &Reporter{
		out:     out,
		errOut:  errOut,
		format:  format,
		verbose: verbose,
		styled:  isTerminal(out),
		theme:   theme.AutoName,
	}
}

// SetTheme selects the palette of the table report.
func (r *Reporter) SetTheme(name string) {
	r.theme = name
}

// Err returns the first write error, if any.
func (r *Reporter) Err() error {
	return r.err
}

// Emit reports one entry.
func (r *Reporter) Emit(res models.FileResult) {
	switch r.format {
	case config.FormatJSON:
		r.write(r.out, mustJSON(toEntry(res)))
	case config.FormatTable:
		r.emitRow(res)
	default:
		r.emitText(res)
	}
}

func (r *Reporter) emitText(res models.FileResult) {
	switch res.Outcome {
	case models.OutcomeProcessed:
		output := res.Output
		if res.DryRun {
			output += " (dry run, not written)"
		}
		r.write(r.out, fmt.Sprintf("File: %s\nOutput: %s\nLines: %d\nDuplicate lines: %d\n\n",
			res.Input, output, res.Counts.Lines, res.Counts.Dupes))
	case models.OutcomeSkipped:
		if r.verbose {
			r.write(r.out, fmt.Sprintf("Skipping %s: %s\n", res.Input, res.Reason))
		}
	case models.OutcomeFailed:
		r.write(r.errOut, fmt.Sprintf("Error: %s: %v\n", res.Input, res.Err))
	}
}

func (r *Reporter) emitRow(res models.FileResult) {
	if res.Outcome == models.OutcomeSkipped && !r.verbose {
		return
	}
	var palette theme.Theme
	if r.styled {
		palette = theme.Get(r.theme)
	}
	if !r.headerDone {
		header := fmt.Sprintf("%-*s  %8s  %8s  %-10s  %s", nameWidth, "FILE", "LINES", "DUPES", "STATUS", "OUTPUT")
		if r.styled {
			header = palette.HeaderStyle().Render(header)
		}
		r.write(r.out, header+"\n")
		r.headerDone = true
	}

	status := string(res.Outcome)
	detail := filepath.Base(res.Output)
	switch res.Outcome {
	case models.OutcomeSkipped:
		detail = res.Reason
	case models.OutcomeFailed:
		detail = res.Err.Error()
	case models.OutcomeProcessed:
		if res.DryRun {
			status = "dry-run"
		}
	}
	if r.styled {
		status = palette.StatusStyle(res).Render(fmt.Sprintf("%-10s", status))
	} else {
		status = fmt.Sprintf("%-10s", status)
	}

	name := truncate.StringWithTail(filepath.Base(res.Input), nameWidth, "…")
	r.write(r.out, fmt.Sprintf("%-*s  %8d  %8d  %s  %s\n", nameWidth, name, res.Counts.Lines, res.Counts.Dupes, status, detail))
}

// Summary reports the totals of a run.
func (r *Reporter) Summary(s models.Summary) {
	if r.format == config.FormatJSON {
		r.write(r.out, mustJSON(map[string]any{"summary": toSummary(s)}))
		return
	}
	if r.format == config.FormatTable && r.headerDone {
		r.write(r.out, "\n")
	}
	r.write(r.out, fmt.Sprintf("%s: %d processed, %d skipped, %d failed; %d lines read, %d duplicate lines removed\n",
		s.Dir, s.Processed, s.Skipped, s.Failed, s.Counts.Lines, s.Counts.Dupes))
}

func (r *Reporter) write(w io.Writer, s string) {
	if r.err != nil {
		return
	}
	if _, err := io.WriteString(w, s); err != nil {
		r.err = err
	}
}

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe,
// which happens when the reader (like `head`) exits early.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec
}

type entryJSON struct {
	Input   string `json:"input"`
	Output  string `json:"output,omitempty"`
	Lines   int    `json:"lines"`
	Dupes   int    `json:"dupes"`
	Kept    int    `json:"kept"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

type summaryJSON struct {
	Dir       string `json:"dir"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Lines     int    `json:"lines"`
	Dupes     int    `json:"dupes"`
}

func toEntry(res models.FileResult) entryJSON {
	e := entryJSON{
		Input:   res.Input,
		Output:  res.Output,
		Lines:   res.Counts.Lines,
		Dupes:   res.Counts.Dupes,
		Kept:    res.Counts.Kept(),
		Outcome: string(res.Outcome),
		Reason:  res.Reason,
		DryRun:  res.DryRun,
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	return e
}

func toSummary(s models.Summary) summaryJSON {
	return summaryJSON{
		Dir:       s.Dir,
		Processed: s.Processed,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
		Lines:     s.Counts.Lines,
		Dupes:     s.Counts.Dupes,
	}
}

// mustJSON encodes v as one JSON line. The types above always marshal.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}\n", err.Error())
	}
	return string(data) + "\n"
}
