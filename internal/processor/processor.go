// Package processor deduplicates the files of a directory, one at a time.
package processor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/chmouel/nodupe/internal/dedupe"
	"github.com/chmouel/nodupe/internal/log"
	"github.com/chmouel/nodupe/internal/models"
	"github.com/chmouel/nodupe/internal/outpath"
	"github.com/chmouel/nodupe/internal/scan"
	"github.com/spf13/afero"
)

const defaultBufSize = 64 * 1024

// TempPrefix starts the names of the temp files used by atomic writes.
const TempPrefix = ".nodupe-"

var (
	// ErrRead wraps failures reading an input file.
	ErrRead = errors.New("read failed")
	// ErrWrite wraps failures writing an output file.
	ErrWrite = errors.New("write failed")
)

// Options tune a Processor.
type Options struct {
	Rules   scan.Rules
	DryRun  bool // Count only, write nothing
	Atomic  bool // Write to a temp file in the output directory, then rename
	BufSize int  // Read and write buffer size; <= 0 uses 64KiB
}

// Processor runs the deduplicator over files on fsys.
type Processor struct {
	fs      afero.Fs
	deriver *outpath.Deriver
	opts    Options
	now     func() time.Time
}

// New returns a Processor. A nil deriver uses the default naming.
func New(fsys afero.Fs, deriver *outpath.Deriver, opts Options) *Processor {
	if deriver == nil {
		deriver = outpath.Default()
	}
	if opts.BufSize <= 0 {
		opts.BufSize = defaultBufSize
	}
	return &Processor{fs: fsys, deriver: deriver, opts: opts, now: time.Now}
}

// Run processes every entry of dir in listing order and calls emit once per
// entry, as soon as it is handled. A failure on one file does not stop the
// run; Run only returns an error when dir cannot be listed or ctx is done.
func (p *Processor) Run(ctx context.Context, dir string, emit func(models.FileResult)) (models.Summary, error) {
	summary := models.Summary{Dir: dir}

	names, err := scan.List(p.fs, dir)
	if err != nil {
		return summary, err
	}
	log.With("dir", dir).Debug("listed directory", "entries", len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := p.Process(ctx, filepath.Join(dir, name))
		summary.Record(res)
		if emit != nil {
			emit(res)
		}
	}
	return summary, nil
}

// Process handles a single path: it is either skipped, processed, or failed.
func (p *Processor) Process(ctx context.Context, path string) models.FileResult {
	start := p.now()
	res := models.FileResult{Input: path, DryRun: p.opts.DryRun}

	outcome, reason := scan.Classify(p.fs, path, p.opts.Rules)
	if outcome == models.OutcomeSkipped {
		res.Outcome = models.OutcomeSkipped
		res.Reason = reason
		log.Debug("skipped", "path", path, "reason", reason)
		return res
	}

	res.Output = p.deriver.Derive(path)
	counts, err := p.dedupeFile(ctx, path, res.Output)
	res.Counts = counts
	res.Duration = p.now().Sub(start)
	if err != nil {
		res.Outcome = models.OutcomeFailed
		res.Err = err
		log.Error("failed", "path", path, "err", err)
		return res
	}

	res.Outcome = models.OutcomeProcessed
	log.Debug("processed", "path", path, "output", res.Output, "lines", counts.Lines, "dupes", counts.Dupes, "took", res.Duration)
	return res
}

func (p *Processor) dedupeFile(ctx context.Context, input, output string) (models.Counts, error) {
	in, err := p.fs.Open(input)
	if err != nil {
		return models.Counts{}, fmt.Errorf("%w: %s: %w", ErrRead, input, err)
	}
	defer in.Close()

	if p.opts.DryRun {
		return p.stream(ctx, in, io.Discard)
	}

	perm := os.FileMode(0o644)
	if info, err := in.Stat(); err == nil {
		perm = info.Mode().Perm()
	}
	if p.opts.Atomic {
		return p.writeAtomic(ctx, in, output, perm)
	}
	return p.writeOverwrite(ctx, in, output, perm)
}

// stream copies the lines of r to w, dropping consecutive duplicates.
// Read errors are wrapped with ErrRead, write errors with ErrWrite.
func (p *Processor) stream(ctx context.Context, r io.Reader, w io.Writer) (models.Counts, error) {
	var filter dedupe.Filter
	br := bufio.NewReaderSize(readerWithCtx(ctx, r), p.opts.BufSize)
	bw := bufio.NewWriterSize(w, p.opts.BufSize)

	for {
		line, err := br.ReadString('\n')
		if line != "" && filter.Keep(line) {
			if _, werr := bw.WriteString(line); werr != nil {
				return filter.Counts(), fmt.Errorf("%w: %w", ErrWrite, werr)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return filter.Counts(), fmt.Errorf("%w: %w", ErrRead, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return filter.Counts(), fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return filter.Counts(), nil
}

func (p *Processor) writeOverwrite(ctx context.Context, in io.Reader, dest string, perm os.FileMode) (models.Counts, error) {
	out, err := p.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return models.Counts{}, fmt.Errorf("%w: %s: %w", ErrWrite, dest, err)
	}

	counts, err := p.stream(ctx, in, out)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: %s: %w", ErrWrite, dest, cerr)
	}
	return counts, err
}

func (p *Processor) writeAtomic(ctx context.Context, in io.Reader, dest string, perm os.FileMode) (models.Counts, error) {
	tmp, err := afero.TempFile(p.fs, filepath.Dir(dest), TempPrefix+"*")
	if err != nil {
		return models.Counts{}, fmt.Errorf("%w: %s: %w", ErrWrite, dest, err)
	}
	tmpPath := tmp.Name()
	_ = p.fs.Chmod(tmpPath, perm)

	fail := func(counts models.Counts, err error) (models.Counts, error) {
		_ = tmp.Close()
		_ = p.fs.Remove(tmpPath)
		return counts, err
	}

	counts, err := p.stream(ctx, in, tmp)
	if err != nil {
		return fail(counts, err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(counts, fmt.Errorf("%w: %s: %w", ErrWrite, dest, err))
	}
	if err := tmp.Close(); err != nil {
		_ = p.fs.Remove(tmpPath)
		return counts, fmt.Errorf("%w: %s: %w", ErrWrite, dest, err)
	}
	if err := p.fs.Rename(tmpPath, dest); err != nil {
		_ = p.fs.Remove(tmpPath)
		return counts, fmt.Errorf("%w: %s: %w", ErrWrite, dest, err)
	}
	return counts, nil
}

// readerWithCtx checks ctx before every Read.
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(b []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(b)
}
