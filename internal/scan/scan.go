// Package scan lists a directory and decides which entries get processed.
package scan

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/chmouel/nodupe/internal/models"
	"github.com/chmouel/nodupe/internal/outpath"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// sniffLen is how much of a file is read for binary detection.
const sniffLen = 3072

// Rules controls which regular files are processed.
type Rules struct {
	Include       []string // Doublestar patterns matched against the base name
	Exclude       []string
	SkipBinary    bool
	SkipGenerated bool
	Deriver       *outpath.Deriver // Required with SkipGenerated
}

// Validate checks that every pattern is well formed.
func (r Rules) Validate() error {
	for _, p := range append(append([]string{}, r.Include...), r.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	if r.SkipGenerated && r.Deriver == nil {
		return errors.New("skip generated outputs needs an output path deriver")
	}
	return nil
}

// List returns the names of all entries of dir, files and subdirectories
// alike. The listing is a snapshot: entries created afterwards are not seen.
func List(fsys afero.Fs, dir string) ([]string, error) {
	f, err := fsys.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", dir, err)
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dir, err)
	}
	return names, nil
}

// Classify decides whether path is processed. When it is not, the returned
// reason says why. Directories are never opened.
func Classify(fsys afero.Fs, path string, rules Rules) (models.Outcome, string) {
	info, err := fsys.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return models.OutcomeSkipped, models.ReasonNotFound
	case err != nil:
		return models.OutcomeSkipped, models.ReasonUnreadable
	case info.IsDir():
		return models.OutcomeSkipped, models.ReasonDirectory
	case !info.Mode().IsRegular():
		return models.OutcomeSkipped, models.ReasonIrregular
	}

	name := filepath.Base(path)
	if !rules.matches(name) {
		return models.OutcomeSkipped, models.ReasonFiltered
	}
	if rules.SkipGenerated && rules.Deriver != nil && rules.Deriver.IsDerived(name) {
		return models.OutcomeSkipped, models.ReasonGenerated
	}
	if rules.SkipBinary && info.Size() > 0 {
		binary, err := IsBinary(fsys, path)
		if err != nil {
			return models.OutcomeSkipped, models.ReasonUnreadable
		}
		if binary {
			return models.OutcomeSkipped, models.ReasonBinary
		}
	}
	return models.OutcomeProcessed, ""
}

func (r Rules) matches(name string) bool {
	for _, p := range r.Exclude {
		if ok, _ := doublestar.Match(p, name); ok {
			return false
		}
	}
	if len(r.Include) == 0 {
		return true
	}
	for _, p := range r.Include {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// IsBinary sniffs the head of path and reports whether it is not text.
func IsBinary(fsys afero.Fs, path string) (bool, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return !isText(mimetype.Detect(head[:n])), nil
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") || strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
