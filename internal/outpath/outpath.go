// Package outpath derives the output path a cleaned file is written to.
package outpath

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultMarker is inserted before the extension.
	DefaultMarker = "-nodupe"
	// DefaultFallback is appended when no extension is found.
	DefaultFallback = "nodupe"
	// DefaultPattern matches the extension the marker is inserted before:
	// a dot followed by one to four lowercase letters.
	DefaultPattern = `\.[a-z]{1,4}`
)

// Deriver computes output paths from input paths. It does no I/O.
type Deriver struct {
	Marker   string
	Fallback string
	pattern  *regexp.Regexp
}

// New returns a Deriver. Empty arguments fall back to the defaults.
func New(marker, fallback, pattern string) (*Deriver, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	if fallback == "" {
		fallback = DefaultFallback
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid extension pattern %q: %w", pattern, err)
	}
	return &Deriver{Marker: marker, Fallback: fallback, pattern: re}, nil
}

// Default returns a Deriver using the default marker, fallback and pattern.
func Default() *Deriver {
	d, _ := New("", "", "")
	return d
}

// Derive inserts the marker before the first extension match in the base
// name of input. When that leaves the path unchanged, the fallback suffix
// is appended to the whole path instead.
func (d *Deriver) Derive(input string) string {
	dir, base := split(input)

	out := input
	if loc := d.pattern.FindStringIndex(base); loc != nil {
		out = dir + base[:loc[0]] + d.Marker + base[loc[0]:]
	}
	if out == input {
		out = input + d.Fallback
	}
	return out
}

// IsDerived reports whether name looks like a path produced by Derive.
func (d *Deriver) IsDerived(name string) bool {
	_, base := split(name)
	if base == "" {
		return false
	}
	if loc := d.pattern.FindStringIndex(base); loc != nil {
		return strings.HasSuffix(base[:loc[0]], d.Marker)
	}
	return strings.HasSuffix(base, d.Fallback)
}

// split returns the directory prefix (with its trailing separator) and the
// base name, so that dir+base == path.
func split(path string) (string, string) {
	i := strings.LastIndexAny(path, `/`+string(filepath.Separator))
	return path[:i+1], path[i+1:]
}
