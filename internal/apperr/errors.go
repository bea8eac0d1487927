// Package apperr defines the error taxonomy shared across the brain.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotInitialized = errors.New("brain not initialized (missing brain.yaml)")
)

// MissingFrontmatterError reports a markdown document without the opening or
// closing `---` fence. Label identifies the document for diagnostics,
// usually a file path.
type MissingFrontmatterError struct {
	Label string
}

func (e *MissingFrontmatterError) Error() string {
	return fmt.Sprintf("missing frontmatter in %s", e.Label)
}

// InvalidFrontmatterError reports a document whose fence structure is intact
// but whose YAML fields failed to decode or validate.
type InvalidFrontmatterError struct {
	Label string
	Err   error
}

func (e *InvalidFrontmatterError) Error() string {
	return fmt.Sprintf("invalid frontmatter in %s: %v", e.Label, e.Err)
}

func (e *InvalidFrontmatterError) Unwrap() error { return e.Err }

// IndexOutOfRangeError reports a 1-based inbox index outside 1..Count.
type IndexOutOfRangeError struct {
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range (1-%d)", e.Index, e.Count)
}

// PathTraversalError reports a relative path that resolves outside the
// brain root.
type PathTraversalError struct {
	Path string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path traversal denied: %s", e.Path)
}
