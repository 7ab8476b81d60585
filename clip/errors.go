package clip

import (
	"errors"
	"fmt"
)

// ErrNoFootageFound is returned when no chunk overlaps the alert window.
// It is a legitimate empty outcome, not a processing failure: callers should
// not retry it and should report the alert as having no footage.
var ErrNoFootageFound = errors.New("no footage found for alert window")

// CredentialError indicates the chunk source is unreachable or unauthorized.
// No extraction is attempted and no scratch files are created.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("chunk source credential check failed: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// CatalogError indicates the chunk listing itself failed (unreachable
// storage, permission denied, malformed listing). Distinct from an empty
// catalog, which is not an error.
type CatalogError struct {
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("failed to list chunks: %v", e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// ExtractionError indicates a download or stream-copy trim failed for one of
// the selected chunks. The whole extraction is aborted; no partial clip is
// produced from a subset of chunks.
type ExtractionError struct {
	Chunk string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract segment from chunk %s: %v", e.Chunk, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// AssemblyError indicates the segment concatenation failed or produced an
// empty output file.
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("failed to assemble clip: %v", e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }
