// Package extract turns raw trip files into normalized artifact metadata.
// One extractor per format family: GPX traces, images (EXIF), video
// containers (QuickTime/MP4 metadata), and a fallback for everything else.
// Extractors are stateless, never mutate the source file, and are safe to
// run concurrently across files.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/billmerrill/highlights/travelogue"
)

// ErrMissingTimestamp indicates a file with no derivable timestamp,
// embedded or filesystem. Such files cannot be placed in any day and are
// excluded from the travelogue.
var ErrMissingTimestamp = errors.New("no recoverable timestamp")

// ExtractionError describes a per-file extraction failure: corrupt or
// unsupported metadata, unreadable container, missing timestamp. It is
// never fatal to a batch.
type ExtractionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {

	if e.Err != nil {
		return fmt.Sprintf("%s: %s, %v", e.Path, e.Reason, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Metadata is the normalized output of an extractor: everything needed to
// build an artifact except its identity.
type Metadata struct {
	Type travelogue.ArtifactType
	// Timestamp is required; extractors fail with ErrMissingTimestamp
	// rather than return a zero timestamp.
	Timestamp time.Time
	// TimestampIsFallback is true when the timestamp came from file mtime.
	TimestampIsFallback bool
	// Duration is the recorded extent for tracks and videos.
	Duration time.Duration
	// Geometry is nil when the file carries no location. Absence of a
	// location is not an error.
	Geometry orb.Geometry
}

// Extractor reads a single file's metadata. Implementations are stateless
// and must not mutate or relocate the source file.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Metadata, error)
}
