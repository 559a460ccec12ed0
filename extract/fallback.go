package extract

import (
	"context"
	"os"

	"github.com/billmerrill/highlights/travelogue"
)

// FallbackExtractor handles files no other extractor claims. It yields an
// "other" artifact placed by file mtime, flagged as a fallback timestamp
// so downstream consumers treat its temporal placement as low-confidence.
type FallbackExtractor struct{}

func (x *FallbackExtractor) Extract(ctx context.Context, path string) (*Metadata, error) {

	info, err := os.Stat(path)

	if err != nil {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "unreadable file",
			Err:    err,
		}
	}

	if info.ModTime().IsZero() {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "no filesystem timestamp",
			Err:    ErrMissingTimestamp,
		}
	}

	m := &Metadata{
		Type:                travelogue.TypeOther,
		Timestamp:           info.ModTime(),
		TimestampIsFallback: true,
	}

	return m, nil
}
