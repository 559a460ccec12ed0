package extract

import (
	"context"
	"os"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/billmerrill/highlights/travelogue"
)

var register_mknote sync.Once

// ImageExtractor reads the embedded timestamp and, if present, the embedded
// GPS coordinates from a photo's EXIF block. Absence of GPS is not an
// error; absence of a timestamp is.
type ImageExtractor struct{}

func (x *ImageExtractor) Extract(ctx context.Context, path string) (*Metadata, error) {

	fh, err := os.Open(path)

	if err != nil {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "unreadable file",
			Err:    err,
		}
	}

	defer fh.Close()

	register_mknote.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})

	im_exif, err := exif.Decode(fh)

	if err != nil {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "unreadable exif",
			Err:    err,
		}
	}

	// DateTimeOriginal with a fallback to DateTime, both in the EXIF
	// "2006:01:02 15:04:05" layout
	t, err := im_exif.DateTime()

	if err != nil {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "exif has no datetime",
			Err:    ErrMissingTimestamp,
		}
	}

	m := &Metadata{
		Type:      travelogue.TypeImage,
		Timestamp: t,
	}

	lat, lon, err := im_exif.LatLong()

	if err == nil {
		m.Geometry = orb.Point{lon, lat}
	}

	return m, nil
}
