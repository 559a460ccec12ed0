package extract

import (
	"encoding/xml"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Classifier maps a file to the extractor for its format family. Unknown
// extensions degrade to the fallback extractor rather than failing, so the
// classifier itself never errors.
type Classifier struct {
	gpx      Extractor
	image    Extractor
	video    Extractor
	fallback Extractor
}

// NewClassifier returns a Classifier wired to the default extractors.
func NewClassifier() *Classifier {
	return &Classifier{
		gpx:      &GPXExtractor{},
		image:    &ImageExtractor{},
		video:    &VideoExtractor{},
		fallback: &FallbackExtractor{},
	}
}

// Classify picks an extractor for path from its extension, with a content
// sniff for bare .xml files that might be GPX documents.
func (c *Classifier) Classify(path string) Extractor {

	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".gpx":
		return c.gpx
	case ".xml":

		if isGPX(path) {
			return c.gpx
		}

		return c.fallback
	case ".jpg", ".jpeg", ".png", ".heic":
		return c.image
	case ".mp4", ".mov", ".m4v":
		return c.video
	}

	// Go's builtin extension table carries no video entries, so the system
	// mime database only widens the explicit cases above
	t := mime.TypeByExtension(ext)

	switch {
	case strings.HasPrefix(t, "image/"):
		return c.image
	case strings.HasPrefix(t, "video/"):
		return c.video
	default:
		return c.fallback
	}
}

// isGPX reports whether the document's root element is named gpx,
// namespaced or not.
func isGPX(path string) bool {

	fh, err := os.Open(path)

	if err != nil {
		return false
	}

	defer fh.Close()

	dec := xml.NewDecoder(io.LimitReader(fh, 4096))

	for {

		tok, err := dec.Token()

		if err != nil {
			return false
		}

		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local == "gpx"
		}
	}
}
