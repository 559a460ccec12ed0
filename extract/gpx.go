package extract

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/billmerrill/highlights/travelogue"
)

// GPXExtractor reads GPS traces from GPX files. Preference order for
// geometry: tracks, then routes, then waypoints. Every segment of every
// track becomes one line within the artifact's geometry, never a separate
// artifact.
type GPXExtractor struct{}

// Extract parses path as GPX. A file whose points carry no timestamps
// fails with ErrMissingTimestamp; a file that does not parse fails with a
// malformed-gpx ExtractionError.
func (x *GPXExtractor) Extract(ctx context.Context, path string) (*Metadata, error) {

	g, err := gpx.ParseFile(path)

	if err != nil {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "malformed gpx",
			Err:    err,
		}
	}

	tb := g.TimeBounds()

	if tb.StartTime.IsZero() {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "gpx has no time information",
			Err:    ErrMissingTimestamp,
		}
	}

	duration := tb.EndTime.Sub(tb.StartTime)

	if duration < 0 {
		duration = 0
	}

	m := &Metadata{
		Type:      travelogue.TypeTrack,
		Timestamp: tb.StartTime,
		Duration:  duration,
		Geometry:  gpxGeometry(g),
	}

	return m, nil
}

// gpxGeometry flattens a parsed GPX document into orb geometry. A single
// segment collapses to a LineString; multiple segments become a
// MultiLineString.
func gpxGeometry(g *gpx.GPX) orb.Geometry {

	lines := make([]orb.LineString, 0)

	for _, trk := range g.Tracks {

		for _, seg := range trk.Segments {

			if len(seg.Points) == 0 {
				continue
			}

			ls := make(orb.LineString, 0, len(seg.Points))

			for _, pt := range seg.Points {
				ls = append(ls, orb.Point{pt.Longitude, pt.Latitude})
			}

			lines = append(lines, ls)
		}
	}

	if len(lines) == 0 {

		for _, rte := range g.Routes {

			if len(rte.Points) == 0 {
				continue
			}

			ls := make(orb.LineString, 0, len(rte.Points))

			for _, pt := range rte.Points {
				ls = append(ls, orb.Point{pt.Longitude, pt.Latitude})
			}

			lines = append(lines, ls)
		}
	}

	switch len(lines) {
	case 0:
		return waypointGeometry(g)
	case 1:
		return lines[0]
	default:
		return orb.MultiLineString(lines)
	}
}

func waypointGeometry(g *gpx.GPX) orb.Geometry {

	switch len(g.Waypoints) {
	case 0:
		return nil
	case 1:
		return orb.Point{g.Waypoints[0].Longitude, g.Waypoints[0].Latitude}
	default:

		ls := make(orb.LineString, 0, len(g.Waypoints))

		for _, pt := range g.Waypoints {
			ls = append(ls, orb.Point{pt.Longitude, pt.Latitude})
		}

		return ls
	}
}
