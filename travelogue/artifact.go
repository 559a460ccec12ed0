package travelogue

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// ArtifactType labels the format family an artifact was ingested from.
type ArtifactType string

const (
	// TypeTrack is a GPS trace (one or more line segments).
	TypeTrack ArtifactType = "track"
	// TypeImage is a still photo.
	TypeImage ArtifactType = "image"
	// TypeVideo is a video recording.
	TypeVideo ArtifactType = "video"
	// TypeOther is anything the classifier could not identify. Other
	// artifacts carry a filesystem timestamp only.
	TypeOther ArtifactType = "other"
)

// Artifact is the normalized representation of a single source file. An
// artifact is owned by exactly one day at any instant; days reference
// artifacts by ID and artifacts never reference days back.
type Artifact struct {
	// ID is a stable identifier derived from the source path.
	ID string `json:"id"`
	// TripID records which trip the artifact was ingested under.
	TripID uuid.UUID `json:"trip_id"`
	Type   ArtifactType `json:"type"`
	// Timestamp is required. Files with no recoverable timestamp are
	// rejected during extraction and never become artifacts.
	Timestamp time.Time `json:"timestamp"`
	// TimestampIsFallback is true when Timestamp came from file mtime
	// rather than embedded metadata, so consumers can treat the temporal
	// placement as low-confidence.
	TimestampIsFallback bool `json:"timestamp_is_fallback,omitempty"`
	// Duration is the extent of tracks and videos. Zero for point-in-time
	// artifacts.
	Duration time.Duration `json:"duration,omitempty"`
	// Geometry is nil when the artifact has no location. Points for photos
	// and videos, a LineString or MultiLineString for tracks.
	Geometry orb.Geometry `json:"-"`
	// Approximated is true when Geometry was assigned by the location
	// resolver rather than read from the file itself. The distinction is
	// never dropped once set.
	Approximated bool   `json:"approximated,omitempty"`
	SourcePath   string `json:"source_path"`
}

// Located reports whether the artifact has any geometry, intrinsic or
// approximated.
func (a *Artifact) Located() bool {
	return a.Geometry != nil
}

// EndPosition returns the artifact's final known position. For a point
// geometry that is the point itself; for a track it is the last point of
// the last segment.
func (a *Artifact) EndPosition() (orb.Point, bool) {

	switch geom := a.Geometry.(type) {
	case orb.Point:
		return geom, true
	case orb.LineString:
		if len(geom) == 0 {
			return orb.Point{}, false
		}
		return geom[len(geom)-1], true
	case orb.MultiLineString:
		for i := len(geom) - 1; i >= 0; i-- {
			if len(geom[i]) > 0 {
				return geom[i][len(geom[i])-1], true
			}
		}
		return orb.Point{}, false
	default:
		return orb.Point{}, false
	}
}

// EndTime returns the instant the artifact stops being "current": the
// timestamp plus the duration for tracks and videos, the timestamp itself
// for everything else.
func (a *Artifact) EndTime() time.Time {
	return a.Timestamp.Add(a.Duration)
}

// SortArtifacts orders artifacts by timestamp, ties broken by source path
// so repeated runs over the same folder produce the same order.
func SortArtifacts(artifacts []*Artifact) {

	sort.SliceStable(artifacts, func(i int, j int) bool {

		if artifacts[i].Timestamp.Equal(artifacts[j].Timestamp) {
			return artifacts[i].SourcePath < artifacts[j].SourcePath
		}

		return artifacts[i].Timestamp.Before(artifacts[j].Timestamp)
	})
}
