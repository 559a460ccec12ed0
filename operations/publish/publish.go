// Package publish converts an assembled travelogue into the documents the
// map viewer fetches: one GeoJSON FeatureCollection per day, with a
// parallel non-spatial listing for artifacts that have no location, plus a
// trip configuration record naming every day document.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/sjson"
	"gocloud.dev/blob"

	"github.com/billmerrill/highlights/travelogue"
)

// TripConfig is the side record the viewer loads first: the trip's name,
// its bounding box as [[lat,lon],[lat,lon]], and the keys of the per-day
// GeoJSON documents.
type TripConfig struct {
	TripName     string        `json:"tripName"`
	BBox         [2][2]float64 `json:"bbox"`
	GeoJSONFiles []string      `json:"geojsonFiles"`
}

// UnlocatedArtifact is one entry in a day document's non-spatial listing:
// an artifact with no geometry at all, surfaced for display without a map
// pin rather than silently dropped.
type UnlocatedArtifact struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// Publisher writes travelogue documents to a gocloud.dev/blob Bucket.
type Publisher struct {
	// A valid gocloud.dev/blob Bucket where day documents and trip
	// configuration records are written.
	Bucket *blob.Bucket
}

// PublishTrip writes every day document for the trip, then the trip
// configuration record. One day's failure never blocks the others: the
// failing day is logged and excluded, the rest are written, and the
// accumulated errors are returned joined at the end.
func (p *Publisher) PublishTrip(ctx context.Context, tl *travelogue.Travelogue, trip *travelogue.Trip) (*TripConfig, error) {

	logger := slog.Default()
	logger = logger.With("trip", trip.Name)

	day_errors := make([]error, 0)
	files := make([]string, 0)

	for _, d := range tl.TripDays(trip.ID) {

		body, err := DayDocument(tl, d)

		if err != nil {
			logger.Error("Failed to generate day document", "date", d.Key.Date, "error", err)
			day_errors = append(day_errors, fmt.Errorf("Failed to generate day document for %s, %w", d.Key.Date, err))
			continue
		}

		key := fmt.Sprintf("%s/%s.geojson", trip.ID, d.Key.Date)

		err = p.Bucket.WriteAll(ctx, key, body, nil)

		if err != nil {
			logger.Error("Failed to write day document", "date", d.Key.Date, "error", err)
			day_errors = append(day_errors, fmt.Errorf("Failed to write day document for %s, %w", d.Key.Date, err))
			continue
		}

		files = append(files, key)
	}

	cfg := NewTripConfig(trip, files)

	enc_cfg, err := json.Marshal(cfg)

	if err != nil {
		return nil, errors.Join(append(day_errors, fmt.Errorf("Failed to marshal trip config, %w", err))...)
	}

	cfg_key := fmt.Sprintf("%s/trip.json", trip.ID)

	err = p.Bucket.WriteAll(ctx, cfg_key, enc_cfg, nil)

	if err != nil {
		return nil, errors.Join(append(day_errors, fmt.Errorf("Failed to write trip config, %w", err))...)
	}

	return cfg, errors.Join(day_errors...)
}

// NewTripConfig derives the viewer configuration record from a trip and
// the day document keys that were actually written.
func NewTripConfig(trip *travelogue.Trip, files []string) *TripConfig {

	cfg := &TripConfig{
		TripName:     trip.Name,
		GeoJSONFiles: files,
	}

	if trip.HasBounds {
		cfg.BBox = [2][2]float64{
			{trip.Bounds.Min.Lat(), trip.Bounds.Min.Lon()},
			{trip.Bounds.Max.Lat(), trip.Bounds.Max.Lon()},
		}
	}

	return cfg
}

// DayDocument renders one day as a GeoJSON FeatureCollection. Feature
// order follows the day's artifact order. Line geometries carry the track
// duration; point geometries carry the approximated flag the viewer relies
// on, whatever kind of artifact produced them. Artifacts
// with no location appear in the document's top-level "unlocated" member
// instead of the feature list.
func DayDocument(tl *travelogue.Travelogue, d *travelogue.Day) ([]byte, error) {

	fc := geojson.NewFeatureCollection()
	unlocated := make([]UnlocatedArtifact, 0)

	for _, a := range tl.DayArtifacts(d.Key) {

		if !a.Located() {

			unlocated = append(unlocated, UnlocatedArtifact{
				ID:        a.ID,
				Type:      string(a.Type),
				Timestamp: a.Timestamp.Format(time.RFC3339),
			})

			continue
		}

		f := geojson.NewFeature(a.Geometry)

		f.Properties["id"] = a.ID
		f.Properties["type"] = string(a.Type)
		f.Properties["timestamp"] = a.Timestamp.Format(time.RFC3339)

		// a waypoint-only GPX file is a track artifact with Point
		// geometry, so the property split follows the geometry
		switch a.Geometry.(type) {
		case orb.LineString, orb.MultiLineString:

			if a.Duration > 0 {
				f.Properties["duration"] = a.Duration.Seconds()
			}

		default:
			f.Properties["approximated"] = a.Approximated
		}

		if a.TimestampIsFallback {
			f.Properties["timestamp_is_fallback"] = true
		}

		fc.Append(f)
	}

	body, err := fc.MarshalJSON()

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal feature collection, %w", err)
	}

	// top-level members the viewer reads alongside the features

	body, err = sjson.SetBytes(body, "date", d.Key.Date)

	if err != nil {
		return nil, fmt.Errorf("Failed to assign date property, %w", err)
	}

	body, err = sjson.SetBytes(body, "unlocated", unlocated)

	if err != nil {
		return nil, fmt.Errorf("Failed to assign unlocated property, %w", err)
	}

	return body, nil
}
