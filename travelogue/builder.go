package travelogue

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/billmerrill/highlights/common"
)

// DefaultCampToleranceKm is how far apart two end-of-day positions may be
// and still count as the same camp. One kilometer absorbs GPS noise and
// walking around a campsite without merging genuinely different stops.
const DefaultCampToleranceKm float64 = 1.0

// BuilderOptions configures how artifacts are assembled into a trip.
type BuilderOptions struct {
	// CampToleranceKm is the layover-merge distance. Zero or negative
	// means DefaultCampToleranceKm.
	CampToleranceKm float64
}

// AddTrip buckets a resolved, timestamp-sorted artifact sequence into days
// under a new trip, recomputes the trip's bounding box, and detects camps.
// Artifacts are adopted into the travelogue's artifact table and tagged
// with the new trip's ID. Returns an error when the trip name is empty or
// an artifact carries no timestamp, in which case the travelogue is left
// untouched.
func (tl *Travelogue) AddTrip(name string, artifacts []*Artifact, opts *BuilderOptions) (*Trip, error) {

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("Trip name is required")
	}

	if opts == nil {
		opts = &BuilderOptions{}
	}

	tolerance := opts.CampToleranceKm

	if tolerance <= 0 {
		tolerance = DefaultCampToleranceKm
	}

	// validate the whole batch before touching any travelogue state, so a
	// bad artifact never leaves orphan days behind
	for _, a := range artifacts {

		if a.Timestamp.IsZero() {
			return nil, fmt.Errorf("Artifact %s (%s) has no timestamp", a.ID, a.SourcePath)
		}
	}

	trip := &Trip{
		ID:   uuid.New(),
		Name: name,
		days: make([]DayKey, 0),
	}

	for _, a := range artifacts {

		a.TripID = trip.ID

		key := DayKey{
			TripID: trip.ID,
			Date:   a.Timestamp.Format(DateLayout),
		}

		d, ok := tl.days[key]

		if !ok {

			d = &Day{
				Key:         key,
				ArtifactIDs: make([]string, 0),
			}

			tl.days[key] = d
			trip.days = append(trip.days, key)
		}

		d.ArtifactIDs = append(d.ArtifactIDs, a.ID)
		tl.artifacts[a.ID] = a

		if a.Located() {

			b := a.Geometry.Bound()

			if trip.HasBounds {
				trip.Bounds = trip.Bounds.Union(b)
			} else {
				trip.Bounds = b
				trip.HasBounds = true
			}
		}
	}

	tl.trips[trip.ID] = trip
	tl.tripOrder = append(tl.tripOrder, trip.ID)

	tl.buildCamps(trip, tolerance)

	return trip, nil
}

// buildCamps walks a trip's days in order, takes the last located
// artifact's end position as each day's end-of-day location, and merges
// consecutive days whose end-of-day locations fall within tolerance into a
// single layover camp. Days with no located artifacts get no camp.
func (tl *Travelogue) buildCamps(trip *Trip, tolerance_km float64) {

	camps := make([]*Camp, 0)

	var current *Camp

	for _, key := range trip.days {

		end, ok := tl.endOfDayPosition(key)

		if !ok {
			// an unlocated day breaks a layover run
			current = nil
			continue
		}

		if current != nil {

			d := common.HaversineKm(current.Location.Lat(), current.Location.Lon(), end.Lat(), end.Lon())

			if d < tolerance_km {
				current.Days = append(current.Days, key)
				tl.days[key].Camp = current
				continue
			}
		}

		current = &Camp{
			Location: end,
			Days:     []DayKey{key},
		}

		camps = append(camps, current)
		tl.days[key].Camp = current
	}

	tl.camps[trip.ID] = camps
}

// endOfDayPosition returns the final position of the last located artifact
// in the day's sequence.
func (tl *Travelogue) endOfDayPosition(key DayKey) (orb.Point, bool) {

	d := tl.days[key]

	for i := len(d.ArtifactIDs) - 1; i >= 0; i-- {

		a := tl.artifacts[d.ArtifactIDs[i]]

		if !a.Located() {
			continue
		}

		if pos, has := a.EndPosition(); has {
			return pos, true
		}
	}

	return orb.Point{}, false
}
