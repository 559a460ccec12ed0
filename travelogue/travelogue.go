// Package travelogue holds the day-indexed aggregate structure that trip
// artifacts are assembled into: trips, days, camps, and the single artifact
// table that days reference by ID. It also implements the location resolver
// and the builder that buckets a sorted artifact sequence into days.
package travelogue

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// DateLayout is the calendar date format used for day keys.
const DateLayout string = "2006-01-02"

// ErrNotFound is returned by travelogue mutations when the referenced
// artifact or day does not exist. No partial mutation is ever applied.
var ErrNotFound = errors.New("not found")

// DayKey identifies a day within a travelogue. Days are keyed by trip as
// well as by date: the same calendar date in two different trips is two
// distinguishable days.
type DayKey struct {
	TripID uuid.UUID `json:"trip_id"`
	Date   string    `json:"date"`
}

func (k DayKey) String() string {
	return fmt.Sprintf("%s/%s", k.TripID, k.Date)
}

// Day is one calendar date within a trip. It owns an ordered sequence of
// artifact IDs; the entities live in the travelogue's artifact table so a
// move between days is an index update, not a copy.
type Day struct {
	Key DayKey
	// ArtifactIDs is the user-adjustable display order for the day.
	ArtifactIDs []string
	// Camp is a non-owning back-reference to the camp ending this day,
	// nil when no end-of-day location could be determined.
	Camp *Camp
}

// Camp is the sleep/destination location ending a day. A layover spans
// multiple consecutive days but is one camp entity, back-referenced by
// each day it covers.
type Camp struct {
	Location orb.Point
	Days     []DayKey
}

// Layover reports whether the camp covers more than one day.
func (c *Camp) Layover() bool {
	return len(c.Days) > 1
}

// Trip is one recorded event: a name, a bounding box recomputed as
// artifacts are added, and an ordered collection of days.
type Trip struct {
	ID     uuid.UUID
	Name   string
	Bounds orb.Bound
	// HasBounds is false until at least one located artifact contributes
	// to Bounds.
	HasBounds bool

	days []DayKey
}

// DayKeys returns the trip's day keys in chronological order.
func (t *Trip) DayKeys() []DayKey {
	keys := make([]DayKey, len(t.days))
	copy(keys, t.days)
	return keys
}

// Travelogue aggregates days, camps, and artifacts for one or more trips.
// Merging several trips into one combined view never loses an artifact's
// trip provenance.
type Travelogue struct {
	trips     map[uuid.UUID]*Trip
	tripOrder []uuid.UUID
	days      map[DayKey]*Day
	artifacts map[string]*Artifact
	camps     map[uuid.UUID][]*Camp
}

// NewTravelogue returns an empty Travelogue.
func NewTravelogue() *Travelogue {
	return &Travelogue{
		trips:     make(map[uuid.UUID]*Trip),
		tripOrder: make([]uuid.UUID, 0),
		days:      make(map[DayKey]*Day),
		artifacts: make(map[string]*Artifact),
		camps:     make(map[uuid.UUID][]*Camp),
	}
}

// Trips returns the travelogue's trips in the order they were added.
func (tl *Travelogue) Trips() []*Trip {

	trips := make([]*Trip, 0, len(tl.tripOrder))

	for _, id := range tl.tripOrder {
		trips = append(trips, tl.trips[id])
	}

	return trips
}

// Trip returns the trip with the given ID.
func (tl *Travelogue) Trip(id uuid.UUID) (*Trip, bool) {
	t, ok := tl.trips[id]
	return t, ok
}

// Artifact returns the artifact with the given ID.
func (tl *Travelogue) Artifact(id string) (*Artifact, bool) {
	a, ok := tl.artifacts[id]
	return a, ok
}

// Day returns the day with the given key.
func (tl *Travelogue) Day(key DayKey) (*Day, bool) {
	d, ok := tl.days[key]
	return d, ok
}

// TripDays returns a trip's days in chronological order.
func (tl *Travelogue) TripDays(trip_id uuid.UUID) []*Day {

	t, ok := tl.trips[trip_id]

	if !ok {
		return nil
	}

	days := make([]*Day, 0, len(t.days))

	for _, k := range t.days {
		days = append(days, tl.days[k])
	}

	return days
}

// Camps returns a trip's camps in chronological order.
func (tl *Travelogue) Camps(trip_id uuid.UUID) []*Camp {
	return tl.camps[trip_id]
}

// DayArtifacts resolves a day's artifact IDs into entities, preserving the
// day's order.
func (tl *Travelogue) DayArtifacts(key DayKey) []*Artifact {

	d, ok := tl.days[key]

	if !ok {
		return nil
	}

	artifacts := make([]*Artifact, 0, len(d.ArtifactIDs))

	for _, id := range d.ArtifactIDs {
		artifacts = append(artifacts, tl.artifacts[id])
	}

	return artifacts
}

// OwnerOf returns the key of the day currently owning the artifact.
func (tl *Travelogue) OwnerOf(artifact_id string) (DayKey, bool) {

	for _, d := range tl.days {
		for _, id := range d.ArtifactIDs {
			if id == artifact_id {
				return d.Key, true
			}
		}
	}

	return DayKey{}, false
}

// MergedDays returns every day across every trip in one combined
// chronological view. Days from different trips that share a calendar date
// stay distinct, ordered by trip insertion order within the date.
func (tl *Travelogue) MergedDays() []*Day {

	trip_rank := make(map[uuid.UUID]int)

	for i, id := range tl.tripOrder {
		trip_rank[id] = i
	}

	days := make([]*Day, 0, len(tl.days))

	for _, d := range tl.days {
		days = append(days, d)
	}

	sort.SliceStable(days, func(i int, j int) bool {

		if days[i].Key.Date == days[j].Key.Date {
			return trip_rank[days[i].Key.TripID] < trip_rank[days[j].Key.TripID]
		}

		return days[i].Key.Date < days[j].Key.Date
	})

	return days
}

// MoveArtifact transfers ownership of an artifact from one day to another,
// inserting it at position in the destination day's sequence. Positions
// outside the destination's bounds are clamped. Returns ErrNotFound when
// either day does not exist or the artifact is not currently owned by the
// from day; in that case nothing is mutated.
func (tl *Travelogue) MoveArtifact(artifact_id string, from DayKey, to DayKey, position int) error {

	from_day, ok := tl.days[from]

	if !ok {
		return fmt.Errorf("day %s: %w", from, ErrNotFound)
	}

	to_day, ok := tl.days[to]

	if !ok {
		return fmt.Errorf("day %s: %w", to, ErrNotFound)
	}

	idx := -1

	for i, id := range from_day.ArtifactIDs {
		if id == artifact_id {
			idx = i
			break
		}
	}

	if idx == -1 {
		return fmt.Errorf("artifact %s not owned by day %s: %w", artifact_id, from, ErrNotFound)
	}

	from_day.ArtifactIDs = append(from_day.ArtifactIDs[:idx], from_day.ArtifactIDs[idx+1:]...)

	if position < 0 {
		position = 0
	}

	if position > len(to_day.ArtifactIDs) {
		position = len(to_day.ArtifactIDs)
	}

	to_day.ArtifactIDs = append(to_day.ArtifactIDs, "")
	copy(to_day.ArtifactIDs[position+1:], to_day.ArtifactIDs[position:])
	to_day.ArtifactIDs[position] = artifact_id

	return nil
}
