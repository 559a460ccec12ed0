package publish

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gocloud.dev/blob/memblob"

	"github.com/billmerrill/highlights/common"
	"github.com/billmerrill/highlights/travelogue"
)

func buildTestTravelogue(t *testing.T) (*travelogue.Travelogue, *travelogue.Trip) {

	t.Helper()

	tl := travelogue.NewTravelogue()

	d1 := time.Date(2025, 6, 17, 8, 0, 0, 0, time.UTC)
	d2 := d1.Add(24 * time.Hour)

	track := &travelogue.Artifact{
		ID:        common.ArtifactID("/trip/ride.gpx"),
		Type:      travelogue.TypeTrack,
		Timestamp: d1,
		Duration:  2 * time.Hour,
		Geometry: orb.LineString{
			{-117.3743, 49.9884},
			{-117.3700, 49.9900},
			{-117.3600, 49.9950},
		},
		SourcePath: "/trip/ride.gpx",
	}

	photo1 := &travelogue.Artifact{
		ID:         common.ArtifactID("/trip/a.jpg"),
		Type:       travelogue.TypeImage,
		Timestamp:  d1.Add(3 * time.Hour),
		Geometry:   orb.Point{-117.3600, 49.9950},
		SourcePath: "/trip/a.jpg",
	}

	photo2 := &travelogue.Artifact{
		ID:           common.ArtifactID("/trip/b.jpg"),
		Type:         travelogue.TypeImage,
		Timestamp:    d1.Add(4 * time.Hour),
		Geometry:     orb.Point{-117.3600, 49.9950},
		Approximated: true,
		SourcePath:   "/trip/b.jpg",
	}

	note := &travelogue.Artifact{
		ID:         common.ArtifactID("/trip/notes.txt"),
		Type:       travelogue.TypeOther,
		Timestamp:  d2,
		SourcePath: "/trip/notes.txt",
	}

	trip, err := tl.AddTrip("Kootenays", []*travelogue.Artifact{track, photo1, photo2, note}, nil)
	require.NoError(t, err)

	return tl, trip
}

func TestDayDocument(t *testing.T) {

	tl, trip := buildTestTravelogue(t)

	days := tl.TripDays(trip.ID)
	require.Len(t, days, 2)

	body, err := DayDocument(tl, days[0])
	require.NoError(t, err)

	// exactly one LineString and two Points, in the day's artifact order
	features := gjson.GetBytes(body, "features").Array()
	require.Len(t, features, 3)

	assert.Equal(t, "LineString", features[0].Get("geometry.type").String())
	assert.Equal(t, "Point", features[1].Get("geometry.type").String())
	assert.Equal(t, "Point", features[2].Get("geometry.type").String())

	assert.Equal(t, "track", features[0].Get("properties.type").String())
	assert.Equal(t, float64(7200), features[0].Get("properties.duration").Float())

	assert.Equal(t, "image", features[1].Get("properties.type").String())
	assert.False(t, features[1].Get("properties.approximated").Bool())
	assert.True(t, features[2].Get("properties.approximated").Bool())

	assert.Equal(t, "2025-06-17T08:00:00Z", features[0].Get("properties.timestamp").String())

	assert.Equal(t, "2025-06-17", gjson.GetBytes(body, "date").String())
	assert.Len(t, gjson.GetBytes(body, "unlocated").Array(), 0)
}

func TestDayDocumentUnlocatedListing(t *testing.T) {

	tl, trip := buildTestTravelogue(t)

	days := tl.TripDays(trip.ID)
	body, err := DayDocument(tl, days[1])
	require.NoError(t, err)

	// the unlocated note has no geometry feature but is not dropped
	assert.Len(t, gjson.GetBytes(body, "features").Array(), 0)

	unlocated := gjson.GetBytes(body, "unlocated").Array()
	require.Len(t, unlocated, 1)
	assert.Equal(t, common.ArtifactID("/trip/notes.txt"), unlocated[0].Get("id").String())
	assert.Equal(t, "other", unlocated[0].Get("type").String())
	assert.Equal(t, "2025-06-18T08:00:00Z", unlocated[0].Get("timestamp").String())
}

func TestDayDocumentWaypointOnlyTrack(t *testing.T) {

	tl := travelogue.NewTravelogue()

	// a waypoints-only GPX file yields a track artifact with Point geometry
	wp := &travelogue.Artifact{
		ID:         common.ArtifactID("/trip/spots.gpx"),
		Type:       travelogue.TypeTrack,
		Timestamp:  time.Date(2025, 6, 17, 9, 0, 0, 0, time.UTC),
		Geometry:   orb.Point{-117.0, 49.0},
		SourcePath: "/trip/spots.gpx",
	}

	_, err := tl.AddTrip("Kootenays", []*travelogue.Artifact{wp}, nil)
	require.NoError(t, err)

	days := tl.MergedDays()
	require.Len(t, days, 1)

	body, err := DayDocument(tl, days[0])
	require.NoError(t, err)

	features := gjson.GetBytes(body, "features").Array()
	require.Len(t, features, 1)

	// point geometry gets the point properties even on a track artifact
	assert.Equal(t, "track", features[0].Get("properties.type").String())
	assert.Equal(t, "Point", features[0].Get("geometry.type").String())
	assert.True(t, features[0].Get("properties.approximated").Exists())
	assert.False(t, features[0].Get("properties.duration").Exists())
}

func TestDayDocumentRoundTrip(t *testing.T) {

	tl, trip := buildTestTravelogue(t)

	days := tl.TripDays(trip.ID)
	body, err := DayDocument(tl, days[0])
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(body)
	require.NoError(t, err)

	require.Len(t, fc.Features, 3)

	_, ok := fc.Features[0].Geometry.(orb.LineString)
	assert.True(t, ok)

	for _, i := range []int{1, 2} {
		_, ok := fc.Features[i].Geometry.(orb.Point)
		assert.True(t, ok)
	}

	assert.Equal(t, "track", fc.Features[0].Properties.MustString("type"))
	assert.Equal(t, "image", fc.Features[1].Properties.MustString("type"))
	assert.Equal(t, "2025-06-17T11:00:00Z", fc.Features[1].Properties.MustString("timestamp"))
	assert.Equal(t, true, fc.Features[2].Properties["approximated"])

	// serialize again: identical document
	again, err := fc.MarshalJSON()
	require.NoError(t, err)

	assert.Equal(t, len(gjson.GetBytes(body, "features").Array()), len(gjson.GetBytes(again, "features").Array()))
}

func TestPublishTrip(t *testing.T) {

	ctx := context.Background()

	tl, trip := buildTestTravelogue(t)

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	p := &Publisher{
		Bucket: bucket,
	}

	cfg, err := p.PublishTrip(ctx, tl, trip)
	require.NoError(t, err)

	assert.Equal(t, "Kootenays", cfg.TripName)
	require.Len(t, cfg.GeoJSONFiles, 2)
	assert.Equal(t, fmt.Sprintf("%s/2025-06-17.geojson", trip.ID), cfg.GeoJSONFiles[0])
	assert.Equal(t, fmt.Sprintf("%s/2025-06-18.geojson", trip.ID), cfg.GeoJSONFiles[1])

	// bbox is [[min lat, min lon], [max lat, max lon]]
	assert.Equal(t, 49.9884, cfg.BBox[0][0])
	assert.Equal(t, -117.3743, cfg.BBox[0][1])
	assert.Equal(t, 49.9950, cfg.BBox[1][0])
	assert.Equal(t, -117.3600, cfg.BBox[1][1])

	for _, key := range cfg.GeoJSONFiles {

		body, err := bucket.ReadAll(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "FeatureCollection", gjson.GetBytes(body, "type").String())
	}

	cfg_body, err := bucket.ReadAll(ctx, fmt.Sprintf("%s/trip.json", trip.ID))
	require.NoError(t, err)

	assert.Equal(t, "Kootenays", gjson.GetBytes(cfg_body, "tripName").String())
	assert.Len(t, gjson.GetBytes(cfg_body, "geojsonFiles").Array(), 2)
}

func TestPublishTripIsolatesFailingDay(t *testing.T) {

	ctx := context.Background()

	tl, trip := buildTestTravelogue(t)

	// corrupt the first day's geometry so its document cannot be
	// marshalled; the second day and the trip config must still land
	a, ok := tl.Artifact(common.ArtifactID("/trip/a.jpg"))
	require.True(t, ok)
	a.Geometry = orb.Point{math.NaN(), math.NaN()}

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	p := &Publisher{
		Bucket: bucket,
	}

	cfg, err := p.PublishTrip(ctx, tl, trip)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-06-17")

	require.NotNil(t, cfg)
	require.Len(t, cfg.GeoJSONFiles, 1)
	assert.Equal(t, fmt.Sprintf("%s/2025-06-18.geojson", trip.ID), cfg.GeoJSONFiles[0])

	exists, err := bucket.Exists(ctx, fmt.Sprintf("%s/2025-06-17.geojson", trip.ID))
	require.NoError(t, err)
	assert.False(t, exists)

	body, err := bucket.ReadAll(ctx, cfg.GeoJSONFiles[0])
	require.NoError(t, err)
	assert.Equal(t, "FeatureCollection", gjson.GetBytes(body, "type").String())

	cfg_body, err := bucket.ReadAll(ctx, fmt.Sprintf("%s/trip.json", trip.ID))
	require.NoError(t, err)
	assert.Len(t, gjson.GetBytes(cfg_body, "geojsonFiles").Array(), 1)
}
