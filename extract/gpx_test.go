package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmerrill/highlights/travelogue"
)

const gpx_single_segment = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Morning ride</name>
    <trkseg>
      <trkpt lat="49.9884" lon="-117.3743"><time>2025-06-17T08:45:03Z</time></trkpt>
      <trkpt lat="49.9900" lon="-117.3700"><time>2025-06-17T09:15:03Z</time></trkpt>
      <trkpt lat="49.9950" lon="-117.3600"><time>2025-06-17T09:45:03Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>`

const gpx_multi_segment = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <trkseg>
      <trkpt lat="49.0" lon="-117.0"><time>2025-06-17T08:00:00Z</time></trkpt>
      <trkpt lat="49.1" lon="-117.1"><time>2025-06-17T09:00:00Z</time></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="49.2" lon="-117.2"><time>2025-06-17T10:00:00Z</time></trkpt>
      <trkpt lat="49.3" lon="-117.3"><time>2025-06-17T11:00:00Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>`

const gpx_no_times = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <trkseg>
      <trkpt lat="49.0" lon="-117.0"></trkpt>
      <trkpt lat="49.1" lon="-117.1"></trkpt>
    </trkseg>
  </trk>
</gpx>`

func writeFixture(t *testing.T, name string, body string) string {

	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(body), 0644)
	require.NoError(t, err)

	return path
}

func TestGPXExtractorSingleSegment(t *testing.T) {

	ctx := context.Background()
	path := writeFixture(t, "ride.gpx", gpx_single_segment)

	x := &GPXExtractor{}
	m, err := x.Extract(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, travelogue.TypeTrack, m.Type)
	assert.Equal(t, time.Date(2025, 6, 17, 8, 45, 3, 0, time.UTC), m.Timestamp.UTC())
	assert.Equal(t, time.Hour, m.Duration)
	assert.False(t, m.TimestampIsFallback)

	ls, ok := m.Geometry.(orb.LineString)
	require.True(t, ok, "single segment should collapse to a LineString")
	require.Len(t, ls, 3)
	assert.Equal(t, orb.Point{-117.3743, 49.9884}, ls[0])
	assert.Equal(t, orb.Point{-117.3600, 49.9950}, ls[2])
}

func TestGPXExtractorMultiSegment(t *testing.T) {

	ctx := context.Background()
	path := writeFixture(t, "ride.gpx", gpx_multi_segment)

	x := &GPXExtractor{}
	m, err := x.Extract(ctx, path)
	require.NoError(t, err)

	mls, ok := m.Geometry.(orb.MultiLineString)
	require.True(t, ok, "multiple segments should become one MultiLineString, not separate artifacts")
	require.Len(t, mls, 2)
	assert.Equal(t, orb.Point{-117.3, 49.3}, mls[1][1])

	assert.Equal(t, 3*time.Hour, m.Duration)
}

func TestGPXExtractorNoTimes(t *testing.T) {

	ctx := context.Background()
	path := writeFixture(t, "ride.gpx", gpx_no_times)

	x := &GPXExtractor{}
	_, err := x.Extract(ctx, path)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTimestamp)

	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, path, ee.Path)
}

func TestGPXExtractorMalformed(t *testing.T) {

	ctx := context.Background()
	path := writeFixture(t, "ride.gpx", "<gpx><trk><trkseg>")

	x := &GPXExtractor{}
	_, err := x.Extract(ctx, path)

	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.False(t, errors.Is(err, ErrMissingTimestamp))
}
