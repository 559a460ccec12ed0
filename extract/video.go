package extract

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"time"

	mp4 "github.com/abema/go-mp4"
	"github.com/paulmach/orb"

	"github.com/billmerrill/highlights/travelogue"
)

// iso6709_re matches the Apple QuickTime location string, e.g.
// "+49.9884-117.3743+000.000/". The third (altitude) group is ignored.
var iso6709_re = regexp.MustCompile(`^([+-]\d+(?:\.\d+)?)([+-]\d+(?:\.\d+)?)`)

// mp4 epochs start at 1904-01-01 rather than 1970-01-01
var quicktime_epoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	quicktime_location_key = "com.apple.quicktime.location.ISO6709"
	quicktime_creation_key = "com.apple.quicktime.creationdate"
)

// VideoExtractor reads timestamp and location from MP4/QuickTime
// containers. It prefers the com.apple.quicktime metadata keys written by
// iPhones and falls back to the movie header's creation time. Absence of a
// location is not an error.
type VideoExtractor struct{}

func (x *VideoExtractor) Extract(ctx context.Context, path string) (*Metadata, error) {

	fh, err := os.Open(path)

	if err != nil {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "unreadable file",
			Err:    err,
		}
	}

	defer fh.Close()

	m := &Metadata{
		Type: travelogue.TypeVideo,
	}

	keys, err := readQuickTimeKeys(fh)

	if err != nil {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "corrupt container",
			Err:    err,
		}
	}

	if loc, ok := keys[quicktime_location_key]; ok {

		lat, lon, err := ParseISO6709(loc)

		if err == nil {
			m.Geometry = orb.Point{lon, lat}
		}
	}

	if created, ok := keys[quicktime_creation_key]; ok {

		t, err := parseQuickTimeDate(created)

		if err == nil {
			m.Timestamp = t
		}
	}

	created, duration, err := readMovieHeader(fh)

	if err == nil {

		m.Duration = duration

		if m.Timestamp.IsZero() {
			m.Timestamp = created
		}
	}

	if m.Timestamp.IsZero() {
		return nil, &ExtractionError{
			Path:   path,
			Reason: "container has no creation time",
			Err:    ErrMissingTimestamp,
		}
	}

	return m, nil
}

// ParseISO6709 parses the latitude and longitude out of an ISO 6709
// location string of the form "+DD.DDDD(+|-)DDD.DDDD(+|-)AAA.AAA/".
func ParseISO6709(raw string) (float64, float64, error) {

	match := iso6709_re.FindStringSubmatch(raw)

	if match == nil {
		return 0, 0, fmt.Errorf("Failed to parse ISO 6709 location '%s'", raw)
	}

	lat, err := strconv.ParseFloat(match[1], 64)

	if err != nil {
		return 0, 0, fmt.Errorf("Failed to parse latitude '%s', %w", match[1], err)
	}

	lon, err := strconv.ParseFloat(match[2], 64)

	if err != nil {
		return 0, 0, fmt.Errorf("Failed to parse longitude '%s', %w", match[2], err)
	}

	return lat, lon, nil
}

// parseQuickTimeDate parses com.apple.quicktime.creationdate values, which
// are RFC 3339 with or without a colon in the zone offset.
func parseQuickTimeDate(raw string) (time.Time, error) {

	t, err := time.Parse(time.RFC3339, raw)

	if err == nil {
		return t, nil
	}

	return time.Parse("2006-01-02T15:04:05-0700", raw)
}

// readQuickTimeKeys collects the moov/meta keys/ilst metadata into a map of
// key name to string value. Files with no metadata atoms yield an empty
// map, not an error.
func readQuickTimeKeys(r io.ReadSeeker) (map[string]string, error) {

	values := make(map[string]string)

	keys_boxes, err := mp4.ExtractBoxWithPayload(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMeta(), mp4.BoxTypeKeys()})

	if err != nil {
		return nil, fmt.Errorf("Failed to read keys box, %w", err)
	}

	if len(keys_boxes) == 0 {
		return values, nil
	}

	keys, ok := keys_boxes[0].Payload.(*mp4.Keys)

	if !ok {
		return values, nil
	}

	items, err := mp4.ExtractBox(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMeta(), mp4.BoxTypeIlst(), mp4.BoxTypeAny()})

	if err != nil {
		return nil, fmt.Errorf("Failed to read ilst box, %w", err)
	}

	for _, item := range items {

		// ilst item box types are 1-based big-endian indexes into the
		// keys box entries
		idx := binary.BigEndian.Uint32(item.Type[:])

		if idx == 0 || int(idx) > len(keys.Entries) {
			continue
		}

		data_boxes, err := mp4.ExtractBoxWithPayload(r, item, mp4.BoxPath{mp4.BoxTypeData()})

		if err != nil || len(data_boxes) == 0 {
			continue
		}

		data, ok := data_boxes[0].Payload.(*mp4.Data)

		if !ok {
			continue
		}

		name := string(keys.Entries[idx-1].KeyValue)
		values[name] = string(data.Data)
	}

	return values, nil
}

// readMovieHeader returns the creation time and duration recorded in the
// moov/mvhd box. A header with no creation time yields a zero time rather
// than an error; the duration is still usable.
func readMovieHeader(r io.ReadSeeker) (time.Time, time.Duration, error) {

	boxes, err := mp4.ExtractBoxWithPayload(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})

	if err != nil {
		return time.Time{}, 0, fmt.Errorf("Failed to read mvhd box, %w", err)
	}

	if len(boxes) == 0 {
		return time.Time{}, 0, fmt.Errorf("Missing mvhd box")
	}

	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)

	if !ok {
		return time.Time{}, 0, fmt.Errorf("Unexpected mvhd payload")
	}

	var created_secs uint64
	var duration_units uint64

	if mvhd.GetVersion() == 0 {
		created_secs = uint64(mvhd.CreationTimeV0)
		duration_units = uint64(mvhd.DurationV0)
	} else {
		created_secs = mvhd.CreationTimeV1
		duration_units = mvhd.DurationV1
	}

	var created time.Time

	if created_secs > 0 {
		created = quicktime_epoch.Add(time.Duration(created_secs) * time.Second)
	}

	var duration time.Duration

	if mvhd.Timescale > 0 {
		duration = time.Duration(duration_units) * time.Second / time.Duration(mvhd.Timescale)
	}

	return created, duration, nil
}
