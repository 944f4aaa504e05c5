package metadata

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hoppz/geocache/internal/geostore"
)

// ErrCorruptField marks a metadata value that exists but cannot be decoded.
// Distinct from absent: the read fails, the caller must not treat the value
// as missing.
var ErrCorruptField = eris.New("metadata: corrupt field")

// encodeMillis renders a timestamp as epoch milliseconds, the store's text
// encoding for all timestamps.
func encodeMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// decodeMillis parses an epoch-milliseconds field value.
func decodeMillis(value string) (time.Time, error) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, eris.Wrapf(ErrCorruptField, "timestamp %q", value)
	}
	return time.UnixMilli(ms), nil
}

// encodeGeometry renders a venue footprint as its persisted JSON form,
// either {height,width,unit} or {radius,unit}.
func encodeGeometry(g geostore.SearchBy) (string, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return "", eris.Wrap(err, "metadata: encode geometry")
	}
	return string(raw), nil
}

// decodeGeometry parses a persisted venue footprint.
func decodeGeometry(value string) (geostore.SearchBy, error) {
	var g geostore.SearchBy
	if err := json.Unmarshal([]byte(value), &g); err != nil {
		return geostore.SearchBy{}, eris.Wrapf(ErrCorruptField, "geometry %q", value)
	}
	if g.Unit == "" || (g.Radius == 0 && g.Height == 0 && g.Width == 0) {
		return geostore.SearchBy{}, eris.Wrapf(ErrCorruptField, "geometry %q missing bounds", value)
	}
	return g, nil
}
