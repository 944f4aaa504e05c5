package metadata

import "time"

// DefaultFreshnessWindow bounds how old a recorded timestamp may be and still
// count as current, for both presence and conflict records.
const DefaultFreshnessWindow = 3 * time.Hour

// Fresh reports whether a timestamp recorded at `at` is still within `window`
// as of `now`. Every freshness decision in the cache goes through here so the
// window cannot drift between call sites.
func Fresh(at time.Time, window time.Duration, now time.Time) bool {
	return now.Sub(at) <= window
}
