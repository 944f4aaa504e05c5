package conflict

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hoppz/geocache/internal/metadata"
)

// State is the lifecycle position of a user's conflict record.
type State int

const (
	// StateAbsent means no record exists, or the stored one has expired.
	StateAbsent State = iota
	// StatePending means a record exists and no venue has been selected yet.
	StatePending
	// StateResolved means the user selected a venue within the window.
	StateResolved
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	default:
		return "absent"
	}
}

// Record is a user's persisted conflict-resolution record. CandidateVenues is
// ordered ascending by distance, nearest first, which doubles as the default
// selection when the user never answers explicitly.
type Record struct {
	CreatedAt       int64    `json:"createdAt"`
	CandidateVenues []string `json:"candidateVenues"`
	Selected        *string  `json:"selected"`
}

// state classifies the record relative to the freshness window.
func (r *Record) state(window time.Duration, now time.Time) State {
	if r == nil || !metadata.Fresh(time.UnixMilli(r.CreatedAt), window, now) {
		return StateAbsent
	}
	if r.Selected == nil {
		return StatePending
	}
	return StateResolved
}

// encodeRecord renders the record in its persisted JSON form.
func encodeRecord(r Record) (string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", eris.Wrap(err, "conflict: encode record")
	}
	return string(raw), nil
}

// decodeRecord parses a persisted record. Corrupt data surfaces as
// metadata.ErrCorruptField, never as an absent record.
func decodeRecord(value string) (*Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(value), &r); err != nil {
		return nil, eris.Wrapf(metadata.ErrCorruptField, "conflict record %q", value)
	}
	return &r, nil
}
