package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFresh(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	window := 3 * time.Hour

	assert.True(t, Fresh(at, window, at), "just written is fresh")
	assert.True(t, Fresh(at, window, at.Add(window-time.Millisecond)), "inside the window")
	assert.True(t, Fresh(at, window, at.Add(window)), "exactly at the window edge")
	assert.False(t, Fresh(at, window, at.Add(window+time.Millisecond)), "just past the window")

	// A timestamp from the future still counts as fresh.
	assert.True(t, Fresh(at.Add(time.Minute), window, at))
}
