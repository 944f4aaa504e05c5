package geostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKM(t *testing.T) {
	// Austin (30.2672, -97.7431) to Dallas (32.7767, -96.7970) ≈ 290km.
	d := HaversineKM(30.2672, -97.7431, 32.7767, -96.7970)
	assert.InDelta(t, 290, d, 10, "Austin-Dallas should be ~290km")

	// Same point is zero.
	assert.InDelta(t, 0, HaversineKM(30.0, -97.0, 30.0, -97.0), 0.001)
}

func TestHaversineKM_Symmetric(t *testing.T) {
	ab := HaversineKM(40.7128, -74.0060, 51.5074, -0.1278)
	ba := HaversineKM(51.5074, -0.1278, 40.7128, -74.0060)
	assert.InDelta(t, ab, ba, 1e-9)
}

func TestToKM(t *testing.T) {
	assert.InDelta(t, 1, toKM(1000, "m"), 1e-9)
	assert.InDelta(t, 5, toKM(5, "km"), 1e-9)
	assert.InDelta(t, 1.609344, toKM(1, "mi"), 1e-9)
	assert.InDelta(t, 0.3048, toKM(1000, "ft"), 1e-6)

	// Unknown unit falls back to meters.
	assert.InDelta(t, 0.05, toKM(50, ""), 1e-9)
}

func TestSearchBy_IsBox(t *testing.T) {
	assert.True(t, ByBox(50, 50, "m").IsBox())
	assert.False(t, ByRadius(50, "m").IsBox())
	assert.False(t, (SearchBy{}).IsBox())
}
