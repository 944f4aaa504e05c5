package geostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	downtown = Coordinates{Latitude: 30.2672, Longitude: -97.7431}
	campus   = Coordinates{Latitude: 30.2849, Longitude: -97.7341} // ~2.1km from downtown
	airport  = Coordinates{Latitude: 30.1975, Longitude: -97.6664} // ~10.5km from downtown
	dallas   = Coordinates{Latitude: 32.7767, Longitude: -96.7970} // ~290km from downtown
)

func seedUsers(t *testing.T, s *MemoryStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SetPosition(ctx, UserLocations, "u-downtown", downtown))
	require.NoError(t, s.SetPosition(ctx, UserLocations, "u-campus", campus))
	require.NoError(t, s.SetPosition(ctx, UserLocations, "u-airport", airport))
	require.NoError(t, s.SetPosition(ctx, UserLocations, "u-dallas", dallas))
}

func TestMemoryStore_PositionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	// Never-recorded id is absent, not an error.
	got, err := s.GetPosition(ctx, UserLocations, "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SetPosition(ctx, UserLocations, "u1", downtown))
	got, err = s.GetPosition(ctx, UserLocations, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, downtown, *got)

	// Upsert overwrites in place.
	require.NoError(t, s.SetPosition(ctx, UserLocations, "u1", campus))
	got, err = s.GetPosition(ctx, UserLocations, "u1")
	require.NoError(t, err)
	assert.Equal(t, campus, *got)

	n, err := s.Count(ctx, UserLocations)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// Namespaces are disjoint.
	got, err = s.GetPosition(ctx, EstablishmentLocations, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.RemovePosition(ctx, UserLocations, "u1"))
	got, err = s.GetPosition(ctx, UserLocations, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Removing an absent member is a no-op.
	require.NoError(t, s.RemovePosition(ctx, UserLocations, "u1"))
}

func TestMemoryStore_SearchRadius(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	seedUsers(t, s)

	ids, err := s.Search(ctx, UserLocations, downtown, ByRadius(15, "km"))
	require.NoError(t, err)
	assert.Equal(t, []string{"u-downtown", "u-campus", "u-airport"}, ids,
		"results ordered ascending by distance")

	// Tight radius excludes everything but the origin member.
	ids, err = s.Search(ctx, UserLocations, downtown, ByRadius(500, "m"))
	require.NoError(t, err)
	assert.Equal(t, []string{"u-downtown"}, ids)

	// Empty result is valid.
	ids, err = s.Search(ctx, UserLocations, Coordinates{Latitude: 0, Longitude: 0}, ByRadius(1, "km"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryStore_SearchWithDistances(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	seedUsers(t, s)

	hits, err := s.SearchWithDistances(ctx, UserLocations, downtown, ByRadius(400, "km"))
	require.NoError(t, err)
	require.Len(t, hits, 4)

	assert.Equal(t, "u-downtown", hits[0].ID)
	assert.InDelta(t, 0, hits[0].DistanceKM, 0.001)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i].DistanceKM, hits[i-1].DistanceKM,
			"distances must be non-decreasing")
	}
	assert.Equal(t, "u-dallas", hits[3].ID)
	assert.InDelta(t, 290, hits[3].DistanceKM, 10)
}

func TestMemoryStore_SearchBox(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	seedUsers(t, s)

	// A 5km×5km box around downtown covers campus but not the airport.
	ids, err := s.Search(ctx, UserLocations, downtown, ByBox(5, 5, "km"))
	require.NoError(t, err)
	assert.Equal(t, []string{"u-downtown", "u-campus"}, ids)

	// A 50m×50m venue-footprint box only holds a member at the origin itself.
	ids, err = s.Search(ctx, UserLocations, downtown, ByBox(50, 50, "m"))
	require.NoError(t, err)
	assert.Equal(t, []string{"u-downtown"}, ids)
}

func TestMemoryStore_Fields(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, ok, err := s.GetField(ctx, TableUserLastUpdated, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetField(ctx, TableUserLastUpdated, "u1", "1234"))
	v, ok, err := s.GetField(ctx, TableUserLastUpdated, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1234", v)

	// Tables are disjoint.
	_, ok, err = s.GetField(ctx, TableConflictResolution, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.DeleteField(ctx, TableUserLastUpdated, "u1"))
	_, ok, err = s.GetField(ctx, TableUserLastUpdated, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent field is a no-op.
	require.NoError(t, s.DeleteField(ctx, TableUserLastUpdated, "u1"))
}
