package proximity

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppz/geocache/internal/conflict"
	"github.com/hoppz/geocache/internal/geostore"
	"github.com/hoppz/geocache/internal/metadata"
)

type fixture struct {
	store    *geostore.MemoryStore
	meta     *metadata.Cache
	resolver *conflict.Resolver
	queries  *Queries
}

// newFixture wires real components over a memory store.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := geostore.NewMemory()
	meta := metadata.NewCache(store, geostore.ByBox(50, 50, "m"))
	resolver := conflict.NewResolver(store, metadata.DefaultFreshnessWindow)
	q := NewQueries(store, meta, resolver, geostore.SearchBy{}, geostore.SearchBy{}, 0)
	return &fixture{store: store, meta: meta, resolver: resolver, queries: q}
}

func (f *fixture) addUser(t *testing.T, id string, lat, lng float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.SetPosition(ctx, geostore.UserLocations, id, geostore.Coordinates{Latitude: lat, Longitude: lng}))
	require.NoError(t, f.meta.RecordLocationUpdate(ctx, id))
}

func (f *fixture) addVenue(t *testing.T, id string, lat, lng float64) {
	t.Helper()
	require.NoError(t, f.store.SetPosition(context.Background(), geostore.EstablishmentLocations, id,
		geostore.Coordinates{Latitude: lat, Longitude: lng}))
}

func TestQueries_NearestUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, "origin", 30.2672, -97.7431)
	f.addUser(t, "near", 30.2680, -97.7440)   // ~120m
	f.addUser(t, "far", 30.5000, -97.7000)    // ~26km
	f.addUser(t, "remote", 32.7767, -96.7970) // ~290km

	// Default 50km bound.
	ids, ok, err := f.queries.NearestUsers(ctx, "origin", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"origin", "near", "far"}, ids)

	// Explicit tight bound.
	tight := geostore.ByRadius(1, "km")
	ids, ok, err = f.queries.NearestUsers(ctx, "origin", &tight)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"origin", "near"}, ids)

	// Unknown origin is absent, not an error.
	_, ok, err = f.queries.NearestUsers(ctx, "ghost", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueries_NearestVenues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, "u1", 30.2672, -97.7431)
	f.addVenue(t, "v-near", 30.2675, -97.7435)
	f.addVenue(t, "v-mid", 30.2900, -97.7300)
	f.addVenue(t, "v-remote", 32.7767, -96.7970)

	hits, ok, err := f.queries.NearestVenues(ctx, "u1", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, hits, 2)
	assert.Equal(t, "v-near", hits[0].ID)
	assert.Equal(t, "v-mid", hits[1].ID)
	assert.Less(t, hits[0].DistanceKM, hits[1].DistanceKM)

	_, ok, err = f.queries.NearestVenues(ctx, "ghost", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueries_UsersInsideVenue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addVenue(t, "v1", 30.2672, -97.7431)
	require.NoError(t, f.meta.SetGeometry(ctx, "v1", geostore.ByBox(200, 200, "m")))

	// All four users stand inside the footprint.
	f.addUser(t, "u-resolved", 30.2672, -97.7431)
	f.addUser(t, "u-pending", 30.2673, -97.7432)
	f.addUser(t, "u-elsewhere", 30.2671, -97.7430)
	f.addUser(t, "u-unresolved", 30.2674, -97.7431)

	mustResolve := func(userID, venueID string) {
		opened, err := f.resolver.Open(ctx, userID, []string{venueID})
		require.NoError(t, err)
		require.True(t, opened)
		require.NoError(t, f.resolver.Resolve(ctx, userID, venueID))
	}
	mustResolve("u-resolved", "v1")
	mustResolve("u-elsewhere", "v2")
	_, err := f.resolver.Open(ctx, "u-pending", []string{"v1"})
	require.NoError(t, err)

	// Only the user who resolved to this venue counts as inside; geographic
	// proximity alone never does.
	inside, err := f.queries.UsersInsideVenue(ctx, "v1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u-resolved"}, inside)

	// Unknown venue yields empty, not an error.
	inside, err = f.queries.UsersInsideVenue(ctx, "ghost", 0)
	require.NoError(t, err)
	assert.Empty(t, inside)
}

func TestQueries_UsersInsideVenue_StalePresence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addVenue(t, "v1", 30.2672, -97.7431)
	f.addUser(t, "u1", 30.2672, -97.7431)
	opened, err := f.resolver.Open(ctx, "u1", []string{"v1"})
	require.NoError(t, err)
	require.True(t, opened)
	require.NoError(t, f.resolver.Resolve(ctx, "u1", "v1"))

	inside, err := f.queries.UsersInsideVenue(ctx, "v1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, inside)

	// Age the user's last location write past a narrow window. The conflict
	// record is still live, but stale presence drops them from the result.
	stale := time.Now().Add(-10 * time.Minute)
	require.NoError(t, f.store.SetField(ctx, geostore.TableUserLastUpdated, "u1",
		strconv.FormatInt(stale.UnixMilli(), 10)))
	inside, err = f.queries.UsersInsideVenue(ctx, "v1", 5*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, inside)
}

func TestQueries_UsersInsideVenue_DefaultGeometry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// No cached footprint: the 50m default box applies.
	f.addVenue(t, "v1", 30.2672, -97.7431)
	f.addUser(t, "u-inside", 30.2672, -97.7431)
	f.addUser(t, "u-outside", 30.2700, -97.7431) // ~300m north

	for _, userID := range []string{"u-inside", "u-outside"} {
		opened, err := f.resolver.Open(ctx, userID, []string{"v1"})
		require.NoError(t, err)
		require.True(t, opened)
		require.NoError(t, f.resolver.Resolve(ctx, userID, "v1"))
	}

	inside, err := f.queries.UsersInsideVenue(ctx, "v1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u-inside"}, inside)
}

func TestQueries_DistanceBetween(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, "u1", 30.2672, -97.7431)
	f.addVenue(t, "v1", 32.7767, -96.7970)

	d1, ok, err := f.queries.DistanceBetween(ctx, UserEntity("u1"), VenueEntity("v1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 290, d1, 10)

	d2, ok, err := f.queries.DistanceBetween(ctx, VenueEntity("v1"), UserEntity("u1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, d1, d2, 1e-9, "distance is symmetric")

	_, ok, err = f.queries.DistanceBetween(ctx, UserEntity("u1"), VenueEntity("ghost"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueries_UsersNearVenue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addVenue(t, "v1", 30.2672, -97.7431)
	f.addUser(t, "u-near", 30.2680, -97.7440) // ~120m
	f.addUser(t, "u-20km", 30.4300, -97.7000) // ~18km
	f.addUser(t, "u-far", 32.7767, -96.7970)  // ~290km

	// Default 25km fan-out, no conflict filtering.
	ids, ok, err := f.queries.UsersNearVenue(ctx, "v1", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"u-near", "u-20km"}, ids)

	_, ok, err = f.queries.UsersNearVenue(ctx, "ghost", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
