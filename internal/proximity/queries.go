package proximity

import (
	"context"
	"time"

	"github.com/hoppz/geocache/internal/conflict"
	"github.com/hoppz/geocache/internal/geostore"
	"github.com/hoppz/geocache/internal/metadata"
)

// Defaults for query bounds, overridable per call and via config.
var (
	DefaultUserSearch  = geostore.ByRadius(50, "km")
	DefaultNotifRadius = geostore.ByRadius(25, "km")
)

// Entity names a geo-indexed member for pairwise distance queries.
type Entity struct {
	Namespace geostore.Namespace
	ID        string
}

// UserEntity references a user position.
func UserEntity(id string) Entity {
	return Entity{Namespace: geostore.UserLocations, ID: id}
}

// VenueEntity references a venue position.
func VenueEntity(id string) Entity {
	return Entity{Namespace: geostore.EstablishmentLocations, ID: id}
}

// Queries is the public read API over the geo index. Results that depend on
// an origin entity report ok=false when that entity has no recorded
// position; that is a valid absent state, not an error.
type Queries struct {
	store       geostore.Store
	meta        *metadata.Cache
	resolver    *conflict.Resolver
	userSearch  geostore.SearchBy
	notifRadius geostore.SearchBy
	freshness   time.Duration
	now         func() time.Time
}

// NewQueries creates Queries with the given defaults. Zero-valued bounds and
// window fall back to the package defaults.
func NewQueries(store geostore.Store, meta *metadata.Cache, resolver *conflict.Resolver, userSearch, notifRadius geostore.SearchBy, freshness time.Duration) *Queries {
	if userSearch == (geostore.SearchBy{}) {
		userSearch = DefaultUserSearch
	}
	if notifRadius == (geostore.SearchBy{}) {
		notifRadius = DefaultNotifRadius
	}
	if freshness == 0 {
		freshness = metadata.DefaultFreshnessWindow
	}
	return &Queries{
		store:       store,
		meta:        meta,
		resolver:    resolver,
		userSearch:  userSearch,
		notifRadius: notifRadius,
		freshness:   freshness,
		now:         time.Now,
	}
}

// NearestUsers returns user ids within bounds of the given user, ascending by
// distance. ok is false when the origin user has no recorded position. A nil
// bounds uses the default user search radius.
func (q *Queries) NearestUsers(ctx context.Context, userID string, bounds *geostore.SearchBy) ([]string, bool, error) {
	origin, err := q.store.GetPosition(ctx, geostore.UserLocations, userID)
	if err != nil || origin == nil {
		return nil, false, err
	}
	by := q.userSearch
	if bounds != nil {
		by = *bounds
	}
	ids, err := q.store.Search(ctx, geostore.UserLocations, *origin, by)
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

// NearestVenues returns venues within bounds of the given user with their
// distance in kilometers, ascending. ok is false when the origin user has no
// recorded position.
func (q *Queries) NearestVenues(ctx context.Context, userID string, bounds *geostore.SearchBy) ([]geostore.Neighbor, bool, error) {
	origin, err := q.store.GetPosition(ctx, geostore.UserLocations, userID)
	if err != nil || origin == nil {
		return nil, false, err
	}
	by := q.userSearch
	if bounds != nil {
		by = *bounds
	}
	neighbors, err := q.store.SearchWithDistances(ctx, geostore.EstablishmentLocations, *origin, by)
	if err != nil {
		return nil, false, err
	}
	return neighbors, true, nil
}

// UsersInsideVenue returns users geographically within the venue's footprint
// whose position is fresh within window and whose resolved conflict selection
// names this venue. Geographic proximity alone never counts as "inside";
// conflict resolution is the authority. A zero window uses the default
// freshness window.
func (q *Queries) UsersInsideVenue(ctx context.Context, venueID string, window time.Duration) ([]string, error) {
	if window == 0 {
		window = q.freshness
	}

	origin, err := q.store.GetPosition(ctx, geostore.EstablishmentLocations, venueID)
	if err != nil || origin == nil {
		return nil, err
	}

	geometry, err := q.meta.Geometry(ctx, venueID)
	if err != nil {
		return nil, err
	}
	by := q.meta.DefaultGeometry()
	if geometry != nil {
		by = *geometry
	}

	nearby, err := q.store.Search(ctx, geostore.UserLocations, *origin, by)
	if err != nil {
		return nil, err
	}

	now := q.now()
	var inside []string
	for _, userID := range nearby {
		updatedAt, ok, err := q.meta.LastUpdated(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !ok || !metadata.Fresh(updatedAt, window, now) {
			continue
		}
		selected, ok, err := q.resolver.CurrentSelection(ctx, userID)
		if err != nil {
			return nil, err
		}
		if ok && selected == venueID {
			inside = append(inside, userID)
		}
	}
	return inside, nil
}

// DistanceBetween returns the great-circle distance between two entities in
// kilometers. ok is false when either entity has no recorded position.
func (q *Queries) DistanceBetween(ctx context.Context, a, b Entity) (float64, bool, error) {
	posA, err := q.store.GetPosition(ctx, a.Namespace, a.ID)
	if err != nil || posA == nil {
		return 0, false, err
	}
	posB, err := q.store.GetPosition(ctx, b.Namespace, b.ID)
	if err != nil || posB == nil {
		return 0, false, err
	}
	km := geostore.HaversineKM(posA.Latitude, posA.Longitude, posB.Latitude, posB.Longitude)
	return km, true, nil
}

// UsersNearVenue returns user ids within the notification fan-out radius of a
// venue, unfiltered by conflict state. ok is false when the venue has no
// recorded position. A nil bounds uses the default fan-out radius.
func (q *Queries) UsersNearVenue(ctx context.Context, venueID string, bounds *geostore.SearchBy) ([]string, bool, error) {
	origin, err := q.store.GetPosition(ctx, geostore.EstablishmentLocations, venueID)
	if err != nil || origin == nil {
		return nil, false, err
	}
	by := q.notifRadius
	if bounds != nil {
		by = *bounds
	}
	ids, err := q.store.Search(ctx, geostore.UserLocations, *origin, by)
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}
