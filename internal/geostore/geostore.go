package geostore

import "context"

// Namespace identifies one of the geo-indexed key spaces.
type Namespace string

const (
	// UserLocations holds the last known position of each mobile user.
	UserLocations Namespace = "user-locations"
	// EstablishmentLocations holds the fixed position of each venue.
	EstablishmentLocations Namespace = "establishment-locations"
)

// Field tables in the generic scalar namespace.
const (
	TableUserLastUpdated       = "user-last-updated"
	TableEstablishmentGeometry = "establishment-geometry"
	TableConflictResolution    = "conflict-resolution"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchBy bounds a proximity search: either a radius or a height×width box,
// in the given unit ("m", "km", "mi", "ft"). Exactly one of Radius or
// Height/Width should be set.
type SearchBy struct {
	Radius float64 `json:"radius,omitempty"`
	Height float64 `json:"height,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Unit   string  `json:"unit"`
}

// ByRadius builds a radius search bound.
func ByRadius(radius float64, unit string) SearchBy {
	return SearchBy{Radius: radius, Unit: unit}
}

// ByBox builds a rectangular search bound.
func ByBox(height, width float64, unit string) SearchBy {
	return SearchBy{Height: height, Width: width, Unit: unit}
}

// IsBox reports whether the bound is rectangular rather than radial.
func (b SearchBy) IsBox() bool { return b.Radius == 0 && (b.Height > 0 || b.Width > 0) }

// Neighbor is a search hit with its distance from the origin in kilometers.
type Neighbor struct {
	ID         string  `json:"id"`
	DistanceKM float64 `json:"distance_km"`
}

// Store is the geo-indexed key/value store the cache is built on. Any
// implementation must preserve ascending-distance ordered range queries,
// upsert-by-id, and the absent-vs-present distinction on every read.
type Store interface {
	// SetPosition upserts a geo-indexed point. Overwriting an existing id is
	// not an error.
	SetPosition(ctx context.Context, ns Namespace, id string, coords Coordinates) error

	// GetPosition returns the recorded position, or (nil, nil) if the id was
	// never recorded.
	GetPosition(ctx context.Context, ns Namespace, id string) (*Coordinates, error)

	// Search returns ids within bounds of origin, ascending by distance. An
	// empty result is valid.
	Search(ctx context.Context, ns Namespace, origin Coordinates, bounds SearchBy) ([]string, error)

	// SearchWithDistances is Search with each hit's distance in kilometers.
	SearchWithDistances(ctx context.Context, ns Namespace, origin Coordinates, bounds SearchBy) ([]Neighbor, error)

	// Count returns the number of members in a geo namespace.
	Count(ctx context.Context, ns Namespace) (int64, error)

	// RemovePosition deletes a member from a geo namespace. Removing an
	// absent member is not an error.
	RemovePosition(ctx context.Context, ns Namespace, id string) error

	// SetField writes a scalar metadata value. Values are opaque text; the
	// caller owns (de)serialization.
	SetField(ctx context.Context, table, key, value string) error

	// GetField reads a scalar metadata value. ok is false if the field was
	// never written or has been deleted.
	GetField(ctx context.Context, table, key string) (value string, ok bool, err error)

	// DeleteField removes a scalar metadata value. Deleting an absent field
	// is not an error.
	DeleteField(ctx context.Context, table, key string) error

	// Close releases the underlying connection.
	Close() error
}
