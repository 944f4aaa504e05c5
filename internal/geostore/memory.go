package geostore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/twpayne/go-geom"
)

// kmPerDegreeLat is the meridian arc length of one degree of latitude.
const kmPerDegreeLat = math.Pi * earthRadiusKM / 180

// MemoryStore is an in-process Store for tests and embedded deployments.
// Searches are brute-force over the namespace, which is fine at the member
// counts the cache holds in a single process.
type MemoryStore struct {
	mu        sync.RWMutex
	positions map[Namespace]map[string]Coordinates
	fields    map[string]map[string]string
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		positions: make(map[Namespace]map[string]Coordinates),
		fields:    make(map[string]map[string]string),
	}
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// SetPosition implements Store.
func (s *MemoryStore) SetPosition(_ context.Context, ns Namespace, id string, coords Coordinates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.positions[ns] == nil {
		s.positions[ns] = make(map[string]Coordinates)
	}
	s.positions[ns][id] = coords
	return nil
}

// GetPosition implements Store.
func (s *MemoryStore) GetPosition(_ context.Context, ns Namespace, id string) (*Coordinates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coords, ok := s.positions[ns][id]
	if !ok {
		return nil, nil
	}
	return &coords, nil
}

// boxBounds converts a height×width box centered on origin into lat/lng
// bounds. Longitude degrees shrink with latitude.
func boxBounds(origin Coordinates, by SearchBy) *geom.Bounds {
	halfHeightDeg := toKM(by.Height, by.Unit) / 2 / kmPerDegreeLat
	kmPerDegreeLng := kmPerDegreeLat * math.Cos(origin.Latitude*math.Pi/180)
	halfWidthDeg := toKM(by.Width, by.Unit) / 2 / kmPerDegreeLng
	return geom.NewBounds(geom.XY).Set(
		origin.Longitude-halfWidthDeg, origin.Latitude-halfHeightDeg,
		origin.Longitude+halfWidthDeg, origin.Latitude+halfHeightDeg,
	)
}

// search collects matching members sorted ascending by distance.
func (s *MemoryStore) search(ns Namespace, origin Coordinates, bounds SearchBy) []Neighbor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var box *geom.Bounds
	var radiusKM float64
	if bounds.IsBox() {
		box = boxBounds(origin, bounds)
	} else {
		radiusKM = toKM(bounds.Radius, bounds.Unit)
	}

	var hits []Neighbor
	for id, coords := range s.positions[ns] {
		dist := HaversineKM(origin.Latitude, origin.Longitude, coords.Latitude, coords.Longitude)
		if box != nil {
			if !box.OverlapsPoint(geom.XY, geom.Coord{coords.Longitude, coords.Latitude}) {
				continue
			}
		} else if dist > radiusKM {
			continue
		}
		hits = append(hits, Neighbor{ID: id, DistanceKM: dist})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKM != hits[j].DistanceKM {
			return hits[i].DistanceKM < hits[j].DistanceKM
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

// Search implements Store.
func (s *MemoryStore) Search(_ context.Context, ns Namespace, origin Coordinates, bounds SearchBy) ([]string, error) {
	hits := s.search(ns, origin, bounds)
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// SearchWithDistances implements Store.
func (s *MemoryStore) SearchWithDistances(_ context.Context, ns Namespace, origin Coordinates, bounds SearchBy) ([]Neighbor, error) {
	return s.search(ns, origin, bounds), nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, ns Namespace) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.positions[ns])), nil
}

// RemovePosition implements Store.
func (s *MemoryStore) RemovePosition(_ context.Context, ns Namespace, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.positions[ns], id)
	return nil
}

// SetField implements Store.
func (s *MemoryStore) SetField(_ context.Context, table, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fields[table] == nil {
		s.fields[table] = make(map[string]string)
	}
	s.fields[table][key] = value
	return nil
}

// GetField implements Store.
func (s *MemoryStore) GetField(_ context.Context, table, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.fields[table][key]
	return value, ok, nil
}

// DeleteField implements Store.
func (s *MemoryStore) DeleteField(_ context.Context, table, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fields[table], key)
	return nil
}
