package metadata

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hoppz/geocache/internal/geostore"
	"github.com/hoppz/geocache/internal/venues"
)

// ErrImportInProgress is returned when a bulk import is started while another
// one is still running on the same handle.
var ErrImportInProgress = eris.New("metadata: bulk import already in progress")

// importConcurrency bounds parallel venue writes during bulk import.
const importConcurrency = 16

// Cache provides typed access to the scalar metadata the geo index cannot
// hold: per-user last-updated timestamps and per-venue footprints. It also
// owns the bulk import of venue master data into the geo index.
type Cache struct {
	store           geostore.Store
	defaultGeometry geostore.SearchBy
	now             func() time.Time
	importing       atomic.Bool
}

// NewCache creates a Cache. defaultGeometry is persisted for venues whose
// master record carries no footprint.
func NewCache(store geostore.Store, defaultGeometry geostore.SearchBy) *Cache {
	return &Cache{
		store:           store,
		defaultGeometry: defaultGeometry,
		now:             time.Now,
	}
}

// RecordLocationUpdate stamps the user's last-updated timestamp with the
// current time.
func (c *Cache) RecordLocationUpdate(ctx context.Context, userID string) error {
	return c.store.SetField(ctx, geostore.TableUserLastUpdated, userID, encodeMillis(c.now()))
}

// LastUpdated returns the user's most recent location-write timestamp.
// ok is false if the user never recorded a location.
func (c *Cache) LastUpdated(ctx context.Context, userID string) (time.Time, bool, error) {
	value, ok, err := c.store.GetField(ctx, geostore.TableUserLastUpdated, userID)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := decodeMillis(value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// ClearLastUpdated removes the user's last-updated timestamp.
func (c *Cache) ClearLastUpdated(ctx context.Context, userID string) error {
	return c.store.DeleteField(ctx, geostore.TableUserLastUpdated, userID)
}

// Geometry returns the cached footprint for a venue, or (nil, nil) on a cache
// miss. A miss is healed by bulk import, not by this accessor.
func (c *Cache) Geometry(ctx context.Context, venueID string) (*geostore.SearchBy, error) {
	value, ok, err := c.store.GetField(ctx, geostore.TableEstablishmentGeometry, venueID)
	if err != nil || !ok {
		return nil, err
	}
	g, err := decodeGeometry(value)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// SetGeometry persists a venue footprint.
func (c *Cache) SetGeometry(ctx context.Context, venueID string, g geostore.SearchBy) error {
	encoded, err := encodeGeometry(g)
	if err != nil {
		return err
	}
	return c.store.SetField(ctx, geostore.TableEstablishmentGeometry, venueID, encoded)
}

// DefaultGeometry returns the footprint used when a venue has none cached.
func (c *Cache) DefaultGeometry() geostore.SearchBy { return c.defaultGeometry }

// isFloatAnomaly matches the store's lenient bulk geo-insert failure mode,
// which must be downgraded to a warning rather than failing the import.
func isFloatAnomaly(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not a valid float")
}

// BulkImportVenues loads every venue from the master store into the geo index
// and persists its footprint (or the default). Returns the number of venues
// written. Only one import may run on a handle at a time.
func (c *Cache) BulkImportVenues(ctx context.Context, master venues.MasterStore) (int, error) {
	if !c.importing.CompareAndSwap(false, true) {
		return 0, ErrImportInProgress
	}
	defer c.importing.Store(false)

	list, err := master.ListVenues(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "metadata: pull venue snapshot")
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)
	for _, venue := range list {
		g.Go(func() error {
			geometry := c.defaultGeometry
			if venue.Geometry != nil {
				geometry = *venue.Geometry
			}
			if err := c.SetGeometry(gctx, venue.ID, geometry); err != nil {
				return err
			}
			if err := c.store.SetPosition(gctx, geostore.EstablishmentLocations, venue.ID, venue.Position); err != nil {
				if isFloatAnomaly(err) {
					zap.L().Warn("metadata: lenient float response on geo insert",
						zap.String("venue_id", venue.ID),
						zap.Error(err),
					)
				} else {
					return err
				}
			}
			written.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(written.Load()), eris.Wrap(err, "metadata: bulk import")
	}

	zap.L().Info("metadata: venue import complete", zap.Int64("written", written.Load()))
	return int(written.Load()), nil
}

// FullyCached reports whether the geo index holds exactly as many venues as
// the master store. Any drift, including deletions upstream, reads as false.
func (c *Cache) FullyCached(ctx context.Context, master venues.MasterStore) (bool, error) {
	cached, err := c.store.Count(ctx, geostore.EstablishmentLocations)
	if err != nil {
		return false, err
	}
	saved, err := master.CountVenues(ctx)
	if err != nil {
		return false, eris.Wrap(err, "metadata: count master venues")
	}
	return cached == saved, nil
}
