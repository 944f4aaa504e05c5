package geocache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hoppz/geocache/internal/checkin"
	"github.com/hoppz/geocache/internal/conflict"
	"github.com/hoppz/geocache/internal/geostore"
	"github.com/hoppz/geocache/internal/metadata"
	"github.com/hoppz/geocache/internal/notify"
	"github.com/hoppz/geocache/internal/proximity"
	"github.com/hoppz/geocache/internal/venues"
)

// Options tunes the cache's radii and windows. Zero values fall back to the
// documented defaults.
type Options struct {
	CheckInRadius   geostore.SearchBy
	DefaultGeometry geostore.SearchBy
	UserSearch      geostore.SearchBy
	NotifRadius     geostore.SearchBy
	FreshnessWindow time.Duration
	ConflictWindow  time.Duration
	DirectoryTTL    time.Duration
}

// Service is the composition root: it owns the store handle and wires the
// metadata cache, conflict resolver, proximity queries, and check-in detector
// behind one explicitly constructed, injectable handle.
type Service struct {
	store    geostore.Store
	master   venues.MasterStore
	meta     *metadata.Cache
	resolver *conflict.Resolver
	queries  *proximity.Queries
	detector *checkin.Detector
}

// New wires a Service from its collaborators.
func New(store geostore.Store, master venues.MasterStore, notifier notify.Notifier, opts Options) *Service {
	defaultGeometry := opts.DefaultGeometry
	if defaultGeometry == (geostore.SearchBy{}) {
		defaultGeometry = geostore.ByBox(50, 50, "m")
	}
	conflictWindow := opts.ConflictWindow
	if conflictWindow == 0 {
		conflictWindow = metadata.DefaultFreshnessWindow
	}
	directoryTTL := opts.DirectoryTTL
	if directoryTTL == 0 {
		directoryTTL = time.Hour
	}

	meta := metadata.NewCache(store, defaultGeometry)
	resolver := conflict.NewResolver(store, conflictWindow)
	queries := proximity.NewQueries(store, meta, resolver, opts.UserSearch, opts.NotifRadius, opts.FreshnessWindow)
	directory := venues.NewDirectory(master, directoryTTL)
	detector := checkin.NewDetector(queries, resolver, directory, notifier, opts.CheckInRadius)

	return &Service{
		store:    store,
		master:   master,
		meta:     meta,
		resolver: resolver,
		queries:  queries,
		detector: detector,
	}
}

// Queries exposes the read API.
func (s *Service) Queries() *proximity.Queries { return s.queries }

// Metadata exposes the typed metadata accessors.
func (s *Service) Metadata() *metadata.Cache { return s.meta }

// SetUserLocation records a user's position, stamps the update time, and runs
// the check-in evaluation. The returned prompt is non-nil when a notification
// fired on this update.
func (s *Service) SetUserLocation(ctx context.Context, userID string, coords geostore.Coordinates) (*checkin.Prompt, error) {
	if err := s.store.SetPosition(ctx, geostore.UserLocations, userID, coords); err != nil {
		return nil, err
	}
	if err := s.meta.RecordLocationUpdate(ctx, userID); err != nil {
		return nil, err
	}

	prompt, err := s.detector.Evaluate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prompt != nil {
		zap.L().Info("geocache: check-in prompt fired",
			zap.String("user_id", userID),
			zap.Int("candidates", len(prompt.Candidates)),
		)
	}
	return prompt, nil
}

// ResolveCheckIn records the user's explicit venue selection.
func (s *Service) ResolveCheckIn(ctx context.Context, userID, venueID string) error {
	return s.resolver.Resolve(ctx, userID, venueID)
}

// ClearConflict forces the user's conflict state back to absent.
func (s *Service) ClearConflict(ctx context.Context, userID string) error {
	return s.resolver.Clear(ctx, userID)
}

// CurrentSelection returns the venue the user is checked into, if any.
func (s *Service) CurrentSelection(ctx context.Context, userID string) (string, bool, error) {
	return s.resolver.CurrentSelection(ctx, userID)
}

// ConflictState returns the user's conflict record state.
func (s *Service) ConflictState(ctx context.Context, userID string) (conflict.State, *conflict.Record, error) {
	return s.resolver.CurrentState(ctx, userID)
}

// ImportVenues bulk-loads venue master data into the geo index.
func (s *Service) ImportVenues(ctx context.Context) (int, error) {
	return s.meta.BulkImportVenues(ctx, s.master)
}

// FullyCached reports whether the venue index matches the master store.
func (s *Service) FullyCached(ctx context.Context) (bool, error) {
	return s.meta.FullyCached(ctx, s.master)
}

// PurgeUser evicts everything the cache holds about a user: position,
// last-updated stamp, and conflict record. Operator-driven retention; there
// is no background sweep.
func (s *Service) PurgeUser(ctx context.Context, userID string) error {
	if err := s.store.RemovePosition(ctx, geostore.UserLocations, userID); err != nil {
		return err
	}
	if err := s.meta.ClearLastUpdated(ctx, userID); err != nil {
		return err
	}
	return s.resolver.Clear(ctx, userID)
}

// Close releases the store handle.
func (s *Service) Close() error { return s.store.Close() }
