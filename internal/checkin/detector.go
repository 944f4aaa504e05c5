package checkin

import (
	"context"

	"go.uber.org/zap"

	"github.com/hoppz/geocache/internal/conflict"
	"github.com/hoppz/geocache/internal/geostore"
	"github.com/hoppz/geocache/internal/notify"
	"github.com/hoppz/geocache/internal/proximity"
	"github.com/hoppz/geocache/internal/venues"
)

// DefaultCheckInRadius bounds the venue search that decides whether an update
// warrants a check-in prompt.
var DefaultCheckInRadius = geostore.ByRadius(50, "m")

// VenueDirectory resolves venue ids to display metadata. Ids that fail to
// resolve are missing from the result, not an error.
type VenueDirectory interface {
	Resolve(ctx context.Context, ids []string) (map[string]venues.Info, error)
}

// Prompt describes a check-in notification that was emitted.
type Prompt struct {
	UserID     string
	Candidates []notify.CandidateVenue
}

// Detector evaluates, after every accepted location update, whether the user
// is within check-in range of a venue and whether a prompt must fire. A
// resolved conflict within its window suppresses prompts entirely; a pending
// record suppresses re-notification until it expires.
type Detector struct {
	queries   *proximity.Queries
	resolver  *conflict.Resolver
	directory VenueDirectory
	notifier  notify.Notifier
	radius    geostore.SearchBy
	pushTitle string
	pushBody  string
}

// NewDetector creates a Detector. A zero radius uses DefaultCheckInRadius.
func NewDetector(queries *proximity.Queries, resolver *conflict.Resolver, directory VenueDirectory, notifier notify.Notifier, radius geostore.SearchBy) *Detector {
	if radius == (geostore.SearchBy{}) {
		radius = DefaultCheckInRadius
	}
	return &Detector{
		queries:   queries,
		resolver:  resolver,
		directory: directory,
		notifier:  notifier,
		radius:    radius,
		pushTitle: "Check in!",
		pushBody:  "It looks like you're in a venue! Please check in",
	}
}

// Evaluate runs the check-in decision for a user's freshly written position.
// It returns the emitted prompt, or nil when no notification was needed.
func (d *Detector) Evaluate(ctx context.Context, userID string) (*Prompt, error) {
	// Venues within check-in range, nearest first. The nearest venue doubles
	// as the default selection if the user never answers.
	nearby, ok, err := d.queries.NearestVenues(ctx, userID, &d.radius)
	if err != nil {
		return nil, err
	}
	if !ok || len(nearby) == 0 {
		return nil, nil
	}

	// A resolved selection within its window means the user already confirmed
	// presence; no prompt even if other venues are in range.
	if _, resolved, err := d.resolver.CurrentSelection(ctx, userID); err != nil {
		return nil, err
	} else if resolved {
		return nil, nil
	}

	candidateIDs := make([]string, 0, len(nearby))
	for _, n := range nearby {
		candidateIDs = append(candidateIDs, n.ID)
	}

	// Open a pending record. If one is already open this update must not
	// re-notify; the pending window owns the prompt.
	opened, err := d.resolver.Open(ctx, userID, candidateIDs)
	if err != nil {
		return nil, err
	}
	if !opened {
		return nil, nil
	}

	infos, err := d.directory.Resolve(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}

	candidates := make([]notify.CandidateVenue, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		info, ok := infos[id]
		if !ok {
			zap.L().Warn("checkin: venue missing display metadata, omitting from prompt",
				zap.String("venue_id", id),
				zap.String("user_id", userID),
			)
			continue
		}
		candidates = append(candidates, notify.CandidateVenue{
			ID:      id,
			Name:    info.Name,
			Address: info.Address,
		})
	}
	if len(candidates) == 0 {
		zap.L().Warn("checkin: no candidate resolved to display metadata, skipping prompt",
			zap.String("user_id", userID),
			zap.Strings("candidates", candidateIDs),
		)
		return nil, nil
	}

	if err := d.notifier.SendCheckIn(ctx, notify.CheckInRequest{
		UserID:     userID,
		Kind:       notify.KindCheckIn,
		Candidates: candidates,
		PushTitle:  d.pushTitle,
		PushBody:   d.pushBody,
	}); err != nil {
		return nil, err
	}

	return &Prompt{UserID: userID, Candidates: candidates}, nil
}
