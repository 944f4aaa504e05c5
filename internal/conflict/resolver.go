package conflict

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hoppz/geocache/internal/geostore"
)

var (
	// ErrNoOpenConflict is returned by Resolve when the user has no record
	// within the freshness window. The resolver never fabricates a record.
	ErrNoOpenConflict = eris.New("conflict: no open record for user")

	// ErrAlreadyResolved is returned by Resolve when the record already
	// carries a different selection. Re-resolving to the same venue is a
	// no-op.
	ErrAlreadyResolved = eris.New("conflict: record already resolved")
)

// Resolver drives the per-user conflict state machine: absent → pending →
// resolved → absent once the freshness window elapses. Expiry is lazy,
// evaluated on read; there is no background sweep. All write paths for one
// user are serialized through a per-user lock.
type Resolver struct {
	store  geostore.Store
	window time.Duration
	locks  *userLocks
	now    func() time.Time
}

// NewResolver creates a Resolver with the given freshness window.
func NewResolver(store geostore.Store, window time.Duration) *Resolver {
	return &Resolver{
		store:  store,
		window: window,
		locks:  newUserLocks(),
		now:    time.Now,
	}
}

// load reads and decodes the raw record. (nil, nil) means never written.
func (r *Resolver) load(ctx context.Context, userID string) (*Record, error) {
	value, ok, err := r.store.GetField(ctx, geostore.TableConflictResolution, userID)
	if err != nil || !ok {
		return nil, err
	}
	return decodeRecord(value)
}

// write persists the record.
func (r *Resolver) write(ctx context.Context, userID string, record Record) error {
	encoded, err := encodeRecord(record)
	if err != nil {
		return err
	}
	return r.store.SetField(ctx, geostore.TableConflictResolution, userID, encoded)
}

// current loads the record and applies lazy expiry: a stale record is deleted
// and reported absent.
func (r *Resolver) current(ctx context.Context, userID string) (State, *Record, error) {
	record, err := r.load(ctx, userID)
	if err != nil {
		return StateAbsent, nil, err
	}
	state := record.state(r.window, r.now())
	if record != nil && state == StateAbsent {
		if err := r.store.DeleteField(ctx, geostore.TableConflictResolution, userID); err != nil {
			return StateAbsent, nil, err
		}
		record = nil
	}
	return state, record, nil
}

// CurrentState returns the user's state and, when pending or resolved, the
// record itself.
func (r *Resolver) CurrentState(ctx context.Context, userID string) (State, *Record, error) {
	release := r.locks.acquire(userID)
	defer release()
	return r.current(ctx, userID)
}

// Open creates a pending record with the given candidate venues, ordered
// ascending by distance. It is a no-op when a pending or resolved record is
// already within its window; opened reports whether a record was created by
// this call.
func (r *Resolver) Open(ctx context.Context, userID string, candidateVenues []string) (opened bool, err error) {
	release := r.locks.acquire(userID)
	defer release()

	state, _, err := r.current(ctx, userID)
	if err != nil {
		return false, err
	}
	if state != StateAbsent {
		return false, nil
	}

	record := Record{
		CreatedAt:       r.now().UnixMilli(),
		CandidateVenues: candidateVenues,
	}
	if err := r.write(ctx, userID, record); err != nil {
		return false, err
	}
	return true, nil
}

// Resolve transitions a pending record to resolved by selecting venueID.
// Requires an open record within the window; resolving an already-resolved
// record to a different venue is an error, to the same venue a no-op.
func (r *Resolver) Resolve(ctx context.Context, userID, venueID string) error {
	release := r.locks.acquire(userID)
	defer release()

	state, record, err := r.current(ctx, userID)
	if err != nil {
		return err
	}
	switch state {
	case StateAbsent:
		return eris.Wrapf(ErrNoOpenConflict, "user %s", userID)
	case StateResolved:
		if *record.Selected == venueID {
			return nil
		}
		return eris.Wrapf(ErrAlreadyResolved, "user %s selected %s", userID, *record.Selected)
	}

	record.Selected = &venueID
	return r.write(ctx, userID, *record)
}

// Clear forces the user back to absent regardless of current state.
func (r *Resolver) Clear(ctx context.Context, userID string) error {
	release := r.locks.acquire(userID)
	defer release()
	return r.store.DeleteField(ctx, geostore.TableConflictResolution, userID)
}

// CurrentSelection returns the venue the user resolved to, if the record is
// still within its freshness window. Reading a stale record clears it.
func (r *Resolver) CurrentSelection(ctx context.Context, userID string) (string, bool, error) {
	state, record, err := r.CurrentState(ctx, userID)
	if err != nil || state != StateResolved {
		return "", false, err
	}
	return *record.Selected, true, nil
}
