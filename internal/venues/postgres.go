package venues

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/hoppz/geocache/internal/db"
	"github.com/hoppz/geocache/internal/geostore"
)

// PostgresStore implements MasterStore against the establishments table.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListVenues implements MasterStore.
func (s *PostgresStore) ListVenues(ctx context.Context) ([]Venue, error) {
	sql := `
		SELECT id, latitude, longitude, geometry
		FROM establishments
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrap(err, "venues: list")
	}
	defer rows.Close()

	var out []Venue
	for rows.Next() {
		var v Venue
		var rawGeometry []byte
		if err := rows.Scan(&v.ID, &v.Position.Latitude, &v.Position.Longitude, &rawGeometry); err != nil {
			return nil, eris.Wrap(err, "venues: scan venue row")
		}
		if len(rawGeometry) > 0 {
			var g geostore.SearchBy
			if err := json.Unmarshal(rawGeometry, &g); err != nil {
				return nil, eris.Wrapf(err, "venues: decode geometry for %s", v.ID)
			}
			v.Geometry = &g
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "venues: iterate venue rows")
	}
	return out, nil
}

// CountVenues implements MasterStore.
func (s *PostgresStore) CountVenues(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM establishments`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "venues: count")
	}
	return n, nil
}

// ResolveVenues implements MasterStore.
func (s *PostgresStore) ResolveVenues(ctx context.Context, ids []string) (map[string]Info, error) {
	if len(ids) == 0 {
		return map[string]Info{}, nil
	}
	sql := `
		SELECT id, name, address
		FROM establishments
		WHERE id = ANY($1)
	`
	rows, err := s.pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, eris.Wrap(err, "venues: resolve")
	}
	defer rows.Close()

	out := make(map[string]Info, len(ids))
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.ID, &info.Name, &info.Address); err != nil {
			return nil, eris.Wrap(err, "venues: scan info row")
		}
		out[info.ID] = info
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "venues: iterate info rows")
	}
	return out, nil
}
