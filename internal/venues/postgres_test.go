package venues

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_ListVenues(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)

	mock.ExpectQuery(`SELECT id, latitude, longitude, geometry`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "latitude", "longitude", "geometry"}).
			AddRow("v1", 30.2672, -97.7431, []byte(`{"height":120,"width":60,"unit":"m"}`)).
			AddRow("v2", 30.2849, -97.7341, []byte(nil)))

	list, err := store.ListVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "v1", list[0].ID)
	assert.InDelta(t, 30.2672, list[0].Position.Latitude, 1e-9)
	require.NotNil(t, list[0].Geometry)
	assert.InDelta(t, 120.0, list[0].Geometry.Height, 1e-9)
	assert.Equal(t, "m", list[0].Geometry.Unit)

	assert.Equal(t, "v2", list[1].ID)
	assert.Nil(t, list[1].Geometry, "venue without footprint stays nil")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListVenues_BadGeometry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)

	mock.ExpectQuery(`SELECT id, latitude, longitude, geometry`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "latitude", "longitude", "geometry"}).
			AddRow("v1", 30.2672, -97.7431, []byte(`{broken`)))

	_, err = store.ListVenues(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode geometry for v1")
}

func TestPostgresStore_CountVenues(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)

	mock.ExpectQuery(`SELECT count\(\*\) FROM establishments`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := store.CountVenues(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResolveVenues(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)

	mock.ExpectQuery(`SELECT id, name, address`).
		WithArgs([]string{"v1", "v-missing"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "address"}).
			AddRow("v1", "Radio Coffee", "4204 Menchaca Rd"))

	infos, err := store.ResolveVenues(context.Background(), []string{"v1", "v-missing"})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "Radio Coffee", infos["v1"].Name)
	_, ok := infos["v-missing"]
	assert.False(t, ok, "unknown id is simply absent")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResolveVenues_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)

	// No ids means no query at all.
	infos, err := store.ResolveVenues(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, infos)
	assert.NoError(t, mock.ExpectationsWereMet())
}
