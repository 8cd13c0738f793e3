package cache

import (
	"context"
	"database/sql"
	"delivery-sim-service/internal/adapters/repositories"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/platform/db"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, _, err := db.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, repositories.InitSchema(context.Background(), conn))
	return conn
}

func TestGeocodeCacheRoundTrip(t *testing.T) {
	c := NewSQLGeocodeCache(openTestDB(t), db.SQLite)
	ctx := context.Background()

	got, err := c.GetMany(ctx, []string{"1 Main St"})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"1 Main St": {Lon: -112.07, Lat: 33.45},
		"2 Elm St":  {Lon: -112.10, Lat: 33.50},
	}))
	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"2 Elm St": {Lon: -112.11, Lat: 33.51},
	}))

	got, err = c.GetMany(ctx, []string{" 1 Main St ", "2 Elm St", "2 Elm St", "", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, domain.Coordinates{Lon: -112.07, Lat: 33.45}, got["1 Main St"])
	assert.Equal(t, domain.Coordinates{Lon: -112.11, Lat: 33.51}, got["2 Elm St"])
}

func TestGeocodeCacheRejectsBadEntries(t *testing.T) {
	c := NewSQLGeocodeCache(openTestDB(t), db.SQLite)
	ctx := context.Background()

	assert.Error(t, c.PutMany(ctx, map[string]domain.Coordinates{" ": {}}))
	assert.Error(t, c.PutMany(ctx, map[string]domain.Coordinates{"x": {Lon: 500}}))

	var nilDB SQLGeocodeCache
	_, err := nilDB.GetMany(ctx, []string{"x"})
	assert.Error(t, err)
}

func TestPathCacheRoundTrip(t *testing.T) {
	c := NewSQLPathCache(openTestDB(t), db.SQLite)
	ctx := context.Background()

	stops := []domain.Coordinates{{Lon: -112.07, Lat: 33.45}, {Lon: -112.1, Lat: 33.5}}
	key := PathKey("driving-car", stops)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	path := domain.Path{{Lon: -112.07, Lat: 33.45}, {Lon: -112.08, Lat: 33.47}, {Lon: -112.1, Lat: 33.5}}
	require.NoError(t, c.Put(ctx, key, path))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, path, got)

	require.NoError(t, c.Put(ctx, key, path[:2]))
	got, _, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	assert.Error(t, c.Put(ctx, "", path))
}

func TestPathKey(t *testing.T) {
	a := []domain.Coordinates{{Lon: 1, Lat: 2}, {Lon: 3, Lat: 4}}
	b := []domain.Coordinates{{Lon: 3, Lat: 4}, {Lon: 1, Lat: 2}}

	assert.Equal(t, PathKey("driving-car", a), PathKey("driving-car", a))
	assert.NotEqual(t, PathKey("driving-car", a), PathKey("driving-car", b))
	assert.NotEqual(t, PathKey("driving-car", a), PathKey("cycling-regular", a))
	assert.Len(t, PathKey("driving-car", a), 64)
}
