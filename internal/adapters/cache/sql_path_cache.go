package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"delivery-sim-service/internal/platform/db"
	"delivery-sim-service/internal/platform/obs"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SQLPathCache stores routed paths as GeoJSON LineStrings keyed by the
// profile and ordered stops they were requested for.
type SQLPathCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	now     func() time.Time
}

func NewSQLPathCache(conn *sql.DB, dialect db.Dialect) *SQLPathCache {
	return &SQLPathCache{DB: conn, Dialect: dialect, now: time.Now}
}

// PathKey derives a stable cache key for a directions request.
// Coordinates are rounded to 1e-6 degrees (about 10 cm).
func PathKey(profile string, stops []domain.Coordinates) string {
	var b strings.Builder
	b.WriteString(profile)
	for _, c := range stops {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(c.Lon, 'f', 6, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(c.Lat, 'f', 6, 64))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached path for key. ok is false on a miss.
func (s *SQLPathCache) Get(ctx context.Context, key string) (_ domain.Path, _ bool, err error) {
	defer obs.Time(ctx, "path.cache.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("path cache: db is nil")
	}

	var raw string
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	SELECT geojson
	FROM path_cache
	WHERE cache_key = ?;
	`), key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get path cache: query path_cache table: %w", err)
	}

	path, err := geo.ParseGeoJSONPath([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("get path cache key=%s: %w", key, err)
	}
	return path, true, nil
}

// Put stores path under key, replacing any previous entry.
func (s *SQLPathCache) Put(ctx context.Context, key string, path domain.Path) error {
	if s.DB == nil {
		return errors.New("path cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert path cache: empty key")
	}

	raw, err := geo.PathToGeoJSON(path)
	if err != nil {
		return fmt.Errorf("insert path cache key=%s: %w", key, err)
	}

	_, err = s.DB.ExecContext(ctx, s.Dialect.Rebind(`
	INSERT INTO path_cache (cache_key, geojson, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE
	SET geojson = EXCLUDED.geojson,
		created_at = EXCLUDED.created_at;
	`), key, string(raw), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert path cache key=%s: %w", key, err)
	}
	return nil
}
