package repositories

import (
	"context"
	"database/sql"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/platform/db"
	"delivery-sim-service/internal/platform/obs"
	"delivery-sim-service/internal/ports"
	"errors"
	"fmt"
	"time"
)

// SQL-backed implementation of the PackageRepository port.
// Queries run unchanged on SQLite and Postgres apart from placeholder style.
type SQLPackageRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLPackageRepository(conn *sql.DB, dialect db.Dialect) *SQLPackageRepository {
	return &SQLPackageRepository{DB: conn, Dialect: dialect}
}

const packageColumns = `
		package_id,
		vehicle_id,
		destination,
		recipient_name,
		destination_lat,
		destination_lon,
		weight,
		loaded_at,
		delivered_at`

// Return all packages stored in the database.
func (s *SQLPackageRepository) ListPackages(ctx context.Context) (_ []*domain.Package, err error) {
	defer obs.Time(ctx, "repo.ListPackages")(&err)

	if s.DB == nil {
		return nil, errors.New("sql package repository: DB is nil")
	}

	query := `SELECT` + packageColumns + `
	FROM packages
	ORDER BY package_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list packages: query packages table: %w", err)
	}
	defer rows.Close()

	packages, err := scanPackages(rows)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return packages, nil
}

// Return all vehicles without their packages.
func (s *SQLPackageRepository) ListVehicles(ctx context.Context) (_ []*domain.Vehicle, err error) {
	defer obs.Time(ctx, "repo.ListVehicles")(&err)

	if s.DB == nil {
		return nil, errors.New("sql package repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT vehicle_id, name, capacity, speed_mph
	FROM vehicles
	ORDER BY vehicle_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: query vehicles table: %w", err)
	}
	defer rows.Close()

	vehicles := make([]*domain.Vehicle, 0, 8)
	for rows.Next() {
		v := &domain.Vehicle{}
		if err := rows.Scan(&v.VehicleID, &v.Name, &v.Capacity, &v.SpeedMph); err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}

	return vehicles, nil
}

// Return one vehicle with its packages, ordered by package id.
func (s *SQLPackageRepository) GetVehicle(ctx context.Context, vehicleID string) (_ *domain.Vehicle, err error) {
	defer obs.Time(ctx, "repo.GetVehicle")(&err)

	if s.DB == nil {
		return nil, errors.New("sql package repository: DB is nil")
	}

	v := &domain.Vehicle{}
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	SELECT vehicle_id, name, capacity, speed_mph
	FROM vehicles
	WHERE vehicle_id = ?;
	`), vehicleID).Scan(&v.VehicleID, &v.Name, &v.Capacity, &v.SpeedMph)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get vehicle %q: %w", vehicleID, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle %q: query vehicles table: %w", vehicleID, err)
	}

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(`SELECT`+packageColumns+`
	FROM packages
	WHERE vehicle_id = ?
	ORDER BY package_id;
	`), vehicleID)
	if err != nil {
		return nil, fmt.Errorf("get vehicle %q: query packages table: %w", vehicleID, err)
	}
	defer rows.Close()

	v.Packages, err = scanPackages(rows)
	if err != nil {
		return nil, fmt.Errorf("get vehicle %q: %w", vehicleID, err)
	}
	return v, nil
}

// Stamp a package as delivered.
func (s *SQLPackageRepository) MarkDelivered(ctx context.Context, packageID int, at time.Time) (err error) {
	defer obs.Time(ctx, "repo.MarkDelivered")(&err)

	if s.DB == nil {
		return errors.New("sql package repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(`
	UPDATE packages
	SET delivered_at = ?
	WHERE package_id = ?;
	`), formatTime(at), packageID)
	if err != nil {
		return fmt.Errorf("mark delivered package_id=%d: %w", packageID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark delivered package_id=%d: rows affected: %w", packageID, err)
	}
	if n == 0 {
		return fmt.Errorf("mark delivered package_id=%d: %w", packageID, ports.ErrNotFound)
	}
	return nil
}

// ResetDeliveries clears delivered_at for every package of a vehicle.
func (s *SQLPackageRepository) ResetDeliveries(ctx context.Context, vehicleID string) error {
	if s.DB == nil {
		return errors.New("sql package repository: DB is nil")
	}

	_, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(`
	UPDATE packages
	SET delivered_at = NULL
	WHERE vehicle_id = ?;
	`), vehicleID)
	if err != nil {
		return fmt.Errorf("reset deliveries vehicle_id=%s: %w", vehicleID, err)
	}
	return nil
}

func scanPackages(rows *sql.Rows) ([]*domain.Package, error) {
	packages := make([]*domain.Package, 0, 64)
	for rows.Next() {
		var (
			p           domain.Package
			vehicleID   sql.NullString
			lat, lon    sql.NullFloat64
			loadedAt    sql.NullString
			deliveredAt sql.NullString
		)
		err := rows.Scan(
			&p.PackageID,
			&vehicleID,
			&p.Destination,
			&p.RecipientName,
			&lat,
			&lon,
			&p.Weight,
			&loadedAt,
			&deliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		p.VehicleID = vehicleID.String
		if lat.Valid {
			p.DestinationLat = &lat.Float64
		}
		if lon.Valid {
			p.DestinationLon = &lon.Float64
		}
		if p.LoadedAt, err = parseTime(loadedAt); err != nil {
			return nil, fmt.Errorf("package_id=%d: loaded_at: %w", p.PackageID, err)
		}
		if p.DeliveredAt, err = parseTime(deliveredAt); err != nil {
			return nil, fmt.Errorf("package_id=%d: delivered_at: %w", p.PackageID, err)
		}

		packages = append(packages, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return packages, nil
}

// Timestamps are stored as RFC 3339 text so both dialects read them back the same way.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
