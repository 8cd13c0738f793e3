package services

import (
	"cmp"
	"context"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/ports"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Launcher loads a vehicle and its route from the outer collaborators and
// starts a session for it.
type Launcher struct {
	repo    ports.PackageRepository
	paths   ports.PathSource
	orch    *Orchestrator
	workers int
	log     zerolog.Logger
}

// NewLauncher returns a launcher that starts at most workers vehicles at a
// time in LaunchAll. A non-positive workers value means no limit.
func NewLauncher(repo ports.PackageRepository, paths ports.PathSource, orch *Orchestrator, workers int, logger zerolog.Logger) *Launcher {
	return &Launcher{repo: repo, paths: paths, orch: orch, workers: workers, log: logger}
}

// Launch starts a session for one vehicle. Packages already delivered are
// left off the route.
func (l *Launcher) Launch(ctx context.Context, vehicleID string) (Session, error) {
	vehicle, err := l.repo.GetVehicle(ctx, vehicleID)
	if err != nil {
		return Session{}, fmt.Errorf("launch: vehicle %s: %w", vehicleID, err)
	}

	pending := make([]*domain.Package, 0, len(vehicle.Packages))
	for _, pkg := range vehicle.Packages {
		if pkg.DeliveredAt == nil {
			pending = append(pending, pkg)
		}
	}
	vehicle.Packages = pending

	if len(pending) == 0 {
		return Session{}, fmt.Errorf("launch: vehicle %s: %w", vehicleID, ErrNoWaypoints)
	}

	path, err := l.paths.GetPath(ctx, vehicle)
	if err != nil {
		return Session{}, fmt.Errorf("launch: vehicle %s: get path: %w", vehicleID, err)
	}

	sess, err := l.orch.InitializeSession(vehicle, path)
	if err != nil {
		return Session{}, fmt.Errorf("launch: %w", err)
	}
	if err := l.orch.Start(vehicleID); err != nil {
		return Session{}, fmt.Errorf("launch: %w", err)
	}

	sess.Status = domain.SessionActive
	return sess, nil
}

// LaunchAll launches every vehicle in the repository, bounded by the
// launcher's worker limit. Vehicles that fail are logged and reported in the joined error; the
// others still start.
func (l *Launcher) LaunchAll(ctx context.Context) ([]Session, error) {
	vehicles, err := l.repo.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch all: %w", err)
	}

	var (
		mu       sync.Mutex
		sessions []Session
		errs     []error
	)

	g, gctx := errgroup.WithContext(ctx)
	if l.workers > 0 {
		g.SetLimit(l.workers)
	}
	for _, v := range vehicles {
		g.Go(func() error {
			sess, err := l.Launch(gctx, v.VehicleID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				l.log.Warn().Err(err).Str("vehicle_id", v.VehicleID).Msg("launch failed")
				errs = append(errs, err)
				return nil
			}
			sessions = append(sessions, sess)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(sessions, func(a, b Session) int { return cmp.Compare(a.VehicleID, b.VehicleID) })

	return sessions, errors.Join(errs...)
}
