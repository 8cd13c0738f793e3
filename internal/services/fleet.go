package services

import (
	"context"
	"delivery-sim-service/internal/ports"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Fleet drives every active session once per cycle and dispatches the tick
// results to an EventSink.
type Fleet struct {
	orch    *Orchestrator
	sink    ports.EventSink
	workers int
	log     zerolog.Logger
}

// NewFleet returns a driver ticking at most workers vehicles in parallel.
// A non-positive workers value means no limit.
func NewFleet(orch *Orchestrator, sink ports.EventSink, workers int, logger zerolog.Logger) *Fleet {
	return &Fleet{orch: orch, sink: sink, workers: workers, log: logger}
}

// TickAll advances every active session by dt seconds.
//
// Each vehicle is ticked by exactly one goroutine per cycle. Results are
// dispatched after all ticks finish, in vehicle id order. Failures of a
// single vehicle or sink call are logged and do not stop the others.
//
// Canceling ctx stops vehicles that have not started ticking yet; every tick
// that did commit is still dispatched, and ctx.Err() is returned with them.
func (f *Fleet) TickAll(ctx context.Context, dt float64) ([]TickResult, error) {
	ids := f.orch.ActiveVehicleIDs()
	slots := make([]*TickResult, len(ids))

	var g errgroup.Group
	if f.workers > 0 {
		g.SetLimit(f.workers)
	}

	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			res, err := f.orch.Tick(id, dt)
			if errors.Is(err, ErrSessionInactive) {
				return nil
			}
			if err != nil {
				f.log.Error().Err(err).Str("vehicle_id", id).Msg("tick failed")
				return nil
			}
			slots[i] = &res
			return nil
		})
	}
	// Ticks never fail the group; Wait only joins them.
	_ = g.Wait()

	dispatchCtx := context.WithoutCancel(ctx)
	results := make([]TickResult, 0, len(slots))
	for _, res := range slots {
		if res == nil {
			continue
		}
		f.dispatch(dispatchCtx, *res)
		results = append(results, *res)
	}
	return results, ctx.Err()
}

func (f *Fleet) dispatch(ctx context.Context, res TickResult) {
	if f.sink == nil {
		return
	}

	if err := f.sink.PositionUpdated(ctx, res.VehicleID, res.Position, res.SpeedMph, res.RouteProgress); err != nil {
		f.log.Warn().Err(err).Str("vehicle_id", res.VehicleID).Msg("position update failed")
	}

	for _, ev := range res.NewDeliveries {
		if err := f.sink.PackageDelivered(ctx, ev); err != nil {
			f.log.Warn().Err(err).
				Str("vehicle_id", ev.VehicleID).
				Int("package_id", ev.PackageID).
				Msg("delivery dispatch failed")
		}
	}

	if res.IsComplete {
		if err := f.sink.SessionCompleted(ctx, res.VehicleID); err != nil {
			f.log.Warn().Err(err).Str("vehicle_id", res.VehicleID).Msg("completion dispatch failed")
		}
	}
}

// Run ticks the fleet every interval until ctx is done. dt is the measured
// wall time since the previous cycle.
func (f *Fleet) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("fleet run: interval must be positive")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	f.log.Info().Dur("interval", interval).Msg("fleet loop started")

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			f.log.Info().Msg("fleet loop stopped")
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = interval.Seconds()
			}
			last = now

			if _, err := f.TickAll(ctx, dt); err != nil && ctx.Err() == nil {
				f.log.Error().Err(err).Msg("fleet tick failed")
			}
		}
	}
}
