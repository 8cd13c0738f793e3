package services

import (
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"delivery-sim-service/internal/ports"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultSpeedMph is used for vehicles without a configured speed.
const DefaultSpeedMph = 25.0

type OrchestratorOptions struct {
	MaxOffsetMeters   float64
	DeliveryTolerance float64
	// FastForward multiplies simulated time; values <= 0 mean 1.
	FastForward float64
	// SpeedProfile is cosmetic; the zero value is flat.
	SpeedProfile    SpeedProfile
	DefaultSpeedMph float64
	Now             func() time.Time
}

// Session binds one vehicle to one path and its ordered delivery waypoints.
type Session struct {
	ID        string
	VehicleID string
	Status    domain.SessionStatus
	SpeedMph  float64
	Path      domain.Path
	Waypoints []domain.DeliveryWaypoint
	Skipped   []SkippedPackage
	CreatedAt time.Time
}

// TickResult is what a caller dispatches to presentation collaborators after
// a tick: one position update, one event per new delivery, and a completion
// signal when IsComplete is set.
type TickResult struct {
	VehicleID     string
	SessionID     string
	Position      domain.Coordinates
	SpeedMph      float64
	RouteProgress float64
	NewDeliveries []ports.DeliveryEvent
	NextWaypoint  *domain.DeliveryWaypoint
	IsComplete    bool
}

type session struct {
	Session

	route    *geo.Route
	clock    *ProgressClock
	detector *DeliveryDetector
	byID     map[int]domain.DeliveryWaypoint

	// tickMu serializes ticks of one vehicle.
	tickMu sync.Mutex
}

// Orchestrator runs the per-vehicle session lifecycle on top of a
// VehicleStateStore: created -> active -> complete or stopped -> cleared.
type Orchestrator struct {
	store ports.VehicleStateStore
	opts  OrchestratorOptions
	log   zerolog.Logger

	mu          sync.RWMutex
	sessions    map[string]*session
	fastForward float64
}

func NewOrchestrator(store ports.VehicleStateStore, opts OrchestratorOptions, logger zerolog.Logger) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultSpeedMph <= 0 {
		opts.DefaultSpeedMph = DefaultSpeedMph
	}

	ff := opts.FastForward
	if ff <= 0 || math.IsNaN(ff) || math.IsInf(ff, 0) {
		ff = 1
	}

	return &Orchestrator{
		store:       store,
		opts:        opts,
		log:         logger,
		sessions:    make(map[string]*session),
		fastForward: ff,
	}
}

// InitializeSession builds the waypoints for vehicle's packages on path and
// registers an inactive session positioned at the path start.
//
// It returns ErrNoWaypoints when no package could be placed, and replaces a
// previous session for the same vehicle unless that one is still active.
func (o *Orchestrator) InitializeSession(vehicle *domain.Vehicle, path domain.Path) (Session, error) {
	if vehicle == nil || vehicle.VehicleID == "" {
		return Session{}, errors.New("initialize session: vehicle id must be non-empty")
	}
	id := vehicle.VehicleID

	route := geo.NewRoute(path)
	set, err := buildWaypoints(route, vehicle.Packages, WaypointOptions{MaxOffsetMeters: o.opts.MaxOffsetMeters})
	if err != nil {
		return Session{}, fmt.Errorf("initialize session: vehicle %s: %w", id, err)
	}

	for _, sk := range set.Skipped {
		ev := o.log.Warn().
			Str("vehicle_id", id).
			Int("package_id", sk.PackageID).
			Str("reason", string(sk.Reason))
		if sk.Reason == SkipTooFarFromPath {
			ev = ev.Float64("distance_m", sk.DistanceFromPath)
		}
		ev.Msg("package skipped")
	}

	if len(set.Waypoints) == 0 {
		return Session{}, fmt.Errorf("initialize session: vehicle %s: %w", id, ErrNoWaypoints)
	}

	speed := vehicle.SpeedMph
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		speed = o.opts.DefaultSpeedMph
	}

	now := o.opts.Now()
	s := &session{
		Session: Session{
			ID:        uuid.NewString(),
			VehicleID: id,
			Status:    domain.SessionCreated,
			SpeedMph:  speed,
			Path:      route.Path(),
			Waypoints: set.Waypoints,
			Skipped:   set.Skipped,
			CreatedAt: now,
		},
		route:    route,
		clock:    NewProgressClock(route, o.opts.SpeedProfile),
		detector: NewDeliveryDetector(set.Waypoints, o.opts.DeliveryTolerance),
		byID:     make(map[int]domain.DeliveryWaypoint, len(set.Waypoints)),
	}
	for _, wp := range set.Waypoints {
		s.byID[wp.PackageID] = wp
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if prev, ok := o.sessions[id]; ok {
		if prev.Status == domain.SessionActive {
			return Session{}, fmt.Errorf("initialize session: vehicle %s: %w", id, ErrSessionActive)
		}
		o.store.Remove(id)
	}

	err = o.store.Initialize(domain.VehicleSimulationState{
		VehicleID:     id,
		SessionID:     s.ID,
		Position:      route.PositionAt(0),
		RouteProgress: 0,
		LastUpdate:    now,
	})
	if err != nil {
		return Session{}, fmt.Errorf("initialize session: vehicle %s: %w", id, err)
	}
	o.sessions[id] = s

	o.log.Info().
		Str("vehicle_id", id).
		Str("session_id", s.ID).
		Int("waypoints", len(set.Waypoints)).
		Int("skipped", len(set.Skipped)).
		Float64("path_m", route.TotalMeters()).
		Msg("session initialized")

	return s.snapshot(), nil
}

// Start activates a created or stopped session.
func (o *Orchestrator) Start(vehicleID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.sessions[vehicleID]
	if !ok {
		return fmt.Errorf("start session: vehicle %s: %w", vehicleID, ErrSessionNotFound)
	}

	switch s.Status {
	case domain.SessionActive:
		return nil
	case domain.SessionComplete:
		return fmt.Errorf("start session: vehicle %s: %w", vehicleID, ErrSessionComplete)
	}

	if err := o.store.SetActive(vehicleID, true); err != nil {
		return fmt.Errorf("start session: vehicle %s: %w", vehicleID, err)
	}
	s.Status = domain.SessionActive

	o.log.Info().Str("vehicle_id", vehicleID).Str("session_id", s.ID).Msg("session started")
	return nil
}

// Stop deactivates a running session. Its state is kept until Clear.
func (o *Orchestrator) Stop(vehicleID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.sessions[vehicleID]
	if !ok {
		return fmt.Errorf("stop session: vehicle %s: %w", vehicleID, ErrSessionNotFound)
	}
	if s.Status != domain.SessionActive {
		return nil
	}

	if err := o.store.SetActive(vehicleID, false); err != nil {
		return fmt.Errorf("stop session: vehicle %s: %w", vehicleID, err)
	}
	s.Status = domain.SessionStopped

	o.log.Info().Str("vehicle_id", vehicleID).Str("session_id", s.ID).Msg("session stopped")
	return nil
}

// Clear releases the session and its vehicle state. A tick racing Clear
// becomes a no-op.
func (o *Orchestrator) Clear(vehicleID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.sessions[vehicleID]; !ok {
		return fmt.Errorf("clear session: vehicle %s: %w", vehicleID, ErrSessionNotFound)
	}
	delete(o.sessions, vehicleID)
	o.store.Remove(vehicleID)

	o.log.Info().Str("vehicle_id", vehicleID).Msg("session cleared")
	return nil
}

// ClearAll releases every session.
func (o *Orchestrator) ClearAll() {
	o.mu.Lock()
	defer o.mu.Unlock()

	clear(o.sessions)
	o.store.Clear()
}

// Tick advances one vehicle by dt seconds of wall time.
//
// Sessions that are not active (never started, stopped, complete, or
// cleared) return ErrSessionInactive and leave all state untouched.
func (o *Orchestrator) Tick(vehicleID string, dt float64) (TickResult, error) {
	o.mu.RLock()
	s, ok := o.sessions[vehicleID]
	ff := o.fastForward
	o.mu.RUnlock()
	if !ok {
		return TickResult{}, ErrSessionInactive
	}

	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	st, ok := o.store.Get(vehicleID)
	if !ok || !st.IsActive || st.SessionID != s.ID {
		return TickResult{}, ErrSessionInactive
	}

	step := s.clock.Advance(st.RouteProgress, dt, s.SpeedMph, ff)
	det := s.detector.Detect(st.RouteProgress, step.Progress, st.DeliveredPackageIDs)
	complete := step.Progress >= 1

	position := step.Position
	speed := step.SpeedMph
	if complete {
		position = s.finalPosition(det.DeliveredPackageIDs)
		speed = 0
	}

	newIDs := make([]int, len(det.NewDeliveries))
	for i, wp := range det.NewDeliveries {
		newIDs[i] = wp.PackageID
	}

	now := o.opts.Now()
	committed, err := o.store.CommitTick(ports.TickUpdate{
		VehicleID:     vehicleID,
		SessionID:     s.ID,
		Position:      position,
		RouteProgress: step.Progress,
		SpeedMph:      speed,
		NewDeliveries: newIDs,
		At:            now,
		Complete:      complete,
	})
	if errors.Is(err, ports.ErrVehicleInactive) || errors.Is(err, ports.ErrVehicleNotFound) {
		return TickResult{}, ErrSessionInactive
	}
	if err != nil {
		return TickResult{}, fmt.Errorf("tick: vehicle %s: %w", vehicleID, err)
	}

	result := TickResult{
		VehicleID:     vehicleID,
		SessionID:     s.ID,
		Position:      committed.Position,
		SpeedMph:      committed.SpeedMph,
		RouteProgress: committed.RouteProgress,
		NextWaypoint:  det.NextWaypoint,
		IsComplete:    complete,
	}
	for _, wp := range det.NewDeliveries {
		result.NewDeliveries = append(result.NewDeliveries, ports.DeliveryEvent{
			SessionID:     s.ID,
			VehicleID:     vehicleID,
			PackageID:     wp.PackageID,
			Destination:   wp.DestinationLabel,
			RecipientName: wp.RecipientName,
			Weight:        wp.Weight,
			Coordinates:   wp.Coordinates,
			RouteProgress: wp.RouteProgress,
			DeliveredAt:   now,
		})
	}

	if complete {
		o.mu.Lock()
		if cur, ok := o.sessions[vehicleID]; ok && cur == s {
			s.Status = domain.SessionComplete
		}
		o.mu.Unlock()

		o.log.Info().
			Str("vehicle_id", vehicleID).
			Str("session_id", s.ID).
			Int("delivered", len(committed.DeliveredPackageIDs)).
			Msg("session complete")
	}

	return result, nil
}

// finalPosition is where a finished vehicle parks: the last delivery it
// made, or the path end when it delivered nothing.
func (s *session) finalPosition(delivered []int) domain.Coordinates {
	for i := len(delivered) - 1; i >= 0; i-- {
		if wp, ok := s.byID[delivered[i]]; ok {
			return wp.Coordinates
		}
	}
	return s.route.PositionAt(1)
}

func (s *session) snapshot() Session {
	out := s.Session
	out.Path = s.Path.Clone()
	out.Waypoints = slices.Clone(s.Waypoints)
	out.Skipped = slices.Clone(s.Skipped)
	return out
}

// Session returns a snapshot of the vehicle's session.
func (o *Orchestrator) Session(vehicleID string) (Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s, ok := o.sessions[vehicleID]
	if !ok {
		return Session{}, fmt.Errorf("get session: vehicle %s: %w", vehicleID, ErrSessionNotFound)
	}
	return s.snapshot(), nil
}

// State returns the vehicle's current simulation state.
func (o *Orchestrator) State(vehicleID string) (domain.VehicleSimulationState, error) {
	st, ok := o.store.Get(vehicleID)
	if !ok {
		return domain.VehicleSimulationState{}, fmt.Errorf("get state: vehicle %s: %w", vehicleID, ErrSessionNotFound)
	}
	return st, nil
}

// States returns the state of every session, ordered by vehicle id.
func (o *Orchestrator) States() []domain.VehicleSimulationState {
	ids := o.VehicleIDs()
	out := make([]domain.VehicleSimulationState, 0, len(ids))
	for _, id := range ids {
		if st, ok := o.store.Get(id); ok {
			out = append(out, st)
		}
	}
	return out
}

// VehicleIDs lists vehicles with a session, sorted.
func (o *Orchestrator) VehicleIDs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ActiveVehicleIDs lists vehicles whose session is running, sorted.
func (o *Orchestrator) ActiveVehicleIDs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]string, 0, len(o.sessions))
	for id, s := range o.sessions {
		if s.Status == domain.SessionActive {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// SetFastForward changes the simulated-time multiplier for every session.
func (o *Orchestrator) SetFastForward(multiplier float64) error {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return fmt.Errorf("set fast forward: multiplier must be positive, got %v", multiplier)
	}

	o.mu.Lock()
	o.fastForward = multiplier
	o.mu.Unlock()

	o.log.Info().Float64("multiplier", multiplier).Msg("fast forward changed")
	return nil
}

func (o *Orchestrator) FastForward() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.fastForward
}
