package state

import (
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/ports"
	"fmt"
	"math"
	"sync"
)

// MemoryStore holds one VehicleSimulationState per vehicle in memory.
// Every method takes the store lock, so a commit is observed all or nothing.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*domain.VehicleSimulationState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*domain.VehicleSimulationState),
	}
}

// Initialize registers a fresh state for a vehicle.
func (s *MemoryStore) Initialize(state domain.VehicleSimulationState) error {
	if state.VehicleID == "" {
		return fmt.Errorf("initialize state: vehicle id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[state.VehicleID]; ok {
		return fmt.Errorf("initialize state vehicle=%s: %w", state.VehicleID, ports.ErrVehicleExists)
	}

	st := state.Clone()
	s.states[state.VehicleID] = &st
	return nil
}

// CommitTick applies one tick's position, progress and deliveries atomically.
// Package ids already delivered are ignored.
func (s *MemoryStore) CommitTick(u ports.TickUpdate) (domain.VehicleSimulationState, error) {
	if math.IsNaN(u.RouteProgress) || u.RouteProgress > 1 {
		return domain.VehicleSimulationState{}, fmt.Errorf("commit tick vehicle=%s: progress %v out of range", u.VehicleID, u.RouteProgress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[u.VehicleID]
	if !ok {
		return domain.VehicleSimulationState{}, fmt.Errorf("commit tick vehicle=%s: %w", u.VehicleID, ports.ErrVehicleNotFound)
	}
	if !st.IsActive {
		return domain.VehicleSimulationState{}, fmt.Errorf("commit tick vehicle=%s: %w", u.VehicleID, ports.ErrVehicleInactive)
	}
	if u.SessionID != st.SessionID {
		return domain.VehicleSimulationState{}, fmt.Errorf(
			"commit tick vehicle=%s: session %q is not current: %w",
			u.VehicleID, u.SessionID, ports.ErrVehicleInactive,
		)
	}
	if u.RouteProgress < st.RouteProgress {
		return domain.VehicleSimulationState{}, fmt.Errorf(
			"commit tick vehicle=%s: %v -> %v: %w",
			u.VehicleID, st.RouteProgress, u.RouteProgress, ports.ErrProgressRegression,
		)
	}

	for _, id := range u.NewDeliveries {
		if !st.HasDelivered(id) {
			st.DeliveredPackageIDs = append(st.DeliveredPackageIDs, id)
		}
	}
	st.Position = u.Position
	st.RouteProgress = u.RouteProgress
	st.SpeedMph = u.SpeedMph
	st.LastUpdate = u.At
	if u.Complete {
		st.IsActive = false
		st.SpeedMph = 0
	}

	return st.Clone(), nil
}

func (s *MemoryStore) SetActive(vehicleID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[vehicleID]
	if !ok {
		return fmt.Errorf("set active vehicle=%s: %w", vehicleID, ports.ErrVehicleNotFound)
	}
	st.IsActive = active
	if !active {
		st.SpeedMph = 0
	}
	return nil
}

// Get returns a copy of the vehicle's state.
func (s *MemoryStore) Get(vehicleID string) (domain.VehicleSimulationState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[vehicleID]
	if !ok {
		return domain.VehicleSimulationState{}, false
	}
	return st.Clone(), true
}

func (s *MemoryStore) Remove(vehicleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, vehicleID)
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]*domain.VehicleSimulationState)
}

// Len reports how many vehicles are tracked.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
