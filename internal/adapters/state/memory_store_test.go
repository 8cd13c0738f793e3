package state

import (
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/ports"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeState(id string) domain.VehicleSimulationState {
	return domain.VehicleSimulationState{VehicleID: id, IsActive: true}
}

func TestMemoryStore_InitializeAndGet(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(activeState("van-1")))

	got, ok := s.Get("van-1")
	require.True(t, ok)
	assert.Equal(t, "van-1", got.VehicleID)
	assert.True(t, got.IsActive)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestMemoryStore_InitializeTwice(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(activeState("van-1")))

	err := s.Initialize(activeState("van-1"))
	require.ErrorIs(t, err, ports.ErrVehicleExists)
}

func TestMemoryStore_InitializeEmptyID(t *testing.T) {
	require.Error(t, NewMemoryStore().Initialize(domain.VehicleSimulationState{}))
}

func TestMemoryStore_CommitTick(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(activeState("van-1")))

	at := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	got, err := s.CommitTick(ports.TickUpdate{
		VehicleID:     "van-1",
		Position:      domain.Coordinates{Lon: 1, Lat: 2},
		RouteProgress: 0.4,
		SpeedMph:      25,
		NewDeliveries: []int{7, 7, 3},
		At:            at,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.4, got.RouteProgress)
	assert.Equal(t, []int{7, 3}, got.DeliveredPackageIDs)
	assert.Equal(t, domain.Coordinates{Lon: 1, Lat: 2}, got.Position)
	assert.Equal(t, at, got.LastUpdate)

	got, err = s.CommitTick(ports.TickUpdate{VehicleID: "van-1", RouteProgress: 0.4, NewDeliveries: []int{3, 9}})
	require.NoError(t, err)
	assert.Equal(t, []int{7, 3, 9}, got.DeliveredPackageIDs)
}

func TestMemoryStore_CommitTickRejectsRegression(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(activeState("van-1")))

	_, err := s.CommitTick(ports.TickUpdate{VehicleID: "van-1", RouteProgress: 0.5})
	require.NoError(t, err)

	_, err = s.CommitTick(ports.TickUpdate{VehicleID: "van-1", RouteProgress: 0.3, NewDeliveries: []int{1}})
	require.ErrorIs(t, err, ports.ErrProgressRegression)

	got, _ := s.Get("van-1")
	assert.Equal(t, 0.5, got.RouteProgress)
	assert.Empty(t, got.DeliveredPackageIDs)
}

func TestMemoryStore_CommitTickRejectsOutOfRange(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(activeState("van-1")))

	_, err := s.CommitTick(ports.TickUpdate{VehicleID: "van-1", RouteProgress: 1.2})
	require.Error(t, err)
}

func TestMemoryStore_CommitTickInactiveOrMissing(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(domain.VehicleSimulationState{VehicleID: "van-1"}))

	_, err := s.CommitTick(ports.TickUpdate{VehicleID: "van-1", RouteProgress: 0.1})
	require.ErrorIs(t, err, ports.ErrVehicleInactive)

	_, err = s.CommitTick(ports.TickUpdate{VehicleID: "nope", RouteProgress: 0.1})
	require.ErrorIs(t, err, ports.ErrVehicleNotFound)
}

func TestMemoryStore_CompleteDeactivates(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(activeState("van-1")))

	got, err := s.CommitTick(ports.TickUpdate{VehicleID: "van-1", RouteProgress: 1, SpeedMph: 30, Complete: true})
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 0.0, got.SpeedMph)

	_, err = s.CommitTick(ports.TickUpdate{VehicleID: "van-1", RouteProgress: 1})
	require.ErrorIs(t, err, ports.ErrVehicleInactive)
}

func TestMemoryStore_SetActiveRemoveClear(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(domain.VehicleSimulationState{VehicleID: "van-1"}))
	require.NoError(t, s.Initialize(domain.VehicleSimulationState{VehicleID: "van-2"}))

	require.NoError(t, s.SetActive("van-1", true))
	got, _ := s.Get("van-1")
	assert.True(t, got.IsActive)

	require.ErrorIs(t, s.SetActive("nope", true), ports.ErrVehicleNotFound)

	s.Remove("van-1")
	_, ok := s.Get("van-1")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(activeState("van-1")))
	_, err := s.CommitTick(ports.TickUpdate{VehicleID: "van-1", RouteProgress: 0.1, NewDeliveries: []int{1}})
	require.NoError(t, err)

	got, _ := s.Get("van-1")
	got.DeliveredPackageIDs[0] = 42

	again, _ := s.Get("van-1")
	assert.Equal(t, []int{1}, again.DeliveredPackageIDs)
}

// Readers must never see progress past a waypoint without its delivery.
func TestMemoryStore_CommitIsAtomicForReaders(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Initialize(activeState("van-1")))

	const steps = 500
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= steps; i++ {
			_, err := s.CommitTick(ports.TickUpdate{
				VehicleID:     "van-1",
				RouteProgress: float64(i) / steps,
				NewDeliveries: []int{i},
			})
			if err != nil {
				t.Errorf("commit %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < steps; i++ {
				st, _ := s.Get("van-1")
				want := int(st.RouteProgress*steps + 0.5)
				if len(st.DeliveredPackageIDs) != want {
					t.Errorf("progress %v with %d deliveries, want %d", st.RouteProgress, len(st.DeliveredPackageIDs), want)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestMemoryStore_CommitTickRejectsStaleSession(t *testing.T) {
	s := NewMemoryStore()
	st := activeState("van-1")
	st.SessionID = "second"
	require.NoError(t, s.Initialize(st))

	_, err := s.CommitTick(ports.TickUpdate{VehicleID: "van-1", SessionID: "first", RouteProgress: 0.5, NewDeliveries: []int{1}})
	require.ErrorIs(t, err, ports.ErrVehicleInactive)

	got, ok := s.Get("van-1")
	require.True(t, ok)
	assert.Zero(t, got.RouteProgress)
	assert.Empty(t, got.DeliveredPackageIDs)

	got, err = s.CommitTick(ports.TickUpdate{VehicleID: "van-1", SessionID: "second", RouteProgress: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "second", got.SessionID)
}
