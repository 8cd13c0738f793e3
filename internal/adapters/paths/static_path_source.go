package paths

import (
	"context"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"fmt"
	"os"
	"sync"
)

// StaticPathSource serves fixed paths per vehicle, falling back to a
// default path when one is set. Used by tests and offline runs.
type StaticPathSource struct {
	mu       sync.RWMutex
	paths    map[string]domain.Path
	fallback domain.Path
}

func NewStaticPathSource(paths map[string]domain.Path) *StaticPathSource {
	s := &StaticPathSource{paths: make(map[string]domain.Path, len(paths))}
	for id, p := range paths {
		s.paths[id] = p.Clone()
	}
	return s
}

// LoadStaticPathSource reads a GeoJSON path from file and serves it to
// every vehicle.
func LoadStaticPathSource(file string) (*StaticPathSource, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("load static path: %w", err)
	}
	path, err := geo.ParseGeoJSONPath(raw)
	if err != nil {
		return nil, fmt.Errorf("load static path %q: %w", file, err)
	}

	s := NewStaticPathSource(nil)
	s.SetDefault(path)
	return s, nil
}

func (s *StaticPathSource) Set(vehicleID string, path domain.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[vehicleID] = path.Clone()
}

func (s *StaticPathSource) SetDefault(path domain.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = path.Clone()
}

func (s *StaticPathSource) GetPath(_ context.Context, vehicle *domain.Vehicle) (domain.Path, error) {
	if vehicle == nil {
		return nil, fmt.Errorf("static path: vehicle is nil")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.paths[vehicle.VehicleID]; ok {
		return p.Clone(), nil
	}
	if s.fallback != nil {
		return s.fallback.Clone(), nil
	}
	return nil, fmt.Errorf("static path: no path for vehicle %s", vehicle.VehicleID)
}
