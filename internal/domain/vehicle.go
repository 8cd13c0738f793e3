package domain

import "fmt"

// Delivery vehicle aggregate holding the packages it carries on a simulated run.
type Vehicle struct {
	VehicleID     string
	Name          string
	StartLocation string
	Capacity      int
	SpeedMph      float64
	Packages      []*Package
}

func NewVehicle(id string, capacity int, hub string) *Vehicle {
	return &Vehicle{
		VehicleID:     id,
		Capacity:      capacity,
		StartLocation: hub,
	}
}

// Load a single package onto the vehicle.
// A non-positive capacity means the vehicle is unbounded.
func (v *Vehicle) Load(pkg *Package) error {
	if v.Capacity > 0 && len(v.Packages) >= v.Capacity {
		return fmt.Errorf("load vehicle: vehicle %s is at full capacity (capacity=%d)", v.VehicleID, v.Capacity)
	}
	pkg.VehicleID = v.VehicleID
	v.Packages = append(v.Packages, pkg)
	return nil
}

// Load multiple packages onto the vehicle.
func (v *Vehicle) LoadMultiple(pkgs []*Package) error {
	for _, pkg := range pkgs {
		if err := v.Load(pkg); err != nil {
			return err
		}
	}

	return nil
}

// Unload all packages from the vehicle.
func (v *Vehicle) Clear() {
	v.Packages = nil
}
