package domain

import (
	"math"
	"testing"
)

func TestVehicleLoad(t *testing.T) {
	pkg1 := &Package{PackageID: 1, Destination: "A"}
	pkg2 := &Package{PackageID: 2, Destination: "B"}
	pkg3 := &Package{PackageID: 3, Destination: "C"}

	v := NewVehicle("van-1", 2, "HUB")

	if err := v.LoadMultiple([]*Package{pkg1, pkg2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := v.Load(pkg3); err == nil {
		t.Fatalf("expected capacity error loading third package")
	}

	if len(v.Packages) != 2 {
		t.Fatalf("packages = %d, want 2", len(v.Packages))
	}

	for _, pkg := range v.Packages {
		if pkg.VehicleID != "van-1" {
			t.Errorf("package %d VehicleID = %q, want van-1", pkg.PackageID, pkg.VehicleID)
		}
	}

	v.Clear()
	if len(v.Packages) != 0 {
		t.Fatalf("expected empty vehicle after Clear, got %d packages", len(v.Packages))
	}
}

func TestVehicleLoadUnbounded(t *testing.T) {
	v := NewVehicle("van-2", 0, "HUB")
	for i := 1; i <= 50; i++ {
		if err := v.Load(&Package{PackageID: i}); err != nil {
			t.Fatalf("unexpected error at package %d: %v", i, err)
		}
	}
}

func TestPackageDestinationCoordinates(t *testing.T) {
	lat, lon := 33.45, -112.07
	badLat := 123.0
	nan := math.NaN()

	tests := []struct {
		name string
		pkg  *Package
		ok   bool
	}{
		{name: "valid", pkg: &Package{DestinationLat: &lat, DestinationLon: &lon}, ok: true},
		{name: "missing lat", pkg: &Package{DestinationLon: &lon}, ok: false},
		{name: "missing lon", pkg: &Package{DestinationLat: &lat}, ok: false},
		{name: "out of range", pkg: &Package{DestinationLat: &badLat, DestinationLon: &lon}, ok: false},
		{name: "nan", pkg: &Package{DestinationLat: &nan, DestinationLon: &lon}, ok: false},
		{name: "nil package", pkg: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := tt.pkg.DestinationCoordinates()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (c.Lat != lat || c.Lon != lon) {
				t.Errorf("coordinates = %+v, want lat=%v lon=%v", c, lat, lon)
			}
		})
	}
}

func TestVehicleSimulationStateClone(t *testing.T) {
	s := VehicleSimulationState{VehicleID: "van-1", DeliveredPackageIDs: []int{1, 2}}
	c := s.Clone()
	c.DeliveredPackageIDs[0] = 99

	if s.DeliveredPackageIDs[0] != 1 {
		t.Fatalf("clone shares delivered slice with original")
	}
	if !s.HasDelivered(2) || s.HasDelivered(3) {
		t.Fatalf("HasDelivered returned unexpected result")
	}
}
