package domain

import "math"

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Valid reports whether both components are finite and inside WGS84 bounds.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lon) || math.IsNaN(c.Lat) || math.IsInf(c.Lon, 0) || math.IsInf(c.Lat, 0) {
		return false
	}
	return c.Lon >= -180 && c.Lon <= 180 && c.Lat >= -90 && c.Lat <= 90
}

// Path is the ordered polyline a vehicle travels along.
// A Path is treated as immutable once it has been assigned to a session.
type Path []Coordinates

// Start returns the first coordinate of the path, or the zero value for an empty path.
func (p Path) Start() Coordinates {
	if len(p) == 0 {
		return Coordinates{}
	}
	return p[0]
}

// End returns the last coordinate of the path, or the zero value for an empty path.
func (p Path) End() Coordinates {
	if len(p) == 0 {
		return Coordinates{}
	}
	return p[len(p)-1]
}

// Clone returns a copy that shares no backing array with p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}
