package services

import (
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"math"
)

// MetersPerSecondPerMph converts miles per hour to meters per second.
const MetersPerSecondPerMph = 0.44704

// SpeedProfile shapes the displayed speed along a route. It is cosmetic:
// deliveries depend on progress only, never on the profile's shape.
type SpeedProfile struct {
	// RampFraction is the share of progress spent accelerating at the start
	// and decelerating at the end.
	RampFraction float64
	// MinRampFactor keeps the vehicle moving at the very start and end of a ramp.
	MinRampFactor float64
	// VariationAmplitude and VariationCycles describe a sinusoidal wobble
	// applied between the ramps.
	VariationAmplitude float64
	VariationCycles    float64
}

// DefaultSpeedProfile ramps over the first and last 5% of the route.
func DefaultSpeedProfile() SpeedProfile {
	return SpeedProfile{
		RampFraction:       0.05,
		MinRampFactor:      0.2,
		VariationAmplitude: 0.08,
		VariationCycles:    6,
	}
}

// FlatProfile runs at the base speed for the whole route.
func FlatProfile() SpeedProfile {
	return SpeedProfile{}
}

// Factor returns the multiplier applied to the base speed at the given progress.
func (p SpeedProfile) Factor(progress float64) float64 {
	progress = math.Max(0, math.Min(1, progress))

	factor := 1.0
	if p.RampFraction > 0 {
		floor := math.Max(0, math.Min(1, p.MinRampFactor))
		switch {
		case progress < p.RampFraction:
			factor = floor + (1-floor)*progress/p.RampFraction
		case progress > 1-p.RampFraction:
			factor = floor + (1-floor)*(1-progress)/p.RampFraction
		}
		if factor < 1 {
			return math.Max(factor, floor)
		}
	}

	if p.VariationAmplitude > 0 {
		factor += p.VariationAmplitude * math.Sin(2*math.Pi*p.VariationCycles*progress)
	}
	return math.Max(factor, 0)
}

// ClockStep is the outcome of advancing a vehicle by one tick.
type ClockStep struct {
	Progress       float64
	Position       domain.Coordinates
	SpeedMph       float64
	DistanceMeters float64
}

// ProgressClock converts elapsed simulated time into route progress.
type ProgressClock struct {
	route   *geo.Route
	profile SpeedProfile
}

func NewProgressClock(route *geo.Route, profile SpeedProfile) *ProgressClock {
	return &ProgressClock{route: route, profile: profile}
}

// Advance moves a vehicle at current progress forward by dt seconds of
// simulated time, scaled by fastForward.
//
// Progress is monotonic and capped at 1: a non-positive or non-finite
// travel distance, or a zero-length route, leaves progress where it was.
func (c *ProgressClock) Advance(current, dt, speedMph, fastForward float64) ClockStep {
	if math.IsNaN(current) || current < 0 {
		current = 0
	}
	current = math.Min(current, 1)

	speed := speedMph * c.profile.Factor(current)
	step := ClockStep{
		Progress: current,
		Position: c.route.PositionAt(current),
		SpeedMph: speed,
	}

	total := c.route.TotalMeters()
	if total <= 0 || current >= 1 {
		step.SpeedMph = 0
		return step
	}

	dist := speed * MetersPerSecondPerMph * dt * fastForward
	if math.IsNaN(dist) || math.IsInf(dist, 0) || dist <= 0 {
		return step
	}

	next := math.Min(1, current+dist/total)
	if next <= current {
		return step
	}

	step.Progress = next
	step.Position = c.route.PositionAt(next)
	step.DistanceMeters = (next - current) * total
	return step
}
