package services

import (
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"math"
	"testing"
)

func TestProgressClockAdvanceFlat(t *testing.T) {
	clock := NewProgressClock(geo.NewRoute(equatorPath(1)), FlatProfile())

	// 10 m/s for 10 s covers 100 m of a 1 km route.
	speedMph := 10 / MetersPerSecondPerMph
	step := clock.Advance(0, 10, speedMph, 1)

	if !approx(step.Progress, 0.1, 1e-6) {
		t.Fatalf("expected progress 0.1, got %v", step.Progress)
	}
	if !approx(step.DistanceMeters, 100, 1e-3) {
		t.Fatalf("expected 100m, got %v", step.DistanceMeters)
	}
	if !approx(step.Position.Lon, 0.1/kmPerDegree, 1e-9) {
		t.Fatalf("unexpected position %+v", step.Position)
	}
}

func TestProgressClockFastForwardScales(t *testing.T) {
	clock := NewProgressClock(geo.NewRoute(equatorPath(10)), FlatProfile())

	slow := clock.Advance(0.2, 5, 30, 1)
	fast := clock.Advance(0.2, 5, 30, 4)

	if !approx((fast.Progress-0.2), 4*(slow.Progress-0.2), 1e-9) {
		t.Fatalf("expected 4x advance, got %v vs %v", fast.Progress-0.2, slow.Progress-0.2)
	}
}

func TestProgressClockMonotonicAndCapped(t *testing.T) {
	clock := NewProgressClock(geo.NewRoute(equatorPath(1)), DefaultSpeedProfile())

	progress := 0.0
	for i := 0; i < 10_000 && progress < 1; i++ {
		step := clock.Advance(progress, 1, 35, 3)
		if step.Progress < progress {
			t.Fatalf("progress went backwards: %v -> %v", progress, step.Progress)
		}
		if step.Progress > 1 {
			t.Fatalf("progress exceeded 1: %v", step.Progress)
		}
		progress = step.Progress
	}

	if progress != 1 {
		t.Fatalf("expected to finish the route, stuck at %v", progress)
	}

	end := clock.Advance(1, 1, 35, 1)
	if end.Progress != 1 || end.SpeedMph != 0 {
		t.Fatalf("expected a parked vehicle at the end, got %+v", end)
	}
}

func TestProgressClockIgnoresBadInput(t *testing.T) {
	clock := NewProgressClock(geo.NewRoute(equatorPath(1)), FlatProfile())

	cases := []struct {
		name        string
		dt, speed   float64
		fastForward float64
	}{
		{"zero dt", 0, 30, 1},
		{"negative dt", -5, 30, 1},
		{"zero speed", 1, 0, 1},
		{"nan speed", 1, math.NaN(), 1},
		{"inf dt", math.Inf(1), 30, 1},
		{"zero fast forward", 1, 30, 0},
	}

	for _, tc := range cases {
		step := clock.Advance(0.4, tc.dt, tc.speed, tc.fastForward)
		if step.Progress != 0.4 {
			t.Fatalf("%s: expected progress to stay at 0.4, got %v", tc.name, step.Progress)
		}
	}
}

func TestProgressClockZeroLengthRoute(t *testing.T) {
	route := geo.NewRoute(domain.Path{{Lon: 1, Lat: 1}, {Lon: 1, Lat: 1}})
	clock := NewProgressClock(route, FlatProfile())

	step := clock.Advance(0, 10, 30, 1)
	if step.Progress != 0 || step.SpeedMph != 0 {
		t.Fatalf("expected no movement on a zero-length route, got %+v", step)
	}
}

func TestSpeedProfileFactor(t *testing.T) {
	p := DefaultSpeedProfile()

	if f := p.Factor(0); !approx(f, p.MinRampFactor, 1e-9) {
		t.Fatalf("expected ramp floor at start, got %v", f)
	}
	if f := p.Factor(1); !approx(f, p.MinRampFactor, 1e-9) {
		t.Fatalf("expected ramp floor at end, got %v", f)
	}
	if p.Factor(0.01) >= p.Factor(0.04) {
		t.Fatal("expected speed to increase through the start ramp")
	}

	for x := 0.0; x <= 1; x += 0.01 {
		f := p.Factor(x)
		if f <= 0 || f > 1+p.VariationAmplitude+1e-9 {
			t.Fatalf("factor %v out of range at %v", f, x)
		}
	}

	if f := FlatProfile().Factor(0.37); f != 1 {
		t.Fatalf("expected flat factor 1, got %v", f)
	}
}
