package scenario

import (
	"context"
	"delivery-sim-service/internal/services"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const equator = `[[0,0],[0.01,0],[0.02,0]]`

func runJSON(t *testing.T, input string) Output {
	t.Helper()
	raw, err := RunJSON(input)
	require.NoError(t, err)

	var out Output
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestRunDeliversMidpointPackage(t *testing.T) {
	out := runJSON(t, `{
		"path": `+equator+`,
		"packages": [{"id": 7, "lat": 0, "lon": 0.01}],
		"speed_mph": 30,
		"time_step": 10,
		"flat_speed": true
	}`)

	require.Len(t, out.Waypoints, 1)
	assert.InDelta(t, 0.5, out.Waypoints[0].RouteProgress, 1e-9)
	assert.InDelta(t, 2223.9, out.PathMeters, 1)

	require.Len(t, out.Deliveries, 1)
	assert.Equal(t, 7, out.Deliveries[0].PackageID)
	assert.True(t, out.Completed)
	assert.Equal(t, len(out.Ticks), out.CompletedAtTick)

	prev := 0.0
	for _, tk := range out.Ticks {
		assert.GreaterOrEqual(t, tk.RouteProgress, prev)
		prev = tk.RouteProgress
	}
	assert.InDelta(t, 1.0, prev, 1e-12)

	// The delivery fires on the first tick that reaches or passes 0.5.
	d := out.Deliveries[0]
	assert.GreaterOrEqual(t, out.Ticks[d.Tick-1].RouteProgress, 0.5-services.DefaultDeliveryTolerance)
	if d.Tick > 1 {
		assert.Less(t, out.Ticks[d.Tick-2].RouteProgress, 0.5-services.DefaultDeliveryTolerance)
	}
}

func TestRunSingleTickDeliversAllInOrder(t *testing.T) {
	out := runJSON(t, `{
		"path": `+equator+`,
		"packages": [
			{"id": 3, "lat": 0, "lon": 0.015},
			{"id": 1, "lat": 0, "lon": 0.005},
			{"id": 2, "lat": 0, "lon": 0.01}
		],
		"speed_mph": 30,
		"fast_forward": 10000
	}`)

	require.Len(t, out.Ticks, 1)
	assert.Equal(t, []int{1, 2, 3}, out.Ticks[0].Delivered)
	assert.True(t, out.Completed)
	assert.Equal(t, 1, out.CompletedAtTick)
	assert.Equal(t, 0.0, out.Ticks[0].SpeedMph)

	// Completion pins the vehicle to the last delivered stop.
	assert.InDelta(t, 0.015, out.FinalPosition[0], 1e-9)
	assert.InDelta(t, 0.0, out.FinalPosition[1], 1e-9)
}

func TestRunStopsAtMaxTicks(t *testing.T) {
	out := runJSON(t, `{
		"path": `+equator+`,
		"packages": [{"id": 1, "lat": 0, "lon": 0.019}],
		"speed_mph": 10,
		"max_ticks": 3
	}`)

	assert.Len(t, out.Ticks, 3)
	assert.False(t, out.Completed)
	assert.Empty(t, out.Deliveries)
	assert.Zero(t, out.CompletedAtTick)
	assert.InDelta(t, 3.0, out.Ticks[2].SimSeconds, 1e-9)
}

func TestRunReportsSkippedPackages(t *testing.T) {
	out := runJSON(t, `{
		"path": {"type": "LineString", "coordinates": `+equator+`},
		"packages": [
			{"id": 1, "lat": 0.001, "lon": 0.01},
			{"id": 2, "lat": 0.1, "lon": 0.01}
		],
		"max_offset_meters": 500,
		"fast_forward": 1000
	}`)

	require.Len(t, out.Waypoints, 1)
	assert.Equal(t, 1, out.Waypoints[0].PackageID)
	assert.InDelta(t, 111.2, out.Waypoints[0].DistanceFromPath, 1)

	require.Len(t, out.Skipped, 1)
	assert.Equal(t, 2, out.Skipped[0].PackageID)
	assert.Equal(t, string(services.SkipTooFarFromPath), out.Skipped[0].Reason)
	assert.True(t, out.Completed)
}

func TestRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `nope`},
		{"unknown field", `{"path": ` + equator + `, "speed": 3}`},
		{"missing path", `{"packages": [{"id": 1, "lat": 0, "lon": 0.01}]}`},
		{"single point", `{"path": [[0,0]], "packages": [{"id": 1, "lat": 0, "lon": 0}]}`},
		{"negative step", `{"path": ` + equator + `, "time_step": -1, "packages": [{"id": 1, "lat": 0, "lon": 0.01}]}`},
		{"negative ticks", `{"path": ` + equator + `, "max_ticks": -5, "packages": [{"id": 1, "lat": 0, "lon": 0.01}]}`},
		{"no packages", `{"path": ` + equator + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunJSON(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestRunNoDeliverablePackages(t *testing.T) {
	var in Input
	require.NoError(t, json.Unmarshal([]byte(`{"path": `+equator+`, "packages": [{"id": 1, "lat": 1, "lon": 0.01}]}`), &in))

	_, err := Run(context.Background(), in)
	assert.ErrorIs(t, err, services.ErrNoWaypoints)
}
