package realtime

import (
	"bytes"
	"context"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/ports"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisSink(t *testing.T) (*RedisSink, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sink := NewRedisSink(client)
	fixed := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return fixed }
	return sink, client, mr
}

func TestRedisSinkPosition(t *testing.T) {
	sink, client, mr := newRedisSink(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, PositionsChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, sink.PositionUpdated(ctx, "van-1", domain.Coordinates{Lon: -112.07, Lat: 33.45}, 27.5, 0.25))

	assert.Equal(t, "-112.07", mr.HGet(positionKey("van-1"), "lon"))
	assert.Equal(t, "33.45", mr.HGet(positionKey("van-1"), "lat"))
	assert.Equal(t, "0.25", mr.HGet(positionKey("van-1"), "route_progress"))

	select {
	case msg := <-sub.Channel():
		var got PositionMessage
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "van-1", got.VehicleID)
		assert.Equal(t, 27.5, got.SpeedMph)
		assert.Equal(t, 0.25, got.RouteProgress)
	case <-time.After(2 * time.Second):
		t.Fatal("no position message published")
	}
}

func TestRedisSinkDeliveryAndCompletion(t *testing.T) {
	sink, client, mr := newRedisSink(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, DeliveriesChannel, CompletionsChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	ev := ports.DeliveryEvent{
		SessionID:   "s-1",
		VehicleID:   "van-1",
		PackageID:   42,
		Destination: "12 Elm St",
		Coordinates: domain.Coordinates{Lon: 1, Lat: 2},
		DeliveredAt: time.Date(2026, 1, 1, 8, 5, 0, 0, time.UTC),
	}
	require.NoError(t, sink.PackageDelivered(ctx, ev))
	require.NoError(t, sink.SessionCompleted(ctx, "van-1"))

	members, err := mr.Members(deliveredKey("van-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, members)
	assert.NotEmpty(t, mr.HGet(positionKey("van-1"), "completed_at"))

	got := map[string]string{}
	for len(got) < 2 {
		select {
		case msg := <-sub.Channel():
			got[msg.Channel] = msg.Payload
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 2 messages, got %v", got)
		}
	}

	var delivery DeliveryMessage
	require.NoError(t, json.Unmarshal([]byte(got[DeliveriesChannel]), &delivery))
	assert.Equal(t, 42, delivery.PackageID)
	assert.Equal(t, "12 Elm St", delivery.Destination)

	var done CompletionMessage
	require.NoError(t, json.Unmarshal([]byte(got[CompletionsChannel]), &done))
	assert.Equal(t, "van-1", done.VehicleID)

	require.NoError(t, sink.Forget(ctx, "van-1"))
	assert.False(t, mr.Exists(positionKey("van-1")))
	assert.False(t, mr.Exists(deliveredKey("van-1")))
}

func TestRedisSinkServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	sink := NewRedisSink(client)
	mr.Close()

	err = sink.PositionUpdated(context.Background(), "van-1", domain.Coordinates{}, 0, 0)
	assert.Error(t, err)
}

type recordingRepo struct {
	ports.PackageRepository
	marked map[int]time.Time
	err    error
}

func (r *recordingRepo) MarkDelivered(_ context.Context, id int, at time.Time) error {
	if r.err != nil {
		return r.err
	}
	if r.marked == nil {
		r.marked = map[int]time.Time{}
	}
	r.marked[id] = at
	return nil
}

func TestRepositorySink(t *testing.T) {
	repo := &recordingRepo{}
	sink := NewRepositorySink(repo)
	at := time.Now()

	require.NoError(t, sink.PositionUpdated(context.Background(), "van-1", domain.Coordinates{}, 1, 0.1))
	require.NoError(t, sink.PackageDelivered(context.Background(), ports.DeliveryEvent{PackageID: 7, DeliveredAt: at}))
	require.NoError(t, sink.SessionCompleted(context.Background(), "van-1"))
	assert.Equal(t, map[int]time.Time{7: at}, repo.marked)
}

func TestMultiSinkContinuesPastFailures(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordingRepo{err: boom}
	ok := &recordingRepo{}

	var buf bytes.Buffer
	multi := MultiSink{
		NewRepositorySink(failing),
		NewRepositorySink(ok),
		NewLogSink(zerolog.New(&buf)),
	}

	err := multi.PackageDelivered(context.Background(), ports.DeliveryEvent{VehicleID: "van-1", PackageID: 3})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, ok.marked, 3)
	assert.Contains(t, buf.String(), `"package_id":3`)

	require.NoError(t, multi.SessionCompleted(context.Background(), "van-1"))
	assert.Contains(t, buf.String(), "route complete")
}
