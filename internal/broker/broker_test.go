package broker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBroker(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return newTestClient(rdb, zap.NewNop()), mr
}

func TestPublishAndReadAfter(t *testing.T) {
	c, _ := newTestBroker(t)
	ctx := context.Background()

	id, err := c.Publish(ctx, "raw", map[string]string{"message": "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs, err := c.ReadAfter(ctx, "raw", "0-0", 10, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "hello", msgs[0].Fields["message"])
	require.Equal(t, id, msgs[0].ID)
}

func TestReadAfter_NoNewEntries(t *testing.T) {
	c, _ := newTestBroker(t)
	ctx := context.Background()

	id, err := c.Publish(ctx, "raw", map[string]string{"message": "hello"})
	require.NoError(t, err)

	msgs, err := c.ReadAfter(ctx, "raw", id, 10, 50*time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestCursorPersistence(t *testing.T) {
	c, _ := newTestBroker(t)
	ctx := context.Background()

	v, err := c.GetCursor(ctx, "writer:last_id")
	require.NoError(t, err)
	require.Equal(t, "0-0", v)

	require.NoError(t, c.SetCursor(ctx, "writer:last_id", "5-0"))

	v, err = c.GetCursor(ctx, "writer:last_id")
	require.NoError(t, err)
	require.Equal(t, "5-0", v)
}

func TestEnsureGroup_IdempotentOnBusyGroup(t *testing.T) {
	c, _ := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, c.EnsureGroup(ctx, "filtered", "writer"))
	require.NoError(t, c.EnsureGroup(ctx, "filtered", "writer"))
}

func TestReadGroupAndAck(t *testing.T) {
	c, _ := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, c.EnsureGroup(ctx, "filtered", "writer"))

	id, err := c.Publish(ctx, "filtered", map[string]string{"x": "1"})
	require.NoError(t, err)

	msgs, err := c.ReadGroup(ctx, "filtered", "writer", "writer-1", 10, 50*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, id, msgs[0].ID)

	require.NoError(t, c.Ack(ctx, "filtered", "writer", id))

	// A fresh consumer in the same group sees nothing new.
	msgs, err = c.ReadGroup(ctx, "filtered", "writer", "writer-2", 10, 50*time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

// TestTouchWindow_ThresholdTimeline walks a window-fill and eviction
// timeline through the broker's raw window primitive, independent of
// the streamcorr worker that decides whether to alert.
func TestTouchWindow_ThresholdTimeline(t *testing.T) {
	c, _ := newTestBroker(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	at := func(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

	// t=0,10,20: size climbs to 3, third event crosses the threshold.
	for i, sec := range []int{0, 10, 20} {
		state, err := c.TouchWindow(ctx, "r1", "u1", idFor(i), at(sec), 60)
		require.NoError(t, err)
		require.Equal(t, int64(i+1), state.Size)
		require.False(t, state.HasLastAlert)
	}
	require.NoError(t, c.SetLastAlert(ctx, "r1", "u1", at(20)))

	// t=30: within the window since the t=20 alert (10s elapsed < 60s).
	state, err := c.TouchWindow(ctx, "r1", "u1", idFor(3), at(30), 60)
	require.NoError(t, err)
	require.Equal(t, int64(4), state.Size)
	require.True(t, state.HasLastAlert)
	require.Equal(t, float64(at(20).Unix()), state.LastAlertTS)

	// t=80: t=0,10,20 evicted (score <= 80-60=20), leaving {30,80} = 2.
	state, err = c.TouchWindow(ctx, "r1", "u1", idFor(4), at(80), 60)
	require.NoError(t, err)
	require.Equal(t, int64(2), state.Size)

	// t=90: insert, then evict score <= 30 -> removes the t=30 member,
	// leaving {80,90} = 2.
	state, err = c.TouchWindow(ctx, "r1", "u1", idFor(5), at(90), 60)
	require.NoError(t, err)
	require.Equal(t, int64(2), state.Size)

	// t=100: {80,90,100} = 3, last_alert_ts is still 20 -> 80s elapsed
	// exceeds the 60s window, so this would emit a new alert.
	state, err = c.TouchWindow(ctx, "r1", "u1", idFor(6), at(100), 60)
	require.NoError(t, err)
	require.Equal(t, int64(3), state.Size)
	require.True(t, state.HasLastAlert)
	require.Equal(t, float64(at(20).Unix()), state.LastAlertTS)
	require.Greater(t, at(100).Sub(at(20)), 60*time.Second)
}

func idFor(i int) string {
	return "msg-" + string(rune('a'+i))
}
