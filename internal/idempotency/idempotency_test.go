package idempotency_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkstone/spark-bot/internal/idempotency"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGuard(t *testing.T) *idempotency.Guard {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return idempotency.NewGuard(idempotency.NewRedisStore(client, testLogger()), testLogger())
}

func TestKey(t *testing.T) {
	assert.Equal(t, idempotency.Key("cb", "1", 42), idempotency.Key("cb", "1", 42))
	assert.NotEqual(t, idempotency.Key("cb", "1", 42), idempotency.Key("cb", "1", 43))
	assert.Len(t, idempotency.Key("x"), 64)
}

func TestGuard_ExecuteOnce(t *testing.T) {
	guard := newGuard(t)
	ctx := context.Background()

	calls := 0
	op := func(ctx context.Context) (interface{}, error) {
		calls++
		return "opened box #1", nil
	}

	res, err := guard.Execute(ctx, "k1", time.Hour, op)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "opened box #1", res.Response)
	assert.Equal(t, 1, calls)

	// A later duplicate replays the cached response without re-running.
	res, err = guard.Execute(ctx, "k1", time.Hour, op)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "opened box #1", res.Response)
	assert.Equal(t, 1, calls)
}

func TestGuard_DistinctKeysRunIndependently(t *testing.T) {
	guard := newGuard(t)
	ctx := context.Background()

	calls := 0
	op := func(ctx context.Context) (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := guard.Execute(ctx, "a", time.Hour, op)
	require.NoError(t, err)
	_, err = guard.Execute(ctx, "b", time.Hour, op)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGuard_ConcurrentDuplicateGetsErrInFlight(t *testing.T) {
	guard := newGuard(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		_, err := guard.Execute(ctx, "k1", time.Hour, func(ctx context.Context) (interface{}, error) {
			close(entered)
			<-release
			return "done", nil
		})
		firstDone <- err
	}()

	<-entered
	_, err := guard.Execute(ctx, "k1", time.Hour, func(ctx context.Context) (interface{}, error) {
		return "must not run", nil
	})
	require.ErrorIs(t, err, idempotency.ErrInFlight)

	close(release)
	require.NoError(t, <-firstDone)
}

func TestGuard_ErrorsAreNotCached(t *testing.T) {
	guard := newGuard(t)
	ctx := context.Background()

	calls := 0
	boom := errors.New("storage hiccup")
	op := func(ctx context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	_, err := guard.Execute(ctx, "k1", time.Hour, op)
	require.ErrorIs(t, err, boom)

	// The retry runs the operation again and succeeds.
	res, err := guard.Execute(ctx, "k1", time.Hour, op)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "recovered", res.Response)
	assert.Equal(t, 2, calls)
}

func TestGuard_NilOperationRejected(t *testing.T) {
	guard := newGuard(t)
	_, err := guard.Execute(context.Background(), "k1", time.Hour, nil)
	require.Error(t, err)
}
