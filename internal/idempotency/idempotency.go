// Package idempotency guards economy-mutating operations against duplicate
// delivery. Telegram re-sends updates after timeouts, and a re-delivered
// "open loot box" press must not grant a second reward, so each mutating
// update executes at most once per key within the retention window.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrInFlight is returned when another delivery of the same update is still
// executing.
var ErrInFlight = errors.New("duplicate update is already being processed")

const (
	statusProcessing = "processing"
	statusCompleted  = "completed"

	lockTTL      = 5 * time.Minute
	pollInterval = 100 * time.Millisecond
)

// Key builds a deterministic idempotency key from the update's identifying
// parts (user id, command, message or callback id).
func Key(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Operation is the guarded unit of work. Its return value is cached and
// replayed to later deliveries of the same update.
type Operation func(ctx context.Context) (interface{}, error)

// Result carries the operation outcome and whether it was served from cache.
type Result struct {
	Response  interface{}
	FromCache bool
}

type record struct {
	Status   string
	Response []byte
}

// Store persists idempotency records. The Redis implementation is the only
// production one; tests use it against miniredis.
type Store interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (*record, error)
	Set(ctx context.Context, key string, rec *record, ttl time.Duration) error
	Unlock(ctx context.Context, key string) error
}

// Guard executes operations at most once per key.
type Guard struct {
	store Store
	log   *slog.Logger
}

func NewGuard(store Store, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{store: store, log: log}
}

// Execute runs fn once for the key. Concurrent duplicates get ErrInFlight;
// later duplicates within ttl get the cached first response. Operation errors
// are not cached, so a failed mutation may be retried.
func (g *Guard) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	for {
		locked, err := g.store.Lock(ctx, key, lockTTL)
		if err != nil {
			return nil, err
		}

		if !locked {
			rec, err := g.store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if rec == nil {
				// Lock held but no record yet: the first delivery is mid-flight
				// and may finish any moment.
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(pollInterval):
					continue
				}
			}
			if rec.Status == statusCompleted {
				var response interface{}
				if len(rec.Response) > 0 {
					if err := json.Unmarshal(rec.Response, &response); err != nil {
						return nil, err
					}
				}
				g.log.Debug("duplicate update served from cache", slog.String("key", key))
				return &Result{Response: response, FromCache: true}, nil
			}
			return nil, ErrInFlight
		}

		defer g.store.Unlock(ctx, key)

		// The lock outlives the record only while the first delivery is
		// mid-flight; a re-acquired lock after completion must still replay
		// the cached response instead of running fn again.
		rec, err := g.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if rec != nil && rec.Status == statusCompleted {
			var response interface{}
			if len(rec.Response) > 0 {
				if err := json.Unmarshal(rec.Response, &response); err != nil {
					return nil, err
				}
			}
			g.log.Debug("duplicate update served from cache", slog.String("key", key))
			return &Result{Response: response, FromCache: true}, nil
		}

		// Mark the key in flight so concurrent duplicates fail fast with
		// ErrInFlight instead of polling out the whole lock TTL.
		if err := g.store.Set(ctx, key, &record{Status: statusProcessing}, lockTTL); err != nil {
			return nil, err
		}

		response, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		encoded, err := json.Marshal(response)
		if err != nil {
			return nil, err
		}
		if err := g.store.Set(ctx, key, &record{Status: statusCompleted, Response: encoded}, ttl); err != nil {
			return nil, err
		}
		return &Result{Response: response}, nil
	}
}
