// Package metrics exports Prometheus counters and gauges for the reward
// economy. All collectors are registered through promauto at init.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	pointsCreditedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "points_credited_total",
			Help: "Total points credited across all accounts",
		},
	)
	pointsDebitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "points_debited_total",
			Help: "Total points debited across all accounts",
		},
	)
	lootBoxOpensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loot_box_opens_total",
			Help: "Total loot boxes opened labeled by reward kind",
		},
		[]string{"reward"},
	)
	airdropsRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "airdrops_remaining",
			Help: "Airdrop allocations still available under the global limit",
		},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	knownUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "known_users",
			Help: "Number of accounts in the user store",
		},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordPointsCredited adds to the credited-points counter.
func RecordPointsCredited(amount int64) {
	if amount > 0 {
		pointsCreditedTotal.Add(float64(amount))
	}
}

// RecordPointsDebited adds to the debited-points counter.
func RecordPointsDebited(amount int64) {
	if amount > 0 {
		pointsDebitedTotal.Add(float64(amount))
	}
}

// RecordRewardGrant counts one opened loot box by reward kind.
func RecordRewardGrant(reward string) {
	if reward == "" {
		reward = "unknown"
	}
	lootBoxOpensTotal.WithLabelValues(reward).Inc()
}

// SetAirdropsRemaining updates the remaining-airdrops gauge.
func SetAirdropsRemaining(remaining int64) {
	if remaining < 0 {
		remaining = 0
	}
	airdropsRemaining.Set(float64(remaining))
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// SetKnownUsers updates the account-count gauge.
func SetKnownUsers(count int) {
	knownUsers.Set(float64(count))
}

// UserCounter supplies the current account count for the collector.
type UserCounter interface {
	AllUsersCount() int
}

// Collector periodically refreshes store-derived gauges.
type Collector struct {
	users UserCounter
}

func NewCollector(users UserCounter) *Collector {
	return &Collector{users: users}
}

// Run refreshes gauges every 10 seconds until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	if c == nil || c.users == nil {
		return
	}

	for {
		SetKnownUsers(c.users.AllUsersCount())

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}
