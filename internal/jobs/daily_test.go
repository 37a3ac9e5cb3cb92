package jobs_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkstone/spark-bot/internal/jobs"
	"github.com/sparkstone/spark-bot/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGateway(t *testing.T) storage.Gateway {
	t.Helper()
	gateway, err := storage.NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return gateway
}

func TestStaticRoleProvider(t *testing.T) {
	p := jobs.NewStaticRoleProvider([]string{"7"})

	assert.ElementsMatch(t, []string{"member", "admin"}, p.RolesOf("7"))
	assert.Equal(t, []string{"member"}, p.RolesOf("1"))
}

func TestDailyJob_Run(t *testing.T) {
	gateway := newGateway(t)
	gateway.GetOrCreateUser("1", "alice")
	gateway.GetOrCreateUser("7", "admin")

	now := time.Date(2026, 8, 1, 0, 0, 5, 0, time.UTC)
	job := jobs.NewDailyJob(gateway, jobs.NewStaticRoleProvider([]string{"7"}),
		map[string]int64{"member": 5, "admin": 10}, testLogger()).
		WithClock(func() time.Time { return now })

	summary := job.Run()
	assert.Equal(t, 2, summary.Eligible)
	assert.Equal(t, 2, summary.Awarded)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, int64(20), summary.PointsAwarded)

	assert.Equal(t, int64(5), gateway.User("1").Points)
	assert.Equal(t, int64(15), gateway.User("7").Points, "role amounts accumulate")

	// Same calendar day: everyone is skipped.
	now = now.Add(12 * time.Hour)
	summary = job.Run()
	assert.Equal(t, 2, summary.Eligible)
	assert.Equal(t, 0, summary.Awarded)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, int64(5), gateway.User("1").Points)

	// Just past midnight UTC the next day: a fresh claim, even though less
	// than 24 hours elapsed since the last one.
	now = time.Date(2026, 8, 2, 0, 0, 5, 0, time.UTC)
	summary = job.Run()
	assert.Equal(t, 2, summary.Awarded)
	assert.Equal(t, int64(10), gateway.User("1").Points)
}

// A member holding several configured roles earns the sum of their daily
// amounts, not just the largest one.
func TestDailyJob_SumsAllQualifyingRoles(t *testing.T) {
	gateway := newGateway(t)
	gateway.GetOrCreateUser("7", "holder")

	job := jobs.NewDailyJob(gateway, jobs.NewStaticRoleProvider([]string{"7"}),
		map[string]int64{"member": 30, "admin": 300}, testLogger())

	summary := job.Run()
	assert.Equal(t, int64(330), summary.PointsAwarded)
	assert.Equal(t, int64(330), gateway.User("7").Points)
}

func TestDailyJob_NoMatchingRoles(t *testing.T) {
	gateway := newGateway(t)
	gateway.GetOrCreateUser("1", "alice")

	job := jobs.NewDailyJob(gateway, jobs.NewStaticRoleProvider(nil),
		map[string]int64{"holder": 25}, testLogger())

	summary := job.Run()
	assert.Equal(t, 0, summary.Eligible)
	assert.Equal(t, int64(0), gateway.User("1").Points)
}
