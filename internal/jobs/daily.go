// Package jobs schedules recurring background work, currently the daily
// role-based point sweep.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/sparkstone/spark-bot/internal/storage"
)

// RoleProvider resolves the privileged roles a member currently holds.
// Telegram has no server-wide role enumeration, so the caller supplies
// membership knowledge (admin lists, chat membership checks).
type RoleProvider interface {
	RolesOf(userID string) []string
}

// Summary captures the outcome of one daily sweep run.
type Summary struct {
	Eligible      int
	Awarded       int
	Skipped       int
	PointsAwarded int64
}

// DailyJob credits role-based points once per calendar day (UTC).
type DailyJob struct {
	store storage.Gateway
	roles RoleProvider
	// rolePoints maps role name to daily point amount.
	rolePoints map[string]int64
	log        *slog.Logger
	now        func() time.Time

	sched gocron.Scheduler
}

func NewDailyJob(store storage.Gateway, roles RoleProvider, rolePoints map[string]int64, log *slog.Logger) *DailyJob {
	if log == nil {
		log = slog.Default()
	}
	return &DailyJob{
		store:      store,
		roles:      roles,
		rolePoints: rolePoints,
		log:        log,
		now:        time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (j *DailyJob) WithClock(now func() time.Time) *DailyJob {
	j.now = now
	return j
}

// Start registers the sweep at midnight UTC and runs the scheduler until
// Stop is called.
func (j *DailyJob) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}
	j.sched = sched

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			summary := j.Run()
			j.log.Info("daily point sweep finished",
				slog.Int("eligible", summary.Eligible),
				slog.Int("awarded", summary.Awarded),
				slog.Int("skipped", summary.Skipped),
				slog.Int64("points", summary.PointsAwarded),
			)
		}),
	)
	if err != nil {
		return err
	}

	sched.Start()
	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop shuts the scheduler down. Safe to call when Start was never called.
func (j *DailyJob) Stop() {
	if j.sched != nil {
		_ = j.sched.Shutdown()
	}
}

// Run performs one sweep over all known users. Claims are keyed by the UTC
// date string, so re-running within the same day is a no-op and a run just
// after midnight credits users who claimed late the previous day.
func (j *DailyJob) Run() Summary {
	var summary Summary
	today := j.now().UTC().Format("2006-01-02")

	for _, u := range j.store.AllUsers() {
		amount := j.dailyAmount(u.UserID)
		if amount <= 0 {
			continue
		}
		summary.Eligible++

		if u.LastDailyPointsClaim != 0 &&
			time.UnixMilli(u.LastDailyPointsClaim).UTC().Format("2006-01-02") == today {
			summary.Skipped++
			continue
		}

		u.Points += amount
		u.LastDailyPointsClaim = j.now().UnixMilli()
		if err := j.store.SaveUser(u); err != nil {
			j.log.Error("failed to persist daily award",
				slog.String("user_id", u.UserID),
				slog.Any("error", err),
			)
			continue
		}
		summary.Awarded++
		summary.PointsAwarded += amount
	}
	return summary
}

// dailyAmount sums the daily amounts of every configured role the member
// holds, zero when none apply.
func (j *DailyJob) dailyAmount(userID string) int64 {
	var total int64
	for _, role := range j.roles.RolesOf(userID) {
		if amount, ok := j.rolePoints[role]; ok {
			total += amount
		}
	}
	return total
}
