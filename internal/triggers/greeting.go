package triggers

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sparkstone/spark-bot/internal/storage"
)

// GreetingCooldown is the rolling window between greeting awards. This is an
// elapsed-duration comparison, unlike the daily sweep's calendar-day check.
const GreetingCooldown = 24 * time.Hour

const greetingPoints = 1

var greetingPatterns = []string{"gm", "good morning", "morning"}

// gmEmoji matches "gm" immediately followed by an emoji.
var gmEmoji = regexp.MustCompile(`gm[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}]`)

// IsGreeting reports whether the message text qualifies as a greeting.
func IsGreeting(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range greetingPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return gmEmoji.MatchString(lower)
}

// GreetingResult is the outcome of one greeting message.
type GreetingResult struct {
	Awarded   bool
	Remaining time.Duration
}

// GreetingTrigger awards a point per qualifying greeting, at most once per
// 24-hour rolling window. Administrators bypass the cooldown entirely.
type GreetingTrigger struct {
	store storage.Gateway
	log   *slog.Logger
	now   func() time.Time
}

func NewGreetingTrigger(store storage.Gateway, log *slog.Logger) *GreetingTrigger {
	if log == nil {
		log = slog.Default()
	}
	return &GreetingTrigger{store: store, log: log, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (t *GreetingTrigger) WithClock(now func() time.Time) *GreetingTrigger {
	t.now = now
	return t
}

// HandleMessage processes one message in the greeting channel.
func (t *GreetingTrigger) HandleMessage(userID, username, text string, isAdmin bool) GreetingResult {
	if !IsGreeting(text) {
		return GreetingResult{}
	}

	u := t.store.GetOrCreateUser(userID, username)
	now := t.now()

	if !isAdmin {
		last := u.GMCooldownTime()
		if !last.IsZero() {
			if elapsed := now.Sub(last); elapsed < GreetingCooldown {
				return GreetingResult{Remaining: GreetingCooldown - elapsed}
			}
		}
	}

	u.Points += greetingPoints
	u.GMCooldown = now.UnixMilli()
	if err := t.store.SaveUser(u); err != nil {
		t.log.Error("failed to persist greeting award",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	t.log.Info("greeting point awarded", slog.String("user_id", userID))
	return GreetingResult{Awarded: true}
}
