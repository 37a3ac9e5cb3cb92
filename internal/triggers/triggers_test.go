package triggers_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkstone/spark-bot/internal/domain"
	"github.com/sparkstone/spark-bot/internal/points"
	"github.com/sparkstone/spark-bot/internal/storage"
	"github.com/sparkstone/spark-bot/internal/triggers"
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

func TestIsGreeting(t *testing.T) {
	testCases := []struct {
		text string
		want bool
	}{
		{"gm", true},
		{"GM everyone", true},
		{"gm☀️", true},
		{"good morning fam", true},
		{"Morning!", true},
		{"hello", false},
		{"great match yesterday", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, triggers.IsGreeting(tc.text))
		})
	}
}

func TestGreetingTrigger_RollingCooldown(t *testing.T) {
	gateway := newGateway(t)
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	trigger := triggers.NewGreetingTrigger(gateway, testLogger()).
		WithClock(func() time.Time { return now })

	res := trigger.HandleMessage("1", "alice", "gm", false)
	assert.True(t, res.Awarded)
	assert.Equal(t, int64(1), gateway.User("1").Points)

	// Second greeting inside the window: no award, remaining time reported.
	now = now.Add(6 * time.Hour)
	res = trigger.HandleMessage("1", "alice", "good morning", false)
	assert.False(t, res.Awarded)
	assert.Equal(t, 18*time.Hour, res.Remaining)
	assert.Equal(t, int64(1), gateway.User("1").Points)

	// The window is rolling from the last award, not calendar-day based.
	now = now.Add(18 * time.Hour)
	res = trigger.HandleMessage("1", "alice", "gm", false)
	assert.True(t, res.Awarded)
	assert.Equal(t, int64(2), gateway.User("1").Points)
}

func TestGreetingTrigger_AdminBypassesCooldown(t *testing.T) {
	gateway := newGateway(t)
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	trigger := triggers.NewGreetingTrigger(gateway, testLogger()).
		WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		res := trigger.HandleMessage("1", "boss", "gm", true)
		assert.True(t, res.Awarded)
	}
	assert.Equal(t, int64(3), gateway.User("1").Points)
}

func TestGreetingTrigger_NonGreetingIgnored(t *testing.T) {
	gateway := newGateway(t)
	trigger := triggers.NewGreetingTrigger(gateway, testLogger())

	res := trigger.HandleMessage("1", "alice", "what's the floor price?", false)
	assert.False(t, res.Awarded)
	assert.Nil(t, gateway.User("1"), "non-greetings do not create accounts")
}

func TestReactionTrigger_HandleReaction(t *testing.T) {
	gateway := newGateway(t)
	require.NoError(t, gateway.SaveAnnouncement(&domain.AnnouncementRecord{
		MessageID: "100",
		Reactions: []string{"🔥", "🚀"},
	}))
	trigger := triggers.NewReactionTrigger(gateway, testLogger())

	assert.True(t, trigger.HandleReaction("1", "alice", "100", "🔥"))
	assert.Equal(t, int64(1), gateway.User("1").Points)

	// Same triple again: suppressed.
	assert.False(t, trigger.HandleReaction("1", "alice", "100", "🔥"))
	assert.Equal(t, int64(1), gateway.User("1").Points)

	// A different symbol on the same message earns again.
	assert.True(t, trigger.HandleReaction("1", "alice", "100", "🚀"))
	assert.Equal(t, int64(2), gateway.User("1").Points)

	// Untracked symbol and untracked message award nothing.
	assert.False(t, trigger.HandleReaction("1", "alice", "100", "👍"))
	assert.False(t, trigger.HandleReaction("1", "alice", "999", "🔥"))
	assert.Equal(t, int64(2), gateway.User("1").Points)
}

// Editing an announcement replaces its symbol set: dropped symbols stop
// earning, added symbols start, and credits already granted stay counted.
func TestReactionTrigger_EditedSymbolSet(t *testing.T) {
	gateway := newGateway(t)
	require.NoError(t, gateway.SaveAnnouncement(&domain.AnnouncementRecord{
		MessageID: "100",
		Reactions: []string{"🔥"},
	}))
	trigger := triggers.NewReactionTrigger(gateway, testLogger())

	assert.True(t, trigger.HandleReaction("1", "alice", "100", "🔥"))

	require.NoError(t, gateway.SaveAnnouncement(&domain.AnnouncementRecord{
		MessageID: "100",
		Reactions: []string{"🚀"},
	}))

	assert.False(t, trigger.HandleReaction("2", "bob", "100", "🔥"), "dropped symbol no longer earns")
	assert.True(t, trigger.HandleReaction("1", "alice", "100", "🚀"), "added symbol earns")
	assert.Equal(t, int64(2), gateway.User("1").Points, "pre-edit credit stays counted")
}

func TestReactionTrigger_DedupeSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	gateway, err := storage.NewFileStore(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, gateway.SaveAnnouncement(&domain.AnnouncementRecord{
		MessageID: "100",
		Reactions: []string{"🔥"},
	}))
	require.True(t, triggers.NewReactionTrigger(gateway, testLogger()).
		HandleReaction("1", "alice", "100", "🔥"))

	reopened, err := storage.NewFileStore(dir, testLogger())
	require.NoError(t, err)
	assert.False(t, triggers.NewReactionTrigger(reopened, testLogger()).
		HandleReaction("1", "alice", "100", "🔥"))
	assert.Equal(t, int64(1), reopened.User("1").Points)
}

func TestInviteTrigger_HandleMemberJoin(t *testing.T) {
	gateway := newGateway(t)
	ledger := points.NewLedger(gateway, testLogger())
	trigger := triggers.NewInviteTrigger(gateway, ledger, testLogger())

	inviter := gateway.GetOrCreateUser("1", "alice")
	inviter.InviteData.InviteCode = "code-1"
	require.NoError(t, gateway.SaveUser(inviter))

	award, handled := trigger.HandleMemberJoin("code-1", "2", false)
	require.True(t, handled)
	assert.False(t, award.Duplicate)
	assert.Equal(t, int64(20), award.Points, "default config awards 20 per invite")
	assert.Equal(t, int64(20), gateway.User("1").Points)

	// Re-join by the same member is a handled duplicate, zero points.
	award, handled = trigger.HandleMemberJoin("code-1", "2", false)
	require.True(t, handled)
	assert.True(t, award.Duplicate)
	assert.Equal(t, int64(20), gateway.User("1").Points)
}

func TestInviteTrigger_SkipsIneligibleJoins(t *testing.T) {
	gateway := newGateway(t)
	ledger := points.NewLedger(gateway, testLogger())
	trigger := triggers.NewInviteTrigger(gateway, ledger, testLogger())

	inviter := gateway.GetOrCreateUser("1", "alice")
	inviter.InviteData.InviteCode = "code-1"
	require.NoError(t, gateway.SaveUser(inviter))

	testCases := []struct {
		name     string
		code     string
		memberID string
		isBot    bool
	}{
		{"bot account", "code-1", "99", true},
		{"empty code", "", "2", false},
		{"untracked code", "nope", "2", false},
		{"self join", "code-1", "1", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, handled := trigger.HandleMemberJoin(tc.code, tc.memberID, tc.isBot)
			assert.False(t, handled)
			assert.Equal(t, int64(0), gateway.User("1").Points)
		})
	}
}
