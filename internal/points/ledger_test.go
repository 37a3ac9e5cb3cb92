package points_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sparkstone/spark-bot/internal/errors"
	"github.com/sparkstone/spark-bot/internal/points"
	"github.com/sparkstone/spark-bot/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLedger(t *testing.T) (*points.Ledger, storage.Gateway) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return points.NewLedger(store, testLogger()), store
}

func TestLedger_CreditDebit(t *testing.T) {
	testCases := []struct {
		name        string
		run         func(l *points.Ledger) error
		wantBalance int64
		wantErr     *apperrors.AppError
	}{
		{
			name:        "credit adds to balance",
			run:         func(l *points.Ledger) error { return l.Credit("1", 100) },
			wantBalance: 100,
		},
		{
			name:    "credit rejects zero",
			run:     func(l *points.Ledger) error { return l.Credit("1", 0) },
			wantErr: apperrors.NewInvalidAmount(""),
		},
		{
			name:    "credit rejects negative",
			run:     func(l *points.Ledger) error { return l.Credit("1", -5) },
			wantErr: apperrors.NewInvalidAmount(""),
		},
		{
			name: "debit subtracts",
			run: func(l *points.Ledger) error {
				require.NoError(t, l.Credit("1", 100))
				return l.Debit("1", 30)
			},
			wantBalance: 70,
		},
		{
			name: "debit rejects overdraft without clamping",
			run: func(l *points.Ledger) error {
				require.NoError(t, l.Credit("1", 10))
				return l.Debit("1", 11)
			},
			wantBalance: 10,
			wantErr:     apperrors.NewInsufficientFunds(10, 11),
		},
		{
			name:    "debit rejects zero",
			run:     func(l *points.Ledger) error { return l.Debit("1", 0) },
			wantErr: apperrors.NewInvalidAmount(""),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, _ := newLedger(t)
			err := tc.run(l)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantBalance, l.Balance("1"))
		})
	}
}

func TestLedger_BalancePersists(t *testing.T) {
	l, store := newLedger(t)

	require.NoError(t, l.Credit("1", 42))
	// Re-read through the gateway, not the in-memory pointer.
	assert.Equal(t, int64(42), store.User("1").Points)
}

func TestLedger_Transfer(t *testing.T) {
	l, _ := newLedger(t)

	require.NoError(t, l.Credit("a", 100))

	require.NoError(t, l.Transfer("a", "b", 40))
	assert.Equal(t, int64(60), l.Balance("a"))
	assert.Equal(t, int64(40), l.Balance("b"))

	err := l.Transfer("a", "b", 1000)
	require.ErrorIs(t, err, apperrors.NewInsufficientFunds(0, 0))
	assert.Equal(t, int64(60), l.Balance("a"), "failed transfer changes nothing")
	assert.Equal(t, int64(40), l.Balance("b"))
}

func TestLedger_SetBalance(t *testing.T) {
	l, _ := newLedger(t)

	require.NoError(t, l.SetBalance("1", 500))
	assert.Equal(t, int64(500), l.Balance("1"))

	require.NoError(t, l.SetBalance("1", 0))
	assert.Equal(t, int64(0), l.Balance("1"))

	err := l.SetBalance("1", -1)
	require.ErrorIs(t, err, apperrors.NewInvalidAmount(""))
}

func TestLedger_AwardInvitePoints(t *testing.T) {
	l, store := newLedger(t)

	award := l.AwardInvitePoints("inviter", "invitee-1")
	assert.False(t, award.Duplicate)
	assert.Equal(t, int64(20), award.Points, "default config awards 20 per invite")
	assert.Equal(t, int64(20), l.Balance("inviter"))

	// Same invitee again: suppressed, no balance change.
	award = l.AwardInvitePoints("inviter", "invitee-1")
	assert.True(t, award.Duplicate)
	assert.Equal(t, int64(0), award.Points)
	assert.Equal(t, int64(20), l.Balance("inviter"))

	// A different invitee earns again.
	award = l.AwardInvitePoints("inviter", "invitee-2")
	assert.False(t, award.Duplicate)
	assert.Equal(t, int64(40), l.Balance("inviter"))

	u := store.User("inviter")
	assert.Equal(t, int64(2), u.InviteData.Uses)
	assert.Equal(t, int64(40), u.InviteData.PointsEarned)
	assert.ElementsMatch(t, []string{"invitee-1", "invitee-2"}, u.InviteData.InvitedUsers)
}

func TestLedger_Leaderboard(t *testing.T) {
	l, _ := newLedger(t)

	require.NoError(t, l.Credit("low", 5))
	require.NoError(t, l.Credit("high", 50))
	require.NoError(t, l.Credit("mid", 20))

	entries := l.Leaderboard(2)
	require.Len(t, entries, 2)
	assert.Equal(t, "high", entries[0].UserID)
	assert.Equal(t, "mid", entries[1].UserID)
}

func TestLedger_UserStats(t *testing.T) {
	l, _ := newLedger(t)

	assert.Zero(t, l.UserStats("ghost"))

	require.NoError(t, l.Credit("1", 30))
	l.AwardInvitePoints("1", "friend")

	stats := l.UserStats("1")
	assert.Equal(t, int64(50), stats.TotalPoints)
	assert.Equal(t, int64(20), stats.InvitePoints)
	assert.Equal(t, int64(1), stats.InviteCount)
}
