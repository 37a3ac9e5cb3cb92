package handlers

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/points"
)

// NewBalanceHandler returns a handler for the /balance command.
func NewBalanceHandler(ledger *points.Ledger, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		stats := ledger.UserStats(SenderID(c))
		return c.Send(fmt.Sprintf(
			"💎 Balance: %d points\n👥 Invites: %d (%d points earned)",
			stats.TotalPoints,
			stats.InviteCount,
			stats.InvitePoints,
		))
	}
}

// NewLeaderboardHandler returns a handler for the /leaderboard command.
func NewLeaderboardHandler(ledger *points.Ledger, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		entries := ledger.Leaderboard(10)
		if len(entries) == 0 {
			return c.Send("No points have been earned yet. Be the first!")
		}

		msg := "🏆 Leaderboard\n"
		for i, e := range entries {
			name := e.Username
			if name == "" {
				name = e.UserID
			}
			msg += fmt.Sprintf("%d. %s — %d points\n", i+1, name, e.Points)
		}
		return c.Send(msg)
	}
}
