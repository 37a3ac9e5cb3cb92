// Package points implements the point ledger: balance credits, debits,
// transfers, and invite awards with duplicate-invitee suppression.
package points

import (
	"log/slog"
	"sort"

	"github.com/sparkstone/spark-bot/internal/domain"
	apperrors "github.com/sparkstone/spark-bot/internal/errors"
	"github.com/sparkstone/spark-bot/internal/storage"
	"github.com/sparkstone/spark-bot/pkg/metrics"
)

// Ledger performs balance operations against the persistence gateway. A
// balance never goes negative: debits that would are rejected, not clamped.
type Ledger struct {
	store storage.Gateway
	log   *slog.Logger
}

func NewLedger(store storage.Gateway, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: store, log: log}
}

// Credit adds amount to the user's balance. Positive amounts always succeed.
func (l *Ledger) Credit(userID string, amount int64) error {
	if amount <= 0 {
		return apperrors.NewInvalidAmount("credit amount must be positive")
	}

	u := l.store.GetOrCreateUser(userID, "")
	u.Points += amount
	l.persist(u, "credit")
	metrics.RecordPointsCredited(amount)
	return nil
}

// Debit subtracts amount from the user's balance. There is no partial debit.
func (l *Ledger) Debit(userID string, amount int64) error {
	if amount <= 0 {
		return apperrors.NewInvalidAmount("debit amount must be positive")
	}

	u := l.store.GetOrCreateUser(userID, "")
	if u.Points < amount {
		return apperrors.NewInsufficientFunds(u.Points, amount)
	}

	u.Points -= amount
	l.persist(u, "debit")
	metrics.RecordPointsDebited(amount)
	return nil
}

// Transfer moves amount between users. A failed debit fails the transfer as a
// whole with no state change.
func (l *Ledger) Transfer(fromID, toID string, amount int64) error {
	if err := l.Debit(fromID, amount); err != nil {
		return err
	}
	return l.Credit(toID, amount)
}

// SetBalance overwrites the user's balance. Administrative operation.
func (l *Ledger) SetBalance(userID string, amount int64) error {
	if amount < 0 {
		return apperrors.NewInvalidAmount("balance cannot be negative")
	}

	u := l.store.GetOrCreateUser(userID, "")
	u.Points = amount
	l.persist(u, "set_balance")
	return nil
}

// Balance returns the user's current balance, zero for unknown users.
func (l *Ledger) Balance(userID string) int64 {
	u := l.store.User(userID)
	if u == nil {
		return 0
	}
	return u.Points
}

// InviteAward is the outcome of AwardInvitePoints. A duplicate invitee is a
// no-op result, not an error.
type InviteAward struct {
	Points    int64
	Duplicate bool
}

// AwardInvitePoints credits the configured per-invite value to the inviter
// the first time each invitee id is seen. Re-joins under the same invite
// yield zero additional points.
func (l *Ledger) AwardInvitePoints(inviterID, inviteeID string) InviteAward {
	inviter := l.store.GetOrCreateUser(inviterID, "")

	if inviter.InviteData.HasInvited(inviteeID) {
		l.log.Info("duplicate invitee, no points awarded",
			slog.String("inviter_id", inviterID),
			slog.String("invitee_id", inviteeID),
		)
		return InviteAward{Duplicate: true}
	}

	invitePoints := l.store.Config().InvitePoints
	inviter.Points += invitePoints
	inviter.InviteData.Uses++
	inviter.InviteData.PointsEarned += invitePoints
	inviter.InviteData.InvitedUsers = append(inviter.InviteData.InvitedUsers, inviteeID)
	l.persist(inviter, "award_invite")
	metrics.RecordPointsCredited(invitePoints)

	return InviteAward{Points: invitePoints}
}

// LeaderboardEntry is one row of the top-points ranking.
type LeaderboardEntry struct {
	UserID   string
	Username string
	Points   int64
}

// Leaderboard returns the top users by balance, highest first.
func (l *Ledger) Leaderboard(limit int) []LeaderboardEntry {
	users := l.store.AllUsers()
	entries := make([]LeaderboardEntry, 0, len(users))
	for id, u := range users {
		entries = append(entries, LeaderboardEntry{UserID: id, Username: u.Username, Points: u.Points})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Stats summarizes one user's point earnings.
type Stats struct {
	TotalPoints  int64
	InvitePoints int64
	InviteCount  int64
}

// UserStats returns per-user earning statistics, zeros for unknown users.
func (l *Ledger) UserStats(userID string) Stats {
	u := l.store.User(userID)
	if u == nil {
		return Stats{}
	}
	return Stats{
		TotalPoints:  u.Points,
		InvitePoints: u.InviteData.PointsEarned,
		InviteCount:  u.InviteData.Uses,
	}
}

// TotalDistributed sums every user's balance.
func (l *Ledger) TotalDistributed() int64 {
	var total int64
	for _, u := range l.store.AllUsers() {
		total += u.Points
	}
	return total
}

// persist writes the account, logging write failures without rolling back the
// in-memory mutation (best-effort durability).
func (l *Ledger) persist(u *domain.UserAccount, op string) {
	if err := l.store.SaveUser(u); err != nil {
		l.log.Error("failed to persist ledger mutation",
			slog.String("operation", op),
			slog.String("user_id", u.UserID),
			slog.Any("error", err),
		)
	}
}
