// Package triggers implements the event-driven point awards: invite
// redemption, announcement reactions, and greeting messages. Each trigger is
// idempotent per distinct real-world event and delegates to the ledger
// exactly once per qualifying event.
package triggers

import (
	"log/slog"

	"github.com/sparkstone/spark-bot/internal/points"
	"github.com/sparkstone/spark-bot/internal/storage"
)

// InviteTrigger credits inviters when a new member joins through a tracked
// invite link.
type InviteTrigger struct {
	store  storage.Gateway
	ledger *points.Ledger
	log    *slog.Logger
}

func NewInviteTrigger(store storage.Gateway, ledger *points.Ledger, log *slog.Logger) *InviteTrigger {
	if log == nil {
		log = slog.Default()
	}
	return &InviteTrigger{store: store, ledger: ledger, log: log}
}

// HandleMemberJoin resolves the invite code used by the joining member to its
// owner and awards the configured invite points. Bot accounts and untracked
// codes award nothing. Duplicate invitees are suppressed by the ledger itself;
// the trigger does not pre-filter.
func (t *InviteTrigger) HandleMemberJoin(inviteCode, memberID string, memberIsBot bool) (points.InviteAward, bool) {
	if memberIsBot || inviteCode == "" {
		return points.InviteAward{}, false
	}

	owner := t.store.UserByInviteCode(inviteCode)
	if owner == nil {
		t.log.Info("join via untracked invite code", slog.String("code", inviteCode))
		return points.InviteAward{}, false
	}
	if owner.UserID == memberID {
		return points.InviteAward{}, false
	}

	award := t.ledger.AwardInvitePoints(owner.UserID, memberID)
	if award.Duplicate {
		t.log.Info("duplicate invitee join",
			slog.String("inviter_id", owner.UserID),
			slog.String("member_id", memberID),
		)
	} else {
		t.log.Info("invite points awarded",
			slog.String("inviter_id", owner.UserID),
			slog.String("member_id", memberID),
			slog.Int64("points", award.Points),
		)
	}
	return award, true
}
