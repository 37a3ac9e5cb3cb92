package handlers

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/storage"
)

// NewInviteHandler returns a handler for the /invite command. Each account
// gets one permanent referral code, rendered as a t.me deep link; newcomers
// who start the bot through it credit the inviter.
func NewInviteHandler(store storage.Gateway, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		u := store.GetOrCreateUser(SenderID(c), SenderUsername(c))
		if u.InviteData.InviteCode == "" {
			u.InviteData.InviteCode = newInviteCode()
			if err := store.SaveUser(u); err != nil {
				log.Error("failed to persist invite code",
					slog.String("user_id", u.UserID),
					slog.Any("error", err),
				)
				return c.Send("Could not create your invite link right now. Please try again later.")
			}
		}

		botName := ""
		if c.Bot() != nil && c.Bot().Me != nil {
			botName = c.Bot().Me.Username
		}

		link := u.InviteData.InviteCode
		if botName != "" {
			link = fmt.Sprintf("https://t.me/%s?start=%s", botName, u.InviteData.InviteCode)
		}

		invitePoints := store.Config().InvitePoints
		return c.Send(fmt.Sprintf(
			"🔗 Your invite link:\n%s\n\nEach friend who joins earns you %d points.\nInvites so far: %d (%d points earned)",
			link,
			invitePoints,
			u.InviteData.Uses,
			u.InviteData.PointsEarned,
		))
	}
}

func newInviteCode() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
