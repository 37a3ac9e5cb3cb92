package handlers

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/storage"
	"github.com/sparkstone/spark-bot/internal/triggers"
)

// NewStartHandler greets newcomers and credits referrals carried in the
// /start deep-link payload (t.me/Bot?start=<code>).
func NewStartHandler(store storage.Gateway, invites *triggers.InviteTrigger, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		userID := SenderID(c)
		store.GetOrCreateUser(userID, SenderUsername(c))

		if payload := c.Message().Payload; payload != "" && invites != nil {
			if award, credited := invites.HandleMemberJoin(payload, userID, c.Sender().IsBot); credited {
				log.Info("referral credited via deep link",
					slog.String("invitee_id", userID),
					slog.Int64("points", award.Points),
				)
			}
		}

		return c.Send("Welcome to the Spark community! 🎉\n\nEarn points by inviting friends, reacting to announcements, and saying gm. Spend them on loot boxes with /buylootbox.\n\nSee /help for everything I can do.")
	}
}

// NewHelpHandler lists the available commands.
func NewHelpHandler(adminCheck func(userID string) bool) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		help := "Commands:\n" +
			"/balance — your points and invite stats\n" +
			"/invite — your personal invite link\n" +
			"/leaderboard — top point earners\n" +
			"/buylootbox [n] — buy loot boxes\n" +
			"/openlootbox — open a loot box\n" +
			"/inventory — your active wallet's items\n" +
			"/editwallet <spark|taproot> <address> — set wallet addresses\n" +
			"/switchwallet — choose your active wallet\n" +
			"/unlockwallet — unlock the next wallet slot"

		if adminCheck != nil && adminCheck(SenderID(c)) {
			help += "\n\nAdmin:\n" +
				"/addpoints <user> <amount>\n" +
				"/setpoints <user> <amount>\n" +
				"/additems <user> <item> <amount>\n" +
				"/announce <symbols...> <text>\n" +
				"/edit <messageId> <symbols...> [text]\n" +
				"/exportwallets\n" +
				"/exportdata\n" +
				"/importdata (attach a bundle)"
		}

		return c.Send(help)
	}
}

// NewGreetingHandler awards greeting points for qualifying plain-text
// messages in the greeting chat.
func NewGreetingHandler(greetings *triggers.GreetingTrigger, greetingChatID int64, adminCheck func(userID string) bool) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Chat() == nil {
			return nil
		}
		if greetingChatID != 0 && c.Chat().ID != greetingChatID {
			return nil
		}

		userID := SenderID(c)
		isAdmin := adminCheck != nil && adminCheck(userID)

		res := greetings.HandleMessage(userID, SenderUsername(c), c.Text(), isAdmin)
		if !res.Awarded {
			return nil
		}

		return c.Send(fmt.Sprintf("gm %s! ☀️ +1 point", displayName(c)))
	}
}

func displayName(c telebot.Context) string {
	if c.Sender().Username != "" {
		return "@" + c.Sender().Username
	}
	return c.Sender().FirstName
}
