package handlers

import (
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/bot/keyboard"
	"github.com/sparkstone/spark-bot/internal/triggers"
)

// NewReactionCallback handles announcement reaction button presses. Each
// (user, message, symbol) triple earns a point exactly once.
func NewReactionCallback(reactions *triggers.ReactionTrigger, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Callback() == nil {
			return nil
		}

		cb := c.Callback()
		symbol := strings.TrimPrefix(strings.TrimPrefix(cb.Data, "\f"), keyboard.CallbackReaction)
		if symbol == "" || cb.Message == nil {
			return c.Respond(&telebot.CallbackResponse{})
		}

		messageID := strconv.Itoa(cb.Message.ID)
		awarded := reactions.HandleReaction(SenderID(c), SenderUsername(c), messageID, symbol)

		resp := &telebot.CallbackResponse{Text: "Already counted!"}
		if awarded {
			resp.Text = symbol + " +1 point!"
		}
		return c.Respond(resp)
	}
}
