package triggers

import (
	"log/slog"

	"github.com/sparkstone/spark-bot/internal/storage"
)

// reactionPoints is the fixed award per unique (user, message, symbol) triple.
const reactionPoints = 1

// ReactionTrigger awards one point per distinct reaction symbol a user adds
// to a tracked announcement. Repeat triples are silently ignored.
type ReactionTrigger struct {
	store storage.Gateway
	log   *slog.Logger
}

func NewReactionTrigger(store storage.Gateway, log *slog.Logger) *ReactionTrigger {
	if log == nil {
		log = slog.Default()
	}
	return &ReactionTrigger{store: store, log: log}
}

// HandleReaction processes one reaction event and reports whether a point was
// awarded. Untracked messages and symbols award nothing.
func (t *ReactionTrigger) HandleReaction(userID, username, messageID, symbol string) bool {
	announcement := t.store.Announcement(messageID)
	if announcement == nil || !announcement.TracksReaction(symbol) {
		return false
	}

	u := t.store.GetOrCreateUser(userID, username)
	if u.ReactionData.HasCredited(messageID, symbol) {
		t.log.Info("duplicate reaction, no points awarded",
			slog.String("user_id", userID),
			slog.String("message_id", messageID),
			slog.String("symbol", symbol),
		)
		return false
	}

	u.Points += reactionPoints
	u.ReactionData.Credit(messageID, symbol)
	if err := t.store.SaveUser(u); err != nil {
		t.log.Error("failed to persist reaction award",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	t.log.Info("reaction point awarded",
		slog.String("user_id", userID),
		slog.String("message_id", messageID),
		slog.String("symbol", symbol),
	)
	return true
}
