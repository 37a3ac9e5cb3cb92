package handlers

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/bot/keyboard"
	"github.com/sparkstone/spark-bot/internal/domain"
	apperrors "github.com/sparkstone/spark-bot/internal/errors"
	"github.com/sparkstone/spark-bot/internal/points"
	"github.com/sparkstone/spark-bot/internal/storage"
	"github.com/sparkstone/spark-bot/internal/wallet"
)

// AdminOnly wraps a handler so only configured administrators reach it.
func AdminOnly(adminCheck func(userID string) bool, next Handler) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}
		if adminCheck == nil || !adminCheck(SenderID(c)) {
			return apperrors.NewPermissionDenied()
		}
		return next(c)
	}
}

// resolveUser finds a target account by @username or numeric id.
func resolveUser(store storage.Gateway, ref string) *domain.UserAccount {
	if ref == "" {
		return nil
	}
	if name, ok := strings.CutPrefix(ref, "@"); ok {
		for _, u := range store.AllUsers() {
			if strings.EqualFold(u.Username, name) {
				return u
			}
		}
		return nil
	}
	if _, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return store.User(ref)
	}
	return nil
}

// NewAddPointsHandler returns a handler for /addpoints <user> <amount>.
func NewAddPointsHandler(store storage.Gateway, ledger *points.Ledger, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		args := c.Args()
		if len(args) < 2 {
			return c.Send("Usage: /addpoints <@username|id> <amount>")
		}

		target := resolveUser(store, args[0])
		if target == nil {
			return c.Send(fmt.Sprintf("User %s not found.", args[0]))
		}
		amount, ok := parseAmount(args[1])
		if !ok {
			return c.Send("Usage: /addpoints <@username|id> <amount>")
		}

		var err error
		if amount >= 0 {
			err = ledger.Credit(target.UserID, amount)
		} else {
			err = ledger.Debit(target.UserID, -amount)
		}
		if err != nil {
			return err
		}

		log.Info("admin adjusted points",
			slog.String("admin_id", SenderID(c)),
			slog.String("target_id", target.UserID),
			slog.Int64("amount", amount),
		)
		return c.Send(fmt.Sprintf("✅ %s now has %d points.", args[0], ledger.Balance(target.UserID)))
	}
}

// NewSetPointsHandler returns a handler for /setpoints <user> <amount>.
func NewSetPointsHandler(store storage.Gateway, ledger *points.Ledger, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		args := c.Args()
		if len(args) < 2 {
			return c.Send("Usage: /setpoints <@username|id> <amount>")
		}

		target := resolveUser(store, args[0])
		if target == nil {
			return c.Send(fmt.Sprintf("User %s not found.", args[0]))
		}
		amount, ok := parseAmount(args[1])
		if !ok {
			return c.Send("Usage: /setpoints <@username|id> <amount>")
		}

		if err := ledger.SetBalance(target.UserID, amount); err != nil {
			return err
		}
		return c.Send(fmt.Sprintf("✅ %s's balance set to %d points.", args[0], amount))
	}
}

// itemAliases maps command-friendly names to reward kinds.
var itemAliases = map[string]domain.RewardKind{
	"gtd":     domain.RewardGTDWhitelist,
	"fcfs":    domain.RewardFCFSWhitelist,
	"airdrop": domain.RewardAirdrop,
	"tokens":  domain.RewardSparkTokens,
}

// NewAddItemsHandler returns a handler for /additems <user> <item> <amount>.
// Loot boxes are granted directly; reward items go through the same capped
// grant path loot boxes use.
func NewAddItemsHandler(store storage.Gateway, wallets *wallet.Store, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		args := c.Args()
		if len(args) < 3 {
			return c.Send("Usage: /additems <@username|id> <boxes|gtd|fcfs|airdrop|tokens> <amount>")
		}

		target := resolveUser(store, args[0])
		if target == nil {
			return c.Send(fmt.Sprintf("User %s not found.", args[0]))
		}
		amount, ok := parseAmount(args[2])
		if !ok || amount <= 0 {
			return c.Send("Amount must be a positive number.")
		}

		item := strings.ToLower(args[1])
		if item == "boxes" {
			w := wallets.ActiveWallet(target)
			w.Inventory.Add(domain.ItemLootBoxes, amount)
			if err := store.SaveUser(target); err != nil {
				return apperrors.NewStorageUnavailable(err)
			}
			return c.Send(fmt.Sprintf("✅ Granted %d loot box(es) to %s.", amount, args[0]))
		}

		kind, known := itemAliases[item]
		if !known {
			return c.Send("Unknown item. Use boxes, gtd, fcfs, airdrop, or tokens.")
		}

		applied, err := wallets.GrantItem(target, store.EconomyState(), kind, amount)
		if err != nil {
			return err
		}
		return c.Send(fmt.Sprintf("✅ Granted %d × %s to %s.", applied, item, args[0]))
	}
}

// NewAnnounceHandler returns a handler for /announce <symbols> <text>. The
// announcement is posted to the community chat with one button per reaction
// symbol; pressing a button earns the reactor a point once per symbol.
func NewAnnounceHandler(store storage.Gateway, kb *keyboard.Builder, communityChatID int64, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		args := c.Args()
		if len(args) < 2 {
			return c.Send("Usage: /announce <symbols, e.g. 🔥❤️🚀> <text>")
		}

		symbols := splitSymbols(args[0])
		if len(symbols) == 0 {
			return c.Send("Usage: /announce <symbols, e.g. 🔥❤️🚀> <text>")
		}
		text := strings.Join(args[1:], " ")

		chat := c.Chat()
		if communityChatID != 0 {
			chat = &telebot.Chat{ID: communityChatID}
		}

		msg, err := c.Bot().Send(chat, text, kb.Reactions(symbols))
		if err != nil {
			return fmt.Errorf("post announcement: %w", err)
		}

		record := &domain.AnnouncementRecord{
			MessageID: strconv.Itoa(msg.ID),
			ChannelID: strconv.FormatInt(msg.Chat.ID, 10),
			Reactions: symbols,
			CreatedAt: time.Now().UnixMilli(),
		}
		if err := store.SaveAnnouncement(record); err != nil {
			return apperrors.NewStorageUnavailable(err)
		}

		log.Info("announcement published",
			slog.String("message_id", record.MessageID),
			slog.Any("reactions", symbols),
		)
		return c.Send("📣 Announcement published.")
	}
}

// NewEditAnnouncementHandler returns a handler for
// /edit <messageId> <symbols> [text]. The stored symbol set is replaced, so
// previously credited reactions stay credited but only the new symbols earn
// points from here on; the posted message gets the re-rendered keyboard and,
// when text is given, the new body.
func NewEditAnnouncementHandler(store storage.Gateway, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		args := c.Args()
		if len(args) < 2 {
			return c.Send("Usage: /edit <messageId> <symbols, e.g. 🔥❤️🚀> [text]")
		}

		record := store.Announcement(args[0])
		if record == nil {
			return c.Send(fmt.Sprintf("Announcement %s not found.", args[0]))
		}

		symbols := splitSymbols(args[1])
		if len(symbols) == 0 {
			return c.Send("Usage: /edit <messageId> <symbols, e.g. 🔥❤️🚀> [text]")
		}

		chatID, err := strconv.ParseInt(record.ChannelID, 10, 64)
		if err != nil {
			return fmt.Errorf("announcement %s has a malformed channel id: %w", record.MessageID, err)
		}
		posted := &telebot.StoredMessage{MessageID: record.MessageID, ChatID: chatID}

		markup := kb.Reactions(symbols)
		if len(args) > 2 {
			_, err = c.Bot().Edit(posted, strings.Join(args[2:], " "), markup)
		} else {
			_, err = c.Bot().EditReplyMarkup(posted, markup)
		}
		if err != nil {
			return fmt.Errorf("edit announcement: %w", err)
		}

		record.Reactions = symbols
		if err := store.SaveAnnouncement(record); err != nil {
			return apperrors.NewStorageUnavailable(err)
		}

		log.Info("announcement edited",
			slog.String("message_id", record.MessageID),
			slog.Any("reactions", symbols),
		)
		return c.Send("✏️ Announcement updated.")
	}
}

// splitSymbols breaks the symbol argument into individual reaction symbols:
// comma-separated when commas are present, otherwise per emoji keeping
// variation selectors, skin tones, keycaps, and ZWJ sequences attached.
func splitSymbols(s string) []string {
	var symbols []string
	if strings.Contains(s, ",") {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				symbols = append(symbols, p)
			}
		}
	} else {
		var current []rune
		joined := false
		for _, r := range s {
			if len(current) > 0 && (joined || combinesLeft(r)) {
				current = append(current, r)
			} else {
				if len(current) > 0 {
					symbols = append(symbols, string(current))
				}
				current = []rune{r}
			}
			joined = r == '‍'
		}
		if len(current) > 0 {
			symbols = append(symbols, string(current))
		}
	}
	if len(symbols) > 5 {
		symbols = symbols[:5]
	}
	return symbols
}

// combinesLeft reports whether the rune modifies the preceding emoji rather
// than starting a new symbol.
func combinesLeft(r rune) bool {
	return r == '️' || r == '⃣' || r == '‍' ||
		(r >= 0x1F3FB && r <= 0x1F3FF)
}
