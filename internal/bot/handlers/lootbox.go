package handlers

import (
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/bot/keyboard"
	"github.com/sparkstone/spark-bot/internal/domain"
	"github.com/sparkstone/spark-bot/internal/lootbox"
	"github.com/sparkstone/spark-bot/internal/storage"
)

// NewBuyLootBoxHandler returns a handler for /buylootbox [quantity].
func NewBuyLootBoxHandler(engine *lootbox.Engine, store storage.Gateway, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		quantity := int64(1)
		if args := c.Args(); len(args) > 0 {
			n, ok := parseAmount(args[0])
			if !ok || n <= 0 {
				return c.Send("Usage: /buylootbox [quantity]")
			}
			quantity = n
		}

		cost, err := engine.Purchase(SenderID(c), quantity)
		if err != nil {
			return err
		}

		return c.Send(
			fmt.Sprintf("📦 Bought %d loot box(es) for %d points!", quantity, cost),
			kb.OpenBox(),
		)
	}
}

// NewOpenLootBoxHandler returns a handler shared by /openlootbox and the
// open-box inline button.
func NewOpenLootBoxHandler(engine *lootbox.Engine, adminCheck func(userID string) bool, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		if cb := c.Callback(); cb != nil {
			defer func() { _ = c.Respond(&telebot.CallbackResponse{}) }()
		}

		userID := SenderID(c)
		bypass := adminCheck != nil && adminCheck(userID)

		reward, err := engine.OpenOne(userID, bypass)
		if err != nil {
			return err
		}

		msg := fmt.Sprintf("🎉 You won: %s!\n%s", reward.Name, reward.Description)
		if reward.OpeningImage != "" {
			return c.Send(&telebot.Photo{
				File:    telebot.FromURL(reward.OpeningImage),
				Caption: msg,
			})
		}
		return c.Send(msg)
	}
}

// NewInventoryHandler returns a handler for the /inventory command.
func NewInventoryHandler(store storage.Gateway, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		u := store.GetOrCreateUser(SenderID(c), SenderUsername(c))
		w := u.Wallet(u.ActiveWallet)
		if w == nil && len(u.Wallets) > 0 {
			w = u.Wallets[0]
		}
		if w == nil {
			return c.Send("You have no wallet yet. Send any command to set one up.")
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "🎒 Wallet %d inventory:\n", w.WalletID)
		labels := map[string]string{
			domain.ItemLootBoxes:          "📦 Loot boxes",
			domain.ItemGTDWhitelist:       "⭐ GTD whitelist",
			domain.ItemFCFSWhitelist:      "🏃 FCFS whitelist",
			domain.ItemAirdropAllocations: "🪂 Airdrop allocations",
			domain.ItemSparkTokens:        "🪙 $Stone tokens",
		}
		for _, item := range domain.KnownItems() {
			fmt.Fprintf(&sb, "%s: %d\n", labels[item], w.Inventory.Count(item))
		}

		fmt.Fprintf(&sb, "\nSpark address: %s\nTaproot address: %s",
			orPlaceholder(w.SparkWalletAddress),
			orPlaceholder(w.TaprootWalletAddress),
		)
		return c.Send(sb.String())
	}
}

func orPlaceholder(addr string) string {
	if addr == "" {
		return "not set"
	}
	return addr
}
