// Package keyboard builds the inline keyboards the reward bot attaches to
// its messages.
package keyboard

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/domain"
)

// Callback data prefixes. The router matches on these.
const (
	CallbackSwitchWallet = "wallet_switch_"
	CallbackUnlockWallet = "wallet_unlock"
	CallbackOpenBox      = "box_open"
	CallbackReaction     = "react_"
)

// Builder creates inline keyboards for wallet, loot-box, and announcement flows.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

// WalletSelect builds one button per wallet slot, marking the active one.
func (b *Builder) WalletSelect(u *domain.UserAccount) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := make([][]telebot.InlineButton, 0, len(u.Wallets))
	for _, w := range u.Wallets {
		label := fmt.Sprintf("Wallet %d", w.WalletID)
		if w.WalletID == u.ActiveWallet {
			label += " ✅"
		}
		rows = append(rows, []telebot.InlineButton{
			{
				Text: label,
				Data: fmt.Sprintf("%s%d", CallbackSwitchWallet, w.WalletID),
			},
		})
	}
	markup.InlineKeyboard = rows
	return markup
}

// UnlockConfirm builds the confirmation button for unlocking the next slot.
func (b *Builder) UnlockConfirm(nextSlot int) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{
				Text: fmt.Sprintf("Unlock wallet %d 🔓", nextSlot),
				Data: CallbackUnlockWallet,
			},
		},
	}
	return markup
}

// OpenBox builds the open-another-box button shown after a purchase or open.
func (b *Builder) OpenBox() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{
				Text: "Open loot box 📦",
				Data: CallbackOpenBox,
			},
		},
	}
	return markup
}

// Reactions builds one button per point-earning reaction symbol on an
// announcement.
func (b *Builder) Reactions(symbols []string) *telebot.ReplyMarkup {
	row := make([]telebot.InlineButton, 0, len(symbols))
	for _, symbol := range symbols {
		row = append(row, telebot.InlineButton{
			Text: symbol,
			Data: CallbackReaction + symbol,
		})
	}

	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{row}
	return markup
}
