package handlers

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/bot/keyboard"
	"github.com/sparkstone/spark-bot/internal/domain"
	"github.com/sparkstone/spark-bot/internal/storage"
	"github.com/sparkstone/spark-bot/internal/wallet"
)

// NewEditWalletHandler returns a handler for
// /editwallet <spark|taproot> <address>.
func NewEditWalletHandler(store storage.Gateway, wallets *wallet.Store, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		args := c.Args()
		if len(args) < 2 {
			return c.Send("Usage: /editwallet <spark|taproot> <address>")
		}

		u := store.GetOrCreateUser(SenderID(c), SenderUsername(c))

		kind := strings.ToLower(args[0])
		address := args[1]
		switch kind {
		case "spark":
			wallets.SetAddresses(u, address, "")
		case "taproot":
			wallets.SetAddresses(u, "", address)
		default:
			return c.Send("Usage: /editwallet <spark|taproot> <address>")
		}

		return c.Send(fmt.Sprintf("✅ %s address updated for wallet %d.", kind, u.ActiveWallet))
	}
}

// NewSwitchWalletHandler returns a handler for the /switchwallet command.
func NewSwitchWalletHandler(store storage.Gateway, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		u := store.GetOrCreateUser(SenderID(c), SenderUsername(c))
		if len(u.Wallets) == 1 {
			return c.Send("You only have one wallet. Unlock more with /unlockwallet.")
		}

		return c.Send("Choose your active wallet:", kb.WalletSelect(u))
	}
}

// NewSwitchWalletCallback handles wallet selection button presses.
func NewSwitchWalletCallback(store storage.Gateway, wallets *wallet.Store, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Callback() == nil {
			return nil
		}
		defer func() { _ = c.Respond(&telebot.CallbackResponse{}) }()

		data := strings.TrimPrefix(strings.TrimPrefix(c.Callback().Data, "\f"), keyboard.CallbackSwitchWallet)
		walletID, err := strconv.Atoi(data)
		if err != nil {
			return nil
		}

		u := store.GetOrCreateUser(SenderID(c), SenderUsername(c))
		if err := wallets.SetActiveWallet(u, walletID); err != nil {
			return err
		}

		return c.Edit(fmt.Sprintf("✅ Wallet %d is now active.", walletID))
	}
}

// NewUnlockWalletHandler returns a handler for the /unlockwallet command.
// It reports the unlock requirements and offers the confirm button when the
// active wallet qualifies.
func NewUnlockWalletHandler(store storage.Gateway, wallets *wallet.Store, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		u := store.GetOrCreateUser(SenderID(c), SenderUsername(c))
		if len(u.Wallets) >= domain.MaxWallets {
			return c.Send(fmt.Sprintf("You already hold the maximum of %d wallets.", domain.MaxWallets))
		}

		econ := store.EconomyState()
		if !wallets.CanUnlockNext(u, econ) {
			requirements := "a GTD whitelist, an FCFS whitelist, and an airdrop allocation"
			if econ.AirdropCapReached() {
				requirements = "a GTD whitelist and an FCFS whitelist (airdrops are exhausted)"
			}
			return c.Send(fmt.Sprintf(
				"🔒 Your active wallet needs %s to unlock the next slot. Keep opening loot boxes!",
				requirements,
			))
		}

		return c.Send(
			fmt.Sprintf("Your active wallet qualifies! Unlock wallet %d?", len(u.Wallets)+1),
			kb.UnlockConfirm(len(u.Wallets)+1),
		)
	}
}

// NewUnlockWalletCallback handles the unlock confirmation button.
func NewUnlockWalletCallback(store storage.Gateway, wallets *wallet.Store, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}
		defer func() { _ = c.Respond(&telebot.CallbackResponse{}) }()

		u := store.GetOrCreateUser(SenderID(c), SenderUsername(c))
		econ := store.EconomyState()

		slot, err := wallets.UnlockNext(u, econ)
		if err != nil {
			return err
		}

		return c.Edit(fmt.Sprintf("🔓 Wallet %d unlocked and set active!", slot.WalletID))
	}
}
