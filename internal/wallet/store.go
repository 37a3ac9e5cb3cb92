// Package wallet implements the multi-wallet inventory store: the active-slot
// selection, the unlock-eligibility rule, and slot creation under the global
// ten-wallet ceiling.
package wallet

import (
	"log/slog"

	"github.com/sparkstone/spark-bot/internal/domain"
	apperrors "github.com/sparkstone/spark-bot/internal/errors"
	"github.com/sparkstone/spark-bot/internal/storage"
)

// Store performs wallet-slot operations for accounts. Slots, once created,
// never regress and are never removed.
type Store struct {
	store storage.Gateway
	log   *slog.Logger
}

func NewStore(store storage.Gateway, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{store: store, log: log}
}

// ActiveWallet returns the slot selected by activeWallet. Accounts without
// any slot (fresh or pre-migration records) get wallet 1 synthesized and the
// backfill persisted.
func (s *Store) ActiveWallet(u *domain.UserAccount) *domain.WalletSlot {
	if len(u.Wallets) == 0 {
		u.Wallets = []*domain.WalletSlot{domain.NewWalletSlot(1)}
		u.ActiveWallet = 1
		s.persist(u, "backfill_wallet")
	}
	if w := u.Wallet(u.ActiveWallet); w != nil {
		return w
	}
	return u.Wallets[0]
}

// SetActiveWallet switches which slot subsequent inventory operations target.
func (s *Store) SetActiveWallet(u *domain.UserAccount, walletID int) error {
	if u.Wallet(walletID) == nil {
		return apperrors.NewWalletNotFound(walletID)
	}
	u.ActiveWallet = walletID
	s.persist(u, "set_active_wallet")
	return nil
}

// SetAddresses updates the active slot's addresses. Empty arguments leave
// the corresponding address untouched.
func (s *Store) SetAddresses(u *domain.UserAccount, sparkAddr, taprootAddr string) {
	w := s.ActiveWallet(u)
	if sparkAddr != "" {
		w.SparkWalletAddress = sparkAddr
	}
	if taprootAddr != "" {
		w.TaprootWalletAddress = taprootAddr
	}
	s.persist(u, "set_addresses")
}

// CanUnlockNext evaluates the active wallet against the unlock rule: both
// whitelist flags are always required; the airdrop allocation is additionally
// required only while the global airdrop pool is still open. Once the pool is
// exhausted the rule relaxes so wallets cannot become permanently unlockable.
func (s *Store) CanUnlockNext(u *domain.UserAccount, econ *domain.GlobalEconomyState) bool {
	inv := s.ActiveWallet(u).Inventory
	hasGTD := inv.Count(domain.ItemGTDWhitelist) >= 1
	hasFCFS := inv.Count(domain.ItemFCFSWhitelist) >= 1

	if econ.AirdropCapReached() {
		return hasGTD && hasFCFS
	}
	return hasGTD && hasFCFS && inv.Count(domain.ItemAirdropAllocations) >= 1
}

// CreateNextWallet appends the next slot in creation order. The caller is
// responsible for persisting and for activating it.
func (s *Store) CreateNextWallet(u *domain.UserAccount) (*domain.WalletSlot, error) {
	if len(u.Wallets) >= domain.MaxWallets {
		return nil, apperrors.NewWalletLimitReached()
	}
	w := domain.NewWalletSlot(len(u.Wallets) + 1)
	u.Wallets = append(u.Wallets, w)
	return w, nil
}

// UnlockNext runs the full unlock flow: eligibility check, slot creation,
// activation, persistence. Returns the newly active slot.
func (s *Store) UnlockNext(u *domain.UserAccount, econ *domain.GlobalEconomyState) (*domain.WalletSlot, error) {
	if !s.CanUnlockNext(u, econ) {
		return nil, apperrors.NewUnlockRequirementsNotMet()
	}

	w, err := s.CreateNextWallet(u)
	if err != nil {
		return nil, err
	}
	u.ActiveWallet = w.WalletID
	s.persist(u, "unlock_wallet")

	s.log.Info("wallet unlocked",
		slog.String("user_id", u.UserID),
		slog.Int("wallet_id", w.WalletID),
	)
	return w, nil
}

// GrantItem adds an amount of a reward kind to the user's active wallet,
// honoring per-kind caps. Granting airdrops also advances the capped global
// counter, so admin grants and loot-box grants draw from the same pool.
func (s *Store) GrantItem(u *domain.UserAccount, econ *domain.GlobalEconomyState, kind domain.RewardKind, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.NewInvalidAmount("item amount must be positive")
	}
	if !kind.Valid() {
		return 0, apperrors.NewInvalidAmount("unknown item kind")
	}

	w := s.ActiveWallet(u)
	applied := w.Inventory.Add(kind.InventoryItem(), amount)
	if kind == domain.RewardAirdrop && applied > 0 {
		econ.RecordAirdrop(applied)
		if err := s.store.SaveEconomyState(econ); err != nil {
			s.log.Error("failed to persist economy state", slog.Any("error", err))
		}
	}
	s.persist(u, "grant_item")
	return applied, nil
}

func (s *Store) persist(u *domain.UserAccount, op string) {
	if err := s.store.SaveUser(u); err != nil {
		s.log.Error("failed to persist wallet mutation",
			slog.String("operation", op),
			slog.String("user_id", u.UserID),
			slog.Any("error", err),
		)
	}
}
