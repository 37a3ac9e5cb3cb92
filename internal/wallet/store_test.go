package wallet_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkstone/spark-bot/internal/domain"
	apperrors "github.com/sparkstone/spark-bot/internal/errors"
	"github.com/sparkstone/spark-bot/internal/storage"
	"github.com/sparkstone/spark-bot/internal/wallet"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) (*wallet.Store, storage.Gateway) {
	t.Helper()
	gateway, err := storage.NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return wallet.NewStore(gateway, testLogger()), gateway
}

func qualifyWallet(w *domain.WalletSlot, withAirdrop bool) {
	w.Inventory.Add(domain.ItemGTDWhitelist, 1)
	w.Inventory.Add(domain.ItemFCFSWhitelist, 1)
	if withAirdrop {
		w.Inventory.Add(domain.ItemAirdropAllocations, 1)
	}
}

func TestStore_ActiveWalletBackfillsEmptyAccounts(t *testing.T) {
	s, gateway := newStore(t)

	u := &domain.UserAccount{UserID: "1"}
	require.NoError(t, gateway.SaveUser(u))

	w := s.ActiveWallet(u)
	require.NotNil(t, w)
	assert.Equal(t, 1, w.WalletID)
	assert.Equal(t, 1, u.ActiveWallet)
}

func TestStore_SetActiveWallet(t *testing.T) {
	s, gateway := newStore(t)
	u := gateway.GetOrCreateUser("1", "alice")

	err := s.SetActiveWallet(u, 3)
	require.ErrorIs(t, err, apperrors.NewWalletNotFound(3))

	u.Wallets = append(u.Wallets, domain.NewWalletSlot(2))
	require.NoError(t, s.SetActiveWallet(u, 2))
	assert.Equal(t, 2, u.ActiveWallet)
}

func TestStore_SetAddressesLeavesEmptyFieldsAlone(t *testing.T) {
	s, gateway := newStore(t)
	u := gateway.GetOrCreateUser("1", "alice")

	s.SetAddresses(u, "spark1abc", "")
	s.SetAddresses(u, "", "bc1ptap")

	w := s.ActiveWallet(u)
	assert.Equal(t, "spark1abc", w.SparkWalletAddress)
	assert.Equal(t, "bc1ptap", w.TaprootWalletAddress)
}

func TestStore_CanUnlockNext(t *testing.T) {
	testCases := []struct {
		name        string
		setup       func(w *domain.WalletSlot)
		capReached  bool
		wantUnlocks bool
	}{
		{
			name:        "empty wallet cannot unlock",
			setup:       func(w *domain.WalletSlot) {},
			wantUnlocks: false,
		},
		{
			name: "whitelists alone are not enough while airdrops remain",
			setup: func(w *domain.WalletSlot) {
				qualifyWallet(w, false)
			},
			wantUnlocks: false,
		},
		{
			name: "full set unlocks",
			setup: func(w *domain.WalletSlot) {
				qualifyWallet(w, true)
			},
			wantUnlocks: true,
		},
		{
			name: "airdrop requirement relaxes once the pool is exhausted",
			setup: func(w *domain.WalletSlot) {
				qualifyWallet(w, false)
			},
			capReached:  true,
			wantUnlocks: true,
		},
		{
			name:        "cap reached but missing whitelists still blocks",
			setup:       func(w *domain.WalletSlot) {},
			capReached:  true,
			wantUnlocks: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, gateway := newStore(t)
			u := gateway.GetOrCreateUser("1", "alice")
			tc.setup(u.Wallets[0])

			econ := gateway.EconomyState()
			if tc.capReached {
				econ.TotalAirdropsDistributed = econ.GlobalAirdropLimit
			}

			assert.Equal(t, tc.wantUnlocks, s.CanUnlockNext(u, econ))
		})
	}
}

func TestStore_UnlockNext(t *testing.T) {
	s, gateway := newStore(t)
	u := gateway.GetOrCreateUser("1", "alice")
	qualifyWallet(u.Wallets[0], true)

	w, err := s.UnlockNext(u, gateway.EconomyState())
	require.NoError(t, err)
	assert.Equal(t, 2, w.WalletID)
	assert.Equal(t, 2, u.ActiveWallet, "new slot becomes active")
	assert.Equal(t, int64(0), w.Inventory.Count(domain.ItemGTDWhitelist), "new slot starts empty")

	// The fresh slot does not qualify, so a second unlock is rejected.
	_, err = s.UnlockNext(u, gateway.EconomyState())
	require.ErrorIs(t, err, apperrors.NewUnlockRequirementsNotMet())
}

func TestStore_UnlockStopsAtTenWallets(t *testing.T) {
	s, gateway := newStore(t)
	u := gateway.GetOrCreateUser("1", "alice")

	for len(u.Wallets) < domain.MaxWallets {
		qualifyWallet(u.Wallets[u.ActiveWallet-1], true)
		_, err := s.UnlockNext(u, gateway.EconomyState())
		require.NoError(t, err)
	}

	qualifyWallet(u.Wallets[u.ActiveWallet-1], true)
	_, err := s.UnlockNext(u, gateway.EconomyState())
	require.ErrorIs(t, err, apperrors.NewWalletLimitReached())
	assert.Len(t, u.Wallets, domain.MaxWallets)
}

func TestStore_GrantItem(t *testing.T) {
	s, gateway := newStore(t)
	u := gateway.GetOrCreateUser("1", "alice")
	econ := gateway.EconomyState()

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := s.GrantItem(u, econ, domain.RewardGTDWhitelist, 0)
		require.ErrorIs(t, err, apperrors.NewInvalidAmount(""))

		_, err = s.GrantItem(u, econ, domain.RewardKind("bogus"), 1)
		require.ErrorIs(t, err, apperrors.NewInvalidAmount(""))
	})

	t.Run("capped items saturate", func(t *testing.T) {
		applied, err := s.GrantItem(u, econ, domain.RewardGTDWhitelist, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(1), applied)
		assert.Equal(t, int64(1), s.ActiveWallet(u).Inventory.Count(domain.ItemGTDWhitelist))
	})

	t.Run("airdrop grants advance the global counter", func(t *testing.T) {
		before := econ.TotalAirdropsDistributed
		applied, err := s.GrantItem(u, econ, domain.RewardAirdrop, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), applied)
		assert.Equal(t, before+1, econ.TotalAirdropsDistributed)
		assert.Equal(t, before+1, gateway.EconomyState().TotalAirdropsDistributed, "counter persisted")

		// Wallet already holds its one allocation: nothing applied, counter still.
		applied, err = s.GrantItem(u, econ, domain.RewardAirdrop, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), applied)
		assert.Equal(t, before+1, econ.TotalAirdropsDistributed)
	})

	t.Run("tokens are uncapped", func(t *testing.T) {
		applied, err := s.GrantItem(u, econ, domain.RewardSparkTokens, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(30), applied)
	})
}
