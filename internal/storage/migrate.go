package storage

import (
	"encoding/json"
	"fmt"

	"github.com/sparkstone/spark-bot/internal/domain"
)

// legacyUserV1 is the pre-multi-wallet record shape: a single address pair and
// inventory at the top level instead of a wallets array.
type legacyUserV1 struct {
	UserID               string                `json:"userId"`
	Username             string                `json:"username"`
	Points               int64                 `json:"points"`
	WalletAddress        string                `json:"walletAddress"`
	TaprootWalletAddress string                `json:"taprootWalletAddress"`
	Inventory            domain.Inventory      `json:"inventory"`
	InviteData           *domain.InviteRecord  `json:"inviteData"`
	ReactionData         domain.ReactionLedger `json:"reactionData"`
	GMCooldown           int64                 `json:"gmCooldown"`
	LastDailyPointsClaim int64                 `json:"lastDailyPointsClaim"`
}

// migrateUser decodes one stored user document into the current schema. The
// variant is chosen by the presence of the wallets array; conversion and
// field defaulting happen here, once per load, never at call sites.
func migrateUser(id string, doc json.RawMessage) (*domain.UserAccount, error) {
	var probe struct {
		Wallets []json.RawMessage `json:"wallets"`
	}
	if err := json.Unmarshal(doc, &probe); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}

	if len(probe.Wallets) == 0 {
		var legacy legacyUserV1
		if err := json.Unmarshal(doc, &legacy); err != nil {
			return nil, fmt.Errorf("decode legacy user %s: %w", id, err)
		}
		return convertLegacyUser(id, legacy), nil
	}

	var u domain.UserAccount
	if err := json.Unmarshal(doc, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	backfillUser(id, &u)
	return &u, nil
}

// convertLegacyUser lifts a v1 record into the current shape: the top-level
// address pair and inventory become wallet 1.
func convertLegacyUser(id string, legacy legacyUserV1) *domain.UserAccount {
	inv := legacy.Inventory
	if inv == nil {
		inv = domain.NewInventory()
	}
	inv.Normalize()

	u := &domain.UserAccount{
		UserID:       id,
		Username:     legacy.Username,
		Points:       legacy.Points,
		ActiveWallet: 1,
		Wallets: []*domain.WalletSlot{{
			WalletID:             1,
			SparkWalletAddress:   legacy.WalletAddress,
			TaprootWalletAddress: legacy.TaprootWalletAddress,
			Inventory:            inv,
		}},
		ReactionData:         legacy.ReactionData,
		GMCooldown:           legacy.GMCooldown,
		LastDailyPointsClaim: legacy.LastDailyPointsClaim,
	}
	if legacy.InviteData != nil {
		u.InviteData = *legacy.InviteData
	}
	backfillUser(id, u)
	return u
}

// backfillUser fills fields older records may lack so every loaded account is
// fully populated at the current version.
func backfillUser(id string, u *domain.UserAccount) {
	u.UserID = id
	if len(u.Wallets) == 0 {
		u.Wallets = []*domain.WalletSlot{domain.NewWalletSlot(1)}
	}
	for _, w := range u.Wallets {
		if w.Inventory == nil {
			w.Inventory = domain.NewInventory()
		}
		w.Inventory.Normalize()
	}
	if u.ActiveWallet < 1 || u.Wallet(u.ActiveWallet) == nil {
		u.ActiveWallet = u.Wallets[0].WalletID
	}
	if u.InviteData.InvitedUsers == nil {
		u.InviteData.InvitedUsers = []string{}
	}
	if u.ReactionData == nil {
		u.ReactionData = domain.ReactionLedger{}
	}
}

// migrateEconomyState defaults the airdrop-cap fields records written before
// the global limit existed are missing.
func migrateEconomyState(doc json.RawMessage) (*domain.GlobalEconomyState, error) {
	var raw struct {
		domain.GlobalEconomyState
		GlobalAirdropLimit       *int64 `json:"globalAirdropLimit"`
		TotalAirdropsDistributed *int64 `json:"totalAirdropsDistributed"`
	}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, err
	}

	state := raw.GlobalEconomyState
	defaults := domain.DefaultEconomyState()
	if raw.GlobalAirdropLimit != nil {
		state.GlobalAirdropLimit = *raw.GlobalAirdropLimit
	} else {
		state.GlobalAirdropLimit = defaults.GlobalAirdropLimit
	}
	if raw.TotalAirdropsDistributed != nil {
		state.TotalAirdropsDistributed = *raw.TotalAirdropsDistributed
	} else {
		state.TotalAirdropsDistributed = 0
	}
	if state.LootBoxRewards == nil {
		state.LootBoxRewards = []domain.RewardDefinition{}
	}
	return &state, nil
}
