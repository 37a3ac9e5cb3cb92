package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkstone/spark-bot/internal/domain"
)

func TestMigrateUser_LegacySingleWallet(t *testing.T) {
	doc := json.RawMessage(`{
		"userId": "99",
		"username": "veteran",
		"points": 320,
		"walletAddress": "spark1abc",
		"taprootWalletAddress": "bc1ptap",
		"inventory": {"lootBoxes": 2, "gtdWhitelist": 1},
		"inviteData": {"inviteCode": "xyz", "uses": 3, "pointsEarned": 60, "invitedUsers": ["5", "6", "7"]},
		"gmCooldown": 1700000000000
	}`)

	u, err := migrateUser("99", doc)
	require.NoError(t, err)

	assert.Equal(t, "99", u.UserID)
	assert.Equal(t, int64(320), u.Points)
	assert.Equal(t, 1, u.ActiveWallet)
	require.Len(t, u.Wallets, 1)

	w := u.Wallets[0]
	assert.Equal(t, 1, w.WalletID)
	assert.Equal(t, "spark1abc", w.SparkWalletAddress)
	assert.Equal(t, "bc1ptap", w.TaprootWalletAddress)
	assert.Equal(t, int64(2), w.Inventory.Count(domain.ItemLootBoxes))
	assert.Equal(t, int64(1), w.Inventory.Count(domain.ItemGTDWhitelist))
	assert.Equal(t, int64(0), w.Inventory.Count(domain.ItemSparkTokens), "missing counters are backfilled")

	assert.Equal(t, "xyz", u.InviteData.InviteCode)
	assert.Len(t, u.InviteData.InvitedUsers, 3)
	assert.Equal(t, int64(1700000000000), u.GMCooldown)
	assert.NotNil(t, u.ReactionData)
}

func TestMigrateUser_CurrentSchemaBackfills(t *testing.T) {
	doc := json.RawMessage(`{
		"userId": "12",
		"username": "current",
		"points": 10,
		"activeWallet": 5,
		"wallets": [{"walletId": 1, "inventory": {"lootBoxes": 1}}]
	}`)

	u, err := migrateUser("12", doc)
	require.NoError(t, err)

	assert.Equal(t, 1, u.ActiveWallet, "dangling activeWallet falls back to the first slot")
	assert.NotNil(t, u.InviteData.InvitedUsers)
	assert.NotNil(t, u.ReactionData)
	assert.Equal(t, int64(0), u.Wallets[0].Inventory.Count(domain.ItemAirdropAllocations))
}

func TestMigrateUser_Malformed(t *testing.T) {
	_, err := migrateUser("1", json.RawMessage(`"just a string"`))
	assert.Error(t, err)
}

func TestMigrateEconomyState_DefaultsMissingCapFields(t *testing.T) {
	doc := json.RawMessage(`{
		"totalAirdropsGiven": 4,
		"maxAirdrops": 20,
		"lootBoxRewards": [{"type": "airdrop", "name": "Airdrop", "probability": 0.03}]
	}`)

	state, err := migrateEconomyState(doc)
	require.NoError(t, err)

	assert.Equal(t, int64(4), state.TotalAirdropsGiven)
	assert.Equal(t, domain.DefaultEconomyState().GlobalAirdropLimit, state.GlobalAirdropLimit)
	assert.Equal(t, int64(0), state.TotalAirdropsDistributed)
	require.Len(t, state.LootBoxRewards, 1)
	assert.Equal(t, domain.RewardAirdrop, state.LootBoxRewards[0].Kind)
}

func TestMigrateEconomyState_KeepsExplicitValues(t *testing.T) {
	doc := json.RawMessage(`{
		"globalAirdropLimit": 50,
		"totalAirdropsDistributed": 12
	}`)

	state, err := migrateEconomyState(doc)
	require.NoError(t, err)

	assert.Equal(t, int64(50), state.GlobalAirdropLimit)
	assert.Equal(t, int64(12), state.TotalAirdropsDistributed)
	assert.NotNil(t, state.LootBoxRewards)
}
