package domain

// RewardKind identifies a reward table entry category. The wire values are
// fixed by existing exported data.
type RewardKind string

const (
	RewardGTDWhitelist  RewardKind = "gtd_whitelist"
	RewardFCFSWhitelist RewardKind = "fcfs_whitelist"
	RewardAirdrop       RewardKind = "airdrop"
	RewardSparkTokens   RewardKind = "spark_tokens"
)

// rewardItems maps each reward kind to the inventory counter it fills.
var rewardItems = map[RewardKind]string{
	RewardGTDWhitelist:  ItemGTDWhitelist,
	RewardFCFSWhitelist: ItemFCFSWhitelist,
	RewardAirdrop:       ItemAirdropAllocations,
	RewardSparkTokens:   ItemSparkTokens,
}

// InventoryItem returns the inventory counter this kind accumulates into.
func (k RewardKind) InventoryItem() string {
	return rewardItems[k]
}

// Valid reports whether the kind is one of the known reward categories.
func (k RewardKind) Valid() bool {
	_, ok := rewardItems[k]
	return ok
}

// RewardDefinition is one entry of the ordered reward table. Probabilities are
// raw table values; they are never renormalized against a filtered subset.
type RewardDefinition struct {
	Kind           RewardKind `json:"type"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	InventoryImage string     `json:"inventoryImage,omitempty"`
	OpeningImage   string     `json:"openingImage,omitempty"`
	Probability    float64    `json:"probability"`
	TokenAmount    int64      `json:"tokenAmount,omitempty"`
	MaxQuantity    int64      `json:"maxQuantity,omitempty"`
}

// GlobalEconomyState is the process-wide economy singleton. Field names are
// part of the on-disk interchange format.
type GlobalEconomyState struct {
	TotalAirdropsGiven       int64              `json:"totalAirdropsGiven"`
	MaxAirdrops              int64              `json:"maxAirdrops"`
	LootBoxRewards           []RewardDefinition `json:"lootBoxRewards"`
	GlobalAirdropLimit       int64              `json:"globalAirdropLimit"`
	TotalAirdropsDistributed int64              `json:"totalAirdropsDistributed"`
}

// AirdropCapReached reports whether the global airdrop pool is exhausted.
func (s *GlobalEconomyState) AirdropCapReached() bool {
	return s.TotalAirdropsDistributed >= s.GlobalAirdropLimit
}

// RecordAirdrop advances the distributed counter without exceeding the limit.
func (s *GlobalEconomyState) RecordAirdrop(n int64) {
	s.TotalAirdropsDistributed += n
	if s.TotalAirdropsDistributed > s.GlobalAirdropLimit {
		s.TotalAirdropsDistributed = s.GlobalAirdropLimit
	}
}

// BotConfig holds the runtime-tunable economy settings. It is mutated only by
// external configuration tooling; the core treats it as read-only.
type BotConfig struct {
	LootBoxCost  int64 `json:"lootBoxCost"`
	InvitePoints int64 `json:"invitePoints"`
}

// DefaultBotConfig returns the seed configuration for a fresh data directory.
func DefaultBotConfig() BotConfig {
	return BotConfig{LootBoxCost: 50, InvitePoints: 20}
}

const defaultAirdropLimit = 20

// DefaultEconomyState returns the seed economy record, including the stock
// reward table, for a fresh data directory.
func DefaultEconomyState() *GlobalEconomyState {
	return &GlobalEconomyState{
		MaxAirdrops:        defaultAirdropLimit,
		GlobalAirdropLimit: defaultAirdropLimit,
		LootBoxRewards: []RewardDefinition{
			{
				Kind:        RewardGTDWhitelist,
				Name:        "GTD Whitelist",
				Description: "Guaranteed whitelist allocation",
				Probability: 0.20,
			},
			{
				Kind:        RewardFCFSWhitelist,
				Name:        "FCFS Whitelist",
				Description: "First come first serve whitelist allocation",
				Probability: 0.60,
			},
			{
				Kind:        RewardAirdrop,
				Name:        "Airdrop Allocation",
				Description: "Token airdrop allocation",
				Probability: 0.03,
				MaxQuantity: defaultAirdropLimit,
			},
			{
				Kind:        RewardSparkTokens,
				Name:        "10 $Stone Tokens",
				Description: "10 $Stone tokens",
				Probability: 0.10,
				TokenAmount: 10,
			},
			{
				Kind:        RewardSparkTokens,
				Name:        "20 $Stone Tokens",
				Description: "20 $Stone tokens",
				Probability: 0.07,
				TokenAmount: 20,
			},
		},
	}
}

// AnnouncementRecord tracks which reaction symbols earn points on one
// published announcement message.
type AnnouncementRecord struct {
	MessageID string   `json:"messageId"`
	ChannelID string   `json:"channelId"`
	Reactions []string `json:"reactions"`
	CreatedAt int64    `json:"createdAt"`
}

// TracksReaction reports whether the symbol is eligible on this announcement.
func (a *AnnouncementRecord) TracksReaction(symbol string) bool {
	for _, r := range a.Reactions {
		if r == symbol {
			return true
		}
	}
	return false
}
