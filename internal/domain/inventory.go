package domain

// Inventory maps an item counter name to a non-negative count. It marshals to
// the fixed JSON object shape existing exports use ("lootBoxes",
// "gtdWhitelist", "fcfsWhitelist", "airdropAllocations", "sparkTokens").
// Counters with a declared per-wallet cap saturate at that cap.
type Inventory map[string]int64

// Inventory counter names.
const (
	ItemLootBoxes          = "lootBoxes"
	ItemGTDWhitelist       = "gtdWhitelist"
	ItemFCFSWhitelist      = "fcfsWhitelist"
	ItemAirdropAllocations = "airdropAllocations"
	ItemSparkTokens        = "sparkTokens"
)

// itemCaps declares the per-wallet cap for each capped counter. Counters not
// listed here are uncapped. New reward kinds register a cap here and nowhere
// else, so the reward table and the inventory schema evolve together.
var itemCaps = map[string]int64{
	ItemGTDWhitelist:       1,
	ItemFCFSWhitelist:      1,
	ItemAirdropAllocations: 1,
}

// knownItems is the full counter set, in export column order.
var knownItems = []string{
	ItemLootBoxes,
	ItemGTDWhitelist,
	ItemFCFSWhitelist,
	ItemAirdropAllocations,
	ItemSparkTokens,
}

// KnownItems returns the inventory counter names in their canonical order.
func KnownItems() []string {
	out := make([]string, len(knownItems))
	copy(out, knownItems)
	return out
}

// ItemCap returns the per-wallet cap for the counter and whether one exists.
func ItemCap(item string) (int64, bool) {
	cap, ok := itemCaps[item]
	return cap, ok
}

// NewInventory builds an empty inventory with every known counter at zero.
func NewInventory() Inventory {
	inv := make(Inventory, len(knownItems))
	for _, item := range knownItems {
		inv[item] = 0
	}
	return inv
}

// Count returns the current value of a counter, zero when absent.
func (inv Inventory) Count(item string) int64 {
	return inv[item]
}

// Add increases a counter by amount, saturating at the counter's cap when one
// is declared. It returns the amount actually applied.
func (inv Inventory) Add(item string, amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	current := inv[item]
	next := current + amount
	if cap, capped := itemCaps[item]; capped && next > cap {
		next = cap
	}
	inv[item] = next
	return next - current
}

// Remove decreases a counter by amount, refusing to go below zero. It reports
// whether the full amount was available.
func (inv Inventory) Remove(item string, amount int64) bool {
	if amount <= 0 || inv[item] < amount {
		return false
	}
	inv[item] -= amount
	return true
}

// AtCap reports whether a capped counter has reached its cap. Uncapped
// counters are never at cap.
func (inv Inventory) AtCap(item string) bool {
	cap, capped := itemCaps[item]
	return capped && inv[item] >= cap
}

// Normalize fills in any counters missing from older records.
func (inv Inventory) Normalize() {
	for _, item := range knownItems {
		if _, ok := inv[item]; !ok {
			inv[item] = 0
		}
	}
}
