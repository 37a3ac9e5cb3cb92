// Package lootbox implements the reward engine: purchasing boxes with points
// and opening them against the globally-capped, per-wallet-filtered reward
// table.
package lootbox

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sparkstone/spark-bot/internal/domain"
	apperrors "github.com/sparkstone/spark-bot/internal/errors"
	"github.com/sparkstone/spark-bot/internal/points"
	"github.com/sparkstone/spark-bot/internal/storage"
	"github.com/sparkstone/spark-bot/internal/wallet"
	"github.com/sparkstone/spark-bot/pkg/metrics"
)

// OpenCooldown is the minimum interval between two opens by the same account.
const OpenCooldown = 30 * time.Second

// Engine draws rewards for loot-box opens. The draw source and clock are
// injectable so tests run deterministically.
type Engine struct {
	store   storage.Gateway
	ledger  *points.Ledger
	wallets *wallet.Store
	log     *slog.Logger
	draw    func() float64
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithDraw replaces the uniform [0,1) draw source.
func WithDraw(draw func() float64) Option {
	return func(e *Engine) { e.draw = draw }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store storage.Gateway, ledger *points.Ledger, wallets *wallet.Store, log *slog.Logger, opts ...Option) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		store:   store,
		ledger:  ledger,
		wallets: wallets,
		log:     log,
		draw:    rand.Float64,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Purchase debits quantity x lootBoxCost points and adds the boxes to the
// user's active wallet. The debit failing fails the purchase with no change.
func (e *Engine) Purchase(userID string, quantity int64) (int64, error) {
	if quantity <= 0 {
		return 0, apperrors.NewInvalidAmount("quantity must be positive")
	}

	cost := quantity * e.store.Config().LootBoxCost
	if err := e.ledger.Debit(userID, cost); err != nil {
		return 0, err
	}

	u := e.store.GetOrCreateUser(userID, "")
	w := e.wallets.ActiveWallet(u)
	w.Inventory.Add(domain.ItemLootBoxes, quantity)
	e.persistUser(u, "purchase")

	e.log.Info("loot boxes purchased",
		slog.String("user_id", userID),
		slog.Int64("quantity", quantity),
		slog.Int64("cost", cost),
	)
	return cost, nil
}

// OpenOne opens a single loot box from the user's active wallet. Every open
// consumes exactly one box and always grants a reward; the only rejections
// happen before any state change (no boxes, cooldown).
//
// Wallets that cannot legally receive an airdrop (already hold one, or the
// global cap is reached) draw from the fungible-token subset only. Eligible
// wallets draw from the full table minus entries whose per-wallet cap the
// wallet has already hit. Probabilities are raw table values walked
// cumulatively in table order with a last-entry fallback; the filtered subset
// is intentionally not renormalized.
func (e *Engine) OpenOne(userID string, bypassCooldown bool) (*domain.RewardDefinition, error) {
	u := e.store.GetOrCreateUser(userID, "")

	w := e.wallets.ActiveWallet(u)
	if w.Inventory.Count(domain.ItemLootBoxes) == 0 {
		return nil, apperrors.NewNoLootBoxes()
	}

	if !bypassCooldown {
		if err := e.checkCooldown(u); err != nil {
			return nil, err
		}
	}

	econ := e.store.EconomyState()
	canGetAirdrop := w.Inventory.Count(domain.ItemAirdropAllocations) < 1 && !econ.AirdropCapReached()

	pool := filterRewards(econ.LootBoxRewards, w.Inventory, canGetAirdrop)
	if len(pool) == 0 {
		return nil, apperrors.NewRewardPoolExhausted()
	}

	reward := selectReward(pool, e.draw())

	w.Inventory.Remove(domain.ItemLootBoxes, 1)
	w.Inventory.Add(reward.Kind.InventoryItem(), grantAmount(reward))
	u.LastLootBoxOpen = e.now().UnixMilli()
	if reward.Kind == domain.RewardAirdrop {
		econ.RecordAirdrop(1)
	}

	e.persistUser(u, "open")
	if err := e.store.SaveEconomyState(econ); err != nil {
		e.log.Error("failed to persist economy state after open", slog.Any("error", err))
	}

	metrics.RecordRewardGrant(string(reward.Kind))
	metrics.SetAirdropsRemaining(econ.GlobalAirdropLimit - econ.TotalAirdropsDistributed)
	e.log.Info("loot box opened",
		slog.String("user_id", userID),
		slog.Int("wallet_id", w.WalletID),
		slog.String("reward", reward.Name),
	)
	return &reward, nil
}

func (e *Engine) checkCooldown(u *domain.UserAccount) error {
	last := u.LastOpenTime()
	if last.IsZero() {
		return nil
	}
	elapsed := e.now().Sub(last)
	if elapsed >= OpenCooldown {
		return nil
	}
	remaining := OpenCooldown - elapsed
	return apperrors.NewCooldownActive(
		fmt.Sprintf("open cooldown active for another %s", remaining.Round(time.Second)),
		fmt.Sprintf("Please wait %d more seconds before opening another loot box.", int(remaining.Seconds())+1),
	)
}

// filterRewards returns the subset of the table the wallet can still legally
// receive, preserving table order.
func filterRewards(table []domain.RewardDefinition, inv domain.Inventory, canGetAirdrop bool) []domain.RewardDefinition {
	pool := make([]domain.RewardDefinition, 0, len(table))
	for _, r := range table {
		switch {
		case !canGetAirdrop && r.Kind != domain.RewardSparkTokens:
			// Airdrop-ineligible wallets draw from fungible tokens only.
		case r.Kind == domain.RewardAirdrop && !canGetAirdrop:
		case inv.AtCap(r.Kind.InventoryItem()):
		default:
			pool = append(pool, r)
		}
	}
	return pool
}

// selectReward walks the pool in order accumulating raw probabilities; the
// first entry whose cumulative value meets the draw wins, and the last entry
// is the fallback so a non-empty pool always yields a reward.
func selectReward(pool []domain.RewardDefinition, draw float64) domain.RewardDefinition {
	var cumulative float64
	for _, r := range pool {
		cumulative += r.Probability
		if draw <= cumulative {
			return r
		}
	}
	return pool[len(pool)-1]
}

func grantAmount(r domain.RewardDefinition) int64 {
	if r.Kind == domain.RewardSparkTokens {
		return r.TokenAmount
	}
	return 1
}

func (e *Engine) persistUser(u *domain.UserAccount, op string) {
	if err := e.store.SaveUser(u); err != nil {
		e.log.Error("failed to persist loot box mutation",
			slog.String("operation", op),
			slog.String("user_id", u.UserID),
			slog.Any("error", err),
		)
	}
}
