package domain

import "time"

// MaxWallets is the hard ceiling of wallet slots a single account can hold.
const MaxWallets = 10

// UserAccount is the persisted record for one community member. Field names
// are part of the on-disk interchange format and must not change.
type UserAccount struct {
	UserID               string         `json:"userId"`
	Username             string         `json:"username"`
	Points               int64          `json:"points"`
	ActiveWallet         int            `json:"activeWallet"`
	Wallets              []*WalletSlot  `json:"wallets"`
	InviteData           InviteRecord   `json:"inviteData"`
	ReactionData         ReactionLedger `json:"reactionData"`
	GMCooldown           int64          `json:"gmCooldown,omitempty"`
	LastLootBoxOpen      int64          `json:"lastLootBoxOpen,omitempty"`
	LastDailyPointsClaim int64          `json:"lastDailyPointsClaim,omitempty"`
}

// WalletSlot is one of up to ten independent inventory/address containers
// owned by an account. Slots are created in order and never removed.
type WalletSlot struct {
	WalletID             int       `json:"walletId"`
	SparkWalletAddress   string    `json:"sparkWalletAddress,omitempty"`
	TaprootWalletAddress string    `json:"taprootWalletAddress,omitempty"`
	Inventory            Inventory `json:"inventory"`
}

// InviteRecord tracks the account's single permanent invite code and the
// invitees already credited. An invitee id appears at most once.
type InviteRecord struct {
	InviteCode   string   `json:"inviteCode"`
	Uses         int64    `json:"uses"`
	PointsEarned int64    `json:"pointsEarned"`
	InvitedUsers []string `json:"invitedUsers"`
}

// ReactionLedger maps an announcement message id to the reaction symbols the
// account has already been credited for on that message.
type ReactionLedger map[string][]string

// HasCredited reports whether the (message, symbol) pair was already rewarded.
func (l ReactionLedger) HasCredited(messageID, symbol string) bool {
	for _, s := range l[messageID] {
		if s == symbol {
			return true
		}
	}
	return false
}

// Credit records the (message, symbol) pair. The caller checks HasCredited first.
func (l ReactionLedger) Credit(messageID, symbol string) {
	l[messageID] = append(l[messageID], symbol)
}

// HasInvited reports whether the invitee was already credited to this record.
func (r *InviteRecord) HasInvited(inviteeID string) bool {
	for _, id := range r.InvitedUsers {
		if id == inviteeID {
			return true
		}
	}
	return false
}

// NewUserAccount builds a fresh account with one empty wallet slot active.
func NewUserAccount(userID, username string) *UserAccount {
	return &UserAccount{
		UserID:       userID,
		Username:     username,
		ActiveWallet: 1,
		Wallets:      []*WalletSlot{NewWalletSlot(1)},
		InviteData:   InviteRecord{InvitedUsers: []string{}},
		ReactionData: ReactionLedger{},
	}
}

// NewWalletSlot builds an empty slot with the given 1-based id.
func NewWalletSlot(walletID int) *WalletSlot {
	return &WalletSlot{WalletID: walletID, Inventory: NewInventory()}
}

// Wallet returns the slot with the given id, or nil when absent.
func (u *UserAccount) Wallet(walletID int) *WalletSlot {
	for _, w := range u.Wallets {
		if w.WalletID == walletID {
			return w
		}
	}
	return nil
}

// GMCooldownTime returns the last greeting reward time, zero when never granted.
func (u *UserAccount) GMCooldownTime() time.Time {
	return millisToTime(u.GMCooldown)
}

// LastOpenTime returns the last loot-box open time, zero when never opened.
func (u *UserAccount) LastOpenTime() time.Time {
	return millisToTime(u.LastLootBoxOpen)
}

// LastDailyClaimTime returns the last daily role claim time, zero when never claimed.
func (u *UserAccount) LastDailyClaimTime() time.Time {
	return millisToTime(u.LastDailyPointsClaim)
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
