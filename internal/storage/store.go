// Package storage implements the persistence gateway: four JSON document
// families (users, economy state, config, announcements), each read and
// rewritten as a whole document per mutation. The on-disk shape is the
// interchange format existing exports use.
package storage

import "github.com/sparkstone/spark-bot/internal/domain"

// Gateway is the persistence contract the reward core depends on. Lookups of
// absent records return nil, never an error; unreadable documents degrade to
// documented defaults. Write failures are returned so callers can log them,
// but in-memory mutations are never rolled back.
type Gateway interface {
	// User returns the account for id, or nil when absent.
	User(id string) *domain.UserAccount
	// GetOrCreateUser returns the existing account or persists a fresh one.
	// The stored display name is refreshed to the last-seen value.
	GetOrCreateUser(id, username string) *domain.UserAccount
	SaveUser(u *domain.UserAccount) error
	AllUsers() map[string]*domain.UserAccount
	// UserByInviteCode scans accounts for the owner of an invite code.
	UserByInviteCode(code string) *domain.UserAccount
	// ReplaceUsers upserts the given accounts in one write. Existing accounts
	// not named in the batch are left untouched.
	ReplaceUsers(users map[string]*domain.UserAccount) error

	EconomyState() *domain.GlobalEconomyState
	SaveEconomyState(s *domain.GlobalEconomyState) error

	Config() domain.BotConfig

	Announcement(messageID string) *domain.AnnouncementRecord
	SaveAnnouncement(a *domain.AnnouncementRecord) error

	// Backup writes a timestamped snapshot of every family and returns its path.
	Backup() (string, error)
}
