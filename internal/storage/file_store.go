package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sparkstone/spark-bot/internal/domain"
)

const (
	usersFile         = "users.json"
	stateFile         = "state.json"
	configFile        = "config.json"
	announcementsFile = "announcements.json"
	backupsDir        = "backups"
)

// FileStore is a flat-file Gateway. Every mutation re-reads the whole family,
// applies the single-key change, and rewrites the file. Safe for a single
// process only; a mutex serializes the read and write halves so no other
// goroutine can interleave between them.
type FileStore struct {
	mu  sync.Mutex
	dir string
	log *slog.Logger
}

var _ Gateway = (*FileStore)(nil)

// NewFileStore opens (and seeds, if empty) the data directory.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &FileStore{dir: dir, log: log}
	if err := s.seedMissingFiles(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) seedMissingFiles() error {
	seeds := []struct {
		name string
		doc  any
	}{
		{usersFile, map[string]json.RawMessage{}},
		{stateFile, domain.DefaultEconomyState()},
		{configFile, domain.DefaultBotConfig()},
		{announcementsFile, map[string]json.RawMessage{}},
	}
	for _, seed := range seeds {
		path := filepath.Join(s.dir, seed.name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := s.writeJSON(path, seed.doc); err != nil {
			return fmt.Errorf("seed %s: %w", seed.name, err)
		}
	}
	return nil
}

// User returns the account for id, or nil when absent.
func (s *FileStore) User(id string) *domain.UserAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readUsers()[id]
}

// GetOrCreateUser returns the stored account, creating and persisting a fresh
// one when absent. A known account's display name is refreshed in memory only;
// the next save picks it up.
func (s *FileStore) GetOrCreateUser(id, username string) *domain.UserAccount {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.readUsers()
	if u, ok := users[id]; ok {
		if username != "" {
			u.Username = username
		}
		return u
	}

	u := domain.NewUserAccount(id, username)
	users[id] = u
	if err := s.writeUsers(users); err != nil {
		s.log.Error("failed to persist new user", slog.String("user_id", id), slog.Any("error", err))
	}
	return u
}

// SaveUser persists a single account via whole-family read/modify/write.
func (s *FileStore) SaveUser(u *domain.UserAccount) error {
	if u == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.readUsers()
	users[u.UserID] = u
	return s.writeUsers(users)
}

// AllUsers returns every stored account keyed by user id.
func (s *FileStore) AllUsers() map[string]*domain.UserAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readUsers()
}

// AllUsersCount returns the number of stored accounts.
func (s *FileStore) AllUsersCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.readUsers())
}

// UserByInviteCode scans accounts for the owner of an invite code, nil when
// no account holds it.
func (s *FileStore) UserByInviteCode(code string) *domain.UserAccount {
	if code == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.readUsers() {
		if u.InviteData.InviteCode == code {
			return u
		}
	}
	return nil
}

// ReplaceUsers overwrites the stored accounts of the given ids wholesale.
// Used by the bulk import path after a backup has been taken.
func (s *FileStore) ReplaceUsers(users map[string]*domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.readUsers()
	for id, u := range users {
		current[id] = u
	}
	return s.writeUsers(current)
}

// EconomyState returns the economy singleton, migrated to the current schema.
// Unreadable state degrades to the default record rather than failing.
func (s *FileStore) EconomyState() *domain.GlobalEconomyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readState()
}

// SaveEconomyState rewrites the economy singleton.
func (s *FileStore) SaveEconomyState(state *domain.GlobalEconomyState) error {
	if state == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(filepath.Join(s.dir, stateFile), state)
}

// Config returns the runtime economy settings, defaults when unreadable.
func (s *FileStore) Config() domain.BotConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg domain.BotConfig
	if err := s.readJSON(filepath.Join(s.dir, configFile), &cfg); err != nil {
		s.log.Error("failed to read config, using defaults", slog.Any("error", err))
		return domain.DefaultBotConfig()
	}
	return cfg
}

// Announcement returns the record for a message id, or nil when untracked.
func (s *FileStore) Announcement(messageID string) *domain.AnnouncementRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAnnouncements()[messageID]
}

// SaveAnnouncement upserts one announcement record. Saving an existing id
// replaces its tracked symbol set.
func (s *FileStore) SaveAnnouncement(a *domain.AnnouncementRecord) error {
	if a == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.readAnnouncements()
	all[a.MessageID] = a
	return s.writeJSON(filepath.Join(s.dir, announcementsFile), all)
}

// Backup snapshots every family into data/backups and returns the file path.
func (s *FileStore) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, backupsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(time.Now().UTC().Format(time.RFC3339))
	path := filepath.Join(dir, fmt.Sprintf("backup-%s.json", stamp))

	var cfg domain.BotConfig
	if err := s.readJSON(filepath.Join(s.dir, configFile), &cfg); err != nil {
		cfg = domain.DefaultBotConfig()
	}

	snapshot := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"users":     s.readUsers(),
		"state":     s.readState(),
		"config":    cfg,
	}
	if err := s.writeJSON(path, snapshot); err != nil {
		return "", err
	}
	return path, nil
}

func (s *FileStore) readUsers() map[string]*domain.UserAccount {
	var raw map[string]json.RawMessage
	if err := s.readJSON(filepath.Join(s.dir, usersFile), &raw); err != nil {
		s.log.Error("failed to read users, treating as empty", slog.Any("error", err))
		return map[string]*domain.UserAccount{}
	}

	users := make(map[string]*domain.UserAccount, len(raw))
	for id, doc := range raw {
		u, err := migrateUser(id, doc)
		if err != nil {
			s.log.Error("skipping unreadable user record", slog.String("user_id", id), slog.Any("error", err))
			continue
		}
		users[id] = u
	}
	return users
}

func (s *FileStore) writeUsers(users map[string]*domain.UserAccount) error {
	return s.writeJSON(filepath.Join(s.dir, usersFile), users)
}

func (s *FileStore) readState() *domain.GlobalEconomyState {
	var raw json.RawMessage
	if err := s.readJSON(filepath.Join(s.dir, stateFile), &raw); err != nil {
		s.log.Error("failed to read economy state, using defaults", slog.Any("error", err))
		return domain.DefaultEconomyState()
	}

	state, err := migrateEconomyState(raw)
	if err != nil {
		s.log.Error("failed to migrate economy state, using defaults", slog.Any("error", err))
		return domain.DefaultEconomyState()
	}
	return state
}

func (s *FileStore) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSON writes atomically via a temp file so a crash mid-write never
// leaves a truncated family document.
func (s *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *FileStore) readAnnouncements() map[string]*domain.AnnouncementRecord {
	var all map[string]*domain.AnnouncementRecord
	if err := s.readJSON(filepath.Join(s.dir, announcementsFile), &all); err != nil {
		s.log.Error("failed to read announcements, treating as empty", slog.Any("error", err))
		return map[string]*domain.AnnouncementRecord{}
	}
	if all == nil {
		all = map[string]*domain.AnnouncementRecord{}
	}
	return all
}
