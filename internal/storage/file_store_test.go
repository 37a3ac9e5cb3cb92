package storage

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkstone/spark-bot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return s
}

func TestFileStore_SeedsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	for _, name := range []string{usersFile, stateFile, configFile, announcementsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected %s to be seeded", name)
	}
}

func TestFileStore_UserRoundTrip(t *testing.T) {
	s := newTestStore(t)

	assert.Nil(t, s.User("42"), "unknown user should be nil")

	u := s.GetOrCreateUser("42", "alice")
	require.NotNil(t, u)
	assert.Equal(t, "42", u.UserID)
	assert.Equal(t, 1, u.ActiveWallet)
	require.Len(t, u.Wallets, 1)

	u.Points = 150
	u.Wallets[0].Inventory.Add(domain.ItemLootBoxes, 3)
	require.NoError(t, s.SaveUser(u))

	got := s.User("42")
	require.NotNil(t, got)
	assert.Equal(t, int64(150), got.Points)
	assert.Equal(t, int64(3), got.Wallets[0].Inventory.Count(domain.ItemLootBoxes))
}

func TestFileStore_GetOrCreateRefreshesUsername(t *testing.T) {
	s := newTestStore(t)

	s.GetOrCreateUser("7", "oldname")
	u := s.GetOrCreateUser("7", "newname")
	assert.Equal(t, "newname", u.Username)
}

func TestFileStore_UserByInviteCode(t *testing.T) {
	s := newTestStore(t)

	u := s.GetOrCreateUser("1", "inviter")
	u.InviteData.InviteCode = "abc123"
	require.NoError(t, s.SaveUser(u))

	found := s.UserByInviteCode("abc123")
	require.NotNil(t, found)
	assert.Equal(t, "1", found.UserID)

	assert.Nil(t, s.UserByInviteCode("missing"))
	assert.Nil(t, s.UserByInviteCode(""))
}

func TestFileStore_ReplaceUsersUpserts(t *testing.T) {
	s := newTestStore(t)

	existing := s.GetOrCreateUser("1", "keep")
	existing.Points = 10
	require.NoError(t, s.SaveUser(existing))

	incoming := domain.NewUserAccount("2", "imported")
	incoming.Points = 99
	require.NoError(t, s.ReplaceUsers(map[string]*domain.UserAccount{"2": incoming}))

	assert.Equal(t, int64(10), s.User("1").Points, "untouched accounts survive")
	assert.Equal(t, int64(99), s.User("2").Points)
}

func TestFileStore_EconomyStateRoundTrip(t *testing.T) {
	s := newTestStore(t)

	state := s.EconomyState()
	require.NotNil(t, state)
	assert.Len(t, state.LootBoxRewards, 5, "seeded state carries the stock table")

	state.TotalAirdropsDistributed = 7
	require.NoError(t, s.SaveEconomyState(state))
	assert.Equal(t, int64(7), s.EconomyState().TotalAirdropsDistributed)
}

func TestFileStore_ConfigDefaultsWhenUnreadable(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte("{broken"), 0o644))

	cfg := s.Config()
	assert.Equal(t, domain.DefaultBotConfig(), cfg)
}

func TestFileStore_SkipsUnreadableUserRecords(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	good := domain.NewUserAccount("1", "good")
	require.NoError(t, s.SaveUser(good))

	// Corrupt one record in place; the other must still load.
	raw := map[string]json.RawMessage{}
	data, err := os.ReadFile(filepath.Join(dir, usersFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["2"] = json.RawMessage(`"not an object"`)
	data, err = json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, usersFile), data, 0o644))

	users := s.AllUsers()
	assert.Len(t, users, 1)
	assert.Contains(t, users, "1")
}

func TestFileStore_Announcements(t *testing.T) {
	s := newTestStore(t)

	assert.Nil(t, s.Announcement("123"))

	rec := &domain.AnnouncementRecord{
		MessageID: "123",
		ChannelID: "456",
		Reactions: []string{"🔥", "❤️"},
		CreatedAt: 1700000000000,
	}
	require.NoError(t, s.SaveAnnouncement(rec))

	got := s.Announcement("123")
	require.NotNil(t, got)
	assert.True(t, got.TracksReaction("🔥"))
	assert.False(t, got.TracksReaction("🚀"))
}

func TestFileStore_Backup(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreateUser("1", "alice")

	path, err := s.Backup()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var snapshot map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Contains(t, snapshot, "users")
	assert.Contains(t, snapshot, "state")
	assert.Contains(t, snapshot, "config")
	assert.Contains(t, snapshot, "timestamp")
}
