// Package export produces and consumes portable snapshots of the reward
// economy: a JSON bundle for migration between deployments and a CSV wallet
// report for operators.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sparkstone/spark-bot/internal/domain"
	apperrors "github.com/sparkstone/spark-bot/internal/errors"
	"github.com/sparkstone/spark-bot/internal/storage"
)

// Bundle is the full-economy snapshot. Field names match the interchange
// format existing tooling reads.
type Bundle struct {
	Timestamp   string                         `json:"timestamp"`
	TotalUsers  int                            `json:"totalUsers"`
	GlobalState *domain.GlobalEconomyState     `json:"globalState"`
	Config      domain.BotConfig               `json:"config"`
	Users       map[string]*domain.UserAccount `json:"users"`
	Summary     Summary                        `json:"summary"`
}

// Summary aggregates headline figures over the exported accounts.
type Summary struct {
	TotalPoints    int64     `json:"totalPoints"`
	TotalInvites   int64     `json:"totalInvites"`
	TotalLootBoxes int64     `json:"totalLootBoxes"`
	TopUsers       []TopUser `json:"topUsers"`
}

// TopUser is one row of the summary ranking.
type TopUser struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Points     int64  `json:"points"`
	Invites    int64  `json:"invites"`
	InviteCode string `json:"inviteCode"`
}

const topUserCount = 20

// Service builds and applies economy snapshots.
type Service struct {
	store storage.Gateway
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store storage.Gateway, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Export assembles the current snapshot.
func (s *Service) Export() *Bundle {
	users := s.store.AllUsers()

	b := &Bundle{
		Timestamp:   s.now().UTC().Format(time.RFC3339),
		TotalUsers:  len(users),
		GlobalState: s.store.EconomyState(),
		Config:      s.store.Config(),
		Users:       users,
	}

	ranking := make([]TopUser, 0, len(users))
	for _, u := range users {
		b.Summary.TotalPoints += u.Points
		b.Summary.TotalInvites += u.InviteData.Uses
		for _, w := range u.Wallets {
			b.Summary.TotalLootBoxes += w.Inventory.Count(domain.ItemLootBoxes)
		}
		ranking = append(ranking, TopUser{
			UserID:     u.UserID,
			Username:   u.Username,
			Points:     u.Points,
			Invites:    u.InviteData.Uses,
			InviteCode: u.InviteData.InviteCode,
		})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Points != ranking[j].Points {
			return ranking[i].Points > ranking[j].Points
		}
		return ranking[i].Username < ranking[j].Username
	})
	if len(ranking) > topUserCount {
		ranking = ranking[:topUserCount]
	}
	b.Summary.TopUsers = ranking

	return b
}

// ExportJSON returns the snapshot as indented JSON.
func (s *Service) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export bundle: %w", err)
	}
	return data, nil
}

// ImportResult reports what an import applied.
type ImportResult struct {
	UsersImported int
	StateReplaced bool
	BackupPath    string
}

// Import applies a snapshot: a backup of the current data is taken first,
// then accounts are upserted and the economy state replaced. The bundle's
// config block is deliberately ignored; live config stays under the control
// of the running deployment.
func (s *Service) Import(data []byte) (ImportResult, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return ImportResult{}, fmt.Errorf("parse export bundle: %w", err)
	}
	if b.Users == nil {
		return ImportResult{}, fmt.Errorf("export bundle has no users block")
	}

	backup, err := s.store.Backup()
	if err != nil {
		return ImportResult{}, apperrors.NewStorageUnavailable(err)
	}
	res := ImportResult{BackupPath: backup}

	for id, u := range b.Users {
		if u.UserID == "" {
			u.UserID = id
		}
	}
	if err := s.store.ReplaceUsers(b.Users); err != nil {
		return res, apperrors.NewStorageUnavailable(err)
	}
	res.UsersImported = len(b.Users)

	if b.GlobalState != nil {
		if err := s.store.SaveEconomyState(b.GlobalState); err != nil {
			return res, apperrors.NewStorageUnavailable(err)
		}
		res.StateReplaced = true
	}

	s.log.Info("economy snapshot imported",
		slog.Int("users", res.UsersImported),
		slog.Bool("state_replaced", res.StateReplaced),
		slog.String("backup", res.BackupPath),
	)
	return res, nil
}
