package storage

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/sparkstone/spark-bot/internal/domain"
)

// WatchConfig observes data/config.json for edits made by external
// configuration tooling and invokes onChange with the reloaded settings.
// It blocks until ctx is canceled.
func (s *FileStore) WatchConfig(ctx context.Context, onChange func(domain.BotConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors and atomic writers replace the file, which
	// drops a watch registered on the file itself.
	if err := watcher.Add(s.dir); err != nil {
		return err
	}

	target := filepath.Join(s.dir, configFile)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != target || !event.Op.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			cfg := s.Config()
			s.log.Info("bot config reloaded",
				slog.Int64("loot_box_cost", cfg.LootBoxCost),
				slog.Int64("invite_points", cfg.InvitePoints),
			)
			if onChange != nil {
				onChange(cfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error("config watcher error", slog.Any("error", err))
		}
	}
}
