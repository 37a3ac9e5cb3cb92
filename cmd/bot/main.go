package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sparkstone/spark-bot/internal/bot"
	"github.com/sparkstone/spark-bot/internal/domain"
	"github.com/sparkstone/spark-bot/internal/export"
	"github.com/sparkstone/spark-bot/internal/idempotency"
	"github.com/sparkstone/spark-bot/internal/jobs"
	"github.com/sparkstone/spark-bot/internal/lootbox"
	"github.com/sparkstone/spark-bot/internal/points"
	"github.com/sparkstone/spark-bot/internal/storage"
	"github.com/sparkstone/spark-bot/internal/triggers"
	"github.com/sparkstone/spark-bot/internal/wallet"
	"github.com/sparkstone/spark-bot/pkg/config"
	"github.com/sparkstone/spark-bot/pkg/graceful"
	"github.com/sparkstone/spark-bot/pkg/logger"
	"github.com/sparkstone/spark-bot/pkg/metrics"
	"github.com/sparkstone/spark-bot/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			slog.Error("failed to initialize sentry", slog.Any("error", err))
			sentryEnabled = false
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	log := logger.New(logger.Options{
		Level:         parseLevel(cfg.Logging.Level),
		FilePath:      cfg.Logging.FilePath,
		SentryEnabled: sentryEnabled,
	})
	slog.SetDefault(log)

	log.Info("starting spark reward bot", slog.String("env", cfg.AppEnv))

	store, err := storage.NewFileStore(cfg.Storage.Dir, log)
	if err != nil {
		log.Error("failed to open data directory", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Storage.WatchConfig {
		go func() {
			err := store.WatchConfig(ctx, func(c domain.BotConfig) {
				log.Info("economy config reloaded",
					slog.Int64("loot_box_cost", c.LootBoxCost),
					slog.Int64("invite_points", c.InvitePoints),
				)
			})
			if err != nil {
				log.Error("config watcher stopped", slog.Any("error", err))
			}
		}()
	}

	var guard *idempotency.Guard
	if cfg.Redis.Addr != "" {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Error("error closing redis", slog.Any("error", cerr))
			}
		}()
		guard = idempotency.NewGuard(idempotency.NewRedisStore(rdb.Client, log), log)
	} else {
		log.Warn("redis not configured, duplicate update suppression disabled")
	}

	ledger := points.NewLedger(store, log)
	wallets := wallet.NewStore(store, log)
	engine := lootbox.NewEngine(store, ledger, wallets, log)
	exporter := export.NewService(store, log)

	services := bot.Services{
		Store:     store,
		Ledger:    ledger,
		Wallets:   wallets,
		Engine:    engine,
		Exporter:  exporter,
		Invites:   triggers.NewInviteTrigger(store, ledger, log),
		Reactions: triggers.NewReactionTrigger(store, log),
		Greetings: triggers.NewGreetingTrigger(store, log),
		Guard:     guard,
	}

	b, err := bot.New(*cfg, log, services)
	if err != nil {
		log.Error("failed to initialize bot", slog.Any("error", err))
		os.Exit(1)
	}

	daily := jobs.NewDailyJob(store, jobs.NewStaticRoleProvider(cfg.Bot.AdminIDs), cfg.DailyRoles, log)
	if err := daily.Start(ctx); err != nil {
		log.Error("failed to start daily sweep", slog.Any("error", err))
		os.Exit(1)
	}
	defer daily.Stop()

	collector := metrics.NewCollector(store)
	go collector.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := graceful.NewServer(log, &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: logger.Middleware(mux),
	}, 10*time.Second)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("http server exited", slog.Any("error", err))
		}
	}()

	go b.Start()
	log.Info("bot is running")

	<-ctx.Done()

	b.Stop()
	log.Info("spark reward bot shut down")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
