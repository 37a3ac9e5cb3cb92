// Package bot wires the Telegram surface: the telebot instance, the router
// with its middleware chain, and the command, callback, and event handlers.
package bot

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/bot/handlers"
	"github.com/sparkstone/spark-bot/internal/bot/keyboard"
	errors "github.com/sparkstone/spark-bot/internal/errors"
	"github.com/sparkstone/spark-bot/internal/export"
	"github.com/sparkstone/spark-bot/internal/idempotency"
	"github.com/sparkstone/spark-bot/internal/lootbox"
	"github.com/sparkstone/spark-bot/internal/points"
	"github.com/sparkstone/spark-bot/internal/storage"
	"github.com/sparkstone/spark-bot/internal/triggers"
	"github.com/sparkstone/spark-bot/internal/wallet"
	"github.com/sparkstone/spark-bot/pkg/config"
)

// Services bundles the domain services the bot surface depends on.
type Services struct {
	Store     storage.Gateway
	Ledger    *points.Ledger
	Wallets   *wallet.Store
	Engine    *lootbox.Engine
	Exporter  *export.Service
	Invites   *triggers.InviteTrigger
	Reactions *triggers.ReactionTrigger
	Greetings *triggers.GreetingTrigger
	Guard     *idempotency.Guard
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	services   Services
	router     *Router
	keyboard   *keyboard.Builder
	errHandler *errors.Handler
}

// botSettings builds the telebot configuration. Updates are processed
// synchronously: every economy operation is a read-modify-write over the
// file store with no lock spanning the sequence, so goroutine-per-update
// dispatch could interleave two updates for the same user between the read
// and the write. The commands are all short-lived, so one-at-a-time is cheap.
func botSettings(cfg config.Config) telebot.Settings {
	return telebot.Settings{
		Token: cfg.Bot.Token,
		Poller: &telebot.LongPoller{
			Timeout: time.Duration(cfg.Bot.PollTimeoutSeconds) * time.Second,
		},
		Synchronous: true,
	}
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, log *slog.Logger, services Services) (*Bot, error) {
	tb, err := telebot.NewBot(botSettings(cfg))
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		services:   services,
		router:     NewRouter(log),
		keyboard:   keyboard.NewBuilder(log),
		errHandler: errors.NewHandler(log, cfg.Sentry.DSN != ""),
	}

	b.setupRouter()
	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) isAdmin(userID string) bool {
	return b.cfg.Bot.IsAdmin(userID)
}

func (b *Bot) setupRouter() {
	s := b.services

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(IdempotencyMiddleware(s.Guard, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(AccountMiddleware(s.Store, b.log))
	b.router.Use(MetricsMiddleware)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(s.Store, s.Invites, b.log))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(b.isAdmin))
	b.router.RegisterCommand(CommandBalance, handlers.NewBalanceHandler(s.Ledger, b.log))
	b.router.RegisterCommand(CommandInvite, handlers.NewInviteHandler(s.Store, b.log))
	b.router.RegisterCommand(CommandLeaderboard, handlers.NewLeaderboardHandler(s.Ledger, b.log))
	b.router.RegisterCommand(CommandBuyLootBox, handlers.NewBuyLootBoxHandler(s.Engine, s.Store, b.keyboard, b.log))
	b.router.RegisterCommand(CommandOpenLootBox, handlers.NewOpenLootBoxHandler(s.Engine, b.isAdmin, b.log))
	b.router.RegisterCommand(CommandInventory, handlers.NewInventoryHandler(s.Store, b.log))
	b.router.RegisterCommand(CommandEditWallet, handlers.NewEditWalletHandler(s.Store, s.Wallets, b.log))
	b.router.RegisterCommand(CommandSwitchWallet, handlers.NewSwitchWalletHandler(s.Store, b.keyboard, b.log))
	b.router.RegisterCommand(CommandUnlockWallet, handlers.NewUnlockWalletHandler(s.Store, s.Wallets, b.keyboard, b.log))

	b.router.RegisterCommand(CommandAddPoints, handlers.AdminOnly(b.isAdmin, handlers.NewAddPointsHandler(s.Store, s.Ledger, b.log)))
	b.router.RegisterCommand(CommandSetPoints, handlers.AdminOnly(b.isAdmin, handlers.NewSetPointsHandler(s.Store, s.Ledger, b.log)))
	b.router.RegisterCommand(CommandAddItems, handlers.AdminOnly(b.isAdmin, handlers.NewAddItemsHandler(s.Store, s.Wallets, b.log)))
	b.router.RegisterCommand(CommandAnnounce, handlers.AdminOnly(b.isAdmin, handlers.NewAnnounceHandler(s.Store, b.keyboard, b.cfg.Bot.CommunityChatID, b.log)))
	b.router.RegisterCommand(CommandEditAnnouncement, handlers.AdminOnly(b.isAdmin, handlers.NewEditAnnouncementHandler(s.Store, b.keyboard, b.log)))
	b.router.RegisterCommand(CommandExportWallets, handlers.AdminOnly(b.isAdmin, handlers.NewExportWalletsHandler(s.Exporter, b.log)))
	b.router.RegisterCommand(CommandExportData, handlers.AdminOnly(b.isAdmin, handlers.NewExportDataHandler(s.Exporter, b.log)))
	b.router.RegisterCommand(CommandImportData, handlers.AdminOnly(b.isAdmin, handlers.NewImportDataHandler(s.Exporter, b.log)))

	b.router.RegisterCallback(keyboard.CallbackSwitchWallet, handlers.NewSwitchWalletCallback(s.Store, s.Wallets, b.log))
	b.router.RegisterCallback(keyboard.CallbackUnlockWallet, handlers.NewUnlockWalletCallback(s.Store, s.Wallets, b.log))
	b.router.RegisterCallback(keyboard.CallbackOpenBox, handlers.CallbackHandler(handlers.NewOpenLootBoxHandler(s.Engine, b.isAdmin, b.log)))
	b.router.RegisterCallback(keyboard.CallbackReaction, handlers.NewReactionCallback(s.Reactions, b.log))

	b.router.SetDefault(handlers.NewGreetingHandler(s.Greetings, b.cfg.Bot.GreetingChatID, b.isAdmin))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
	b.telebot.Handle(telebot.OnUserJoined, b.handleUserJoined)
	b.telebot.Handle(telebot.OnChatMember, b.handleChatMember)
}

// handleUserJoined greets members added directly to a group.
func (b *Bot) handleUserJoined(c telebot.Context) error {
	joined := c.Message().UserJoined
	if joined == nil || joined.IsBot {
		return nil
	}

	b.services.Store.GetOrCreateUser(strconv.FormatInt(joined.ID, 10), joined.Username)
	return nil
}

// handleChatMember credits invites when Telegram reports which invite link a
// newcomer joined through.
func (b *Bot) handleChatMember(c telebot.Context) error {
	update := c.ChatMember()
	if update == nil || update.NewChatMember == nil || update.NewChatMember.User == nil {
		return nil
	}
	member := update.NewChatMember.User
	if update.InviteLink == nil {
		return nil
	}

	award, credited := b.services.Invites.HandleMemberJoin(
		update.InviteLink.InviteLink,
		strconv.FormatInt(member.ID, 10),
		member.IsBot,
	)
	if credited {
		b.log.Info("invite credited via chat member update",
			slog.Int64("member_id", member.ID),
			slog.Int64("points", award.Points),
		)
	}
	return nil
}
