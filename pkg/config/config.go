// Package config loads and validates runtime configuration from YAML files
// and environment variables.
package config

// Config holds the full runtime configuration for the bot process.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Bot     BotConfig     `mapstructure:"bot" validate:"required"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
	Logging LoggingConfig `mapstructure:"logging"`

	// DailyRoles maps a role name to the points its holders receive from the
	// midnight sweep.
	DailyRoles map[string]int64 `mapstructure:"daily_roles"`
}

// BotConfig configures the Telegram connection and the chats the bot serves.
type BotConfig struct {
	Token string `mapstructure:"token" validate:"required"`
	// PollTimeoutSeconds is the long-poll timeout.
	PollTimeoutSeconds int `mapstructure:"poll_timeout_seconds"`
	// AdminIDs lists Telegram user ids with access to admin commands.
	AdminIDs []string `mapstructure:"admin_ids"`
	// GreetingChatID is the chat where greeting messages earn points.
	GreetingChatID int64 `mapstructure:"greeting_chat_id"`
	// CommunityChatID is the chat announcements are published to.
	CommunityChatID int64 `mapstructure:"community_chat_id"`
}

// ServerConfig configures the HTTP sidecar serving /metrics and /healthz.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// StorageConfig configures the flat-file data directory.
type StorageConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
	// WatchConfig reloads economy settings when external tooling edits
	// config.json.
	WatchConfig bool `mapstructure:"watch_config"`
}

// RedisConfig configures the idempotency store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SentryConfig configures error reporting. Empty DSN disables it.
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	// FilePath enables rotating file output when non-empty.
	FilePath string `mapstructure:"file_path"`
}

// IsAdmin reports whether the user id is in the configured admin list.
func (c *BotConfig) IsAdmin(userID string) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
