// Package config loads garage-status settings from flags, environment and an optional file.
//
// Every key can be set through a GARAGE_ environment variable with dots replaced by
// underscores, e.g. GARAGE_TELEGRAM_BOT_TOKEN for telegram.bot_token.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/garage-status/internal/command"
	"github.com/pfrederiksen/garage-status/internal/scraper"
	"github.com/spf13/viper"
)

const EnvPrefix = "GARAGE"

// Keys
const (
	KeyURL                = "url"
	KeyHTTPTimeout        = "http.timeout"
	KeyLogLevel           = "log.level"
	KeyTelegramToken      = "telegram.bot_token"
	KeyTelegramChatID     = "telegram.chat_id"
	KeyTelegramPoll       = "telegram.poll_timeout"
	KeyBotLoopDuration    = "bot.loop_duration"
	KeyBotMetricsAddr     = "bot.metrics_addr"
	KeyPermissionsDefault = "permissions.default"
	KeyPermissionChannels = "permissions.channels"
	KeyTwitterAPIKey      = "twitter.api_key"
	KeyTwitterAPISecret   = "twitter.api_secret"
	KeyTwitterToken       = "twitter.access_token"
	KeyTwitterSecret      = "twitter.access_secret"
)

// Config is the typed view of all settings
type Config struct {
	URL         string
	HTTPTimeout time.Duration
	LogLevel    string

	Telegram Telegram
	Bot      Bot
	Twitter  Twitter

	DefaultTier command.Tier
	Channels    map[string]command.Tier
}

// Telegram holds Bot API settings
type Telegram struct {
	BotToken    string
	ChatID      string
	PollTimeout int // seconds
}

// Bot holds long-polling loop settings
type Bot struct {
	LoopDuration time.Duration
	MetricsAddr  string
}

// Twitter holds OAuth1 credentials
type Twitter struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// New returns a viper instance with defaults and environment binding applied
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default for every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyURL, scraper.GarageCountURL)
	v.SetDefault(KeyHTTPTimeout, scraper.Timeout)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTelegramToken, "")
	v.SetDefault(KeyTelegramChatID, "")
	v.SetDefault(KeyTelegramPoll, 30)
	v.SetDefault(KeyBotLoopDuration, 5*time.Hour+50*time.Minute)
	v.SetDefault(KeyBotMetricsAddr, "")
	v.SetDefault(KeyPermissionsDefault, string(command.TierPublic))
	v.SetDefault(KeyPermissionChannels, map[string]string{})
	v.SetDefault(KeyTwitterAPIKey, "")
	v.SetDefault(KeyTwitterAPISecret, "")
	v.SetDefault(KeyTwitterToken, "")
	v.SetDefault(KeyTwitterSecret, "")
}

// ReadFile merges a YAML/JSON/TOML config file into v
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// Load builds and validates a Config from v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		URL:         v.GetString(KeyURL),
		HTTPTimeout: v.GetDuration(KeyHTTPTimeout),
		LogLevel:    v.GetString(KeyLogLevel),
		Telegram: Telegram{
			BotToken:    v.GetString(KeyTelegramToken),
			ChatID:      v.GetString(KeyTelegramChatID),
			PollTimeout: v.GetInt(KeyTelegramPoll),
		},
		Bot: Bot{
			LoopDuration: v.GetDuration(KeyBotLoopDuration),
			MetricsAddr:  v.GetString(KeyBotMetricsAddr),
		},
		Twitter: Twitter{
			APIKey:       v.GetString(KeyTwitterAPIKey),
			APISecret:    v.GetString(KeyTwitterAPISecret),
			AccessToken:  v.GetString(KeyTwitterToken),
			AccessSecret: v.GetString(KeyTwitterSecret),
		},
		Channels: make(map[string]command.Tier),
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyURL)
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyHTTPTimeout, cfg.HTTPTimeout)
	}
	if cfg.Telegram.PollTimeout < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", KeyTelegramPoll, cfg.Telegram.PollTimeout)
	}

	tier, err := command.ParseTier(v.GetString(KeyPermissionsDefault))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyPermissionsDefault, err)
	}
	cfg.DefaultTier = tier

	for name, value := range v.GetStringMapString(KeyPermissionChannels) {
		tier, err := command.ParseTier(value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", KeyPermissionChannels, name, err)
		}
		cfg.Channels[name] = tier
	}

	return cfg, nil
}

// ChannelTable builds the permission table described by the config
func (c *Config) ChannelTable() *command.ChannelTable {
	return command.NewChannelTable(c.Channels, c.DefaultTier)
}
