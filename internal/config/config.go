// Package config loads and validates notifier configuration via Viper.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	State    StateConfig    `mapstructure:"state"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SourceConfig points at the archive listing to scrape.
type SourceConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Category       string `mapstructure:"category"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// TelegramConfig holds the bot credential and destination chat.
type TelegramConfig struct {
	Token        string        `mapstructure:"token"`
	ChatID       string        `mapstructure:"chat_id"`
	SendInterval time.Duration `mapstructure:"send_interval"`
	MaxRetry429  int           `mapstructure:"max_retry_429"`
}

// StateConfig locates the seen-set file.
type StateConfig struct {
	Path          string `mapstructure:"path"`
	MaxTrackedIDs int    `mapstructure:"max_tracked_ids"`
}

// ScheduleConfig governs the guard timezone and the daemon's daily trigger.
type ScheduleConfig struct {
	Timezone string `mapstructure:"timezone"`
	DailyAt  string `mapstructure:"daily_at"`
	Force    bool   `mapstructure:"force"`
}

// ServerConfig controls the daemon's ops HTTP endpoint.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARXIVBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Deployment-environment names predate the config file and stay supported.
	_ = v.BindEnv("telegram.token", "ARXIVBOT_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", "ARXIVBOT_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
	_ = v.BindEnv("schedule.force", "ARXIVBOT_SCHEDULE_FORCE", "FORCE_POST")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "https://arxiv.org")
	v.SetDefault("source.category", "hep-th")
	v.SetDefault("source.user_agent", "arxivbot/1.0 (+https://github.com/hepwatch/arxivbot)")
	v.SetDefault("source.timeout_seconds", 30)
	v.SetDefault("telegram.send_interval", "1200ms")
	v.SetDefault("telegram.max_retry_429", 5)
	v.SetDefault("state.path", ".state/posted.json")
	v.SetDefault("state.max_tracked_ids", 2000)
	v.SetDefault("schedule.timezone", "Europe/Berlin")
	v.SetDefault("schedule.daily_at", "08:00")
	v.SetDefault("schedule.force", false)
	v.SetDefault("server.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must be set")
	}
	if c.Source.Category == "" {
		return fmt.Errorf("source.category must be set")
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be > 0")
	}
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token must be set (TELEGRAM_BOT_TOKEN)")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id must be set (TELEGRAM_CHAT_ID)")
	}
	if c.Telegram.SendInterval <= 0 {
		return fmt.Errorf("telegram.send_interval must be > 0")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path must be set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if _, _, err := c.DailyAt(); err != nil {
		return err
	}
	return nil
}

// Location resolves the guard/schedule timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// DailyAt parses schedule.daily_at ("HH:MM") into hour and minute.
func (c Config) DailyAt() (hour, minute int, err error) {
	parts := strings.SplitN(c.Schedule.DailyAt, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("schedule.daily_at must be HH:MM, got %q", c.Schedule.DailyAt)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("schedule.daily_at hour out of range in %q", c.Schedule.DailyAt)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("schedule.daily_at minute out of range in %q", c.Schedule.DailyAt)
	}
	return hour, minute, nil
}

// CronSpec renders the daily trigger as a cron expression.
func (c Config) CronSpec() (string, error) {
	hour, minute, err := c.DailyAt()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// FetchTimeout converts the source timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}
