package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"CryptoTracker/internal/model"
)

// MaxCoins is the most coins one provider request can carry.
const MaxCoins = 250

// Config holds all application configuration.
type Config struct {
	Provider struct {
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Currency string        `yaml:"currency"`
		Timeout  time.Duration `yaml:"timeout"`
		Mock     bool          `yaml:"mock"`
	} `yaml:"provider"`
	Schedule struct {
		Interval   time.Duration `yaml:"interval"`
		Cron       string        `yaml:"cron"`
		RunOnStart bool          `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		Driver         string `yaml:"driver"` // memory, sqlite, postgres
		SQLitePath     string `yaml:"sqlite_path"`
		DSN            string `yaml:"dsn"`
		CreateDatabase bool   `yaml:"create_database"`
	} `yaml:"database"`
	Retention struct {
		MaxPoints int `yaml:"max_points"`
	} `yaml:"retention"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log      LogConfig `yaml:"log"`
	Telegram struct {
		BotToken         string `yaml:"bot_token"`
		ChatID           string `yaml:"chat_id"`
		FailureThreshold int    `yaml:"failure_threshold"`
	} `yaml:"telegram"`
	Coins []model.TrackedCoin `yaml:"coins"`
	Proxy string              `yaml:"proxy"`
}

// LogConfig defines the logger options.
type LogConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json or console
	OutputFile string `yaml:"output_file"` // optional rotated file
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults cover every field.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Schedule.RunOnStart = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("FETCH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse FETCH_INTERVAL: %w", err)
		}
		cfg.Schedule.Interval = d
	}
	if v := os.Getenv("FETCH_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart = parseBool(v, cfg.Schedule.RunOnStart)
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.OutputFile = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Provider.Currency == "" {
		cfg.Provider.Currency = "usd"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 10 * time.Second
	}
	if cfg.Schedule.Interval == 0 {
		cfg.Schedule.Interval = 15 * time.Minute
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/crypto_prices.db"
	}
	if cfg.Retention.MaxPoints == 0 {
		cfg.Retention.MaxPoints = model.DefaultMaxPoints
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8888"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Telegram.FailureThreshold == 0 {
		cfg.Telegram.FailureThreshold = 3
	}
	if len(cfg.Coins) == 0 {
		cfg.Coins = append([]model.TrackedCoin(nil), model.DefaultCoins...)
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive")
	}
	if c.Schedule.Cron == "" && c.Schedule.Interval < time.Second {
		return fmt.Errorf("schedule.interval must be at least 1s")
	}
	if c.Retention.MaxPoints <= 0 {
		return fmt.Errorf("retention.max_points must be positive")
	}
	switch c.Database.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if len(c.Coins) > MaxCoins {
		return fmt.Errorf("at most %d coins can be tracked, got %d", MaxCoins, len(c.Coins))
	}
	if _, err := model.NewCoinTable(c.Coins); err != nil {
		return err
	}
	return nil
}

// DatabaseDSN returns the DSN for the configured driver.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		return c.Database.SQLitePath
	}
	return c.Database.DSN
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	}
	return def
}
