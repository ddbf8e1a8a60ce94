package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/teymia/habitkit/pkg/habit"
)

// Config is the single configuration surface for both server and CLI. It is
// read from the yaml file named by HABITKIT_CONFIG (default config.yaml);
// a handful of fields fall back to environment variables so containers can
// run without a file at all.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	APIBaseURL string `yaml:"api_base_url"`

	DBBackend string `yaml:"db_backend"` // "bolt" or "sqlite"
	DBPath    string `yaml:"db_path"`

	// FirstWeekday is the stored user preference in platform numbering:
	// 0 = platform default, 1=Sunday .. 7=Saturday.
	FirstWeekday int `yaml:"first_weekday"`

	// HistoryLimitDays bounds how far back charts and calendars render.
	HistoryLimitDays int `yaml:"history_limit_days"`

	// FreeHabitLimit is the habit cap for non-premium users.
	FreeHabitLimit int `yaml:"free_habit_limit"`

	AuthEnabled   bool           `yaml:"auth_enabled"`
	OIDCProviders []OIDCProvider `yaml:"oidc_providers"`

	Reminder ReminderConfig `yaml:"reminder"`
}

type OIDCProvider struct {
	Id           string `yaml:"id"`
	Name         string `yaml:"name"`
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type ReminderConfig struct {
	FromEmail string `yaml:"from_email"`
	ToEmail   string `yaml:"to_email"`
	// ResendAPIKey is read from HABITKIT_RESEND_API_KEY, never from the file.
}

func Load() (*Config, error) {
	path := os.Getenv("HABITKIT_CONFIG")
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault is Load, falling back to defaults when no config file
// exists. The CLI uses this so `habitkit list` works out of the box.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = &Config{}
		cfg.applyDefaults()
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = getenv("HABITKIT_LISTEN_ADDR", ":8080")
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = getenv("HABITKIT_API_BASE", "http://localhost:8080")
	}
	if c.DBBackend == "" {
		c.DBBackend = getenv("HABITKIT_DB_BACKEND", "bolt")
	}
	if c.DBPath == "" {
		c.DBPath = getenv("HABITKIT_DB_PATH", "habitkit.db")
	}
	if c.HistoryLimitDays <= 0 {
		c.HistoryLimitDays = habit.DefaultHistoryLimit
	}
	if c.FreeHabitLimit <= 0 {
		c.FreeHabitLimit = 3
	}
	if c.FirstWeekday < 0 || c.FirstWeekday > 7 {
		c.FirstWeekday = 0
	}
}

// WeekStart resolves the stored preference to a canonical weekday. Monday is
// the platform default here.
func (c *Config) WeekStart() habit.Weekday {
	return habit.WeekStart(c.FirstWeekday, habit.Monday)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
