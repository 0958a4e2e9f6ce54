// config.go - Application configuration: defaults, optional .env file and
// environment overrides.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is everything tunable from outside the binary.
type Config struct {
	APIBase     string `mapstructure:"API_BASE"`     // e.g. https://api.example.com
	WSBase      string `mapstructure:"WS_BASE"`      // derived from API_BASE when empty
	DataDir     string `mapstructure:"DATA_DIR"`     // credentials + preferences
	LogFile     string `mapstructure:"LOG_FILE"`     // slog output; the TUI owns the terminal
	Clock24     bool   `mapstructure:"CLOCK_24"`     // 24-hour display default
	SlotMinutes int    `mapstructure:"SLOT_MINUTES"` // consultation slot length
}

// Load reads configuration from defaults, an optional .env file and the
// environment, in increasing priority.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetEnvPrefix("TELEDESK")
	v.AutomaticEnv()

	v.SetDefault("API_BASE", "https://api.example.com")
	v.SetDefault("WS_BASE", "")
	v.SetDefault("DATA_DIR", ".teledesk")
	v.SetDefault("LOG_FILE", ".teledesk/teledesk.log")
	v.SetDefault("CLOCK_24", false)
	v.SetDefault("SLOT_MINUTES", 30)

	v.BindEnv("API_BASE")
	v.BindEnv("WS_BASE")
	v.BindEnv("DATA_DIR")
	v.BindEnv("LOG_FILE")
	v.BindEnv("CLOCK_24")
	v.BindEnv("SLOT_MINUTES")

	// The .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.WSBase == "" {
		cfg.WSBase = deriveWSBase(cfg.APIBase)
	}
	if cfg.SlotMinutes <= 0 {
		return nil, fmt.Errorf("SLOT_MINUTES must be positive, got %d", cfg.SlotMinutes)
	}
	return cfg, nil
}

// deriveWSBase maps an http(s) API base to its ws(s) counterpart.
func deriveWSBase(apiBase string) string {
	switch {
	case strings.HasPrefix(apiBase, "https://"):
		return "wss://" + strings.TrimPrefix(apiBase, "https://")
	case strings.HasPrefix(apiBase, "http://"):
		return "ws://" + strings.TrimPrefix(apiBase, "http://")
	default:
		return "wss://" + apiBase
	}
}
