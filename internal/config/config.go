// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opencommander/commander-engine-go/internal/game"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig configures the websocket gateway.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the optional Postgres snapshot store.
type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig holds the rule knobs of the commander format.
type GameConfig struct {
	StartingLife             int  `mapstructure:"starting_life"`
	CommanderDamageThreshold int  `mapstructure:"commander_damage_threshold"`
	LandLimit                int  `mapstructure:"land_limit"`
	CommanderTaxStep         int  `mapstructure:"commander_tax_step"`
	CommanderDamageEnabled   bool `mapstructure:"commander_damage_enabled"`
}

// Rules converts the game section into the engine's config struct.
func (g GameConfig) Rules() game.Config {
	return game.Config{
		StartingLife:             g.StartingLife,
		CommanderDamageThreshold: g.CommanderDamageThreshold,
		LandLimit:                g.LandLimit,
		CommanderTaxStep:         g.CommanderTaxStep,
		CommanderDamageEnabled:   g.CommanderDamageEnabled,
	}
}

// Load reads configuration from the given path. A missing file is not
// an error; defaults and COMMANDER_* environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("game.starting_life", 40)
	v.SetDefault("game.commander_damage_threshold", 21)
	v.SetDefault("game.land_limit", 1)
	v.SetDefault("game.commander_tax_step", 2)
	v.SetDefault("game.commander_damage_enabled", true)

	v.SetEnvPrefix("COMMANDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Game.StartingLife <= 0 {
		return fmt.Errorf("game.starting_life must be positive")
	}
	if c.Game.CommanderDamageThreshold <= 0 {
		return fmt.Errorf("game.commander_damage_threshold must be positive")
	}
	if c.Game.LandLimit <= 0 {
		return fmt.Errorf("game.land_limit must be positive")
	}
	if c.Game.CommanderTaxStep < 0 {
		return fmt.Errorf("game.commander_tax_step must not be negative")
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url required when database.enabled is set")
	}
	return nil
}
