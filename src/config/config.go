// Package config loads the bot configuration from a YAML file, the
// environment and the settings table, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrDefaultWritten is returned by Load when no file existed and a default one was written.
var ErrDefaultWritten = errors.New("config: default configuration written")

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	API      APIConfig      `yaml:"api"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Archive  ArchiveConfig  `yaml:"archive"`
}

type BotConfig struct {
	Token           string        `yaml:"token"`
	Prefix          string        `yaml:"prefix"`
	Description     string        `yaml:"description"`
	GuildID         string        `yaml:"guild_id"`
	Channels        []string      `yaml:"channels"`
	ProposerRoleID  string        `yaml:"proposer_role_id"`
	ProposeCooldown time.Duration `yaml:"propose_cooldown"`
	Timezone        string        `yaml:"timezone"`
	SlashCommands   bool          `yaml:"slash_commands"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"`
	File string `yaml:"file"`
	DSN  string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type APIConfig struct {
	Listen       string   `yaml:"listen"`
	JWTSecret    string   `yaml:"jwt_secret"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type SweeperConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ArchiveConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

const tokenPlaceholder = "<fill in with your bot token>"

// DefaultPath is $HOME/.govproposals/bot.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".govproposals", "bot.yaml")
}

// Default returns the configuration written for a fresh install. dir is the
// directory holding the config file; the SQLite database lives under it.
func Default(dir string) Config {
	return Config{
		Bot: BotConfig{
			Token:           tokenPlaceholder,
			Prefix:          "!",
			Description:     "A bot for the Jardins Efemeros Project.",
			Channels:        []string{},
			ProposeCooldown: time.Minute,
			Timezone:        "UTC",
			SlashCommands:   true,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			File: filepath.Join(dir, "sql", "storage.sqlite3"),
		},
		Sweeper: SweeperConfig{Interval: 10 * time.Second},
		Archive: ArchiveConfig{Enabled: true, Interval: 10 * time.Second},
	}
}

// Load reads the file at path. If it does not exist a default file is
// written and ErrDefaultWritten returned so the operator can fill it in.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := WriteDefault(path); err != nil {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w to %s, edit it and start again", ErrDefaultWritten, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := Parse(raw, filepath.Dir(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and applies environment overrides.
func Parse(raw []byte, dir string) (Config, error) {
	cfg := Default(dir)
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// WriteDefault writes the default configuration to path, creating parent directories.
func WriteDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	out, err := yaml.Marshal(Default(dir))
	if err != nil {
		return fmt.Errorf("config: encode default: %w", err)
	}
	return os.WriteFile(path, out, 0o600)
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"DISCORD_TOKEN", &c.Bot.Token},
		{"GUILD_ID", &c.Bot.GuildID},
		{"MYSQL_DSN", &c.Database.DSN},
		{"REDIS_URL", &c.Redis.URL},
		{"JWT_SECRET", &c.API.JWTSecret},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
	if c.Database.DSN != "" && os.Getenv("MYSQL_DSN") != "" {
		c.Database.Type = "mysql"
	}
}

// Validate reports the first problem that would stop the bot from running.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" || c.Bot.Token == tokenPlaceholder {
		return errors.New("config: bot.token is not set")
	}
	if strings.TrimSpace(c.Bot.Prefix) == "" {
		return errors.New("config: bot.prefix is empty")
	}
	if len(c.Bot.Channels) == 0 {
		return errors.New("config: bot.channels needs at least one channel id")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Database.Type {
	case "sqlite":
		if c.Database.File == "" {
			return errors.New("config: database.file is required for sqlite")
		}
	case "mysql":
		if c.Database.DSN == "" {
			return errors.New("config: database.dsn is required for mysql")
		}
	default:
		return fmt.Errorf("config: unknown database.type %q", c.Database.Type)
	}
	if c.Sweeper.Interval <= 0 {
		return errors.New("config: sweeper.interval must be positive")
	}
	if c.Archive.Enabled && c.Archive.Interval <= 0 {
		return errors.New("config: archive.interval must be positive")
	}
	if c.API.Listen != "" && c.API.JWTSecret == "" {
		return errors.New("config: api.jwt_secret is required when api.listen is set")
	}
	return nil
}

// Location resolves bot.timezone; empty means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Bot.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: bot.timezone: %w", err)
	}
	return loc, nil
}

// DatabaseSource is the DSN or file handed to data.Connect.
func (c Config) DatabaseSource() string {
	if c.Database.Type == "mysql" {
		return c.Database.DSN
	}
	return c.Database.File
}
