package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stake-plus/govproposals/src/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"DISCORD_TOKEN", "GUILD_ID", "MYSQL_DSN", "REDIS_URL", "JWT_SECRET"} {
		t.Setenv(k, "")
	}
}

func TestLoadWritesDefaultWhenMissing(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "conf", "bot.yaml")

	_, err := Load(path)
	require.ErrorIs(t, err, ErrDefaultWritten)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), tokenPlaceholder)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "!", cfg.Bot.Prefix)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "sql", "storage.sqlite3"), cfg.Database.File)
	assert.Equal(t, 10*time.Second, cfg.Sweeper.Interval)

	// the placeholder token must be replaced before the bot can run
	assert.Error(t, cfg.Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(`
bot:
  token: abc
  prefix: "?"
  channels: ["1", "2"]
  propose_cooldown: 30s
  timezone: Europe/Lisbon
database:
  type: mysql
  dsn: user:pw@tcp(db:3306)/gov
sweeper:
  interval: 1m
api:
  listen: ":8080"
  jwt_secret: s3cret
`), "/etc/gov")
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Bot.Token)
	assert.Equal(t, "?", cfg.Bot.Prefix)
	assert.Equal(t, []string{"1", "2"}, cfg.Bot.Channels)
	assert.Equal(t, 30*time.Second, cfg.Bot.ProposeCooldown)
	assert.Equal(t, time.Minute, cfg.Sweeper.Interval)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "user:pw@tcp(db:3306)/gov", cfg.DatabaseSource())
	assert.Equal(t, "A bot for the Jardins Efemeros Project.", cfg.Bot.Description)
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "from-env")
	t.Setenv("MYSQL_DSN", "root@tcp(localhost)/gov")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Parse([]byte("bot:\n  token: from-file\n"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Bot.Token)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "root@tcp(localhost)/gov", cfg.DatabaseSource())
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default("/tmp/gov")
		cfg.Bot.Token = "token"
		cfg.Bot.Channels = []string{"123"}
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"no channels":    func(c *Config) { c.Bot.Channels = nil },
		"empty prefix":   func(c *Config) { c.Bot.Prefix = " " },
		"bad timezone":   func(c *Config) { c.Bot.Timezone = "Mars/Olympus" },
		"unknown db":     func(c *Config) { c.Database.Type = "postgres" },
		"mysql no dsn":   func(c *Config) { c.Database.Type = "mysql" },
		"zero sweep":     func(c *Config) { c.Sweeper.Interval = 0 },
		"zero archive":   func(c *Config) { c.Archive.Interval = 0 },
		"api no secret":  func(c *Config) { c.API.Listen = ":8080" },
		"missing token":  func(c *Config) { c.Bot.Token = "" },
		"sqlite no file": func(c *Config) { c.Database.File = "" },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	cfg := valid()
	cfg.Archive.Enabled = false
	cfg.Archive.Interval = 0
	assert.NoError(t, cfg.Validate())
}

func TestApplySettings(t *testing.T) {
	db, err := data.ConnectSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, data.Migrate(db))
	require.NoError(t, db.Create(&[]data.Setting{
		{Name: "discord_token", Value: "db-token", Active: 1},
		{Name: "channels", Value: "10; 20 ,30", Active: 1},
		{Name: "slash_commands", Value: "off", Active: 1},
		{Name: "guild_id", Value: "ignored", Active: 0},
	}).Error)
	// gorm skips zero values on insert, so deactivate explicitly
	require.NoError(t, db.Model(&data.Setting{}).Where("name = ?", "guild_id").Update("active", 0).Error)
	require.NoError(t, data.LoadSettings(db))
	t.Cleanup(func() {
		_ = db.Exec("DELETE FROM settings").Error
		_ = data.LoadSettings(db)
	})

	cfg := Default(t.TempDir())
	cfg.Bot.GuildID = "file-guild"
	cfg.ApplySettings()

	assert.Equal(t, "db-token", cfg.Bot.Token)
	assert.Equal(t, []string{"10", "20", "30"}, cfg.Bot.Channels)
	assert.False(t, cfg.Bot.SlashCommands)
	assert.Equal(t, "file-guild", cfg.Bot.GuildID)
}
