package config

import (
	"strings"

	"github.com/stake-plus/govproposals/src/data"
)

// ApplySettings lets rows of the settings table override the file values.
// Call data.LoadSettings first.
func (c *Config) ApplySettings() {
	c.Bot.Token = GetSetting("discord_token", c.Bot.Token)
	c.Bot.GuildID = GetSetting("guild_id", c.Bot.GuildID)
	c.Bot.ProposerRoleID = GetSetting("proposer_role_id", c.Bot.ProposerRoleID)
	c.Bot.SlashCommands = getBoolSetting("slash_commands", c.Bot.SlashCommands)
	if v := data.GetSetting("channels"); v != "" {
		c.Bot.Channels = splitList(v)
	}
}

// GetSetting retrieves a setting with a fallback value
func GetSetting(name, defaultValue string) string {
	if val := data.GetSetting(name); val != "" {
		return val
	}
	return defaultValue
}

func getBoolSetting(settingKey string, defaultValue bool) bool {
	if v := data.GetSetting(settingKey); v != "" {
		return parseBoolDefault(v, defaultValue)
	}
	return defaultValue
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// splitList accepts ";" or "," separated ids, as the original channel setting did.
func splitList(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
