package discord

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandPropose  = "propor"
	CommandVote     = "votar"
	CommandAmend    = "mudar_voto"
	CommandProposal = "proposta"

	// MaxSlashOptions is how many option fields the propor slash command offers.
	MaxSlashOptions = 10
)

var (
	minDays  = 1.0
	minIndex = 1.0
)

func proposalIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "proposta",
		Description: "Número da proposta",
		Required:    true,
		MinValue:    &minIndex,
	}
}

func choiceOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "opcao",
		Description: "Número da opção",
		Required:    true,
	}
}

func proposeOptions() []*discordgo.ApplicationCommandOption {
	opts := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "dias",
			Description: "Número de dias para votar (1-30)",
			Required:    true,
			MinValue:    &minDays,
			MaxValue:    30,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "texto",
			Description: "Texto da proposta",
			Required:    true,
		},
	}
	for i := 1; i <= MaxSlashOptions; i++ {
		opts = append(opts, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        SlashOptionName(i),
			Description: fmt.Sprintf("Opção %d", i),
			Required:    i == 1,
		})
	}
	return opts
}

// SlashOptionName is the name of the i-th (1-based) option field of propor.
func SlashOptionName(i int) string { return fmt.Sprintf("opcao%d", i) }

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandPropose: {
		Name:        CommandPropose,
		Description: "Propor uma votação.",
		Options:     proposeOptions(),
	},
	CommandVote: {
		Name:        CommandVote,
		Description: "Votar para uma proposta.",
		Options:     []*discordgo.ApplicationCommandOption{proposalIDOption(), choiceOption()},
	},
	CommandAmend: {
		Name:        CommandAmend,
		Description: "Mudar o seu voto numa proposta.",
		Options:     []*discordgo.ApplicationCommandOption{proposalIDOption(), choiceOption()},
	},
	CommandProposal: {
		Name:        CommandProposal,
		Description: "Mostrar uma proposta e a contagem atual.",
		Options:     []*discordgo.ApplicationCommandOption{proposalIDOption()},
	},
}

var defaultCommandOrder = []string{
	CommandPropose,
	CommandVote,
	CommandAmend,
	CommandProposal,
}

// CommandRegistrar is the part of *discordgo.Session used to manage commands.
type CommandRegistrar interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

// RegisterSlashCommands registers the requested slash commands for a guild.
// When no command names are provided, all known commands are registered.
func RegisterSlashCommands(s CommandRegistrar, appID, guildID string, names ...string) error {
	if guildID == "" {
		return fmt.Errorf("discord: guildID is required to register slash commands")
	}

	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Printf("discord: unknown slash command %q", name)
			continue
		}

		_, err := s.ApplicationCommandCreate(appID, guildID, definition)
		if err != nil {
			if isDuplicateCommandError(err) {
				log.Printf("discord: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.Printf("discord: failed to register command %q: %v", name, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}
