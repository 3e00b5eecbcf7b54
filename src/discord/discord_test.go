package discord

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessageShortTextIsUntouched(t *testing.T) {
	assert.Equal(t, []string{"olá"}, SplitMessage("olá"))
}

func TestSplitMessageKeepsLinesAndLimit(t *testing.T) {
	line := strings.Repeat("é", 90)
	text := strings.TrimSuffix(strings.Repeat(line+"\n", 50), "\n")

	chunks := SplitMessage(text)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), SafeChunkLen)
		for _, l := range strings.Split(c, "\n") {
			assert.Equal(t, line, l)
		}
	}
	assert.Equal(t, text, strings.Join(chunks, "\n"))
}

func TestSplitMessageCutsLongLineAtSpace(t *testing.T) {
	words := strings.TrimSpace(strings.Repeat("palavra ", 40))
	chunks := splitMessage(words, 100)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
		assert.False(t, strings.HasPrefix(c, " "))
		assert.False(t, strings.HasSuffix(c, " "))
	}
	assert.Equal(t, words, strings.Join(chunks, " "))
}

func TestWrapURLsNoEmbed(t *testing.T) {
	assert.Equal(t, "veja <https://exemplo.pt/a?b=1>.", WrapURLsNoEmbed("veja https://exemplo.pt/a?b=1."))
	assert.Equal(t, "sem links", WrapURLsNoEmbed("sem links"))
	assert.Equal(t, "já <https://a.pt> e <https://b.pt>", WrapURLsNoEmbed("já <https://a.pt> e https://b.pt"))
}

func TestDisplayName(t *testing.T) {
	user := &discordgo.User{Username: "ana_j", GlobalName: "Ana"}
	assert.Equal(t, "Jardineira", DisplayName(&discordgo.Member{Nick: "Jardineira"}, user))
	assert.Equal(t, "Ana", DisplayName(&discordgo.Member{}, user))
	assert.Equal(t, "ana_j", DisplayName(nil, &discordgo.User{Username: "ana_j"}))
	assert.Equal(t, "bob", DisplayName(&discordgo.Member{User: &discordgo.User{Username: "bob"}}, nil))
	assert.Equal(t, "", DisplayName(nil, nil))
}

func TestMemberHasRole(t *testing.T) {
	m := &discordgo.Member{Roles: []string{"a", "b"}}
	assert.True(t, MemberHasRole(m, ""))
	assert.True(t, MemberHasRole(m, "b"))
	assert.False(t, MemberHasRole(m, "c"))
	assert.False(t, MemberHasRole(nil, "a"))
}

type fakeRegistrar struct {
	created []string
	fail    map[string]error
}

func (f *fakeRegistrar) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	if err := f.fail[cmd.Name]; err != nil {
		return nil, err
	}
	f.created = append(f.created, cmd.Name)
	return cmd, nil
}

func TestRegisterSlashCommands(t *testing.T) {
	r := &fakeRegistrar{}
	require.NoError(t, RegisterSlashCommands(r, "app", "guild"))
	assert.Equal(t, []string{CommandPropose, CommandVote, CommandAmend, CommandProposal}, r.created)

	assert.Error(t, RegisterSlashCommands(r, "app", ""))

	dup := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusBadRequest},
		Message:  &discordgo.APIErrorMessage{Code: 50035, Message: "Command already exists"},
	}
	r = &fakeRegistrar{fail: map[string]error{CommandVote: dup, CommandAmend: errors.New("boom")}}
	err := RegisterSlashCommands(r, "app", "guild")
	require.Error(t, err)
	assert.Contains(t, err.Error(), CommandAmend)
	assert.NotContains(t, err.Error(), CommandVote+":")
	assert.Equal(t, []string{CommandPropose, CommandProposal}, r.created)
}

func TestProposeCommandDefinition(t *testing.T) {
	def := commandDefinitions[CommandPropose]
	require.NotNil(t, def)
	require.Len(t, def.Options, 2+MaxSlashOptions)
	assert.Equal(t, "dias", def.Options[0].Name)
	assert.Equal(t, "texto", def.Options[1].Name)
	assert.Equal(t, "opcao1", def.Options[2].Name)
	assert.True(t, def.Options[2].Required)
	assert.False(t, def.Options[3].Required)
}
