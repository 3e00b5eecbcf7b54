package proposals

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/govproposals/src/actions/core"
	"github.com/stake-plus/govproposals/src/config"
	shareddiscord "github.com/stake-plus/govproposals/src/discord"
)

var _ core.Module = (*Module)(nil)

// Module connects the proposal commands to a Discord session. It owns the
// gateway connection; other modules share the session for REST calls.
type Module struct {
	config  config.BotConfig
	session *discordgo.Session
	members shareddiscord.MemberFetcher
	handler *Handler

	runtimeCtx context.Context
	cancel     context.CancelFunc
}

func NewModule(cfg config.BotConfig, session *discordgo.Session, handler *Handler) *Module {
	m := &Module{
		config:  cfg,
		session: session,
		members: session,
		handler: handler,
	}
	if cfg.ProposerRoleID != "" && handler.CanPropose == nil {
		handler.CanPropose = m.hasProposerRole
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsDirectMessages

	m.initHandlers()
	return m
}

// Name implements actions.Module.
func (m *Module) Name() string { return "proposals" }

func (m *Module) initHandlers() {
	m.session.AddHandler(m.onReady)
	m.session.AddHandler(m.onMessageCreate)
	m.session.AddHandler(m.onInteractionCreate)
}

func (m *Module) Start(ctx context.Context) error {
	m.runtimeCtx, m.cancel = context.WithCancel(ctx)
	if err := m.session.Open(); err != nil {
		m.cancel()
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	if m.session != nil {
		if err := m.session.Close(); err != nil {
			log.Printf("proposals: close session: %v", err)
		}
	}
}

func (m *Module) ctx() context.Context {
	if m.runtimeCtx != nil {
		return m.runtimeCtx
	}
	return context.Background()
}

func (m *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("proposals: logged in as %s (%s)", r.User.Username, r.User.ID)

	if !m.config.SlashCommands {
		return
	}
	if m.config.GuildID == "" {
		log.Printf("proposals: guild_id not set, slash commands not registered")
		return
	}
	if err := shareddiscord.RegisterSlashCommands(s, r.User.ID, m.config.GuildID); err != nil {
		log.Printf("proposals: failed to register slash commands: %v", err)
	} else {
		log.Printf("proposals: slash commands registered")
	}
}

func (m *Module) onMessageCreate(s *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && msg.Author.ID == s.State.User.ID {
		return
	}
	if !strings.HasPrefix(strings.TrimSpace(msg.Content), m.config.Prefix) {
		return
	}
	defer recoverHandler("message " + msg.ID)

	inv := Invoker{
		UserID:  msg.Author.ID,
		Mention: msg.Author.Mention(),
		Name:    shareddiscord.DisplayName(msg.Member, msg.Author),
		GuildID: msg.GuildID,
		Member:  msg.Member,
	}
	reply, handled := m.handler.Dispatch(m.ctx(), inv, msg.Content)
	if !handled {
		return
	}
	for _, chunk := range shareddiscord.SplitMessage(reply) {
		if _, err := s.ChannelMessageSend(msg.ChannelID, chunk); err != nil {
			log.Printf("proposals: reply in channel %s failed: %v", msg.ChannelID, err)
			return
		}
	}
}

func (m *Module) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	defer recoverHandler("interaction " + i.ID)

	data := i.ApplicationCommandData()
	reply, ok := m.handleSlash(data, invokerFromInteraction(i))
	if !ok {
		return
	}

	chunks := shareddiscord.SplitMessage(reply)
	if len(chunks) == 0 {
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: chunks[0]},
	})
	if err != nil {
		log.Printf("proposals: respond to /%s failed: %v", data.Name, err)
		return
	}
	for _, chunk := range chunks[1:] {
		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: chunk}); err != nil {
			log.Printf("proposals: follow-up for /%s failed: %v", data.Name, err)
			return
		}
	}
}

// handleSlash runs a slash command; ok is false for commands owned elsewhere.
func (m *Module) handleSlash(data discordgo.ApplicationCommandInteractionData, inv Invoker) (reply string, ok bool) {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		opts[opt.Name] = opt
	}
	intOpt := func(name string) int64 {
		if o, found := opts[name]; found {
			return o.IntValue()
		}
		return 0
	}
	strOpt := func(name string) string {
		if o, found := opts[name]; found {
			return o.StringValue()
		}
		return ""
	}

	ctx := m.ctx()
	switch data.Name {
	case shareddiscord.CommandPropose:
		var options []string
		for n := 1; n <= shareddiscord.MaxSlashOptions; n++ {
			options = append(options, strOpt(shareddiscord.SlashOptionName(n)))
		}
		return m.handler.Propose(ctx, inv, int(intOpt("dias")), strOpt("texto"), options), true
	case shareddiscord.CommandVote:
		return m.handler.Vote(ctx, inv, uint64(intOpt("proposta")), int(intOpt("opcao"))), true
	case shareddiscord.CommandAmend:
		return m.handler.Amend(ctx, inv, uint64(intOpt("proposta")), int(intOpt("opcao"))), true
	case shareddiscord.CommandProposal:
		return m.handler.Show(ctx, inv, uint64(intOpt("proposta"))), true
	}
	return "", false
}

// hasProposerRole uses the roles delivered with the event and only asks the
// API when the event carried no member (direct messages).
func (m *Module) hasProposerRole(ctx context.Context, inv Invoker) bool {
	roleID := m.config.ProposerRoleID
	if inv.Member != nil {
		return shareddiscord.MemberHasRole(inv.Member, roleID)
	}

	guildID := inv.GuildID
	if guildID == "" {
		guildID = m.config.GuildID
	}
	if guildID == "" {
		log.Printf("proposals: cannot check proposer role for %s outside a guild (guild_id not set)", inv.UserID)
		return false
	}
	member, err := m.members.GuildMember(guildID, inv.UserID)
	if err != nil {
		log.Printf("proposals: fetch member %s in guild %s: %v", inv.UserID, guildID, err)
		return false
	}
	return shareddiscord.MemberHasRole(member, roleID)
}

func invokerFromInteraction(i *discordgo.InteractionCreate) Invoker {
	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return Invoker{}
	}
	return Invoker{
		UserID:  user.ID,
		Mention: user.Mention(),
		Name:    shareddiscord.DisplayName(i.Member, user),
		GuildID: i.GuildID,
		Member:  i.Member,
	}
}

func recoverHandler(what string) {
	if r := recover(); r != nil {
		log.Printf("proposals: panic handling %s: %v\n%s", what, r, debug.Stack())
	}
}
