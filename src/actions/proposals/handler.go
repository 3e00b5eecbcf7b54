package proposals

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"
	shareddiscord "github.com/stake-plus/govproposals/src/discord"
	"github.com/stake-plus/govproposals/src/proposals"
)

// Engine is the part of proposals.Engine the chat commands use.
type Engine interface {
	CreateProposal(ctx context.Context, author, text string, options []string, days int) (*proposals.Proposal, error)
	CastVote(ctx context.Context, proposalID uint64, author string, choice int) (uint64, error)
	AmendVote(ctx context.Context, proposalID uint64, author string, newChoice int) (uint64, error)
	GetProposal(ctx context.Context, id uint64) (*proposals.Proposal, error)
	Tally(ctx context.Context, id uint64) (map[int]int, error)
}

// Invoker identifies who ran a command.
type Invoker struct {
	UserID  string
	Mention string
	// Name is recorded as the proposal or vote author.
	Name string
	// GuildID is empty for direct messages.
	GuildID string
	// Member is the guild member attached to the event, nil outside a guild.
	Member *discordgo.Member
}

// Handler turns chat commands into engine calls and engine results into
// replies. It never talks to Discord itself.
type Handler struct {
	Engine   Engine
	Renderer proposals.Renderer
	// Limiter throttles propor per user; nil disables the cooldown.
	Limiter *RateLimiter
	// CanPropose gates propor; nil allows everyone.
	CanPropose func(ctx context.Context, inv Invoker) bool
}

func (h *Handler) prefix() string { return h.Renderer.Prefix }

// Dispatch runs a prefix command. handled is false when content is not one
// of the proposal commands.
func (h *Handler) Dispatch(ctx context.Context, inv Invoker, content string) (reply string, handled bool) {
	content = strings.TrimSpace(content)
	p := h.prefix()
	if p == "" || !strings.HasPrefix(content, p) {
		return "", false
	}

	name, rest := strings.TrimPrefix(content, p), ""
	if i := strings.IndexFunc(name, unicode.IsSpace); i >= 0 {
		name, rest = name[:i], name[i:]
	}
	switch name {
	case shareddiscord.CommandPropose, shareddiscord.CommandVote, shareddiscord.CommandAmend, shareddiscord.CommandProposal:
	default:
		return "", false
	}

	args, err := splitArgs(rest)
	if err != nil {
		return h.usage(name), true
	}

	switch name {
	case shareddiscord.CommandPropose:
		if len(args) < 2 {
			return h.usage(name), true
		}
		days, err := strconv.Atoi(args[0])
		if err != nil {
			return h.usage(name), true
		}
		return h.Propose(ctx, inv, days, args[1], args[2:]), true

	case shareddiscord.CommandVote, shareddiscord.CommandAmend:
		if len(args) != 2 {
			return h.usage(name), true
		}
		id, err := parseProposalID(args[0])
		if err != nil {
			return h.usage(name), true
		}
		choice, err := strconv.Atoi(args[1])
		if err != nil {
			return h.usage(name), true
		}
		if name == shareddiscord.CommandVote {
			return h.Vote(ctx, inv, id, choice), true
		}
		return h.Amend(ctx, inv, id, choice), true

	default:
		if len(args) != 1 {
			return h.usage(name), true
		}
		id, err := parseProposalID(args[0])
		if err != nil {
			return h.usage(name), true
		}
		return h.Show(ctx, inv, id), true
	}
}

// Propose registers a new proposal and returns its announcement.
func (h *Handler) Propose(ctx context.Context, inv Invoker, days int, text string, options []string) string {
	if h.CanPropose != nil && !h.CanPropose(ctx, inv) {
		return fmt.Sprintf("%s, não tem permissão para propor votações.", inv.Mention)
	}

	failed := fmt.Sprintf("%s: Não consegui registar a sua proposta.", inv.Mention)
	if msg := durationProblem(days); msg != "" {
		return failed + msg
	}
	options = compact(options)
	if len(options) == 0 {
		return failed + " A proposta precisa de pelo menos uma opção."
	}

	if h.Limiter != nil {
		if wait := h.Limiter.Reserve(inv.UserID); wait > 0 {
			return fmt.Sprintf("%s, aguarde %s antes de registar outra proposta.", inv.Mention, formatWait(wait))
		}
	}

	p, err := h.Engine.CreateProposal(ctx, inv.Name, strings.TrimSpace(text), options, days)
	if err != nil {
		if h.Limiter != nil {
			h.Limiter.Release(inv.UserID)
		}
		switch proposals.Kind(err) {
		case proposals.KindInvalidDuration:
			return failed + durationProblem(days)
		case proposals.KindInvalidOptions:
			return failed + " A proposta precisa de pelo menos uma opção."
		default:
			log.Printf("proposals: create proposal by %s failed: %v", inv.Name, err)
			return failed
		}
	}

	log.Printf("proposals: %s registered proposal %d (%d options, %d days)", inv.Name, p.ID, len(p.Options), days)
	return fmt.Sprintf("%s registou uma nova proposta:\n%s", inv.Mention, h.Renderer.Render(p))
}

// durationProblem is the reply suffix for a voting period outside
// proposals.MinDays..proposals.MaxDays, or "" when days is fine.
func durationProblem(days int) string {
	switch {
	case days < proposals.MinDays:
		return " O número de dias para votar deve ser superior a zero."
	case days > proposals.MaxDays:
		return " O número de dias para votar deve ser inferior a 31."
	}
	return ""
}

// Vote records the invoker's first vote on a proposal.
func (h *Handler) Vote(ctx context.Context, inv Invoker, proposalID uint64, choice int) string {
	if _, err := h.Engine.CastVote(ctx, proposalID, inv.Name, choice); err != nil {
		failed := fmt.Sprintf("%s, não consegui registar o seu voto", inv.Mention)
		switch proposals.Kind(err) {
		case proposals.KindProposalNotFound:
			return fmt.Sprintf("%s, uma vez que a proposta %d não existe.", failed, proposalID)
		case proposals.KindProposalClosed:
			return fmt.Sprintf("%s, uma vez que a proposta %d já está fechada.", failed, proposalID)
		case proposals.KindDuplicateVote:
			return failed + ", uma vez que já votou sobre esta proposta."
		case proposals.KindInvalidChoice:
			return failed + ", uma vez que esta opção não existe."
		default:
			log.Printf("proposals: vote by %s on %d failed: %v", inv.Name, proposalID, err)
			return failed + " devido a um erro inesperado."
		}
	}
	return fmt.Sprintf("%s, registei com sucesso o seu voto para proposta %d.", inv.Mention, proposalID)
}

// Amend changes the invoker's existing vote on a proposal.
func (h *Handler) Amend(ctx context.Context, inv Invoker, proposalID uint64, choice int) string {
	if _, err := h.Engine.AmendVote(ctx, proposalID, inv.Name, choice); err != nil {
		failed := fmt.Sprintf("%s, não consegui mudar o seu voto", inv.Mention)
		switch proposals.Kind(err) {
		case proposals.KindProposalNotFound:
			return fmt.Sprintf("%s, uma vez que a proposta %d não existe.", failed, proposalID)
		case proposals.KindProposalClosed:
			return fmt.Sprintf("%s, uma vez que a proposta %d já está fechada.", failed, proposalID)
		case proposals.KindVoteNotFound:
			return failed + ", uma vez que ainda não votou sobre esta proposta."
		case proposals.KindInvalidChoice:
			return failed + ", uma vez que esta opção não existe."
		default:
			log.Printf("proposals: amend by %s on %d failed: %v", inv.Name, proposalID, err)
			return failed + " devido a um erro inesperado."
		}
	}
	return fmt.Sprintf("%s, mudei o seu voto na proposta %d com sucesso.", inv.Mention, proposalID)
}

// Show returns a proposal's announcement followed by its current tally.
func (h *Handler) Show(ctx context.Context, inv Invoker, proposalID uint64) string {
	p, err := h.Engine.GetProposal(ctx, proposalID)
	if err == nil {
		var counts map[int]int
		if counts, err = h.Engine.Tally(ctx, proposalID); err == nil {
			return h.Renderer.Render(p) + "\n\n" + proposals.RenderTally(p, counts)
		}
	}
	if proposals.Kind(err) == proposals.KindProposalNotFound {
		return fmt.Sprintf("%s, a proposta %d não existe.", inv.Mention, proposalID)
	}
	log.Printf("proposals: show %d failed: %v", proposalID, err)
	return fmt.Sprintf("%s, não consegui mostrar a proposta %d devido a um erro inesperado.", inv.Mention, proposalID)
}

func (h *Handler) usage(command string) string {
	p := h.prefix()
	switch command {
	case shareddiscord.CommandPropose:
		return "Erro: este comando esperava um número mas forneceu outra coisa. Um exemplo deste comando é:\n " +
			p + `propor 3 "Devemos plantar tulipas no jardim?" "Sim, muitas" "Sim, algumas" "Não"`
	case shareddiscord.CommandVote:
		return "Erro: este comando está à espera de números mas forneceu algo diferente. Um exemplo deste comando é:\n " +
			p + "votar 1 2\nEste comando escolhe a opção 2 na proposta número 1."
	case shareddiscord.CommandAmend:
		return "Erro: este comando está à espera de números mas forneceu algo diferente. Um exemplo deste comando é:\n " +
			p + "mudar_voto 2 1\nEste comando muda o seu voto para a opção 1 na proposta número 2."
	default:
		return "Erro: este comando está à espera de um número. Um exemplo deste comando é:\n " +
			p + "proposta 1"
	}
}

func parseProposalID(v string) (uint64, error) {
	return strconv.ParseUint(v, 10, 64)
}

// compact drops blank options.
func compact(options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			out = append(out, opt)
		}
	}
	return out
}

func formatWait(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 60 {
		return fmt.Sprintf("%d segundos", secs)
	}
	return fmt.Sprintf("%d minutos e %d segundos", secs/60, secs%60)
}
