package proposals

import (
	"fmt"
	"strings"
	"time"
)

const expirationLayout = "02.01.2006 15:04"

// Renderer turns a proposal into the announcement posted in chat.
type Renderer struct {
	Prefix      string
	VoteCommand string
	// Location is used for the expiration timestamp; nil means UTC.
	Location *time.Location
}

// DefaultRenderer matches the bot's default command set.
var DefaultRenderer = Renderer{Prefix: "!", VoteCommand: "votar"}

// Render is the same for the same proposal state and renderer settings.
func (r Renderer) Render(p *Proposal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Proposta %d:\nProposta por %s.\n\n", p.ID, p.Author)
	fmt.Fprintf(&b, "Texto:\n%s\n\n", p.Text)
	b.WriteString("Opções:\n")
	for i, opt := range p.Options {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, opt)
	}
	b.WriteString("\n\n")

	switch p.Status {
	case StatusOpen:
		cmd := r.Prefix + r.VoteCommand
		fmt.Fprintf(&b, "Proposta aberta até: %s. Pode votar sobre esta proposta escrevendo %s %d opção#. ",
			p.Expiration.In(r.location()).Format(expirationLayout), cmd, p.ID)
		fmt.Fprintf(&b, "Por exemplo, se quisesse votar a favor da primeira opção pode escrever:\n %s %d 1", cmd, p.ID)
	case StatusSucceeded:
		winner := ""
		if p.Decision != nil {
			if text, ok := p.Option(*p.Decision); ok {
				winner = fmt.Sprintf("%d. %s", *p.Decision, text)
			}
		}
		fmt.Fprintf(&b, "Proposta aprovada. Opção escolhida: %s.", winner)
	default:
		b.WriteString("Proposta falhada. Houve um empate ou não foram recebidos votos.")
	}
	return b.String()
}

// RenderTally lists the current count for every option, in option order.
func RenderTally(p *Proposal, counts map[int]int) string {
	var b strings.Builder
	b.WriteString("Votos:")
	for i, opt := range p.Options {
		fmt.Fprintf(&b, "\n%d. %s: %d", i+1, opt, counts[i+1])
	}
	return b.String()
}

func (r Renderer) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}
