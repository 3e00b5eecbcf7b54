package webserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/stake-plus/govproposals/src/proposals"
)

// Engine is the read side of proposals.Engine.
type Engine interface {
	GetProposal(ctx context.Context, id uint64) (*proposals.Proposal, error)
	ListProposals(ctx context.Context, status *proposals.Status) ([]proposals.Proposal, error)
	Tally(ctx context.Context, id uint64) (map[int]int, error)
}

type Proposals struct {
	engine    Engine
	renderer  proposals.Renderer
	sanitizer *bluemonday.Policy
}

func NewProposals(engine Engine, renderer proposals.Renderer) Proposals {
	return Proposals{engine: engine, renderer: renderer, sanitizer: bluemonday.StrictPolicy()}
}

type proposalView struct {
	ID           uint64    `json:"id"`
	Author       string    `json:"author"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	Expiration   time.Time `json:"expiration"`
	Status       string    `json:"status"`
	Decision     *int      `json:"decision,omitempty"`
	Votes        []int     `json:"votes,omitempty"`
	Announcement string    `json:"announcement,omitempty"`
}

func (h Proposals) view(p *proposals.Proposal) proposalView {
	options := make([]string, len(p.Options))
	for i, opt := range p.Options {
		options[i] = h.sanitizer.Sanitize(opt)
	}
	return proposalView{
		ID:         p.ID,
		Author:     h.sanitizer.Sanitize(p.Author),
		Text:       h.sanitizer.Sanitize(p.Text),
		Options:    options,
		Expiration: p.Expiration.UTC(),
		Status:     p.Status.String(),
		Decision:   p.Decision,
	}
}

// List returns proposals newest first, optionally filtered by ?status=.
func (h Proposals) List(c *gin.Context) {
	var filter *proposals.Status
	if raw := c.Query("status"); raw != "" {
		st, ok := proposals.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"err": "status must be open, succeeded or failed"})
			return
		}
		filter = &st
	}

	list, err := h.engine.ListProposals(c.Request.Context(), filter)
	if err != nil {
		log.Printf("api: list proposals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "could not list proposals"})
		return
	}

	out := make([]proposalView, 0, len(list))
	for i := range list {
		out = append(out, h.view(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"proposals": out})
}

// Get returns one proposal with its tally and announcement text.
func (h Proposals) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad proposal id"})
		return
	}

	ctx := c.Request.Context()
	p, err := h.engine.GetProposal(ctx, id)
	if err == nil {
		var counts map[int]int
		if counts, err = h.engine.Tally(ctx, id); err == nil {
			h.writeProposal(c, p, counts)
			return
		}
	}
	if proposals.Kind(err) == proposals.KindProposalNotFound {
		c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
		return
	}
	log.Printf("api: get proposal %d: %v", id, err)
	c.JSON(http.StatusInternalServerError, gin.H{"err": "could not load proposal"})
}

func (h Proposals) writeProposal(c *gin.Context, p *proposals.Proposal, counts map[int]int) {
	announcement := h.renderer.Render(p)
	tally := proposals.RenderTally(p, counts)

	etag := etagFor(announcement, tally)
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	v := h.view(p)
	v.Votes = make([]int, len(p.Options))
	for i := range p.Options {
		v.Votes[i] = counts[i+1]
	}
	v.Announcement = h.sanitizer.Sanitize(announcement)
	c.JSON(http.StatusOK, v)
}

func etagFor(parts ...string) string {
	hash := xxhash.New64()
	for _, part := range parts {
		hash.Write([]byte(part))
		hash.Write([]byte{0})
	}
	return fmt.Sprintf(`"%016x"`, hash.Sum64())
}
