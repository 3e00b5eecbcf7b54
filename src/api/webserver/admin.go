package webserver

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/govproposals/src/proposals"
)

// Sweeper runs one expiration sweep on demand.
type Sweeper interface {
	SweepOnce(ctx context.Context) ([]proposals.Proposal, error)
}

type Admin struct {
	sweeper Sweeper
}

func NewAdmin(sweeper Sweeper) Admin {
	return Admin{sweeper: sweeper}
}

// Sweep resolves expired proposals now and reports which ones closed.
func (a Admin) Sweep(c *gin.Context) {
	resolved, err := a.sweeper.SweepOnce(c.Request.Context())
	ids := make([]uint64, 0, len(resolved))
	for _, p := range resolved {
		ids = append(ids, p.ID)
	}
	log.Printf("api: sweep requested by %q resolved %d proposal(s)", c.GetString("subject"), len(ids))

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error(), "resolved": ids})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": ids})
}
