package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/stake-plus/govproposals/src/data"
	"github.com/stake-plus/govproposals/src/proposals"
)

// RedisStream appends announcements to a Redis stream for other services.
type RedisStream struct {
	Client data.StreamAdder
	Stream string
	Now    func() time.Time
}

func (r *RedisStream) Notify(ctx context.Context, p proposals.Proposal, text string) error {
	stream := r.Stream
	if stream == "" {
		stream = data.ProposalStream
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	decision := ""
	if p.Decision != nil {
		decision = strconv.Itoa(*p.Decision)
	}

	payload := map[string]interface{}{
		"event_id":    uuid.NewString(),
		"proposal_id": strconv.FormatUint(p.ID, 10),
		"status":      p.Status.String(),
		"decision":    decision,
		"text":        text,
		"time":        now().Unix(),
	}
	if err := data.PublishMessage(ctx, r.Client, stream, payload); err != nil {
		return fmt.Errorf("notify: redis stream %s: %w", stream, err)
	}
	return nil
}
