// Package notify delivers proposal announcements to their destinations.
package notify

import (
	"context"
	"errors"
	"log"

	"github.com/stake-plus/govproposals/src/proposals"
)

// Notifier posts one rendered announcement for a proposal.
type Notifier interface {
	Notify(ctx context.Context, p proposals.Proposal, text string) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, p proposals.Proposal, text string) error

func (f Func) Notify(ctx context.Context, p proposals.Proposal, text string) error {
	return f(ctx, p, text)
}

// Multi fans an announcement out to every sink. A failing sink does not stop
// the others; all failures are joined into the returned error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, p proposals.Proposal, text string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, p, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes announcements to the process log.
type Log struct{}

func (Log) Notify(ctx context.Context, p proposals.Proposal, text string) error {
	log.Printf("notify: proposal %d (%s):\n%s", p.ID, p.Status, text)
	return nil
}
