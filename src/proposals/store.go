package proposals

import (
	"context"
	"time"
)

// Tx is the set of record operations the engine needs. Every call is atomic
// on its own; multi-step work runs inside Store.Transaction.
//
// Lookups that find nothing return ErrRecordNotFound. CreateVote returns
// ErrDuplicateKey when (ProposalID, Author) already exists.
type Tx interface {
	CreateProposal(ctx context.Context, p *Proposal) error
	// GetProposal loads a proposal. With forUpdate set the row stays locked
	// until the surrounding transaction ends.
	GetProposal(ctx context.Context, id uint64, forUpdate bool) (*Proposal, error)
	UpdateProposal(ctx context.Context, p *Proposal) error
	// ListProposals returns proposals newest first, optionally filtered by status.
	ListProposals(ctx context.Context, status *Status) ([]Proposal, error)
	// ListDueProposals returns proposals in status whose expiration is at or before the cutoff.
	ListDueProposals(ctx context.Context, status Status, before time.Time) ([]Proposal, error)

	CreateVote(ctx context.Context, v *Vote) error
	UpdateVote(ctx context.Context, v *Vote) error
	FindVote(ctx context.Context, proposalID uint64, author string) (*Vote, error)
	ListVotes(ctx context.Context, proposalID uint64) ([]Vote, error)
}

// Store is the durable home of proposals and votes.
type Store interface {
	Tx
	// Transaction runs fn with all-or-nothing semantics. An error from fn rolls back.
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}
