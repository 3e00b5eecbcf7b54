package proposals

import (
	"context"
	"errors"
	"time"
)

const (
	MinDays = 1
	MaxDays = 30
)

// Engine runs the proposal lifecycle against a Store. It keeps no state of
// its own between calls, so one Engine can serve every command handler.
type Engine struct {
	store Store
	// Now is the engine clock. Tests replace it.
	Now func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

// CreateProposal opens a new proposal that expires days from now.
func (e *Engine) CreateProposal(ctx context.Context, author, text string, options []string, days int) (*Proposal, error) {
	if days < MinDays || days > MaxDays {
		return nil, ErrInvalidDuration
	}
	if len(options) == 0 {
		return nil, ErrInvalidOptions
	}

	p := &Proposal{
		Author:     author,
		Text:       text,
		Options:    append([]string(nil), options...),
		Expiration: e.now().Add(time.Duration(days) * 24 * time.Hour),
		Status:     StatusOpen,
	}
	if err := e.store.CreateProposal(ctx, p); err != nil {
		return nil, storageError("create proposal", err)
	}
	return p, nil
}

// CastVote records author's first vote on a proposal.
func (e *Engine) CastVote(ctx context.Context, proposalID uint64, author string, choice int) (uint64, error) {
	var voteID uint64
	err := e.store.Transaction(ctx, func(tx Tx) error {
		p, err := openProposal(ctx, tx, proposalID)
		if err != nil {
			return err
		}

		existing, err := tx.FindVote(ctx, proposalID, author)
		switch {
		case err == nil && existing != nil:
			return ErrDuplicateVote
		case err != nil && !errors.Is(err, ErrRecordNotFound):
			return storageError("find vote", err)
		}

		if !p.ValidChoice(choice) {
			return ErrInvalidChoice
		}

		v := &Vote{Author: author, ProposalID: proposalID, Choice: choice}
		if err := tx.CreateVote(ctx, v); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				return ErrDuplicateVote
			}
			return storageError("create vote", err)
		}
		voteID = v.ID
		return nil
	})
	if err != nil {
		return 0, classify("cast vote", err)
	}
	return voteID, nil
}

// AmendVote changes the choice of author's existing vote. The vote keeps its id.
func (e *Engine) AmendVote(ctx context.Context, proposalID uint64, author string, newChoice int) (uint64, error) {
	var voteID uint64
	err := e.store.Transaction(ctx, func(tx Tx) error {
		p, err := openProposal(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		if !p.ValidChoice(newChoice) {
			return ErrInvalidChoice
		}

		v, err := tx.FindVote(ctx, proposalID, author)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return ErrVoteNotFound
			}
			return storageError("find vote", err)
		}
		if v == nil {
			return ErrVoteNotFound
		}

		v.Choice = newChoice
		if err := tx.UpdateVote(ctx, v); err != nil {
			return storageError("update vote", err)
		}
		voteID = v.ID
		return nil
	})
	if err != nil {
		return 0, classify("amend vote", err)
	}
	return voteID, nil
}

// ResolveExpired closes every open proposal whose expiration is at or before
// now and returns the proposals this call resolved. Each proposal is settled
// in its own transaction; a proposal that another sweep already closed is
// skipped. On a storage failure the proposals resolved so far are returned
// together with the error.
func (e *Engine) ResolveExpired(ctx context.Context, now time.Time) ([]Proposal, error) {
	due, err := e.store.ListDueProposals(ctx, StatusOpen, now.UTC())
	if err != nil {
		return nil, storageError("list due proposals", err)
	}

	resolved := make([]Proposal, 0, len(due))
	for _, candidate := range due {
		p, err := e.resolve(ctx, candidate.ID, now.UTC())
		if err != nil {
			return resolved, err
		}
		if p != nil {
			resolved = append(resolved, *p)
		}
	}
	return resolved, nil
}

func (e *Engine) resolve(ctx context.Context, id uint64, now time.Time) (*Proposal, error) {
	var out *Proposal
	err := e.store.Transaction(ctx, func(tx Tx) error {
		p, err := tx.GetProposal(ctx, id, true)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return nil
			}
			return storageError("get proposal", err)
		}
		if p.Status != StatusOpen || p.Expiration.After(now) {
			return nil
		}

		votes, err := tx.ListVotes(ctx, id)
		if err != nil {
			return storageError("list votes", err)
		}

		p.Status, p.Decision = Outcome(Count(votes))
		if err := tx.UpdateProposal(ctx, p); err != nil {
			return storageError("update proposal", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, classify("resolve proposal", err)
	}
	return out, nil
}

// GetProposal loads one proposal.
func (e *Engine) GetProposal(ctx context.Context, id uint64) (*Proposal, error) {
	p, err := e.store.GetProposal(ctx, id, false)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, storageError("get proposal", err)
	}
	return p, nil
}

// ListProposals returns proposals newest first; a nil status lists all of them.
func (e *Engine) ListProposals(ctx context.Context, status *Status) ([]Proposal, error) {
	list, err := e.store.ListProposals(ctx, status)
	if err != nil {
		return nil, storageError("list proposals", err)
	}
	return list, nil
}

// Tally returns the current vote count per choice.
func (e *Engine) Tally(ctx context.Context, id uint64) (map[int]int, error) {
	if _, err := e.GetProposal(ctx, id); err != nil {
		return nil, err
	}
	votes, err := e.store.ListVotes(ctx, id)
	if err != nil {
		return nil, storageError("list votes", err)
	}
	return Count(votes), nil
}

// openProposal loads and locks a proposal that must still accept votes.
func openProposal(ctx context.Context, tx Tx, id uint64) (*Proposal, error) {
	p, err := tx.GetProposal(ctx, id, true)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, storageError("get proposal", err)
	}
	if p.Status != StatusOpen {
		return nil, ErrProposalClosed
	}
	return p, nil
}

// classify keeps taxonomy errors as they are and turns anything else that
// escaped a transaction (commit failures, driver errors) into a StorageError.
func classify(op string, err error) error {
	if k := Kind(err); k != KindUnknown {
		return err
	}
	return storageError(op, err)
}
