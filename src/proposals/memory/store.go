// Package memory keeps proposals and votes in process memory, for tests and
// for embedding the engine without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stake-plus/govproposals/src/proposals"
)

var _ proposals.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	state state
}

type state struct {
	proposals      map[uint64]proposals.Proposal
	votes          map[uint64]proposals.Vote
	nextProposalID uint64
	nextVoteID     uint64
}

func NewStore() *Store {
	return &Store{state: state{
		proposals:      make(map[uint64]proposals.Proposal),
		votes:          make(map[uint64]proposals.Vote),
		nextProposalID: 1,
		nextVoteID:     1,
	}}
}

// Transaction holds the store lock for the whole callback, which serialises
// every transaction. On error the state from before fn is restored.
func (s *Store) Transaction(ctx context.Context, fn func(tx proposals.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&s.state); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) CreateProposal(ctx context.Context, p *proposals.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CreateProposal(ctx, p)
}

func (s *Store) GetProposal(ctx context.Context, id uint64, forUpdate bool) (*proposals.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.GetProposal(ctx, id, forUpdate)
}

func (s *Store) UpdateProposal(ctx context.Context, p *proposals.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UpdateProposal(ctx, p)
}

func (s *Store) ListProposals(ctx context.Context, status *proposals.Status) ([]proposals.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ListProposals(ctx, status)
}

func (s *Store) ListDueProposals(ctx context.Context, status proposals.Status, before time.Time) ([]proposals.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ListDueProposals(ctx, status, before)
}

func (s *Store) CreateVote(ctx context.Context, v *proposals.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CreateVote(ctx, v)
}

func (s *Store) UpdateVote(ctx context.Context, v *proposals.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UpdateVote(ctx, v)
}

func (s *Store) FindVote(ctx context.Context, proposalID uint64, author string) (*proposals.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.FindVote(ctx, proposalID, author)
}

func (s *Store) ListVotes(ctx context.Context, proposalID uint64) ([]proposals.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ListVotes(ctx, proposalID)
}

// state methods assume the caller holds Store.mu.

func (st *state) clone() state {
	out := state{
		proposals:      make(map[uint64]proposals.Proposal, len(st.proposals)),
		votes:          make(map[uint64]proposals.Vote, len(st.votes)),
		nextProposalID: st.nextProposalID,
		nextVoteID:     st.nextVoteID,
	}
	for id, p := range st.proposals {
		out.proposals[id] = copyProposal(p)
	}
	for id, v := range st.votes {
		out.votes[id] = v
	}
	return out
}

func (st *state) CreateProposal(_ context.Context, p *proposals.Proposal) error {
	now := time.Now().UTC()
	p.ID = st.nextProposalID
	st.nextProposalID++
	p.CreatedAt, p.UpdatedAt = now, now
	st.proposals[p.ID] = copyProposal(*p)
	return nil
}

func (st *state) GetProposal(_ context.Context, id uint64, _ bool) (*proposals.Proposal, error) {
	p, ok := st.proposals[id]
	if !ok {
		return nil, proposals.ErrRecordNotFound
	}
	out := copyProposal(p)
	return &out, nil
}

func (st *state) UpdateProposal(_ context.Context, p *proposals.Proposal) error {
	if _, ok := st.proposals[p.ID]; !ok {
		return proposals.ErrRecordNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	st.proposals[p.ID] = copyProposal(*p)
	return nil
}

func (st *state) ListProposals(_ context.Context, status *proposals.Status) ([]proposals.Proposal, error) {
	out := make([]proposals.Proposal, 0, len(st.proposals))
	for _, p := range st.proposals {
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, copyProposal(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (st *state) ListDueProposals(_ context.Context, status proposals.Status, before time.Time) ([]proposals.Proposal, error) {
	var out []proposals.Proposal
	for _, p := range st.proposals {
		if p.Status == status && !p.Expiration.After(before) {
			out = append(out, copyProposal(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Expiration.Equal(out[j].Expiration) {
			return out[i].ID < out[j].ID
		}
		return out[i].Expiration.Before(out[j].Expiration)
	})
	return out, nil
}

func (st *state) CreateVote(_ context.Context, v *proposals.Vote) error {
	for _, existing := range st.votes {
		if existing.ProposalID == v.ProposalID && existing.Author == v.Author {
			return proposals.ErrDuplicateKey
		}
	}
	now := time.Now().UTC()
	v.ID = st.nextVoteID
	st.nextVoteID++
	v.CreatedAt, v.UpdatedAt = now, now
	st.votes[v.ID] = *v
	return nil
}

func (st *state) UpdateVote(_ context.Context, v *proposals.Vote) error {
	if _, ok := st.votes[v.ID]; !ok {
		return proposals.ErrRecordNotFound
	}
	v.UpdatedAt = time.Now().UTC()
	st.votes[v.ID] = *v
	return nil
}

func (st *state) FindVote(_ context.Context, proposalID uint64, author string) (*proposals.Vote, error) {
	for _, v := range st.votes {
		if v.ProposalID == proposalID && v.Author == author {
			out := v
			return &out, nil
		}
	}
	return nil, proposals.ErrRecordNotFound
}

func (st *state) ListVotes(_ context.Context, proposalID uint64) ([]proposals.Vote, error) {
	var out []proposals.Vote
	for _, v := range st.votes {
		if v.ProposalID == proposalID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyProposal(p proposals.Proposal) proposals.Proposal {
	p.Options = append([]string(nil), p.Options...)
	if p.Decision != nil {
		d := *p.Decision
		p.Decision = &d
	}
	return p
}
