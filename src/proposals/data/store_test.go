package data

import (
	"context"
	"errors"
	"testing"
	"time"

	shareddata "github.com/stake-plus/govproposals/src/data"
	"github.com/stake-plus/govproposals/src/proposals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := shareddata.ConnectSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return NewStore(db)
}

var now = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func create(t *testing.T, s *Store, expiration time.Time, options ...string) *proposals.Proposal {
	t.Helper()
	p := &proposals.Proposal{Author: "alice", Text: "texto", Options: options, Expiration: expiration, Status: proposals.StatusOpen}
	require.NoError(t, s.CreateProposal(context.Background(), p))
	return p
}

func TestProposalRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := create(t, s, now, "Sim, claro", "Não", `com "aspas"`)

	got, err := s.GetProposal(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sim, claro", "Não", `com "aspas"`}, got.Options)
	assert.Equal(t, proposals.StatusOpen, got.Status)
	assert.Nil(t, got.Decision)
	assert.True(t, now.Equal(got.Expiration))

	decision := 2
	got.Status, got.Decision = proposals.StatusSucceeded, &decision
	require.NoError(t, s.UpdateProposal(ctx, got))

	again, err := s.GetProposal(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, proposals.StatusSucceeded, again.Status)
	require.NotNil(t, again.Decision)
	assert.Equal(t, 2, *again.Decision)

	_, err = s.GetProposal(ctx, 999, false)
	assert.ErrorIs(t, err, proposals.ErrRecordNotFound)
	assert.ErrorIs(t, s.UpdateProposal(ctx, &proposals.Proposal{ID: 999}), proposals.ErrRecordNotFound)
}

func TestListQueries(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	late := create(t, s, now.Add(2*time.Hour), "A")
	early := create(t, s, now.Add(time.Hour), "A")
	future := create(t, s, now.Add(48*time.Hour), "A")
	closed := create(t, s, now, "A")
	closed.Status = proposals.StatusFailed
	require.NoError(t, s.UpdateProposal(ctx, closed))

	all, err := s.ListProposals(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, closed.ID, all[0].ID)

	open := proposals.StatusOpen
	openList, err := s.ListProposals(ctx, &open)
	require.NoError(t, err)
	assert.Len(t, openList, 3)

	due, err := s.ListDueProposals(ctx, proposals.StatusOpen, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early.ID, due[0].ID)
	assert.Equal(t, late.ID, due[1].ID)
	assert.NotEqual(t, future.ID, due[1].ID)
}

func TestVotes(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := create(t, s, now, "A", "B")

	v := &proposals.Vote{Author: "bob", ProposalID: p.ID, Choice: 1}
	require.NoError(t, s.CreateVote(ctx, v))
	assert.NotZero(t, v.ID)

	// the unique index rejects a second row for the same author
	err := s.CreateVote(ctx, &proposals.Vote{Author: "bob", ProposalID: p.ID, Choice: 2})
	assert.Error(t, err)

	require.NoError(t, s.CreateVote(ctx, &proposals.Vote{Author: "carol", ProposalID: p.ID, Choice: 2}))

	found, err := s.FindVote(ctx, p.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, v.ID, found.ID)

	found.Choice = 2
	require.NoError(t, s.UpdateVote(ctx, found))

	list, err := s.ListVotes(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bob", list[0].Author)
	assert.Equal(t, 2, list[0].Choice)

	_, err = s.FindVote(ctx, p.ID, "dave")
	assert.ErrorIs(t, err, proposals.ErrRecordNotFound)
	assert.ErrorIs(t, s.UpdateVote(ctx, &proposals.Vote{ID: 999, Choice: 1}), proposals.ErrRecordNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := create(t, s, now, "A")
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx proposals.Tx) error {
		if err := tx.CreateVote(ctx, &proposals.Vote{Author: "bob", ProposalID: p.ID, Choice: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := s.ListVotes(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
