package data

import (
	"context"
	"errors"
	"time"

	"github.com/stake-plus/govproposals/src/proposals"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ proposals.Store = (*Store)(nil)

// Store persists proposals and votes through gorm. The same type serves as
// the transaction handle: inside Transaction it wraps the gorm tx.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the proposals and votes tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&proposals.Proposal{}, &proposals.Vote{})
}

func (s *Store) Transaction(ctx context.Context, fn func(tx proposals.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateProposal(ctx context.Context, p *proposals.Proposal) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) GetProposal(ctx context.Context, id uint64, forUpdate bool) (*proposals.Proposal, error) {
	q := s.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p proposals.Proposal
	if err := q.First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) UpdateProposal(ctx context.Context, p *proposals.Proposal) error {
	res := s.db.WithContext(ctx).
		Model(&proposals.Proposal{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"status":     p.Status,
			"decision":   p.Decision,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return proposals.ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListProposals(ctx context.Context, status *proposals.Status) ([]proposals.Proposal, error) {
	q := s.db.WithContext(ctx).Order("id DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var list []proposals.Proposal
	if err := q.Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *Store) ListDueProposals(ctx context.Context, status proposals.Status, before time.Time) ([]proposals.Proposal, error) {
	var list []proposals.Proposal
	err := s.db.WithContext(ctx).
		Where("status = ? AND expiration <= ?", status, before).
		Order("expiration ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *Store) CreateVote(ctx context.Context, v *proposals.Vote) error {
	return translate(s.db.WithContext(ctx).Create(v).Error)
}

func (s *Store) UpdateVote(ctx context.Context, v *proposals.Vote) error {
	res := s.db.WithContext(ctx).
		Model(&proposals.Vote{}).
		Where("id = ?", v.ID).
		Updates(map[string]interface{}{
			"choice":     v.Choice,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return proposals.ErrRecordNotFound
	}
	return nil
}

func (s *Store) FindVote(ctx context.Context, proposalID uint64, author string) (*proposals.Vote, error) {
	var v proposals.Vote
	err := s.db.WithContext(ctx).
		Where("proposal_id = ? AND author = ?", proposalID, author).
		First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *Store) ListVotes(ctx context.Context, proposalID uint64) ([]proposals.Vote, error) {
	var votes []proposals.Vote
	if err := s.db.WithContext(ctx).Where("proposal_id = ?", proposalID).Order("id ASC").Find(&votes).Error; err != nil {
		return nil, translate(err)
	}
	return votes, nil
}

// translate maps gorm's not-found and unique-violation errors onto the store
// contract. The connection must be opened with TranslateError for the latter.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return proposals.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return proposals.ErrDuplicateKey
	default:
		return err
	}
}
