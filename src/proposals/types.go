package proposals

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a proposal.
type Status uint8

const (
	StatusOpen      Status = 0
	StatusSucceeded Status = 1
	StatusFailed    Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool { return s == StatusSucceeded || s == StatusFailed }

// ParseStatus accepts the names returned by String.
func ParseStatus(v string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "open":
		return StatusOpen, true
	case "succeeded":
		return StatusSucceeded, true
	case "failed":
		return StatusFailed, true
	}
	return 0, false
}

// Proposal is a timed question with an ordered list of options.
// Option identity is the 1-based position in Options.
type Proposal struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Author     string    `gorm:"size:255;not null" json:"author"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	Options    []string  `gorm:"serializer:json;type:text;not null" json:"options"`
	Expiration time.Time `gorm:"not null;index:idx_proposals_status_expiration,priority:2" json:"expiration"`
	Status     Status    `gorm:"not null;default:0;index:idx_proposals_status_expiration,priority:1" json:"status"`
	Decision   *int      `json:"decision,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Proposal) TableName() string { return "proposals" }

// ValidChoice reports whether choice addresses one of the proposal's options.
func (p *Proposal) ValidChoice(choice int) bool {
	return choice >= 1 && choice <= len(p.Options)
}

// Option returns the text of a 1-based option.
func (p *Proposal) Option(choice int) (string, bool) {
	if !p.ValidChoice(choice) {
		return "", false
	}
	return p.Options[choice-1], true
}

// Vote is one author's choice on one proposal.
type Vote struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Author     string    `gorm:"size:255;not null;uniqueIndex:idx_votes_proposal_author,priority:2" json:"author"`
	ProposalID uint64    `gorm:"not null;uniqueIndex:idx_votes_proposal_author,priority:1" json:"proposal_id"`
	Choice     int       `gorm:"not null" json:"choice"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Vote) TableName() string { return "votes" }
