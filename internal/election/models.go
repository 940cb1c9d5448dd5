package election

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Position is an electable office ("President", "Treasurer", ...).
type Position struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Candidates []Candidate `gorm:"foreignKey:PositionID" json:"candidates,omitempty"`
}

func (Position) TableName() string {
	return "election.positions"
}

// Candidate runs for exactly one Position. VoteCount is a denormalized
// counter maintained inside the vote transaction; results views never trust
// it and recompute from vote rows instead.
type Candidate struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	PositionID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"position_id"`
	Image        string         `json:"image,omitempty"`
	Department   string         `json:"department,omitempty"`
	Year         string         `json:"year,omitempty"`
	Manifesto    string         `json:"manifesto,omitempty"`
	Achievements pq.StringArray `gorm:"type:text[]" json:"achievements,omitempty"`
	VoteCount    int64          `gorm:"not null;default:0" json:"vote_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Position Position `gorm:"foreignKey:PositionID" json:"-"`
}

func (Candidate) TableName() string {
	return "election.candidates"
}

// MaxAchievements caps the achievements list per candidate.
const MaxAchievements = 5

// Vote is immutable once created. The composite unique index on
// (voter_id, position_id) is the storage-level backstop for the
// one-vote-per-position rule.
type Vote struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PositionID  uuid.UUID `gorm:"type:uuid;not null;index:idx_votes_voter_position,unique,priority:2" json:"position_id"`
	CandidateID uuid.UUID `gorm:"type:uuid;not null;index" json:"candidate_id"`
	VoterID     uuid.UUID `gorm:"type:uuid;not null;index:idx_votes_voter_position,unique,priority:1" json:"voter_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Vote) TableName() string {
	return "election.votes"
}

// VoterIdentity maps an identity-provider user id to the internal voter id
// that vote rows reference. Created lazily on first ballot or eagerly by the
// identity webhook; either path goes through the same idempotent upsert.
type VoterIdentity struct {
	ExternalID string    `gorm:"primaryKey" json:"external_id"`
	InternalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"internal_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (VoterIdentity) TableName() string {
	return "election.voter_identities"
}
