package election

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func parseBallot(positionID, candidateID string) (uuid.UUID, uuid.UUID, error) {
	pid, err := uuid.Parse(positionID)
	if err != nil {
		return uuid.Nil, uuid.Nil, rejected(ReasonMalformedInput)
	}
	cid, err := uuid.Parse(candidateID)
	if err != nil {
		return uuid.Nil, uuid.Nil, rejected(ReasonMalformedInput)
	}
	return pid, cid, nil
}

// validateBallot is the pure read-and-decide step. It must run on the same
// transaction as the insert that follows, otherwise the check races other
// submissions from the same voter.
func validateBallot(tx *gorm.DB, voterID, positionID, candidateID uuid.UUID) error {
	var candidate Candidate
	err := tx.Select("id", "position_id").First(&candidate, "id = ?", candidateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rejected(ReasonInvalidCandidate)
	}
	if err != nil {
		return &PersistenceError{Op: "look up candidate", Err: err}
	}
	if candidate.PositionID != positionID {
		// Candidate exists but runs for a different position.
		return rejected(ReasonInvalidCandidate)
	}

	var count int64
	err = tx.Model(&Vote{}).
		Where("voter_id = ? AND position_id = ?", voterID, positionID).
		Count(&count).Error
	if err != nil {
		return &PersistenceError{Op: "check existing vote", Err: err}
	}
	if count > 0 {
		return rejected(ReasonAlreadyVoted)
	}
	return nil
}

// ValidateBallot answers whether a vote would be accepted, without writing
// anything. The ballot UI uses it to grey out positions already voted on;
// CastVote re-runs the same checks inside its transaction.
func (s *Service) ValidateBallot(ctx context.Context, voterID uuid.UUID, positionID, candidateID string) error {
	pid, cid, err := parseBallot(positionID, candidateID)
	if err != nil {
		return err
	}
	return validateBallot(s.db.WithContext(ctx), voterID, pid, cid)
}

// CastVote validates and records one ballot atomically: the eligibility
// check, the vote insert, and the counter increment commit or fail together.
// A duplicate-key rejection from the (voter_id, position_id) index means a
// concurrent request won; that is reported as the same already_voted outcome
// the check produces, so client retries are safe.
func (s *Service) CastVote(ctx context.Context, voterID uuid.UUID, positionID, candidateID string) (uuid.UUID, error) {
	pid, cid, err := parseBallot(positionID, candidateID)
	if err != nil {
		return uuid.Nil, err
	}

	voteID := uuid.New()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateBallot(tx, voterID, pid, cid); err != nil {
			return err
		}

		vote := Vote{
			ID:          voteID,
			PositionID:  pid,
			CandidateID: cid,
			VoterID:     voterID,
		}
		if err := tx.Create(&vote).Error; err != nil {
			if isDuplicateKey(err) {
				return &RejectedError{Reason: ReasonAlreadyVoted, cause: ErrDuplicateVote}
			}
			return &PersistenceError{Op: "insert vote", Err: err}
		}

		// Counter increment happens in the database, never as
		// read-then-add-then-write through the client.
		res := tx.Model(&Candidate{}).
			Where("id = ?", cid).
			UpdateColumn("vote_count", gorm.Expr("vote_count + 1"))
		if res.Error != nil {
			return &PersistenceError{Op: "increment vote count", Err: res.Error}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return voteID, nil
}

// VotedPositions returns the ids of positions the voter has already voted
// for, so ballots can be rendered with those positions closed.
func (s *Service) VotedPositions(ctx context.Context, voterID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&Vote{}).
		Where("voter_id = ?", voterID).
		Order("created_at").
		Pluck("position_id", &ids).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list voted positions", Err: err}
	}
	return ids, nil
}
