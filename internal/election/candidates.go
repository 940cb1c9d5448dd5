package election

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CandidateInput carries admin-supplied candidate fields. Pointer fields on
// update mean "leave unchanged"; a nil achievements list is also unchanged.
type CandidateInput struct {
	Name         string   `json:"name"`
	PositionID   string   `json:"position_id"`
	Image        *string  `json:"image"`
	Department   *string  `json:"department"`
	Year         *string  `json:"year"`
	Manifesto    *string  `json:"manifesto"`
	Achievements []string `json:"achievements"`
}

func trimmedOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// ErrUnknownPosition reports a candidate referencing a position that does not
// exist. No placeholder position is created for it.
var ErrUnknownPosition = errors.New("position does not exist")

// ErrTooManyAchievements reports an achievements list over the cap.
var ErrTooManyAchievements = errors.New("too many achievements")

// ErrCandidateHasVotes blocks candidate deletes that would orphan vote rows.
var ErrCandidateHasVotes = errors.New("candidate has recorded votes")

// CandidatesFor lists a position's candidates, most-voted first.
func (s *Service) CandidatesFor(ctx context.Context, positionID uuid.UUID) ([]Candidate, error) {
	var candidates []Candidate
	err := s.db.WithContext(ctx).
		Where("position_id = ?", positionID).
		Order("vote_count DESC, name").
		Find(&candidates).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list candidates", Err: err}
	}
	return candidates, nil
}

func (s *Service) CreateCandidate(ctx context.Context, input CandidateInput) (Candidate, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Candidate{}, rejected(ReasonMalformedInput)
	}
	positionID, err := uuid.Parse(input.PositionID)
	if err != nil {
		return Candidate{}, rejected(ReasonMalformedInput)
	}
	if len(input.Achievements) > MaxAchievements {
		return Candidate{}, ErrTooManyAchievements
	}

	var candidate Candidate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var position Position
		if err := tx.First(&position, "id = ?", positionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownPosition
			}
			return &PersistenceError{Op: "check position", Err: err}
		}

		candidate = Candidate{
			ID:           uuid.New(),
			Name:         name,
			PositionID:   positionID,
			Image:        trimmedOrEmpty(input.Image),
			Department:   trimmedOrEmpty(input.Department),
			Year:         trimmedOrEmpty(input.Year),
			Manifesto:    trimmedOrEmpty(input.Manifesto),
			Achievements: pq.StringArray(input.Achievements),
		}
		if err := tx.Create(&candidate).Error; err != nil {
			return &PersistenceError{Op: "create candidate", Err: err}
		}
		return nil
	})
	if err != nil {
		return Candidate{}, err
	}
	return candidate, nil
}

// UpdateCandidate edits bio fields. Moving a candidate to another position is
// deliberately unsupported once created; votes reference the pair.
func (s *Service) UpdateCandidate(ctx context.Context, id uuid.UUID, input CandidateInput) (Candidate, error) {
	if len(input.Achievements) > MaxAchievements {
		return Candidate{}, ErrTooManyAchievements
	}

	var candidate Candidate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&candidate, "id = ?", id).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if input.Image != nil {
			updates["image"] = strings.TrimSpace(*input.Image)
		}
		if input.Department != nil {
			updates["department"] = strings.TrimSpace(*input.Department)
		}
		if input.Year != nil {
			updates["year"] = strings.TrimSpace(*input.Year)
		}
		if input.Manifesto != nil {
			updates["manifesto"] = strings.TrimSpace(*input.Manifesto)
		}
		if name := strings.TrimSpace(input.Name); name != "" {
			updates["name"] = name
		}
		if input.Achievements != nil {
			updates["achievements"] = pq.StringArray(input.Achievements)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&candidate).Updates(updates).Error; err != nil {
			return &PersistenceError{Op: "update candidate", Err: err}
		}
		return nil
	})
	if err != nil {
		return Candidate{}, err
	}
	return candidate, nil
}

func (s *Service) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidate Candidate
		if err := tx.First(&candidate, "id = ?", id).Error; err != nil {
			return err
		}

		var votes int64
		if err := tx.Model(&Vote{}).Where("candidate_id = ?", id).Count(&votes).Error; err != nil {
			return &PersistenceError{Op: "count candidate votes", Err: err}
		}
		if votes > 0 {
			return ErrCandidateHasVotes
		}

		if err := tx.Delete(&candidate).Error; err != nil {
			return &PersistenceError{Op: "delete candidate", Err: err}
		}
		return nil
	})
}
