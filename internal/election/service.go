package election

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service owns all election reads and writes. It takes the database handle
// explicitly so tests can run it against a throwaway database.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// ActivePositions lists the positions currently open for voting.
func (s *Service) ActivePositions(ctx context.Context) ([]Position, error) {
	var positions []Position
	err := s.db.WithContext(ctx).Where("active = ?", true).Order("title").Find(&positions).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list positions", Err: err}
	}
	return positions, nil
}

// PositionByID returns gorm.ErrRecordNotFound when the id is unknown.
func (s *Service) PositionByID(ctx context.Context, id uuid.UUID) (Position, error) {
	var position Position
	err := s.db.WithContext(ctx).First(&position, "id = ?", id).Error
	return position, err
}

// CreatePosition enforces the unique-title invariant against the active set,
// comparing normalized forms so "president" and "Président " collide the way
// an administrator would expect.
func (s *Service) CreatePosition(ctx context.Context, title, description string) (Position, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Position{}, rejected(ReasonMalformedInput)
	}

	var position Position
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := titleTaken(tx, title, uuid.Nil)
		if err != nil {
			return &PersistenceError{Op: "check position title", Err: err}
		}
		if taken {
			return ErrTitleTaken
		}

		position = Position{
			ID:          uuid.New(),
			Title:       title,
			Description: strings.TrimSpace(description),
			Active:      true,
		}
		if err := tx.Create(&position).Error; err != nil {
			return &PersistenceError{Op: "create position", Err: err}
		}
		return nil
	})
	if err != nil {
		return Position{}, err
	}
	return position, nil
}

// ErrTitleTaken reports a title collision within the active position set.
var ErrTitleTaken = errors.New("position title already in use")

func titleTaken(tx *gorm.DB, title string, excludeID uuid.UUID) (bool, error) {
	var existing []Position
	if err := tx.Select("id", "title").Where("active = ?", true).Find(&existing).Error; err != nil {
		return false, err
	}
	want := normalizeTitle(title)
	for _, p := range existing {
		if p.ID != excludeID && normalizeTitle(p.Title) == want {
			return true, nil
		}
	}
	return false, nil
}

// UpdatePosition applies the provided non-nil fields.
func (s *Service) UpdatePosition(ctx context.Context, id uuid.UUID, title, description *string, active *bool) (Position, error) {
	var position Position
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&position, "id = ?", id).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if title != nil {
			t := strings.TrimSpace(*title)
			if t == "" {
				return rejected(ReasonMalformedInput)
			}
			taken, err := titleTaken(tx, t, id)
			if err != nil {
				return &PersistenceError{Op: "check position title", Err: err}
			}
			if taken {
				return ErrTitleTaken
			}
			updates["title"] = t
		}
		if description != nil {
			updates["description"] = strings.TrimSpace(*description)
		}
		if active != nil {
			updates["active"] = *active
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&position).Updates(updates).Error; err != nil {
			return &PersistenceError{Op: "update position", Err: err}
		}
		return nil
	})
	if err != nil {
		return Position{}, err
	}
	return position, nil
}

// ErrPositionHasVotes blocks deletes that would erase recorded ballots.
var ErrPositionHasVotes = errors.New("position has recorded votes")

// DeletePosition removes a position and its candidates, but refuses once any
// vote has been cast: tallies never silently disappear.
func (s *Service) DeletePosition(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var position Position
		if err := tx.First(&position, "id = ?", id).Error; err != nil {
			return err
		}

		var votes int64
		if err := tx.Model(&Vote{}).Where("position_id = ?", id).Count(&votes).Error; err != nil {
			return &PersistenceError{Op: "count position votes", Err: err}
		}
		if votes > 0 {
			return ErrPositionHasVotes
		}

		if err := tx.Where("position_id = ?", id).Delete(&Candidate{}).Error; err != nil {
			return &PersistenceError{Op: "delete position candidates", Err: err}
		}
		if err := tx.Delete(&position).Error; err != nil {
			return &PersistenceError{Op: "delete position", Err: err}
		}
		return nil
	})
}
