package election

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
)

// WinnerResult is the outcome of a position's tally. More than one candidate
// id means a tie at VoteCount votes; an empty set means the position has no
// candidates at all.
type WinnerResult struct {
	CandidateIDs []uuid.UUID `json:"candidate_ids"`
	VoteCount    int64       `json:"vote_count"`
	Tie          bool        `json:"tie"`
}

// CountsByCandidate recomputes per-candidate counts from vote rows. Every
// candidate of the position appears, zero included; the denormalized
// vote_count column is not consulted.
func (s *Service) CountsByCandidate(ctx context.Context, positionID uuid.UUID) (map[uuid.UUID]int64, error) {
	var candidateIDs []uuid.UUID
	err := s.db.WithContext(ctx).Model(&Candidate{}).
		Where("position_id = ?", positionID).
		Pluck("id", &candidateIDs).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list position candidates", Err: err}
	}

	counts := make(map[uuid.UUID]int64, len(candidateIDs))
	for _, id := range candidateIDs {
		counts[id] = 0
	}

	var rows []struct {
		CandidateID uuid.UUID
		N           int64
	}
	err = s.db.WithContext(ctx).Model(&Vote{}).
		Select("candidate_id, count(*) as n").
		Where("position_id = ?", positionID).
		Group("candidate_id").
		Scan(&rows).Error
	if err != nil {
		return nil, &PersistenceError{Op: "count votes", Err: err}
	}

	for _, row := range rows {
		counts[row.CandidateID] = row.N
	}
	return counts, nil
}

// Winner computes the max-count candidate set for a position. Equal maximal
// counts are all reported; callers render ties distinctly and never pick one.
// A zero-vote position with candidates is an explicit zero-count tie across
// all of them, which is different from a position with no candidates.
func (s *Service) Winner(ctx context.Context, positionID uuid.UUID) (WinnerResult, error) {
	counts, err := s.CountsByCandidate(ctx, positionID)
	if err != nil {
		return WinnerResult{}, err
	}
	if len(counts) == 0 {
		return WinnerResult{CandidateIDs: []uuid.UUID{}}, nil
	}

	var max int64 = -1
	for _, n := range counts {
		if n > max {
			max = n
		}
	}

	winners := make([]uuid.UUID, 0, 1)
	for id, n := range counts {
		if n == max {
			winners = append(winners, id)
		}
	}
	// Stable order for a fixed set of vote rows.
	sort.Slice(winners, func(i, j int) bool {
		return bytes.Compare(winners[i][:], winners[j][:]) < 0
	})

	return WinnerResult{
		CandidateIDs: winners,
		VoteCount:    max,
		Tie:          len(winners) > 1,
	}, nil
}
