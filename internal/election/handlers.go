package election

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/CampusElect/CE-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[election] encode response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Expected rejections get
// their reason verbatim; infrastructure failures are logged and answered with
// a generic retry message.
func writeError(w http.ResponseWriter, err error) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		status := http.StatusBadRequest
		switch rej.Reason {
		case ReasonAlreadyVoted:
			status = http.StatusConflict
		case ReasonInvalidCandidate:
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{"error": string(rej.Reason)})
		return
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ErrTitleTaken):
		http.Error(w, "Position title already in use", http.StatusConflict)
	case errors.Is(err, ErrUnknownPosition):
		http.Error(w, "Position does not exist", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrTooManyAchievements):
		http.Error(w, "At most 5 achievements per candidate", http.StatusBadRequest)
	case errors.Is(err, ErrPositionHasVotes), errors.Is(err, ErrCandidateHasVotes):
		http.Error(w, "Votes have been recorded; delete refused", http.StatusConflict)
	default:
		log.Printf("[election] %v", err)
		http.Error(w, "Something went wrong, try again", http.StatusInternalServerError)
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func (h *Handler) ListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.svc.ActivePositions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (h *Handler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	position, err := h.svc.CreatePosition(r.Context(), input.Title, input.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, position)
}

func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "position_id")
	if !ok {
		http.Error(w, "Invalid position id", http.StatusBadRequest)
		return
	}

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Active      *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	position, err := h.svc.UpdatePosition(r.Context(), id, input.Title, input.Description, input.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, position)
}

func (h *Handler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "position_id")
	if !ok {
		http.Error(w, "Invalid position id", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeletePosition(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "position_id")
	if !ok {
		http.Error(w, "Invalid position id", http.StatusBadRequest)
		return
	}
	if _, err := h.svc.PositionByID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	candidates, err := h.svc.CandidatesFor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *Handler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var input CandidateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	candidate, err := h.svc.CreateCandidate(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, candidate)
}

func (h *Handler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "candidate_id")
	if !ok {
		http.Error(w, "Invalid candidate id", http.StatusBadRequest)
		return
	}

	var input CandidateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	candidate, err := h.svc.UpdateCandidate(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func (h *Handler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "candidate_id")
	if !ok {
		http.Error(w, "Invalid candidate id", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteCandidate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CastVote is the one write path voters have. The session user id doubles as
// the external identity; the resolver turns it into the internal voter id.
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	var input struct {
		PositionID  string `json:"position_id"`
		CandidateID string `json:"candidate_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	voterID, err := h.svc.ResolveVoter(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	voteID, err := h.svc.CastVote(r.Context(), voterID, input.PositionID, input.CandidateID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"vote_id": voteID.String(),
		"message": "Vote recorded successfully",
	})
}

func (h *Handler) MyVotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	voterID, err := h.svc.ResolveVoter(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	positions, err := h.svc.VotedPositions(r.Context(), voterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"position_ids": positions})
}

// candidateCount pairs a candidate with its derived tally for results views.
type candidateCount struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Name        string    `json:"name"`
	Votes       int64     `json:"votes"`
}

func (h *Handler) resultRows(r *http.Request, positionID uuid.UUID) ([]candidateCount, error) {
	counts, err := h.svc.CountsByCandidate(r.Context(), positionID)
	if err != nil {
		return nil, err
	}
	candidates, err := h.svc.CandidatesFor(r.Context(), positionID)
	if err != nil {
		return nil, err
	}

	rows := make([]candidateCount, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, candidateCount{
			CandidateID: c.ID,
			Name:        c.Name,
			Votes:       counts[c.ID],
		})
	}
	return rows, nil
}

func (h *Handler) PositionResults(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "position_id")
	if !ok {
		http.Error(w, "Invalid position id", http.StatusBadRequest)
		return
	}
	position, err := h.svc.PositionByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.resultRows(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"position_id": position.ID,
		"title":       position.Title,
		"counts":      rows,
	})
}

func (h *Handler) PositionWinner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "position_id")
	if !ok {
		http.Error(w, "Invalid position id", http.StatusBadRequest)
		return
	}
	if _, err := h.svc.PositionByID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.Winner(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AllResults backs the results page: every active position with its winner
// set, tie flag, and full counts.
func (h *Handler) AllResults(w http.ResponseWriter, r *http.Request) {
	positions, err := h.svc.ActivePositions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type positionResult struct {
		PositionID uuid.UUID        `json:"position_id"`
		Title      string           `json:"title"`
		Winner     WinnerResult     `json:"winner"`
		Counts     []candidateCount `json:"counts"`
	}

	results := make([]positionResult, 0, len(positions))
	for _, p := range positions {
		winner, err := h.svc.Winner(r.Context(), p.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		rows, err := h.resultRows(r, p.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		results = append(results, positionResult{
			PositionID: p.ID,
			Title:      p.Title,
			Winner:     winner,
			Counts:     rows,
		})
	}
	writeJSON(w, http.StatusOK, results)
}
