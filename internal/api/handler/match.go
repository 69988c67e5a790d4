package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/internal/api/response"
	"github.com/talentgrid/talentgrid/pkg/models"
)

// MatchStore is the store subset the match endpoint depends on.
type MatchStore interface {
	GetTalentProfile(ctx context.Context, userID uuid.UUID) (*models.TalentProfile, error)
	GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
}

// NewMatchHandler returns an http.HandlerFunc for GET /api/v1/match.
// The score is computed fresh on every call; nothing is persisted.
func NewMatchHandler(s MatchStore, scorer MatchScorer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		talentID, err := uuid.Parse(r.URL.Query().Get("talent_id"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "talent_id must be a valid UUID", nil)
			return
		}
		jobID, err := uuid.Parse(r.URL.Query().Get("job_id"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job_id must be a valid UUID", nil)
			return
		}

		talent, err := s.GetTalentProfile(r.Context(), talentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		job, err := s.GetJobPosting(r.Context(), jobID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		response.JSON(w, scorer.Score(*talent, *job))
	}
}
