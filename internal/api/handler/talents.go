package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/internal/api/response"
	"github.com/talentgrid/talentgrid/internal/store"
	"github.com/talentgrid/talentgrid/pkg/models"
)

// TalentStore is the store subset the talent profile handlers depend on.
type TalentStore interface {
	UpsertTalentProfile(ctx context.Context, profile *models.TalentProfile) (*models.TalentProfile, error)
	GetTalentProfile(ctx context.Context, userID uuid.UUID) (*models.TalentProfile, error)
	ListTalentProfiles(ctx context.Context, filter store.TalentFilter) ([]*models.TalentProfile, int, error)
}

// Talents bundles the talent profile endpoints.
type Talents struct {
	store TalentStore
}

func NewTalents(s TalentStore) *Talents {
	return &Talents{store: s}
}

// Upsert handles PUT /api/v1/talents/{userID}. Profiles come from the intake
// flow as a whole document, so create and update share one endpoint.
func (h *Talents) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "userID must be a valid UUID", nil)
		return
	}

	var req struct {
		Skills            []string `json:"skills"`
		Languages         []string `json:"languages"`
		YearsOfExperience int      `json:"years_of_experience"`
		ReadinessScore    int      `json:"readiness_score"`
		Availability      bool     `json:"availability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.YearsOfExperience < 0 {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "years_of_experience must be non-negative", nil)
		return
	}
	if req.ReadinessScore < 0 || req.ReadinessScore > 100 {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "readiness_score must be between 0 and 100", nil)
		return
	}

	now := time.Now().UTC()
	profile, err := h.store.UpsertTalentProfile(r.Context(), &models.TalentProfile{
		UserID:            userID,
		Skills:            emptyIfNil(req.Skills),
		Languages:         emptyIfNil(req.Languages),
		YearsOfExperience: req.YearsOfExperience,
		ReadinessScore:    req.ReadinessScore,
		Availability:      req.Availability,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, profile)
}

// Get handles GET /api/v1/talents/{userID}.
func (h *Talents) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "userID must be a valid UUID", nil)
		return
	}

	profile, err := h.store.GetTalentProfile(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, profile)
}

// List handles GET /api/v1/talents.
func (h *Talents) List(w http.ResponseWriter, r *http.Request) {
	filter := store.TalentFilter{
		AvailableOnly: r.URL.Query().Get("available") == "true",
		Skill:         r.URL.Query().Get("skill"),
		Page:          queryInt(r, "page", 1),
		Limit:         queryInt(r, "limit", 20),
	}

	profiles, total, err := h.store.ListTalentProfiles(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.Collection(w, profiles, response.NewPaginationMeta(filter.Page, filter.Limit, total))
}
