package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/internal/api/response"
	"github.com/talentgrid/talentgrid/internal/pipeline"
	"github.com/talentgrid/talentgrid/internal/store"
	"github.com/talentgrid/talentgrid/pkg/models"
)

// ApplicationStore is the store subset the application handlers depend on.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListApplicationsByJob(ctx context.Context, filter store.ApplicationFilter) ([]*models.Application, int, error)
	GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	GetTalentProfile(ctx context.Context, userID uuid.UUID) (*models.TalentProfile, error)
}

// Transitioner applies a validated stage move. *pipeline.Engine satisfies it.
type Transitioner interface {
	ApplyTransition(ctx context.Context, applicationID uuid.UUID, target models.Stage) (*models.Application, error)
}

// MatchScorer computes a talent/job compatibility score.
type MatchScorer interface {
	Score(talent models.TalentProfile, job models.JobPosting) models.MatchResult
}

// Applications bundles the application endpoints.
type Applications struct {
	store  ApplicationStore
	engine Transitioner
	scorer MatchScorer
}

func NewApplications(s ApplicationStore, engine Transitioner, scorer MatchScorer) *Applications {
	return &Applications{store: s, engine: engine, scorer: scorer}
}

// Create handles POST /api/v1/applications.
func (h *Applications) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID    string `json:"job_id"`
		TalentID string `json:"talent_id"`
		Stage    string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job_id must be a valid UUID", nil)
		return
	}
	talentID, err := uuid.Parse(req.TalentID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "talent_id must be a valid UUID", nil)
		return
	}

	stage := models.StageApplied
	if req.Stage != "" {
		stage, err = pipeline.ParseStage(req.Stage)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	// Referenced records must exist before the insert so the caller gets a
	// 404 instead of a foreign-key violation.
	if _, err := h.store.GetJobPosting(r.Context(), jobID); err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := h.store.GetTalentProfile(r.Context(), talentID); err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now().UTC()
	app := &models.Application{
		ID:        uuid.New(),
		JobID:     jobID,
		TalentID:  talentID,
		Stage:     stage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateApplication(r.Context(), app); err != nil {
		writeDomainError(w, err)
		return
	}

	response.Created(w, app)
}

// Get handles GET /api/v1/applications/{appID}.
func (h *Applications) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "appID must be a valid UUID", nil)
		return
	}

	app, err := h.store.GetApplication(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, app)
}

// applicationCard is one candidate card in a job's pipeline listing; the
// match annotation is omitted when scoring inputs could not be loaded.
type applicationCard struct {
	*models.Application
	Match *models.MatchResult `json:"match,omitempty"`
}

// ListByJob handles GET /api/v1/jobs/{jobID}/applications.
func (h *Applications) ListByJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
		return
	}

	filter := store.ApplicationFilter{
		JobID: jobID,
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 20),
	}
	if raw := r.URL.Query().Get("stage"); raw != "" {
		stage, err := pipeline.ParseStage(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		filter.Stage = stage
	}

	job, err := h.store.GetJobPosting(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	apps, total, err := h.store.ListApplicationsByJob(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cards := make([]applicationCard, 0, len(apps))
	for _, app := range apps {
		card := applicationCard{Application: app}
		// A failed score lookup omits the badge, never the card.
		if talent, err := h.store.GetTalentProfile(r.Context(), app.TalentID); err == nil {
			result := h.scorer.Score(*talent, *job)
			card.Match = &result
		}
		cards = append(cards, card)
	}

	response.Collection(w, cards, response.NewPaginationMeta(filter.Page, filter.Limit, total))
}

// Transition handles POST /api/v1/applications/{appID}/transition.
func (h *Applications) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "appID must be a valid UUID", nil)
		return
	}

	var req struct {
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Stage == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "stage is required", nil)
		return
	}

	app, err := h.engine.ApplyTransition(r.Context(), id, models.Stage(req.Stage))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, app)
}

// queryInt parses an integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
