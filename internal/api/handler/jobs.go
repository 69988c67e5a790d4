package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/internal/api/response"
	"github.com/talentgrid/talentgrid/internal/cache"
	"github.com/talentgrid/talentgrid/internal/store"
	"github.com/talentgrid/talentgrid/pkg/models"
)

const jobListTTL = 30 * time.Second

// JobStore is the store subset the job posting handlers depend on.
type JobStore interface {
	CreateJobPosting(ctx context.Context, job *models.JobPosting) error
	GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	ListJobPostings(ctx context.Context, filter store.JobFilter) ([]*models.JobPosting, int, error)
	CloseJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
}

// Jobs bundles the job posting endpoints. Listings are cached briefly in
// Redis since the catalog is read far more often than it changes.
type Jobs struct {
	store JobStore
	cache cache.Cache
}

func NewJobs(s JobStore, c cache.Cache) *Jobs {
	return &Jobs{store: s, cache: c}
}

// Create handles POST /api/v1/jobs.
func (h *Jobs) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID         string   `json:"company_id"`
		Title             string   `json:"title"`
		RequiredSkills    []string `json:"required_skills"`
		RequiredLanguages []string `json:"required_languages"`
		Location          string   `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "company_id must be a valid UUID", nil)
		return
	}
	if req.Title == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "title is required", nil)
		return
	}

	now := time.Now().UTC()
	job := &models.JobPosting{
		ID:                uuid.New(),
		CompanyID:         companyID,
		Title:             req.Title,
		RequiredSkills:    emptyIfNil(req.RequiredSkills),
		RequiredLanguages: emptyIfNil(req.RequiredLanguages),
		Location:          req.Location,
		Status:            models.JobStatusOpen,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := h.store.CreateJobPosting(r.Context(), job); err != nil {
		writeDomainError(w, err)
		return
	}

	h.invalidateListings(r.Context())
	response.Created(w, job)
}

// Get handles GET /api/v1/jobs/{jobID}.
func (h *Jobs) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
		return
	}

	job, err := h.store.GetJobPosting(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, job)
}

type jobListPayload struct {
	Jobs  []*models.JobPosting `json:"jobs"`
	Total int                  `json:"total"`
}

// List handles GET /api/v1/jobs.
func (h *Jobs) List(w http.ResponseWriter, r *http.Request) {
	filter := store.JobFilter{
		Status: r.URL.Query().Get("status"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
	}
	if raw := r.URL.Query().Get("company_id"); raw != "" {
		companyID, err := uuid.Parse(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "company_id must be a valid UUID", nil)
			return
		}
		filter.CompanyID = companyID
	}
	if filter.Status != "" && filter.Status != models.JobStatusOpen && filter.Status != models.JobStatusClosed {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "status must be OPEN or CLOSED", nil)
		return
	}

	key := cache.JobListKey(filter.CompanyID, filter.Status, filter.Page, filter.Limit)
	if raw, found, err := h.cache.Get(r.Context(), key); err == nil && found {
		var payload jobListPayload
		if json.Unmarshal(raw, &payload) == nil {
			response.Collection(w, payload.Jobs,
				response.NewPaginationMeta(filter.Page, filter.Limit, payload.Total))
			return
		}
	}

	jobs, total, err := h.store.ListJobPostings(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if raw, err := json.Marshal(jobListPayload{Jobs: jobs, Total: total}); err == nil {
		// Cache failures are ignored; the listing is served either way.
		_ = h.cache.Set(r.Context(), key, raw, jobListTTL)
	}

	response.Collection(w, jobs, response.NewPaginationMeta(filter.Page, filter.Limit, total))
}

// Close handles POST /api/v1/jobs/{jobID}/close.
func (h *Jobs) Close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
		return
	}

	job, err := h.store.CloseJobPosting(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.invalidateListings(r.Context())
	response.JSON(w, job)
}

func (h *Jobs) invalidateListings(ctx context.Context) {
	_ = h.cache.DeletePrefix(ctx, cache.JobListPrefix())
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
