package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/internal/store"
	"github.com/talentgrid/talentgrid/pkg/models"
	"github.com/stretchr/testify/require"
)

// stubStore is an in-memory store.Store used to exercise the handlers
// without a database.
type stubStore struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*models.JobPosting
	talents  map[uuid.UUID]*models.TalentProfile
	apps     map[uuid.UUID]*models.Application
	appOrder []uuid.UUID

	listJobsErr error
	updateErr   error
}

func newStubStore() *stubStore {
	return &stubStore{
		jobs:    make(map[uuid.UUID]*models.JobPosting),
		talents: make(map[uuid.UUID]*models.TalentProfile),
		apps:    make(map[uuid.UUID]*models.Application),
	}
}

func (s *stubStore) Ping(context.Context) error { return nil }

func (s *stubStore) CreateJobPosting(ctx context.Context, job *models.JobPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *stubStore) GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *stubStore) ListJobPostings(ctx context.Context, filter store.JobFilter) ([]*models.JobPosting, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listJobsErr != nil {
		return nil, 0, s.listJobsErr
	}
	var out []*models.JobPosting
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.CompanyID != uuid.Nil && job.CompanyID != filter.CompanyID {
			continue
		}
		copied := *job
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (s *stubStore) CloseJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	job.Status = models.JobStatusClosed
	job.UpdatedAt = time.Now().UTC()
	copied := *job
	return &copied, nil
}

func (s *stubStore) UpsertTalentProfile(ctx context.Context, profile *models.TalentProfile) (*models.TalentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.talents[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	}
	s.talents[profile.UserID] = profile
	copied := *profile
	return &copied, nil
}

func (s *stubStore) GetTalentProfile(ctx context.Context, userID uuid.UUID) (*models.TalentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.talents[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (s *stubStore) ListTalentProfiles(ctx context.Context, filter store.TalentFilter) ([]*models.TalentProfile, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.TalentProfile
	for _, profile := range s.talents {
		if filter.AvailableOnly && !profile.Availability {
			continue
		}
		copied := *profile
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (s *stubStore) CreateApplication(ctx context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.apps {
		if existing.JobID == app.JobID && existing.TalentID == app.TalentID {
			return store.ErrDuplicateKey
		}
	}
	s.apps[app.ID] = app
	s.appOrder = append(s.appOrder, app.ID)
	return nil
}

func (s *stubStore) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (s *stubStore) ListApplicationsByJob(ctx context.Context, filter store.ApplicationFilter) ([]*models.Application, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Application
	for _, id := range s.appOrder {
		app := s.apps[id]
		if app.JobID != filter.JobID {
			continue
		}
		if filter.Stage != "" && app.Stage != filter.Stage {
			continue
		}
		copied := *app
		matched = append(matched, &copied)
	}

	total := len(matched)
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *stubStore) UpdateApplicationStage(ctx context.Context, id uuid.UUID, stage models.Stage) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	app, ok := s.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	app.Stage = stage
	app.UpdatedAt = time.Now().UTC()
	copied := *app
	return &copied, nil
}

// memCache is an in-memory cache.Cache for handler tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }

func (c *memCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}

func (c *memCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// doJSON issues a request against the handler router and decodes the body.
func doJSON(t *testing.T, h http.Handler, method, target string, body io.Reader) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "body: %s", rec.Body.String())
	}
	return rec, decoded
}

func seedJob(t *testing.T, s *stubStore, skills, languages []string) *models.JobPosting {
	t.Helper()
	now := time.Now().UTC()
	job := &models.JobPosting{
		ID:                uuid.New(),
		CompanyID:         uuid.New(),
		Title:             "SAP FI Consultant",
		RequiredSkills:    skills,
		RequiredLanguages: languages,
		Location:          "Berlin",
		Status:            models.JobStatusOpen,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, s.CreateJobPosting(context.Background(), job))
	return job
}

func seedTalent(t *testing.T, s *stubStore, skills, languages []string, readiness int) *models.TalentProfile {
	t.Helper()
	now := time.Now().UTC()
	profile := &models.TalentProfile{
		UserID:            uuid.New(),
		Skills:            skills,
		Languages:         languages,
		YearsOfExperience: 4,
		ReadinessScore:    readiness,
		Availability:      true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	_, err := s.UpsertTalentProfile(context.Background(), profile)
	require.NoError(t, err)
	return profile
}

func seedApplication(t *testing.T, s *stubStore, jobID, talentID uuid.UUID, stage models.Stage) *models.Application {
	t.Helper()
	now := time.Now().UTC()
	app := &models.Application{
		ID:        uuid.New(),
		JobID:     jobID,
		TalentID:  talentID,
		Stage:     stage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateApplication(context.Background(), app))
	return app
}
