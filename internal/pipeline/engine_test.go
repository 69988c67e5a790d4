package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/internal/events"
	"github.com/talentgrid/talentgrid/internal/pipeline"
	"github.com/talentgrid/talentgrid/internal/store"
	"github.com/talentgrid/talentgrid/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps applications in memory and satisfies store.Store.
type fakeStore struct {
	mu      sync.Mutex
	apps    map[uuid.UUID]*models.Application
	failPut bool
}

func newFakeStore(apps ...*models.Application) *fakeStore {
	fs := &fakeStore{apps: make(map[uuid.UUID]*models.Application)}
	for _, app := range apps {
		fs.apps[app.ID] = app
	}
	return fs
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) CreateJobPosting(context.Context, *models.JobPosting) error { return nil }
func (f *fakeStore) GetJobPosting(context.Context, uuid.UUID) (*models.JobPosting, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) ListJobPostings(context.Context, store.JobFilter) ([]*models.JobPosting, int, error) {
	return nil, 0, nil
}
func (f *fakeStore) CloseJobPosting(context.Context, uuid.UUID) (*models.JobPosting, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpsertTalentProfile(context.Context, *models.TalentProfile) (*models.TalentProfile, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) GetTalentProfile(context.Context, uuid.UUID) (*models.TalentProfile, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) ListTalentProfiles(context.Context, store.TalentFilter) ([]*models.TalentProfile, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) CreateApplication(ctx context.Context, app *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps[app.ID] = app
	return nil
}

func (f *fakeStore) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (f *fakeStore) ListApplicationsByJob(context.Context, store.ApplicationFilter) ([]*models.Application, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) UpdateApplicationStage(ctx context.Context, id uuid.UUID, stage models.Stage) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return nil, errors.New("write failed")
	}
	app, ok := f.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	app.Stage = stage
	app.UpdatedAt = app.UpdatedAt.Add(time.Microsecond)
	copied := *app
	return &copied, nil
}

// capturingPublisher records published events and signals on a channel so
// tests can wait for the fire-and-forget dispatch.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.StageChanged
	seen   chan struct{}
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{seen: make(chan struct{}, 16)}
}

func (p *capturingPublisher) PublishStageChanged(ctx context.Context, ev events.StageChanged) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	p.seen <- struct{}{}
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) published() []events.StageChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.StageChanged, len(p.events))
	copy(out, p.events)
	return out
}

func (p *capturingPublisher) wait(t *testing.T) {
	t.Helper()
	select {
	case <-p.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stage-changed event")
	}
}

type noopNotifier struct{}

func (noopNotifier) Invoke(context.Context, string, any) (json.RawMessage, error) {
	return nil, nil
}

func newApp(stage models.Stage) *models.Application {
	now := time.Now().UTC()
	return &models.Application{
		ID:        uuid.New(),
		JobID:     uuid.New(),
		TalentID:  uuid.New(),
		Stage:     stage,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStages_OrderIsStable(t *testing.T) {
	expected := []models.Stage{
		models.StageApplied,
		models.StageScreen,
		models.StageInterview,
		models.StageOffer,
		models.StageHired,
		models.StageRejected,
	}
	assert.Equal(t, expected, pipeline.Stages())
}

func TestStages_ReturnsCopy(t *testing.T) {
	first := pipeline.Stages()
	first[0] = models.StageHired
	assert.Equal(t, models.StageApplied, pipeline.Stages()[0])
}

func TestParseStage(t *testing.T) {
	cases := []struct {
		raw     string
		want    models.Stage
		wantErr bool
	}{
		{"APPLIED", models.StageApplied, false},
		{"screen", models.StageScreen, false},
		{"  Interview ", models.StageInterview, false},
		{"OFFER", models.StageOffer, false},
		{"hired", models.StageHired, false},
		{"REJECTED", models.StageRejected, false},
		{"", "", true},
		{"ARCHIVED", "", true},
		{"APPLIEDD", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := pipeline.ParseStage(tc.raw)
			if tc.wantErr {
				assert.ErrorIs(t, err, pipeline.ErrInvalidStage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyTransition_MovesApplication(t *testing.T) {
	app := newApp(models.StageApplied)
	fs := newFakeStore(app)
	engine := pipeline.NewEngine(fs, noopNotifier{}, events.NoopPublisher{})

	updated, err := engine.ApplyTransition(context.Background(), app.ID, models.StageScreen)
	require.NoError(t, err)
	assert.Equal(t, models.StageScreen, updated.Stage)
	assert.True(t, updated.UpdatedAt.After(app.CreatedAt))

	stored, err := fs.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageScreen, stored.Stage)
}

func TestApplyTransition_AnyStageToAnyStage(t *testing.T) {
	// Backwards moves and moves out of terminal stages are all legal.
	hops := []models.Stage{
		models.StageInterview,
		models.StageApplied,
		models.StageHired,
		models.StageScreen,
		models.StageRejected,
		models.StageOffer,
	}

	app := newApp(models.StageApplied)
	fs := newFakeStore(app)
	engine := pipeline.NewEngine(fs, noopNotifier{}, events.NoopPublisher{})

	for _, target := range hops {
		updated, err := engine.ApplyTransition(context.Background(), app.ID, target)
		require.NoError(t, err, "move to %s", target)
		assert.Equal(t, target, updated.Stage)
	}
}

func TestApplyTransition_RejectsUnknownStage(t *testing.T) {
	app := newApp(models.StageApplied)
	fs := newFakeStore(app)
	engine := pipeline.NewEngine(fs, noopNotifier{}, events.NoopPublisher{})

	_, err := engine.ApplyTransition(context.Background(), app.ID, models.Stage("ARCHIVED"))
	assert.ErrorIs(t, err, pipeline.ErrInvalidStage)

	stored, err := fs.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageApplied, stored.Stage)
}

func TestApplyTransition_UnknownApplication(t *testing.T) {
	fs := newFakeStore()
	engine := pipeline.NewEngine(fs, noopNotifier{}, events.NoopPublisher{})

	_, err := engine.ApplyTransition(context.Background(), uuid.New(), models.StageScreen)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyTransition_WriteFailureLeavesStageUnchanged(t *testing.T) {
	app := newApp(models.StageScreen)
	fs := newFakeStore(app)
	fs.failPut = true
	engine := pipeline.NewEngine(fs, noopNotifier{}, events.NoopPublisher{})

	_, err := engine.ApplyTransition(context.Background(), app.ID, models.StageOffer)
	require.Error(t, err)

	fs.failPut = false
	stored, err := fs.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageScreen, stored.Stage)
}

func TestApplyTransition_PublishesStageChanged(t *testing.T) {
	app := newApp(models.StageApplied)
	fs := newFakeStore(app)
	pub := newCapturingPublisher()
	engine := pipeline.NewEngine(fs, noopNotifier{}, pub)

	_, err := engine.ApplyTransition(context.Background(), app.ID, models.StageInterview)
	require.NoError(t, err)
	pub.wait(t)

	got := pub.published()
	require.Len(t, got, 1)
	assert.Equal(t, app.ID, got[0].ApplicationID)
	assert.Equal(t, app.JobID, got[0].JobID)
	assert.Equal(t, models.StageApplied, got[0].FromStage)
	assert.Equal(t, models.StageInterview, got[0].ToStage)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestApplyTransition_SameStageDoesNotPublish(t *testing.T) {
	app := newApp(models.StageScreen)
	fs := newFakeStore(app)
	pub := newCapturingPublisher()
	engine := pipeline.NewEngine(fs, noopNotifier{}, pub)

	updated, err := engine.ApplyTransition(context.Background(), app.ID, models.StageScreen)
	require.NoError(t, err)
	assert.Equal(t, models.StageScreen, updated.Stage)

	select {
	case <-pub.seen:
		t.Fatal("no event expected for a same-stage transition")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestApplyTransition_NormalizesStageCase(t *testing.T) {
	app := newApp(models.StageApplied)
	fs := newFakeStore(app)
	engine := pipeline.NewEngine(fs, noopNotifier{}, events.NoopPublisher{})

	updated, err := engine.ApplyTransition(context.Background(), app.ID, models.Stage("offer"))
	require.NoError(t, err)
	assert.Equal(t, models.StageOffer, updated.Stage)
}
