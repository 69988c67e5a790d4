package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateJobPosting(ctx context.Context, job *models.JobPosting) error
	GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	ListJobPostings(ctx context.Context, filter JobFilter) ([]*models.JobPosting, int, error)
	CloseJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)

	UpsertTalentProfile(ctx context.Context, profile *models.TalentProfile) (*models.TalentProfile, error)
	GetTalentProfile(ctx context.Context, userID uuid.UUID) (*models.TalentProfile, error)
	ListTalentProfiles(ctx context.Context, filter TalentFilter) ([]*models.TalentProfile, int, error)

	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListApplicationsByJob(ctx context.Context, filter ApplicationFilter) ([]*models.Application, int, error)
	UpdateApplicationStage(ctx context.Context, id uuid.UUID, stage models.Stage) (*models.Application, error)
}

type JobFilter struct {
	CompanyID uuid.UUID
	Status    string
	Page      int
	Limit     int
}

type TalentFilter struct {
	AvailableOnly bool
	Skill         string
	Page          int
	Limit         int
}

type ApplicationFilter struct {
	JobID uuid.UUID
	Stage models.Stage
	Page  int
	Limit int
}
