package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentgrid/talentgrid/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Job Postings ---

func (s *PostgresStore) CreateJobPosting(ctx context.Context, job *models.JobPosting) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_postings (id, company_id, title, required_skills, required_languages, location, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.CompanyID, job.Title, job.RequiredSkills, job.RequiredLanguages,
		job.Location, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job posting: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	var j models.JobPosting
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, title, required_skills, required_languages, location, status, created_at, updated_at
		 FROM job_postings WHERE id = $1`, id,
	).Scan(&j.ID, &j.CompanyID, &j.Title, &j.RequiredSkills, &j.RequiredLanguages,
		&j.Location, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job posting: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) ListJobPostings(ctx context.Context, filter JobFilter) ([]*models.JobPosting, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.CompanyID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", argIdx))
		args = append(args, filter.CompanyID)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM job_postings WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count job postings: %w", err)
	}

	limit, offset := normalizePage(filter.Page, filter.Limit)
	dataQuery := fmt.Sprintf(
		`SELECT id, company_id, title, required_skills, required_languages, location, status, created_at, updated_at
		 FROM job_postings WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list job postings: %w", err)
	}
	defer rows.Close()

	var jobs []*models.JobPosting
	for rows.Next() {
		var j models.JobPosting
		if err := rows.Scan(&j.ID, &j.CompanyID, &j.Title, &j.RequiredSkills, &j.RequiredLanguages,
			&j.Location, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan job posting: %w", err)
		}
		jobs = append(jobs, &j)
	}
	return jobs, total, rows.Err()
}

func (s *PostgresStore) CloseJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	var j models.JobPosting
	err := s.pool.QueryRow(ctx,
		`UPDATE job_postings SET status = $2, updated_at = NOW() WHERE id = $1
		 RETURNING id, company_id, title, required_skills, required_languages, location, status, created_at, updated_at`,
		id, models.JobStatusClosed,
	).Scan(&j.ID, &j.CompanyID, &j.Title, &j.RequiredSkills, &j.RequiredLanguages,
		&j.Location, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("close job posting: %w", err)
	}
	return &j, nil
}

// --- Talent Profiles ---

func (s *PostgresStore) UpsertTalentProfile(ctx context.Context, profile *models.TalentProfile) (*models.TalentProfile, error) {
	var p models.TalentProfile
	err := s.pool.QueryRow(ctx,
		`INSERT INTO talent_profiles (user_id, skills, languages, years_of_experience, readiness_score, availability, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE SET
		   skills = EXCLUDED.skills,
		   languages = EXCLUDED.languages,
		   years_of_experience = EXCLUDED.years_of_experience,
		   readiness_score = EXCLUDED.readiness_score,
		   availability = EXCLUDED.availability,
		   updated_at = NOW()
		 RETURNING user_id, skills, languages, years_of_experience, readiness_score, availability, created_at, updated_at`,
		profile.UserID, profile.Skills, profile.Languages, profile.YearsOfExperience,
		profile.ReadinessScore, profile.Availability, profile.CreatedAt, profile.UpdatedAt,
	).Scan(&p.UserID, &p.Skills, &p.Languages, &p.YearsOfExperience,
		&p.ReadinessScore, &p.Availability, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert talent profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) GetTalentProfile(ctx context.Context, userID uuid.UUID) (*models.TalentProfile, error) {
	var p models.TalentProfile
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, skills, languages, years_of_experience, readiness_score, availability, created_at, updated_at
		 FROM talent_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Skills, &p.Languages, &p.YearsOfExperience,
		&p.ReadinessScore, &p.Availability, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get talent profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListTalentProfiles(ctx context.Context, filter TalentFilter) ([]*models.TalentProfile, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.AvailableOnly {
		conditions = append(conditions, "availability = TRUE")
	}
	if filter.Skill != "" {
		// Skill tags are matched case-insensitively, same rule as the scorer.
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(skills) sk WHERE LOWER(sk) = LOWER($%d))", argIdx))
		args = append(args, filter.Skill)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM talent_profiles WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count talent profiles: %w", err)
	}

	limit, offset := normalizePage(filter.Page, filter.Limit)
	dataQuery := fmt.Sprintf(
		`SELECT user_id, skills, languages, years_of_experience, readiness_score, availability, created_at, updated_at
		 FROM talent_profiles WHERE %s ORDER BY readiness_score DESC, user_id LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list talent profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.TalentProfile
	for rows.Next() {
		var p models.TalentProfile
		if err := rows.Scan(&p.UserID, &p.Skills, &p.Languages, &p.YearsOfExperience,
			&p.ReadinessScore, &p.Availability, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan talent profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	return profiles, total, rows.Err()
}

// --- Applications ---

func (s *PostgresStore) CreateApplication(ctx context.Context, app *models.Application) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO applications (id, job_id, talent_id, stage, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		app.ID, app.JobID, app.TalentID, app.Stage, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var a models.Application
	err := s.pool.QueryRow(ctx,
		`SELECT id, job_id, talent_id, stage, created_at, updated_at
		 FROM applications WHERE id = $1`, id,
	).Scan(&a.ID, &a.JobID, &a.TalentID, &a.Stage, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListApplicationsByJob(ctx context.Context, filter ApplicationFilter) ([]*models.Application, int, error) {
	conditions := []string{"job_id = $1"}
	args := []any{filter.JobID}
	argIdx := 2

	if filter.Stage != "" {
		conditions = append(conditions, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, filter.Stage)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM applications WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	limit, offset := normalizePage(filter.Page, filter.Limit)
	dataQuery := fmt.Sprintf(
		`SELECT id, job_id, talent_id, stage, created_at, updated_at
		 FROM applications WHERE %s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		var a models.Application
		if err := rows.Scan(&a.ID, &a.JobID, &a.TalentID, &a.Stage, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, &a)
	}
	return apps, total, rows.Err()
}

// UpdateApplicationStage writes the new stage and refreshes updated_at in a
// single statement. updated_at must strictly increase even when two updates
// land inside the same transaction timestamp, hence the GREATEST guard.
func (s *PostgresStore) UpdateApplicationStage(ctx context.Context, id uuid.UUID, stage models.Stage) (*models.Application, error) {
	var a models.Application
	err := s.pool.QueryRow(ctx,
		`UPDATE applications
		 SET stage = $2,
		     updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		 WHERE id = $1
		 RETURNING id, job_id, talent_id, stage, created_at, updated_at`,
		id, stage,
	).Scan(&a.ID, &a.JobID, &a.TalentID, &a.Stage, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update application stage: %w", err)
	}
	return &a, nil
}

// normalizePage clamps pagination inputs to sane bounds.
func normalizePage(page, limit int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
