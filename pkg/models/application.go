package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies a column in the applicant pipeline.
type Stage string

const (
	StageApplied   Stage = "APPLIED"
	StageScreen    Stage = "SCREEN"
	StageInterview Stage = "INTERVIEW"
	StageOffer     Stage = "OFFER"
	StageHired     Stage = "HIRED"
	StageRejected  Stage = "REJECTED"
)

// Application links one talent to one job posting. Its stage is mutated
// only through the pipeline engine; job_id and talent_id are immutable
// after creation.
type Application struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	JobID     uuid.UUID `db:"job_id"     json:"job_id"`
	TalentID  uuid.UUID `db:"talent_id"  json:"talent_id"`
	Stage     Stage     `db:"stage"      json:"stage"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
