package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusOpen   = "OPEN"
	JobStatusClosed = "CLOSED"
)

// JobPosting is a company's open position. RequiredLanguages carries tags
// like "German B2" that the match scorer checks against talent languages.
type JobPosting struct {
	ID                uuid.UUID `db:"id"                 json:"id"`
	CompanyID         uuid.UUID `db:"company_id"         json:"company_id"`
	Title             string    `db:"title"              json:"title"`
	RequiredSkills    []string  `db:"required_skills"    json:"required_skills"`
	RequiredLanguages []string  `db:"required_languages" json:"required_languages"`
	Location          string    `db:"location"           json:"location"`
	Status            string    `db:"status"             json:"status"`
	CreatedAt         time.Time `db:"created_at"         json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"         json:"updated_at"`
}
