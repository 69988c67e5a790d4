package models

import (
	"time"

	"github.com/google/uuid"
)

// TalentProfile is a candidate's skill sheet. ReadinessScore is written by
// the external coaching pipeline and is only read here.
type TalentProfile struct {
	UserID            uuid.UUID `db:"user_id"             json:"user_id"`
	Skills            []string  `db:"skills"              json:"skills"`
	Languages         []string  `db:"languages"           json:"languages"`
	YearsOfExperience int       `db:"years_of_experience" json:"years_of_experience"`
	ReadinessScore    int       `db:"readiness_score"     json:"readiness_score"`
	Availability      bool      `db:"availability"        json:"availability"`
	CreatedAt         time.Time `db:"created_at"          json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"          json:"updated_at"`
}
