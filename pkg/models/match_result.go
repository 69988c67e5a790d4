package models

// MatchResult is the derived compatibility score between one talent and one
// job posting. It is computed on demand and never persisted.
type MatchResult struct {
	Score     int            `json:"score"`
	Breakdown MatchBreakdown `json:"breakdown"`
}

// MatchBreakdown holds the three sub-scores, each 0-100, that combine into
// the final score by fixed weighting.
type MatchBreakdown struct {
	SkillsOverlap int `json:"skills_overlap"`
	LanguageMatch int `json:"language_match"`
	Readiness     int `json:"readiness"`
}
