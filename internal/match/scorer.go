// Package match computes the compatibility score between one talent profile
// and one job posting. Scoring is a pure function: same inputs, same result,
// no persistence and no side effects.
package match

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/talentgrid/talentgrid/pkg/models"
	"gopkg.in/yaml.v3"
)

// Weights combine the three sub-scores into the final score. They must be
// non-negative and sum to 1.0.
//
// The defaults below are this implementation's documented constants: skill
// coverage dominates, readiness reflects coaching progress, language fit
// rounds it out.
type Weights struct {
	Skills    float64 `yaml:"skills"`
	Language  float64 `yaml:"language"`
	Readiness float64 `yaml:"readiness"`
}

// DefaultWeights returns the built-in weighting: 0.5 skills, 0.2 language,
// 0.3 readiness.
func DefaultWeights() Weights {
	return Weights{Skills: 0.5, Language: 0.2, Readiness: 0.3}
}

const weightSumTolerance = 1e-9

// Validate checks that the weights are non-negative and sum to 1.0.
func (w Weights) Validate() error {
	if w.Skills < 0 || w.Language < 0 || w.Readiness < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", w)
	}
	if sum := w.Skills + w.Language + w.Readiness; math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %g", sum)
	}
	return nil
}

// LoadWeights reads a YAML weights file. An empty path returns the defaults.
func LoadWeights(path string) (Weights, error) {
	if path == "" {
		return DefaultWeights(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read weights file: %w", err)
	}

	w := DefaultWeights()
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return Weights{}, fmt.Errorf("parse weights file: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Scorer computes match scores with a fixed weighting.
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer, rejecting invalid weights.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Score computes the 0-100 compatibility of talent against job. A job with
// neither required skills nor required languages is degenerate and scores
// zero with an empty breakdown.
func (s *Scorer) Score(talent models.TalentProfile, job models.JobPosting) models.MatchResult {
	if len(job.RequiredSkills) == 0 && len(job.RequiredLanguages) == 0 {
		return models.MatchResult{}
	}

	breakdown := models.MatchBreakdown{
		SkillsOverlap: skillsOverlapScore(talent.Skills, job.RequiredSkills),
		LanguageMatch: languageMatchScore(talent.Languages, job.RequiredLanguages),
		Readiness:     clampScore(talent.ReadinessScore),
	}

	weighted := s.weights.Skills*float64(breakdown.SkillsOverlap) +
		s.weights.Language*float64(breakdown.LanguageMatch) +
		s.weights.Readiness*float64(breakdown.Readiness)

	return models.MatchResult{
		Score:     clampScore(int(math.Round(weighted))),
		Breakdown: breakdown,
	}
}

// skillsOverlapScore is the percentage of required skills present in the
// talent's skill set. Tags match on case-insensitive equality after
// trimming; integer division keeps 2-of-3 at 66.
func skillsOverlapScore(talentSkills, requiredSkills []string) int {
	if len(requiredSkills) == 0 {
		return 0
	}

	have := make(map[string]struct{}, len(talentSkills))
	for _, skill := range talentSkills {
		have[normalizeTag(skill)] = struct{}{}
	}

	matched := 0
	for _, required := range requiredSkills {
		if _, ok := have[normalizeTag(required)]; ok {
			matched++
		}
	}
	return matched * 100 / len(requiredSkills)
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
