package match

import "strings"

// Language tags look like "German B2" or "English C1": a language name
// followed by an optional CEFR level. "Native" and "Fluent" are accepted
// where a level would be.
type languageTag struct {
	name  string // lower-cased language name
	level int    // proficiency rank, see levelRanks
}

var levelRanks = map[string]int{
	"A1":     1,
	"A2":     2,
	"B1":     3,
	"B2":     4,
	"C1":     5,
	"C2":     6,
	"FLUENT": 6,
	"NATIVE": 7,
}

const (
	// Requirements without an explicit level mean "working proficiency".
	defaultRequiredLevel = 3 // B1
	// Talent tags without a level are taken at face value as fluent;
	// people listing a bare language name are typically native speakers.
	defaultTalentLevel = 6 // C2
)

// parseLanguageTag splits a tag into name and proficiency rank. The level is
// the last whitespace-separated token when it is a known level; everything
// before it is the language name.
func parseLanguageTag(raw string, defaultLevel int) (languageTag, bool) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return languageTag{}, false
	}

	level := defaultLevel
	last := strings.ToUpper(fields[len(fields)-1])
	if rank, ok := levelRanks[last]; ok && len(fields) > 1 {
		level = rank
		fields = fields[:len(fields)-1]
	}

	return languageTag{
		name:  strings.ToLower(strings.Join(fields, " ")),
		level: level,
	}, true
}

// languageMatchScore is the percentage of required languages the talent
// speaks at or above the required level. No requirements means a full score
// so the axis stays neutral in the weighted sum.
func languageMatchScore(talentLanguages, requiredLanguages []string) int {
	required := make([]languageTag, 0, len(requiredLanguages))
	for _, raw := range requiredLanguages {
		if tag, ok := parseLanguageTag(raw, defaultRequiredLevel); ok {
			required = append(required, tag)
		}
	}
	if len(required) == 0 {
		return 100
	}

	spoken := make(map[string]int, len(talentLanguages))
	for _, raw := range talentLanguages {
		tag, ok := parseLanguageTag(raw, defaultTalentLevel)
		if !ok {
			continue
		}
		if tag.level > spoken[tag.name] {
			spoken[tag.name] = tag.level
		}
	}

	matched := 0
	for _, req := range required {
		if spoken[req.name] >= req.level {
			matched++
		}
	}
	return matched * 100 / len(required)
}
