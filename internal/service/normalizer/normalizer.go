// Package normalizer validates and repairs structured screening payloads
// against the AnalysisResult contract. Whatever a generative model returns
// is pushed through the same repair rules, so downstream consumers always
// receive a complete, well-typed record or a recoverable error that sends
// the caller to the deterministic engine.
package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/pkg/textx"
)

// Summary word-count contract.
const (
	summaryMinWords = 120
	summaryMaxWords = 170
)

// clarifyingSentence is appended when a summary falls short of the band.
// Summaries are never truncated when long.
const clarifyingSentence = " Further detail is available in the per-component score breakdown and the categorized pain points accompanying this result."

const fallbackPainPoint = "No specific gaps identified; needs further evaluation in interview"

// defaultSummary seeds a synthesized summary when the payload carried none.
const defaultSummary = "The candidate was evaluated against the supplied job description using the weighted screening rubric."

// repairRule is one composable per-field repair step. Rules only return an
// error for structurally unrecoverable input; missing optionals are
// repaired, never fatal.
type repairRule func(payload map[string]any, out *domain.AnalysisResult, fallbackProjects []domain.ProjectRecord) error

var rules = []repairRule{
	repairScore,
	repairPainPoints,
	repairSummary,
	repairStatus,
	repairProjects,
}

// Normalize parses an arbitrary generative payload and repairs it into a
// valid AnalysisResult. Errors wrap domain.ErrSchemaInvalid (missing
// structure) or domain.ErrRangeInvalid (non-numeric score); both mean
// "fall back to the deterministic engine".
func Normalize(raw []byte, fallbackProjects []domain.ProjectRecord) (domain.AnalysisResult, error) {
	js, ok := extractFirstJSONObject(string(raw))
	if !ok {
		return domain.AnalysisResult{}, fmt.Errorf("op=normalizer.parse: no JSON object found: %w", domain.ErrSchemaInvalid)
	}
	dec := json.NewDecoder(strings.NewReader(js))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("op=normalizer.parse: %v: %w", err, domain.ErrSchemaInvalid)
	}

	if missing := missingRequiredKeys(payload); len(missing) > 0 {
		return domain.AnalysisResult{}, fmt.Errorf("op=normalizer.schema: missing keys [%s]: %w",
			strings.Join(missing, ", "), domain.ErrSchemaInvalid)
	}

	var out domain.AnalysisResult
	out.Source = domain.SourceGenerative
	for _, rule := range rules {
		if err := rule(payload, &out, fallbackProjects); err != nil {
			return domain.AnalysisResult{}, err
		}
	}
	return out, nil
}

// Finalize applies the output-side guarantees (summary band, valid status,
// never-empty pain points) to an already-structured result. The
// deterministic path shares these rules so both paths honor one contract.
func Finalize(res *domain.AnalysisResult) {
	res.Score = clampInt(res.Score, 0, 100)
	if !res.Status.Valid() {
		res.Status = domain.StatusForScore(res.Score)
	}
	if strings.TrimSpace(res.Summary) == "" {
		res.Summary = defaultSummary
	}
	res.Summary = ensureSummaryBand(res.Summary)
	if res.PainPoints.Empty() {
		res.PainPoints.Minor = append(res.PainPoints.Minor, fallbackPainPoint)
	}
}

func missingRequiredKeys(payload map[string]any) []string {
	var missing []string
	for _, k := range []string{"score"} {
		if _, ok := payload[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// repairScore coerces score to an integer clamped to [0,100]. A
// non-numeric source type is a range violation, not repairable.
func repairScore(payload map[string]any, out *domain.AnalysisResult, _ []domain.ProjectRecord) error {
	v, err := toFloat(payload["score"])
	if err != nil {
		return fmt.Errorf("op=normalizer.score: %v: %w", err, domain.ErrRangeInvalid)
	}
	out.Score = clampInt(int(math.Round(v)), 0, 100)
	return nil
}

// repairPainPoints guarantees all three severity tiers exist as lists of
// non-empty strings, synthesizing an empty set when the source is not a
// mapping at all.
func repairPainPoints(payload map[string]any, out *domain.AnalysisResult, _ []domain.ProjectRecord) error {
	m, _ := payload["pain_points"].(map[string]any)
	out.PainPoints = domain.PainPoints{
		Critical: stringList(m["critical"]),
		Major:    stringList(m["major"]),
		Minor:    stringList(m["minor"]),
	}
	if out.PainPoints.Empty() {
		out.PainPoints.Minor = append(out.PainPoints.Minor, fallbackPainPoint)
	}
	return nil
}

// repairSummary guarantees a string within the word band; short summaries
// get the fixed clarifying sentence appended, long ones are left alone.
func repairSummary(payload map[string]any, out *domain.AnalysisResult, _ []domain.ProjectRecord) error {
	s, _ := payload["summary"].(string)
	s = textx.SanitizeText(s)
	if s == "" {
		s = defaultSummary
	}
	out.Summary = ensureSummaryBand(s)
	return nil
}

// repairStatus keeps a valid enum value and recomputes from score otherwise.
func repairStatus(payload map[string]any, out *domain.AnalysisResult, _ []domain.ProjectRecord) error {
	s, _ := payload["status"].(string)
	status := domain.Status(strings.TrimSpace(s))
	if !status.Valid() {
		status = domain.StatusForScore(out.Score)
	}
	out.Status = status
	return nil
}

// repairProjects guarantees every element carries all four fields,
// back-filling defaults, and substitutes the deterministic projects when
// the payload has none.
func repairProjects(payload map[string]any, out *domain.AnalysisResult, fallbackProjects []domain.ProjectRecord) error {
	list, ok := payload["projects"].([]any)
	if !ok || len(list) == 0 {
		out.Projects = fallbackProjects
		return nil
	}
	projects := make([]domain.ProjectRecord, 0, len(list))
	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		p := domain.ProjectRecord{
			Name:        stringOr(m["name"], fmt.Sprintf("Project %d", i+1)),
			Description: stringOr(m["description"], "No description provided"),
			Skills:      stringList(m["skills"]),
			Relevance:   stringOr(m["relevance"], "Not assessed"),
		}
		if p.Skills == nil {
			p.Skills = []string{}
		}
		projects = append(projects, p)
	}
	if len(projects) == 0 {
		projects = fallbackProjects
	}
	out.Projects = projects
	return nil
}

func ensureSummaryBand(s string) string {
	if textx.WordCount(s) < summaryMinWords && !strings.HasSuffix(s, strings.TrimSpace(clarifyingSentence)) {
		return s + clarifyingSentence
	}
	return s
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("score is %T, not numeric", v)
	}
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return textx.SanitizeText(s)
	}
	return def
}

// stringList keeps only non-empty strings from a decoded JSON array.
func stringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, el := range arr {
		if s, ok := el.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, textx.SanitizeText(s))
		}
	}
	return out
}

// extractFirstJSONObject returns the first balanced {...} span in s.
// Generative output routinely wraps JSON in markdown fences or prose.
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
