// Package scoring implements the deterministic screening engine: the
// project-weighted 70/10/10/10 score, the experience-pattern cascade, and
// the pain-point classifier. It is the fallback of record whenever the
// generative path is unavailable or returns malformed output, so every
// computation here is pure and reproducible.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/internal/service/resumeparse"
	"github.com/hirelens/screener/internal/service/taxonomy"
)

// Component weights. The project-weighted formula is canonical; the legacy
// additive variant is intentionally not blended in.
const (
	projectWeight    = 70.0
	technicalWeight  = 10.0
	preferredWeight  = 10.0
	experienceWeight = 10.0

	// shortfallPenalty is subtracted per missing year of required experience
	// on top of the proportional reduction.
	shortfallPenalty = 2.0
)

// Facts are the intermediate match/gap observations the classifier consumes.
// The classifier works from these, never from the raw text.
type Facts struct {
	Mandatory        []string
	Preferred        []string
	MatchedMandatory []string
	MissingMandatory []string
	MissingPreferred []string
	RequiredYears    int
	CandidateYears   int
	Breakdown        domain.ScoreBreakdown
}

// Engine computes score breakdowns from already-materialized inputs.
type Engine struct{}

// NewEngine constructs a scoring engine.
func NewEngine() Engine { return Engine{} }

// Score evaluates a resume against the extracted skill sets and required
// years of experience. It returns the weighted breakdown, the projects with
// their relevance annotations written back, and the facts for the
// pain-point classifier.
func (Engine) Score(resumeText string, projects []domain.ProjectRecord, skills domain.SkillSet, requiredYears int) (domain.ScoreBreakdown, []domain.ProjectRecord, Facts) {
	projectSkills := unionSkills(projects)
	projectPool := strings.Join(projectSkills, "\n")

	// Project component (weight 70): mandatory skills covered by any project.
	var matched, missing []string
	for _, m := range skills.Mandatory {
		if taxonomy.MatchesSkill(projectPool, m) {
			matched = append(matched, m)
		} else {
			missing = append(missing, m)
		}
	}
	projectScore := 0.0
	if len(skills.Mandatory) > 0 {
		// An empty mandatory set contributes 0, not 70; guarding the
		// denominator alone would still inflate nothing since matched is 0.
		projectScore = projectWeight * float64(len(matched)) / float64(len(skills.Mandatory))
	}

	// Technical component (weight 10): declared skills not already counted
	// as project skills, matched against the mandatory set.
	declared := resumeparse.DeclaredSkills(resumeText)
	technical := subtractSkills(declared, projectSkills)
	technicalPool := strings.Join(technical, "\n")
	techMatched := 0
	for _, m := range skills.Mandatory {
		if taxonomy.MatchesSkill(technicalPool, m) {
			techMatched++
		}
	}
	technicalScore := technicalWeight * float64(techMatched) / float64(maxInt(len(skills.Mandatory), 1))

	// Preferred component (weight 10): preferred skills against the union of
	// project and technical skills.
	combinedPool := projectPool + "\n" + technicalPool
	prefMatched := 0
	var missingPref []string
	for _, p := range skills.Preferred {
		if taxonomy.MatchesSkill(combinedPool, p) {
			prefMatched++
		} else {
			missingPref = append(missingPref, p)
		}
	}
	preferredScore := preferredWeight * float64(prefMatched) / float64(maxInt(len(skills.Preferred), 1))

	// Experience component (weight 10). Extraction failure maps to zero
	// years, never to a propagated error.
	candidateYears, _ := ExtractYears(resumeText)
	experienceScore := experienceComponent(candidateYears, requiredYears)

	total := projectScore + technicalScore + preferredScore + experienceScore
	breakdown := domain.ScoreBreakdown{
		ProjectScore:    round2(projectScore),
		TechnicalScore:  round2(technicalScore),
		PreferredScore:  round2(preferredScore),
		ExperienceScore: round2(experienceScore),
		Total:           int(math.Round(clamp(total, 0, 100))),
	}

	annotated := annotateRelevance(projects, skills.Mandatory)

	facts := Facts{
		Mandatory:        skills.Mandatory,
		Preferred:        skills.Preferred,
		MatchedMandatory: matched,
		MissingMandatory: missing,
		MissingPreferred: missingPref,
		RequiredYears:    requiredYears,
		CandidateYears:   candidateYears,
		Breakdown:        breakdown,
	}
	return breakdown, annotated, facts
}

// experienceComponent awards the full weight when no experience is required,
// otherwise scales proportionally and penalizes shortfall beyond that.
func experienceComponent(candidateYears, requiredYears int) float64 {
	if requiredYears <= 0 {
		return experienceWeight
	}
	score := math.Min(experienceWeight, experienceWeight*float64(candidateYears)/float64(requiredYears))
	if candidateYears < requiredYears {
		score -= shortfallPenalty * float64(requiredYears-candidateYears)
	}
	return clamp(score, 0, experienceWeight)
}

// annotateRelevance recomputes, per project, which mandatory skills its own
// skill set satisfies and writes the human-readable relevance back.
func annotateRelevance(projects []domain.ProjectRecord, mandatory []string) []domain.ProjectRecord {
	out := make([]domain.ProjectRecord, len(projects))
	for i, p := range projects {
		pool := strings.Join(p.Skills, "\n")
		var hits []string
		for _, m := range mandatory {
			if taxonomy.MatchesSkill(pool, m) {
				hits = append(hits, m)
			}
		}
		if len(hits) > 0 {
			p.Relevance = fmt.Sprintf("Matches %s requirements", strings.Join(hits, ", "))
		} else {
			p.Relevance = "No direct match to mandatory skills"
		}
		out[i] = p
	}
	return out
}

// unionSkills collects the distinct skills across all projects,
// case-insensitively, preserving first spelling.
func unionSkills(projects []domain.ProjectRecord) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range projects {
		for _, s := range p.Skills {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// subtractSkills returns the members of a absent from b, case-insensitively.
func subtractSkills(a, b []string) []string {
	drop := make(map[string]struct{}, len(b))
	for _, s := range b {
		drop[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, dup := drop[strings.ToLower(strings.TrimSpace(s))]; !dup {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
