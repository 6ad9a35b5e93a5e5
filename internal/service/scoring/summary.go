package scoring

import (
	"fmt"
	"strings"

	"github.com/hirelens/screener/internal/domain"
)

// BuildSummary renders a human-readable recap of the deterministic
// evaluation. The normalizer owns the word-count contract; this only has to
// be faithful to the facts.
func BuildSummary(facts Facts) string {
	b := &strings.Builder{}
	status := domain.StatusForScore(facts.Breakdown.Total)
	fmt.Fprintf(b, "The candidate scored %d out of 100 against this role and is marked %s. ",
		facts.Breakdown.Total, strings.ToLower(string(status)))

	if len(facts.MatchedMandatory) > 0 {
		fmt.Fprintf(b, "Project work demonstrates %d of %d mandatory skills, covering %s. ",
			len(facts.MatchedMandatory), len(facts.Mandatory), joinLimit(facts.MatchedMandatory, 6))
	} else if len(facts.Mandatory) > 0 {
		fmt.Fprintf(b, "None of the %d mandatory skills appear in the candidate's project work. ",
			len(facts.Mandatory))
	}

	if len(facts.MissingMandatory) > 0 {
		fmt.Fprintf(b, "The most significant gaps are %s, which the role lists as required. ",
			joinLimit(facts.MissingMandatory, 6))
	}

	if facts.RequiredYears > 0 {
		if facts.CandidateYears >= facts.RequiredYears {
			fmt.Fprintf(b, "Declared experience of %d years meets the %d-year requirement. ",
				facts.CandidateYears, facts.RequiredYears)
		} else {
			fmt.Fprintf(b, "Declared experience of %d years falls short of the %d-year requirement. ",
				facts.CandidateYears, facts.RequiredYears)
		}
	}

	if len(facts.Preferred) > 0 {
		covered := len(facts.Preferred) - len(facts.MissingPreferred)
		fmt.Fprintf(b, "Of the preferred skills, %d of %d are present", covered, len(facts.Preferred))
		if len(facts.MissingPreferred) > 0 {
			fmt.Fprintf(b, "; %s would strengthen the profile", joinLimit(facts.MissingPreferred, 6))
		}
		b.WriteString(". ")
	}

	fmt.Fprintf(b, "Component scores: projects %.1f of 70, declared technical skills %.1f of 10, preferred skills %.1f of 10, experience %.1f of 10.",
		facts.Breakdown.ProjectScore, facts.Breakdown.TechnicalScore,
		facts.Breakdown.PreferredScore, facts.Breakdown.ExperienceScore)
	return b.String()
}

func joinLimit(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + fmt.Sprintf(" and %d more", len(items)-limit)
}
