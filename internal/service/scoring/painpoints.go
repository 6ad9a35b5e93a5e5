package scoring

import (
	"fmt"

	"github.com/hirelens/screener/internal/domain"
)

// fallbackPainPoint keeps the classifier's never-empty invariant when no
// tier qualifies.
const fallbackPainPoint = "No specific gaps identified; needs further evaluation in interview"

// ClassifyPainPoints buckets the engine's match/gap facts into severity
// tiers. Critical: mandatory skills absent from all projects. Major: an
// experience shortfall, stated numerically. Minor: preferred skills absent
// from the combined pool. The result is never all-empty.
func ClassifyPainPoints(facts Facts) domain.PainPoints {
	var pp domain.PainPoints
	for _, m := range facts.MissingMandatory {
		pp.Critical = append(pp.Critical, fmt.Sprintf("Missing mandatory skill: %s", m))
	}
	if facts.RequiredYears > 0 && facts.CandidateYears < facts.RequiredYears {
		pp.Major = append(pp.Major, fmt.Sprintf("Insufficient experience: %d years vs %d required",
			facts.CandidateYears, facts.RequiredYears))
	}
	for _, p := range facts.MissingPreferred {
		pp.Minor = append(pp.Minor, fmt.Sprintf("Missing preferred skill: %s", p))
	}
	if pp.Empty() {
		pp.Minor = append(pp.Minor, fallbackPainPoint)
	}
	return pp
}
