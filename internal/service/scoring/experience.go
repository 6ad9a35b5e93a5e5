package scoring

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/hirelens/screener/internal/domain"
)

// Experience extraction is an ordered strategy cascade over inherently
// ambiguous prose. Ranges are resolved to their lower bound and redacted
// before the remaining patterns run so "3 to 5 years" cannot double-count
// as a bare "5 years" claim. Across all confident hits the maximum wins
// (a candidate's strongest claim); widely disagreeing hits are flagged at
// WARN rather than silently picking the first match.

var (
	reYearsRange = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:-|–|to)\s*(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)
	reYearsOver  = regexp.MustCompile(`(?i)\b(?:over|more than|at least)\s+(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)
	reYearsPlus  = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+\s*(?:years?|yrs?)\b`)
	reYearsOfExp = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:years?|yrs?)\s*(?:of\s+)?(?:relevant\s+|industry\s+|professional\s+|work\s+)?experience\b`)
)

// ExtractYears extracts a years-of-experience figure from free text. The
// error wraps domain.ErrExtractionFailed when no pattern matched; callers
// treat that as zero years, never as a failure.
func ExtractYears(text string) (int, error) {
	var hits []int

	redacted := reYearsRange.ReplaceAllStringFunc(text, func(m string) string {
		sub := reYearsRange.FindStringSubmatch(m)
		if lo, err := strconv.Atoi(sub[1]); err == nil {
			hits = append(hits, lo)
		}
		return ""
	})

	for _, re := range []*regexp.Regexp{reYearsOver, reYearsPlus, reYearsOfExp} {
		for _, sub := range re.FindAllStringSubmatch(redacted, -1) {
			if n, err := strconv.Atoi(sub[1]); err == nil {
				hits = append(hits, n)
			}
		}
	}

	if len(hits) == 0 {
		return 0, fmt.Errorf("op=scoring.extract_years: no experience signal: %w", domain.ErrExtractionFailed)
	}

	lo, hi := hits[0], hits[0]
	for _, h := range hits[1:] {
		if h < lo {
			lo = h
		}
		if h > hi {
			hi = h
		}
	}
	if hi-lo > 2 {
		slog.Warn("ambiguous experience mentions, taking maximum",
			slog.Int("min_years", lo), slog.Int("max_years", hi))
	}
	return hi, nil
}
