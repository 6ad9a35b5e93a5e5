package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/screener/internal/domain"
)

func TestScore_ProjectComponent(t *testing.T) {
	eng := NewEngine()
	skills := domain.SkillSet{Mandatory: []string{"Python", "AWS"}}
	projects := []domain.ProjectRecord{
		{Name: "ETL", Skills: []string{"Python"}},
	}

	breakdown, annotated, facts := eng.Score("plain resume text", projects, skills, 0)

	assert.Equal(t, 35.0, breakdown.ProjectScore) // 1 of 2 mandatory * 70/2
	assert.Equal(t, 0.0, breakdown.TechnicalScore)
	assert.Equal(t, []string{"AWS"}, facts.MissingMandatory)
	require.Len(t, annotated, 1)
	assert.Equal(t, "Matches Python requirements", annotated[0].Relevance)

	pp := ClassifyPainPoints(facts)
	require.NotEmpty(t, pp.Critical)
	assert.Contains(t, pp.Critical[0], "AWS")
}

func TestScore_EmptyMandatoryContributesZero(t *testing.T) {
	eng := NewEngine()
	breakdown, _, _ := eng.Score("text", []domain.ProjectRecord{{Skills: []string{"Go"}}}, domain.SkillSet{}, 0)
	assert.Equal(t, 0.0, breakdown.ProjectScore)
	assert.Equal(t, 0.0, breakdown.TechnicalScore)
	// no requirement at all: experience still awards full weight
	assert.Equal(t, 10.0, breakdown.ExperienceScore)
	assert.Equal(t, 10, breakdown.Total)
}

func TestScore_TechnicalSetDifference(t *testing.T) {
	eng := NewEngine()
	resume := "Skills\nPython, Terraform\n\nExperience\nAcme"
	skills := domain.SkillSet{Mandatory: []string{"Python", "Terraform"}}
	projects := []domain.ProjectRecord{{Name: "ETL", Skills: []string{"Python"}}}

	breakdown, _, _ := eng.Score(resume, projects, skills, 0)

	// Python is already a project skill, so only Terraform counts as a
	// declared technical skill: 1 of 2 mandatory * 10/2.
	assert.Equal(t, 35.0, breakdown.ProjectScore)
	assert.Equal(t, 5.0, breakdown.TechnicalScore)
}

func TestScore_PreferredAgainstCombinedPool(t *testing.T) {
	eng := NewEngine()
	resume := "Skills\nDocker\n"
	skills := domain.SkillSet{
		Mandatory: []string{"Go"},
		Preferred: []string{"Docker", "Helm"},
	}
	projects := []domain.ProjectRecord{{Name: "svc", Skills: []string{"Go"}}}

	breakdown, _, facts := eng.Score(resume, projects, skills, 0)

	assert.Equal(t, 5.0, breakdown.PreferredScore) // Docker of {Docker, Helm}
	assert.Equal(t, []string{"Helm"}, facts.MissingPreferred)
}

func TestScore_TotalClampAndRound(t *testing.T) {
	eng := NewEngine()
	resume := "Skills\nGo\n\n8 years of experience."
	skills := domain.SkillSet{Mandatory: []string{"Go"}, Preferred: []string{"Go"}}
	projects := []domain.ProjectRecord{{Name: "svc", Skills: []string{"Go"}}}

	breakdown, _, _ := eng.Score(resume, projects, skills, 5)

	assert.Equal(t, 70.0, breakdown.ProjectScore)
	assert.Equal(t, 0.0, breakdown.TechnicalScore) // Go already counted as project skill
	assert.Equal(t, 10.0, breakdown.PreferredScore)
	assert.Equal(t, 10.0, breakdown.ExperienceScore)
	assert.Equal(t, 90, breakdown.Total)
	assert.Equal(t, domain.StatusShortlisted, domain.StatusForScore(breakdown.Total))
}

func TestExperienceComponent(t *testing.T) {
	tests := []struct {
		name      string
		candidate int
		required  int
		want      float64
	}{
		{"no requirement awards full weight", 3, 0, 10},
		{"meets requirement", 5, 5, 10},
		{"exceeds requirement caps at weight", 9, 5, 10},
		{"shortfall: proportional minus penalty", 3, 5, 2}, // 6 - 2*2
		{"deep shortfall floors at zero", 1, 10, 0},
		{"zero candidate years", 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, experienceComponent(tt.candidate, tt.required))
		})
	}
}

func TestExtractYears(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"I have 5 years of experience in backend work", 5},
		{"7+ years building services", 7},
		{"over 6 years shipping Go", 6},
		{"3 to 5 years of experience", 3}, // range takes the lower bound
		{"3-5 yrs experience", 3},
		{"2 years of experience early on, now 8 years of experience total", 8},
	}
	for _, tt := range tests {
		got, err := ExtractYears(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestExtractYears_NoSignal(t *testing.T) {
	got, err := ExtractYears("seasoned engineer, shipped a lot")
	assert.Equal(t, 0, got)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
}

func TestClassifyPainPoints(t *testing.T) {
	facts := Facts{
		MissingMandatory: []string{"AWS"},
		MissingPreferred: []string{"Helm"},
		RequiredYears:    5,
		CandidateYears:   3,
	}
	pp := ClassifyPainPoints(facts)
	require.Len(t, pp.Critical, 1)
	assert.Contains(t, pp.Critical[0], "AWS")
	require.Len(t, pp.Major, 1)
	assert.Contains(t, pp.Major[0], "3 years vs 5 required")
	require.Len(t, pp.Minor, 1)
	assert.Contains(t, pp.Minor[0], "Helm")
}

func TestClassifyPainPoints_NeverEmpty(t *testing.T) {
	pp := ClassifyPainPoints(Facts{CandidateYears: 10, RequiredYears: 5})
	assert.False(t, pp.Empty())
	require.Len(t, pp.Minor, 1)
	assert.Contains(t, pp.Minor[0], "further evaluation")
}

func TestAnnotateRelevance_NoMatch(t *testing.T) {
	eng := NewEngine()
	_, annotated, _ := eng.Score("", []domain.ProjectRecord{{Name: "x", Skills: []string{"PHP"}}},
		domain.SkillSet{Mandatory: []string{"Go"}}, 0)
	require.Len(t, annotated, 1)
	assert.Equal(t, "No direct match to mandatory skills", annotated[0].Relevance)
}

func TestBuildSummary_MentionsGapsAndComponents(t *testing.T) {
	facts := Facts{
		Mandatory:        []string{"Go", "AWS"},
		MatchedMandatory: []string{"Go"},
		MissingMandatory: []string{"AWS"},
		RequiredYears:    5,
		CandidateYears:   3,
		Breakdown:        domain.ScoreBreakdown{ProjectScore: 35, ExperienceScore: 2, Total: 37},
	}
	s := BuildSummary(facts)
	assert.Contains(t, s, "37 out of 100")
	assert.Contains(t, s, "AWS")
	assert.Contains(t, s, "3 years")
}
