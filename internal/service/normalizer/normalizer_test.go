package normalizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/pkg/textx"
)

func TestNormalize_CompletePayload(t *testing.T) {
	raw := []byte(`{
		"score": 82,
		"pain_points": {"critical": [], "major": ["short tenure"], "minor": []},
		"summary": "` + strings.Repeat("solid fit ", 65) + `",
		"status": "Shortlisted",
		"projects": [{"name": "ETL", "description": "pipelines", "skills": ["Python"], "relevance": "Matches Python requirements"}]
	}`)
	res, err := Normalize(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 82, res.Score)
	assert.Equal(t, domain.StatusShortlisted, res.Status)
	assert.Equal(t, []string{"short tenure"}, res.PainPoints.Major)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, "ETL", res.Projects[0].Name)
	assert.Equal(t, domain.SourceGenerative, res.Source)
}

func TestNormalize_MarkdownFencedJSON(t *testing.T) {
	raw := []byte("Here is the result:\n```json\n{\"score\": 55.4}\n```\n")
	res, err := Normalize(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 55, res.Score)
	assert.Equal(t, domain.StatusUnderConsideration, res.Status)
}

func TestNormalize_MissingSummaryNeverRaises(t *testing.T) {
	raw := []byte(`{"score": 40}`)
	res, err := Normalize(raw, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Summary)
	// status recomputed from score
	assert.Equal(t, domain.StatusRejected, res.Status)
}

func TestNormalize_ScoreClamped(t *testing.T) {
	res, err := Normalize([]byte(`{"score": 240}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)

	res, err = Normalize([]byte(`{"score": -3}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
}

func TestNormalize_NonNumericScore(t *testing.T) {
	_, err := Normalize([]byte(`{"score": "great"}`), nil)
	assert.True(t, errors.Is(err, domain.ErrRangeInvalid))
}

func TestNormalize_MissingScore(t *testing.T) {
	_, err := Normalize([]byte(`{"summary": "x"}`), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchemaInvalid))
	assert.Contains(t, err.Error(), "score")
}

func TestNormalize_NotAMapping(t *testing.T) {
	_, err := Normalize([]byte(`plain refusal text, no json`), nil)
	assert.True(t, errors.Is(err, domain.ErrSchemaInvalid))
}

func TestNormalize_PainPointsNotAMapping(t *testing.T) {
	res, err := Normalize([]byte(`{"score": 60, "pain_points": "none"}`), nil)
	require.NoError(t, err)
	assert.False(t, res.PainPoints.Empty())
	require.Len(t, res.PainPoints.Minor, 1)
	assert.Contains(t, res.PainPoints.Minor[0], "further evaluation")
}

func TestNormalize_PainPointsDropsEmptyStrings(t *testing.T) {
	res, err := Normalize([]byte(`{"score": 60, "pain_points": {"critical": ["", "no AWS"], "major": [1, 2], "minor": []}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"no AWS"}, res.PainPoints.Critical)
	assert.Empty(t, res.PainPoints.Major)
}

func TestNormalize_ShortSummaryPadded(t *testing.T) {
	res, err := Normalize([]byte(`{"score": 60, "summary": "Decent candidate."}`), nil)
	require.NoError(t, err)
	assert.Contains(t, res.Summary, "Decent candidate.")
	assert.Contains(t, res.Summary, "score breakdown")
}

func TestNormalize_LongSummaryNeverTruncated(t *testing.T) {
	long := strings.Repeat("word ", 400)
	res, err := Normalize([]byte(`{"score": 60, "summary": "`+long+`"}`), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, textx.WordCount(res.Summary), 400)
}

func TestNormalize_InvalidStatusRecomputed(t *testing.T) {
	res, err := Normalize([]byte(`{"score": 71, "status": "Hired"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShortlisted, res.Status)
}

func TestNormalize_ProjectsBackfilled(t *testing.T) {
	raw := []byte(`{"score": 50, "projects": [{"skills": ["Go"]}, "junk"]}`)
	res, err := Normalize(raw, nil)
	require.NoError(t, err)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, "Project 1", res.Projects[0].Name)
	assert.Equal(t, "No description provided", res.Projects[0].Description)
	assert.Equal(t, "Not assessed", res.Projects[0].Relevance)
}

func TestNormalize_FallbackProjectsWhenAbsent(t *testing.T) {
	fallback := []domain.ProjectRecord{{Name: "Known", Skills: []string{"Go"}}}
	res, err := Normalize([]byte(`{"score": 50}`), fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, res.Projects)
}

func TestFinalize_DeterministicPath(t *testing.T) {
	res := domain.AnalysisResult{Score: 140, Summary: "short", Source: domain.SourceDeterministic}
	Finalize(&res)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, domain.StatusShortlisted, res.Status)
	assert.False(t, res.PainPoints.Empty())
	assert.Contains(t, res.Summary, "score breakdown")
}

func TestExtractFirstJSONObject_BracesInsideStrings(t *testing.T) {
	js, ok := extractFirstJSONObject(`noise {"a": "closing } inside", "b": 1} tail`)
	require.True(t, ok)
	assert.Equal(t, `{"a": "closing } inside", "b": 1}`, js)
}
