package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/internal/service/taxonomy"
)

const testJobDescription = `Backend Engineer.
Required: Go, PostgreSQL. Minimum 3 years of experience.
Preferred: Docker.`

const testResume = `Summary
Engineer with 5 years of experience building services.

Skills: Go, PostgreSQL, Docker

Projects
Billing platform - Transaction processing service
Tech stack: Go, PostgreSQL`

func goodModelResponse() string {
	return `{"score": 82, "pain_points": {"critical": [], "major": [], "minor": ["Missing preferred skill: Kubernetes"]}, "summary": "` +
		strings.TrimSpace(strings.Repeat("Strong backend candidate with relevant platform experience. ", 17)) + `"}`
}

func newScreenService(resumes *fakeResumeRepo, results *fakeResultRepo, q domain.Queue, models ...ModelClient) *ScreenService {
	return NewScreenService(resumes, results, q, models,
		taxonomy.NewExtractor(taxonomy.DefaultSignals()), 1200)
}

func seedResume(t *testing.T, repo *fakeResumeRepo) string {
	t.Helper()
	id, err := repo.Create(context.Background(), domain.Resume{MaskedText: testResume})
	require.NoError(t, err)
	return id
}

func TestScreen_GenerativeSuccess(t *testing.T) {
	resumes := newFakeResumeRepo()
	results := newFakeResultRepo()
	model := &fakeAI{response: goodModelResponse()}
	svc := newScreenService(resumes, results, &fakeQueue{}, ModelClient{Name: "primary", Client: model})
	id := seedResume(t, resumes)

	res, err := svc.Screen(context.Background(), id, testJobDescription)
	require.NoError(t, err)
	assert.Equal(t, 82, res.Result.Score)
	assert.Equal(t, domain.StatusShortlisted, res.Result.Status)
	assert.Equal(t, domain.SourceGenerative, res.Result.Source)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 1, results.upserts)
	assert.Equal(t, 1, model.calls)
}

func TestScreen_EscalatesToBackupModel(t *testing.T) {
	resumes := newFakeResumeRepo()
	results := newFakeResultRepo()
	primary := &fakeAI{err: errBoom}
	backup := &fakeAI{response: goodModelResponse()}
	svc := newScreenService(resumes, results, &fakeQueue{},
		ModelClient{Name: "primary", Client: primary},
		ModelClient{Name: "backup", Client: backup})
	id := seedResume(t, resumes)

	res, err := svc.Screen(context.Background(), id, testJobDescription)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceGenerative, res.Result.Source)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestScreen_MalformedOutputEscalates(t *testing.T) {
	resumes := newFakeResumeRepo()
	results := newFakeResultRepo()
	primary := &fakeAI{response: "I cannot evaluate this resume."}
	backup := &fakeAI{response: goodModelResponse()}
	svc := newScreenService(resumes, results, &fakeQueue{},
		ModelClient{Name: "primary", Client: primary},
		ModelClient{Name: "backup", Client: backup})
	id := seedResume(t, resumes)

	res, err := svc.Screen(context.Background(), id, testJobDescription)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceGenerative, res.Result.Source)
	assert.Equal(t, 1, backup.calls)
}

func TestScreen_DeterministicFallback(t *testing.T) {
	resumes := newFakeResumeRepo()
	results := newFakeResultRepo()
	svc := newScreenService(resumes, results, &fakeQueue{},
		ModelClient{Name: "primary", Client: &fakeAI{err: errBoom}},
		ModelClient{Name: "backup", Client: &fakeAI{err: errBoom}})
	id := seedResume(t, resumes)

	res, err := svc.Screen(context.Background(), id, testJobDescription)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDeterministic, res.Result.Source)
	// resume covers both mandatory skills and exceeds required experience
	assert.Greater(t, res.Result.Score, 70)
	assert.Equal(t, domain.StatusShortlisted, res.Result.Status)
	assert.False(t, res.Result.PainPoints.Empty())
	assert.True(t, res.Result.Status.Valid())
}

func TestScreen_NoModelsGoesDeterministic(t *testing.T) {
	resumes := newFakeResumeRepo()
	results := newFakeResultRepo()
	svc := newScreenService(resumes, results, &fakeQueue{})
	id := seedResume(t, resumes)

	res, err := svc.Screen(context.Background(), id, testJobDescription)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDeterministic, res.Result.Source)
}

func TestScreen_IdempotentOnSamePairing(t *testing.T) {
	resumes := newFakeResumeRepo()
	results := newFakeResultRepo()
	model := &fakeAI{response: goodModelResponse()}
	svc := newScreenService(resumes, results, &fakeQueue{}, ModelClient{Name: "m", Client: model})
	id := seedResume(t, resumes)

	first, err := svc.Screen(context.Background(), id, testJobDescription)
	require.NoError(t, err)
	// whitespace and case changes hash identically
	second, err := svc.Screen(context.Background(), id, "  "+strings.ToUpper(testJobDescription)+"\n")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, results.upserts)
	assert.Equal(t, 1, model.calls)
}

func TestScreen_UnknownResume(t *testing.T) {
	svc := newScreenService(newFakeResumeRepo(), newFakeResultRepo(), &fakeQueue{})
	_, err := svc.Screen(context.Background(), "missing", testJobDescription)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScreen_EmptyJobDescription(t *testing.T) {
	svc := newScreenService(newFakeResumeRepo(), newFakeResultRepo(), &fakeQueue{})
	_, err := svc.Screen(context.Background(), "any", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestJobHash_NormalizesCaseAndWhitespace(t *testing.T) {
	a := JobHash("Required: Go, PostgreSQL")
	b := JobHash("  required:   go, postgresql \n")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, JobHash("Required: Python"))
}

func TestEnqueueBatch(t *testing.T) {
	q := &fakeQueue{}
	svc := newScreenService(newFakeResumeRepo(), newFakeResultRepo(), q)

	ids, err := svc.EnqueueBatch(context.Background(), []string{"r1", "r2"}, testJobDescription)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	require.Len(t, q.enqueued, 2)
	assert.Equal(t, "r1", q.enqueued[0].ResumeID)
	assert.Equal(t, testJobDescription, q.enqueued[0].JobDescription)
}

func TestEnqueueBatch_Validation(t *testing.T) {
	svc := newScreenService(newFakeResumeRepo(), newFakeResultRepo(), &fakeQueue{})
	_, err := svc.EnqueueBatch(context.Background(), nil, testJobDescription)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.EnqueueBatch(context.Background(), []string{"r1"}, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestProcessTask_RunsScreening(t *testing.T) {
	resumes := newFakeResumeRepo()
	results := newFakeResultRepo()
	svc := newScreenService(resumes, results, &fakeQueue{},
		ModelClient{Name: "m", Client: &fakeAI{response: goodModelResponse()}})
	id := seedResume(t, resumes)

	err := svc.ProcessTask(context.Background(), domain.ScreenTaskPayload{
		TaskID:         "t1",
		ResumeID:       id,
		JobDescription: testJobDescription,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, results.upserts)
}
