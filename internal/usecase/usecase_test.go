package usecase

import (
	"errors"
	"fmt"

	"github.com/hirelens/screener/internal/domain"
)

// fakes shared by the usecase tests

type fakeResumeRepo struct {
	resumes map[string]domain.Resume
	created []domain.Resume
	nextID  int
}

func newFakeResumeRepo() *fakeResumeRepo {
	return &fakeResumeRepo{resumes: make(map[string]domain.Resume)}
}

func (f *fakeResumeRepo) Create(_ domain.Context, r domain.Resume) (string, error) {
	f.nextID++
	r.ID = fmt.Sprintf("resume-%d", f.nextID)
	f.resumes[r.ID] = r
	f.created = append(f.created, r)
	return r.ID, nil
}

func (f *fakeResumeRepo) Get(_ domain.Context, id string) (domain.Resume, error) {
	r, ok := f.resumes[id]
	if !ok {
		return domain.Resume{}, fmt.Errorf("op=fake.get: %w", domain.ErrNotFound)
	}
	return r, nil
}

type fakeResultRepo struct {
	byKey    map[string]domain.ScreenResult
	byID     map[string]domain.ScreenResult
	upserts  int
	nextID   int
	upsertFn func(domain.ScreenResult) error
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{
		byKey: make(map[string]domain.ScreenResult),
		byID:  make(map[string]domain.ScreenResult),
	}
}

func (f *fakeResultRepo) Upsert(_ domain.Context, r domain.ScreenResult) (string, error) {
	if f.upsertFn != nil {
		if err := f.upsertFn(r); err != nil {
			return "", err
		}
	}
	f.upserts++
	if r.ID == "" {
		f.nextID++
		r.ID = fmt.Sprintf("result-%d", f.nextID)
	}
	f.byKey[r.ResumeID+"|"+r.JobHash] = r
	f.byID[r.ID] = r
	return r.ID, nil
}

func (f *fakeResultRepo) Get(_ domain.Context, id string) (domain.ScreenResult, error) {
	r, ok := f.byID[id]
	if !ok {
		return domain.ScreenResult{}, fmt.Errorf("op=fake.get: %w", domain.ErrNotFound)
	}
	return r, nil
}

func (f *fakeResultRepo) FindByResumeAndJob(_ domain.Context, resumeID, jobHash string) (domain.ScreenResult, error) {
	r, ok := f.byKey[resumeID+"|"+jobHash]
	if !ok {
		return domain.ScreenResult{}, fmt.Errorf("op=fake.find: %w", domain.ErrNotFound)
	}
	return r, nil
}

type fakeQueue struct {
	enqueued []domain.ScreenTaskPayload
	err      error
}

func (f *fakeQueue) EnqueueScreen(_ domain.Context, p domain.ScreenTaskPayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.enqueued = append(f.enqueued, p)
	return fmt.Sprintf("task-%d", len(f.enqueued)), nil
}

type fakeAI struct {
	response string
	err      error
	calls    int
}

func (f *fakeAI) ChatJSON(_ domain.Context, _, _ string, _ int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractPath(_ domain.Context, _, _ string) (string, error) {
	return f.text, f.err
}

type fakeMasker struct {
	err error
}

func (f fakeMasker) Mask(_ domain.Context, text string) (string, []domain.PIIMapping, string, error) {
	if f.err != nil {
		return "", nil, "", f.err
	}
	return text, []domain.PIIMapping{
		{CollectionID: "coll-1", Token: "<EMAIL_1234>", Original: "x@y.io"},
	}, "coll-1", nil
}

var errBoom = errors.New("boom")
