package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/screener/internal/domain"
)

func TestUploadFile_ExtractsMasksPersists(t *testing.T) {
	repo := newFakeResumeRepo()
	svc := NewUploadService(fakeExtractor{text: "Skills: Go\nContact x@y.io"}, fakeMasker{}, repo)

	id, err := svc.UploadFile(context.Background(), "cv.pdf", "application/pdf", 2048, "/tmp/cv.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, repo.created, 1)
	stored := repo.created[0]
	assert.Equal(t, "coll-1", stored.PIICollectionID)
	assert.Equal(t, "cv.pdf", stored.Filename)
	assert.Equal(t, int64(2048), stored.Size)
}

func TestUploadFile_ExtractorError(t *testing.T) {
	svc := NewUploadService(fakeExtractor{err: errBoom}, fakeMasker{}, newFakeResumeRepo())
	_, err := svc.UploadFile(context.Background(), "cv.pdf", "application/pdf", 1, "/tmp/cv.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=upload.extract")
}

func TestUploadText_EmptyRejected(t *testing.T) {
	svc := NewUploadService(fakeExtractor{}, fakeMasker{}, newFakeResumeRepo())
	_, err := svc.UploadText(context.Background(), "  \n\t ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUploadText_MaskerErrorPropagates(t *testing.T) {
	svc := NewUploadService(fakeExtractor{}, fakeMasker{err: errBoom}, newFakeResumeRepo())
	_, err := svc.UploadText(context.Background(), "some resume text")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
}

func TestTokenEntity(t *testing.T) {
	assert.Equal(t, "EMAIL", tokenEntity("<EMAIL_1234>"))
	assert.Equal(t, "PHONE", tokenEntity("<PHONE_9999>"))
	assert.Equal(t, "UNKNOWN", tokenEntity("garbage"))
}
