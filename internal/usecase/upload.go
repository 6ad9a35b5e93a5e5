// Package usecase wires the domain services into the application
// operations exposed over HTTP and the queue.
package usecase

import (
	"fmt"
	"regexp"
	"time"

	"github.com/hirelens/screener/internal/adapter/observability"
	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/pkg/textx"
)

// Masker is the anonymization collaborator: it substitutes sensitive spans
// with reversible tokens and returns the collection id grouping them.
type Masker interface {
	Mask(ctx domain.Context, text string) (string, []domain.PIIMapping, string, error)
}

// UploadService ingests resume documents: extract text, anonymize, persist.
type UploadService struct {
	Extractor domain.TextExtractor
	Masker    Masker
	Resumes   domain.ResumeRepository
}

// NewUploadService constructs an UploadService.
func NewUploadService(ex domain.TextExtractor, m Masker, r domain.ResumeRepository) UploadService {
	return UploadService{Extractor: ex, Masker: m, Resumes: r}
}

// UploadFile extracts text from the document at path and ingests it.
func (s UploadService) UploadFile(ctx domain.Context, fileName, mime string, size int64, path string) (string, error) {
	text, err := s.Extractor.ExtractPath(ctx, fileName, path)
	if err != nil {
		return "", fmt.Errorf("op=upload.extract: %w", err)
	}
	return s.ingest(ctx, text, fileName, mime, size)
}

// UploadText ingests an already plain-text resume.
func (s UploadService) UploadText(ctx domain.Context, text string) (string, error) {
	return s.ingest(ctx, text, "", "text/plain", int64(len(text)))
}

func (s UploadService) ingest(ctx domain.Context, text, fileName, mime string, size int64) (string, error) {
	text = textx.SanitizeText(text)
	if text == "" {
		return "", fmt.Errorf("op=upload.ingest: empty extracted text: %w", domain.ErrInvalidArgument)
	}
	masked, mappings, collectionID, err := s.Masker.Mask(ctx, text)
	if err != nil {
		return "", fmt.Errorf("op=upload.ingest: %w", err)
	}
	for _, m := range mappings {
		observability.PIIEntitiesMasked.WithLabelValues(tokenEntity(m.Token)).Inc()
	}
	id, err := s.Resumes.Create(ctx, domain.Resume{
		MaskedText:      masked,
		PIICollectionID: collectionID,
		Filename:        fileName,
		MIME:            mime,
		Size:            size,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}
	observability.LoggerFromContext(ctx).Info("resume ingested",
		"resume_id", id, "masked_entities", len(mappings))
	return id, nil
}

var reTokenEntity = regexp.MustCompile(`^<([A-Z_]+)_\d{4}>$`)

func tokenEntity(token string) string {
	if m := reTokenEntity.FindStringSubmatch(token); m != nil {
		return m[1]
	}
	return "UNKNOWN"
}
