package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hirelens/screener/internal/config"
	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/internal/usecase"
)

// Server aggregates the handler dependencies.
type Server struct {
	Cfg        config.Config
	Uploads    usecase.UploadService
	Screen     *usecase.ScreenService
	Results    usecase.ResultService
	PII        usecase.PIIService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	TikaCheck  func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, uploads usecase.UploadService, screen *usecase.ScreenService,
	results usecase.ResultService, pii usecase.PIIService,
	dbCheck, redisCheck, tikaCheck func(context.Context) error) *Server {
	return &Server{
		Cfg:        cfg,
		Uploads:    uploads,
		Screen:     screen,
		Results:    results,
		PII:        pii,
		DBCheck:    dbCheck,
		RedisCheck: redisCheck,
		TikaCheck:  tikaCheck,
	}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// allowedExt enforces an allowlist for uploads: .txt, .pdf, .docx
func allowedExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".pdf") || strings.HasSuffix(n, ".docx")
}

func allowedMIMEFor(m, filename string) bool {
	m = strings.ToLower(m)
	// .txt uploads get any text/*; some detectors misclassify rich text.
	if strings.HasSuffix(strings.ToLower(filename), ".txt") && strings.HasPrefix(m, "text/") {
		return true
	}
	if strings.HasPrefix(m, "text/plain") {
		return true
	}
	return m == "application/pdf" ||
		m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func validateStruct(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := getValidator().Struct(req); err != nil {
		verrs := map[string]string{}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("validation failed: %w", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

// UploadResumeHandler accepts a multipart resume document (field "resume")
// or a plain-text body (field "resume_text"), anonymizes it, and returns
// the stored resume id.
func (s *Server) UploadResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("content-type must be multipart/form-data: %w", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code:    "INVALID_ARGUMENT",
					Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		if text := r.FormValue("resume_text"); strings.TrimSpace(text) != "" {
			id, err := s.Uploads.UploadText(r.Context(), text)
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"resume_id": id})
			return
		}

		file, header, err := r.FormFile("resume")
		if err != nil {
			writeError(w, r, fmt.Errorf("resume file required: %w", domain.ErrInvalidArgument), map[string]string{"field": "resume"})
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if !allowedExt(header.Filename) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code:    "INVALID_ARGUMENT",
				Message: "unsupported media type (extension)",
				Details: map[string]any{"filename": header.Filename},
			}})
			return
		}
		detected := mimetype.Detect(data)
		if !allowedMIMEFor(detected.String(), header.Filename) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code:    "INVALID_ARGUMENT",
				Message: "unsupported media type (content)",
				Details: map[string]any{"mime": detected.String(), "filename": header.Filename},
			}})
			return
		}

		// Plain text skips the extractor round-trip.
		if strings.HasSuffix(strings.ToLower(header.Filename), ".txt") {
			id, err := s.Uploads.UploadText(r.Context(), string(data))
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"resume_id": id})
			return
		}

		tmp, err := os.CreateTemp("", "resume-*"+filepath.Ext(header.Filename))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		defer func() { _ = os.Remove(tmp.Name()); _ = tmp.Close() }()
		if _, err := tmp.Write(data); err != nil {
			writeError(w, r, err, nil)
			return
		}
		id, err := s.Uploads.UploadFile(r.Context(), header.Filename, detected.String(), int64(len(data)), tmp.Name())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"resume_id": id})
	}
}

// ScreenHandler runs a synchronous screening of one resume.
func (s *Server) ScreenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			ResumeID       string `json:"resume_id" validate:"required"`
			JobDescription string `json:"job_description" validate:"required,max=20000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("invalid json: %w", domain.ErrInvalidArgument), nil)
			return
		}
		if !validateStruct(w, r, req) {
			return
		}
		res, err := s.Screen.Screen(r.Context(), req.ResumeID, req.JobDescription)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, resultEnvelope(res))
	}
}

// BatchScreenHandler enqueues screening tasks for many resumes at once.
func (s *Server) BatchScreenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			ResumeIDs      []string `json:"resume_ids" validate:"required,min=1,max=500,dive,required"`
			JobDescription string   `json:"job_description" validate:"required,max=20000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("invalid json: %w", domain.ErrInvalidArgument), nil)
			return
		}
		if !validateStruct(w, r, req) {
			return
		}
		taskIDs, err := s.Screen.EnqueueBatch(r.Context(), req.ResumeIDs, req.JobDescription)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"task_ids": taskIDs, "count": len(taskIDs)})
	}
}

// ResultHandler returns a stored screening result by id.
func (s *Server) ResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("id missing: %w", domain.ErrInvalidArgument), nil)
			return
		}
		res, err := s.Results.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, resultEnvelope(res))
	}
}

// AdminPIIHandler reveals the reversible token mapping for one masking
// run. It sits behind AdminGuard; this is the only read path to original
// values.
func (s *Server) AdminPIIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collectionID := chi.URLParam(r, "collection_id")
		if collectionID == "" {
			writeError(w, r, fmt.Errorf("collection_id missing: %w", domain.ErrInvalidArgument), nil)
			return
		}
		mappings, err := s.PII.Mappings(r.Context(), collectionID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		LoggerFrom(r).Info("pii mapping revealed", "collection_id", collectionID, "entries", len(mappings))
		writeJSON(w, http.StatusOK, map[string]any{
			"collection_id": collectionID,
			"mappings":      mappings,
		})
	}
}

// ReadyzHandler probes the DB, Redis, and Tika dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		var checks []check
		for _, probe := range []struct {
			name string
			fn   func(context.Context) error
		}{
			{"db", s.DBCheck},
			{"redis", s.RedisCheck},
			{"tika", s.TikaCheck},
		} {
			if probe.fn == nil {
				continue
			}
			if err := probe.fn(ctx); err != nil {
				checks = append(checks, check{Name: probe.name, OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: probe.name, OK: true})
			}
		}
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

func resultEnvelope(res domain.ScreenResult) map[string]any {
	return map[string]any{
		"id":         res.ID,
		"resume_id":  res.ResumeID,
		"result":     res.Result,
		"created_at": res.CreatedAt.UTC().Format(time.RFC3339),
	}
}
