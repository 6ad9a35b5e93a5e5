// Package domain defines the entities, ports, and error taxonomy of the
// resume screener. It stays dependency-free; adapters carry the
// infrastructure concerns.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	// ErrSchemaInvalid: a generative payload is missing required structure.
	// Always recoverable by falling back to the deterministic engine.
	ErrSchemaInvalid = errors.New("schema invalid")
	// ErrRangeInvalid: a numeric field violates its domain. Recoverable the
	// same way as ErrSchemaInvalid.
	ErrRangeInvalid = errors.New("range invalid")
	// ErrExtractionFailed: no experience or skill signal found in text.
	// Never propagated; callers treat it as a zero/default value.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrUniquenessExhausted: the anonymizer could not mint a collision-free
	// token. Fatal for that single masking call.
	ErrUniquenessExhausted = errors.New("uniqueness exhausted")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamRateLimit   = errors.New("upstream rate limit")
	ErrInternal            = errors.New("internal error")
)

// SkillSet partitions normalized skill tokens extracted from a job
// description. Order is irrelevant; tokens are deduplicated
// case-insensitively. Immutable once extracted for an analysis run.
type SkillSet struct {
	Mandatory []string
	Preferred []string
}

// ProjectRecord is one project parsed from a resume. Relevance is written
// back by the scoring engine.
type ProjectRecord struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Relevance   string   `json:"relevance"`
}

// ScoreBreakdown holds the weighted components of a screening score.
// Invariant: Total == round(clamp(sum of components, 0, 100)).
type ScoreBreakdown struct {
	ProjectScore    float64 `json:"project_score"`    // [0,70]
	TechnicalScore  float64 `json:"technical_score"`  // [0,10]
	PreferredScore  float64 `json:"preferred_score"`  // [0,10]
	ExperienceScore float64 `json:"experience_score"` // [0,10]
	Total           int     `json:"total"`            // [0,100]
}

// PainPoints buckets candidate gaps by severity. Invariant: never all-empty
// after classification.
type PainPoints struct {
	Critical []string `json:"critical"`
	Major    []string `json:"major"`
	Minor    []string `json:"minor"`
}

// Empty reports whether no tier holds any entry.
func (p PainPoints) Empty() bool {
	return len(p.Critical) == 0 && len(p.Major) == 0 && len(p.Minor) == 0
}

// Status is the coarse triage bucket derived purely from the numeric score.
type Status string

// Triage buckets.
const (
	StatusShortlisted        Status = "Shortlisted"
	StatusUnderConsideration Status = "Under Consideration"
	StatusRejected           Status = "Rejected"
)

// StatusForScore derives the triage status from a final score.
// The boundary at exactly 70 belongs to Under Consideration.
func StatusForScore(score int) Status {
	switch {
	case score > 70:
		return StatusShortlisted
	case score >= 50:
		return StatusUnderConsideration
	default:
		return StatusRejected
	}
}

// Valid reports whether s is one of the three triage buckets.
func (s Status) Valid() bool {
	return s == StatusShortlisted || s == StatusUnderConsideration || s == StatusRejected
}

// Result provenance.
const (
	SourceGenerative    = "generative"
	SourceDeterministic = "deterministic"
)

// AnalysisResult is the complete screening outcome for one
// (resume, job description) pair. Never mutated after return.
type AnalysisResult struct {
	Score      int             `json:"score"`
	PainPoints PainPoints      `json:"pain_points"`
	Summary    string          `json:"summary"`
	Status     Status          `json:"status"`
	Projects   []ProjectRecord `json:"projects"`
	Source     string          `json:"source,omitempty"`
}

// PIIMapping is one reversible token substitution. A collection id groups
// all tokens minted by a single masking run.
type PIIMapping struct {
	CollectionID string `json:"collection_id"`
	Token        string `json:"token"`
	Original     string `json:"original"`
}

// Resume is an anonymized resume as persisted. The raw text never leaves
// the anonymizer; only masked text is stored.
type Resume struct {
	ID              string
	MaskedText      string
	PIICollectionID string
	Filename        string
	MIME            string
	Size            int64
	CreatedAt       time.Time
}

// ScreenResult is a persisted analysis keyed by (resume, job hash).
type ScreenResult struct {
	ID        string
	ResumeID  string
	JobHash   string
	Result    AnalysisResult
	CreatedAt time.Time
}

// ScreenTaskPayload is the queue message for one batch screening task.
type ScreenTaskPayload struct {
	TaskID         string `json:"task_id"`
	ResumeID       string `json:"resume_id"`
	JobDescription string `json:"job_description"`
}

// Repositories (ports)

type ResumeRepository interface {
	Create(ctx Context, r Resume) (string, error)
	Get(ctx Context, id string) (Resume, error)
}

type ResultRepository interface {
	Upsert(ctx Context, r ScreenResult) (string, error)
	Get(ctx Context, id string) (ScreenResult, error)
	FindByResumeAndJob(ctx Context, resumeID, jobHash string) (ScreenResult, error)
}

// PIIStore is the persistence collaborator for mask reversal. The core only
// requires these operations; no schema is imposed beyond them.
type PIIStore interface {
	Store(ctx Context, collectionID, token, original string) error
	Exists(ctx Context, collectionID string) (bool, error)
	Mappings(ctx Context, collectionID string) (map[string]string, error)
}

// Queue (port)

type Queue interface {
	EnqueueScreen(ctx Context, payload ScreenTaskPayload) (string, error)
}

// AIClient (port)
// ChatJSON returns a JSON payload intended to match the AnalysisResult
// schema; callers must normalize it before trusting it.
type AIClient interface {
	ChatJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// TextExtractor (port)
// ExtractPath extracts plain text from a file at path with the provided
// original filename. Implementations may call external services (e.g. Tika).
type TextExtractor interface {
	ExtractPath(ctx Context, fileName, path string) (string, error)
}

// Context is an alias so the domain package can appear in port signatures
// without each adapter importing two context types.
type Context = context.Context
