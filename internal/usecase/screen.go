package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hirelens/screener/internal/adapter/ai"
	"github.com/hirelens/screener/internal/adapter/ai/tokencount"
	"github.com/hirelens/screener/internal/adapter/observability"
	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/internal/service/normalizer"
	"github.com/hirelens/screener/internal/service/resumeparse"
	"github.com/hirelens/screener/internal/service/scoring"
	"github.com/hirelens/screener/internal/service/taxonomy"
	"github.com/hirelens/screener/pkg/textx"
)

// promptBudget caps the prompt side of a model call in tokens.
const promptBudget = 6000

// ModelClient pairs a model name with its client for escalation order.
type ModelClient struct {
	Name   string
	Client domain.AIClient
}

// ScreenService runs one screening end to end: generative analysis first,
// escalating through the configured models, with the deterministic engine
// as the terminal fallback. A screening therefore always produces a result.
type ScreenService struct {
	Resumes  domain.ResumeRepository
	Results  domain.ResultRepository
	Queue    domain.Queue
	Models   []ModelClient
	Taxonomy *taxonomy.Extractor
	Engine   scoring.Engine
	Counter  *tokencount.Counter

	// MaxTokens bounds the completion size requested from models.
	MaxTokens int
}

// NewScreenService constructs a ScreenService.
func NewScreenService(resumes domain.ResumeRepository, results domain.ResultRepository, q domain.Queue,
	models []ModelClient, tx *taxonomy.Extractor, maxTokens int) *ScreenService {
	return &ScreenService{
		Resumes:   resumes,
		Results:   results,
		Queue:     q,
		Models:    models,
		Taxonomy:  tx,
		Engine:    scoring.NewEngine(),
		Counter:   tokencount.NewCounter(),
		MaxTokens: maxTokens,
	}
}

// JobHash fingerprints a job description for result idempotency. Case and
// whitespace differences do not produce distinct hashes.
func JobHash(jobDescription string) string {
	normalized := strings.ToLower(textx.CollapseSpaces(jobDescription))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Screen analyzes one resume against a job description and persists the
// verdict. Re-screening an identical (resume, job) pairing returns the
// stored result without re-running the analysis.
func (s *ScreenService) Screen(ctx domain.Context, resumeID, jobDescription string) (domain.ScreenResult, error) {
	lg := observability.LoggerFromContext(ctx)
	if strings.TrimSpace(jobDescription) == "" {
		return domain.ScreenResult{}, fmt.Errorf("op=screen: empty job description: %w", domain.ErrInvalidArgument)
	}
	resume, err := s.Resumes.Get(ctx, resumeID)
	if err != nil {
		return domain.ScreenResult{}, err
	}
	jobHash := JobHash(jobDescription)
	if existing, err := s.Results.FindByResumeAndJob(ctx, resumeID, jobHash); err == nil {
		lg.Info("screening cache hit", "resume_id", resumeID, "result_id", existing.ID)
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.ScreenResult{}, err
	}

	skills := s.Taxonomy.Extract(jobDescription)
	requiredYears, _ := scoring.ExtractYears(jobDescription)
	projects := resumeparse.Projects(resume.MaskedText)

	analysis, ok := s.generative(ctx, resume.MaskedText, jobDescription, skills, requiredYears, projects)
	if !ok {
		analysis = s.deterministic(ctx, resume.MaskedText, skills, requiredYears, projects)
	}
	observability.ObserveScreening(analysis.Source, analysis.Score)

	result := domain.ScreenResult{
		ResumeID:  resumeID,
		JobHash:   jobHash,
		Result:    analysis,
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.Results.Upsert(ctx, result)
	if err != nil {
		return domain.ScreenResult{}, err
	}
	result.ID = id
	lg.Info("screening complete",
		"resume_id", resumeID,
		"result_id", id,
		"score", analysis.Score,
		"status", string(analysis.Status),
		"source", analysis.Source)
	return result, nil
}

// generative tries each configured model in order. Any failure (transport,
// schema, range) moves on to the next model; false means all exhausted.
func (s *ScreenService) generative(ctx domain.Context, maskedResume, jobDescription string,
	skills domain.SkillSet, requiredYears int, projects []domain.ProjectRecord) (domain.AnalysisResult, bool) {
	lg := observability.LoggerFromContext(ctx)
	in := ai.UserPromptInput{
		JobDescription:  jobDescription,
		MaskedResume:    maskedResume,
		MandatorySkills: skills.Mandatory,
		PreferredSkills: skills.Preferred,
		RequiredYears:   float64(requiredYears),
	}
	for _, m := range s.Models {
		prompt, err := ai.FitPrompt(s.Counter, m.Name, in, promptBudget)
		if err != nil {
			lg.Warn("prompt build failed", "model", m.Name, "error", err)
			continue
		}
		raw, err := m.Client.ChatJSON(ctx, ai.SystemPrompt, prompt, s.MaxTokens)
		if err != nil {
			lg.Warn("model call failed", "model", m.Name, "error", err)
			continue
		}
		analysis, err := normalizer.Normalize([]byte(raw), projects)
		if err != nil {
			lg.Warn("model output rejected", "model", m.Name, "error", err)
			continue
		}
		lg.Info("generative analysis accepted", "model", m.Name)
		return analysis, true
	}
	return domain.AnalysisResult{}, false
}

// deterministic is the terminal path: rule-based scoring, classification,
// and summary, finalized through the same repair rules as model output.
func (s *ScreenService) deterministic(ctx domain.Context, maskedResume string,
	skills domain.SkillSet, requiredYears int, projects []domain.ProjectRecord) domain.AnalysisResult {
	observability.LoggerFromContext(ctx).Info("falling back to deterministic engine")
	observability.FallbacksTotal.Inc()
	breakdown, annotated, facts := s.Engine.Score(maskedResume, projects, skills, requiredYears)
	res := domain.AnalysisResult{
		Score:      breakdown.Total,
		PainPoints: scoring.ClassifyPainPoints(facts),
		Summary:    scoring.BuildSummary(facts),
		Projects:   annotated,
		Source:     domain.SourceDeterministic,
	}
	normalizer.Finalize(&res)
	return res
}

// EnqueueBatch queues one screening task per resume id and returns the
// task ids in input order.
func (s *ScreenService) EnqueueBatch(ctx domain.Context, resumeIDs []string, jobDescription string) ([]string, error) {
	if len(resumeIDs) == 0 {
		return nil, fmt.Errorf("op=screen.batch: no resume ids: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(jobDescription) == "" {
		return nil, fmt.Errorf("op=screen.batch: empty job description: %w", domain.ErrInvalidArgument)
	}
	taskIDs := make([]string, 0, len(resumeIDs))
	for _, rid := range resumeIDs {
		taskID, err := s.Queue.EnqueueScreen(ctx, domain.ScreenTaskPayload{
			ResumeID:       rid,
			JobDescription: jobDescription,
		})
		if err != nil {
			return nil, fmt.Errorf("op=screen.batch: resume=%s: %w", rid, err)
		}
		taskIDs = append(taskIDs, taskID)
	}
	return taskIDs, nil
}

// ProcessTask handles one queued screening task.
func (s *ScreenService) ProcessTask(ctx domain.Context, payload domain.ScreenTaskPayload) error {
	_, err := s.Screen(ctx, payload.ResumeID, payload.JobDescription)
	return err
}
