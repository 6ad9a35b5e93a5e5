// Package ai holds the prompt construction shared by the model clients.
package ai

import (
	"fmt"
	"strings"

	"github.com/hirelens/screener/internal/adapter/ai/tokencount"
	"github.com/hirelens/screener/internal/domain"
)

// SystemPrompt instructs the model to answer with the analysis schema only.
const SystemPrompt = `You are a resume screening assistant. Evaluate the candidate's resume against the job description and respond with a single JSON object, no prose, using exactly this schema:
{
  "score": <integer 0-100>,
  "pain_points": {"critical": [..], "major": [..], "minor": [..]},
  "summary": "<120-170 word assessment>",
  "status": "Shortlisted" | "Under Consideration" | "Rejected",
  "projects": [{"name": "..", "description": "..", "skills": [..], "relevance": ".."}]
}
Weight the score: 70% project experience against mandatory skills, 10% declared technical skills, 10% preferred skills, 10% years of experience. The resume may contain placeholder tokens like <EMAIL_1234>; treat them as opaque values and never ask about them.`

// UserPromptInput carries the material for one screening prompt.
type UserPromptInput struct {
	JobDescription  string
	MaskedResume    string
	MandatorySkills []string
	PreferredSkills []string
	RequiredYears   float64
}

// BuildUserPrompt assembles the screening prompt from its parts.
func BuildUserPrompt(in UserPromptInput) string {
	var b strings.Builder
	b.WriteString("JOB DESCRIPTION:\n")
	b.WriteString(strings.TrimSpace(in.JobDescription))
	b.WriteString("\n\nMANDATORY SKILLS: ")
	b.WriteString(joinOrNone(in.MandatorySkills))
	b.WriteString("\nPREFERRED SKILLS: ")
	b.WriteString(joinOrNone(in.PreferredSkills))
	if in.RequiredYears > 0 {
		fmt.Fprintf(&b, "\nREQUIRED EXPERIENCE: %.0f years", in.RequiredYears)
	}
	b.WriteString("\n\nRESUME:\n")
	b.WriteString(strings.TrimSpace(in.MaskedResume))
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none stated"
	}
	return strings.Join(items, ", ")
}

// FitPrompt trims the resume portion of the user prompt until the chat
// request fits the token budget. The job description is never trimmed.
func FitPrompt(counter *tokencount.Counter, model string, in UserPromptInput, budget int) (string, error) {
	prompt := BuildUserPrompt(in)
	n, err := counter.CountChatTokens(SystemPrompt, prompt, model)
	if err != nil {
		return "", fmt.Errorf("op=ai.fit_prompt: %w", err)
	}
	for n > budget && len(in.MaskedResume) > 200 {
		in.MaskedResume = in.MaskedResume[:len(in.MaskedResume)*3/4]
		prompt = BuildUserPrompt(in)
		if n, err = counter.CountChatTokens(SystemPrompt, prompt, model); err != nil {
			return "", fmt.Errorf("op=ai.fit_prompt: %w", err)
		}
	}
	if n > budget {
		return "", fmt.Errorf("op=ai.fit_prompt: prompt exceeds budget %d: %w", budget, domain.ErrInvalidArgument)
	}
	return prompt, nil
}
