// Package stub provides a fast, deterministic model client for local runs
// and tests.
package stub

import (
	"encoding/json"
	"strings"

	"github.com/hirelens/screener/internal/domain"
)

// Client returns canned analysis payloads without network access.
type Client struct{}

// New constructs the stub client.
func New() *Client { return &Client{} }

// ChatJSON returns a compact JSON string matching the analysis schema.
// The verdict leans positive when the prompt mentions Go, so local demos
// can exercise both status branches.
func (c *Client) ChatJSON(_ domain.Context, _ string, userPrompt string, _ int) (string, error) {
	score := 58
	status := string(domain.StatusUnderConsideration)
	if strings.Contains(strings.ToLower(userPrompt), "go") {
		score = 84
		status = string(domain.StatusShortlisted)
	}
	payload := map[string]any{
		"score": score,
		"pain_points": map[string][]string{
			"critical": {},
			"major":    {},
			"minor":    {"Missing preferred skill: Kubernetes"},
		},
		"summary": strings.TrimSpace(strings.Repeat(
			"The candidate shows relevant engineering depth for this role. ", 14)),
		"status": status,
		"projects": []map[string]any{
			{
				"name":        "Payments platform",
				"description": "Built and operated a transaction processing service",
				"skills":      []string{"Go", "PostgreSQL"},
				"relevance":   "Matches Go, PostgreSQL requirements",
			},
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
