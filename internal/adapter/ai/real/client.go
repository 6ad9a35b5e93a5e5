// Package real implements the model client backed by an OpenRouter
// compatible chat completions API.
package real

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/hirelens/screener/internal/adapter/observability"
	"github.com/hirelens/screener/internal/config"
	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/internal/service/ratelimiter"
)

// Client implements domain.AIClient for a single model. The orchestrator
// constructs one client per model it may escalate through.
type Client struct {
	cfg   config.Config
	model string
	hc    *http.Client

	// Free-tier providers throttle aggressively; space calls out so a batch
	// run does not burn the quota in the first second.
	mu       sync.Mutex
	lastCall time.Time

	// Optional shared limiter so all replicas draw from one quota.
	limiter ratelimiter.Limiter
}

// New constructs a client bound to one model.
func New(cfg config.Config, model string) *Client {
	return &Client{
		cfg:   cfg,
		model: model,
		hc:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Model returns the model this client is bound to.
func (c *Client) Model() string { return c.model }

// SetLimiter installs a cross-replica rate limiter. A nil limiter leaves
// only the in-process call spacing in effect.
func (c *Client) SetLimiter(l ratelimiter.Limiter) { c.limiter = l }

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	initial, maxInterval, maxElapsed, multiplier := c.cfg.BackoffSettings()
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.MaxElapsedTime = maxElapsed
	expo.Multiplier = multiplier
	return expo
}

func (c *Client) throttle() {
	c.mu.Lock()
	wait := c.cfg.OpenRouterMinInterval - time.Since(c.lastCall)
	c.lastCall = time.Now().Add(wait)
	c.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

// waitForQuota blocks until the shared bucket admits one call or ctx ends.
// Limiter errors fail open: the provider's own 429 handling still applies.
func (c *Client) waitForQuota(ctx domain.Context) error {
	if c.limiter == nil {
		return nil
	}
	for {
		allowed, retryAfter, err := c.limiter.Allow(ctx, c.model, 1)
		if err != nil || allowed {
			return nil
		}
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// ChatJSON calls the chat completions endpoint and returns the raw message
// content. Rate limits and 5xx responses are retried with exponential
// backoff; other 4xx responses fail immediately.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("op=ai.chat: OPENROUTER_API_KEY missing: %w", domain.ErrInvalidArgument)
	}

	body, _ := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	})

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	op := func() error {
		if err := c.waitForQuota(ctx); err != nil {
			return backoff.Permanent(err)
		}
		c.throttle()
		start := time.Now()
		// Rebuild the request each attempt; a consumed body cannot be resent.
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(req)
		outcome := "ok"
		defer func() {
			observability.AIRequestsTotal.WithLabelValues(c.model, outcome).Inc()
			observability.AIRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())
		}()
		if err != nil {
			outcome = "transport_error"
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			outcome = "read_error"
			return err
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			outcome = "rate_limited"
			slog.Warn("model rate limited", slog.String("model", c.model))
			return fmt.Errorf("chat status 429: %w", domain.ErrUpstreamRateLimit)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			outcome = "client_error"
			slog.Warn("model 4xx", slog.String("model", c.model),
				slog.Int("status", resp.StatusCode), slog.String("body", snippet(raw)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			outcome = "server_error"
			slog.Warn("model non-2xx", slog.String("model", c.model),
				slog.Int("status", resp.StatusCode), slog.String("body", snippet(raw)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			outcome = "decode_error"
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.WithContext(c.backoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("op=ai.chat: model=%s: %w", c.model, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=ai.chat: model=%s: %w", c.model, errors.New("empty choices"))
	}
	return out.Choices[0].Message.Content, nil
}

func snippet(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}
