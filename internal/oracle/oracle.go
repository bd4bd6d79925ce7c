// Package oracle implements the optional parked-page disambiguation
// capability against an OpenAI-compatible chat completions endpoint. It is
// advisory only: callers treat every failure mode as an inconclusive answer.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"linkaudit/internal/audit"
)

const systemPrompt = `You review text snapshots of web pages. Answer with exactly one word.
PARKED if the page is a parked-domain placeholder, a domain-for-sale page, or a hosting provider default page.
NORMAL if the page is a real website that merely mentions such terms.
UNSURE if you cannot tell.`

// Config controls the oracle client. With Enabled false or an empty APIKey
// the client answers inconclusive without ever making a call.
type Config struct {
	Enabled bool
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the chat completions API. Implements audit.Oracle.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ audit.Oracle = (*Client)(nil)

// New builds a client with sane defaults for model, endpoint, and timeout.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify submits the page summary and maps the reply onto the three-valued
// verdict. Disabled configuration short-circuits to inconclusive.
func (c *Client) Classify(ctx context.Context, summary string) (audit.OracleVerdict, error) {
	if !c.cfg.Enabled || c.cfg.APIKey == "" {
		return audit.VerdictInconclusive, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: summary},
		},
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return audit.VerdictInconclusive, fmt.Errorf("marshal oracle request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return audit.VerdictInconclusive, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return audit.VerdictInconclusive, fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return audit.VerdictInconclusive, fmt.Errorf("read oracle response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return audit.VerdictInconclusive, fmt.Errorf("oracle status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return audit.VerdictInconclusive, fmt.Errorf("decode oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return audit.VerdictInconclusive, nil
	}

	verdict := parseVerdict(parsed.Choices[0].Message.Content)
	c.logger.Debug("oracle verdict", zap.String("verdict", string(verdict)))
	return verdict, nil
}

// parseVerdict maps the model reply onto the verdict contract. NORMAL is
// checked first so "NOT PARKED"-style replies do not read as confirmation.
func parseVerdict(reply string) audit.OracleVerdict {
	upper := strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.Contains(upper, "NORMAL"):
		return audit.VerdictNormal
	case strings.Contains(upper, "PARKED"):
		return audit.VerdictConfirmedParked
	default:
		return audit.VerdictInconclusive
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
