package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"kanban-sync/internal/domain"
	"kanban-sync/internal/metrics"
)

var (
	// ErrAINotConfigured is returned when no API key is set
	ErrAINotConfigured = errors.New("ai assistant not configured")
	// ErrAIRegionUnavailable is returned when the provider refuses the caller's region
	ErrAIRegionUnavailable = errors.New("ai assistant not available in this region")
)

// Suggestion is a task proposed by the assistant
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// AIClient rewrites descriptions and proposes tasks
type AIClient interface {
	ImproveDescription(ctx context.Context, title, description string) (string, error)
	SuggestTasks(ctx context.Context, column domain.ColumnID) ([]Suggestion, error)
	Configured() bool
}

var columnContext = map[domain.ColumnID]string{
	domain.ColumnTodo:  "new strategic tasks for the business",
	domain.ColumnDoing: "tasks in active development",
	domain.ColumnDone:  "success metrics and completed milestones",
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig map[string]any  `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// geminiClient calls the generateContent REST endpoint
type geminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewGeminiClient creates a new AI client
func NewGeminiClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) AIClient {
	return &geminiClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
	}
}

func (c *geminiClient) Configured() bool {
	return c.apiKey != ""
}

// ImproveDescription returns a more professional rewrite of the description
func (c *geminiClient) ImproveDescription(ctx context.Context, title, description string) (string, error) {
	if !c.Configured() {
		return "", ErrAINotConfigured
	}

	prompt := fmt.Sprintf(`You are a smart and concise project manager.
The user wrote a task: %q.
Description: %q.

Rewrite the task description so that it is more professional, clear and inspiring.
Use a business style and avoid filler.
Return ONLY the improved description text.`, title, description)

	text, err := c.generate(ctx, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return description, nil
	}
	return text, nil
}

// SuggestTasks asks for three tasks that fit the column
func (c *geminiClient) SuggestTasks(ctx context.Context, column domain.ColumnID) ([]Suggestion, error) {
	if !c.Configured() {
		return nil, ErrAINotConfigured
	}

	prompt := fmt.Sprintf(`Come up with 3 creative tasks for the column %q (%s).
Return the answer as JSON.
Every task must have title, description and color.
IMPORTANT: color must be one of these hex codes: %s.`,
		column, columnContext[column], strings.Join(domain.AccentPalette, ", "))

	text, err := c.generate(ctx, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: map[string]any{
			"responseMimeType": "application/json",
			"responseSchema": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"title":       map[string]string{"type": "STRING"},
						"description": map[string]string{"type": "STRING"},
						"color":       map[string]string{"type": "STRING"},
					},
					"required": []string{"title", "description", "color"},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var out []Suggestion
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}
	return out, nil
}

func (c *geminiClient) generate(ctx context.Context, payload geminiRequest) (string, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(url, http.MethodPost, statusCode, duration, err)
	}

	if err != nil {
		c.logger.Error("AI request failed", zap.Error(err), zap.Duration("duration", duration))
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ai response: %w", err)
	}

	var out geminiResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil && out.Error != nil {
			msg = out.Error.Message
		}
		c.logger.Warn("AI provider returned non-success status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", msg),
		)
		if resp.StatusCode == http.StatusForbidden || strings.Contains(msg, "Region not supported") {
			return "", ErrAIRegionUnavailable
		}
		return "", fmt.Errorf("ai provider returned status %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode ai response: %w", decodeErr)
	}

	var sb strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	return sb.String(), nil
}
