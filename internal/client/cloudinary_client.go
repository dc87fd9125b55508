package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kanban-sync/internal/metrics"
)

// CloudinaryCredentials select the account and unsigned upload preset
type CloudinaryCredentials struct {
	CloudName    string
	UploadPreset string
}

// Configured reports whether both values are present
func (c CloudinaryCredentials) Configured() bool {
	return c.CloudName != "" && c.UploadPreset != ""
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CloudinaryClient uploads attachments with unsigned multipart uploads
type CloudinaryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu    sync.RWMutex
	creds CloudinaryCredentials
}

// NewCloudinaryClient creates a new media host client
func NewCloudinaryClient(baseURL string, creds CloudinaryCredentials, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *CloudinaryClient {
	return &CloudinaryClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
		creds:      creds,
	}
}

// Reconfigure swaps the credentials used by subsequent uploads
func (c *CloudinaryClient) Reconfigure(creds CloudinaryCredentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

func (c *CloudinaryClient) Credentials() CloudinaryCredentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

func (c *CloudinaryClient) Configured() bool {
	return c.Credentials().Configured()
}

// Upload posts the file and returns the https URL of the stored asset
func (c *CloudinaryClient) Upload(ctx context.Context, file MediaFile) (string, error) {
	creds := c.Credentials()
	if !creds.Configured() {
		return "", ErrMediaNotConfigured
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.WriteField("upload_preset", creds.UploadPreset); err != nil {
		return "", fmt.Errorf("failed to write upload preset: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/%s/upload", c.baseURL, creds.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

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
		c.logger.Error("Media upload failed",
			zap.Error(err),
			zap.String("file_name", file.Name),
			zap.Duration("duration", duration),
		)
		return "", fmt.Errorf("media upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	var out cloudinaryResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "upload failed"
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		c.logger.Warn("Media host returned non-success status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", msg),
		)
		return "", fmt.Errorf("media upload rejected (status %d): %s", resp.StatusCode, msg)
	}
	if decodeErr != nil || out.SecureURL == "" {
		return "", fmt.Errorf("media host response has no secure_url")
	}

	c.logger.Info("Media uploaded",
		zap.String("file_name", file.Name),
		zap.Int("size", len(file.Data)),
		zap.Duration("duration", duration),
	)
	return out.SecureURL, nil
}
