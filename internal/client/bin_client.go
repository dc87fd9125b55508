package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kanban-sync/internal/domain"
	"kanban-sync/internal/metrics"
)

// binEnvelope is the read response shape of the bin service
type binEnvelope struct {
	Record json.RawMessage `json:"record"`
}

// BinClient talks to a JSONBin-style document service
type BinClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu    sync.RWMutex
	creds BinCredentials
}

// NewBinClient creates a new bin service client
func NewBinClient(baseURL string, creds BinCredentials, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *BinClient {
	return &BinClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
		creds:   creds,
	}
}

// Reconfigure swaps the credentials used by subsequent calls
func (c *BinClient) Reconfigure(creds BinCredentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

// Credentials returns the credentials currently in use
func (c *BinClient) Credentials() BinCredentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

func (c *BinClient) Configured() bool {
	return c.Credentials().Configured()
}

// FetchDocument reads the board document
func (c *BinClient) FetchDocument(ctx context.Context) (domain.BoardSnapshot, error) {
	creds := c.Credentials()
	if !creds.Configured() {
		return domain.BoardSnapshot{}, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/b/%s", c.baseURL, creds.BinID)
	body, err := c.do(ctx, http.MethodGet, url, creds.APIKey, nil)
	if err != nil {
		return domain.BoardSnapshot{}, err
	}

	var env binEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.BoardSnapshot{}, &StoreError{Kind: KindMalformedBody, Err: err}
	}
	snap, err := domain.ParseRecord(env.Record)
	if err != nil {
		c.logger.Warn("Remote document has an unexpected shape", zap.Error(err))
		return domain.BoardSnapshot{}, &StoreError{Kind: KindMalformedBody, Err: err}
	}
	return snap, nil
}

// WriteDocument replaces the board document
func (c *BinClient) WriteDocument(ctx context.Context, snapshot domain.BoardSnapshot) error {
	creds := c.Credentials()
	if !creds.Configured() {
		return ErrNotConfigured
	}

	jsonBody, err := json.Marshal(snapshot.Normalized())
	if err != nil {
		return fmt.Errorf("failed to marshal board document: %w", err)
	}

	url := fmt.Sprintf("%s/b/%s", c.baseURL, creds.BinID)
	_, err = c.do(ctx, http.MethodPut, url, creds.APIKey, jsonBody)
	return err
}

func (c *BinClient) do(ctx context.Context, method, url, apiKey string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", apiKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(url, method, statusCode, duration, err)
	}

	if err != nil {
		c.logger.Error("Remote store request failed",
			zap.Error(err),
			zap.String("method", method),
			zap.Duration("duration", duration),
		)
		return nil, &StoreError{Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StoreError{Kind: KindUnreachable, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := statusError(resp.StatusCode)
		if serr.Kind == KindUnauthorized {
			c.logger.Warn("Remote store denied access, check credentials",
				zap.Int("status_code", resp.StatusCode),
				zap.String("method", method),
			)
		} else {
			c.logger.Warn("Remote store returned non-success status",
				zap.Int("status_code", resp.StatusCode),
				zap.String("method", method),
				zap.Duration("duration", duration),
			)
		}
		return nil, serr
	}

	c.logger.Debug("Remote store request completed",
		zap.String("method", method),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", duration),
	)
	return body, nil
}
