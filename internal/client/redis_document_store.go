package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"kanban-sync/internal/domain"
	"kanban-sync/internal/metrics"
)

// RedisKV is the part of the redis client the document store needs
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisDocumentStore keeps the board document under a single redis key.
// The stored value is the same JSON the bin service holds.
type RedisDocumentStore struct {
	rdb     RedisKV
	key     string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRedisDocumentStore creates a document store backed by redis
func NewRedisDocumentStore(rdb RedisKV, key string, logger *zap.Logger, m *metrics.Metrics) *RedisDocumentStore {
	return &RedisDocumentStore{rdb: rdb, key: key, logger: logger, metrics: m}
}

func (s *RedisDocumentStore) Configured() bool {
	return s.rdb != nil && s.key != ""
}

// FetchDocument reads the board document. A missing key is an empty board.
func (s *RedisDocumentStore) FetchDocument(ctx context.Context) (domain.BoardSnapshot, error) {
	if !s.Configured() {
		return domain.BoardSnapshot{}, ErrNotConfigured
	}

	start := time.Now()
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	s.record("GET", start, err)

	if errors.Is(err, redis.Nil) {
		return domain.BoardSnapshot{}.Normalized(), nil
	}
	if err != nil {
		s.logger.Error("Redis document read failed", zap.Error(err), zap.String("key", s.key))
		return domain.BoardSnapshot{}, &StoreError{Kind: KindUnreachable, Err: err}
	}

	snap, err := domain.ParseRecord(raw)
	if err != nil {
		return domain.BoardSnapshot{}, &StoreError{Kind: KindMalformedBody, Err: err}
	}
	return snap, nil
}

// WriteDocument replaces the board document
func (s *RedisDocumentStore) WriteDocument(ctx context.Context, snapshot domain.BoardSnapshot) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	raw, err := json.Marshal(snapshot.Normalized())
	if err != nil {
		return fmt.Errorf("failed to marshal board document: %w", err)
	}

	start := time.Now()
	err = s.rdb.Set(ctx, s.key, raw, 0).Err()
	s.record("SET", start, err)
	if err != nil {
		s.logger.Error("Redis document write failed", zap.Error(err), zap.String("key", s.key))
		return &StoreError{Kind: KindUnreachable, Err: err}
	}
	return nil
}

func (s *RedisDocumentStore) record(method string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	status := 200
	if err != nil {
		status = 0
	}
	s.metrics.RecordExternalAPICall("redis://"+s.key, method, status, time.Since(start), err)
}
