package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kanban-sync/internal/client"
	"kanban-sync/internal/domain"
)

// MockMediaUploader is a mock implementation of client.MediaUploader
type MockMediaUploader struct {
	mock.Mock
}

func (m *MockMediaUploader) Upload(ctx context.Context, file client.MediaFile) (string, error) {
	args := m.Called(ctx, file)
	return args.String(0), args.Error(1)
}

func (m *MockMediaUploader) Configured() bool {
	return m.Called().Bool(0)
}

// MockAIClient is a mock implementation of client.AIClient
type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) ImproveDescription(ctx context.Context, title, description string) (string, error) {
	args := m.Called(ctx, title, description)
	return args.String(0), args.Error(1)
}

func (m *MockAIClient) SuggestTasks(ctx context.Context, column domain.ColumnID) ([]client.Suggestion, error) {
	args := m.Called(ctx, column)
	out, _ := args.Get(0).([]client.Suggestion)
	return out, args.Error(1)
}

func (m *MockAIClient) Configured() bool {
	return m.Called().Bool(0)
}

// MockHeartbeat records start and stop calls
type MockHeartbeat struct {
	started int
	stopped int
	pull    func(ctx context.Context) error
}

func (h *MockHeartbeat) Start(pull func(ctx context.Context) error) error {
	h.started++
	h.pull = pull
	return nil
}

func (h *MockHeartbeat) Stop() {
	h.stopped++
}
