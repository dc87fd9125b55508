package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kanban-sync/internal/board"
	"kanban-sync/internal/client"
	"kanban-sync/internal/domain"
)

func newTestEnrichmentService(t *testing.T, ai client.AIClient) (EnrichmentService, *SyncEngine) {
	t.Helper()
	seed := task("1", domain.ColumnTodo)
	seed.Description = "do the thing"
	e, _ := loadedEngine(t, newMockStore(seed), &MockSnapshotRepository{})
	return NewEnrichmentService(staticSessions{engine: e}, board.NewMutator(), ai, zap.NewNop()), e
}

func TestEnrichmentService_Improve(t *testing.T) {
	ai := new(MockAIClient)
	ai.On("Configured").Return(true)
	ai.On("ImproveDescription", mock.Anything, "Task 1", "do the thing").Return("Deliver the thing.", nil)

	svc, e := newTestEnrichmentService(t, ai)
	out, err := svc.Improve(context.Background(), "1")
	require.NoError(t, err)

	assert.Empty(t, out.Notice)
	assert.Equal(t, "Deliver the thing.", out.Task.Description)
	assert.Equal(t, "Deliver the thing.", e.State().Tasks[0].Description)
	assert.True(t, out.Task.HasEditor(e.Self()))
}

func TestEnrichmentService_ImproveDegrades(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ai := new(MockAIClient)
		ai.On("Configured").Return(false)
		svc, e := newTestEnrichmentService(t, ai)

		out, err := svc.Improve(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, NoticeNotConfigured, out.Notice)
		assert.Equal(t, "do the thing", e.State().Tasks[0].Description)
		assert.False(t, e.Status().Syncing)
	})

	t.Run("region refused", func(t *testing.T) {
		ai := new(MockAIClient)
		ai.On("Configured").Return(true)
		ai.On("ImproveDescription", mock.Anything, mock.Anything, mock.Anything).Return("", client.ErrAIRegionUnavailable)
		svc, _ := newTestEnrichmentService(t, ai)

		out, err := svc.Improve(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, NoticeRegionUnavailable, out.Notice)
		assert.True(t, strings.HasPrefix(out.Task.Description, "do the thing\n\n"))
	})

	t.Run("other failure", func(t *testing.T) {
		ai := new(MockAIClient)
		ai.On("Configured").Return(true)
		ai.On("ImproveDescription", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("500"))
		svc, e := newTestEnrichmentService(t, ai)

		out, err := svc.Improve(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, NoticeFailed, out.Notice)
		assert.Equal(t, "do the thing", e.State().Tasks[0].Description)
	})
}

func TestEnrichmentService_BrainstormConstrainsColors(t *testing.T) {
	ai := new(MockAIClient)
	ai.On("Configured").Return(true)
	ai.On("SuggestTasks", mock.Anything, domain.ColumnDoing).Return([]client.Suggestion{
		{Title: "A", Description: "a", Color: "#ec4899"},
		{Title: "B", Description: "b", Color: "tomato"},
		{Title: "C", Description: "c", Color: ""},
	}, nil)

	svc, e := newTestEnrichmentService(t, ai)
	created, err := svc.Brainstorm(context.Background(), domain.ColumnDoing)
	require.NoError(t, err)
	require.Len(t, created, 3)

	assert.Equal(t, "#ec4899", created[0].Color)
	for _, c := range created {
		assert.True(t, domain.InPalette(c.Color), c.Color)
		assert.Equal(t, domain.ColumnDoing, c.ColumnID)
	}
	assert.Len(t, e.State().Tasks, 4)
}

func TestEnrichmentService_BrainstormDegrades(t *testing.T) {
	ai := new(MockAIClient)
	ai.On("Configured").Return(true)
	ai.On("SuggestTasks", mock.Anything, domain.ColumnTodo).Return(nil, client.ErrAIRegionUnavailable)
	ai.On("SuggestTasks", mock.Anything, domain.ColumnDone).Return(nil, errors.New("bad json"))

	svc, e := newTestEnrichmentService(t, ai)

	_, err := svc.Brainstorm(context.Background(), domain.ColumnTodo)
	assert.ErrorIs(t, err, ErrAIUnavailable)

	created, err := svc.Brainstorm(context.Background(), domain.ColumnDone)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Len(t, e.State().Tasks, 1)

	_, err = svc.Brainstorm(context.Background(), domain.ColumnID("nope"))
	assert.ErrorIs(t, err, ErrInvalidColumn)
}
