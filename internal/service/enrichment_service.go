package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"kanban-sync/internal/board"
	"kanban-sync/internal/client"
	"kanban-sync/internal/domain"
)

// Notices shown instead of an assistant answer
const (
	NoticeNotConfigured     = "The assistant needs an API key to help."
	NoticeRegionUnavailable = "(Assistant: not available in your region right now. Try a VPN.)"
	NoticeFailed            = "Sorry, the assistant could not answer (API error)."
)

// Improvement is the outcome of a description rewrite
type Improvement struct {
	Task   domain.Task
	Notice string // set when the assistant did not rewrite the description
}

// EnrichmentService defines the interface for assistant-backed task enrichment
type EnrichmentService interface {
	Improve(ctx context.Context, taskID string) (*Improvement, error)
	Brainstorm(ctx context.Context, column domain.ColumnID) ([]domain.Task, error)
}

type enrichmentServiceImpl struct {
	sessions EngineProvider
	mutator  *board.Mutator
	ai       client.AIClient
	logger   *zap.Logger
}

// NewEnrichmentService creates a new instance of EnrichmentService
func NewEnrichmentService(sessions EngineProvider, mutator *board.Mutator, ai client.AIClient, logger *zap.Logger) EnrichmentService {
	return &enrichmentServiceImpl{sessions: sessions, mutator: mutator, ai: ai, logger: logger}
}

// Improve rewrites the task description. Assistant failures never fail the call:
// a region refusal appends a note to the description, anything else leaves the task untouched.
func (s *enrichmentServiceImpl) Improve(ctx context.Context, taskID string) (*Improvement, error) {
	engine, err := s.sessions.Engine()
	if err != nil {
		return nil, err
	}
	task, ok := engine.State().Task(taskID)
	if !ok {
		return nil, ErrTaskNotFound
	}

	if !s.ai.Configured() {
		return &Improvement{Task: task, Notice: NoticeNotConfigured}, nil
	}

	description, err := s.ai.ImproveDescription(ctx, task.Title, task.Description)
	notice := ""
	switch {
	case errors.Is(err, client.ErrAIRegionUnavailable):
		description = task.Description + "\n\n" + NoticeRegionUnavailable
		notice = NoticeRegionUnavailable
	case err != nil:
		s.logger.Warn("Assistant failed to improve description", zap.Error(err), zap.String("task_id", taskID))
		return &Improvement{Task: task, Notice: NoticeFailed}, nil
	}

	var updated domain.Task
	err = engine.Apply(func(tasks []domain.Task) ([]domain.Task, error) {
		i := domain.FindTask(tasks, taskID)
		if i < 0 {
			return nil, ErrTaskNotFound
		}
		next := tasks[i].Clone()
		next.Description = description
		out, t, err := s.mutator.Update(tasks, next, engine.Self())
		updated = t
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return &Improvement{Task: updated, Notice: notice}, nil
}

// Brainstorm adds the assistant's suggestions to the column.
// Colors outside the palette are replaced by a palette pick.
func (s *enrichmentServiceImpl) Brainstorm(ctx context.Context, column domain.ColumnID) ([]domain.Task, error) {
	if !column.Valid() {
		return nil, ErrInvalidColumn
	}
	engine, err := s.sessions.Engine()
	if err != nil {
		return nil, err
	}
	if !s.ai.Configured() {
		return []domain.Task{}, nil
	}

	suggestions, err := s.ai.SuggestTasks(ctx, column)
	if err != nil {
		if errors.Is(err, client.ErrAIRegionUnavailable) {
			return nil, ErrAIUnavailable
		}
		s.logger.Warn("Assistant brainstorm failed", zap.Error(err), zap.String("column", string(column)))
		return []domain.Task{}, nil
	}
	if len(suggestions) == 0 {
		return []domain.Task{}, nil
	}

	created := make([]domain.Task, 0, len(suggestions))
	err = engine.Apply(func(tasks []domain.Task) ([]domain.Task, error) {
		created = created[:0]
		for _, sg := range suggestions {
			color := sg.Color
			if !domain.InPalette(color) {
				color = ""
			}
			next, t, err := s.mutator.Add(tasks, column, board.Draft{
				Title:       sg.Title,
				Description: sg.Description,
				Color:       color,
			}, engine.Self())
			if err != nil {
				return nil, err
			}
			tasks = next
			created = append(created, t)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
