package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kanban-sync/internal/board"
	"kanban-sync/internal/domain"
	"kanban-sync/internal/presence"
)

// EngineProvider hands out the sync engine of the active session
type EngineProvider interface {
	Engine() (*SyncEngine, error)
	Tracker() (presence.Tracker, error)
}

// BoardView is the read model of the board for the active user
type BoardView struct {
	Self      domain.UserID
	Tasks     []domain.Task
	Presence  domain.PresenceMap
	Viewers   map[string][]domain.UserID
	Viewing   *string
	Status    SyncStatus
	SizeBytes int
	SizeLevel board.SizeLevel
	Now       time.Time
}

// BoardService defines the interface for board business logic
type BoardService interface {
	View(ctx context.Context) (*BoardView, error)
	AddTask(ctx context.Context, column domain.ColumnID, draft board.Draft) (domain.Task, error)
	UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error)
	MoveTask(ctx context.Context, id string, column domain.ColumnID) error
	DeleteTask(ctx context.Context, id string) error
	SetViewing(ctx context.Context, taskID *string) error
	Dictate(ctx context.Context, taskID string, dictation Dictation) (domain.Task, error)
	Sync(ctx context.Context) error
	ForcePush(ctx context.Context, confirmed bool) error
	Refresh(ctx context.Context) error
}

type boardServiceImpl struct {
	sessions  EngineProvider
	mutator   *board.Mutator
	dictation Dictation
	logger    *zap.Logger
}

// NewBoardService creates a new instance of BoardService.
// dictation is the device capability used when a caller does not bring its own.
func NewBoardService(sessions EngineProvider, mutator *board.Mutator, dictation Dictation, logger *zap.Logger) BoardService {
	if dictation == nil {
		dictation = UnsupportedDictation{}
	}
	return &boardServiceImpl{
		sessions:  sessions,
		mutator:   mutator,
		dictation: dictation,
		logger:    logger,
	}
}

// View returns the board together with derived presence and size data
func (s *boardServiceImpl) View(ctx context.Context) (*BoardView, error) {
	engine, err := s.sessions.Engine()
	if err != nil {
		return nil, err
	}
	tracker, err := s.sessions.Tracker()
	if err != nil {
		return nil, err
	}

	state := engine.State()
	now := engine.Now()
	return &BoardView{
		Self:      engine.Self(),
		Tasks:     state.Tasks,
		Presence:  state.Presence,
		Viewers:   tracker.Viewers(state.Presence, now),
		Viewing:   engine.Viewing(),
		Status:    engine.Status(),
		SizeBytes: state.PayloadSize(),
		SizeLevel: state.SizeLevel(),
		Now:       now,
	}, nil
}

// AddTask appends a task to a column with the session user as first editor
func (s *boardServiceImpl) AddTask(ctx context.Context, column domain.ColumnID, draft board.Draft) (domain.Task, error) {
	engine, err := s.sessions.Engine()
	if err != nil {
		return domain.Task{}, err
	}

	// the creator opens the new task right away
	var created domain.Task
	err = engine.ApplyAndFocus(func(tasks []domain.Task) ([]domain.Task, string, error) {
		next, task, err := s.mutator.Add(tasks, column, draft, engine.Self())
		created = task
		return next, task.ID, err
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.logger.Debug("Task added", zap.String("task_id", created.ID), zap.String("column", string(column)))
	return created, nil
}

// UpdateTask replaces a task's fields and records the session user as an editor
func (s *boardServiceImpl) UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	engine, err := s.sessions.Engine()
	if err != nil {
		return domain.Task{}, err
	}

	var updated domain.Task
	err = engine.Apply(func(tasks []domain.Task) ([]domain.Task, error) {
		next, t, err := s.mutator.Update(tasks, task, engine.Self())
		updated = t
		return next, err
	})
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

func (s *boardServiceImpl) MoveTask(ctx context.Context, id string, column domain.ColumnID) error {
	engine, err := s.sessions.Engine()
	if err != nil {
		return err
	}
	return engine.Apply(func(tasks []domain.Task) ([]domain.Task, error) {
		return s.mutator.Move(tasks, id, column)
	})
}

func (s *boardServiceImpl) DeleteTask(ctx context.Context, id string) error {
	engine, err := s.sessions.Engine()
	if err != nil {
		return err
	}
	return engine.Apply(func(tasks []domain.Task) ([]domain.Task, error) {
		return s.mutator.Delete(tasks, id)
	})
}

// SetViewing marks the task the user has open, nil when none
func (s *boardServiceImpl) SetViewing(ctx context.Context, taskID *string) error {
	engine, err := s.sessions.Engine()
	if err != nil {
		return err
	}
	if taskID != nil {
		if _, ok := engine.State().Task(*taskID); !ok {
			return ErrTaskNotFound
		}
	}
	return engine.SetViewing(taskID)
}

// Dictate appends one spoken utterance to the task description
func (s *boardServiceImpl) Dictate(ctx context.Context, taskID string, dictation Dictation) (domain.Task, error) {
	engine, err := s.sessions.Engine()
	if err != nil {
		return domain.Task{}, err
	}
	if _, ok := engine.State().Task(taskID); !ok {
		return domain.Task{}, ErrTaskNotFound
	}
	if dictation == nil {
		dictation = s.dictation
	}

	transcript, err := dictation.Listen(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	if transcript == "" {
		task, _ := engine.State().Task(taskID)
		return task, nil
	}

	var updated domain.Task
	err = engine.Apply(func(tasks []domain.Task) ([]domain.Task, error) {
		i := domain.FindTask(tasks, taskID)
		if i < 0 {
			return nil, ErrTaskNotFound
		}
		next := tasks[i].Clone()
		next.Description = appendTranscript(next.Description, transcript)
		out, t, err := s.mutator.Update(tasks, next, engine.Self())
		updated = t
		return out, err
	})
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// Sync pulls the remote board immediately
func (s *boardServiceImpl) Sync(ctx context.Context) error {
	engine, err := s.sessions.Engine()
	if err != nil {
		return err
	}
	return engine.ManualSync(ctx)
}

// ForcePush overwrites the remote board with the local one once confirmed
func (s *boardServiceImpl) ForcePush(ctx context.Context, confirmed bool) error {
	engine, err := s.sessions.Engine()
	if err != nil {
		return err
	}
	return engine.ForcePush(ctx, confirmed)
}

// Refresh reloads the board as on session start
func (s *boardServiceImpl) Refresh(ctx context.Context) error {
	engine, err := s.sessions.Engine()
	if err != nil {
		return err
	}
	return engine.Refresh(ctx)
}
