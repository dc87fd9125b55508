package repository

import (
	"context"
	"errors"

	"kanban-sync/internal/domain"
)

// SnapshotRepository is the durable on-device copy of the task list.
// Presence is never stored: it has no meaning offline.
type SnapshotRepository interface {
	ReadLocal(ctx context.Context) ([]domain.Task, error)
	WriteLocal(ctx context.Context, tasks []domain.Task) error
}

type snapshotRepositoryImpl struct {
	entries LocalEntryRepository
}

// NewSnapshotRepository creates a SnapshotRepository on top of the key/value store
func NewSnapshotRepository(entries LocalEntryRepository) SnapshotRepository {
	return &snapshotRepositoryImpl{entries: entries}
}

// ReadLocal returns the backed up tasks, or an empty list when there is no backup
func (r *snapshotRepositoryImpl) ReadLocal(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.entries.Get(ctx, domain.KeyTaskBackup, &tasks); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return []domain.Task{}, nil
		}
		return nil, err
	}
	return domain.CloneTasks(tasks), nil
}

// WriteLocal replaces the backup with tasks
func (r *snapshotRepositoryImpl) WriteLocal(ctx context.Context, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return r.entries.Put(ctx, domain.KeyTaskBackup, tasks)
}
