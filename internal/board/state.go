// Package board holds the in-memory board state and the pure mutations applied to it.
package board

import (
	"encoding/json"
	"time"

	"kanban-sync/internal/domain"
	"kanban-sync/internal/presence"
)

// Payload size thresholds. They are informational, nothing is enforced.
const (
	SizeWarningBytes  = 80 * 1024
	SizeCriticalBytes = 100 * 1024
)

// SizeLevel classifies the serialized payload size
type SizeLevel string

const (
	SizeNormal   SizeLevel = "normal"
	SizeWarning  SizeLevel = "warning"
	SizeCritical SizeLevel = "critical"
)

// State is the reconciled board held by a client
type State struct {
	Tasks    []domain.Task
	Presence domain.PresenceMap
}

// NewState copies tasks and presence into a new state
func NewState(tasks []domain.Task, p domain.PresenceMap) State {
	if p == nil {
		p = domain.PresenceMap{}
	}
	return State{Tasks: domain.CloneTasks(tasks), Presence: p.Clone()}
}

// Snapshot returns the state as a persistable snapshot
func (s State) Snapshot() domain.BoardSnapshot {
	return domain.BoardSnapshot{Tasks: domain.CloneTasks(s.Tasks), Presence: s.Presence.Clone()}.Normalized()
}

// PayloadSize returns the byte size of the serialized task list
func (s State) PayloadSize() int {
	tasks := s.Tasks
	if tasks == nil {
		tasks = []domain.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return 0
	}
	return len(b)
}

// SizeLevel classifies PayloadSize against the warning thresholds
func (s State) SizeLevel() SizeLevel {
	return LevelFor(s.PayloadSize())
}

// LevelFor classifies a payload size in bytes
func LevelFor(size int) SizeLevel {
	switch {
	case size < SizeWarningBytes:
		return SizeNormal
	case size < SizeCriticalBytes:
		return SizeWarning
	default:
		return SizeCritical
	}
}

// ViewersOf lists the other users currently viewing the task
func (s State) ViewersOf(taskID string, tracker presence.Tracker, now time.Time) []domain.UserID {
	return tracker.ViewersOf(s.Presence, taskID, now)
}

// Task looks a task up by id
func (s State) Task(id string) (domain.Task, bool) {
	i := domain.FindTask(s.Tasks, id)
	if i < 0 {
		return domain.Task{}, false
	}
	return s.Tasks[i].Clone(), true
}
