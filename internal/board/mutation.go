package board

import (
	"errors"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"kanban-sync/internal/domain"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidColumn      = errors.New("invalid column")
)

// Default texts of a task created without them
const (
	DefaultTitle       = "New task"
	DefaultDescription = "Write something..."
)

// Draft carries the optional fields of a task to create
type Draft struct {
	Title       string
	Description string
	Color       string
	CardStyle   domain.CardStyle
}

// Mutator produces new task sequences. It never edits a task or a sequence in place.
type Mutator struct {
	NewID func() string
	Now   func() time.Time
	Pick  func() string
}

// NewMutator creates a Mutator with uuid ids, wall clock time and a random palette pick
func NewMutator() *Mutator {
	return &Mutator{
		NewID: uuid.NewString,
		Now:   time.Now,
		Pick:  RandomColor,
	}
}

// RandomColor picks a palette color
func RandomColor() string {
	return domain.AccentPalette[rand.IntN(len(domain.AccentPalette))]
}

// Add appends a new task to the column with defaults applied
func (m *Mutator) Add(tasks []domain.Task, column domain.ColumnID, d Draft, creator domain.UserID) ([]domain.Task, domain.Task, error) {
	if !column.Valid() {
		return nil, domain.Task{}, ErrInvalidColumn
	}

	task := domain.Task{
		ID:          m.NewID(),
		Title:       d.Title,
		Description: d.Description,
		ColumnID:    column,
		Color:       d.Color,
		CreatedAt:   m.Now().UnixMilli(),
		Attachments: []domain.Attachment{},
		Editors:     []domain.UserID{creator},
		CardStyle:   d.CardStyle,
	}
	if task.Title == "" {
		task.Title = DefaultTitle
	}
	if task.Description == "" {
		task.Description = DefaultDescription
	}
	if task.Color == "" {
		task.Color = m.Pick()
	}

	out := make([]domain.Task, 0, len(tasks)+1)
	out = append(out, tasks...)
	out = append(out, task)
	return out, task, nil
}

// Update replaces the task with the same id and records the actor as an editor.
// The id, creation time and existing editors are kept from the stored task.
func (m *Mutator) Update(tasks []domain.Task, updated domain.Task, actor domain.UserID) ([]domain.Task, domain.Task, error) {
	i := domain.FindTask(tasks, updated.ID)
	if i < 0 {
		return nil, domain.Task{}, ErrTaskNotFound
	}
	if !updated.ColumnID.Valid() {
		return nil, domain.Task{}, ErrInvalidColumn
	}

	current := tasks[i]
	next := updated.Clone()
	next.CreatedAt = current.CreatedAt
	next.Editors = slices.Clone(current.Editors)
	next = next.WithEditor(actor)

	return replaceAt(tasks, i, next), next, nil
}

// Move sets the column of a task
func (m *Mutator) Move(tasks []domain.Task, id string, column domain.ColumnID) ([]domain.Task, error) {
	if !column.Valid() {
		return nil, ErrInvalidColumn
	}
	i := domain.FindTask(tasks, id)
	if i < 0 {
		return nil, ErrTaskNotFound
	}
	next := tasks[i].Clone()
	next.ColumnID = column
	return replaceAt(tasks, i, next), nil
}

// Delete removes a task together with its attachments
func (m *Mutator) Delete(tasks []domain.Task, id string) ([]domain.Task, error) {
	i := domain.FindTask(tasks, id)
	if i < 0 {
		return nil, ErrTaskNotFound
	}
	out := make([]domain.Task, 0, len(tasks)-1)
	out = append(out, tasks[:i]...)
	out = append(out, tasks[i+1:]...)
	return out, nil
}

// AddAttachment appends an attachment to a task as an update by actor
func (m *Mutator) AddAttachment(tasks []domain.Task, taskID string, a domain.Attachment, actor domain.UserID) ([]domain.Task, domain.Task, error) {
	i := domain.FindTask(tasks, taskID)
	if i < 0 {
		return nil, domain.Task{}, ErrTaskNotFound
	}
	next := tasks[i].Clone()
	next.Attachments = append(next.Attachments, a)
	return m.Update(tasks, next, actor)
}

// RemoveAttachment drops one attachment from a task as an update by actor
func (m *Mutator) RemoveAttachment(tasks []domain.Task, taskID, attachmentID string, actor domain.UserID) ([]domain.Task, domain.Task, error) {
	i := domain.FindTask(tasks, taskID)
	if i < 0 {
		return nil, domain.Task{}, ErrTaskNotFound
	}
	next := tasks[i].Clone()
	j := slices.IndexFunc(next.Attachments, func(a domain.Attachment) bool { return a.ID == attachmentID })
	if j < 0 {
		return nil, domain.Task{}, ErrAttachmentNotFound
	}
	next.Attachments = slices.Delete(next.Attachments, j, j+1)
	return m.Update(tasks, next, actor)
}

func replaceAt(tasks []domain.Task, i int, t domain.Task) []domain.Task {
	out := slices.Clone(tasks)
	out[i] = t
	return out
}
