package domain

import (
	"slices"
)

// ColumnID identifies one of the three fixed board columns
type ColumnID string

const (
	ColumnTodo  ColumnID = "todo"
	ColumnDoing ColumnID = "doing"
	ColumnDone  ColumnID = "done"
)

// Columns lists the board columns in display order
var Columns = []ColumnID{ColumnTodo, ColumnDoing, ColumnDone}

// Valid reports whether the column belongs to the fixed column set
func (c ColumnID) Valid() bool {
	switch c {
	case ColumnTodo, ColumnDoing, ColumnDone:
		return true
	}
	return false
}

// CardStyle is an optional display mode of a task card
type CardStyle string

const (
	CardStyleMinimal CardStyle = "minimal"
	CardStyleFilled  CardStyle = "filled"
)

// AccentPalette is the fixed set of task accent colors
var AccentPalette = []string{
	"#6366f1", // indigo
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#10b981", // emerald
	"#3b82f6", // blue
	"#f59e0b", // amber
}

// InPalette reports whether color is one of the palette values
func InPalette(color string) bool {
	return slices.Contains(AccentPalette, color)
}

// Task is a unit of work on the board.
// Tasks are values: mutations produce a new Task instead of editing one in place.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ColumnID    ColumnID     `json:"columnId"`
	Color       string       `json:"color"`
	CreatedAt   int64        `json:"createdAt"` // unix millis
	Attachments []Attachment `json:"attachments"`
	Editors     []UserID     `json:"editors,omitempty"`
	CardStyle   CardStyle    `json:"cardStyle,omitempty"`
}

// Clone returns a deep copy of the task
func (t Task) Clone() Task {
	t.Attachments = slices.Clone(t.Attachments)
	t.Editors = slices.Clone(t.Editors)
	if t.Attachments == nil {
		t.Attachments = []Attachment{}
	}
	return t
}

// Equal reports structural equality, treating nil and empty slices alike
func (t Task) Equal(o Task) bool {
	if t.ID != o.ID || t.Title != o.Title || t.Description != o.Description ||
		t.ColumnID != o.ColumnID || t.Color != o.Color || t.CreatedAt != o.CreatedAt ||
		t.CardStyle != o.CardStyle {
		return false
	}
	return slices.Equal(t.Attachments, o.Attachments) && slices.Equal(t.Editors, o.Editors)
}

// HasEditor reports whether the user has ever saved a change to the task
func (t Task) HasEditor(id UserID) bool {
	return slices.Contains(t.Editors, id)
}

// WithEditor returns the task with id appended to the editor set if absent
func (t Task) WithEditor(id UserID) Task {
	if t.HasEditor(id) {
		return t
	}
	t.Editors = append(slices.Clone(t.Editors), id)
	return t
}

// TasksEqual compares two task sequences element by element
func TasksEqual(a, b []Task) bool {
	return slices.EqualFunc(a, b, func(x, y Task) bool { return x.Equal(y) })
}

// CloneTasks deep-copies a task sequence
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// HasAttachments reports whether any task in the sequence carries an attachment
func HasAttachments(tasks []Task) bool {
	for _, t := range tasks {
		if len(t.Attachments) > 0 {
			return true
		}
	}
	return false
}

// FindTask returns the index of the task with the given id, or -1
func FindTask(tasks []Task, id string) int {
	return slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
}
