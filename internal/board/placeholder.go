package board

import (
	"time"

	"kanban-sync/internal/domain"
)

// PlaceholderTasks returns the built-in tasks shown on a device that has never synced
func PlaceholderTasks(now time.Time) []domain.Task {
	return []domain.Task{
		{
			ID:          "1",
			Title:       "Learn Kanban",
			Description: "Read about the method, its core principles and how it improves flow.",
			ColumnID:    domain.ColumnTodo,
			Color:       "#6366f1",
			CreatedAt:   now.UnixMilli(),
			Attachments: []domain.Attachment{},
			Editors:     []domain.UserID{1},
		},
		{
			ID:          "2",
			Title:       "Try the board",
			Description: "Create a task, drag it across the columns and attach a picture.",
			ColumnID:    domain.ColumnDoing,
			Color:       "#3b82f6",
			CreatedAt:   now.Add(-100 * time.Second).UnixMilli(),
			Attachments: []domain.Attachment{},
			Editors:     []domain.UserID{2, 3},
		},
	}
}
