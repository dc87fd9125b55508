package dto

import (
	"time"

	"kanban-sync/internal/domain"
	"kanban-sync/internal/service"
)

// CreateTaskRequest represents the request to add a task to a column
type CreateTaskRequest struct {
	ColumnID    string `json:"columnId" binding:"required,oneof=todo doing done"`
	Title       string `json:"title" binding:"max=200"`
	Description string `json:"description"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	CardStyle   string `json:"cardStyle" binding:"omitempty,oneof=minimal filled"`
}

// UpdateTaskRequest represents a partial task update. Absent fields keep their value.
type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
	CardStyle   *string `json:"cardStyle" binding:"omitempty,oneof=minimal filled"`
}

// Apply returns task with the request's fields applied
func (r UpdateTaskRequest) Apply(task domain.Task) domain.Task {
	if r.Title != nil {
		task.Title = *r.Title
	}
	if r.Description != nil {
		task.Description = *r.Description
	}
	if r.Color != nil {
		task.Color = *r.Color
	}
	if r.CardStyle != nil {
		task.CardStyle = domain.CardStyle(*r.CardStyle)
	}
	return task
}

// MoveTaskRequest represents the request to move a task to another column
type MoveTaskRequest struct {
	ColumnID string `json:"columnId" binding:"required,oneof=todo doing done"`
}

// SetViewingRequest represents the task the user has open, null for none
type SetViewingRequest struct {
	TaskID *string `json:"taskId"`
}

// DictationRequest optionally carries a transcript recognized by the caller
type DictationRequest struct {
	Transcript *string `json:"transcript"`
}

// ForcePushRequest must carry an explicit confirmation
type ForcePushRequest struct {
	Confirm bool `json:"confirm"`
}

// AttachmentResponse represents an uploaded attachment and the task that owns it
type AttachmentResponse struct {
	Task       domain.Task       `json:"task"`
	Attachment domain.Attachment `json:"attachment"`
}

// ImproveResponse represents the outcome of a description rewrite
type ImproveResponse struct {
	Task   domain.Task `json:"task"`
	Notice string      `json:"notice,omitempty"`
}

// BrainstormResponse lists the tasks created from suggestions
type BrainstormResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

// SyncStatusResponse represents the sync indicator
type SyncStatusResponse struct {
	Connection string     `json:"connection"`
	Syncing    bool       `json:"syncing"`
	Loaded     bool       `json:"loaded"`
	LastSave   *time.Time `json:"lastSave,omitempty"`
}

// PayloadSizeResponse represents the size of the serialized task list
type PayloadSizeResponse struct {
	Bytes int     `json:"bytes"`
	KB    float64 `json:"kb"`
	Level string  `json:"level"`
}

// StateResponse is the full board view of the session user
type StateResponse struct {
	Self       domain.UserID              `json:"self"`
	Tasks      []domain.Task              `json:"tasks"`
	Presence   domain.PresenceMap         `json:"presence"`
	Viewers    map[string][]domain.UserID `json:"viewers"`
	Viewing    *string                    `json:"viewingTaskId"`
	Sync       SyncStatusResponse         `json:"sync"`
	Size       PayloadSizeResponse        `json:"size"`
	ServerTime int64                      `json:"serverTime"`
}

// NewStateResponse converts a board view into its API representation
func NewStateResponse(v *service.BoardView) StateResponse {
	tasks := v.Tasks
	if tasks == nil {
		tasks = []domain.Task{}
	}
	presence := v.Presence
	if presence == nil {
		presence = domain.PresenceMap{}
	}

	status := SyncStatusResponse{
		Connection: string(v.Status.Connection),
		Syncing:    v.Status.Syncing,
		Loaded:     v.Status.Loaded,
	}
	if !v.Status.LastSave.IsZero() {
		last := v.Status.LastSave
		status.LastSave = &last
	}

	return StateResponse{
		Self:     v.Self,
		Tasks:    tasks,
		Presence: presence,
		Viewers:  v.Viewers,
		Viewing:  v.Viewing,
		Sync:     status,
		Size: PayloadSizeResponse{
			Bytes: v.SizeBytes,
			KB:    float64(v.SizeBytes) / 1024,
			Level: string(v.SizeLevel),
		},
		ServerTime: v.Now.UnixMilli(),
	}
}
