package service

import (
	"errors"

	"kanban-sync/internal/board"
	"kanban-sync/internal/client"
)

var (
	// ErrNotReady is returned when no user session is active
	ErrNotReady = errors.New("no active session")
	// ErrConfirmationRequired is returned by a force push that was not confirmed
	ErrConfirmationRequired = errors.New("force push requires confirmation")
	// ErrSaveInFlight is returned when a push would overlap a running save
	ErrSaveInFlight = errors.New("a save is already in flight")
	// ErrUploadTooLarge is returned for inline attachments over the size ceiling
	ErrUploadTooLarge = errors.New("file too large for inline storage")
	// ErrAIUnavailable is returned when the assistant refuses the request
	ErrAIUnavailable = errors.New("ai assistant unavailable")
	// ErrCapabilityUnsupported is returned when an optional device capability is absent
	ErrCapabilityUnsupported = errors.New("capability not supported")
	// ErrUnknownUser is returned for a login outside the roster
	ErrUnknownUser = errors.New("unknown user")

	ErrTaskNotFound       = board.ErrTaskNotFound
	ErrAttachmentNotFound = board.ErrAttachmentNotFound
	ErrInvalidColumn      = board.ErrInvalidColumn
	ErrNotConfigured      = client.ErrNotConfigured
)
