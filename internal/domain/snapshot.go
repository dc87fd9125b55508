package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedRecord is returned when a stored record has an unexpected shape
var ErrMalformedRecord = errors.New("malformed board record")

// BoardSnapshot is the whole unit of remote persistence
type BoardSnapshot struct {
	Tasks    []Task      `json:"tasks"`
	Presence PresenceMap `json:"presence"`
}

// Normalized fills nil collections so the snapshot always serializes as arrays and objects
func (s BoardSnapshot) Normalized() BoardSnapshot {
	s.Tasks = CloneTasks(s.Tasks)
	if s.Presence == nil {
		s.Presence = PresenceMap{}
	}
	return s
}

// ParseRecord decodes a stored board record.
// Besides the {tasks, presence} object it accepts the legacy bare task array,
// which carries no presence. A null or task-less object is an empty board.
func ParseRecord(raw []byte) (BoardSnapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return BoardSnapshot{}.Normalized(), nil
	}

	switch trimmed[0] {
	case '[':
		var tasks []Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return BoardSnapshot{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		return BoardSnapshot{Tasks: tasks}.Normalized(), nil
	case '{':
		var snap BoardSnapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return BoardSnapshot{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		return snap.Normalized(), nil
	default:
		return BoardSnapshot{}, fmt.Errorf("%w: unexpected record type", ErrMalformedRecord)
	}
}
