package domain

import "time"

// UserPresence is the ephemeral liveness record of one user.
// LastSeen only moves when that user's client saves the board.
type UserPresence struct {
	UserID        UserID  `json:"userId"`
	LastSeen      int64   `json:"lastSeen"` // unix millis
	ViewingTaskID *string `json:"viewingTaskId"`
}

// Age returns how long ago the entry was written relative to now
func (p UserPresence) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-p.LastSeen) * time.Millisecond
}

// Viewing reports whether the entry points at the given task
func (p UserPresence) Viewing(taskID string) bool {
	return p.ViewingTaskID != nil && *p.ViewingTaskID == taskID
}

// PresenceMap holds presence entries keyed by the decimal user id
type PresenceMap map[string]UserPresence

// Clone returns a copy of the map
func (m PresenceMap) Clone() PresenceMap {
	out := make(PresenceMap, len(m))
	for k, v := range m {
		if v.ViewingTaskID != nil {
			id := *v.ViewingTaskID
			v.ViewingTaskID = &id
		}
		out[k] = v
	}
	return out
}
