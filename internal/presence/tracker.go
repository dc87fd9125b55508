// Package presence derives user liveness from the presence entries embedded in the board document.
// It holds no state of its own: every answer is a function of a presence map and the current time.
package presence

import (
	"sort"
	"time"

	"kanban-sync/internal/domain"
)

const (
	// DefaultOnlineWindow is how recent an entry must be to count as online or viewing
	DefaultOnlineWindow = 30 * time.Second
	// DefaultRetention is the age after which an entry is dropped during a save
	DefaultRetention = 120 * time.Second
)

// Tracker answers liveness questions for one local user
type Tracker struct {
	Self         domain.UserID
	OnlineWindow time.Duration
}

// NewTracker creates a tracker with the default online window
func NewTracker(self domain.UserID) Tracker {
	return Tracker{Self: self, OnlineWindow: DefaultOnlineWindow}
}

func (t Tracker) window() time.Duration {
	if t.OnlineWindow <= 0 {
		return DefaultOnlineWindow
	}
	return t.OnlineWindow
}

// Fresh reports whether the entry is within the online window
func (t Tracker) Fresh(p domain.UserPresence, now time.Time) bool {
	return p.Age(now) < t.window()
}

// IsOnline reports whether user is online. The local user always is.
func (t Tracker) IsOnline(m domain.PresenceMap, user domain.UserID, now time.Time) bool {
	if user == t.Self {
		return true
	}
	p, ok := m[user.Key()]
	return ok && t.Fresh(p, now)
}

// ViewersOf returns the other users currently viewing the task, ordered by id
func (t Tracker) ViewersOf(m domain.PresenceMap, taskID string, now time.Time) []domain.UserID {
	var viewers []domain.UserID
	for _, p := range m {
		if p.UserID == t.Self || !p.Viewing(taskID) || !t.Fresh(p, now) {
			continue
		}
		viewers = append(viewers, p.UserID)
	}
	sort.Slice(viewers, func(i, j int) bool { return viewers[i] < viewers[j] })
	return viewers
}

// Viewers maps every viewed task id to its viewers
func (t Tracker) Viewers(m domain.PresenceMap, now time.Time) map[string][]domain.UserID {
	out := make(map[string][]domain.UserID)
	for _, p := range m {
		if p.ViewingTaskID == nil || p.UserID == t.Self || !t.Fresh(p, now) {
			continue
		}
		id := *p.ViewingTaskID
		out[id] = append(out[id], p.UserID)
	}
	for id := range out {
		ids := out[id]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return out
}

// Merge overlays own on top of base, keyed by user id.
// Each client only writes its own entry so last-writer-wins per user is safe.
func Merge(base domain.PresenceMap, own domain.UserPresence) domain.PresenceMap {
	out := base.Clone()
	out[own.UserID.Key()] = own
	return out
}

// Collect drops entries older than retention
func Collect(m domain.PresenceMap, now time.Time, retention time.Duration) domain.PresenceMap {
	if retention <= 0 {
		retention = DefaultRetention
	}
	out := make(domain.PresenceMap, len(m))
	for k, p := range m.Clone() {
		if p.Age(now) > retention {
			continue
		}
		out[k] = p
	}
	return out
}

// Entry builds the local user's presence entry stamped at now
func Entry(user domain.UserID, viewing *string, now time.Time) domain.UserPresence {
	var v *string
	if viewing != nil {
		id := *viewing
		v = &id
	}
	return domain.UserPresence{UserID: user, LastSeen: now.UnixMilli(), ViewingTaskID: v}
}
