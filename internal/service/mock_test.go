package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"kanban-sync/internal/client"
	"kanban-sync/internal/domain"
	"kanban-sync/internal/metrics"
	"kanban-sync/internal/presence"
)

var errUnreachable = &client.StoreError{Kind: client.KindUnreachable, Err: errors.New("dial tcp: connection refused")}

// MockDocumentStore is an in-memory remote document
type MockDocumentStore struct {
	mu        sync.Mutex
	doc       domain.BoardSnapshot
	fetchErr  error
	writeErr  error
	fetches   int
	written   []domain.BoardSnapshot
	writeGate chan struct{}
}

func newMockStore(tasks ...domain.Task) *MockDocumentStore {
	return &MockDocumentStore{doc: domain.BoardSnapshot{Tasks: tasks}.Normalized()}
}

func (m *MockDocumentStore) FetchDocument(ctx context.Context) (domain.BoardSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.fetchErr != nil {
		return domain.BoardSnapshot{}, m.fetchErr
	}
	return domain.BoardSnapshot{Tasks: m.doc.Tasks, Presence: m.doc.Presence.Clone()}.Normalized(), nil
}

func (m *MockDocumentStore) WriteDocument(ctx context.Context, snap domain.BoardSnapshot) error {
	m.mu.Lock()
	gate := m.writeGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	snap = snap.Normalized()
	m.written = append(m.written, snap)
	m.doc = snap
	return nil
}

func (m *MockDocumentStore) Configured() bool { return true }

func (m *MockDocumentStore) setTasks(tasks ...domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc.Tasks = domain.CloneTasks(tasks)
}

func (m *MockDocumentStore) setPresence(p domain.PresenceMap) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc.Presence = p.Clone()
}

func (m *MockDocumentStore) writes() []domain.BoardSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.BoardSnapshot, len(m.written))
	copy(out, m.written)
	return out
}

func (m *MockDocumentStore) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

// MockSnapshotRepository keeps the local backup in memory
type MockSnapshotRepository struct {
	mu     sync.Mutex
	tasks  []domain.Task
	writes int
}

func (m *MockSnapshotRepository) ReadLocal(ctx context.Context) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneTasks(m.tasks), nil
}

func (m *MockSnapshotRepository) WriteLocal(ctx context.Context, tasks []domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = domain.CloneTasks(tasks)
	m.writes++
	return nil
}

func (m *MockSnapshotRepository) snapshot() ([]domain.Task, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneTasks(m.tasks), m.writes
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testSyncConfig keeps the debounce timer out of the way; tests flush explicitly
var testSyncConfig = SyncConfig{
	Debounce:          time.Hour,
	GraceWindow:       5 * time.Second,
	RequestTimeout:    time.Second,
	PresenceRetention: presence.DefaultRetention,
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
}

func newTestEngine(store client.DocumentStore, local *MockSnapshotRepository, cfg SyncConfig) (*SyncEngine, *fakeClock) {
	clock := newFakeClock()
	e := NewSyncEngine(1, store, local, cfg, newTestMetrics(), zap.NewNop())
	e.now = clock.Now
	return e, clock
}

func loadedEngine(t *testing.T, store *MockDocumentStore, local *MockSnapshotRepository) (*SyncEngine, *fakeClock) {
	t.Helper()
	e, clock := newTestEngine(store, local, testSyncConfig)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(e.Stop)
	return e, clock
}

// staticSessions serves one engine as the active session
type staticSessions struct {
	engine *SyncEngine
}

func (s staticSessions) Engine() (*SyncEngine, error) {
	if s.engine == nil {
		return nil, ErrNotReady
	}
	return s.engine, nil
}

func (s staticSessions) Tracker() (presence.Tracker, error) {
	if s.engine == nil {
		return presence.Tracker{}, ErrNotReady
	}
	return presence.NewTracker(s.engine.Self()), nil
}

func task(id string, col domain.ColumnID) domain.Task {
	return domain.Task{
		ID:          id,
		Title:       "Task " + id,
		Description: "",
		ColumnID:    col,
		Color:       domain.AccentPalette[0],
		CreatedAt:   1000,
		Attachments: []domain.Attachment{},
	}
}

func withAttachment(t domain.Task) domain.Task {
	t.Attachments = append(t.Attachments, domain.Attachment{ID: "a-" + t.ID, Type: domain.AttachmentImage, URL: "https://cdn/x.png", Name: "x.png"})
	return t
}
