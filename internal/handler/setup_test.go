package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kanban-sync/internal/board"
	"kanban-sync/internal/client"
	"kanban-sync/internal/domain"
	"kanban-sync/internal/metrics"
	"kanban-sync/internal/repository"
	"kanban-sync/internal/service"
)

// memStore is an in-memory remote document
type memStore struct {
	mu       sync.Mutex
	doc      domain.BoardSnapshot
	writes   int
	fetchErr error
}

func (s *memStore) FetchDocument(ctx context.Context) (domain.BoardSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return domain.BoardSnapshot{}, s.fetchErr
	}
	return domain.BoardSnapshot{Tasks: domain.CloneTasks(s.doc.Tasks), Presence: s.doc.Presence.Clone()}.Normalized(), nil
}

func (s *memStore) WriteDocument(ctx context.Context, snap domain.BoardSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = snap.Normalized()
	s.writes++
	return nil
}

func (s *memStore) Configured() bool { return true }

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type noopHeartbeat struct{}

func (noopHeartbeat) Start(pull func(ctx context.Context) error) error { return nil }
func (noopHeartbeat) Stop() {}

// stubAI answers every request with fixed content
type stubAI struct {
	improved    string
	suggestions []client.Suggestion
	err         error
}

func (a *stubAI) ImproveDescription(ctx context.Context, title, description string) (string, error) {
	return a.improved, a.err
}

func (a *stubAI) SuggestTasks(ctx context.Context, column domain.ColumnID) ([]client.Suggestion, error) {
	return a.suggestions, a.err
}

func (a *stubAI) Configured() bool { return true }

type testEnv struct {
	store    *memStore
	ai       *stubAI
	sessions service.SessionService
	boards   service.BoardService
	metrics  *metrics.Metrics
	router   *gin.Engine
}

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.LocalEntry{}))
	return db
}

// setupTestEnv wires real services over an in-memory remote and an in-memory local store
func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	db := newTestDB(t)
	entries := repository.NewLocalEntryRepository(db)
	snapshots := repository.NewSnapshotRepository(entries)
	settingsRepo := repository.NewSettingsRepository(entries)

	store := &memStore{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), log)
	// the debounce is long enough that no save fires on its own during a test
	syncCfg := service.SyncConfig{Debounce: time.Hour, GraceWindow: 5 * time.Second, RequestTimeout: time.Second}
	factory := func(id domain.UserID) *service.SyncEngine {
		return service.NewSyncEngine(id, store, snapshots, syncCfg, m, log)
	}

	sessions := service.NewSessionService(domain.DefaultRoster, settingsRepo, factory, noopHeartbeat{}, 30*time.Second, log)
	mutator := board.NewMutator()
	ai := &stubAI{}

	boards := service.NewBoardService(sessions, mutator, nil, log)
	attachments := service.NewAttachmentService(sessions, mutator, client.NewNoOpMediaUploader(), log)
	enrichment := service.NewEnrichmentService(sessions, mutator, ai, log)
	settings := service.NewSettingsService(settingsRepo, nil, nil, sessions, log)

	boardHandler := NewBoardHandler(boards, log)
	syncHandler := NewSyncHandler(boards, log)
	sessionHandler := NewSessionHandler(sessions, log)
	attachmentHandler := NewAttachmentHandler(attachments, log)
	enrichmentHandler := NewEnrichmentHandler(enrichment, log)
	settingsHandler := NewSettingsHandler(settings, log)
	streamHandler := NewStreamHandler(sessions, boards, m, log)

	r := gin.New()
	r.GET("/users", sessionHandler.GetUsers)
	r.GET("/session", sessionHandler.GetSession)
	r.POST("/session", sessionHandler.Login)
	r.DELETE("/session", sessionHandler.Logout)
	r.GET("/state", boardHandler.GetState)
	r.POST("/tasks", boardHandler.CreateTask)
	r.PUT("/tasks/:id", boardHandler.UpdateTask)
	r.PATCH("/tasks/:id/column", boardHandler.MoveTask)
	r.DELETE("/tasks/:id", boardHandler.DeleteTask)
	r.PUT("/viewing", boardHandler.SetViewing)
	r.POST("/tasks/:id/dictation", boardHandler.Dictate)
	r.POST("/tasks/:id/attachments", attachmentHandler.UploadAttachment)
	r.DELETE("/tasks/:id/attachments/:attachmentId", attachmentHandler.DeleteAttachment)
	r.POST("/tasks/:id/improve", enrichmentHandler.Improve)
	r.POST("/columns/:columnId/brainstorm", enrichmentHandler.Brainstorm)
	r.POST("/sync", syncHandler.Sync)
	r.POST("/sync/force-push", syncHandler.ForcePush)
	r.POST("/sync/refresh", syncHandler.Refresh)
	r.GET("/settings", settingsHandler.GetSettings)
	r.PUT("/settings", settingsHandler.UpdateSettings)
	r.GET("/stream", streamHandler.Stream)

	t.Cleanup(func() { _ = sessions.Logout(context.Background()) })

	return &testEnv{store: store, ai: ai, sessions: sessions, boards: boards, metrics: m, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, id int) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/session", map[string]int{"userId": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (e *testEnv) createTask(t *testing.T, column, title string) domain.Task {
	t.Helper()
	w := e.do(t, http.MethodPost, "/tasks", map[string]string{"columnId": column, "title": title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task domain.Task
	decodeData(t, w, &task)
	return task
}

// decodeData unwraps the success envelope into dst
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}
