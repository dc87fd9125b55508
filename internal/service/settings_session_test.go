package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kanban-sync/internal/client"
	"kanban-sync/internal/domain"
	"kanban-sync/internal/repository"
)

// MockSettingsRepository keeps settings in memory
type MockSettingsRepository struct {
	user   *domain.UserID
	remote *repository.RemoteCredentials
	media  *repository.MediaCredentials
	prefs  repository.Preferences
}

func (m *MockSettingsRepository) RememberedUser(ctx context.Context) (domain.UserID, bool, error) {
	if m.user == nil {
		return 0, false, nil
	}
	return *m.user, true, nil
}

func (m *MockSettingsRepository) RememberUser(ctx context.Context, id domain.UserID) error {
	m.user = &id
	return nil
}

func (m *MockSettingsRepository) ForgetUser(ctx context.Context) error {
	m.user = nil
	return nil
}

func (m *MockSettingsRepository) RemoteCredentials(ctx context.Context) (repository.RemoteCredentials, bool, error) {
	if m.remote == nil {
		return repository.RemoteCredentials{}, false, nil
	}
	return *m.remote, true, nil
}

func (m *MockSettingsRepository) SaveRemoteCredentials(ctx context.Context, c repository.RemoteCredentials) error {
	m.remote = &c
	return nil
}

func (m *MockSettingsRepository) MediaCredentials(ctx context.Context) (repository.MediaCredentials, bool, error) {
	if m.media == nil {
		return repository.MediaCredentials{}, false, nil
	}
	return *m.media, true, nil
}

func (m *MockSettingsRepository) SaveMediaCredentials(ctx context.Context, c repository.MediaCredentials) error {
	m.media = &c
	return nil
}

func (m *MockSettingsRepository) Preferences(ctx context.Context) (repository.Preferences, error) {
	return m.prefs, nil
}

func (m *MockSettingsRepository) SavePreferences(ctx context.Context, p repository.Preferences) error {
	m.prefs = p
	return nil
}

func newTestSessions(store *MockDocumentStore, settings repository.SettingsRepository, hb *MockHeartbeat) SessionService {
	factory := func(user domain.UserID) *SyncEngine {
		return NewSyncEngine(user, store, &MockSnapshotRepository{}, testSyncConfig, newTestMetrics(), zap.NewNop())
	}
	return NewSessionService(domain.DefaultRoster, settings, factory, hb, 30*time.Second, zap.NewNop())
}

func TestSessionService_LoginLogout(t *testing.T) {
	store := newMockStore(task("1", domain.ColumnTodo))
	settings := &MockSettingsRepository{}
	hb := &MockHeartbeat{}
	sessions := newTestSessions(store, settings, hb)
	ctx := context.Background()

	_, err := sessions.Engine()
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = sessions.Login(ctx, 42)
	assert.ErrorIs(t, err, ErrUnknownUser)

	user, err := sessions.Login(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(2), user.ID)
	require.NotNil(t, settings.user)
	assert.Equal(t, domain.UserID(2), *settings.user)
	assert.Equal(t, 1, hb.started)

	engine, err := sessions.Engine()
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(2), engine.Self())
	assert.Len(t, engine.State().Tasks, 1)

	tracker, err := sessions.Tracker()
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(2), tracker.Self)

	// the heartbeat drives the engine's pull
	require.NoError(t, hb.pull(ctx))

	require.NoError(t, sessions.Logout(ctx))
	assert.Equal(t, 1, hb.stopped)
	assert.Nil(t, settings.user)
	_, ok := sessions.Current()
	assert.False(t, ok)
	assert.ErrorIs(t, engine.Apply(func(tasks []domain.Task) ([]domain.Task, error) { return tasks, nil }), ErrNotReady)
	assert.ErrorIs(t, sessions.Logout(ctx), ErrNotReady)
}

func TestSessionService_SwitchUser(t *testing.T) {
	hb := &MockHeartbeat{}
	sessions := newTestSessions(newMockStore(), &MockSettingsRepository{}, hb)
	ctx := context.Background()

	_, err := sessions.Login(ctx, 1)
	require.NoError(t, err)
	first, _ := sessions.Engine()

	_, err = sessions.Login(ctx, 3)
	require.NoError(t, err)
	second, _ := sessions.Engine()

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, hb.stopped)
	assert.Equal(t, 2, hb.started)
}

func TestSessionService_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("remembered user", func(t *testing.T) {
		id := domain.UserID(3)
		sessions := newTestSessions(newMockStore(), &MockSettingsRepository{user: &id}, &MockHeartbeat{})
		ok, err := sessions.Restore(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		user, _ := sessions.Current()
		assert.Equal(t, domain.UserID(3), user.ID)
	})

	t.Run("fallback", func(t *testing.T) {
		sessions := newTestSessions(newMockStore(), &MockSettingsRepository{}, &MockHeartbeat{})
		ok, err := sessions.Restore(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("nobody", func(t *testing.T) {
		sessions := newTestSessions(newMockStore(), &MockSettingsRepository{}, &MockHeartbeat{})
		ok, err := sessions.Restore(ctx, 0)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSettingsService_UpdateReconfiguresAndReloads(t *testing.T) {
	store := newMockStore(task("1", domain.ColumnTodo))
	repo := &MockSettingsRepository{}
	sessions := newTestSessions(store, repo, &MockHeartbeat{})
	ctx := context.Background()
	_, err := sessions.Login(ctx, 1)
	require.NoError(t, err)

	bin := client.NewBinClient("http://unused", client.BinCredentials{}, time.Second, zap.NewNop(), nil)
	media := client.NewCloudinaryClient("http://unused", client.CloudinaryCredentials{}, time.Second, zap.NewNop(), nil)
	svc := NewSettingsService(repo, bin, media, sessions, zap.NewNop())

	store.setTasks(task("2", domain.ColumnTodo))
	out, err := svc.Update(ctx, SettingsUpdate{
		Remote:      &client.BinCredentials{BinID: " bin ", APIKey: "key"},
		Media:       &client.CloudinaryCredentials{CloudName: "demo", UploadPreset: "p"},
		Preferences: &repository.Preferences{Effects: true},
	})
	require.NoError(t, err)

	assert.Equal(t, client.BinCredentials{BinID: "bin", APIKey: "key"}, bin.Credentials())
	assert.True(t, media.Configured())
	assert.Equal(t, "bin", repo.remote.BinID)
	assert.Equal(t, "demo", repo.media.CloudName)
	assert.True(t, out.Preferences.Effects)

	engine, _ := sessions.Engine()
	assert.Equal(t, "2", engine.State().Tasks[0].ID, "a new remote reloads the board")
}

func TestSettingsService_ApplyCached(t *testing.T) {
	repo := &MockSettingsRepository{
		remote: &repository.RemoteCredentials{BinID: "cached", APIKey: "k"},
		media:  &repository.MediaCredentials{CloudName: "c", UploadPreset: "p"},
	}
	bin := client.NewBinClient("http://unused", client.BinCredentials{BinID: "file", APIKey: "f"}, time.Second, zap.NewNop(), nil)
	media := client.NewCloudinaryClient("http://unused", client.CloudinaryCredentials{}, time.Second, zap.NewNop(), nil)
	svc := NewSettingsService(repo, bin, media, staticSessions{}, zap.NewNop())

	require.NoError(t, svc.ApplyCached(context.Background()))
	assert.Equal(t, "cached", bin.Credentials().BinID)
	assert.Equal(t, "c", media.Credentials().CloudName)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got.Remote)
	assert.Equal(t, "cached", got.Remote.BinID)
}

func TestSettingsService_WithoutConfigurers(t *testing.T) {
	repo := &MockSettingsRepository{}
	svc := NewSettingsService(repo, nil, nil, staticSessions{}, zap.NewNop())

	out, err := svc.Update(context.Background(), SettingsUpdate{
		Remote:      &client.BinCredentials{BinID: "x", APIKey: "y"},
		Preferences: &repository.Preferences{Effects: true},
	})
	require.NoError(t, err)
	assert.Nil(t, out.Remote)
	assert.Nil(t, repo.remote)
	assert.True(t, out.Preferences.Effects)
}
