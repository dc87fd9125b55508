package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"kanban-sync/internal/domain"
	"kanban-sync/internal/presence"
	"kanban-sync/internal/repository"
)

// Heartbeat runs a pull function on a fixed interval until stopped
type Heartbeat interface {
	Start(pull func(ctx context.Context) error) error
	Stop()
}

// EngineFactory builds the sync engine of a session
type EngineFactory func(user domain.UserID) *SyncEngine

// SessionService selects the local user and owns the sync engine of that user's session
type SessionService interface {
	Roster() []domain.User
	Login(ctx context.Context, id domain.UserID) (domain.User, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context, fallback domain.UserID) (bool, error)
	Current() (domain.User, bool)
	Engine() (*SyncEngine, error)
	Tracker() (presence.Tracker, error)
}

type sessionServiceImpl struct {
	roster       []domain.User
	settings     repository.SettingsRepository
	newEngine    EngineFactory
	heartbeat    Heartbeat
	onlineWindow time.Duration
	logger       *zap.Logger

	mu     sync.Mutex
	user   *domain.User
	engine *SyncEngine
}

// NewSessionService creates a new instance of SessionService
func NewSessionService(
	roster []domain.User,
	settings repository.SettingsRepository,
	newEngine EngineFactory,
	heartbeat Heartbeat,
	onlineWindow time.Duration,
	logger *zap.Logger,
) SessionService {
	return &sessionServiceImpl{
		roster:       roster,
		settings:     settings,
		newEngine:    newEngine,
		heartbeat:    heartbeat,
		onlineWindow: onlineWindow,
		logger:       logger,
	}
}

func (s *sessionServiceImpl) Roster() []domain.User {
	out := make([]domain.User, len(s.roster))
	copy(out, s.roster)
	return out
}

// Login starts a session for a roster user and remembers the choice on the device
func (s *sessionServiceImpl) Login(ctx context.Context, id domain.UserID) (domain.User, error) {
	user, ok := domain.FindUser(s.roster, id)
	if !ok {
		return domain.User{}, ErrUnknownUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil {
		if s.user.ID == id {
			return *s.user, nil
		}
		s.endLocked()
	}

	if err := s.settings.RememberUser(ctx, id); err != nil {
		s.logger.Warn("Failed to remember user", zap.Error(err))
	}

	engine := s.newEngine(id)
	if err := engine.Load(ctx); err != nil {
		engine.Stop()
		return domain.User{}, err
	}
	if err := s.heartbeat.Start(engine.Pull); err != nil {
		engine.Stop()
		return domain.User{}, err
	}

	s.user = &user
	s.engine = engine
	s.logger.Info("Session started", zap.Int("user_id", int(id)), zap.String("name", user.Name))
	return user, nil
}

// Logout ends the session and forgets the remembered user
func (s *sessionServiceImpl) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return ErrNotReady
	}
	s.endLocked()
	return s.settings.ForgetUser(ctx)
}

func (s *sessionServiceImpl) endLocked() {
	s.heartbeat.Stop()
	s.engine.Stop()
	s.logger.Info("Session ended", zap.Int("user_id", int(s.user.ID)))
	s.user = nil
	s.engine = nil
}

// Restore logs the remembered user back in, or fallback when nothing is remembered.
// A zero fallback means no automatic login.
func (s *sessionServiceImpl) Restore(ctx context.Context, fallback domain.UserID) (bool, error) {
	id, found, err := s.settings.RememberedUser(ctx)
	if err != nil {
		return false, err
	}
	if !found {
		id = fallback
	}
	if id == 0 {
		return false, nil
	}
	if _, err := s.Login(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (s *sessionServiceImpl) Current() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Engine returns the active session's engine
func (s *sessionServiceImpl) Engine() (*SyncEngine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil, ErrNotReady
	}
	return s.engine, nil
}

// Tracker returns the presence tracker of the session user
func (s *sessionServiceImpl) Tracker() (presence.Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return presence.Tracker{}, ErrNotReady
	}
	return presence.Tracker{Self: s.user.ID, OnlineWindow: s.onlineWindow}, nil
}
