package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"kanban-sync/internal/client"
	"kanban-sync/internal/repository"
)

// RemoteConfigurer is a document store whose credentials can be replaced at runtime
type RemoteConfigurer interface {
	Credentials() client.BinCredentials
	Reconfigure(creds client.BinCredentials)
}

// MediaConfigurer is a media host whose credentials can be replaced at runtime
type MediaConfigurer interface {
	Credentials() client.CloudinaryCredentials
	Reconfigure(creds client.CloudinaryCredentials)
}

// Settings are the user-editable connection settings and preferences
type Settings struct {
	Remote      *client.BinCredentials
	Media       *client.CloudinaryCredentials
	Preferences repository.Preferences
}

// SettingsUpdate carries the sections to change, nil sections are left alone
type SettingsUpdate struct {
	Remote      *client.BinCredentials
	Media       *client.CloudinaryCredentials
	Preferences *repository.Preferences
}

// SettingsService defines the interface for settings logic
type SettingsService interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, update SettingsUpdate) (*Settings, error)
	ApplyCached(ctx context.Context) error
}

type settingsServiceImpl struct {
	repo     repository.SettingsRepository
	remote   RemoteConfigurer // nil when the backend has no credentials
	media    MediaConfigurer  // nil when the media host has no credentials
	sessions EngineProvider
	logger   *zap.Logger
}

// NewSettingsService creates a new instance of SettingsService
func NewSettingsService(repo repository.SettingsRepository, remote RemoteConfigurer, media MediaConfigurer, sessions EngineProvider, logger *zap.Logger) SettingsService {
	return &settingsServiceImpl{repo: repo, remote: remote, media: media, sessions: sessions, logger: logger}
}

func (s *settingsServiceImpl) Get(ctx context.Context) (*Settings, error) {
	prefs, err := s.repo.Preferences(ctx)
	if err != nil {
		return nil, err
	}
	out := &Settings{Preferences: prefs}
	if s.remote != nil {
		c := s.remote.Credentials()
		out.Remote = &c
	}
	if s.media != nil {
		c := s.media.Credentials()
		out.Media = &c
	}
	return out, nil
}

// Update persists the changed sections, hands new credentials to the live clients
// and reloads the board when the remote changed.
func (s *settingsServiceImpl) Update(ctx context.Context, update SettingsUpdate) (*Settings, error) {
	remoteChanged := false

	if update.Remote != nil && s.remote != nil {
		creds := client.BinCredentials{
			BinID:  strings.TrimSpace(update.Remote.BinID),
			APIKey: strings.TrimSpace(update.Remote.APIKey),
		}
		if err := s.repo.SaveRemoteCredentials(ctx, repository.RemoteCredentials{BinID: creds.BinID, APIKey: creds.APIKey}); err != nil {
			return nil, err
		}
		remoteChanged = creds != s.remote.Credentials()
		s.remote.Reconfigure(creds)
	}

	if update.Media != nil && s.media != nil {
		creds := client.CloudinaryCredentials{
			CloudName:    strings.TrimSpace(update.Media.CloudName),
			UploadPreset: strings.TrimSpace(update.Media.UploadPreset),
		}
		if err := s.repo.SaveMediaCredentials(ctx, repository.MediaCredentials{CloudName: creds.CloudName, UploadPreset: creds.UploadPreset}); err != nil {
			return nil, err
		}
		s.media.Reconfigure(creds)
	}

	if update.Preferences != nil {
		if err := s.repo.SavePreferences(ctx, *update.Preferences); err != nil {
			return nil, err
		}
	}

	if remoteChanged {
		if engine, err := s.sessions.Engine(); err == nil {
			if err := engine.Refresh(ctx); err != nil {
				s.logger.Warn("Board reload after settings change failed", zap.Error(err))
			}
		} else if !errors.Is(err, ErrNotReady) {
			return nil, err
		}
	}

	s.logger.Info("Settings updated", zap.Bool("remote_changed", remoteChanged))
	return s.Get(ctx)
}

// ApplyCached loads credentials saved on the device over the configured defaults
func (s *settingsServiceImpl) ApplyCached(ctx context.Context) error {
	if s.remote != nil {
		c, found, err := s.repo.RemoteCredentials(ctx)
		if err != nil {
			return err
		}
		if found {
			s.remote.Reconfigure(client.BinCredentials{BinID: c.BinID, APIKey: c.APIKey})
		}
	}
	if s.media != nil {
		c, found, err := s.repo.MediaCredentials(ctx)
		if err != nil {
			return err
		}
		if found {
			s.media.Reconfigure(client.CloudinaryCredentials{CloudName: c.CloudName, UploadPreset: c.UploadPreset})
		}
	}
	return nil
}
