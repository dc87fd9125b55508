package repository

import (
	"context"
	"errors"

	"kanban-sync/internal/domain"
)

// RemoteCredentials are the cached document store credentials
type RemoteCredentials struct {
	BinID  string `json:"binId"`
	APIKey string `json:"apiKey"`
}

// MediaCredentials are the cached media host settings
type MediaCredentials struct {
	CloudName    string `json:"cloudName"`
	UploadPreset string `json:"uploadPreset"`
}

// Preferences are UI toggles persisted on the device
type Preferences struct {
	Effects bool `json:"effects"`
}

// SettingsRepository persists the remembered user, cached credentials and preferences
type SettingsRepository interface {
	RememberedUser(ctx context.Context) (domain.UserID, bool, error)
	RememberUser(ctx context.Context, id domain.UserID) error
	ForgetUser(ctx context.Context) error

	RemoteCredentials(ctx context.Context) (RemoteCredentials, bool, error)
	SaveRemoteCredentials(ctx context.Context, c RemoteCredentials) error

	MediaCredentials(ctx context.Context) (MediaCredentials, bool, error)
	SaveMediaCredentials(ctx context.Context, c MediaCredentials) error

	Preferences(ctx context.Context) (Preferences, error)
	SavePreferences(ctx context.Context, p Preferences) error
}

type settingsRepositoryImpl struct {
	entries LocalEntryRepository
}

// NewSettingsRepository creates a SettingsRepository on top of the key/value store
func NewSettingsRepository(entries LocalEntryRepository) SettingsRepository {
	return &settingsRepositoryImpl{entries: entries}
}

func (r *settingsRepositoryImpl) RememberedUser(ctx context.Context) (domain.UserID, bool, error) {
	var id domain.UserID
	found, err := r.get(ctx, domain.KeyRememberedUser, &id)
	return id, found, err
}

func (r *settingsRepositoryImpl) RememberUser(ctx context.Context, id domain.UserID) error {
	return r.entries.Put(ctx, domain.KeyRememberedUser, id)
}

func (r *settingsRepositoryImpl) ForgetUser(ctx context.Context) error {
	return r.entries.Delete(ctx, domain.KeyRememberedUser)
}

func (r *settingsRepositoryImpl) RemoteCredentials(ctx context.Context) (RemoteCredentials, bool, error) {
	var c RemoteCredentials
	found, err := r.get(ctx, domain.KeyRemoteSettings, &c)
	return c, found, err
}

func (r *settingsRepositoryImpl) SaveRemoteCredentials(ctx context.Context, c RemoteCredentials) error {
	return r.entries.Put(ctx, domain.KeyRemoteSettings, c)
}

func (r *settingsRepositoryImpl) MediaCredentials(ctx context.Context) (MediaCredentials, bool, error) {
	var c MediaCredentials
	found, err := r.get(ctx, domain.KeyMediaSettings, &c)
	return c, found, err
}

func (r *settingsRepositoryImpl) SaveMediaCredentials(ctx context.Context, c MediaCredentials) error {
	return r.entries.Put(ctx, domain.KeyMediaSettings, c)
}

func (r *settingsRepositoryImpl) Preferences(ctx context.Context) (Preferences, error) {
	var p Preferences
	_, err := r.get(ctx, domain.KeyPreferences, &p)
	return p, err
}

func (r *settingsRepositoryImpl) SavePreferences(ctx context.Context, p Preferences) error {
	return r.entries.Put(ctx, domain.KeyPreferences, p)
}

func (r *settingsRepositoryImpl) get(ctx context.Context, key string, dst any) (bool, error) {
	if err := r.entries.Get(ctx, key, dst); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
