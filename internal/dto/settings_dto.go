package dto

import (
	"strings"

	"kanban-sync/internal/client"
	"kanban-sync/internal/repository"
	"kanban-sync/internal/service"
)

// RemoteSettings represents the remote store credentials
type RemoteSettings struct {
	BinID  string `json:"binId"`
	APIKey string `json:"apiKey"`
}

// MediaSettings represents the media host credentials
type MediaSettings struct {
	CloudName    string `json:"cloudName"`
	UploadPreset string `json:"uploadPreset"`
}

// PreferenceSettings represents the UI preferences
type PreferenceSettings struct {
	Effects bool `json:"effects"`
}

// SettingsResponse represents the current settings. Secrets are masked.
type SettingsResponse struct {
	Remote      *RemoteSettings    `json:"remote"`
	Media       *MediaSettings     `json:"media"`
	Preferences PreferenceSettings `json:"preferences"`
}

// UpdateSettingsRequest represents a settings change. Absent sections are left alone.
type UpdateSettingsRequest struct {
	Remote      *RemoteSettings     `json:"remote"`
	Media       *MediaSettings      `json:"media"`
	Preferences *PreferenceSettings `json:"preferences"`
}

// ToUpdate converts the request to a service update
func (r UpdateSettingsRequest) ToUpdate() service.SettingsUpdate {
	var update service.SettingsUpdate
	if r.Remote != nil {
		update.Remote = &client.BinCredentials{BinID: r.Remote.BinID, APIKey: r.Remote.APIKey}
	}
	if r.Media != nil {
		update.Media = &client.CloudinaryCredentials{CloudName: r.Media.CloudName, UploadPreset: r.Media.UploadPreset}
	}
	if r.Preferences != nil {
		update.Preferences = &repository.Preferences{Effects: r.Preferences.Effects}
	}
	return update
}

// NewSettingsResponse converts settings into their API representation
func NewSettingsResponse(s *service.Settings) SettingsResponse {
	resp := SettingsResponse{
		Preferences: PreferenceSettings{Effects: s.Preferences.Effects},
	}
	if s.Remote != nil {
		resp.Remote = &RemoteSettings{BinID: s.Remote.BinID, APIKey: MaskSecret(s.Remote.APIKey)}
	}
	if s.Media != nil {
		resp.Media = &MediaSettings{CloudName: s.Media.CloudName, UploadPreset: s.Media.UploadPreset}
	}
	return resp
}

// MaskSecret keeps the last four characters of a secret
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
