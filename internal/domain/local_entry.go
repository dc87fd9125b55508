package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Well-known local storage keys
const (
	KeyTaskBackup     = "kanban-tasks"
	KeyRememberedUser = "urban_user"
	KeyRemoteSettings = "urban_remote"
	KeyMediaSettings  = "urban_media"
	KeyPreferences    = "urban_preferences"
)

// LocalEntry is one key/value row of the on-device store.
// Values are always JSON, plain strings are stored as JSON strings.
type LocalEntry struct {
	Key       string         `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName specifies the table name for LocalEntry
func (LocalEntry) TableName() string {
	return "local_entries"
}
