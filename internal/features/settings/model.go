package settings

import "time"

type SettingsType string

const (
	SettingsTypeGeneral SettingsType = "general"
	SettingsTypeSync    SettingsType = "whatchimp_sync"
)

// GeneralConfig mirrors the app_settings row the dashboard edits.
type GeneralConfig struct {
	CashbackPercent   float64 `json:"cashback_percent" bson:"cashback_percent"`
	CashbackStartDate string  `json:"cashback_start_date" bson:"cashback_start_date"`
	POSUseProxy       bool    `json:"pos_use_proxy" bson:"pos_use_proxy"`
}

// LastSyncStatus is the single overwritten record a background sync run
// leaves behind. No history; last write wins.
type LastSyncStatus struct {
	Timestamp          time.Time `json:"timestamp" bson:"timestamp"`
	Total              int       `json:"total" bson:"total"`
	Created            int       `json:"created" bson:"created"`
	Updated            int       `json:"updated" bson:"updated"`
	Failed             int       `json:"failed" bson:"failed"`
	DuplicatesResolved int       `json:"duplicates_resolved" bson:"duplicates_resolved"`
	DurationMs         int64     `json:"duration_ms" bson:"duration_ms"`
	Trigger            string    `json:"trigger" bson:"trigger"` // "manual" or "scheduled"
}

type Settings struct {
	Type      SettingsType    `json:"type" bson:"type"`
	General   *GeneralConfig  `json:"general,omitempty" bson:"general,omitempty"`
	LastSync  *LastSyncStatus `json:"last_sync,omitempty" bson:"last_sync,omitempty"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updated_at"`
}
