package sync

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer sync outcomes. Every per-customer flow ends in exactly one.
const (
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusFailed  = "failed"
)

// CustomerRef identifies one source record inside a duplicate group.
type CustomerRef struct {
	Doc  string `json:"doc"`
	Nome string `json:"nome"`
	Txns int    `json:"txns"`
}

// Duplicate records a resolved phone collision for observability. The kept
// record was synced, the skipped one never was.
type Duplicate struct {
	Phone   string      `json:"phone"`
	Kept    CustomerRef `json:"kept"`
	Skipped CustomerRef `json:"skipped"`
}

// CustomerResult is the terminal state of one per-customer sync flow.
type CustomerResult struct {
	Doc    string `json:"doc"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
	Labels []int  `json:"labels,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary is the aggregate tally of one run.
type Summary struct {
	Total              int `json:"total"`
	Created            int `json:"created"`
	Updated            int `json:"updated"`
	Failed             int `json:"failed"`
	DuplicatesResolved int `json:"duplicatesResolved"`
}

// RunReport is the full outcome of a sync run before response shaping.
type RunReport struct {
	Summary    Summary
	Results    []CustomerResult
	Duplicates []Duplicate
	Duration   time.Duration
}

// Errors returns the failure messages of the run, in processing order.
func (r *RunReport) Errors() []string {
	var errs []string
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			errs = append(errs, res.Phone+": "+res.Error)
		}
	}
	return errs
}

// SyncLog is the per-run document kept in the sync_logs collection.
type SyncLog struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Trigger            string             `json:"trigger" bson:"trigger"`
	StartTime          time.Time          `json:"start_time" bson:"start_time"`
	EndTime            time.Time          `json:"end_time" bson:"end_time"`
	Status             string             `json:"status" bson:"status"` // "success", "failed", "in_progress"
	Total              int                `json:"total" bson:"total"`
	Created            int                `json:"created" bson:"created"`
	Updated            int                `json:"updated" bson:"updated"`
	Failed             int                `json:"failed" bson:"failed"`
	DuplicatesResolved int                `json:"duplicates_resolved" bson:"duplicates_resolved"`
	Error              string             `json:"error,omitempty" bson:"error,omitempty"`
}

// ProgressEvent is broadcast to websocket clients during background runs.
type ProgressEvent struct {
	Type      string `json:"type"`
	Trigger   string `json:"trigger"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}
