package models

import "time"

// Run statuses recorded in Firestore.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// Pipeline jobs.
const (
	JobCollect = "collect"
	JobMap     = "map"
)

// PipelineRun is the Firestore record for one collector or mapper run.
// It tracks status and the counts needed to audit the produced dataset.
type PipelineRun struct {
	RunID         string    `firestore:"runId,omitempty"`
	Job           string    `firestore:"job,omitempty"`
	Status        string    `firestore:"status,omitempty"`
	ErrorDetails  string    `firestore:"errorDetails,omitempty"`
	SafeCount     int       `firestore:"safeCount,omitempty"`
	AllergenCount int       `firestore:"allergenCount,omitempty"`
	MappedCount   int       `firestore:"mappedCount,omitempty"`
	FailedCount   int       `firestore:"failedCount,omitempty"`
	DatasetURI    string    `firestore:"datasetUri,omitempty"`
	SourceURI     string    `firestore:"sourceUri,omitempty"`
	ExecutionID   string    `firestore:"executionId,omitempty"` // For traceability
	CreatedAt     time.Time `firestore:"createdAt,omitempty"`
}
