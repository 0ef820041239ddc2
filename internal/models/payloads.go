package models

import "time"

// These structs define the JSON payloads exchanged between the Cloud Workflow,
// the storage trigger and the pipeline Cloud Functions.

// CollectRequest is the input for the food-collector function.
// Zero targets fall back to the pipeline configuration.
type CollectRequest struct {
	TargetAllergens   int    `json:"targetAllergens,omitempty"`
	TargetNoAllergens int    `json:"targetNoAllergens,omitempty"`
	ExecutionID       string `json:"executionId"`
}

// CollectResponse is the output of the food-collector function.
type CollectResponse struct {
	Status        string `json:"status"`
	RunID         string `json:"runId"`
	DatasetGCSUri string `json:"datasetGcsUri"`
	SafeCount     int    `json:"safeCount"`
	AllergenCount int    `json:"allergenCount"`
}

// GCSEvent is the data payload of a storage object-finalized CloudEvent.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// MapResponse summarises one mapper run.
type MapResponse struct {
	Status       string `json:"status"`
	RunID        string `json:"runId"`
	OutputGCSUri string `json:"outputGcsUri"`
	MappedCount  int    `json:"mappedCount"`
	FailedCount  int    `json:"failedCount"`
}

// FoodItemDoc is the Firestore shape of a mapped food item.
type FoodItemDoc struct {
	RunID           string    `firestore:"runId"`
	DataID          string    `firestore:"dataId"`
	Name            string    `firestore:"name"`
	Ingredients     string    `firestore:"ingredients"`
	Allergens       string    `firestore:"allergens"`
	MappedAllergens string    `firestore:"mappedAllergens"`
	Timestamp       time.Time `firestore:"timestamp,serverTimestamp"` // set by the server on write
}
