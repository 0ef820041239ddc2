package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/Lllllllleong/allergenflow/internal/config"
	"github.com/Lllllllleong/allergenflow/internal/gcp"
	"github.com/Lllllllleong/allergenflow/internal/models"
	"github.com/google/uuid"
)

// RawObjectPrefix is where collected datasets are stored in the dataset bucket.
const RawObjectPrefix = "raw/"

type CollectorConfig struct {
	ProjectID        string
	DatasetBucket    string
	RunsCollection   string
	WorkflowID       string
	WorkflowLocation string
}

type CollectorFunction struct {
	storageClient    *storage.Client
	firestoreClient  *firestore.Client
	executionsClient *executions.Client // nil when no workflow is configured
	pipeline         *config.Config
	config           CollectorConfig
}

func NewCollector(ctx context.Context) (*CollectorFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	cfg := CollectorConfig{
		ProjectID:        projectID,
		DatasetBucket:    gcp.GetEnv("DATASET_BUCKET", ""),
		RunsCollection:   gcp.GetEnv("RUNS_COLLECTION", "pipeline_runs"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
	}
	if cfg.DatasetBucket == "" {
		return nil, fmt.Errorf("DATASET_BUCKET environment variable must be set")
	}

	pipeline, err := config.Load(gcp.GetEnv("PIPELINE_CONFIG", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	var executionsClient *executions.Client
	if cfg.WorkflowID != "" {
		executionsClient, err = executions.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
	}

	f := &CollectorFunction{
		storageClient:    storageClient,
		firestoreClient:  firestoreClient,
		executionsClient: executionsClient,
		pipeline:         pipeline,
		config:           cfg,
	}
	slog.Info("Food collector logic initialized.", "bucket", cfg.DatasetBucket, "workflowId", cfg.WorkflowID, "pipeline", pipeline.String())
	return f, nil
}

func (f *CollectorFunction) Process(ctx context.Context, req *models.CollectRequest) (*models.CollectResponse, error) {
	runID := uuid.NewString()
	logCtx := slog.With("runId", runID, "executionId", req.ExecutionID)
	logCtx.Info("Starting collection run.")

	docRef, err := startRun(ctx, f.firestoreClient, f.config.RunsCollection, models.PipelineRun{
		RunID:       runID,
		Job:         models.JobCollect,
		ExecutionID: req.ExecutionID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		logCtx.Error("Failed to create run document", "error", err)
		return nil, err
	}

	cfg := f.pipeline.Collector
	if req.TargetAllergens > 0 {
		cfg.Allergen.Target = req.TargetAllergens
	}
	if req.TargetNoAllergens > 0 {
		cfg.Safe.Target = req.TargetNoAllergens
	}

	var buf bytes.Buffer
	summary, err := CollectDataset(ctx, cfg, &buf, logCtx)
	if err != nil {
		return nil, handleError(ctx, logCtx, docRef, "failed to collect dataset", err)
	}

	objectName := fmt.Sprintf("%sfoodraw-%s.txt", RawObjectPrefix, runID)
	if err := gcp.SaveToGCSAtomically(ctx, f.storageClient.Bucket(f.config.DatasetBucket), objectName, buf.Bytes()); err != nil {
		return nil, handleError(ctx, logCtx, docRef, "failed to save dataset", err)
	}
	datasetURI := gcp.ObjectURI(f.config.DatasetBucket, objectName)
	logCtx.Info("Dataset saved.", "datasetUri", datasetURI)

	updates := []firestore.Update{
		{Path: "safeCount", Value: summary.SafeCount},
		{Path: "allergenCount", Value: summary.AllergenCount},
		{Path: "datasetUri", Value: datasetURI},
	}

	if f.executionsClient != nil {
		parent := gcp.WorkflowParent(f.config.ProjectID, f.config.WorkflowLocation, f.config.WorkflowID)
		execution, err := gcp.TriggerWorkflow(ctx, f.executionsClient, parent, map[string]interface{}{
			"runId":      runID,
			"datasetUri": datasetURI,
		})
		if err != nil {
			return nil, handleError(ctx, logCtx, docRef, "failed to trigger workflow", err)
		}
		logCtx.Info("Workflow triggered.", "execution", execution)
	}

	if err := updateStatus(ctx, docRef, models.RunStatusCompleted, "", updates...); err != nil {
		return nil, handleError(ctx, logCtx, docRef, "failed to update status to COMPLETED", err)
	}

	return &models.CollectResponse{
		Status:        models.RunStatusCompleted,
		RunID:         runID,
		DatasetGCSUri: datasetURI,
		SafeCount:     summary.SafeCount,
		AllergenCount: summary.AllergenCount,
	}, nil
}
