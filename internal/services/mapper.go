package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/allergenflow/internal/config"
	"github.com/Lllllllleong/allergenflow/internal/gcp"
	"github.com/Lllllllleong/allergenflow/internal/mapper"
	"github.com/Lllllllleong/allergenflow/internal/models"
	"github.com/google/uuid"
)

// MappedObjectPrefix is where mapped datasets are stored.
const MappedObjectPrefix = "mapped/"

type MapperConfig struct {
	ProjectID           string
	Region              string
	RunsCollection      string
	FoodItemsCollection string
}

type MapperFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	vertexClient    *gcp.VertexClient
	pipeline        *config.Config
	config          MapperConfig
}

func NewMapper(ctx context.Context) (*MapperFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	cfg := MapperConfig{
		ProjectID:           projectID,
		Region:              gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		RunsCollection:      gcp.GetEnv("RUNS_COLLECTION", "pipeline_runs"),
		FoodItemsCollection: gcp.GetEnv("FOOD_ITEMS_COLLECTION", "food_items"),
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
	vertexClient, err := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	f := &MapperFunction{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		vertexClient:    vertexClient,
		pipeline:        pipeline,
		config:          cfg,
	}
	slog.Info("Allergen mapper logic initialized.", "region", cfg.Region, "pipeline", pipeline.String())
	return f, nil
}

// ModelFactory returns the model constructor matching a mapper strategy.
func ModelFactory(client *gcp.VertexClient, strategy string) mapper.ModelFactory {
	if strategy == config.StrategySingle {
		return func(name string) mapper.Generator { return client.SingleMapperModel(name) }
	}
	return func(name string) mapper.Generator { return client.BatchMapperModel(name) }
}

// Process maps a newly uploaded raw dataset. Objects outside raw/ are ignored and yield
// a nil response.
func (f *MapperFunction) Process(ctx context.Context, e models.GCSEvent) (*models.MapResponse, error) {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if !IsRawDataset(e.Name) {
		logCtx.Info("Object is not a raw dataset. Skipping.")
		return nil, nil
	}

	runID := RunIDFromObject(e.Name)
	logCtx = logCtx.With("runId", runID)
	logCtx.Info("Processing raw dataset.")

	sourceURI := gcp.ObjectURI(e.Bucket, e.Name)
	docRef, err := startRun(ctx, f.firestoreClient, f.config.RunsCollection, models.PipelineRun{
		RunID:     runID + "-" + models.JobMap,
		Job:       models.JobMap,
		SourceURI: sourceURI,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logCtx.Error("Failed to create run document", "error", err)
		return nil, err
	}

	bucket := f.storageClient.Bucket(e.Bucket)
	data, err := gcp.ReadObject(ctx, bucket, e.Name)
	if err != nil {
		return nil, handleError(ctx, logCtx, docRef, "failed to download dataset", err)
	}

	var buf bytes.Buffer
	table, stats, err := MapDataset(ctx, f.pipeline.Mapper, bytes.NewReader(data), &buf, ModelFactory(f.vertexClient, f.pipeline.Mapper.Strategy), logCtx)
	if err != nil {
		return nil, handleError(ctx, logCtx, docRef, "failed to map dataset", err)
	}

	objectName := fmt.Sprintf("%sfoodpreprocessed-%s.txt", MappedObjectPrefix, runID)
	if err := gcp.SaveToGCSAtomically(ctx, bucket, objectName, buf.Bytes()); err != nil {
		return nil, handleError(ctx, logCtx, docRef, "failed to save mapped dataset", err)
	}
	outputURI := gcp.ObjectURI(e.Bucket, objectName)

	if err := gcp.PublishFoodItems(ctx, f.firestoreClient, f.config.FoodItemsCollection, FoodItems(runID, table)); err != nil {
		return nil, handleError(ctx, logCtx, docRef, "failed to publish food items", err)
	}
	logCtx.Info("Published food items.", "count", table.Len(), "collection", f.config.FoodItemsCollection)

	updates := []firestore.Update{
		{Path: "mappedCount", Value: stats.Mapped},
		{Path: "failedCount", Value: stats.Failed},
		{Path: "datasetUri", Value: outputURI},
	}
	if err := updateStatus(ctx, docRef, models.RunStatusCompleted, "", updates...); err != nil {
		return nil, handleError(ctx, logCtx, docRef, "failed to update status to COMPLETED", err)
	}

	return &models.MapResponse{
		Status:       models.RunStatusCompleted,
		RunID:        runID,
		OutputGCSUri: outputURI,
		MappedCount:  stats.Mapped,
		FailedCount:  stats.Failed,
	}, nil
}

// IsRawDataset reports whether an object name is a collected dataset.
func IsRawDataset(objectName string) bool {
	return strings.HasPrefix(objectName, RawObjectPrefix) && strings.HasSuffix(objectName, ".txt")
}

// RunIDFromObject recovers the collection run id from raw/foodraw-<runId>.txt, or
// returns a fresh id for files uploaded by hand.
func RunIDFromObject(objectName string) string {
	base := strings.TrimSuffix(path.Base(objectName), path.Ext(objectName))
	if id, ok := strings.CutPrefix(base, "foodraw-"); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
