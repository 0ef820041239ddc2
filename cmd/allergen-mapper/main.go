package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/allergenflow/internal/gcp"
	"github.com/Lllllllleong/allergenflow/internal/logging"
	"github.com/Lllllllleong/allergenflow/internal/models"
	"github.com/Lllllllleong/allergenflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	mapperInstance *services.MapperFunction
	once           sync.Once
	initErr        error
)

func init() {
	logging.Setup(os.Stdout, gcp.GetEnv("LOG_LEVEL", "info"))

	// Fires on object finalize in the dataset bucket.
	functions.CloudEvent("MapAllergensOnUpload", mapAllergensOnUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func mapAllergensOnUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		mapperInstance, initErr = services.NewMapper(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	res, err := mapperInstance.Process(ctx, gcsEvent)
	if err != nil {
		return err
	}
	if res != nil {
		slog.Info("Mapping run finished.", "runId", res.RunID, "output", res.OutputGCSUri, "mapped", res.MappedCount, "failed", res.FailedCount)
	}
	return nil
}
