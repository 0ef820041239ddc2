package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/allergenflow/internal/gcp"
	"github.com/Lllllllleong/allergenflow/internal/logging"
	"github.com/Lllllllleong/allergenflow/internal/models"
	"github.com/Lllllllleong/allergenflow/internal/services"
)

var (
	collectorInstance *services.CollectorFunction
	once              sync.Once
	initErr           error
)

func init() {
	logging.Setup(os.Stdout, gcp.GetEnv("LOG_LEVEL", "info"))

	// "HandleCollectFoods" is the entry point name we'll see in GCP.
	functions.HTTP("HandleCollectFoods", handleCollectFoods)
}

// main is required by the Go Functions Framework.
func main() {}

func handleCollectFoods(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		collectorInstance, initErr = services.NewCollector(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	req, err := decodeCollectRequest(r)
	if err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := collectorInstance.Process(r.Context(), req)
	if err != nil {
		// The specific error is already logged inside the Process method.
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}

// decodeCollectRequest reads the optional overrides. An empty body, chunked or not,
// runs with the configured targets.
func decodeCollectRequest(r *http.Request) (*models.CollectRequest, error) {
	var req models.CollectRequest
	if r.Body == nil || r.Body == http.NoBody {
		return &req, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &req, nil
}
