package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/allergenflow/internal/models"
)

func startRun(ctx context.Context, client *firestore.Client, collection string, run models.PipelineRun) (*firestore.DocumentRef, error) {
	docRef := client.Collection(collection).Doc(run.RunID)
	run.Status = models.RunStatusRunning
	if _, err := docRef.Set(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run document: %w", err)
	}
	return docRef, nil
}

func handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Errorf("%s: %w", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := updateStatus(ctx, docRef, models.RunStatusFailed, fullError.Error()); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fullError
}

func updateStatus(ctx context.Context, docRef *firestore.DocumentRef, status, errDetails string, extra ...firestore.Update) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	updates = append(updates, extra...)
	_, err := docRef.Update(ctx, updates)
	return err
}
