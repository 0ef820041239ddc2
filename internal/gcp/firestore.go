package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/allergenflow/internal/models"
	"golang.org/x/sync/errgroup"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FoodItemDocID is the document id of a published item; one document per run and data id.
func FoodItemDocID(runID, dataID string) string {
	return runID + "_" + dataID
}

// PublishFoodItems writes mapped items to a collection, ten at a time. Documents are
// overwritten, so publishing the same run twice is harmless.
func PublishFoodItems(ctx context.Context, client *firestore.Client, collection string, items []models.FoodItemDoc) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)

	col := client.Collection(collection)
	for _, item := range items {
		eg.Go(func() error {
			if _, err := col.Doc(FoodItemDocID(item.RunID, item.DataID)).Set(gctx, item); err != nil {
				return fmt.Errorf("item %s: %w", item.DataID, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to publish food items: %w", err)
	}
	return nil
}
