package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/dashboard-builder/internal/models"
	"github.com/GregMSThompson/dashboard-builder/internal/store"
	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

func InitFirestore(ctx context.Context, projectID string) (*firestore.Client, error) {
	return firestore.NewClient(ctx, projectID)
}

type dataStreamImporter interface {
	ImportDataStream(ctx context.Context, entries []models.DataStreamEntry) (int, error)
}

// seedDataStream copies the fixture entries of the local widgets file into
// Firestore. A missing file is not an error.
func seedDataStream(ctx context.Context, imp dataStreamImporter, path string) error {
	log := logger.FromContext(ctx)
	entries, err := store.ReadDataStream(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("no local data stream fixtures to import", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read data stream fixtures: %w", err)
	}
	n, err := imp.ImportDataStream(ctx, entries)
	if err != nil {
		return err
	}
	log.Info("data stream fixtures imported", "path", path, "entries", n)
	return nil
}
