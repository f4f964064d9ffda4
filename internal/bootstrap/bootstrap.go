package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/dashboard-builder/internal/config"
	"github.com/GregMSThompson/dashboard-builder/internal/metrics"
	"github.com/GregMSThompson/dashboard-builder/internal/store"
	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

type Bootstrap struct {
	Log       *slog.Logger
	Store     store.WidgetStore
	Watcher   *store.Watcher
	Firestore *firestore.Client
	Metrics   *metrics.Collector
}

// Run builds the logger, the widget store for cfg.Storage and, for the file
// backend, the optional document watcher. bs is returned even on error so the
// caller can log with bs.Log.
func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Metrics = metrics.NewCollector("dashboard")
	ctx := logger.ToContext(applicationCtx, bs.Log)

	switch cfg.Storage {
	case config.StorageFirestore:
		bs.Firestore, err = InitFirestore(ctx, cfg.ProjectID)
		if err != nil {
			return bs, fmt.Errorf("failed to create firestore client: %w", err)
		}
		fs := store.NewFirestoreStore(bs.Firestore)
		bs.Store = fs
		if err := seedDataStream(ctx, fs, cfg.DataFile); err != nil {
			return bs, err
		}

	default:
		ds, err := store.OpenDocumentStore(ctx, cfg.DataFile)
		if err != nil {
			return bs, err
		}
		bs.Store = ds
		if cfg.WatchDataFile {
			bs.Watcher, err = store.NewWatcher(ds.Path(), ds, 0)
			if err != nil {
				return bs, err
			}
		}
	}

	if rev, err := bs.Store.Revision(ctx); err == nil {
		bs.Metrics.SetRevision(rev)
	}
	bs.Log.Info("bootstrap complete", "storage", cfg.Storage, "watch", bs.Watcher != nil)
	return bs, nil
}

func (bs *Bootstrap) Close() error {
	var errList []error
	if bs.Watcher != nil {
		errList = append(errList, bs.Watcher.Close())
	}
	if bs.Firestore != nil {
		errList = append(errList, bs.Firestore.Close())
	}
	return errors.Join(errList...)
}
