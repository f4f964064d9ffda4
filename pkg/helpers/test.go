package helpers

import (
	"context"
	"log/slog"

	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

// TestCtx returns a context carrying a test logger.
func TestCtx() context.Context {
	return TestCtxFrom(context.Background())
}

// TestCtxFrom attaches a test logger to parent.
func TestCtxFrom(parent context.Context) context.Context {
	log := slog.New(logger.NewTestHandler(slog.LevelDebug))
	return logger.ToContext(parent, log)
}
