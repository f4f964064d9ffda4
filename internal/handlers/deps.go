package handlers

import (
	"log/slog"

	"github.com/GregMSThompson/dashboard-builder/internal/metrics"
	"github.com/GregMSThompson/dashboard-builder/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	WidgetSvc       WidgetService
	Metrics         *metrics.Collector
	CORSOrigins     []string
}
