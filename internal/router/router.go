package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/GregMSThompson/dashboard-builder/internal/handlers"
	"github.com/GregMSThompson/dashboard-builder/internal/middleware"
	"github.com/GregMSThompson/dashboard-builder/internal/response"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics).MetricsMiddleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", response.RevisionHeader},
		MaxAge:         300,
	}))

	wh := handlers.NewWidgetHandlers(deps)

	r.Get("/", handlers.Health)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}
	r.Mount("/widgets", wh.WidgetRoutes())
	r.Mount("/data-stream", wh.DataStreamRoutes())
	return r
}
