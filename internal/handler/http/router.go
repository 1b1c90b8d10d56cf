package http

import (
	"net/http"

	"SubletHubPlatform/internal/middleware"
	"SubletHubPlatform/pkg/health"
	"SubletHubPlatform/pkg/logger"
	"SubletHubPlatform/pkg/metrics"

	"github.com/gorilla/mux"
)

// RouterOptions параметры корневого HTTP обработчика
type RouterOptions struct {
	AllowedOrigins []string
	Checker        health.HealthChecker
	Metrics        *metrics.Metrics
}

// NewRouter собирает корневой обработчик: recovery -> logging -> CORS -> метрики -> маршруты.
// Внешние middleware оборачивают весь роутер, чтобы preflight запросы и 404/405 тоже логировались.
func NewRouter(h *Handler, options RouterOptions, log logger.Logger) http.Handler {
	router := mux.NewRouter()

	if options.Metrics != nil {
		router.Use(options.Metrics.Middleware)
		router.Handle("/metrics", options.Metrics.GetHandler()).Methods(http.MethodGet)
	}

	if options.Checker != nil {
		router.HandleFunc("/health", health.Handler(options.Checker)).Methods(http.MethodGet)
		router.HandleFunc("/ready", health.ReadyHandler(options.Checker)).Methods(http.MethodGet)
	}
	router.HandleFunc("/live", health.LiveHandler()).Methods(http.MethodGet)

	h.Register(router)

	var handler http.Handler = router
	handler = middleware.CORSMiddleware(options.AllowedOrigins, log)(handler)
	handler = middleware.LoggingMiddleware(log)(handler)
	handler = middleware.RecoveryMiddleware(log)(handler)
	return handler
}
