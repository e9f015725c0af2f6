package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Azzot88/artline-sub000/internal/config"
	"github.com/Azzot88/artline-sub000/internal/engine"
	"github.com/Azzot88/artline-sub000/internal/observability"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config       *config.Config
	Engine       *engine.Engine
	Authenticate func(http.Handler) http.Handler

	// Metrics receives per-operation instrument updates. When nil the
	// handlers record into a throwaway registry.
	Metrics *observability.Metrics

	HealthHandler  http.HandlerFunc
	ReadyHandler   http.HandlerFunc
	MetricsHandler http.Handler
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware. Admin routes additionally require the admin
// role from the token.
func NewRouter(deps Dependencies) chi.Router {
	m := deps.Metrics
	if m == nil {
		m = observability.InitMetrics(prometheus.NewRegistry())
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery)
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	// Public routes bypass authentication.
	if deps.HealthHandler != nil {
		r.Get("/health", deps.HealthHandler)
	}
	if deps.ReadyHandler != nil {
		r.Get("/ready", deps.ReadyHandler)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Authenticated routes.
	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(BuildRequestContext)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging)

		// User-facing routes.
		r.Get("/api/models/{modelID}/spec", handleGetSpec(deps.Engine, m))
		r.Post("/api/models/{modelID}/payload", handleBuildPayload(deps.Engine, m))

		// Admin routes.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole("admin"))

			r.Get("/api/admin/canonical-fields", handleListCanonicalFields(deps.Engine))
			r.Get("/api/admin/models", handleListModels(deps.Engine))
			r.Post("/api/admin/models", handleRegisterModel(deps.Engine))
			r.Delete("/api/admin/models/{modelID}", handleDeleteModel(deps.Engine))

			r.Post("/api/admin/models/{modelID}/schema", handleRefreshSchema(deps.Engine, m))
			r.Post("/api/admin/models/{modelID}/schema/openapi", handleImportOpenAPI(deps.Engine))

			r.Get("/api/admin/models/{modelID}/parameters", handleAdminSpec(deps.Engine, m))
			r.Put("/api/admin/models/{modelID}/parameters/{paramID}", handleUpsertParameter(deps.Engine, m))
			r.Delete("/api/admin/models/{modelID}/parameters/{paramID}", handleRemoveParameter(deps.Engine))

			r.Post("/api/admin/models/{modelID}/parameters/{paramID}/values", handleAddValue(deps.Engine))
			r.Delete("/api/admin/models/{modelID}/parameters/{paramID}/values", handleRemoveValue(deps.Engine))
			r.Put("/api/admin/models/{modelID}/parameters/{paramID}/values/default", handleSetDefaultValue(deps.Engine))
		})
	})

	return r
}
