package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentstation/integrations/internal/server/middleware"
	"github.com/agentstation/integrations/internal/server/response"
)

// setupRouter creates the router with all routes and middleware.
func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logger(s.logger))
	if s.config.MetricsEnabled {
		r.Use(middleware.Metrics(s.metrics))
	}
	if s.config.CORSEnabled {
		cors := middleware.DefaultCORSConfig()
		if len(s.config.CORSOrigins) > 0 {
			cors.AllowedOrigins = s.config.CORSOrigins
		}
		r.Use(middleware.CORS(cors))
	}
	if s.limiter != nil {
		r.Use(middleware.RateLimit(s.limiter))
	}

	auth := middleware.DefaultAuthConfig()
	auth.Enabled = s.config.AuthEnabled
	auth.APIKey = s.config.APIKey
	if s.config.AuthHeader != "" {
		auth.HeaderName = s.config.AuthHeader
	}
	r.Use(middleware.Auth(auth, s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found", r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusMethodNotAllowed, response.Fail("METHOD_NOT_ALLOWED",
			"Method not allowed", "Method "+r.Method+" is not supported for this endpoint"))
	})

	if s.config.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	h := s.handlers
	r.Route(s.config.PathPrefix, func(r chi.Router) {
		r.Get("/health", h.HandleHealth)

		r.Route("/repository", func(r chi.Router) {
			r.Get("/", h.HandleListTemplates)
			r.Post("/", h.HandleUploadTemplate)
			r.Get("/{name}", h.HandleGetTemplate)
			r.Get("/{name}/static/*", h.HandleGetStatic)
			r.Get("/{name}/schema", h.HandleGetSchemas)
			r.Get("/{name}/assets", h.HandleGetAssets)
			r.Get("/{name}/data", h.HandleGetSampleData)
		})

		r.Route("/store", func(r chi.Router) {
			r.Get("/list_added", h.HandleListInstances)
			r.Post("/{name}", h.HandleLoadInstance)
			r.Get("/{id}", h.HandleGetInstance)
			r.Delete("/{id}", h.HandleDeleteInstance)
		})
	})

	return r
}
