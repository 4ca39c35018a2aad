package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/romapi/search-service/internal/filterstate"
	"github.com/romapi/search-service/internal/service"
	"github.com/romapi/search-service/pkg/health"
	"github.com/romapi/search-service/pkg/middleware"
)

// NewRouter creates a chi router with all search service routes registered.
// The filter store and saved search service are optional; their routes are
// omitted when nil.
func NewRouter(
	searchService *service.SearchService,
	savedService *service.SavedSearchService,
	filterStore *filterstate.Store,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("search"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	searchHandler := NewSearchHandler(searchService, logger)

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Get("/", searchHandler.Search)
		r.Get("/suggest", searchHandler.Suggest)
		r.Get("/suggest/popular", searchHandler.PopularSuggestions)
		r.Get("/nearby", searchHandler.Nearby)
		r.Get("/address", searchHandler.ByAddress)
		r.Get("/city/{city}", searchHandler.ByCity)
		r.Get("/region/{region}", searchHandler.ByRegion)
		r.Get("/personalized", searchHandler.Personalized)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Post("/language", searchHandler.ChangeLanguage)
			r.Post("/click", searchHandler.Click)
		})
	})

	r.Route("/api/v1/categories/{id}", func(r chi.Router) {
		r.Get("/search", searchHandler.ByCategory)
		r.Get("/hierarchy", searchHandler.Hierarchy)
	})

	if filterStore != nil {
		filterHandler := NewFilterHandler(filterStore, logger)
		r.Route("/api/v1/filters", func(r chi.Router) {
			r.Get("/popular", filterHandler.Popular)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", filterHandler.Get)
				r.Delete("/", filterHandler.Clear)
				r.Get("/history", filterHandler.History)
				r.Group(func(r chi.Router) {
					r.Use(ContentTypeJSON)
					r.Put("/", filterHandler.Save)
					r.Put("/filters", filterHandler.UpdateFilters)
					r.Put("/tab", filterHandler.UpdateTab)
				})
			})
		})
	}

	if savedService != nil {
		savedHandler := NewSavedSearchHandler(savedService, logger)
		r.Route("/api/v1/saved", func(r chi.Router) {
			r.Get("/", savedHandler.List)
			r.Get("/{id}", savedHandler.Get)
			r.Delete("/{id}", savedHandler.Delete)
			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/", savedHandler.Create)
				r.Put("/{id}", savedHandler.Update)
				r.Post("/{id}/execute", savedHandler.Execute)
			})
		})
	}

	return r
}
