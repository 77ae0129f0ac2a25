package main

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/common"
	"github.com/Simplici0/coatworks/internal/db"
	"github.com/Simplici0/coatworks/internal/obs"
	"github.com/Simplici0/coatworks/internal/quotation"
	"github.com/Simplici0/coatworks/internal/store"
	"github.com/Simplici0/coatworks/internal/validation"
)

type server struct {
	database   *sql.DB
	products   *catalog.Repository
	documents  *store.Store
	metrics    *obs.Metrics
	logger     zerolog.Logger
	defaultTax float64
}

func (s *server) routes(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(obs.RequestLogger{Logger: s.logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleProductsList)
			r.Post("/", s.handleProductsCreate)
			r.Get("/{id}", s.handleProductGet)
		})
		r.Route("/calculations", func(r chi.Router) {
			r.Post("/measure", s.handleMeasure)
			r.Post("/price", s.handlePrice)
			r.Post("/document", s.handleDocumentTotals)
		})
		r.Route("/quotations", s.documentRoutes(quotation.KindQuotation))
		r.Route("/purchases", s.documentRoutes(quotation.KindPurchase))
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := db.Check(r.Context(), s.database); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		common.JSONError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps domain sentinels to HTTP errors, counts validation
// failures and logs anything that ends as a 500.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		err = common.NotFound("product not found", err)
	case errors.Is(err, store.ErrNotFound):
		err = common.NotFound("document not found", err)
	}

	var (
		appErr *common.AppError
		fields validation.FieldErrors
	)
	switch {
	case errors.As(err, &appErr):
		if appErr.HTTPStatus == http.StatusUnprocessableEntity {
			s.metrics.ValidationFailed(routeOf(r))
		}
	case errors.As(err, &fields):
		s.metrics.ValidationFailed(routeOf(r))
	default:
		s.logger.Error().
			Err(err).
			Str("route", routeOf(r)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
	}
	common.WriteError(w, err)
}

func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
