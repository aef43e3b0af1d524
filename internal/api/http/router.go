package http

import (
	"context"
	"net/http"

	"cclink/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
)

// MappingService defines the interface for the core URL shortening business logic.
type MappingService interface {
	// ShortenURL assigns a short code to the provided original URL.
	// created is false when the URL had already been shortened and the
	// existing mapping is returned instead.
	ShortenURL(ctx context.Context, originalURL string) (mapping *models.Mapping, created bool, err error)

	// ResolveCode retrieves the mapping for a given short code.
	// It returns database.ErrMappingNotFound if no mapping exists.
	ResolveCode(ctx context.Context, code string) (*models.Mapping, error)
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
// index holds the contents of the root page; when nil, no root route is
// registered and GET / falls through to the 404 handler.
func NewRouter(logger *httplog.Logger, svc MappingService, index []byte) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := validator.New()

	r.Post("/put", handleShortenURL(svc, validate))
	r.Get("/{code}", handleRedirect(svc))

	if index != nil {
		r.Get("/", handleIndex(index))
	}

	return r
}
