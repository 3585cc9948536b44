package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"

	"github.com/dmitryglazkov/shortly/internal/models"
	"github.com/dmitryglazkov/shortly/internal/service"
)

type URLService interface {
	Resolve(ctx context.Context, shortCode string, click service.ClickInfo) (*models.URL, error)
	Shorten(ctx context.Context, originalURL, customCode string, expiresAt *time.Time) (*models.URL, error)
	Update(ctx context.Context, shortCode string, upd models.URLUpdate) (*models.URL, error)
	Delete(ctx context.Context, shortCode string) error
	RegisterClick(ctx context.Context, shortCode string) (*models.URL, error)
	Get(ctx context.Context, shortCode string) (*models.URL, error)
	List(ctx context.Context, page, limit int) ([]models.URL, int64, error)
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

func NewRouter(logger *httplog.Logger, urlSvc URLService) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Get("/r/{shortCode}", handleRedirect(urlSvc))

	r.Route("/api/urls", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		validate := getValidate()

		r.Post("/", handleCreateURL(urlSvc, validate))
		r.Get("/", handleListURLs(urlSvc))

		r.Route("/{shortCode}", func(r chi.Router) {
			r.Get("/", handleGetURL(urlSvc))
			r.Put("/", handleUpdateURL(urlSvc, validate))
			r.Delete("/", handleDeleteURL(urlSvc))
			r.Post("/click", handleRegisterClick(urlSvc))
		})
	})

	return r
}
