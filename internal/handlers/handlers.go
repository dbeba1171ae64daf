// Package handlers wires HTTP routing and API handlers.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oviehub/moviehub/internal/store"
	"github.com/oviehub/moviehub/internal/tmdb"
)

// MovieSource is the movie metadata provider surface the handlers need.
// *tmdb.Client satisfies it.
type MovieSource interface {
	SearchMovies(ctx context.Context, query string, page int) (tmdb.Page, error)
	Upcoming(ctx context.Context, language string, page int) (tmdb.Page, error)
	Discover(ctx context.Context, filters tmdb.Filters, page int) (tmdb.Page, error)
	MovieDetails(ctx context.Context, id int64) (*tmdb.Detail, error)
	WatchProviders(ctx context.Context, id int64, region string) ([]tmdb.WatchProvider, error)
}

// ChatModel generates one completion per prompt. *gemini.Client satisfies it.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Handler struct {
	store  *store.Store
	movies MovieSource
	chat   ChatModel
	region string
}

type Config struct {
	Store  *store.Store
	Movies MovieSource
	Chat   ChatModel
	// Region selects the watch-provider region, default "IN".
	Region string
}

func New(cfg Config) (*Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Movies == nil {
		return nil, errors.New("movie source is required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("chat model is required")
	}

	region := strings.ToUpper(strings.TrimSpace(cfg.Region))
	if region == "" {
		region = "IN"
	}

	return &Handler{
		store:  cfg.Store,
		movies: cfg.Movies,
		chat:   cfg.Chat,
		region: region,
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Method(http.MethodGet, "/health", Adapt(h.getHealth))

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat/movie", Adapt(h.postMovieChat))

		r.Route("/users", func(r chi.Router) {
			r.Method(http.MethodPost, "/register", Adapt(h.postRegister))
			r.Method(http.MethodPost, "/login", Adapt(h.postLogin))
			r.Method(http.MethodPost, "/logout", Adapt(h.postLogout))

			r.Group(func(r chi.Router) {
				r.Use(h.MiddlewareRequireAuth)
				r.Method(http.MethodGet, "/me", Adapt(h.getMe))
			})
		})

		r.Route("/movies", func(r chi.Router) {
			r.Method(http.MethodGet, "/search", Adapt(h.getMovieSearch))
			r.Method(http.MethodGet, "/upcoming", Adapt(h.getMovieUpcoming))
			r.Method(http.MethodGet, "/discover", Adapt(h.getMovieDiscover))

			r.Route("/{id:[0-9]+}", func(r chi.Router) {
				r.Method(http.MethodGet, "/", Adapt(h.getMovie))
				r.Method(http.MethodGet, "/watch", Adapt(h.getMovieWatch))
			})
		})
	})
}

type healthResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, &healthResponse{
		OK:      true,
		Message: "Moviehub backend is running",
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}
