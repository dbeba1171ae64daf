package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/oviehub/moviehub/internal/logger"
	"github.com/oviehub/moviehub/internal/tmdb"
	"github.com/oviehub/moviehub/internal/watch"
)

type movieItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Year        string  `json:"year,omitempty"`
	PosterPath  string  `json:"posterPath,omitempty"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	VoteAverage float64 `json:"voteAverage,omitempty"`
	VoteCount   int     `json:"voteCount,omitempty"`
}

type moviePageResponse struct {
	Results      []movieItem `json:"results"`
	Page         int         `json:"page"`
	TotalPages   int         `json:"totalPages"`
	TotalResults int         `json:"totalResults"`
}

type watchResponse struct {
	Title     string       `json:"title"`
	Providers []watch.Link `json:"providers"`
}

func (h *Handler) getMovieSearch(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		return badRequest("q is required")
	}

	page, err := h.movies.SearchMovies(ctx, query, pageParam(r))
	if err != nil {
		slog.Warn("movie search failed", logger.Error(err))
		return &Error{Status: http.StatusBadGateway, Message: "movie search unavailable"}
	}

	writeJSON(w, http.StatusOK, toMoviePage(page))
	return nil
}

func (h *Handler) getMovieUpcoming(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	language := strings.TrimSpace(r.URL.Query().Get("language"))
	page, err := h.movies.Upcoming(ctx, language, pageParam(r))
	if err != nil {
		slog.Warn("upcoming fetch failed", logger.Error(err))
		return &Error{Status: http.StatusBadGateway, Message: "upcoming movies unavailable"}
	}

	writeJSON(w, http.StatusOK, toMoviePage(page))
	return nil
}

func (h *Handler) getMovieDiscover(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	query := r.URL.Query()

	filters := tmdb.Filters{
		Language: strings.TrimSpace(query.Get("language")),
		Upcoming: query.Get("upcoming") == "true",
	}
	if filters.Upcoming {
		// Year and rating are suppressed in upcoming mode.
		page, err := h.movies.Upcoming(ctx, filters.Language, pageParam(r))
		if err != nil {
			slog.Warn("discover upcoming failed", logger.Error(err))
			return &Error{Status: http.StatusBadGateway, Message: "movie discovery unavailable"}
		}
		writeJSON(w, http.StatusOK, toMoviePage(page))
		return nil
	}

	if val := strings.TrimSpace(query.Get("year")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			filters.Year = &parsed
		}
	}
	if val := strings.TrimSpace(query.Get("rating")); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed > 0 {
			filters.MinRating = &parsed
		}
	}

	page, err := h.movies.Discover(ctx, filters, pageParam(r))
	if err != nil {
		slog.Warn("discover failed", logger.Error(err))
		return &Error{Status: http.StatusBadGateway, Message: "movie discovery unavailable"}
	}

	writeJSON(w, http.StatusOK, toMoviePage(page))
	return nil
}

func (h *Handler) getMovie(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	detail, err := h.movies.MovieDetails(ctx, id)
	if err != nil {
		slog.Warn("movie details failed", logger.Error(err))
		return &Error{Status: http.StatusBadGateway, Message: "movie details unavailable"}
	}

	writeJSON(w, http.StatusOK, detail)
	return nil
}

func (h *Handler) getMovieWatch(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	detail, err := h.movies.MovieDetails(ctx, id)
	if err != nil {
		slog.Warn("watch: movie details failed", logger.Error(err))
		return &Error{Status: http.StatusBadGateway, Message: "movie details unavailable"}
	}

	region := strings.TrimSpace(r.URL.Query().Get("region"))
	if region == "" {
		region = h.region
	}

	providers, err := h.movies.WatchProviders(ctx, id, region)
	if err != nil {
		// Provider data is best-effort; the fallback set still renders.
		slog.Warn("watch providers failed", logger.Error(err))
		providers = nil
	}

	entries := make([]watch.Provider, 0, len(providers))
	for _, p := range providers {
		entries = append(entries, watch.Provider{Name: p.Name, LogoPath: p.LogoPath})
	}

	writeJSON(w, http.StatusOK, &watchResponse{
		Title:     detail.Title,
		Providers: watch.Links(entries, detail.Title),
	})
	return nil
}

func toMoviePage(page tmdb.Page) *moviePageResponse {
	results := make([]movieItem, 0, len(page.Results))
	for _, m := range page.Results {
		results = append(results, movieItem{
			ID:          m.ID,
			Title:       m.Title,
			Year:        tmdb.ReleaseYear(m.ReleaseDate),
			PosterPath:  m.PosterPath,
			PosterURL:   tmdb.ImageURL("w342", m.PosterPath),
			Overview:    m.Overview,
			VoteAverage: m.VoteAverage,
			VoteCount:   m.VoteCount,
		})
	}
	return &moviePageResponse{
		Results:      results,
		Page:         page.Page,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}
}
