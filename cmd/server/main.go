package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"github.com/oviehub/moviehub/internal/gemini"
	"github.com/oviehub/moviehub/internal/handlers"
	"github.com/oviehub/moviehub/internal/logger"
	"github.com/oviehub/moviehub/internal/store"
	"github.com/oviehub/moviehub/internal/tmdb"
	"github.com/oviehub/moviehub/internal/web"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultPort   = "8080"
	defaultRegion = "IN"
)

func main() {
	slog.SetDefault(logger.New(slog.LevelDebug))
	if err := run(); err != nil {
		fmt.Println("Error:", err.Error())
		os.Exit(1)
	}
}

func run() error {
	dbPath := envOr("DB_PATH", "/app/data/moviehub.db")
	tmdbKey := os.Getenv("TMDB_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if tmdbKey == "" {
		return errors.New("TMDB_API_KEY is required")
	}
	if geminiKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close DB", logger.Error(err))
		}
	}()

	app, err := handlers.New(handlers.Config{
		Store:  st,
		Movies: tmdb.New(tmdbKey, os.Getenv("TMDB_API_READ_TOKEN")),
		Chat:   gemini.NewClient(geminiKey),
		Region: envOr("WATCH_REGION", defaultRegion),
	})
	if err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(slog.Default(), &httplog.Options{
		Level: slog.LevelInfo,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{envOr("CORS_ORIGIN", "*")},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	app.RegisterRoutes(r)

	if dist, err := web.Dist(); err == nil {
		spa, err := handlers.SPA(dist)
		if err != nil {
			return fmt.Errorf("failed to init spa handler: %w", err)
		}
		r.NotFound(spa.ServeHTTP)
	}

	addr := ":" + envOr("PORT", defaultPort)
	slog.Info("listening", slog.String("addr", addr))
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
