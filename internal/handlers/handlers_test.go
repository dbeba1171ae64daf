package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oviehub/moviehub/internal/handlers"
	"github.com/oviehub/moviehub/internal/store"
	"github.com/oviehub/moviehub/internal/tmdb"
)

// fakeMovies lets each test plug in only the upstream calls it cares about.
type fakeMovies struct {
	searchFn    func(ctx context.Context, query string, page int) (tmdb.Page, error)
	upcomingFn  func(ctx context.Context, language string, page int) (tmdb.Page, error)
	discoverFn  func(ctx context.Context, filters tmdb.Filters, page int) (tmdb.Page, error)
	detailsFn   func(ctx context.Context, id int64) (*tmdb.Detail, error)
	providersFn func(ctx context.Context, id int64, region string) ([]tmdb.WatchProvider, error)
}

func (f *fakeMovies) SearchMovies(ctx context.Context, query string, page int) (tmdb.Page, error) {
	if f.searchFn == nil {
		return tmdb.Page{}, nil
	}
	return f.searchFn(ctx, query, page)
}

func (f *fakeMovies) Upcoming(ctx context.Context, language string, page int) (tmdb.Page, error) {
	if f.upcomingFn == nil {
		return tmdb.Page{}, nil
	}
	return f.upcomingFn(ctx, language, page)
}

func (f *fakeMovies) Discover(ctx context.Context, filters tmdb.Filters, page int) (tmdb.Page, error) {
	if f.discoverFn == nil {
		return tmdb.Page{}, nil
	}
	return f.discoverFn(ctx, filters, page)
}

func (f *fakeMovies) MovieDetails(ctx context.Context, id int64) (*tmdb.Detail, error) {
	if f.detailsFn == nil {
		return &tmdb.Detail{ID: id, Title: "Some Movie"}, nil
	}
	return f.detailsFn(ctx, id)
}

func (f *fakeMovies) WatchProviders(ctx context.Context, id int64, region string) ([]tmdb.WatchProvider, error) {
	if f.providersFn == nil {
		return nil, nil
	}
	return f.providersFn(ctx, id, region)
}

// fakeChat records every prompt it is asked to complete.
type fakeChat struct {
	generateFn func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (f *fakeChat) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.generateFn == nil {
		return "ok", nil
	}
	return f.generateFn(ctx, prompt)
}

// Prompts returns a copy of the prompts seen so far.
func (f *fakeChat) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

func newTestServer(t *testing.T, movies handlers.MovieSource, chat handlers.ChatModel) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if movies == nil {
		movies = &fakeMovies{}
	}
	if chat == nil {
		chat = &fakeChat{}
	}

	h, err := handlers.New(handlers.Config{Store: st, Movies: movies, Chat: chat})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, client *http.Client, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, client *http.Client, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return nil
	}
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// cookieClient keeps the session cookie across requests.
func cookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func TestGetHealth(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp, body := getJSON(t, srv.Client(), srv.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Moviehub backend is running", body["message"])
	assert.NotEmpty(t, body["time"])
}

func TestRegisterLoginMeLogout(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	client := cookieClient(t)

	resp, body := postJSON(t, client, srv.URL+"/api/users/register", map[string]any{
		"name":     "Ada",
		"email":    "Ada@Example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Ada", body["name"])
	assert.Equal(t, "ada@example.com", body["email"], "email is normalized")

	// Registration sets the session cookie; /me works immediately.
	resp, body = getJSON(t, client, srv.URL+"/api/users/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ada", body["name"])

	resp, _ = postJSON(t, client, srv.URL+"/api/users/logout", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = getJSON(t, client, srv.URL+"/api/users/me")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Fresh client, valid credentials.
	client2 := cookieClient(t)
	resp, _ = postJSON(t, client2, srv.URL+"/api/users/login", map[string]any{
		"email":    "ada@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = getJSON(t, client2, srv.URL+"/api/users/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", body["email"])
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{
			name:    "missing name",
			body:    map[string]any{"email": "a@b.com", "password": "secret1"},
			message: "name and a valid email are required",
		},
		{
			name:    "bad email",
			body:    map[string]any{"name": "Ada", "email": "nope", "password": "secret1"},
			message: "name and a valid email are required",
		},
		{
			name:    "short password",
			body:    map[string]any{"name": "Ada", "email": "a@b.com", "password": "12345"},
			message: "password must be at least 6 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.Client(), srv.URL+"/api/users/register", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	payload := map[string]any{"name": "Ada", "email": "a@b.com", "password": "secret1"}

	resp, _ := postJSON(t, srv.Client(), srv.URL+"/api/users/register", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := postJSON(t, srv.Client(), srv.URL+"/api/users/register", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "email already registered", body["message"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	_, _ = postJSON(t, srv.Client(), srv.URL+"/api/users/register", map[string]any{
		"name": "Ada", "email": "a@b.com", "password": "secret1",
	})

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "wrong password", body: map[string]any{"email": "a@b.com", "password": "wrong1"}},
		{name: "unknown email", body: map[string]any{"email": "x@y.com", "password": "secret1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.Client(), srv.URL+"/api/users/login", tt.body)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "invalid email or password", body["message"])
		})
	}
}

func TestMovieSearch(t *testing.T) {
	movies := &fakeMovies{
		searchFn: func(ctx context.Context, query string, page int) (tmdb.Page, error) {
			assert.Equal(t, "dune", query)
			assert.Equal(t, 2, page)
			return tmdb.Page{
				Results: []tmdb.Movie{{
					ID: 438631, Title: "Dune", ReleaseDate: "2021-09-15", PosterPath: "/p.jpg",
				}},
				Page: 2, TotalPages: 3, TotalResults: 41,
			}, nil
		},
	}
	srv := newTestServer(t, movies, nil)

	resp, body := getJSON(t, srv.Client(), srv.URL+"/api/movies/search?q=dune&page=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	results := body["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "Dune", first["title"])
	assert.Equal(t, "2021", first["year"])
	assert.Equal(t, "https://image.tmdb.org/t/p/w342/p.jpg", first["posterUrl"])
	assert.Equal(t, float64(3), body["totalPages"])
}

func TestMovieSearchRequiresQuery(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp, body := getJSON(t, srv.Client(), srv.URL+"/api/movies/search")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "q is required", body["message"])
}

func TestMovieSearchUpstreamFailure(t *testing.T) {
	movies := &fakeMovies{
		searchFn: func(ctx context.Context, query string, page int) (tmdb.Page, error) {
			return tmdb.Page{}, assert.AnError
		},
	}
	srv := newTestServer(t, movies, nil)

	resp, body := getJSON(t, srv.Client(), srv.URL+"/api/movies/search?q=dune")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "movie search unavailable", body["message"])
}

func TestMovieDiscoverUpcomingSuppressesYearAndRating(t *testing.T) {
	var sawUpcoming bool
	movies := &fakeMovies{
		upcomingFn: func(ctx context.Context, language string, page int) (tmdb.Page, error) {
			sawUpcoming = true
			assert.Equal(t, "fr", language)
			return tmdb.Page{Page: 1}, nil
		},
		discoverFn: func(ctx context.Context, filters tmdb.Filters, page int) (tmdb.Page, error) {
			t.Error("filtered discover must not run in upcoming mode")
			return tmdb.Page{}, nil
		},
	}
	srv := newTestServer(t, movies, nil)

	resp, _ := getJSON(t, srv.Client(),
		srv.URL+"/api/movies/discover?upcoming=true&language=fr&year=2024&rating=8")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, sawUpcoming)
}

func TestMovieDiscoverParsesFilters(t *testing.T) {
	movies := &fakeMovies{
		discoverFn: func(ctx context.Context, filters tmdb.Filters, page int) (tmdb.Page, error) {
			require.NotNil(t, filters.Year)
			assert.Equal(t, 2001, *filters.Year)
			require.NotNil(t, filters.MinRating)
			assert.Equal(t, 7.5, *filters.MinRating)
			assert.Equal(t, "hi", filters.Language)
			assert.False(t, filters.Upcoming)
			return tmdb.Page{}, nil
		},
	}
	srv := newTestServer(t, movies, nil)

	resp, _ := getJSON(t, srv.Client(),
		srv.URL+"/api/movies/discover?year=2001&rating=7.5&language=hi")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMovieWatchUsesFallbackWhenProvidersFail(t *testing.T) {
	movies := &fakeMovies{
		detailsFn: func(ctx context.Context, id int64) (*tmdb.Detail, error) {
			return &tmdb.Detail{ID: id, Title: "Dune"}, nil
		},
		providersFn: func(ctx context.Context, id int64, region string) ([]tmdb.WatchProvider, error) {
			return nil, assert.AnError
		},
	}
	srv := newTestServer(t, movies, nil)

	resp, body := getJSON(t, srv.Client(), srv.URL+"/api/movies/438631/watch")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Dune", body["title"])

	providers := body["providers"].([]any)
	require.Len(t, providers, 3)
	first := providers[0].(map[string]any)
	assert.Equal(t, "Netflix", first["provider"])
	assert.Equal(t, true, first["fallback"])
}

func TestMovieWatchMapsProviders(t *testing.T) {
	movies := &fakeMovies{
		detailsFn: func(ctx context.Context, id int64) (*tmdb.Detail, error) {
			return &tmdb.Detail{ID: id, Title: "Dune"}, nil
		},
		providersFn: func(ctx context.Context, id int64, region string) ([]tmdb.WatchProvider, error) {
			assert.Equal(t, "IN", region, "default region")
			return []tmdb.WatchProvider{{Name: "Prime Video", LogoPath: "/pv.png"}}, nil
		},
	}
	srv := newTestServer(t, movies, nil)

	resp, body := getJSON(t, srv.Client(), srv.URL+"/api/movies/438631/watch")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	providers := body["providers"].([]any)
	require.Len(t, providers, 1)
	first := providers[0].(map[string]any)
	assert.Equal(t, "Prime Video", first["provider"])
	assert.Contains(t, first["url"], "primevideo.com")
	assert.Equal(t, "/pv.png", first["logoPath"])
}
