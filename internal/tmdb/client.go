// Package tmdb wraps the TMDB API for movie search, discovery and details.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

type Client struct {
	baseURL   string
	apiKey    string
	readToken string
	http      *http.Client
}

// Movie is one entry of a search or discover page.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Language    string  `json:"original_language"`
}

type Page struct {
	Results      []Movie
	Page         int
	TotalPages   int
	TotalResults int
}

// Detail is the full movie record used as chat grounding context.
type Detail struct {
	ID          int64    `json:"id"`
	IMDbID      string   `json:"imdbId,omitempty"`
	Title       string   `json:"title"`
	Tagline     string   `json:"tagline,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Runtime     int      `json:"runtime,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Cast        []Credit `json:"cast,omitempty"`
	Directors   []string `json:"directors,omitempty"`
	PosterPath  string   `json:"posterPath,omitempty"`
	VoteAverage float64  `json:"voteAverage,omitempty"`
	VoteCount   int      `json:"voteCount,omitempty"`
	Language    string   `json:"language,omitempty"`
}

type Credit struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
}

// Filters narrows a discover request.
type Filters struct {
	Year      *int
	MinRating *float64
	Language  string
	Upcoming  bool
}

type pageResponse struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

type detailResponse struct {
	ID          int64   `json:"id"`
	IMDbID      string  `json:"imdb_id"`
	Title       string  `json:"title"`
	Tagline     string  `json:"tagline"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Language    string  `json:"original_language"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Cast []struct {
			Name      string `json:"name"`
			Character string `json:"character"`
			Order     int    `json:"order"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

type providersResponse struct {
	Results map[string]struct {
		Flatrate []providerEntry `json:"flatrate"`
		Rent     []providerEntry `json:"rent"`
		Buy      []providerEntry `json:"buy"`
	} `json:"results"`
}

type providerEntry struct {
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

// WatchProvider is one streaming provider carrying a movie in a region.
type WatchProvider struct {
	Name     string `json:"name"`
	LogoPath string `json:"logoPath,omitempty"`
}

func New(apiKey, readToken string) *Client {
	if strings.TrimSpace(readToken) == "" && looksLikeJWT(apiKey) {
		readToken = apiKey
		apiKey = ""
	}
	return &Client{
		baseURL:   defaultBaseURL,
		apiKey:    apiKey,
		readToken: readToken,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SearchMovies runs a free-text movie search.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (Page, error) {
	if strings.TrimSpace(query) == "" {
		return Page{}, nil
	}
	if page < 1 {
		page = 1
	}
	values := c.baseValues()
	values.Set("query", strings.TrimSpace(query))
	values.Set("include_adult", "false")
	values.Set("language", "en-US")
	values.Set("page", strconv.Itoa(page))
	return c.fetchPage(ctx, c.baseURL+"/search/movie?"+values.Encode())
}

// Upcoming lists not-yet-released movies in the given original language.
func (c *Client) Upcoming(ctx context.Context, language string, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	values := c.baseValues()
	values.Set("include_adult", "false")
	values.Set("sort_by", "popularity.desc")
	values.Set("primary_release_date.gte", time.Now().UTC().Format("2006-01-02"))
	if lang := strings.TrimSpace(language); lang != "" {
		values.Set("with_original_language", strings.ToLower(lang))
	}
	values.Set("page", strconv.Itoa(page))
	return c.fetchPage(ctx, c.baseURL+"/discover/movie?"+values.Encode())
}

// Discover runs a filtered browse without free text.
func (c *Client) Discover(ctx context.Context, filters Filters, page int) (Page, error) {
	if filters.Upcoming {
		return c.Upcoming(ctx, filters.Language, page)
	}
	if page < 1 {
		page = 1
	}
	values := c.baseValues()
	values.Set("include_adult", "false")
	values.Set("sort_by", "popularity.desc")
	if filters.Year != nil {
		values.Set("primary_release_year", strconv.Itoa(*filters.Year))
	}
	if filters.MinRating != nil {
		values.Set("vote_average.gte", strconv.FormatFloat(*filters.MinRating, 'f', 1, 64))
	}
	if lang := strings.TrimSpace(filters.Language); lang != "" {
		values.Set("with_original_language", strings.ToLower(lang))
	}
	values.Set("page", strconv.Itoa(page))
	return c.fetchPage(ctx, c.baseURL+"/discover/movie?"+values.Encode())
}

// MovieDetails fetches the full record for one movie, credits included.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*Detail, error) {
	if id <= 0 {
		return nil, errors.New("invalid movie id")
	}
	values := c.baseValues()
	values.Set("append_to_response", "credits")
	endpoint := fmt.Sprintf("%s/movie/%d?%s", c.baseURL, id, values.Encode())

	var payload detailResponse
	if err := c.fetchJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	detail := &Detail{
		ID:          payload.ID,
		IMDbID:      payload.IMDbID,
		Title:       payload.Title,
		Tagline:     payload.Tagline,
		Overview:    payload.Overview,
		ReleaseDate: payload.ReleaseDate,
		Runtime:     payload.Runtime,
		PosterPath:  payload.PosterPath,
		VoteAverage: payload.VoteAverage,
		VoteCount:   payload.VoteCount,
		Language:    payload.Language,
	}
	for _, g := range payload.Genres {
		if strings.TrimSpace(g.Name) == "" {
			continue
		}
		detail.Genres = append(detail.Genres, g.Name)
	}
	const topCast = 10
	for _, member := range payload.Credits.Cast {
		if len(detail.Cast) >= topCast {
			break
		}
		detail.Cast = append(detail.Cast, Credit{Name: member.Name, Character: member.Character})
	}
	for _, member := range payload.Credits.Crew {
		if member.Job == "Director" {
			detail.Directors = append(detail.Directors, member.Name)
		}
	}
	return detail, nil
}

// WatchProviders lists streaming providers for a movie in a region (flatrate
// first, then rent, then buy, deduplicated).
func (c *Client) WatchProviders(ctx context.Context, id int64, region string) ([]WatchProvider, error) {
	if id <= 0 {
		return nil, errors.New("invalid movie id")
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = "IN"
	}
	endpoint := fmt.Sprintf("%s/movie/%d/watch/providers?%s", c.baseURL, id, c.baseValues().Encode())

	var payload providersResponse
	if err := c.fetchJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	entry, ok := payload.Results[region]
	if !ok {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []WatchProvider
	for _, group := range [][]providerEntry{entry.Flatrate, entry.Rent, entry.Buy} {
		for _, p := range group {
			name := strings.TrimSpace(p.ProviderName)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, WatchProvider{Name: name, LogoPath: p.LogoPath})
		}
	}
	return out, nil
}

// ImageURL builds the CDN URL for a poster or logo path, e.g. ImageURL("w92", p).
func ImageURL(size, path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/" + size + path
}

func (c *Client) fetchPage(ctx context.Context, endpoint string) (Page, error) {
	var payload pageResponse
	if err := c.fetchJSON(ctx, endpoint, &payload); err != nil {
		return Page{}, err
	}
	return Page{
		Results:      payload.Results,
		Page:         payload.Page,
		TotalPages:   payload.TotalPages,
		TotalResults: payload.TotalResults,
	}, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.applyAuth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		statusErr := fmt.Errorf("tmdb request failed: %s", resp.Status)
		if cerr := resp.Body.Close(); cerr != nil {
			return errors.Join(statusErr, cerr)
		}
		return statusErr
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}
	return resp.Body.Close()
}

func (c *Client) baseValues() url.Values {
	values := url.Values{}
	if c.apiKey != "" {
		values.Set("api_key", c.apiKey)
	}
	return values
}

func (c *Client) applyAuth(req *http.Request) {
	if strings.TrimSpace(c.readToken) == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.readToken))
}

func looksLikeJWT(token string) bool {
	parts := strings.Split(strings.TrimSpace(token), ".")
	return len(parts) == 3 && len(token) > 80
}

// ParseYear parses a four-digit year string, returning nil when absent or bad.
func ParseYear(year string) *int {
	year = strings.TrimSpace(year)
	if year == "" {
		return nil
	}
	val, err := strconv.Atoi(year)
	if err != nil {
		return nil
	}
	return &val
}

// ReleaseYear extracts the year prefix from a TMDB release date.
func ReleaseYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
