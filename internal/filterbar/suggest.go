package filterbar

import (
	"context"

	"github.com/oviehub/moviehub/internal/tmdb"
)

// NewTMDBSuggest adapts the TMDB movie search to a SuggestFunc. Results are
// capped by the bar itself; this keeps the raw page mapping in one place.
func NewTMDBSuggest(client *tmdb.Client) SuggestFunc {
	return func(ctx context.Context, query string) ([]Suggestion, error) {
		page, err := client.SearchMovies(ctx, query, 1)
		if err != nil {
			return nil, err
		}
		out := make([]Suggestion, 0, len(page.Results))
		for _, m := range page.Results {
			out = append(out, Suggestion{
				ID:          m.ID,
				Title:       m.Title,
				PosterPath:  m.PosterPath,
				ReleaseYear: tmdb.ReleaseYear(m.ReleaseDate),
			})
		}
		return out, nil
	}
}
