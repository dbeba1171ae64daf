// Package watch resolves streaming provider names to deep links for a title.
package watch

import (
	"net/url"
	"strings"
)

// providerSearchURLs maps canonical provider names to search URL builders.
var providerSearchURLs = map[string]func(title string) string{
	"Netflix": func(title string) string {
		return "https://www.netflix.com/search?q=" + url.QueryEscape(title)
	},
	"Amazon Prime Video": func(title string) string {
		return "https://www.primevideo.com/search/ref=atv_nb_sr?phrase=" + url.QueryEscape(title)
	},
	"Disney+ Hotstar": func(title string) string {
		return "https://www.hotstar.com/in/explore?search_query=" + url.QueryEscape(title)
	},
	"Apple TV Plus": func(title string) string {
		return "https://tv.apple.com/search?term=" + url.QueryEscape(title)
	},
	"YouTube": func(title string) string {
		return "https://www.youtube.com/results?search_query=" + url.QueryEscape(title)
	},
	"Google Play Movies": func(title string) string {
		return "https://play.google.com/store/search?c=movies&q=" + url.QueryEscape(title)
	},
}

// fallbackProviders is shown when TMDB returns no OTT data for a movie.
var fallbackProviders = []string{"Netflix", "Amazon Prime Video", "Disney+ Hotstar"}

// ProviderURL maps a provider name and movie title to a URL. Resolution order:
// exact match in the known mapping, then normalized alias match for common
// rebrand variants, then a generic web search for "<title> <provider>".
func ProviderURL(providerName, title string) string {
	if build, ok := providerSearchURLs[providerName]; ok {
		return build(title)
	}

	switch strings.ToLower(strings.TrimSpace(providerName)) {
	case "prime video", "amazon prime video":
		return providerSearchURLs["Amazon Prime Video"](title)
	case "disney plus", "disney+", "disney+ hotstar", "hotstar":
		return providerSearchURLs["Disney+ Hotstar"](title)
	case "apple tv+", "apple tv plus", "apple tv":
		return providerSearchURLs["Apple TV Plus"](title)
	}

	query := strings.TrimSpace(title + " " + providerName)
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

// FallbackProviders returns the fixed provider set presented when a movie has
// no provider data at all.
func FallbackProviders() []string {
	out := make([]string, len(fallbackProviders))
	copy(out, fallbackProviders)
	return out
}

// Link is one resolved provider chip.
type Link struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
	LogoPath string `json:"logoPath,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Provider is the minimal provider record coming from the metadata API.
type Provider struct {
	Name     string
	LogoPath string
}

// Links resolves a provider list for a title. An empty list yields the
// fallback set, resolved through the same order.
func Links(providers []Provider, title string) []Link {
	if len(providers) == 0 {
		out := make([]Link, 0, len(fallbackProviders))
		for _, name := range fallbackProviders {
			out = append(out, Link{
				Provider: name,
				URL:      ProviderURL(name, title),
				Fallback: true,
			})
		}
		return out
	}

	out := make([]Link, 0, len(providers))
	for _, p := range providers {
		out = append(out, Link{
			Provider: p.Name,
			URL:      ProviderURL(p.Name, title),
			LogoPath: p.LogoPath,
		})
	}
	return out
}
