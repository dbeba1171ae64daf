// Package filterbar owns the search and filter state for the movie browser:
// query text, structured filters with an upcoming toggle, debounced
// autocomplete suggestions, and session-persisted state. Finalized values are
// handed to the parent view through callbacks.
package filterbar

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oviehub/moviehub/internal/logger"
	"github.com/oviehub/moviehub/internal/session"
)

// Session storage keys, shared with the frontend bundle.
const (
	QueryKey  = "searchQuery"
	FilterKey = "movieFilters"
)

const (
	DefaultLanguage  = "en"
	DefaultDebounce  = 300 * time.Millisecond
	minSearchLength  = 3
	minSuggestLength = 2
	maxSuggestions   = 8

	shortQueryMessage = "Type at least 3 char to search"
)

// Filters is the finalized filter object handed to OnFilter and persisted
// under FilterKey. When Upcoming is set, Year and Rating are always empty.
type Filters struct {
	Year     string `json:"year"`
	Rating   string `json:"rating"`
	Language string `json:"language"`
	Upcoming bool   `json:"upcoming"`
}

// savedFilters caches year/rating/language at the moment upcoming is turned
// on, so turning it off restores them. In-memory only.
type savedFilters struct {
	Year     string
	Rating   string
	Language string
}

// Suggestion is one autocomplete entry, derived per debounce cycle.
type Suggestion struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"posterPath,omitempty"`
	ReleaseYear string `json:"releaseYear,omitempty"`
}

// SuggestFunc resolves autocomplete suggestions for a trimmed query. It must
// honor ctx cancellation.
type SuggestFunc func(ctx context.Context, query string) ([]Suggestion, error)

// Callbacks are the external collaborators of the bar. Nil entries are no-ops.
type Callbacks struct {
	// OnSearch performs the actual metadata fetch for a submitted query. It is
	// awaited; the bar reports a loading state for its duration.
	OnSearch func(ctx context.Context, query string) error
	// OnFilter receives the finalized filter object.
	OnFilter func(Filters)
	// OnReset is invoked when search or all state is cleared.
	OnReset func()
	// Navigate opens the detail view for a selected suggestion.
	Navigate func(movieID int64)
}

// Timer is the cancellable handle behind a scheduled debounce firing.
type Timer interface {
	Stop() bool
}

// TimerFactory schedules fn after d and returns a stoppable handle. Tests
// substitute a manual clock.
type TimerFactory func(d time.Duration, fn func()) Timer

type realTimer struct{ *time.Timer }

func stdTimer(d time.Duration, fn func()) Timer {
	return realTimer{time.AfterFunc(d, fn)}
}

type Config struct {
	Storage   session.Storage
	Suggest   SuggestFunc
	Callbacks Callbacks
	Debounce  time.Duration
	NewTimer  TimerFactory
	Log       *slog.Logger
}

// Bar is the filter/search state machine. All methods are safe for use from
// the UI goroutine plus the internal debounce timer goroutine.
type Bar struct {
	mu        sync.Mutex
	storage   session.Storage
	suggest   SuggestFunc
	callbacks Callbacks
	debounce  time.Duration
	newTimer  TimerFactory
	log       *slog.Logger

	query   string
	message string

	year     string
	rating   string
	language string
	upcoming bool
	saved    *savedFilters

	editingLang  bool
	prevLanguage string

	showFilters bool

	suggestions     []Suggestion
	showSuggestions bool
	suggestLoading  bool
	searchLoading   bool

	pendingTimer  Timer
	pendingCancel context.CancelFunc
	fetchSeq      uint64
	closed        bool
}

func New(cfg Config) *Bar {
	if cfg.Storage == nil {
		cfg.Storage = session.NewMemoryStorage()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.NewTimer == nil {
		cfg.NewTimer = stdTimer
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	b := &Bar{
		storage:      cfg.Storage,
		suggest:      cfg.Suggest,
		callbacks:    cfg.Callbacks,
		debounce:     cfg.Debounce,
		newTimer:     cfg.NewTimer,
		log:          cfg.Log,
		language:     DefaultLanguage,
		prevLanguage: DefaultLanguage,
	}
	b.hydrate()
	return b
}

// hydrate restores persisted filter and query state. Malformed JSON is
// treated as absent. A hydrated upcoming filter keeps year/rating cleared and
// seeds the snapshot so toggling off still restores something plausible.
func (b *Bar) hydrate() {
	var saved Filters
	if session.GetJSON(b.storage, FilterKey, &saved) {
		lang := saved.Language
		if lang == "" {
			lang = DefaultLanguage
		}
		if saved.Upcoming {
			b.saved = &savedFilters{
				Year:     saved.Year,
				Rating:   saved.Rating,
				Language: lang,
			}
			b.language = lang
			b.year = ""
			b.rating = ""
			b.upcoming = true
		} else {
			b.year = saved.Year
			b.rating = saved.Rating
			b.language = lang
			b.upcoming = false
		}
		b.prevLanguage = b.language
	}

	if q, ok := b.storage.Get(QueryKey); ok && q != "" {
		b.query = q
	}
}

// SetQuery updates the free-text query, clears any inline message, and
// schedules a debounced suggestion fetch when the trimmed text is long
// enough. Each keystroke cancels the previous pending or in-flight fetch.
func (b *Bar) SetQuery(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.query = text
	b.message = ""
	b.cancelPendingLocked()

	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minSuggestLength {
		b.suggestions = nil
		b.showSuggestions = false
		b.suggestLoading = false
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.pendingCancel = cancel
	seq := b.fetchSeq
	b.pendingTimer = b.newTimer(b.debounce, func() {
		b.runSuggest(ctx, trimmed, seq)
	})
}

func (b *Bar) runSuggest(ctx context.Context, query string, seq uint64) {
	b.mu.Lock()
	if b.closed || seq != b.fetchSeq || b.suggest == nil {
		b.mu.Unlock()
		return
	}
	b.suggestLoading = true
	b.mu.Unlock()

	results, err := b.suggest(ctx, query)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.fetchSeq {
		// Superseded while in flight; a newer keystroke owns the state now.
		return
	}
	b.suggestLoading = false

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			b.log.Debug("search autocomplete failed", logger.Error(err))
		}
		b.suggestions = nil
		b.showSuggestions = false
		return
	}

	if len(results) > maxSuggestions {
		results = results[:maxSuggestions]
	}
	b.suggestions = results
	b.showSuggestions = true
}

// SubmitSearch finalizes the query. Trimmed input shorter than three
// characters sets the inline message and removes any persisted query without
// calling out. Otherwise the query is persisted, the dropdown closed, and the
// search callback awaited.
func (b *Bar) SubmitSearch(ctx context.Context) error {
	b.mu.Lock()
	trimmed := strings.TrimSpace(b.query)
	if len(trimmed) < minSearchLength {
		b.message = shortQueryMessage
		b.storage.Remove(QueryKey)
		b.mu.Unlock()
		return nil
	}

	b.message = ""
	b.storage.Set(QueryKey, trimmed)
	b.showSuggestions = false
	b.searchLoading = true
	onSearch := b.callbacks.OnSearch
	b.mu.Unlock()

	var err error
	if onSearch != nil {
		err = onSearch(ctx, trimmed)
	}

	b.mu.Lock()
	b.searchLoading = false
	b.mu.Unlock()
	return err
}

// ClearSearch resets the query and suggestion state, removes the persisted
// query, and invokes the reset callback.
func (b *Bar) ClearSearch() {
	b.mu.Lock()
	b.query = ""
	b.suggestions = nil
	b.showSuggestions = false
	b.cancelPendingLocked()
	b.storage.Remove(QueryKey)
	onReset := b.callbacks.OnReset
	b.mu.Unlock()

	if onReset != nil {
		onReset()
	}
}

// SelectSuggestion closes the dropdown, clears suggestions and query, drops
// the persisted query, and navigates to the detail view for movieID.
func (b *Bar) SelectSuggestion(movieID int64) {
	b.mu.Lock()
	b.showSuggestions = false
	b.suggestions = nil
	b.query = ""
	b.cancelPendingLocked()
	b.storage.Remove(QueryKey)
	navigate := b.callbacks.Navigate
	b.mu.Unlock()

	if navigate != nil {
		navigate(movieID)
	}
}

// ToggleUpcoming flips upcoming mode. Turning it on snapshots the current
// year/rating/language and clears year/rating; turning it off restores the
// snapshot (empty year/rating and the default language when absent).
func (b *Bar) ToggleUpcoming() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.upcoming {
		lang := b.language
		if lang == "" {
			lang = DefaultLanguage
		}
		b.saved = &savedFilters{
			Year:     b.year,
			Rating:   b.rating,
			Language: lang,
		}
		b.year = ""
		b.rating = ""
		b.upcoming = true
		return
	}

	if b.saved != nil {
		b.year = b.saved.Year
		b.rating = b.saved.Rating
		if b.saved.Language != "" {
			b.language = b.saved.Language
		} else {
			b.language = DefaultLanguage
		}
	}
	b.saved = nil
	b.upcoming = false
}

// ApplyFilters builds the finalized filter object (year/rating forced empty
// in upcoming mode), persists it, drops any persisted free-text query, and
// hands the object to the filter callback.
func (b *Bar) ApplyFilters() Filters {
	b.mu.Lock()
	filters := Filters{
		Language: b.language,
		Upcoming: b.upcoming,
	}
	if !b.upcoming {
		filters.Year = b.year
		filters.Rating = b.rating
	}

	session.SetJSON(b.storage, FilterKey, filters)
	b.storage.Remove(QueryKey)
	b.showSuggestions = false
	onFilter := b.callbacks.OnFilter
	b.mu.Unlock()

	if onFilter != nil {
		onFilter(filters)
	}
	return filters
}

// ResetAll clears both persisted keys and returns every piece of state to its
// default, then invokes the reset callback.
func (b *Bar) ResetAll() {
	b.mu.Lock()
	b.storage.Remove(FilterKey)
	b.storage.Remove(QueryKey)

	b.query = ""
	b.message = ""
	b.year = ""
	b.rating = ""
	b.language = DefaultLanguage
	b.upcoming = false
	b.saved = nil
	b.showFilters = false
	b.editingLang = false
	b.prevLanguage = DefaultLanguage
	b.suggestions = nil
	b.showSuggestions = false
	b.cancelPendingLocked()
	onReset := b.callbacks.OnReset
	b.mu.Unlock()

	if onReset != nil {
		onReset()
	}
}

// SetYear and SetRating edit the structured filters; ignored while upcoming
// mode disables the inputs.
func (b *Bar) SetYear(year string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.upcoming {
		return
	}
	b.year = year
}

func (b *Bar) SetRating(rating string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.upcoming {
		return
	}
	b.rating = rating
}

// BeginLanguageEdit opens a language edit session, remembering the current
// language as the rollback value.
func (b *Bar) BeginLanguageEdit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prevLanguage = b.language
	b.editingLang = true
}

func (b *Bar) SetLanguage(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.language = code
}

// SaveLanguage commits the selection as the new rollback value and closes the
// edit session.
func (b *Bar) SaveLanguage() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.editingLang = false
	b.prevLanguage = b.language
}

// CancelLanguage reverts to the rollback value and closes the edit session.
func (b *Bar) CancelLanguage() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.prevLanguage != "" {
		b.language = b.prevLanguage
	} else {
		b.language = DefaultLanguage
	}
	b.editingLang = false
}

// ToggleFilterPanel flips the filter panel and reports the new visibility.
func (b *Bar) ToggleFilterPanel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.showFilters = !b.showFilters
	return b.showFilters
}

// Close tears the bar down, cancelling any pending suggestion fetch.
func (b *Bar) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cancelPendingLocked()
}

// cancelPendingLocked invalidates the current debounce generation: any
// pending timer is stopped and any in-flight fetch cancelled. Callers hold mu.
func (b *Bar) cancelPendingLocked() {
	b.fetchSeq++
	if b.pendingTimer != nil {
		b.pendingTimer.Stop()
		b.pendingTimer = nil
	}
	if b.pendingCancel != nil {
		b.pendingCancel()
		b.pendingCancel = nil
	}
}

// Accessors for the view layer.

func (b *Bar) Query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

func (b *Bar) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.message
}

func (b *Bar) Language() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.language
}

func (b *Bar) Upcoming() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.upcoming
}

// Filters reports the current in-memory filter values without persisting.
func (b *Bar) Filters() Filters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Filters{
		Year:     b.year,
		Rating:   b.rating,
		Language: b.language,
		Upcoming: b.upcoming,
	}
}

func (b *Bar) Suggestions() []Suggestion {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Suggestion, len(b.suggestions))
	copy(out, b.suggestions)
	return out
}

func (b *Bar) DropdownOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.showSuggestions
}

func (b *Bar) FilterPanelOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.showFilters
}

func (b *Bar) EditingLanguage() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.editingLang
}

func (b *Bar) SearchLoading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.searchLoading
}

func (b *Bar) SuggestLoading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suggestLoading
}
