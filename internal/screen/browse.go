package screen

import (
	"context"
	"sync"
	"time"

	"sarasavi/internal/catalog"
	"sarasavi/internal/client"
	"sarasavi/pkg/domain"
)

// BrowseScreen is the public catalog view: the full fetched list plus the
// derived filtered view, recomputed whenever the list or the filter inputs
// change.
type BrowseScreen struct {
	api    *client.Client
	banner *Banner

	mu       sync.Mutex
	phase    Phase
	books    []domain.Book
	filtered []domain.Book
	genres   []string
	genre    string
	query    string
	selected *domain.Book
	cancel   context.CancelFunc
}

func NewBrowseScreen(api *client.Client, bannerTTL time.Duration) *BrowseScreen {
	return &BrowseScreen{
		api:    api,
		banner: NewBanner(bannerTTL),
		genre:  catalog.AllGenres,
	}
}

// Load fetches the catalog and recomputes the derived view.
func (s *BrowseScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	ctx, cancel := supersede(ctx, s.cancel)
	s.cancel = cancel
	s.phase = PhaseLoading
	s.mu.Unlock()

	books, err := s.api.ListBooks(ctx)
	if err != nil {
		s.mu.Lock()
		s.phase = PhaseFailed
		s.mu.Unlock()
		s.banner.SetError("Error loading books. Please try again.")
		return err
	}

	s.mu.Lock()
	s.books = books
	s.phase = PhaseReady
	s.recomputeLocked()
	s.mu.Unlock()
	return nil
}

// SetGenre changes the genre filter ("all" disables it).
func (s *BrowseScreen) SetGenre(genre string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genre = genre
	s.recomputeLocked()
}

// SetQuery changes the free-text filter, applied on every keystroke.
func (s *BrowseScreen) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.recomputeLocked()
}

// Select opens a book's detail view; nil closes it.
func (s *BrowseScreen) Select(book *domain.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = book
}

func (s *BrowseScreen) recomputeLocked() {
	s.filtered = catalog.Filter(s.books, s.genre, s.query)
	s.genres = catalog.Genres(s.books)
}

func (s *BrowseScreen) Filtered() []domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filtered
}

func (s *BrowseScreen) Genres() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genres
}

func (s *BrowseScreen) Selected() *domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *BrowseScreen) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *BrowseScreen) Banner() *Banner {
	return s.banner
}
