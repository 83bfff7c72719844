package screen

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sarasavi/internal/catalog"
	"sarasavi/internal/client"
	"sarasavi/internal/session"
	"sarasavi/pkg/domain"
)

// BooksScreen drives the admin books management section: list + stats on
// mount, full re-fetch after every mutation, bookNo suggestion for the
// create form.
type BooksScreen struct {
	api      *client.Client
	sessions session.Store
	banner   *Banner

	mu         sync.Mutex
	phase      Phase
	books      []domain.Book
	stats      domain.BookStats
	nextBookNo string
	editing    *domain.Book
	cancel     context.CancelFunc
}

func NewBooksScreen(api *client.Client, sessions session.Store, bannerTTL time.Duration) *BooksScreen {
	return &BooksScreen{
		api:        api,
		sessions:   sessions,
		banner:     NewBanner(bannerTTL),
		nextBookNo: "B10001",
	}
}

// Mount gates on the admin session before any data is fetched, then loads.
func (s *BooksScreen) Mount(ctx context.Context) error {
	if _, err := RequireAdmin(s.sessions); err != nil {
		return err
	}
	return s.Load(ctx)
}

// Load fetches the book list and stats concurrently, superseding any load
// still in flight.
func (s *BooksScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	ctx, cancel := supersede(ctx, s.cancel)
	s.cancel = cancel
	s.phase = PhaseLoading
	s.mu.Unlock()

	var (
		books []domain.Book
		stats domain.BookStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = s.api.ListBooks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.api.BookStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.phase = PhaseFailed
		s.mu.Unlock()
		s.banner.SetError(failureMessage(err))
		return err
	}

	s.mu.Lock()
	s.books = books
	s.stats = stats
	s.nextBookNo = catalog.NextBookNo(books)
	s.phase = PhaseReady
	s.mu.Unlock()
	return nil
}

// CreateBook submits a new book, filling in the suggested bookNo when the
// form left it empty. The editing state is cleared only on success.
func (s *BooksScreen) CreateBook(ctx context.Context, book domain.Book) error {
	if book.BookNo == "" {
		book.BookNo = s.NextBookNo()
	}
	s.setPhase(PhaseLoading)
	if _, err := s.api.CreateBook(ctx, book); err != nil {
		s.setPhase(PhaseFailed)
		s.banner.SetError(failureMessage(err))
		return err
	}
	s.banner.SetSuccess("Book added successfully!")
	s.clearEditing()
	return s.Load(ctx)
}

func (s *BooksScreen) UpdateBook(ctx context.Context, id string, book domain.Book) error {
	s.setPhase(PhaseLoading)
	if _, err := s.api.UpdateBook(ctx, id, book); err != nil {
		s.setPhase(PhaseFailed)
		s.banner.SetError(failureMessage(err))
		return err
	}
	s.banner.SetSuccess("Book updated successfully!")
	s.clearEditing()
	return s.Load(ctx)
}

func (s *BooksScreen) DeleteBook(ctx context.Context, id string) error {
	s.setPhase(PhaseLoading)
	if err := s.api.DeleteBook(ctx, id); err != nil {
		s.setPhase(PhaseFailed)
		s.banner.SetError(failureMessage(err))
		return err
	}
	s.banner.SetSuccess("Book deleted successfully!")
	return s.Load(ctx)
}

// StartEdit pre-fills the form with an existing book.
func (s *BooksScreen) StartEdit(book domain.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = &book
}

// CancelEdit abandons the form and dismisses banners.
func (s *BooksScreen) CancelEdit() {
	s.clearEditing()
	s.banner.Clear()
}

func (s *BooksScreen) clearEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil
}

func (s *BooksScreen) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

func (s *BooksScreen) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *BooksScreen) Books() []domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books
}

func (s *BooksScreen) Stats() domain.BookStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *BooksScreen) NextBookNo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextBookNo
}

func (s *BooksScreen) Editing() *domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

func (s *BooksScreen) Banner() *Banner {
	return s.banner
}
