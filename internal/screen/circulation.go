package screen

import (
	"context"
	"sync"
	"time"

	"sarasavi/internal/client"
	"sarasavi/internal/session"
	"sarasavi/pkg/domain"
)

// BorrowingsScreen drives the borrowing & fines section.
type BorrowingsScreen struct {
	api      *client.Client
	sessions session.Store
	banner   *Banner

	mu         sync.Mutex
	phase      Phase
	borrowings []domain.Borrowing
	memberID   string
	cancel     context.CancelFunc
}

func NewBorrowingsScreen(api *client.Client, sessions session.Store, bannerTTL time.Duration) *BorrowingsScreen {
	return &BorrowingsScreen{api: api, sessions: sessions, banner: NewBanner(bannerTTL)}
}

func (s *BorrowingsScreen) Mount(ctx context.Context) error {
	if _, err := RequireAdmin(s.sessions); err != nil {
		return err
	}
	return s.Load(ctx)
}

// FilterByMember restricts the list to one member; empty shows all.
func (s *BorrowingsScreen) FilterByMember(memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberID = memberID
}

func (s *BorrowingsScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	ctx, cancel := supersede(ctx, s.cancel)
	s.cancel = cancel
	s.phase = PhaseLoading
	memberID := s.memberID
	s.mu.Unlock()

	borrowings, err := s.api.ListBorrowings(ctx, memberID)
	if err != nil {
		s.mu.Lock()
		s.phase = PhaseFailed
		s.mu.Unlock()
		s.banner.SetError(failureMessage(err))
		return err
	}

	s.mu.Lock()
	s.borrowings = borrowings
	s.phase = PhaseReady
	s.mu.Unlock()
	return nil
}

func (s *BorrowingsScreen) Checkout(ctx context.Context, req client.CreateBorrowingRequest) error {
	return s.mutate(ctx, "Borrowing recorded successfully!", func(ctx context.Context) error {
		_, err := s.api.CreateBorrowing(ctx, req)
		return err
	})
}

func (s *BorrowingsScreen) Return(ctx context.Context, id string) error {
	return s.mutate(ctx, "Book returned successfully!", func(ctx context.Context) error {
		_, err := s.api.ReturnBorrowing(ctx, id)
		return err
	})
}

func (s *BorrowingsScreen) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, "Borrowing deleted successfully!", func(ctx context.Context) error {
		return s.api.DeleteBorrowing(ctx, id)
	})
}

func (s *BorrowingsScreen) mutate(ctx context.Context, successMsg string, op func(context.Context) error) error {
	s.mu.Lock()
	s.phase = PhaseLoading
	s.mu.Unlock()
	if err := op(ctx); err != nil {
		s.mu.Lock()
		s.phase = PhaseFailed
		s.mu.Unlock()
		s.banner.SetError(failureMessage(err))
		return err
	}
	s.banner.SetSuccess(successMsg)
	return s.Load(ctx)
}

func (s *BorrowingsScreen) Borrowings() []domain.Borrowing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.borrowings
}

func (s *BorrowingsScreen) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *BorrowingsScreen) Banner() *Banner {
	return s.banner
}

// ReservationsScreen drives the reservations section.
type ReservationsScreen struct {
	api      *client.Client
	sessions session.Store
	banner   *Banner

	mu           sync.Mutex
	phase        Phase
	reservations []domain.Reservation
	memberID     string
	cancel       context.CancelFunc
}

func NewReservationsScreen(api *client.Client, sessions session.Store, bannerTTL time.Duration) *ReservationsScreen {
	return &ReservationsScreen{api: api, sessions: sessions, banner: NewBanner(bannerTTL)}
}

func (s *ReservationsScreen) Mount(ctx context.Context) error {
	if _, err := RequireAdmin(s.sessions); err != nil {
		return err
	}
	return s.Load(ctx)
}

func (s *ReservationsScreen) FilterByMember(memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberID = memberID
}

func (s *ReservationsScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	ctx, cancel := supersede(ctx, s.cancel)
	s.cancel = cancel
	s.phase = PhaseLoading
	memberID := s.memberID
	s.mu.Unlock()

	reservations, err := s.api.ListReservations(ctx, memberID)
	if err != nil {
		s.mu.Lock()
		s.phase = PhaseFailed
		s.mu.Unlock()
		s.banner.SetError(failureMessage(err))
		return err
	}

	s.mu.Lock()
	s.reservations = reservations
	s.phase = PhaseReady
	s.mu.Unlock()
	return nil
}

func (s *ReservationsScreen) Create(ctx context.Context, req client.CreateReservationRequest) error {
	return s.mutate(ctx, "Reservation created successfully!", func(ctx context.Context) error {
		_, err := s.api.CreateReservation(ctx, req)
		return err
	})
}

func (s *ReservationsScreen) Receive(ctx context.Context, id string) error {
	return s.mutate(ctx, "Reservation marked as received!", func(ctx context.Context) error {
		_, err := s.api.ReceiveReservation(ctx, id)
		return err
	})
}

func (s *ReservationsScreen) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, "Reservation deleted successfully!", func(ctx context.Context) error {
		return s.api.DeleteReservation(ctx, id)
	})
}

func (s *ReservationsScreen) mutate(ctx context.Context, successMsg string, op func(context.Context) error) error {
	s.mu.Lock()
	s.phase = PhaseLoading
	s.mu.Unlock()
	if err := op(ctx); err != nil {
		s.mu.Lock()
		s.phase = PhaseFailed
		s.mu.Unlock()
		s.banner.SetError(failureMessage(err))
		return err
	}
	s.banner.SetSuccess(successMsg)
	return s.Load(ctx)
}

func (s *ReservationsScreen) Reservations() []domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations
}

func (s *ReservationsScreen) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *ReservationsScreen) Banner() *Banner {
	return s.banner
}
