package screen

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sarasavi/internal/client"
	"sarasavi/internal/session"
	"sarasavi/pkg/domain"
)

// MembersScreen drives the admin member management section.
type MembersScreen struct {
	api      *client.Client
	sessions session.Store
	banner   *Banner

	mu      sync.Mutex
	phase   Phase
	members []domain.Member
	total   int
	cancel  context.CancelFunc
}

func NewMembersScreen(api *client.Client, sessions session.Store, bannerTTL time.Duration) *MembersScreen {
	return &MembersScreen{api: api, sessions: sessions, banner: NewBanner(bannerTTL)}
}

func (s *MembersScreen) Mount(ctx context.Context) error {
	if _, err := RequireAdmin(s.sessions); err != nil {
		return err
	}
	return s.Load(ctx)
}

// Load fetches the member list and the total count concurrently.
func (s *MembersScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	ctx, cancel := supersede(ctx, s.cancel)
	s.cancel = cancel
	s.phase = PhaseLoading
	s.mu.Unlock()

	var (
		members []domain.Member
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.api.ListMembers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.api.TotalMembersCount(gctx)
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
	s.members = members
	s.total = total
	s.phase = PhaseReady
	s.mu.Unlock()
	return nil
}

func (s *MembersScreen) UpdateMember(ctx context.Context, id string, member domain.Member) error {
	return s.mutate(ctx, "Member updated successfully!", func(ctx context.Context) error {
		_, err := s.api.UpdateMember(ctx, id, member)
		return err
	})
}

func (s *MembersScreen) DeleteMember(ctx context.Context, id string) error {
	return s.mutate(ctx, "Member deleted successfully!", func(ctx context.Context) error {
		return s.api.DeleteMember(ctx, id)
	})
}

func (s *MembersScreen) SuspendMember(ctx context.Context, id string) error {
	return s.mutate(ctx, "Member suspended successfully!", func(ctx context.Context) error {
		_, err := s.api.SuspendMember(ctx, id)
		return err
	})
}

func (s *MembersScreen) ActivateMember(ctx context.Context, id string) error {
	return s.mutate(ctx, "Member activated successfully!", func(ctx context.Context) error {
		_, err := s.api.ActivateMember(ctx, id)
		return err
	})
}

// mutate runs one mutation and re-fetches the list on success.
func (s *MembersScreen) mutate(ctx context.Context, successMsg string, op func(context.Context) error) error {
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

func (s *MembersScreen) Members() []domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members
}

func (s *MembersScreen) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MembersScreen) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *MembersScreen) Banner() *Banner {
	return s.banner
}
