package screen

import (
	"context"
	"errors"
	"strings"
	"time"

	"sarasavi/internal/client"
	"sarasavi/internal/session"
	"sarasavi/pkg/domain"
)

// RegistrationForm is what the become-a-member modal collects. The email is
// pre-filled from the signed-in account.
type RegistrationForm struct {
	Email          string
	Password       string
	MembershipType domain.MembershipType
}

// ErrEmailMismatch is raised locally, before any network call, when the form
// email differs from the signed-in account email.
var ErrEmailMismatch = errors.New("Email must match your registered account email")

// ErrMissingFields is raised locally when required form fields are empty.
var ErrMissingFields = errors.New("Please fill in all required fields")

// ErrAlreadyMember remaps the backend's "already a member" conflict into the
// instruction shown to the user.
var ErrAlreadyMember = errors.New(`You are already a registered member. Please use "Already a Member?" option below and enter your Member ID to access your profile.`)

// MemberPortal drives the homepage membership flows: registration,
// member-id login, and the membership status probe.
type MemberPortal struct {
	api      *client.Client
	sessions session.Store
	banner   *Banner
}

func NewMemberPortal(api *client.Client, sessions session.Store, bannerTTL time.Duration) *MemberPortal {
	return &MemberPortal{api: api, sessions: sessions, banner: NewBanner(bannerTTL)}
}

// Register turns the signed-in user into a member. Local validation runs
// first; the password is re-verified against the account before the member
// record is created.
func (p *MemberPortal) Register(ctx context.Context, form RegistrationForm) (domain.Member, error) {
	sess, err := RequireUser(p.sessions)
	if err != nil {
		return domain.Member{}, err
	}
	if form.Email == "" || form.Password == "" {
		p.banner.SetError(ErrMissingFields.Error())
		return domain.Member{}, ErrMissingFields
	}
	if sess.User.Email != form.Email {
		p.banner.SetError(ErrEmailMismatch.Error())
		return domain.Member{}, ErrEmailMismatch
	}
	if form.MembershipType == "" {
		form.MembershipType = domain.MembershipBasic
	}

	if _, err := p.api.Login(ctx, client.Credentials{Username: sess.User.Username, Password: form.Password}); err != nil {
		msg := "Password verification failed. Please enter your correct password."
		p.banner.SetError(msg)
		return domain.Member{}, errors.New(msg)
	}

	member, err := p.api.CreateMember(ctx, client.CreateMemberRequest{
		UserID:         sess.User.ID,
		FirstName:      sess.User.FirstName,
		LastName:       sess.User.LastName,
		Email:          form.Email,
		MembershipType: form.MembershipType,
	})
	if err != nil {
		if strings.Contains(err.Error(), "already a member") {
			p.banner.SetError(ErrAlreadyMember.Error())
			return domain.Member{}, ErrAlreadyMember
		}
		p.banner.SetError(failureMessage(err))
		return domain.Member{}, err
	}

	if err := session.LoginMember(p.sessions, member); err != nil {
		return domain.Member{}, err
	}
	p.banner.SetSuccess("Member registration successful! Check your email for your Member ID.")
	return member, nil
}

// LoginWithMemberID signs into the member portal using the mailed member
// code.
func (p *MemberPortal) LoginWithMemberID(ctx context.Context, memberID string) (domain.Member, error) {
	if strings.TrimSpace(memberID) == "" {
		msg := "Please enter your Member ID"
		p.banner.SetError(msg)
		return domain.Member{}, errors.New(msg)
	}
	member, err := p.api.GetMemberByMemberID(ctx, memberID)
	if err != nil {
		p.banner.SetError("Member ID not found or invalid")
		return domain.Member{}, err
	}
	if err := session.LoginMember(p.sessions, member); err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

// IsExistingMember probes whether the signed-in user already has a
// membership; a lookup failure reads as "not a member yet".
func (p *MemberPortal) IsExistingMember(ctx context.Context) bool {
	sess, err := p.sessions.Load()
	if err != nil || sess.User == nil {
		return false
	}
	_, err = p.api.GetMemberByUserID(ctx, sess.User.ID)
	return err == nil
}

// Logout clears every session flag.
func (p *MemberPortal) Logout() error {
	return p.sessions.Clear()
}

func (p *MemberPortal) Banner() *Banner {
	return p.banner
}
