package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"sarasavi/pkg/domain"
)

// CreateMemberRequest is the member registration request body.
type CreateMemberRequest struct {
	UserID         string                `json:"userId"`
	FirstName      string                `json:"firstName"`
	LastName       string                `json:"lastName"`
	Email          string                `json:"email"`
	MembershipType domain.MembershipType `json:"membershipType"`
}

func (c *Client) ListMembers(ctx context.Context) ([]domain.Member, error) {
	var members []domain.Member
	if err := c.send(ctx, http.MethodGet, "/members", nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) GetMember(ctx context.Context, id string) (domain.Member, error) {
	var member domain.Member
	err := c.send(ctx, http.MethodGet, "/members/"+pathID(id), nil, nil, &member)
	return member, err
}

func (c *Client) GetMemberByMemberID(ctx context.Context, memberID string) (domain.Member, error) {
	var member domain.Member
	err := c.send(ctx, http.MethodGet, "/members/member-id/"+pathID(memberID), nil, nil, &member)
	return member, err
}

func (c *Client) GetMemberByUserID(ctx context.Context, userID string) (domain.Member, error) {
	var member domain.Member
	err := c.send(ctx, http.MethodGet, "/members/user/"+pathID(userID), nil, nil, &member)
	return member, err
}

func (c *Client) CreateMember(ctx context.Context, req CreateMemberRequest) (domain.Member, error) {
	var member domain.Member
	err := c.send(ctx, http.MethodPost, "/members", nil, req, &member)
	return member, err
}

// CreateMemberFromUser asks the server to derive a membership from an
// existing user account.
func (c *Client) CreateMemberFromUser(ctx context.Context, userID, firstName, lastName, email string) (domain.Member, error) {
	query := url.Values{
		"userId":    {userID},
		"firstName": {firstName},
		"lastName":  {lastName},
		"email":     {email},
	}
	var member domain.Member
	err := c.send(ctx, http.MethodPost, "/members/auto-create", query, nil, &member)
	return member, err
}

func (c *Client) UpdateMember(ctx context.Context, id string, member domain.Member) (domain.Member, error) {
	var updated domain.Member
	err := c.send(ctx, http.MethodPut, "/members/"+pathID(id), nil, member, &updated)
	return updated, err
}

func (c *Client) DeleteMember(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/members/"+pathID(id), nil, nil, nil)
}

func (c *Client) SuspendMember(ctx context.Context, id string) (domain.Member, error) {
	var member domain.Member
	err := c.send(ctx, http.MethodPut, "/members/"+pathID(id)+"/suspend", nil, nil, &member)
	return member, err
}

func (c *Client) ActivateMember(ctx context.Context, id string) (domain.Member, error) {
	var member domain.Member
	err := c.send(ctx, http.MethodPut, "/members/"+pathID(id)+"/activate", nil, nil, &member)
	return member, err
}

func (c *Client) MembersByMembershipType(ctx context.Context, membershipType domain.MembershipType) ([]domain.Member, error) {
	var members []domain.Member
	err := c.send(ctx, http.MethodGet, "/members/membership-type/"+pathID(string(membershipType)), nil, nil, &members)
	return members, err
}

func (c *Client) MembersByStatus(ctx context.Context, status domain.MemberStatus) ([]domain.Member, error) {
	var members []domain.Member
	err := c.send(ctx, http.MethodGet, "/members/status/"+pathID(string(status)), nil, nil, &members)
	return members, err
}

func (c *Client) SearchMembers(ctx context.Context, query string) ([]domain.Member, error) {
	var members []domain.Member
	err := c.send(ctx, http.MethodGet, "/members/search", url.Values{"query": {query}}, nil, &members)
	return members, err
}

func (c *Client) TotalMembersCount(ctx context.Context) (int, error) {
	var count int
	err := c.send(ctx, http.MethodGet, "/members/stats/total", nil, nil, &count)
	return count, err
}

func (c *Client) MemberCountByMembershipType(ctx context.Context, membershipType domain.MembershipType) (int, error) {
	var count int
	err := c.send(ctx, http.MethodGet, "/members/stats/membership-type/"+pathID(string(membershipType)), nil, nil, &count)
	return count, err
}

func (c *Client) MemberCountByStatus(ctx context.Context, status domain.MemberStatus) (int, error) {
	var count int
	err := c.send(ctx, http.MethodGet, "/members/stats/status/"+pathID(string(status)), nil, nil, &count)
	return count, err
}

func (c *Client) MembersExpiringBefore(ctx context.Context, date time.Time) ([]domain.Member, error) {
	var members []domain.Member
	query := url.Values{"date": {date.Format("2006-01-02")}}
	err := c.send(ctx, http.MethodGet, "/members/expiring", query, nil, &members)
	return members, err
}

func (c *Client) MembersWithFines(ctx context.Context) ([]domain.Member, error) {
	var members []domain.Member
	err := c.send(ctx, http.MethodGet, "/members/with-fines", nil, nil, &members)
	return members, err
}
