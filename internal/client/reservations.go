package client

import (
	"context"
	"net/http"
	"net/url"

	"sarasavi/pkg/domain"
)

// CreateReservationRequest is the reservation request body.
type CreateReservationRequest struct {
	MemberID string `json:"memberId"`
	BookID   string `json:"bookId"`
}

// ListReservations returns all reservations, or only those of one member
// when memberID is non-empty.
func (c *Client) ListReservations(ctx context.Context, memberID string) ([]domain.Reservation, error) {
	var query url.Values
	if memberID != "" {
		query = url.Values{"memberId": {memberID}}
	}
	var reservations []domain.Reservation
	if err := c.send(ctx, http.MethodGet, "/reservations", query, nil, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (c *Client) CreateReservation(ctx context.Context, req CreateReservationRequest) (domain.Reservation, error) {
	var reservation domain.Reservation
	err := c.send(ctx, http.MethodPost, "/reservations", nil, req, &reservation)
	return reservation, err
}

func (c *Client) UpdateReservation(ctx context.Context, id string, reservation domain.Reservation) (domain.Reservation, error) {
	var updated domain.Reservation
	err := c.send(ctx, http.MethodPut, "/reservations/"+pathID(id), nil, reservation, &updated)
	return updated, err
}

// ReceiveReservation marks the reserved copy as handed over to the member.
func (c *Client) ReceiveReservation(ctx context.Context, id string) (domain.Reservation, error) {
	var received domain.Reservation
	err := c.send(ctx, http.MethodPost, "/reservations/"+pathID(id)+"/receive", nil, nil, &received)
	return received, err
}

func (c *Client) DeleteReservation(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/reservations/"+pathID(id), nil, nil, nil)
}
