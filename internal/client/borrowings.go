package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"sarasavi/pkg/domain"
)

// CreateBorrowingRequest is the checkout request body.
type CreateBorrowingRequest struct {
	MemberID string    `json:"memberId"`
	BookID   string    `json:"bookId"`
	DueDate  time.Time `json:"dueDate"`
}

// ListBorrowings returns all borrowings, or only those of one member when
// memberID is non-empty.
func (c *Client) ListBorrowings(ctx context.Context, memberID string) ([]domain.Borrowing, error) {
	var query url.Values
	if memberID != "" {
		query = url.Values{"memberId": {memberID}}
	}
	var borrowings []domain.Borrowing
	if err := c.send(ctx, http.MethodGet, "/borrowings", query, nil, &borrowings); err != nil {
		return nil, err
	}
	return borrowings, nil
}

func (c *Client) CreateBorrowing(ctx context.Context, req CreateBorrowingRequest) (domain.Borrowing, error) {
	var borrowing domain.Borrowing
	err := c.send(ctx, http.MethodPost, "/borrowings", nil, req, &borrowing)
	return borrowing, err
}

func (c *Client) UpdateBorrowing(ctx context.Context, id string, borrowing domain.Borrowing) (domain.Borrowing, error) {
	var updated domain.Borrowing
	err := c.send(ctx, http.MethodPut, "/borrowings/"+pathID(id), nil, borrowing, &updated)
	return updated, err
}

// ReturnBorrowing marks the borrowing returned and restores the book copy.
func (c *Client) ReturnBorrowing(ctx context.Context, id string) (domain.Borrowing, error) {
	var returned domain.Borrowing
	err := c.send(ctx, http.MethodPost, "/borrowings/"+pathID(id)+"/return", nil, nil, &returned)
	return returned, err
}

func (c *Client) DeleteBorrowing(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/borrowings/"+pathID(id), nil, nil, nil)
}
