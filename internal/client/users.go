package client

import (
	"context"
	"net/http"
	"net/url"

	"sarasavi/pkg/domain"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult carries the authenticated user and the role-bearing token
// issued by the server.
type LoginResult struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// CreateUserRequest is the registration request body.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.send(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := c.send(ctx, http.MethodGet, "/users/"+pathID(id), nil, nil, &user)
	return user, err
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := c.send(ctx, http.MethodGet, "/users/username/"+pathID(username), nil, nil, &user)
	return user, err
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := c.send(ctx, http.MethodGet, "/users/email/"+pathID(email), nil, nil, &user)
	return user, err
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (domain.User, error) {
	var user domain.User
	err := c.send(ctx, http.MethodPost, "/users", nil, req, &user)
	return user, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, user domain.User) (domain.User, error) {
	var updated domain.User
	err := c.send(ctx, http.MethodPut, "/users/"+pathID(id), nil, user, &updated)
	return updated, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/users/"+pathID(id), nil, nil, nil)
}

// Login verifies credentials. On success the returned token is attached to
// this client for subsequent calls.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	var result LoginResult
	if err := c.send(ctx, http.MethodPost, "/users/login", nil, creds, &result); err != nil {
		return LoginResult{}, err
	}
	if result.Token != "" {
		c.SetToken(result.Token)
	}
	return result, nil
}

// Logout ends the server session and drops the attached token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.send(ctx, http.MethodPost, "/users/logout", nil, nil, nil)
	c.token = ""
	return err
}

func (c *Client) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	return c.send(ctx, http.MethodPut, "/users/"+pathID(id)+"/change-password", nil, body, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.send(ctx, http.MethodPost, "/users/password/forgot", nil, map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "newPassword": newPassword}
	return c.send(ctx, http.MethodPost, "/users/password/reset", nil, body, nil)
}

func (c *Client) ActivateUser(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := c.send(ctx, http.MethodPut, "/users/"+pathID(id)+"/activate", nil, nil, &user)
	return user, err
}

func (c *Client) DeactivateUser(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := c.send(ctx, http.MethodPut, "/users/"+pathID(id)+"/deactivate", nil, nil, &user)
	return user, err
}

func (c *Client) UsersByStatus(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	var users []domain.User
	err := c.send(ctx, http.MethodGet, "/users/status/"+pathID(string(status)), nil, nil, &users)
	return users, err
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	var users []domain.User
	err := c.send(ctx, http.MethodGet, "/users/search", url.Values{"query": {query}}, nil, &users)
	return users, err
}

func (c *Client) UserStats(ctx context.Context) (domain.UserStats, error) {
	var stats domain.UserStats
	err := c.send(ctx, http.MethodGet, "/users/stats", nil, nil, &stats)
	return stats, err
}
