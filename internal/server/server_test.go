package server

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"sarasavi/internal/client"
	"sarasavi/internal/notify"
	"sarasavi/internal/server/store"
	"sarasavi/internal/session"
	"sarasavi/internal/usertoken"
	"sarasavi/pkg/domain"
)

const testPassword = "Str0ng!Passw0rd"

type captureNotifier struct {
	kinds []string
}

func (n *captureNotifier) Enqueue(_ context.Context, kind string, _ []byte) (notify.Delivery, error) {
	n.kinds = append(n.kinds, kind)
	return notify.Delivery{ID: "d1", Kind: kind}, nil
}

func newTestServer(t *testing.T, mutate func(*Config)) (*httptest.Server, *captureNotifier) {
	t.Helper()
	redisSrv := miniredis.RunT(t)
	tokens, err := usertoken.NewManager(usertoken.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	notifier := &captureNotifier{}
	cfg := Config{
		Store:                      store.NewMemoryStore(),
		Tokens:                     tokens,
		Outbox:                     notifier,
		CookieSecret:               "test-cookie-secret",
		RedisAddr:                  redisSrv.Addr(),
		SignupRateLimitPerMinute:   100,
		LoginRateLimitPerMinute:    100,
		PasswordRateLimitPerMinute: 100,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, notifier
}

func signup(t *testing.T, api *client.Client, username string) domain.User {
	t.Helper()
	user, err := api.CreateUser(context.Background(), client.CreateUserRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return user
}

func login(t *testing.T, api *client.Client, username string) client.LoginResult {
	t.Helper()
	result, err := api.Login(context.Background(), client.Credentials{Username: username, Password: testPassword})
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return result
}

func TestFirstSignupBecomesAdminAndTokenCarriesRole(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	api := client.New(ts.URL + "/api")

	first := signup(t, api, "librarian")
	if first.Role != domain.RoleAdmin {
		t.Fatalf("expected first user to be admin, got %q", first.Role)
	}
	second := signup(t, api, "reader")
	if second.Role != domain.RoleMember {
		t.Fatalf("expected second user to be member, got %q", second.Role)
	}

	result := login(t, api, "librarian")
	if result.Token == "" {
		t.Fatalf("expected login to return a token")
	}
	if !session.IsAdminToken(result.Token) {
		t.Fatalf("expected admin role claim in token")
	}

	memberClient := client.New(ts.URL + "/api")
	memberResult := login(t, memberClient, "reader")
	if session.IsAdminToken(memberResult.Token) {
		t.Fatalf("expected member token to not carry admin role")
	}
}

func TestLoginRejectsBadCredentialsAndInactiveAccounts(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	login(t, admin, "librarian")
	reader := signup(t, admin, "reader")

	api := client.New(ts.URL + "/api")
	_, err := api.Login(context.Background(), client.Credentials{Username: "reader", Password: "wrong"})
	apiErr, ok := err.(*client.APIError)
	if !ok || apiErr.Status != 401 {
		t.Fatalf("expected 401 for bad password, got %v", err)
	}

	if _, err := admin.DeactivateUser(context.Background(), reader.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = api.Login(context.Background(), client.Credentials{Username: "reader", Password: testPassword})
	apiErr, ok = err.(*client.APIError)
	if !ok || apiErr.Status != 403 {
		t.Fatalf("expected 403 for inactive account, got %v", err)
	}
	if _, err := admin.ActivateUser(context.Background(), reader.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := api.Login(context.Background(), client.Credentials{Username: "reader", Password: testPassword}); err != nil {
		t.Fatalf("login after reactivation: %v", err)
	}
}

func TestBookWritesRequireAdmin(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	signup(t, admin, "reader")

	anon := client.New(ts.URL + "/api")
	_, err := anon.CreateBook(context.Background(), domain.Book{Title: "T", Author: "A"})
	if apiErr, ok := err.(*client.APIError); !ok || apiErr.Status != 401 {
		t.Fatalf("expected 401 for anonymous create, got %v", err)
	}

	member := client.New(ts.URL + "/api")
	login(t, member, "reader")
	_, err = member.CreateBook(context.Background(), domain.Book{Title: "T", Author: "A"})
	if apiErr, ok := err.(*client.APIError); !ok || apiErr.Status != 403 {
		t.Fatalf("expected 403 for member create, got %v", err)
	}

	login(t, admin, "librarian")
	book, err := admin.CreateBook(context.Background(), domain.Book{Title: "T", Author: "A"})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if book.BookNo != "B10001" {
		t.Fatalf("expected generated bookNo B10001, got %q", book.BookNo)
	}
	if !book.Available || book.AvailableCopies != 1 {
		t.Fatalf("expected one available copy by default, got %+v", book)
	}

	_, err = admin.CreateBook(context.Background(), domain.Book{Title: "T2", Author: "A2", BookNo: "B10001"})
	apiErr, ok := err.(*client.APIError)
	if !ok || apiErr.Status != 400 || apiErr.Message != "bookNo already exists" {
		t.Fatalf("expected duplicate bookNo rejection, got %v", err)
	}
}

func TestBookFiltersSearchAndStats(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	login(t, admin, "librarian")

	ctx := context.Background()
	seed := []domain.Book{
		{Title: "Dune", Author: "Herbert", Genre: "Fiction", Language: "English", PublicationYear: 1965, TotalCopies: 3},
		{Title: "Cosmos", Author: "Sagan", Genre: "Science", Language: "English", PublicationYear: 1980, TotalCopies: 2},
		{Title: "Madol Doova", Author: "Wickramasinghe", Genre: "Fiction", Language: "Sinhala", PublicationYear: 1947, TotalCopies: 1},
	}
	for _, b := range seed {
		if _, err := admin.CreateBook(ctx, b); err != nil {
			t.Fatalf("seed book: %v", err)
		}
	}

	anon := client.New(ts.URL + "/api")
	fiction, err := anon.SearchBooksByGenre(ctx, "Fiction")
	if err != nil {
		t.Fatalf("genre search: %v", err)
	}
	if len(fiction) != 2 {
		t.Fatalf("expected 2 fiction books, got %d", len(fiction))
	}

	byQuery, err := anon.SearchBooks(ctx, "sagan")
	if err != nil {
		t.Fatalf("query search: %v", err)
	}
	if len(byQuery) != 1 || byQuery[0].Title != "Cosmos" {
		t.Fatalf("unexpected query result: %+v", byQuery)
	}

	sinhala, err := anon.BooksByLanguage(ctx, "Sinhala")
	if err != nil {
		t.Fatalf("language filter: %v", err)
	}
	if len(sinhala) != 1 || sinhala[0].Title != "Madol Doova" {
		t.Fatalf("unexpected language result: %+v", sinhala)
	}

	ranged, err := anon.BooksByYearRange(ctx, 1960, 1990)
	if err != nil {
		t.Fatalf("year range: %v", err)
	}
	if len(ranged) != 2 {
		t.Fatalf("expected 2 books in range, got %d", len(ranged))
	}

	stats, err := anon.BookStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalBooks != 3 || stats.TotalCopies != 6 || stats.AvailableBooks != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	ts, _ := newTestServer(t, func(cfg *Config) {
		cfg.LoginRateLimitPerMinute = 2
	})
	api := client.New(ts.URL + "/api")
	signup(t, api, "librarian")

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, _ = api.Login(ctx, client.Credentials{Username: "librarian", Password: "wrong"})
	}
	_, err := api.Login(ctx, client.Credentials{Username: "librarian", Password: testPassword})
	apiErr, ok := err.(*client.APIError)
	if !ok || apiErr.Status != 429 {
		t.Fatalf("expected 429 after exceeding login limit, got %v", err)
	}
}

func TestChangePasswordFlow(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	api := client.New(ts.URL + "/api")
	user := signup(t, api, "librarian")
	login(t, api, "librarian")

	ctx := context.Background()
	err := api.ChangePassword(ctx, user.ID, "wrong", "Another!Pass9")
	if apiErr, ok := err.(*client.APIError); !ok || apiErr.Status != 401 {
		t.Fatalf("expected 401 for wrong current password, got %v", err)
	}

	if err := api.ChangePassword(ctx, user.ID, testPassword, "Another!Pass9"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	fresh := client.New(ts.URL + "/api")
	if _, err := fresh.Login(ctx, client.Credentials{Username: "librarian", Password: "Another!Pass9"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
