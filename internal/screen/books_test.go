package screen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sarasavi/internal/client"
	"sarasavi/internal/session"
	"sarasavi/pkg/domain"
)

func adminSession(t *testing.T) session.Store {
	t.Helper()
	store := session.NewMemoryStore()
	err := store.Save(session.Session{
		User:            &domain.User{ID: "u1", Username: "pat", Email: "pat@x.com"},
		IsAuthenticated: true,
		IsAdmin:         true,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return store
}

func TestBooksScreenMountRefusesWithoutAdminSession(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	s := NewBooksScreen(client.New(srv.URL), session.NewMemoryStore(), time.Second)
	err := s.Mount(context.Background())
	var redirect *RedirectError
	if !errors.As(err, &redirect) {
		t.Fatalf("expected redirect error, got %v", err)
	}
	if redirect.Route != "/login" {
		t.Fatalf("expected login route, got %q", redirect.Route)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("expected no data fetches before the gate, got %d", got)
	}
}

func TestBooksScreenLoadPopulatesListStatsAndSuggestion(t *testing.T) {
	books := []domain.Book{
		{ID: "1", BookNo: "B10001", Title: "A"},
		{ID: "2", BookNo: "B10005", Title: "B"},
		{ID: "3", BookNo: "B10003", Title: "C"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/books", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(books)
	})
	mux.HandleFunc("/books/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.BookStats{TotalBooks: 3, TotalCopies: 9})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewBooksScreen(client.New(srv.URL), adminSession(t), time.Second)
	if err := s.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if s.Phase() != PhaseReady {
		t.Fatalf("expected ready phase, got %v", s.Phase())
	}
	if len(s.Books()) != 3 {
		t.Fatalf("expected 3 books, got %d", len(s.Books()))
	}
	if s.Stats().TotalBooks != 3 {
		t.Fatalf("unexpected stats: %+v", s.Stats())
	}
	if s.NextBookNo() != "B10006" {
		t.Fatalf("expected suggestion B10006, got %q", s.NextBookNo())
	}
}

func TestBooksScreenCreateFillsSuggestedBookNoAndRefreshes(t *testing.T) {
	var createdBookNo string
	var listCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/books", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			var book domain.Book
			_ = json.NewDecoder(r.Body).Decode(&book)
			createdBookNo = book.BookNo
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(book)
			return
		}
		atomic.AddInt32(&listCalls, 1)
		_ = json.NewEncoder(w).Encode([]domain.Book{{ID: "1", BookNo: "B10001"}})
	})
	mux.HandleFunc("/books/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.BookStats{TotalBooks: 1})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewBooksScreen(client.New(srv.URL), adminSession(t), time.Second)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	listsBefore := atomic.LoadInt32(&listCalls)

	if err := s.CreateBook(context.Background(), domain.Book{Title: "X", Author: "Y"}); err != nil {
		t.Fatalf("create book: %v", err)
	}
	if createdBookNo != "B10002" {
		t.Fatalf("expected suggested bookNo B10002 in request, got %q", createdBookNo)
	}
	if atomic.LoadInt32(&listCalls) != listsBefore+1 {
		t.Fatalf("expected list refresh after create")
	}
	if s.Banner().Success() == "" {
		t.Fatalf("expected success banner after create")
	}
}

func TestBooksScreenCreateFailureShowsServerMessageAndKeepsForm(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("DB error"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	})
	mux.HandleFunc("/books/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.BookStats{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewBooksScreen(client.New(srv.URL), adminSession(t), time.Second)
	editing := domain.Book{ID: "1", Title: "Edit me"}
	s.StartEdit(editing)

	err := s.CreateBook(context.Background(), domain.Book{Title: "X", Author: "Y"})
	if err == nil {
		t.Fatalf("expected create failure")
	}
	if s.Banner().Error() != "DB error" {
		t.Fatalf("expected banner %q, got %q", "DB error", s.Banner().Error())
	}
	if s.Banner().Success() != "" {
		t.Fatalf("expected no success banner on failure")
	}
	if s.Editing() == nil {
		t.Fatalf("expected editing state to survive a failed mutation")
	}
	if s.Phase() != PhaseFailed {
		t.Fatalf("expected failed phase, got %v", s.Phase())
	}
}

func TestBooksScreenLoadFailureUsesConnectivityMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // unreachable host

	s := NewBooksScreen(client.New(srv.URL), adminSession(t), time.Second)
	if err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected load failure")
	}
	if s.Banner().Error() != "Error connecting to server" {
		t.Fatalf("expected connectivity banner, got %q", s.Banner().Error())
	}
}

func TestBannerAutoClearsAndResets(t *testing.T) {
	b := NewBanner(30 * time.Millisecond)
	b.SetError("first")
	b.SetSuccess("saved")
	if b.Error() != "first" || b.Success() != "saved" {
		t.Fatalf("expected both banner slots set")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if b.Error() == "" && b.Success() == "" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected banner to auto-clear, got error=%q success=%q", b.Error(), b.Success())
}

func TestBannerLastWriteWins(t *testing.T) {
	b := NewBanner(time.Minute)
	b.SetError("one")
	b.SetError("two")
	if b.Error() != "two" {
		t.Fatalf("expected last error message, got %q", b.Error())
	}
}
