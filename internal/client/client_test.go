package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"sarasavi/pkg/domain"
)

func TestSendReturnsNoBodyOnNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	var out map[string]any
	if err := c.send(context.Background(), http.MethodDelete, "/books/b1", nil, nil, &out); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil body on 204, got %v", out)
	}
}

func TestSendRoundTripsJSONBody(t *testing.T) {
	payload := map[string]any{"title": "X", "copies": float64(3), "nested": map[string]any{"ok": true}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	c := New(srv.URL)
	var out map[string]any
	if err := c.send(context.Background(), http.MethodGet, "/books/b1", nil, nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(out, payload) {
		t.Fatalf("expected body round-trip, got %v want %v", out, payload)
	}
}

func TestSendErrorMessageUsesBodyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("DB error"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.send(context.Background(), http.MethodGet, "/books", nil, nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", apiErr.Status)
	}
	if apiErr.Message != "DB error" {
		t.Fatalf("expected message %q, got %q", "DB error", apiErr.Message)
	}
}

func TestSendErrorMessageFallsBackToReasonPhrase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.send(context.Background(), http.MethodGet, "/books/missing", nil, nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != http.StatusText(http.StatusNotFound) {
		t.Fatalf("expected reason phrase, got %q", apiErr.Message)
	}
}

func TestSendErrorMessageDecodesJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bookNo already exists"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.send(context.Background(), http.MethodPost, "/books", nil, map[string]string{}, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "bookNo already exists" {
		t.Fatalf("expected decoded error field, got %q", apiErr.Message)
	}
}

func TestDecodeBodyUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    domain.Member{ID: "m1", MemberID: "LIB2025001"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	member, err := c.GetMemberByMemberID(context.Background(), "LIB2025001")
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if member.ID != "m1" || member.MemberID != "LIB2025001" {
		t.Fatalf("unexpected member: %+v", member)
	}
}

func TestDecodeBodyEnvelopeFailureBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "member not found",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetMemberByMemberID(context.Background(), "LIB2025999")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "member not found" {
		t.Fatalf("expected envelope message, got %q", apiErr.Message)
	}
}

func TestDecodeBodyAcceptsBareResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.Book{ID: "b1", BookNo: "B10001", Title: "Go"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	book, err := c.GetBook(context.Background(), "b1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if book.BookNo != "B10001" {
		t.Fatalf("unexpected book: %+v", book)
	}
}

func TestQueryArgumentsArePercentEncoded(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.SearchBooks(context.Background(), "go & concurrency"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotQuery != "query=go+%26+concurrency" {
		t.Fatalf("expected encoded query, got %q", gotQuery)
	}
}

func TestPathParametersAreEscaped(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.BooksByLocation(context.Background(), "shelf/3 north"); err != nil {
		t.Fatalf("books by location: %v", err)
	}
	if gotPath != "/books/location/shelf%2F3%20north" {
		t.Fatalf("expected escaped path, got %q", gotPath)
	}
}

func TestRequestsCarryJSONContentTypeAndRequestID(t *testing.T) {
	var contentType, requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get("X-Request-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.ListBooks(context.Background()); err != nil {
		t.Fatalf("list books: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("expected JSON content type, got %q", contentType)
	}
	if requestID == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}

func TestSendHonorsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	if _, err := c.ListBooks(ctx); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
