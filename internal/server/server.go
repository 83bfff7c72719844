// Package server exposes the library REST API: catalog, user accounts,
// memberships, and circulation.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/sessions"

	"sarasavi/internal/notify"
	"sarasavi/internal/ratelimit"
	"sarasavi/internal/server/store"
	"sarasavi/internal/usertoken"
	"sarasavi/internal/util"
	"sarasavi/pkg/domain"
)

const sessionName = "sarasavi_session"

// Notifier queues an event for asynchronous delivery.
type Notifier interface {
	Enqueue(ctx context.Context, kind string, payload []byte) (notify.Delivery, error)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	Store                      store.Store
	Tokens                     *usertoken.Manager
	Outbox                     Notifier
	CookieSecret               string
	RedisAddr                  string
	RedisPassword              string
	TrustedProxies             []string
	SignupRateLimitPerMinute   int
	LoginRateLimitPerMinute    int
	PasswordRateLimitPerMinute int
}

// Server exposes HTTP endpoints for the library backend.
type Server struct {
	store   store.Store
	tokens  *usertoken.Manager
	outbox  Notifier
	cookies *sessions.CookieStore
	mux     *http.ServeMux
	proxies *util.TrustedProxies

	signupLimiter   *ratelimit.FixedWindowLimiter
	loginLimiter    *ratelimit.FixedWindowLimiter
	passwordLimiter *ratelimit.FixedWindowLimiter

	resetMu     sync.Mutex
	resetTokens map[string]resetToken
}

type resetToken struct {
	userID  string
	expires time.Time
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("server requires a store")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("server requires a token manager")
	}
	signupLimit := cfg.SignupRateLimitPerMinute
	if signupLimit <= 0 {
		signupLimit = 5
	}
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}
	passwordLimit := cfg.PasswordRateLimitPerMinute
	if passwordLimit <= 0 {
		passwordLimit = 10
	}
	rateWindow := time.Minute
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		prefix := "sarasavi:ratelimit:" + name
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, rateWindow)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	signupLimiter, err := newLimiter("signup", signupLimit)
	if err != nil {
		return nil, err
	}
	loginLimiter, err := newLimiter("login", loginLimit)
	if err != nil {
		return nil, err
	}
	passwordLimiter, err := newLimiter("password", passwordLimit)
	if err != nil {
		return nil, err
	}
	proxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	cookieSecret := strings.TrimSpace(cfg.CookieSecret)
	if cookieSecret == "" {
		cookieSecret = util.NewID()
	}
	cookies := sessions.NewCookieStore([]byte(cookieSecret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	s := &Server{
		store:           cfg.Store,
		tokens:          cfg.Tokens,
		outbox:          cfg.Outbox,
		cookies:         cookies,
		mux:             http.NewServeMux(),
		proxies:         proxies,
		signupLimiter:   signupLimiter,
		loginLimiter:    loginLimiter,
		passwordLimiter: passwordLimiter,
		resetTokens:     make(map[string]resetToken),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler wrapped in the shared middleware
// chain.
func (s *Server) Router() http.Handler {
	handler := util.WithRequestLog("api", s.mux)
	handler = util.WithRequestID(handler)
	return util.WithSecurityHeaders(util.WithCORS(handler))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/api/books", s.handleBooks)
	s.mux.HandleFunc("/api/books/", s.handleBookSubtree)

	s.mux.HandleFunc("/api/users", s.handleUsers)
	s.mux.HandleFunc("/api/users/", s.handleUserSubtree)

	s.mux.HandleFunc("/api/members", s.handleMembers)
	s.mux.HandleFunc("/api/members/", s.handleMemberSubtree)

	s.mux.HandleFunc("/api/borrowings", s.handleBorrowings)
	s.mux.HandleFunc("/api/borrowings/", s.handleBorrowingSubtree)

	s.mux.HandleFunc("/api/reservations", s.handleReservations)
	s.mux.HandleFunc("/api/reservations/", s.handleReservationSubtree)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// currentUser resolves the caller from the bearer token, falling back to the
// session cookie. The store record is the source of truth for the role.
func (s *Server) currentUser(r *http.Request) (domain.User, bool) {
	if token, ok := bearerToken(r); ok {
		claims, err := s.tokens.Verify(token)
		if err != nil {
			s.audit(r, "token.verify", "fail", "reason", "invalid_signature_or_claims")
			return domain.User{}, false
		}
		user, found, err := s.store.GetUser(claims.Subject)
		if err != nil || !found {
			s.audit(r, "token.verify", "fail", "reason", "unknown_subject")
			return domain.User{}, false
		}
		return user, true
	}
	session, err := s.cookies.Get(r, sessionName)
	if err != nil {
		return domain.User{}, false
	}
	userID, _ := session.Values["userID"].(string)
	if userID == "" {
		return domain.User{}, false
	}
	user, found, err := s.store.GetUser(userID)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// requireUser writes 401 when the request carries no valid identity.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user, ok := s.currentUser(r)
	if !ok {
		s.audit(r, "authorize", "fail")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	return user, true
}

// requireAdmin writes 401/403 unless the caller is an admin.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user, ok := s.currentUser(r)
	if !ok {
		s.audit(r, "admin.authorize", "fail", "reason", "unauthenticated")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	if user.Role != domain.RoleAdmin {
		s.audit(r, "admin.authorize", "fail", "user_id", user.ID, "reason", "forbidden")
		writeError(w, http.StatusForbidden, "forbidden")
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, userID string) {
	session, _ := s.cookies.Get(r, sessionName)
	session.Values["userID"] = userID
	if err := session.Save(r, w); err != nil {
		slog.Warn("save session cookie", "error", err)
	}
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	session, _ := s.cookies.Get(r, sessionName)
	session.Options.MaxAge = -1
	delete(session.Values, "userID")
	_ = session.Save(r, w)
}

// publish queues an event; delivery failures are logged, never surfaced.
func (s *Server) publish(ctx context.Context, kind string, event any) {
	if s.outbox == nil {
		return
	}
	payload, err := notify.Encode(event)
	if err != nil {
		slog.Warn("encode event", "kind", kind, "error", err)
		return
	}
	if _, err := s.outbox.Enqueue(ctx, kind, payload); err != nil {
		slog.Warn("enqueue event", "kind", kind, "error", err)
	}
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", s.clientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + s.clientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// pathSegments splits the path after prefix, unescaping each segment so IDs
// containing encoded slashes survive.
func pathSegments(r *http.Request, prefix string) []string {
	rest := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
	if rest == "" {
		return nil
	}
	raw := strings.Split(rest, "/")
	segs := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg == "" {
			continue
		}
		if dec, err := url.PathUnescape(seg); err == nil {
			seg = dec
		}
		segs = append(segs, seg)
	}
	return segs
}

func readJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeEnvelope wraps a single resource in the success envelope used by the
// account and membership endpoints.
func writeEnvelope(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// clientIP resolves the caller address, trusting forwarded headers only when
// the direct peer is a configured proxy.
func (s *Server) clientIP(r *http.Request) string {
	return util.ClientIP(r, s.proxies)
}
