package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jwt "github.com/golang-jwt/jwt/v5"

	"sarasavi/pkg/domain"
)

func signTestToken(t *testing.T, role domain.UserRole) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestFileStoreRoundTripAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	sess, err := store.Load()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if sess.IsAuthenticated || sess.IsAdmin || sess.User != nil {
		t.Fatalf("expected zero session, got %+v", sess)
	}

	user := domain.User{ID: "u1", Username: "jane", Email: "jane@x.com"}
	if err := Login(store, user, signTestToken(t, domain.RoleAdmin)); err != nil {
		t.Fatalf("login: %v", err)
	}

	sess, err = store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !sess.IsAuthenticated || !sess.IsAdmin {
		t.Fatalf("expected authenticated admin session, got %+v", sess)
	}
	if sess.User == nil || sess.User.Username != "jane" {
		t.Fatalf("expected stored user, got %+v", sess.User)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	sess, err = store.Load()
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if sess.IsAuthenticated {
		t.Fatalf("expected cleared session, got %+v", sess)
	}
}

func TestLoginReflectsRoleClaimNotUsername(t *testing.T) {
	store := NewMemoryStore()
	// A user literally named "Admin" without the admin role claim must not
	// become an admin.
	user := domain.User{ID: "u2", Username: "Admin"}
	if err := Login(store, user, signTestToken(t, domain.RoleMember)); err != nil {
		t.Fatalf("login: %v", err)
	}
	sess, _ := store.Load()
	if sess.IsAdmin {
		t.Fatalf("expected non-admin session for member role claim")
	}

	if err := Login(store, domain.User{ID: "u3", Username: "pat"}, signTestToken(t, domain.RoleAdmin)); err != nil {
		t.Fatalf("login: %v", err)
	}
	sess, _ = store.Load()
	if !sess.IsAdmin {
		t.Fatalf("expected admin session for admin role claim")
	}
}

func TestLoginMemberSetsMemberFlag(t *testing.T) {
	store := NewMemoryStore()
	member := domain.Member{ID: "m1", MemberID: "LIB2025001"}
	if err := LoginMember(store, member); err != nil {
		t.Fatalf("login member: %v", err)
	}
	sess, _ := store.Load()
	if !sess.IsMemberAuthenticated || sess.Member == nil || sess.Member.MemberID != "LIB2025001" {
		t.Fatalf("expected member session, got %+v", sess)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	store := NewRedisStore(srv.Addr(), "", "sarasavi:session:test", time.Hour)

	sess, err := store.Load()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if sess.IsAuthenticated {
		t.Fatalf("expected zero session")
	}

	want := Session{IsAuthenticated: true, Token: "tok"}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	sess, err = store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !sess.IsAuthenticated || sess.Token != "tok" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	sess, _ = store.Load()
	if sess.IsAuthenticated {
		t.Fatalf("expected cleared session")
	}
}

func TestRoleFromTokenMalformed(t *testing.T) {
	if role := RoleFromToken("not-a-token"); role != "" {
		t.Fatalf("expected empty role for malformed token, got %q", role)
	}
	if IsAdminToken("") {
		t.Fatalf("expected empty token to not be admin")
	}
}
