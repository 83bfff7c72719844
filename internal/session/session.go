// Package session holds the login/authorization flags every screen consults
// on mount. The store is injected rather than read from ambient global state
// so screens can be tested deterministically.
package session

import "sarasavi/pkg/domain"

// Session is the persisted identity snapshot. Flags stay set until Clear is
// called by a logout flow; there is no expiry logic on the client side.
type Session struct {
	User                  *domain.User   `json:"user,omitempty"`
	IsAuthenticated       bool           `json:"isAuthenticated"`
	IsAdmin               bool           `json:"isAdmin"`
	Member                *domain.Member `json:"member,omitempty"`
	IsMemberAuthenticated bool           `json:"isMemberAuthenticated"`
	Token                 string         `json:"token,omitempty"`
}

// Store persists the session snapshot. Load returns a zero Session when
// nothing is stored.
type Store interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// Login records an authenticated user. The admin flag is reflected from the
// server-issued token's role claim, never decided locally.
func Login(store Store, user domain.User, token string) error {
	sess, err := store.Load()
	if err != nil {
		return err
	}
	sess.User = &user
	sess.IsAuthenticated = true
	sess.IsAdmin = IsAdminToken(token)
	sess.Token = token
	return store.Save(sess)
}

// LoginMember records an authenticated member alongside any user identity.
func LoginMember(store Store, member domain.Member) error {
	sess, err := store.Load()
	if err != nil {
		return err
	}
	sess.Member = &member
	sess.IsMemberAuthenticated = true
	return store.Save(sess)
}
