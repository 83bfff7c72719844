package screen

import "sarasavi/internal/session"

// RequireUser gates screens that need a signed-in account.
func RequireUser(store session.Store) (session.Session, error) {
	sess, err := store.Load()
	if err != nil {
		return session.Session{}, err
	}
	if !sess.IsAuthenticated || sess.User == nil {
		return session.Session{}, ErrLoginRequired
	}
	return sess, nil
}

// RequireAdmin gates admin screens. The admin flag mirrors the server-issued
// role claim; the server re-checks it on every admin endpoint, so this gate
// is advisory navigation only.
func RequireAdmin(store session.Store) (session.Session, error) {
	sess, err := RequireUser(store)
	if err != nil {
		return session.Session{}, err
	}
	if !sess.IsAdmin {
		return session.Session{}, ErrLoginRequired
	}
	return sess, nil
}

// RequireMember gates the member portal.
func RequireMember(store session.Store) (session.Session, error) {
	sess, err := store.Load()
	if err != nil {
		return session.Session{}, err
	}
	if !sess.IsMemberAuthenticated || sess.Member == nil {
		return session.Session{}, ErrLoginRequired
	}
	return sess, nil
}
