package server

import (
	"net/http"
	"strings"
	"time"

	"sarasavi/internal/notify"
	"sarasavi/internal/util"
	"sarasavi/pkg/auth"
	"sarasavi/pkg/domain"
)

const resetTokenTTL = 30 * time.Minute

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// /api/users
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}
		users, err := s.store.ListUsers()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list users")
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		s.handleCreateUser(w, r)
	default:
		methodNotAllowed(w)
	}
}

// handleCreateUser registers an account. The first account ever created
// becomes the admin; everyone after that is a member.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.signupLimiter, "too many signup attempts") {
		s.audit(r, "user.create", "rate_limited")
		return
	}
	var req createUserRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email, and password are required")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, exists, err := s.store.GetUserByUsername(req.Username); err == nil && exists {
		writeError(w, http.StatusBadRequest, "username already exists")
		return
	}
	if _, exists, err := s.store.GetUserByEmail(req.Email); err == nil && exists {
		writeError(w, http.StatusBadRequest, "email already exists")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	count, err := s.store.UserCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count users")
		return
	}
	role := domain.RoleMember
	if count == 0 {
		role = domain.RoleAdmin
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.SaveUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	s.audit(r, "user.create", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

// /api/users/{id} plus login, password, lookup, and stats endpoints.
func (s *Server) handleUserSubtree(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/api/users/")
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}
	switch segs[0] {
	case "login":
		s.handleLogin(w, r)
	case "logout":
		s.handleLogout(w, r)
	case "password":
		if len(segs) == 2 && segs[1] == "forgot" {
			s.handleForgotPassword(w, r)
			return
		}
		if len(segs) == 2 && segs[1] == "reset" {
			s.handleResetPassword(w, r)
			return
		}
		http.NotFound(w, r)
	case "username":
		if len(segs) != 2 {
			http.NotFound(w, r)
			return
		}
		s.handleUserLookup(w, r, func() (domain.User, bool, error) {
			return s.store.GetUserByUsername(segs[1])
		})
	case "email":
		if len(segs) != 2 {
			http.NotFound(w, r)
			return
		}
		s.handleUserLookup(w, r, func() (domain.User, bool, error) {
			return s.store.GetUserByEmail(segs[1])
		})
	case "status":
		if len(segs) != 2 {
			http.NotFound(w, r)
			return
		}
		status := domain.UserStatus(segs[1])
		s.listUsersWhere(w, r, func(u domain.User) bool { return u.Status == status })
	case "search":
		query := strings.ToLower(r.URL.Query().Get("query"))
		s.listUsersWhere(w, r, func(u domain.User) bool {
			return strings.Contains(strings.ToLower(u.Username), query) ||
				strings.Contains(strings.ToLower(u.Email), query) ||
				strings.Contains(strings.ToLower(u.FirstName), query) ||
				strings.Contains(strings.ToLower(u.LastName), query)
		})
	case "stats":
		s.handleUserStats(w, r)
	default:
		s.handleUserByID(w, r, segs)
	}
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request, segs []string) {
	id := segs[0]
	if len(segs) == 2 {
		switch segs[1] {
		case "change-password":
			s.handleChangePassword(w, r, id)
		case "activate":
			s.handleSetUserStatus(w, r, id, domain.UserActive)
		case "deactivate":
			s.handleSetUserStatus(w, r, id, domain.UserInactive)
		default:
			http.NotFound(w, r)
		}
		return
	}
	if len(segs) != 1 {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		caller, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		if caller.ID != id && caller.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		user, found, err := s.store.GetUser(id)
		if err != nil || !found {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		s.handleUpdateUser(w, r, id)
	case http.MethodDelete:
		admin, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}
		if _, found, err := s.store.GetUser(id); err != nil || !found {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if err := s.store.DeleteUser(id); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete user")
			return
		}
		s.audit(r, "user.delete", "success", "user_id", admin.ID, "target_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, id string) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if caller.ID != id && caller.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	existing, found, err := s.store.GetUser(id)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	var user domain.User
	if !readJSON(w, r, &user) {
		return
	}
	user.ID = existing.ID
	user.PasswordHash = existing.PasswordHash
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	// only admins may change role or status
	if caller.Role != domain.RoleAdmin {
		user.Role = existing.Role
		user.Status = existing.Status
	}
	if user.Role == "" {
		user.Role = existing.Role
	}
	if user.Status == "" {
		user.Status = existing.Status
	}
	if err := s.store.SaveUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "user.login", "rate_limited")
		return
	}
	var req credentialsRequest
	if !readJSON(w, r, &req) {
		return
	}
	user, found, err := s.store.GetUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if !found || !auth.CheckPassword(req.Password, user.PasswordHash) {
		s.audit(r, "user.login", "fail", "reason", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if user.Status != domain.UserActive {
		s.audit(r, "user.login", "fail", "user_id", user.ID, "reason", "inactive")
		writeError(w, http.StatusForbidden, "account is deactivated")
		return
	}
	token, err := s.tokens.Issue(user.ID, user.Username, string(user.Role))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	s.setSessionCookie(w, r, user.ID)
	s.audit(r, "user.login", "success", "user_id", user.ID)
	writeEnvelope(w, http.StatusOK, loginResponse{User: user, Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.clearSessionCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.passwordLimiter, "too many password change attempts") {
		s.audit(r, "user.password.change", "rate_limited")
		return
	}
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if caller.ID != id {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	var req changePasswordRequest
	if !readJSON(w, r, &req) {
		return
	}
	user, found, err := s.store.GetUser(id)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if !auth.CheckPassword(req.OldPassword, user.PasswordHash) {
		s.audit(r, "user.password.change", "fail", "user_id", id, "reason", "wrong_password")
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	s.audit(r, "user.password.change", "success", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleForgotPassword always answers 204 so the endpoint cannot be used to
// probe which emails are registered.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.passwordLimiter, "too many password reset attempts") {
		s.audit(r, "user.password.forgot", "rate_limited")
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	user, found, err := s.store.GetUserByEmail(strings.TrimSpace(req.Email))
	if err == nil && found {
		token := util.NewID()
		s.resetMu.Lock()
		s.resetTokens[token] = resetToken{userID: user.ID, expires: time.Now().Add(resetTokenTTL)}
		s.resetMu.Unlock()
		s.publish(r.Context(), notify.KindPasswordReset, notify.PasswordResetEvent{
			Email: user.Email,
			Token: token,
		})
		s.audit(r, "user.password.forgot", "success", "user_id", user.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.passwordLimiter, "too many password reset attempts") {
		s.audit(r, "user.password.reset", "rate_limited")
		return
	}
	var req resetPasswordRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.resetMu.Lock()
	entry, ok := s.resetTokens[req.Token]
	if ok {
		delete(s.resetTokens, req.Token)
	}
	s.resetMu.Unlock()
	if !ok || time.Now().After(entry.expires) {
		s.audit(r, "user.password.reset", "fail", "reason", "invalid_token")
		writeError(w, http.StatusBadRequest, "invalid or expired reset token")
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, found, err := s.store.GetUser(entry.userID)
	if err != nil || !found {
		writeError(w, http.StatusBadRequest, "invalid or expired reset token")
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	s.audit(r, "user.password.reset", "success", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetUserStatus(w http.ResponseWriter, r *http.Request, id string, status domain.UserStatus) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	user, found, err := s.store.GetUser(id)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	user.Status = status
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	s.audit(r, "user.status", "success", "user_id", admin.ID, "target_id", id, "status", string(status))
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserLookup(w http.ResponseWriter, r *http.Request, lookup func() (domain.User, bool, error)) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	user, found, err := lookup()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listUsersWhere(w http.ResponseWriter, r *http.Request, keep func(domain.User) bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	users, err := s.store.ListUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	filtered := make([]domain.User, 0, len(users))
	for _, u := range users {
		if keep(u) {
			filtered = append(filtered, u)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	users, err := s.store.ListUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	var stats domain.UserStats
	stats.TotalUsers = len(users)
	for _, u := range users {
		if u.Status == domain.UserActive {
			stats.ActiveUsers++
		} else {
			stats.InactiveUsers++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}
