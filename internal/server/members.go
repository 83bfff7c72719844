package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"sarasavi/internal/notify"
	"sarasavi/internal/util"
	"sarasavi/pkg/domain"
)

const membershipTerm = 365 * 24 * time.Hour

type createMemberRequest struct {
	UserID         string                `json:"userId"`
	FirstName      string                `json:"firstName"`
	LastName       string                `json:"lastName"`
	Email          string                `json:"email"`
	MembershipType domain.MembershipType `json:"membershipType"`
}

// /api/members
func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}
		members, err := s.store.ListMembers()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list members")
			return
		}
		writeJSON(w, http.StatusOK, members)
	case http.MethodPost:
		s.handleCreateMember(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req createMemberRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		req.UserID = caller.ID
	}
	// members may only register themselves
	if req.UserID != caller.ID && caller.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	member, err := s.createMember(req)
	if err != nil {
		writeMemberError(w, err)
		return
	}
	s.publishMemberCreated(r, member)
	s.audit(r, "member.create", "success", "user_id", caller.ID, "member_id", member.MemberID)
	writeEnvelope(w, http.StatusCreated, member)
}

type memberError struct {
	status int
	msg    string
}

func (e *memberError) Error() string { return e.msg }

func writeMemberError(w http.ResponseWriter, err error) {
	if me, ok := err.(*memberError); ok {
		writeError(w, me.status, me.msg)
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to create member")
}

func (s *Server) createMember(req createMemberRequest) (domain.Member, error) {
	user, found, err := s.store.GetUser(req.UserID)
	if err != nil {
		return domain.Member{}, err
	}
	if !found {
		return domain.Member{}, &memberError{http.StatusNotFound, "user not found"}
	}
	if _, exists, err := s.store.GetMemberByUserID(req.UserID); err == nil && exists {
		return domain.Member{}, &memberError{http.StatusBadRequest, "user is already a member"}
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = user.Email
	}
	membershipType := req.MembershipType
	if membershipType == "" {
		membershipType = domain.MembershipBasic
	}
	memberID, err := s.nextMemberID()
	if err != nil {
		return domain.Member{}, err
	}
	now := time.Now().UTC()
	member := domain.Member{
		ID:             util.NewID(),
		MemberID:       memberID,
		UserID:         req.UserID,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          email,
		MembershipType: membershipType,
		Status:         domain.MemberActive,
		ExpiryDate:     now.Add(membershipTerm),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if member.FirstName == "" {
		member.FirstName = user.FirstName
	}
	if member.LastName == "" {
		member.LastName = user.LastName
	}
	if err := s.store.SaveMember(member); err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

// nextMemberID allocates codes like LIB2025001, bumping past collisions.
func (s *Server) nextMemberID() (string, error) {
	count, err := s.store.MemberCount()
	if err != nil {
		return "", err
	}
	year := time.Now().UTC().Year()
	for seq := count + 1; ; seq++ {
		candidate := fmt.Sprintf("LIB%d%03d", year, seq)
		_, exists, err := s.store.GetMemberByMemberID(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func (s *Server) publishMemberCreated(r *http.Request, member domain.Member) {
	s.publish(r.Context(), notify.KindMemberCreated, notify.MemberCreatedEvent{
		MemberID:       member.MemberID,
		Email:          member.Email,
		FirstName:      member.FirstName,
		MembershipType: member.MembershipType,
		ExpiryDate:     member.ExpiryDate,
	})
}

// /api/members/{id} plus lookup, auto-create, stats, and filter endpoints.
func (s *Server) handleMemberSubtree(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/api/members/")
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}
	switch segs[0] {
	case "member-id":
		if len(segs) != 2 || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		member, found, err := s.store.GetMemberByMemberID(segs[1])
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load member")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		writeEnvelope(w, http.StatusOK, member)
	case "user":
		if len(segs) != 2 || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		caller, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		if caller.ID != segs[1] && caller.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		member, found, err := s.store.GetMemberByUserID(segs[1])
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load member")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		writeEnvelope(w, http.StatusOK, member)
	case "auto-create":
		s.handleAutoCreateMember(w, r)
	case "membership-type":
		if len(segs) != 2 {
			http.NotFound(w, r)
			return
		}
		membershipType := domain.MembershipType(segs[1])
		s.listMembersWhere(w, r, func(m domain.Member) bool { return m.MembershipType == membershipType })
	case "status":
		if len(segs) != 2 {
			http.NotFound(w, r)
			return
		}
		status := domain.MemberStatus(segs[1])
		s.listMembersWhere(w, r, func(m domain.Member) bool { return m.Status == status })
	case "search":
		query := strings.ToLower(r.URL.Query().Get("query"))
		s.listMembersWhere(w, r, func(m domain.Member) bool {
			return strings.Contains(strings.ToLower(m.MemberID), query) ||
				strings.Contains(strings.ToLower(m.FirstName), query) ||
				strings.Contains(strings.ToLower(m.LastName), query) ||
				strings.Contains(strings.ToLower(m.Email), query)
		})
	case "stats":
		s.handleMemberStats(w, r, segs[1:])
	case "expiring":
		s.handleMembersExpiring(w, r)
	case "with-fines":
		s.listMembersWhere(w, r, func(m domain.Member) bool { return m.FineBalance > 0 })
	default:
		s.handleMemberByID(w, r, segs)
	}
}

func (s *Server) handleAutoCreateMember(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := createMemberRequest{
		UserID:    strings.TrimSpace(q.Get("userId")),
		FirstName: q.Get("firstName"),
		LastName:  q.Get("lastName"),
		Email:     q.Get("email"),
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	member, err := s.createMember(req)
	if err != nil {
		writeMemberError(w, err)
		return
	}
	s.publishMemberCreated(r, member)
	s.audit(r, "member.auto_create", "success", "user_id", admin.ID, "member_id", member.MemberID)
	writeEnvelope(w, http.StatusCreated, member)
}

func (s *Server) handleMemberByID(w http.ResponseWriter, r *http.Request, segs []string) {
	id := segs[0]
	if len(segs) == 2 {
		switch segs[1] {
		case "suspend":
			s.handleSetMemberStatus(w, r, id, domain.MemberSuspended)
		case "activate":
			s.handleSetMemberStatus(w, r, id, domain.MemberActive)
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
		member, found, err := s.store.GetMember(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load member")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		if member.UserID != caller.ID && caller.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		writeEnvelope(w, http.StatusOK, member)
	case http.MethodPut:
		s.handleUpdateMember(w, r, id)
	case http.MethodDelete:
		admin, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}
		if _, found, err := s.store.GetMember(id); err != nil || !found {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		busy, err := s.hasActiveBorrowing(func(b domain.Borrowing) bool { return b.MemberID == id })
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check borrowings")
			return
		}
		if busy {
			writeError(w, http.StatusBadRequest, "member has active borrowings")
			return
		}
		if err := s.store.DeleteMember(id); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete member")
			return
		}
		s.audit(r, "member.delete", "success", "user_id", admin.ID, "target_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request, id string) {
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	existing, found, err := s.store.GetMember(id)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	var member domain.Member
	if !readJSON(w, r, &member) {
		return
	}
	member.ID = existing.ID
	member.MemberID = existing.MemberID
	member.UserID = existing.UserID
	if member.MembershipType == "" {
		member.MembershipType = existing.MembershipType
	}
	if member.Status == "" {
		member.Status = existing.Status
	}
	if member.ExpiryDate.IsZero() {
		member.ExpiryDate = existing.ExpiryDate
	}
	member.CreatedAt = existing.CreatedAt
	member.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveMember(member); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save member")
		return
	}
	s.audit(r, "member.update", "success", "user_id", admin.ID, "target_id", id)
	writeEnvelope(w, http.StatusOK, member)
}

func (s *Server) handleSetMemberStatus(w http.ResponseWriter, r *http.Request, id string, status domain.MemberStatus) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	member, found, err := s.store.GetMember(id)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	member.Status = status
	member.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveMember(member); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save member")
		return
	}
	s.audit(r, "member.status", "success", "user_id", admin.ID, "target_id", id, "status", string(status))
	writeEnvelope(w, http.StatusOK, member)
}

// stats/total, stats/membership-type/{t}, stats/status/{s}
func (s *Server) handleMemberStats(w http.ResponseWriter, r *http.Request, rest []string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	switch {
	case len(rest) == 1 && rest[0] == "total":
		count, err := s.store.MemberCount()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to count members")
			return
		}
		writeJSON(w, http.StatusOK, count)
	case len(rest) == 2 && rest[0] == "membership-type":
		membershipType := domain.MembershipType(rest[1])
		s.countMembersWhere(w, func(m domain.Member) bool { return m.MembershipType == membershipType })
	case len(rest) == 2 && rest[0] == "status":
		status := domain.MemberStatus(rest[1])
		s.countMembersWhere(w, func(m domain.Member) bool { return m.Status == status })
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) countMembersWhere(w http.ResponseWriter, keep func(domain.Member) bool) {
	members, err := s.store.ListMembers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	count := 0
	for _, m := range members {
		if keep(m) {
			count++
		}
	}
	writeJSON(w, http.StatusOK, count)
}

func (s *Server) handleMembersExpiring(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	s.listMembersWhere(w, r, func(m domain.Member) bool { return m.ExpiryDate.Before(date) })
}

func (s *Server) listMembersWhere(w http.ResponseWriter, r *http.Request, keep func(domain.Member) bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	members, err := s.store.ListMembers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	filtered := make([]domain.Member, 0, len(members))
	for _, m := range members {
		if keep(m) {
			filtered = append(filtered, m)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}
