package server

import (
	"net/http"
	"time"

	"sarasavi/internal/notify"
	"sarasavi/internal/util"
	"sarasavi/pkg/domain"
)

const (
	defaultLoanPeriod = 14 * 24 * time.Hour
	finePerDay        = 10.0
)

type createBorrowingRequest struct {
	MemberID string    `json:"memberId"`
	BookID   string    `json:"bookId"`
	DueDate  time.Time `json:"dueDate"`
}

type createReservationRequest struct {
	MemberID string `json:"memberId"`
	BookID   string `json:"bookId"`
}

// callerMember resolves the membership owned by the caller, if any.
func (s *Server) callerMember(user domain.User) (domain.Member, bool) {
	member, found, err := s.store.GetMemberByUserID(user.ID)
	if err != nil {
		return domain.Member{}, false
	}
	return member, found
}

// hasActiveBorrowing reports whether any open loan matches keep. Used to
// block deleting books or members that still have copies out.
func (s *Server) hasActiveBorrowing(keep func(domain.Borrowing) bool) (bool, error) {
	borrowings, err := s.store.ListBorrowings()
	if err != nil {
		return false, err
	}
	for _, b := range borrowings {
		if b.Status != domain.BorrowingReturned && keep(b) {
			return true, nil
		}
	}
	return false, nil
}

// /api/borrowings
func (s *Server) handleBorrowings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		caller, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		filter := r.URL.Query().Get("memberId")
		if caller.Role != domain.RoleAdmin {
			member, isMember := s.callerMember(caller)
			if !isMember {
				writeJSON(w, http.StatusOK, []domain.Borrowing{})
				return
			}
			filter = member.ID
		}
		borrowings, err := s.store.ListBorrowings()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list borrowings")
			return
		}
		filtered := make([]domain.Borrowing, 0, len(borrowings))
		for _, b := range borrowings {
			if filter == "" || b.MemberID == filter {
				filtered = append(filtered, b)
			}
		}
		writeJSON(w, http.StatusOK, filtered)
	case http.MethodPost:
		s.handleCreateBorrowing(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateBorrowing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req createBorrowingRequest
	if !readJSON(w, r, &req) {
		return
	}
	member, found, err := s.store.GetMember(req.MemberID)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if member.UserID != caller.ID && caller.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if member.Status != domain.MemberActive {
		writeError(w, http.StatusBadRequest, "member is suspended")
		return
	}
	book, found, err := s.store.GetBook(req.BookID)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	if book.AvailableCopies <= 0 {
		writeError(w, http.StatusBadRequest, "no copies available")
		return
	}
	now := time.Now().UTC()
	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = now.Add(defaultLoanPeriod)
	}
	borrowing := domain.Borrowing{
		ID:         util.NewID(),
		MemberID:   member.ID,
		BookID:     book.ID,
		BorrowDate: now,
		DueDate:    dueDate,
		Status:     domain.BorrowingBorrowed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	book.AvailableCopies--
	book.Available = book.AvailableCopies > 0
	book.UpdatedAt = now
	if err := s.store.SaveBook(book); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update book")
		return
	}
	if err := s.store.SaveBorrowing(borrowing); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save borrowing")
		return
	}
	s.audit(r, "borrowing.create", "success", "user_id", caller.ID, "borrowing_id", borrowing.ID)
	writeJSON(w, http.StatusCreated, borrowing)
}

// /api/borrowings/{id} and /api/borrowings/{id}/return
func (s *Server) handleBorrowingSubtree(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/api/borrowings/")
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}
	id := segs[0]
	if len(segs) == 2 && segs[1] == "return" {
		s.handleReturnBorrowing(w, r, id)
		return
	}
	if len(segs) != 1 {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPut:
		s.handleUpdateBorrowing(w, r, id)
	case http.MethodDelete:
		admin, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}
		if _, found, err := s.store.GetBorrowing(id); err != nil || !found {
			writeError(w, http.StatusNotFound, "borrowing not found")
			return
		}
		if err := s.store.DeleteBorrowing(id); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete borrowing")
			return
		}
		s.audit(r, "borrowing.delete", "success", "user_id", admin.ID, "target_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpdateBorrowing(w http.ResponseWriter, r *http.Request, id string) {
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	existing, found, err := s.store.GetBorrowing(id)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "borrowing not found")
		return
	}
	var borrowing domain.Borrowing
	if !readJSON(w, r, &borrowing) {
		return
	}
	borrowing.ID = existing.ID
	borrowing.MemberID = existing.MemberID
	borrowing.BookID = existing.BookID
	if borrowing.Status == "" {
		borrowing.Status = existing.Status
	}
	if borrowing.BorrowDate.IsZero() {
		borrowing.BorrowDate = existing.BorrowDate
	}
	if borrowing.DueDate.IsZero() {
		borrowing.DueDate = existing.DueDate
	}
	borrowing.CreatedAt = existing.CreatedAt
	borrowing.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveBorrowing(borrowing); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save borrowing")
		return
	}
	s.audit(r, "borrowing.update", "success", "user_id", admin.ID, "target_id", id)
	writeJSON(w, http.StatusOK, borrowing)
}

// handleReturnBorrowing closes the loan, restores the copy, and adds any
// overdue fine to the member balance.
func (s *Server) handleReturnBorrowing(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	borrowing, found, err := s.store.GetBorrowing(id)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "borrowing not found")
		return
	}
	member, memberFound, err := s.store.GetMember(borrowing.MemberID)
	if err != nil || !memberFound {
		writeError(w, http.StatusInternalServerError, "failed to load member")
		return
	}
	if member.UserID != caller.ID && caller.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if borrowing.Status == domain.BorrowingReturned {
		writeError(w, http.StatusBadRequest, "borrowing already returned")
		return
	}
	now := time.Now().UTC()
	borrowing.ReturnDate = &now
	borrowing.Status = domain.BorrowingReturned
	if now.After(borrowing.DueDate) {
		daysLate := int(now.Sub(borrowing.DueDate).Hours()/24) + 1
		borrowing.FineAmount = float64(daysLate) * finePerDay
		member.FineBalance += borrowing.FineAmount
		member.UpdatedAt = now
		if err := s.store.SaveMember(member); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update member")
			return
		}
	}
	borrowing.UpdatedAt = now
	if book, bookFound, err := s.store.GetBook(borrowing.BookID); err == nil && bookFound {
		if book.AvailableCopies < book.TotalCopies {
			book.AvailableCopies++
		}
		book.Available = book.AvailableCopies > 0
		book.UpdatedAt = now
		if err := s.store.SaveBook(book); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update book")
			return
		}
	}
	if err := s.store.SaveBorrowing(borrowing); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save borrowing")
		return
	}
	s.audit(r, "borrowing.return", "success", "user_id", caller.ID, "target_id", id, "fine", borrowing.FineAmount)
	writeJSON(w, http.StatusOK, borrowing)
}

// /api/reservations
func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		caller, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		filter := r.URL.Query().Get("memberId")
		if caller.Role != domain.RoleAdmin {
			member, isMember := s.callerMember(caller)
			if !isMember {
				writeJSON(w, http.StatusOK, []domain.Reservation{})
				return
			}
			filter = member.ID
		}
		reservations, err := s.store.ListReservations()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list reservations")
			return
		}
		filtered := make([]domain.Reservation, 0, len(reservations))
		for _, res := range reservations {
			if filter == "" || res.MemberID == filter {
				filtered = append(filtered, res)
			}
		}
		writeJSON(w, http.StatusOK, filtered)
	case http.MethodPost:
		s.handleCreateReservation(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req createReservationRequest
	if !readJSON(w, r, &req) {
		return
	}
	member, found, err := s.store.GetMember(req.MemberID)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if member.UserID != caller.ID && caller.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if member.Status != domain.MemberActive {
		writeError(w, http.StatusBadRequest, "member is suspended")
		return
	}
	book, found, err := s.store.GetBook(req.BookID)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	now := time.Now().UTC()
	reservation := domain.Reservation{
		ID:              util.NewID(),
		MemberID:        member.ID,
		BookID:          book.ID,
		Status:          domain.ReservationPending,
		ReservationDate: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.SaveReservation(reservation); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save reservation")
		return
	}
	s.audit(r, "reservation.create", "success", "user_id", caller.ID, "reservation_id", reservation.ID)
	writeJSON(w, http.StatusCreated, reservation)
}

// /api/reservations/{id} and /api/reservations/{id}/receive
func (s *Server) handleReservationSubtree(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/api/reservations/")
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}
	id := segs[0]
	if len(segs) == 2 && segs[1] == "receive" {
		s.handleReceiveReservation(w, r, id)
		return
	}
	if len(segs) != 1 {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPut:
		s.handleUpdateReservation(w, r, id)
	case http.MethodDelete:
		caller, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		reservation, found, err := s.store.GetReservation(id)
		if err != nil || !found {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		if caller.Role != domain.RoleAdmin {
			member, isMember := s.callerMember(caller)
			if !isMember || member.ID != reservation.MemberID {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
		}
		if err := s.store.DeleteReservation(id); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete reservation")
			return
		}
		s.audit(r, "reservation.delete", "success", "user_id", caller.ID, "target_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpdateReservation(w http.ResponseWriter, r *http.Request, id string) {
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	existing, found, err := s.store.GetReservation(id)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "reservation not found")
		return
	}
	var reservation domain.Reservation
	if !readJSON(w, r, &reservation) {
		return
	}
	reservation.ID = existing.ID
	reservation.MemberID = existing.MemberID
	reservation.BookID = existing.BookID
	if reservation.Status == "" {
		reservation.Status = existing.Status
	}
	if reservation.ReservationDate.IsZero() {
		reservation.ReservationDate = existing.ReservationDate
	}
	reservation.CreatedAt = existing.CreatedAt
	reservation.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveReservation(reservation); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save reservation")
		return
	}
	s.audit(r, "reservation.update", "success", "user_id", admin.ID, "target_id", id)
	writeJSON(w, http.StatusOK, reservation)
}

// handleReceiveReservation marks a pending reservation fulfilled and notifies
// the member their copy is ready for pickup.
func (s *Server) handleReceiveReservation(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	reservation, found, err := s.store.GetReservation(id)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "reservation not found")
		return
	}
	if reservation.Status != domain.ReservationPending {
		writeError(w, http.StatusBadRequest, "reservation is not pending")
		return
	}
	now := time.Now().UTC()
	reservation.Status = domain.ReservationFulfilled
	reservation.Received = true
	reservation.ReceivedDate = &now
	reservation.UpdatedAt = now
	if err := s.store.SaveReservation(reservation); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save reservation")
		return
	}
	s.publish(r.Context(), notify.KindReservationReceived, notify.ReservationReceivedEvent{
		ReservationID: reservation.ID,
		MemberID:      reservation.MemberID,
		BookID:        reservation.BookID,
	})
	s.audit(r, "reservation.receive", "success", "user_id", admin.ID, "target_id", id)
	writeJSON(w, http.StatusOK, reservation)
}
