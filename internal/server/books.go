package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"sarasavi/internal/catalog"
	"sarasavi/internal/util"
	"sarasavi/pkg/domain"
)

// /api/books
func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		books, err := s.store.ListBooks()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list books")
			return
		}
		writeJSON(w, http.StatusOK, books)
	case http.MethodPost:
		s.handleCreateBook(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	var book domain.Book
	if !readJSON(w, r, &book) {
		return
	}
	if strings.TrimSpace(book.Title) == "" || strings.TrimSpace(book.Author) == "" {
		writeError(w, http.StatusBadRequest, "title and author are required")
		return
	}
	if book.TotalCopies <= 0 {
		book.TotalCopies = 1
	}
	if book.AvailableCopies <= 0 || book.AvailableCopies > book.TotalCopies {
		book.AvailableCopies = book.TotalCopies
	}
	book.BookNo = strings.TrimSpace(book.BookNo)
	if book.BookNo == "" {
		all, err := s.store.ListBooks()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to allocate book number")
			return
		}
		book.BookNo = catalog.NextBookNo(all)
	} else {
		_, exists, err := s.store.GetBookByBookNo(book.BookNo)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check book number")
			return
		}
		if exists {
			writeError(w, http.StatusBadRequest, "bookNo already exists")
			return
		}
	}
	now := time.Now().UTC()
	book.ID = util.NewID()
	book.Available = book.AvailableCopies > 0
	book.CreatedAt = now
	book.UpdatedAt = now
	if err := s.store.SaveBook(book); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save book")
		return
	}
	s.audit(r, "book.create", "success", "user_id", admin.ID, "book_id", book.ID)
	writeJSON(w, http.StatusCreated, book)
}

// /api/books/{id} and the search/filter/stats subtree.
func (s *Server) handleBookSubtree(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/api/books/")
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}
	switch segs[0] {
	case "search":
		s.handleSearchBooks(w, r, segs[1:])
	case "availability":
		if len(segs) != 2 {
			http.NotFound(w, r)
			return
		}
		available, err := strconv.ParseBool(segs[1])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid availability value")
			return
		}
		s.listBooksWhere(w, r, func(b domain.Book) bool { return b.Available == available })
	case "language":
		if len(segs) != 2 {
			http.NotFound(w, r)
			return
		}
		language := segs[1]
		s.listBooksWhere(w, r, func(b domain.Book) bool { return strings.EqualFold(b.Language, language) })
	case "year":
		if len(segs) != 2 {
			http.NotFound(w, r)
			return
		}
		year, err := strconv.Atoi(segs[1])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		s.listBooksWhere(w, r, func(b domain.Book) bool { return b.PublicationYear == year })
	case "location":
		if len(segs) != 2 {
			http.NotFound(w, r)
			return
		}
		location := segs[1]
		s.listBooksWhere(w, r, func(b domain.Book) bool { return b.Location == location })
	case "year-range":
		s.handleBooksByYearRange(w, r)
	case "minimum-copies":
		minCopies, err := strconv.Atoi(r.URL.Query().Get("minCopies"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid minCopies")
			return
		}
		s.listBooksWhere(w, r, func(b domain.Book) bool { return b.TotalCopies >= minCopies })
	case "available-copies":
		s.listBooksWhere(w, r, func(b domain.Book) bool { return b.AvailableCopies > 0 })
	case "stats":
		s.handleBookStats(w, r)
	default:
		s.handleBookByID(w, r, segs)
	}
}

func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request, segs []string) {
	if len(segs) != 1 {
		http.NotFound(w, r)
		return
	}
	id := segs[0]
	switch r.Method {
	case http.MethodGet:
		book, found, err := s.store.GetBook(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load book")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPut:
		s.handleUpdateBook(w, r, id)
	case http.MethodDelete:
		admin, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}
		if _, found, err := s.store.GetBook(id); err != nil || !found {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		busy, err := s.hasActiveBorrowing(func(b domain.Borrowing) bool { return b.BookID == id })
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check borrowings")
			return
		}
		if busy {
			writeError(w, http.StatusBadRequest, "book has active borrowings")
			return
		}
		if err := s.store.DeleteBook(id); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete book")
			return
		}
		s.audit(r, "book.delete", "success", "user_id", admin.ID, "book_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request, id string) {
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	existing, found, err := s.store.GetBook(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load book")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	var book domain.Book
	if !readJSON(w, r, &book) {
		return
	}
	book.ID = existing.ID
	if strings.TrimSpace(book.BookNo) == "" {
		book.BookNo = existing.BookNo
	}
	if book.BookNo != existing.BookNo {
		if _, exists, err := s.store.GetBookByBookNo(book.BookNo); err == nil && exists {
			writeError(w, http.StatusBadRequest, "bookNo already exists")
			return
		}
	}
	if book.AvailableCopies > book.TotalCopies {
		book.AvailableCopies = book.TotalCopies
	}
	book.Available = book.AvailableCopies > 0
	book.CreatedAt = existing.CreatedAt
	book.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveBook(book); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save book")
		return
	}
	s.audit(r, "book.update", "success", "user_id", admin.ID, "book_id", id)
	writeJSON(w, http.StatusOK, book)
}

// search, search/title, search/author, search/genre
func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request, rest []string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	switch {
	case len(rest) == 0:
		query := strings.ToLower(q.Get("query"))
		s.listBooksWhere(w, r, func(b domain.Book) bool {
			return strings.Contains(strings.ToLower(b.Title), query) ||
				strings.Contains(strings.ToLower(b.Author), query) ||
				strings.Contains(strings.ToLower(b.Genre), query) ||
				strings.Contains(strings.ToLower(b.Description), query)
		})
	case len(rest) == 1 && rest[0] == "title":
		title := strings.ToLower(q.Get("title"))
		s.listBooksWhere(w, r, func(b domain.Book) bool {
			return strings.Contains(strings.ToLower(b.Title), title)
		})
	case len(rest) == 1 && rest[0] == "author":
		author := strings.ToLower(q.Get("author"))
		s.listBooksWhere(w, r, func(b domain.Book) bool {
			return strings.Contains(strings.ToLower(b.Author), author)
		})
	case len(rest) == 1 && rest[0] == "genre":
		genre := q.Get("genre")
		s.listBooksWhere(w, r, func(b domain.Book) bool { return b.Genre == genre })
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleBooksByYearRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	start, err := strconv.Atoi(q.Get("startYear"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startYear")
		return
	}
	end, err := strconv.Atoi(q.Get("endYear"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endYear")
		return
	}
	s.listBooksWhere(w, r, func(b domain.Book) bool {
		return b.PublicationYear >= start && b.PublicationYear <= end
	})
}

func (s *Server) listBooksWhere(w http.ResponseWriter, r *http.Request, keep func(domain.Book) bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	books, err := s.store.ListBooks()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	filtered := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if keep(b) {
			filtered = append(filtered, b)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleBookStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	books, err := s.store.ListBooks()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	var stats domain.BookStats
	stats.TotalBooks = len(books)
	for _, b := range books {
		if b.Available {
			stats.AvailableBooks++
		} else {
			stats.UnavailableBooks++
		}
		stats.TotalCopies += b.TotalCopies
		stats.AvailableCopies += b.AvailableCopies
	}
	writeJSON(w, http.StatusOK, stats)
}
