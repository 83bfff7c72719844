package store

import (
	"sync"

	"sarasavi/pkg/domain"
)

// MemoryStore keeps all records in-process. Used in tests and for local
// development without Postgres.
type MemoryStore struct {
	mu sync.RWMutex

	books     map[string]domain.Book
	bookOrder []string

	users     map[string]domain.User
	userOrder []string

	members     map[string]domain.Member
	memberOrder []string

	borrowings     map[string]domain.Borrowing
	borrowingOrder []string

	reservations     map[string]domain.Reservation
	reservationOrder []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:        make(map[string]domain.Book),
		users:        make(map[string]domain.User),
		members:      make(map[string]domain.Member),
		borrowings:   make(map[string]domain.Borrowing),
		reservations: make(map[string]domain.Reservation),
	}
}

// SaveBook stores or replaces a book record and tracks insertion order.
func (m *MemoryStore) SaveBook(b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.books[b.ID]; !exists {
		m.bookOrder = append(m.bookOrder, b.ID)
	}
	m.books[b.ID] = b
	return nil
}

func (m *MemoryStore) GetBook(id string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

func (m *MemoryStore) GetBookByBookNo(bookNo string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.bookOrder {
		if b, ok := m.books[id]; ok && b.BookNo == bookNo {
			return b, true, nil
		}
	}
	return domain.Book{}, false, nil
}

// ListBooks returns books in insertion order.
func (m *MemoryStore) ListBooks() ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0, len(m.bookOrder))
	for _, id := range m.bookOrder {
		if b, ok := m.books[id]; ok {
			res = append(res, b)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteBook(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
	m.bookOrder = removeID(m.bookOrder, id)
	return nil
}

// SaveUser stores or replaces a user record.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.ID]; !exists {
		m.userOrder = append(m.userOrder, u.ID)
	}
	m.users[u.ID] = u
	return nil
}

func (m *MemoryStore) GetUser(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok && u.Username == username {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok && u.Email == email {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	m.userOrder = removeID(m.userOrder, id)
	return nil
}

func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// SaveMember stores or replaces a membership record.
func (m *MemoryStore) SaveMember(mem domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.members[mem.ID]; !exists {
		m.memberOrder = append(m.memberOrder, mem.ID)
	}
	m.members[mem.ID] = mem
	return nil
}

func (m *MemoryStore) GetMember(id string) (domain.Member, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.members[id]
	return mem, ok, nil
}

func (m *MemoryStore) GetMemberByMemberID(memberID string) (domain.Member, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.memberOrder {
		if mem, ok := m.members[id]; ok && mem.MemberID == memberID {
			return mem, true, nil
		}
	}
	return domain.Member{}, false, nil
}

func (m *MemoryStore) GetMemberByUserID(userID string) (domain.Member, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.memberOrder {
		if mem, ok := m.members[id]; ok && mem.UserID == userID {
			return mem, true, nil
		}
	}
	return domain.Member{}, false, nil
}

func (m *MemoryStore) ListMembers() ([]domain.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Member, 0, len(m.memberOrder))
	for _, id := range m.memberOrder {
		if mem, ok := m.members[id]; ok {
			res = append(res, mem)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteMember(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, id)
	m.memberOrder = removeID(m.memberOrder, id)
	return nil
}

func (m *MemoryStore) MemberCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.members), nil
}

// SaveBorrowing stores or replaces a borrowing record.
func (m *MemoryStore) SaveBorrowing(b domain.Borrowing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.borrowings[b.ID]; !exists {
		m.borrowingOrder = append(m.borrowingOrder, b.ID)
	}
	m.borrowings[b.ID] = b
	return nil
}

func (m *MemoryStore) GetBorrowing(id string) (domain.Borrowing, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.borrowings[id]
	return b, ok, nil
}

func (m *MemoryStore) ListBorrowings() ([]domain.Borrowing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Borrowing, 0, len(m.borrowingOrder))
	for _, id := range m.borrowingOrder {
		if b, ok := m.borrowings[id]; ok {
			res = append(res, b)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteBorrowing(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.borrowings, id)
	m.borrowingOrder = removeID(m.borrowingOrder, id)
	return nil
}

// SaveReservation stores or replaces a reservation record.
func (m *MemoryStore) SaveReservation(r domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reservations[r.ID]; !exists {
		m.reservationOrder = append(m.reservationOrder, r.ID)
	}
	m.reservations[r.ID] = r
	return nil
}

func (m *MemoryStore) GetReservation(id string) (domain.Reservation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	return r, ok, nil
}

func (m *MemoryStore) ListReservations() ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Reservation, 0, len(m.reservationOrder))
	for _, id := range m.reservationOrder {
		if r, ok := m.reservations[id]; ok {
			res = append(res, r)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteReservation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reservations, id)
	m.reservationOrder = removeID(m.reservationOrder, id)
	return nil
}

func removeID(order []string, id string) []string {
	filtered := order[:0]
	for _, item := range order {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
