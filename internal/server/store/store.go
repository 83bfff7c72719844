// Package store defines persistence for the library backend with in-memory
// and Postgres implementations.
package store

import "sarasavi/pkg/domain"

// Store defines persistence operations for catalog, accounts, memberships,
// and circulation records. Get methods report found=false for missing rows
// rather than an error.
type Store interface {
	// books
	SaveBook(domain.Book) error
	GetBook(id string) (domain.Book, bool, error)
	GetBookByBookNo(bookNo string) (domain.Book, bool, error)
	ListBooks() ([]domain.Book, error)
	DeleteBook(id string) error

	// users
	SaveUser(domain.User) error
	GetUser(id string) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)
	DeleteUser(id string) error
	UserCount() (int, error)

	// members
	SaveMember(domain.Member) error
	GetMember(id string) (domain.Member, bool, error)
	GetMemberByMemberID(memberID string) (domain.Member, bool, error)
	GetMemberByUserID(userID string) (domain.Member, bool, error)
	ListMembers() ([]domain.Member, error)
	DeleteMember(id string) error
	MemberCount() (int, error)

	// borrowings
	SaveBorrowing(domain.Borrowing) error
	GetBorrowing(id string) (domain.Borrowing, bool, error)
	ListBorrowings() ([]domain.Borrowing, error)
	DeleteBorrowing(id string) error

	// reservations
	SaveReservation(domain.Reservation) error
	GetReservation(id string) (domain.Reservation, bool, error)
	ListReservations() ([]domain.Reservation, error)
	DeleteReservation(id string) error
}
