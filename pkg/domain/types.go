package domain

import "time"

type UserRole string

const (
	RoleMember UserRole = "member"
	RoleAdmin  UserRole = "admin"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type MembershipType string

const (
	MembershipBasic   MembershipType = "BASIC"
	MembershipPremium MembershipType = "PREMIUM"
	MembershipStudent MembershipType = "STUDENT"
	MembershipFamily  MembershipType = "FAMILY"
	MembershipFaculty MembershipType = "FACULTY"
	MembershipRegular MembershipType = "REGULAR"
)

type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
)

type BorrowingStatus string

const (
	BorrowingBorrowed BorrowingStatus = "borrowed"
	BorrowingReturned BorrowingStatus = "returned"
	BorrowingOverdue  BorrowingStatus = "overdue"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationFulfilled ReservationStatus = "fulfilled"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Book is a catalog entry. BookNo is the human-facing sequential code
// ("B10001", ...) distinct from the internal ID.
type Book struct {
	ID              string    `json:"id"`
	BookNo          string    `json:"bookNo"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	PublicationYear int       `json:"publicationYear"`
	Location        string    `json:"location"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	Available       bool      `json:"available"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Member is a library membership linked to a user account. MemberID is the
// human-facing code ("LIB2025001", ...); at most one member exists per user.
type Member struct {
	ID             string         `json:"id"`
	MemberID       string         `json:"memberId"`
	UserID         string         `json:"userId"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	MembershipType MembershipType `json:"membershipType"`
	Status         MemberStatus   `json:"status"`
	ExpiryDate     time.Time      `json:"expiryDate"`
	FineBalance    float64        `json:"fineBalance"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type Borrowing struct {
	ID         string          `json:"id"`
	MemberID   string          `json:"memberId"`
	BookID     string          `json:"bookId"`
	BorrowDate time.Time       `json:"borrowDate"`
	DueDate    time.Time       `json:"dueDate"`
	ReturnDate *time.Time      `json:"returnDate,omitempty"`
	Status     BorrowingStatus `json:"status"`
	FineAmount float64         `json:"fineAmount"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type Reservation struct {
	ID              string            `json:"id"`
	MemberID        string            `json:"memberId"`
	BookID          string            `json:"bookId"`
	Status          ReservationStatus `json:"status"`
	ReservationDate time.Time         `json:"reservationDate"`
	Received        bool              `json:"received"`
	ReceivedDate    *time.Time        `json:"receivedDate,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// BookStats mirrors the dashboard card counters.
type BookStats struct {
	TotalBooks       int `json:"totalBooks"`
	AvailableBooks   int `json:"availableBooks"`
	UnavailableBooks int `json:"unavailableBooks"`
	TotalCopies      int `json:"totalCopies"`
	AvailableCopies  int `json:"availableCopies"`
}

type UserStats struct {
	TotalUsers    int `json:"totalUsers"`
	ActiveUsers   int `json:"activeUsers"`
	InactiveUsers int `json:"inactiveUsers"`
}
