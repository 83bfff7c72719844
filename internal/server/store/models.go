package store

import "time"

// GORM models used for persistence.
type BookModel struct {
	ID              string `gorm:"primaryKey"`
	BookNo          string `gorm:"uniqueIndex;not null"`
	Title           string `gorm:"not null"`
	Author          string `gorm:"not null"`
	Genre           string `gorm:"index"`
	Description     string
	Language        string
	PublicationYear int
	Location        string
	TotalCopies     int       `gorm:"not null"`
	AvailableCopies int       `gorm:"not null"`
	Available       bool      `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	FirstName    string
	LastName     string
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	Status       string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type MemberModel struct {
	ID             string `gorm:"primaryKey"`
	MemberID       string `gorm:"uniqueIndex;not null"`
	UserID         string `gorm:"uniqueIndex;not null"`
	FirstName      string
	LastName       string
	Email          string    `gorm:"not null"`
	MembershipType string    `gorm:"not null"`
	Status         string    `gorm:"not null"`
	ExpiryDate     time.Time `gorm:"not null"`
	FineBalance    float64   `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type BorrowingModel struct {
	ID         string    `gorm:"primaryKey"`
	MemberID   string    `gorm:"not null;index"`
	BookID     string    `gorm:"not null;index"`
	BorrowDate time.Time `gorm:"not null"`
	DueDate    time.Time `gorm:"not null"`
	ReturnDate *time.Time
	Status     string    `gorm:"not null"`
	FineAmount float64   `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type ReservationModel struct {
	ID              string    `gorm:"primaryKey"`
	MemberID        string    `gorm:"not null;index"`
	BookID          string    `gorm:"not null;index"`
	Status          string    `gorm:"not null"`
	ReservationDate time.Time `gorm:"not null"`
	Received        bool      `gorm:"not null"`
	ReceivedDate    *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}
