package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sarasavi/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&BookModel{}, &UserModel{}, &MemberModel{}, &BorrowingModel{}, &ReservationModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) SaveBook(b domain.Book) error {
	model := bookToModel(b)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"book_no", "title", "author", "genre", "description", "language",
			"publication_year", "location", "total_copies", "available_copies",
			"available", "updated_at",
		}),
	}).Create(&model).Error
}

func (s *GormStore) GetBook(id string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

func (s *GormStore) GetBookByBookNo(bookNo string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "book_no = ?", bookNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

func (s *GormStore) ListBooks() ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m))
	}
	return res, nil
}

func (s *GormStore) DeleteBook(id string) error {
	return s.db.Delete(&BookModel{}, "id = ?", id).Error
}

func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "email", "first_name", "last_name", "password_hash",
			"role", "status", "updated_at",
		}),
	}).Create(&model).Error
}

func (s *GormStore) GetUser(id string) (domain.User, bool, error) {
	return s.findUser("id = ?", id)
}

func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	return s.findUser("username = ?", username)
}

func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	return s.findUser("email = ?", email)
}

func (s *GormStore) findUser(query string, arg any) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

func (s *GormStore) DeleteUser(id string) error {
	return s.db.Delete(&UserModel{}, "id = ?", id).Error
}

func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *GormStore) SaveMember(m domain.Member) error {
	model := memberToModel(m)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_name", "last_name", "email", "membership_type", "status",
			"expiry_date", "fine_balance", "updated_at",
		}),
	}).Create(&model).Error
}

func (s *GormStore) GetMember(id string) (domain.Member, bool, error) {
	return s.findMember("id = ?", id)
}

func (s *GormStore) GetMemberByMemberID(memberID string) (domain.Member, bool, error) {
	return s.findMember("member_id = ?", memberID)
}

func (s *GormStore) GetMemberByUserID(userID string) (domain.Member, bool, error) {
	return s.findMember("user_id = ?", userID)
}

func (s *GormStore) findMember(query string, arg any) (domain.Member, bool, error) {
	var model MemberModel
	if err := s.db.First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Member{}, false, nil
		}
		return domain.Member{}, false, err
	}
	return memberFromModel(model), true, nil
}

func (s *GormStore) ListMembers() ([]domain.Member, error) {
	var models []MemberModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Member, 0, len(models))
	for _, m := range models {
		res = append(res, memberFromModel(m))
	}
	return res, nil
}

func (s *GormStore) DeleteMember(id string) error {
	return s.db.Delete(&MemberModel{}, "id = ?", id).Error
}

func (s *GormStore) MemberCount() (int, error) {
	var count int64
	if err := s.db.Model(&MemberModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *GormStore) SaveBorrowing(b domain.Borrowing) error {
	model := borrowingToModel(b)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"borrow_date", "due_date", "return_date", "status", "fine_amount",
			"updated_at",
		}),
	}).Create(&model).Error
}

func (s *GormStore) GetBorrowing(id string) (domain.Borrowing, bool, error) {
	var model BorrowingModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Borrowing{}, false, nil
		}
		return domain.Borrowing{}, false, err
	}
	return borrowingFromModel(model), true, nil
}

func (s *GormStore) ListBorrowings() ([]domain.Borrowing, error) {
	var models []BorrowingModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Borrowing, 0, len(models))
	for _, m := range models {
		res = append(res, borrowingFromModel(m))
	}
	return res, nil
}

func (s *GormStore) DeleteBorrowing(id string) error {
	return s.db.Delete(&BorrowingModel{}, "id = ?", id).Error
}

func (s *GormStore) SaveReservation(r domain.Reservation) error {
	model := reservationToModel(r)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "received", "received_date", "updated_at",
		}),
	}).Create(&model).Error
}

func (s *GormStore) GetReservation(id string) (domain.Reservation, bool, error) {
	var model ReservationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Reservation{}, false, nil
		}
		return domain.Reservation{}, false, err
	}
	return reservationFromModel(model), true, nil
}

func (s *GormStore) ListReservations() ([]domain.Reservation, error) {
	var models []ReservationModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Reservation, 0, len(models))
	for _, m := range models {
		res = append(res, reservationFromModel(m))
	}
	return res, nil
}

func (s *GormStore) DeleteReservation(id string) error {
	return s.db.Delete(&ReservationModel{}, "id = ?", id).Error
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:              b.ID,
		BookNo:          b.BookNo,
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		Description:     b.Description,
		Language:        b.Language,
		PublicationYear: b.PublicationYear,
		Location:        b.Location,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Available:       b.Available,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:              m.ID,
		BookNo:          m.BookNo,
		Title:           m.Title,
		Author:          m.Author,
		Genre:           m.Genre,
		Description:     m.Description,
		Language:        m.Language,
		PublicationYear: m.PublicationYear,
		Location:        m.Location,
		TotalCopies:     m.TotalCopies,
		AvailableCopies: m.AvailableCopies,
		Available:       m.Available,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		Status:       domain.UserStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func memberToModel(m domain.Member) MemberModel {
	return MemberModel{
		ID:             m.ID,
		MemberID:       m.MemberID,
		UserID:         m.UserID,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Email:          m.Email,
		MembershipType: string(m.MembershipType),
		Status:         string(m.Status),
		ExpiryDate:     m.ExpiryDate,
		FineBalance:    m.FineBalance,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func memberFromModel(m MemberModel) domain.Member {
	return domain.Member{
		ID:             m.ID,
		MemberID:       m.MemberID,
		UserID:         m.UserID,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Email:          m.Email,
		MembershipType: domain.MembershipType(m.MembershipType),
		Status:         domain.MemberStatus(m.Status),
		ExpiryDate:     m.ExpiryDate,
		FineBalance:    m.FineBalance,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func borrowingToModel(b domain.Borrowing) BorrowingModel {
	return BorrowingModel{
		ID:         b.ID,
		MemberID:   b.MemberID,
		BookID:     b.BookID,
		BorrowDate: b.BorrowDate,
		DueDate:    b.DueDate,
		ReturnDate: b.ReturnDate,
		Status:     string(b.Status),
		FineAmount: b.FineAmount,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func borrowingFromModel(m BorrowingModel) domain.Borrowing {
	return domain.Borrowing{
		ID:         m.ID,
		MemberID:   m.MemberID,
		BookID:     m.BookID,
		BorrowDate: m.BorrowDate,
		DueDate:    m.DueDate,
		ReturnDate: m.ReturnDate,
		Status:     domain.BorrowingStatus(m.Status),
		FineAmount: m.FineAmount,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func reservationToModel(r domain.Reservation) ReservationModel {
	return ReservationModel{
		ID:              r.ID,
		MemberID:        r.MemberID,
		BookID:          r.BookID,
		Status:          string(r.Status),
		ReservationDate: r.ReservationDate,
		Received:        r.Received,
		ReceivedDate:    r.ReceivedDate,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func reservationFromModel(m ReservationModel) domain.Reservation {
	return domain.Reservation{
		ID:              m.ID,
		MemberID:        m.MemberID,
		BookID:          m.BookID,
		Status:          domain.ReservationStatus(m.Status),
		ReservationDate: m.ReservationDate,
		Received:        m.Received,
		ReceivedDate:    m.ReceivedDate,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
