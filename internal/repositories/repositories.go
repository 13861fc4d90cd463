package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"librarium/internal/models"
)

type BookRepository interface {
	Create(db *gorm.DB, book *models.Book) error
	GetByISBN(db *gorm.DB, isbn string) (*models.Book, error)
	List(db *gorm.DB) ([]models.Book, error)
	ListByAuthor(db *gorm.DB, author string) ([]models.Book, error)
	ListByStatus(db *gorm.DB, status models.BookStatus) ([]models.Book, error)
	ListPublishedSince(db *gorm.DB, cutoff time.Time) ([]models.Book, error)
	UpdateStatus(db *gorm.DB, isbn string, status models.BookStatus) error
	Delete(db *gorm.DB, isbn string) error
}

type UserRepository interface {
	Create(db *gorm.DB, user *models.LibraryUser) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.LibraryUser, error)
	GetByEmail(db *gorm.DB, email string) (*models.LibraryUser, error)
	GetByMembershipNumber(db *gorm.DB, number string) (*models.LibraryUser, error)
	Update(db *gorm.DB, user *models.LibraryUser) error
	Delete(db *gorm.DB, id uuid.UUID) error
}

type LoanRepository interface {
	Create(db *gorm.DB, loan *models.Loan) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Loan, error)
	List(db *gorm.DB) ([]models.Loan, error)
	ListByUser(db *gorm.DB, userID uuid.UUID) ([]models.Loan, error)
	ListOpenByUser(db *gorm.DB, userID uuid.UUID) ([]models.Loan, error)
	CountOpenByUser(db *gorm.DB, userID uuid.UUID) (int64, error)
	ListOverdue(db *gorm.DB, asOf time.Time) ([]models.Loan, error)
	MarkReturned(db *gorm.DB, loanID uuid.UUID, returnedAt time.Time) error
	UpdateDueDate(db *gorm.DB, loanID uuid.UUID, dueDate time.Time) error
}

// concrete implementations

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	return db.Create(book).Error
}

func (r *bookRepository) GetByISBN(db *gorm.DB, isbn string) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	if err := db.First(&book, "isbn = ?", isbn).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(db *gorm.DB) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	if err := db.Order("isbn").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// ListByAuthor matches the author field exactly but case-insensitively.
// LOWER() behaves the same on postgres and sqlite.
func (r *bookRepository) ListByAuthor(db *gorm.DB, author string) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	if err := db.Where("LOWER(author) = LOWER(?)", author).
		Order("isbn").
		Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) ListByStatus(db *gorm.DB, status models.BookStatus) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	if err := db.Where("status = ?", status).
		Order("isbn").
		Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) ListPublishedSince(db *gorm.DB, cutoff time.Time) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	if err := db.Where("published_at >= ?", cutoff).
		Order("published_at DESC").
		Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) UpdateStatus(db *gorm.DB, isbn string, status models.BookStatus) error {
	if db == nil {
		db = r.db
	}
	res := db.Model(&models.Book{}).
		Where("isbn = ?", isbn).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bookRepository) Delete(db *gorm.DB, isbn string) error {
	if db == nil {
		db = r.db
	}
	res := db.Delete(&models.Book{}, "isbn = ?", isbn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(db *gorm.DB, user *models.LibraryUser) error {
	if db == nil {
		db = r.db
	}
	return db.Create(user).Error
}

func (r *userRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.LibraryUser, error) {
	if db == nil {
		db = r.db
	}
	var user models.LibraryUser
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(db *gorm.DB, email string) (*models.LibraryUser, error) {
	if db == nil {
		db = r.db
	}
	var user models.LibraryUser
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByMembershipNumber(db *gorm.DB, number string) (*models.LibraryUser, error) {
	if db == nil {
		db = r.db
	}
	var user models.LibraryUser
	if err := db.First(&user, "membership_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(db *gorm.DB, user *models.LibraryUser) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.LibraryUser{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":  user.Name,
			"email": user.Email,
		}).Error
}

func (r *userRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	res := db.Delete(&models.LibraryUser{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(db *gorm.DB, loan *models.Loan) error {
	if db == nil {
		db = r.db
	}
	return db.Create(loan).Error
}

func (r *loanRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Loan, error) {
	if db == nil {
		db = r.db
	}
	var loan models.Loan
	if err := db.First(&loan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) List(db *gorm.DB) ([]models.Loan, error) {
	if db == nil {
		db = r.db
	}
	var loans []models.Loan
	if err := db.Order("loan_date").Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) ListByUser(db *gorm.DB, userID uuid.UUID) ([]models.Loan, error) {
	if db == nil {
		db = r.db
	}
	var loans []models.Loan
	if err := db.Where("user_id = ?", userID).
		Order("loan_date").
		Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) ListOpenByUser(db *gorm.DB, userID uuid.UUID) ([]models.Loan, error) {
	if db == nil {
		db = r.db
	}
	var loans []models.Loan
	if err := db.Where("user_id = ? AND return_date IS NULL", userID).
		Order("loan_date").
		Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) CountOpenByUser(db *gorm.DB, userID uuid.UUID) (int64, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	if err := db.Model(&models.Loan{}).
		Where("user_id = ? AND return_date IS NULL", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *loanRepository) ListOverdue(db *gorm.DB, asOf time.Time) ([]models.Loan, error) {
	if db == nil {
		db = r.db
	}
	var loans []models.Loan
	if err := db.Where("return_date IS NULL AND due_date < ?", asOf).
		Order("due_date").
		Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) MarkReturned(db *gorm.DB, loanID uuid.UUID, returnedAt time.Time) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Loan{}).
		Where("id = ? AND return_date IS NULL", loanID).
		Update("return_date", returnedAt).
		Error
}

// UpdateDueDate mutates the due date on the existing loan row. The loan keeps
// its identity across extensions; a new record is never created.
func (r *loanRepository) UpdateDueDate(db *gorm.DB, loanID uuid.UUID, dueDate time.Time) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Loan{}).
		Where("id = ?", loanID).
		Update("due_date", dueDate).
		Error
}
