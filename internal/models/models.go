package models

import (
	"time"

	"github.com/google/uuid"
)

type BookStatus string

const (
	BookStatusAvailable   BookStatus = "AVAILABLE"
	BookStatusBorrowed    BookStatus = "BORROWED"
	BookStatusReserved    BookStatus = "RESERVED"
	BookStatusLost        BookStatus = "LOST"
	BookStatusUnderRepair BookStatus = "UNDER_REPAIR"
)

// ValidBookStatus reports whether s is one of the defined status values.
func ValidBookStatus(s BookStatus) bool {
	switch s {
	case BookStatusAvailable, BookStatusBorrowed, BookStatusReserved, BookStatusLost, BookStatusUnderRepair:
		return true
	}
	return false
}

type Book struct {
	ISBN        string     `gorm:"size:32;primaryKey" json:"isbn"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Author      string     `gorm:"size:255;not null;index" json:"author"`
	PublishedAt time.Time  `gorm:"not null" json:"published_at"`
	Status      BookStatus `gorm:"size:32;not null;index" json:"status"`
}

type LibraryUser struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Email            string    `gorm:"size:255;not null;index" json:"email"`
	MembershipNumber string    `gorm:"size:32;not null;uniqueIndex" json:"membership_number"`
	MemberSince      time.Time `gorm:"not null" json:"member_since"`
}

type Loan struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	BookISBN   string      `gorm:"size:32;not null;index" json:"book_isbn"`
	Book       Book        `gorm:"foreignKey:BookISBN;references:ISBN;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	UserID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User       LibraryUser `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	LoanDate   time.Time   `gorm:"not null" json:"loan_date"`
	DueDate    time.Time   `gorm:"not null" json:"due_date"`
	ReturnDate *time.Time  `json:"return_date"`
}

// Open reports whether the loan has not been returned yet.
func (l *Loan) Open() bool {
	return l.ReturnDate == nil
}

// OverdueAt reports whether the loan is open and past its due date at the given time.
func (l *Loan) OverdueAt(now time.Time) bool {
	return l.Open() && now.After(l.DueDate)
}
