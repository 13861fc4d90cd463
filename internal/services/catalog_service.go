package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"librarium/internal/clock"
	"librarium/internal/models"
	"librarium/internal/repositories"
)

// ─── Service Interface ────────────────────────────────────────────────────────

// CatalogService owns book identity, validation and status changes. It knows
// nothing about loans; the Ledger drives status transitions during borrow and
// return flows.
type CatalogService interface {
	AddBook(isbn, title, author string, publishedAt time.Time) (*models.Book, error)
	FindByISBN(isbn string) (*models.Book, error)
	FindByAuthor(author string) ([]models.Book, error)
	ListBooks() ([]models.Book, error)
	ListAvailable() ([]models.Book, error)
	FindRecentlyPublished(months int) ([]models.Book, error)
	SetStatus(isbn string, status models.BookStatus) (*models.Book, error)
	RemoveBook(isbn string) error
}

// ─── Implementation ───────────────────────────────────────────────────────────

type catalogService struct {
	db       *gorm.DB
	bookRepo repositories.BookRepository
	clk      clock.Clock
}

// NewCatalogService wires up the catalog.
func NewCatalogService(db *gorm.DB, bookRepo repositories.BookRepository, clk clock.Clock) CatalogService {
	return &catalogService{db: db, bookRepo: bookRepo, clk: clk}
}

// AddBook registers a new book with status AVAILABLE.
func (s *catalogService) AddBook(isbn, title, author string, publishedAt time.Time) (*models.Book, error) {
	if strings.TrimSpace(isbn) == "" {
		return nil, fmt.Errorf("%w: isbn must not be blank", ErrInvalidArgument)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title must not be blank", ErrInvalidArgument)
	}
	if strings.TrimSpace(author) == "" {
		return nil, fmt.Errorf("%w: author must not be blank", ErrInvalidArgument)
	}
	if publishedAt.IsZero() {
		return nil, fmt.Errorf("%w: published date is required", ErrInvalidArgument)
	}

	book := &models.Book{
		ISBN:        isbn,
		Title:       title,
		Author:      author,
		PublishedAt: publishedAt,
		Status:      models.BookStatusAvailable,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.bookRepo.GetByISBN(tx, isbn); err == nil {
			return ErrDuplicateISBN
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.bookRepo.Create(tx, book); err != nil {
			log.Printf("[ERROR] AddBook: failed to create book %s: %v", isbn, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] AddBook: registered book %q (isbn=%s)", book.Title, book.ISBN)
	return book, nil
}

// FindByISBN returns the book with the given ISBN.
func (s *catalogService) FindByISBN(isbn string) (*models.Book, error) {
	book, err := s.bookRepo.GetByISBN(nil, isbn)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// FindByAuthor returns all books whose author matches, ignoring case.
func (s *catalogService) FindByAuthor(author string) ([]models.Book, error) {
	return s.bookRepo.ListByAuthor(nil, author)
}

// ListBooks returns every book in the catalog.
func (s *catalogService) ListBooks() ([]models.Book, error) {
	return s.bookRepo.List(nil)
}

// ListAvailable returns all books currently in AVAILABLE status.
func (s *catalogService) ListAvailable() ([]models.Book, error) {
	return s.bookRepo.ListByStatus(nil, models.BookStatusAvailable)
}

// FindRecentlyPublished returns books published within the last N months.
func (s *catalogService) FindRecentlyPublished(months int) ([]models.Book, error) {
	if months <= 0 {
		return nil, fmt.Errorf("%w: months must be positive", ErrInvalidArgument)
	}
	cutoff := s.clk.Now().AddDate(0, -months, 0)
	return s.bookRepo.ListPublishedSince(nil, cutoff)
}

// SetStatus changes a book's status. Administrative; the Ledger performs its
// own status transitions inside its transactions.
func (s *catalogService) SetStatus(isbn string, status models.BookStatus) (*models.Book, error) {
	if !models.ValidBookStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}

	var book *models.Book
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.bookRepo.UpdateStatus(tx, isbn, status); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		updated, err := s.bookRepo.GetByISBN(tx, isbn)
		if err != nil {
			return err
		}
		book = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] SetStatus: book %s is now %s", isbn, status)
	return book, nil
}

// RemoveBook deletes a book from the catalog. Not used by loan flows.
func (s *catalogService) RemoveBook(isbn string) error {
	if err := s.bookRepo.Delete(nil, isbn); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}
	log.Printf("[INFO] RemoveBook: removed book %s", isbn)
	return nil
}
