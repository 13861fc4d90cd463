package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"librarium/internal/clock"
	"librarium/internal/models"
	"librarium/internal/repositories"
)

// ─── Loan Policy Constants ────────────────────────────────────────────────────

const (
	// LoanPeriodDays is the default loan period: the due date of a new loan is
	// the loan date plus this many days.
	LoanPeriodDays = 14

	// MaxOpenLoans is the maximum number of open loans a user may hold at once.
	MaxOpenLoans = 5
)

// ─── Service Interface ────────────────────────────────────────────────────────

// LedgerService is the loan lifecycle engine. It owns Loan records and enforces
// every cross-entity invariant between book availability, the user's open-loan
// count, and the loan table.
//
// A loan has two states: open (no return date) and returned. A lost book is a
// catalog status, not a loan state.
type LedgerService interface {
	Borrow(isbn string, userID uuid.UUID) (*models.Loan, error)
	Return(loanID uuid.UUID) (*models.Loan, error)
	Extend(loanID uuid.UUID, extraDays int) (*models.Loan, error)

	LoansByUser(userID uuid.UUID) ([]models.Loan, error)
	OpenLoansByUser(userID uuid.UUID) ([]models.Loan, error)
	OverdueLoans(asOf time.Time) ([]models.Loan, error)
	AllLoans() ([]models.Loan, error)
}

// ─── Implementation ───────────────────────────────────────────────────────────

type ledgerService struct {
	db       *gorm.DB
	bookRepo repositories.BookRepository
	userRepo repositories.UserRepository
	loanRepo repositories.LoanRepository
	clk      clock.Clock

	// mu serializes all ledger mutations. Borrow, Return and Extend are
	// check-then-act sequences across book, user and loan state; a single
	// gateway lock keeps two concurrent borrows from both passing the
	// availability or loan-limit check.
	mu sync.Mutex
}

// NewLedgerService wires up the loan engine.
func NewLedgerService(
	db *gorm.DB,
	bookRepo repositories.BookRepository,
	userRepo repositories.UserRepository,
	loanRepo repositories.LoanRepository,
	clk clock.Clock,
) LedgerService {
	return &ledgerService{
		db:       db,
		bookRepo: bookRepo,
		userRepo: userRepo,
		loanRepo: loanRepo,
		clk:      clk,
	}
}

// ─── Borrow ───────────────────────────────────────────────────────────────────

// Borrow opens a loan for the given book and user.
//
// All checks and writes run in one transaction: the book must exist and be
// AVAILABLE, the user must exist and hold fewer than MaxOpenLoans open loans.
// On success the loan is created with a 14-day due date and the book is marked
// BORROWED. On any failure nothing is applied.
func (s *ledgerService) Borrow(isbn string, userID uuid.UUID) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var loan *models.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		book, err := s.bookRepo.GetByISBN(tx, isbn)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		if _, err := s.userRepo.GetByID(tx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if book.Status != models.BookStatusAvailable {
			log.Printf("[WARN] Borrow: book %s is %s, rejecting user %s", isbn, book.Status, userID)
			return ErrBookNotAvailable
		}

		openCount, err := s.loanRepo.CountOpenByUser(tx, userID)
		if err != nil {
			return err
		}
		if openCount >= MaxOpenLoans {
			log.Printf("[WARN] Borrow: user %s already holds %d open loans", userID, openCount)
			return ErrLoanLimitExceeded
		}

		now := s.clk.Now()
		loan = &models.Loan{
			ID:       uuid.New(),
			BookISBN: isbn,
			UserID:   userID,
			LoanDate: now,
			DueDate:  now.AddDate(0, 0, LoanPeriodDays),
		}
		if err := s.loanRepo.Create(tx, loan); err != nil {
			log.Printf("[ERROR] Borrow: failed to create loan for book %s / user %s: %v", isbn, userID, err)
			return err
		}
		if err := s.bookRepo.UpdateStatus(tx, isbn, models.BookStatusBorrowed); err != nil {
			log.Printf("[ERROR] Borrow: failed to mark book %s BORROWED: %v", isbn, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Borrow: loan %s opened for book %s / user %s, due %s",
		loan.ID, isbn, userID, loan.DueDate.Format("2006-01-02"))
	return loan, nil
}

// ─── Return ───────────────────────────────────────────────────────────────────

// Return closes an open loan: the return date is set to now and the book goes
// back to AVAILABLE. Returning a closed loan fails with ErrLoanAlreadyReturned.
func (s *ledgerService) Return(loanID uuid.UUID) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *models.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loan, err := s.loanRepo.GetByID(tx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}

		if !loan.Open() {
			log.Printf("[WARN] Return: loan %s already returned at %s", loanID, loan.ReturnDate)
			return ErrLoanAlreadyReturned
		}

		now := s.clk.Now()
		if err := s.loanRepo.MarkReturned(tx, loanID, now); err != nil {
			log.Printf("[ERROR] Return: failed to close loan %s: %v", loanID, err)
			return err
		}
		if err := s.bookRepo.UpdateStatus(tx, loan.BookISBN, models.BookStatusAvailable); err != nil {
			log.Printf("[ERROR] Return: failed to mark book %s AVAILABLE: %v", loan.BookISBN, err)
			return err
		}

		loan.ReturnDate = &now
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Return: loan %s closed, book %s available again", loanID, updated.BookISBN)
	return updated, nil
}

// ─── Extend ───────────────────────────────────────────────────────────────────

// Extend pushes the due date of an open loan forward by extraDays.
//
// Extension is allowed up to and including the due date itself; once now is
// past the due date the loan is overdue and can only be returned. The due date
// is mutated on the existing loan row, so the loan keeps one identity for its
// whole lifecycle.
func (s *ledgerService) Extend(loanID uuid.UUID, extraDays int) (*models.Loan, error) {
	if extraDays <= 0 {
		return nil, fmt.Errorf("%w: extraDays must be positive, got %d", ErrInvalidArgument, extraDays)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *models.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loan, err := s.loanRepo.GetByID(tx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}

		if !loan.Open() {
			return ErrLoanAlreadyReturned
		}

		now := s.clk.Now()
		if now.After(loan.DueDate) {
			log.Printf("[WARN] Extend: loan %s is overdue (due %s, now %s)",
				loanID, loan.DueDate.Format("2006-01-02"), now.Format("2006-01-02"))
			return ErrLoanOverdue
		}

		newDue := loan.DueDate.AddDate(0, 0, extraDays)
		if err := s.loanRepo.UpdateDueDate(tx, loanID, newDue); err != nil {
			log.Printf("[ERROR] Extend: failed to update due date on loan %s: %v", loanID, err)
			return err
		}

		loan.DueDate = newDue
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Extend: loan %s extended by %d days, now due %s",
		loanID, extraDays, updated.DueDate.Format("2006-01-02"))
	return updated, nil
}

// ─── Queries ──────────────────────────────────────────────────────────────────

// LoansByUser returns every loan, open or closed, for a user.
func (s *ledgerService) LoansByUser(userID uuid.UUID) ([]models.Loan, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	return s.loanRepo.ListByUser(nil, userID)
}

// OpenLoansByUser returns the user's loans that have no return date.
func (s *ledgerService) OpenLoansByUser(userID uuid.UUID) ([]models.Loan, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	return s.loanRepo.ListOpenByUser(nil, userID)
}

// OverdueLoans returns all open loans whose due date is strictly before asOf.
func (s *ledgerService) OverdueLoans(asOf time.Time) ([]models.Loan, error) {
	return s.loanRepo.ListOverdue(nil, asOf)
}

// AllLoans returns the full loan history.
func (s *ledgerService) AllLoans() ([]models.Loan, error) {
	return s.loanRepo.List(nil)
}

func (s *ledgerService) requireUser(userID uuid.UUID) error {
	if _, err := s.userRepo.GetByID(nil, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
