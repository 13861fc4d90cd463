package services

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"librarium/internal/clock"
	"librarium/internal/models"
	"librarium/internal/repositories"
)

// fixture bundles a throwaway sqlite database with all three services wired
// against a fixed clock.
type fixture struct {
	db        *gorm.DB
	clk       *clock.Fixed
	catalog   CatalogService
	directory DirectoryService
	ledger    LedgerService
	bookRepo  repositories.BookRepository
	loanRepo  repositories.LoanRepository
}

func setupFixture(t *testing.T) (*fixture, func()) {
	dbPath := "./test_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Book{}, &models.LibraryUser{}, &models.Loan{})
	require.NoError(t, err)

	clk := clock.NewFixed(date(2024, time.January, 1))

	bookRepo := repositories.NewBookRepository(db)
	userRepo := repositories.NewUserRepository(db)
	loanRepo := repositories.NewLoanRepository(db)

	f := &fixture{
		db:        db,
		clk:       clk,
		catalog:   NewCatalogService(db, bookRepo, clk),
		directory: NewDirectoryService(db, userRepo, clk),
		ledger:    NewLedgerService(db, bookRepo, userRepo, loanRepo, clk),
		bookRepo:  bookRepo,
		loanRepo:  loanRepo,
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return f, cleanup
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// addBook registers a book published well in the past so recency queries stay
// unaffected.
func (f *fixture) addBook(t *testing.T, isbn string) *models.Book {
	t.Helper()
	book, err := f.catalog.AddBook(isbn, "Title of "+isbn, "Author of "+isbn, date(2020, time.June, 15))
	require.NoError(t, err)
	return book
}

func (f *fixture) registerUser(t *testing.T, name, email string) *models.LibraryUser {
	t.Helper()
	user, err := f.directory.Register(name, email)
	require.NoError(t, err)
	return user
}

func (f *fixture) bookStatus(t *testing.T, isbn string) models.BookStatus {
	t.Helper()
	book, err := f.catalog.FindByISBN(isbn)
	require.NoError(t, err)
	return book.Status
}
