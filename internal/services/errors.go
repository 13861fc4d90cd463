package services

import "errors"

// ─── Sentinel Errors ──────────────────────────────────────────────────────────

var (
	// ErrInvalidArgument is returned on malformed input: blank fields, a missing
	// publication date, an unknown status value, or a non-positive duration.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBookNotFound is returned when the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrLoanNotFound is returned when the referenced loan does not exist.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrDuplicateISBN is returned when a book with the same ISBN is already registered.
	ErrDuplicateISBN = errors.New("book with this ISBN already exists")

	// ErrBookNotAvailable is returned when a borrow is attempted on a book whose
	// status is anything other than AVAILABLE.
	ErrBookNotAvailable = errors.New("book is not available")

	// ErrLoanLimitExceeded is returned when the user already holds the maximum
	// number of open loans.
	ErrLoanLimitExceeded = errors.New("loan limit exceeded")

	// ErrLoanAlreadyReturned is returned when a return or extension is attempted
	// on a loan that has already been closed.
	ErrLoanAlreadyReturned = errors.New("loan already returned")

	// ErrLoanOverdue is returned when an extension is attempted after the due
	// date has passed.
	ErrLoanOverdue = errors.New("loan is overdue")
)
