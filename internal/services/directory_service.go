package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"librarium/internal/clock"
	"librarium/internal/models"
	"librarium/internal/repositories"
)

// ─── Service Interface ────────────────────────────────────────────────────────

// DirectoryService owns library user identity and lookups. It knows nothing
// about loans.
type DirectoryService interface {
	Register(name, email string) (*models.LibraryUser, error)
	FindByID(id uuid.UUID) (*models.LibraryUser, error)
	FindByEmail(email string) (*models.LibraryUser, error)
	FindByMembershipNumber(number string) (*models.LibraryUser, error)
	UpdateUser(id uuid.UUID, name, email string) (*models.LibraryUser, error)
	DeleteUser(id uuid.UUID) error
}

// ─── Implementation ───────────────────────────────────────────────────────────

type directoryService struct {
	db       *gorm.DB
	userRepo repositories.UserRepository
	clk      clock.Clock
}

// NewDirectoryService wires up the user directory.
func NewDirectoryService(db *gorm.DB, userRepo repositories.UserRepository, clk clock.Clock) DirectoryService {
	return &directoryService{db: db, userRepo: userRepo, clk: clk}
}

// Register creates a new library user with a generated id and membership number.
func (s *directoryService) Register(name, email string) (*models.LibraryUser, error) {
	if err := validateUserFields(name, email); err != nil {
		return nil, err
	}

	number, err := generateMembershipNumber()
	if err != nil {
		return nil, err
	}

	user := &models.LibraryUser{
		ID:               uuid.New(),
		Name:             name,
		Email:            email,
		MembershipNumber: number,
		MemberSince:      s.clk.Now(),
	}
	if err := s.userRepo.Create(nil, user); err != nil {
		log.Printf("[ERROR] Register: failed to create user %s: %v", email, err)
		return nil, err
	}
	log.Printf("[INFO] Register: user %q registered (id=%s, membership=%s)", user.Name, user.ID, user.MembershipNumber)
	return user, nil
}

// FindByID returns the user with the given id.
func (s *directoryService) FindByID(id uuid.UUID) (*models.LibraryUser, error) {
	return s.lookup(func(db *gorm.DB) (*models.LibraryUser, error) {
		return s.userRepo.GetByID(db, id)
	})
}

// FindByEmail returns the user with the given email address.
func (s *directoryService) FindByEmail(email string) (*models.LibraryUser, error) {
	return s.lookup(func(db *gorm.DB) (*models.LibraryUser, error) {
		return s.userRepo.GetByEmail(db, email)
	})
}

// FindByMembershipNumber returns the user holding the given membership number.
func (s *directoryService) FindByMembershipNumber(number string) (*models.LibraryUser, error) {
	return s.lookup(func(db *gorm.DB) (*models.LibraryUser, error) {
		return s.userRepo.GetByMembershipNumber(db, number)
	})
}

// UpdateUser replaces the user's name and email.
func (s *directoryService) UpdateUser(id uuid.UUID, name, email string) (*models.LibraryUser, error) {
	if err := validateUserFields(name, email); err != nil {
		return nil, err
	}

	var updated *models.LibraryUser
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByID(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user.Name = name
		user.Email = email
		if err := s.userRepo.Update(tx, user); err != nil {
			log.Printf("[ERROR] UpdateUser: failed to update user %s: %v", id, err)
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUser removes the user from the directory.
func (s *directoryService) DeleteUser(id uuid.UUID) error {
	if err := s.userRepo.Delete(nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	log.Printf("[INFO] DeleteUser: removed user %s", id)
	return nil
}

// ─── Internal Helpers ─────────────────────────────────────────────────────────

func (s *directoryService) lookup(get func(db *gorm.DB) (*models.LibraryUser, error)) (*models.LibraryUser, error) {
	user, err := get(nil)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func validateUserFields(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrInvalidArgument)
	}
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email %q is malformed", ErrInvalidArgument, email)
	}
	return nil
}

// generateMembershipNumber produces a human-facing membership number from
// 6 bytes of crypto/rand, giving a collision-resistant 12-hex-digit suffix.
func generateMembershipNumber() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate membership number: %w", err)
	}
	return "MEM-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
