// Package service provides the account and file business logic,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/accvault/internal/models"
	"github.com/atinyakov/accvault/internal/password"
	"github.com/atinyakov/accvault/internal/repository"
	"go.uber.org/zap"
)

// AccountRepository defines the persistence operations
// required by the account service.
type AccountRepository interface {
	// Create inserts a new account or returns models.ErrDuplicateUsername.
	Create(ctx context.Context, acc models.Account) error
	// FindByUsername returns the full record or models.ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	// UpdatePassword stores a new hash for every account with the email,
	// returning models.ErrEmailNotFound when none matches.
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	// UpdateFullName stores a new full name for every account with the email,
	// returning models.ErrEmailNotFound when none matches.
	UpdateFullName(ctx context.Context, email, fullName string) error
	// Delete removes the account; a missing username is not an error.
	Delete(ctx context.Context, username string) error
}

// UserFileStore defines the file operations tied to an account's lifecycle.
type UserFileStore interface {
	// DeleteAllForUser removes every file owned by username, best effort.
	DeleteAllForUser(ctx context.Context, username string) (models.CleanupReport, error)
	// CopyDefaults copies the default file set for username.
	CopyDefaults(ctx context.Context, username string) (int, error)
}

// AccountService implements registration, login and account maintenance.
type AccountService struct {
	repo  AccountRepository
	files UserFileStore
	log   *zap.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo AccountRepository, files UserFileStore, log *zap.Logger) *AccountService {
	return &AccountService{repo: repo, files: files, log: log}
}

// dummyHash is verified against when the username is unknown, so that a
// missing account costs the same hashing work as a wrong password.
const dummyHash = "00000000000000000000000000000000:0000000000000000000000000000000000000000000000000000000000000000"

// verifyPassword is a test seam over password.Verify.
var verifyPassword = password.Verify

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, msg)
}

// Register creates the account and gives it a copy of the default files.
// Username uniqueness is enforced by the repository.
func (s *AccountService) Register(ctx context.Context, in models.Registration) error {
	if in.Username == "" || in.Password == "" {
		return validationError("username and password are required")
	}
	if !repository.ValidUsername(in.Username) {
		return fmt.Errorf("%w %q", models.ErrInvalidUsername, in.Username)
	}

	hash, err := password.New(in.Password)
	if err != nil {
		return err
	}

	err = s.repo.Create(ctx, models.Account{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Email:        in.Email,
	})
	if err != nil {
		return err
	}

	n, err := s.files.CopyDefaults(ctx, in.Username)
	if err != nil {
		s.log.Error("failed to copy default files", zap.String("user", in.Username), zap.Error(err))
		return fmt.Errorf("copy default files: %w", err)
	}
	s.log.Info("account registered", zap.String("user", in.Username), zap.Int("default_files", n))
	return nil
}

// Authenticate checks the credentials and returns the account without its
// password hash. An unknown username and a wrong password both yield
// models.ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, pass string) (*models.Account, error) {
	if username == "" {
		return nil, models.ErrInvalidCredentials
	}

	acc, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			verifyPassword(dummyHash, pass)
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if !verifyPassword(acc.PasswordHash, pass) {
		return nil, models.ErrInvalidCredentials
	}

	acc.PasswordHash = ""
	return acc, nil
}

// UpdatePassword hashes newPassword and stores it for the accounts with email.
func (s *AccountService) UpdatePassword(ctx context.Context, email, newPassword string) error {
	if strings.TrimSpace(email) == "" || newPassword == "" {
		return validationError("email and new password are required")
	}

	hash, err := password.New(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, email, hash)
}

// UpdateFullName stores newName for the accounts with email.
func (s *AccountService) UpdateFullName(ctx context.Context, email, newName string) error {
	if strings.TrimSpace(email) == "" || newName == "" {
		return validationError("email and new name are required")
	}
	return s.repo.UpdateFullName(ctx, email, newName)
}

// Delete removes the account row and then every file the user owns. File
// removal is best effort; failures are logged and returned in the report.
func (s *AccountService) Delete(ctx context.Context, username string) (models.CleanupReport, error) {
	if username == "" {
		return models.CleanupReport{}, validationError("username is required")
	}

	if err := s.repo.Delete(ctx, username); err != nil {
		return models.CleanupReport{}, err
	}

	report, err := s.files.DeleteAllForUser(ctx, username)
	if err != nil {
		s.log.Error("failed to list files of deleted account", zap.String("user", username), zap.Error(err))
		return report, nil
	}
	logFailures(s.log, username, report)
	return report, nil
}

// logFailures writes one warning per file left behind by a batch deletion.
func logFailures(log *zap.Logger, username string, report models.CleanupReport) {
	for _, f := range report.Failed {
		log.Warn("failed to delete file",
			zap.String("user", username),
			zap.String("file", f.Filename),
			zap.String("error", f.Error),
		)
	}
}
