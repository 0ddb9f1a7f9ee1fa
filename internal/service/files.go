package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atinyakov/accvault/internal/models"
	"go.uber.org/zap"
)

// FileRepository defines the persistence operations needed by the FileService.
type FileRepository interface {
	UserFileStore
	// Save stores content for username and returns the stored name.
	Save(ctx context.Context, username, originalName string, content io.Reader) (string, error)
	// List returns the names of the files owned by username.
	List(ctx context.Context, username string) ([]string, error)
	// Open returns a stored file or models.ErrNotFound.
	Open(ctx context.Context, name string) (*os.File, error)
	// Delete removes a stored file or returns models.ErrNotFound.
	Delete(ctx context.Context, name string) error
}

// AccountChecker reports whether an account exists.
type AccountChecker interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// FileService implements upload, download, listing and reset of user files.
//
// Download and single-file deletion address files by stored name only and do
// not verify that the caller owns them.
type FileService struct {
	repo     FileRepository
	accounts AccountChecker
	log      *zap.Logger
}

// NewFileService constructs a FileService.
func NewFileService(repo FileRepository, accounts AccountChecker, log *zap.Logger) *FileService {
	return &FileService{repo: repo, accounts: accounts, log: log}
}

// Upload stores content under "<username>_<name>" and returns the stored name.
func (s *FileService) Upload(ctx context.Context, username, name string, content io.Reader) (string, error) {
	if username == "" {
		return "", validationError("username is required")
	}
	stored, err := s.repo.Save(ctx, username, name, content)
	if err != nil {
		return "", err
	}
	s.log.Debug("file stored", zap.String("user", username), zap.String("file", stored))
	return stored, nil
}

// List returns the files owned by username; never nil.
func (s *FileService) List(ctx context.Context, username string) ([]string, error) {
	names, err := s.repo.List(ctx, username)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Open returns the stored file for download.
func (s *FileService) Open(ctx context.Context, name string) (*os.File, error) {
	return s.repo.Open(ctx, name)
}

// Delete removes a single stored file.
func (s *FileService) Delete(ctx context.Context, name string) error {
	if name == "" {
		return validationError("filename is required")
	}
	return s.repo.Delete(ctx, name)
}

// Reset removes every file owned by username and copies the default set
// again. Unknown users get models.ErrNotFound.
func (s *FileService) Reset(ctx context.Context, username string) (models.CleanupReport, error) {
	if username == "" {
		return models.CleanupReport{}, validationError("username is required")
	}

	exists, err := s.accounts.Exists(ctx, username)
	if err != nil {
		return models.CleanupReport{}, err
	}
	if !exists {
		return models.CleanupReport{}, fmt.Errorf("account %q: %w", username, models.ErrNotFound)
	}

	report, err := s.repo.DeleteAllForUser(ctx, username)
	if err != nil {
		return report, err
	}
	logFailures(s.log, username, report)

	if _, err := s.repo.CopyDefaults(ctx, username); err != nil {
		return report, fmt.Errorf("copy default files: %w", err)
	}
	return report, nil
}
