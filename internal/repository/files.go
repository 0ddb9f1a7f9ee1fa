package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/accvault/internal/models"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	tempPrefix = ".upload-"
	tempSuffix = ".tmp"
)

// DiskFileRepository stores user files in a single directory. A file belongs
// to a user when its name starts with "<username>_".
type DiskFileRepository struct {
	// UploadDir holds every stored file.
	UploadDir string
	// DefaultsDir holds the template files copied to new and reset accounts.
	DefaultsDir string
}

// NewDiskFileRepository returns a repository rooted at uploadDir, creating the
// directory if it does not exist. A missing defaultsDir is tolerated.
func NewDiskFileRepository(uploadDir, defaultsDir string) (*DiskFileRepository, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskFileRepository{UploadDir: uploadDir, DefaultsDir: defaultsDir}, nil
}

// ValidUsername reports whether username can safely prefix a stored file name.
func ValidUsername(username string) bool {
	if username == "" || strings.HasPrefix(username, ".") {
		return false
	}
	return !strings.ContainsAny(username, "/\\\x00")
}

// SanitizeFilename reduces name to a safe base name: path separators and
// whitespace collapse into underscores, non-ASCII letters are folded, and only
// ASCII letters, digits, '_', '.' and '-' are kept. Leading and trailing dots
// and underscores are stripped. The result may be empty.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")

	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '.', c == '-':
			b.WriteRune(c)
		}
	}
	return strings.Trim(b.String(), "._")
}

func userPrefix(username string) string {
	return username + "_"
}

// storedPath resolves a stored file name inside the upload directory. Names
// that are not plain base names, or that fall in the temp namespace, are
// reported as missing.
func (r *DiskFileRepository) storedPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsRune(name, '\\') {
		return "", models.ErrNotFound
	}
	return filepath.Join(r.UploadDir, name), nil
}

// writeAtomic streams content into a uuid-named temp file and renames it over
// dst, so readers never see a partial file and the last writer wins.
func (r *DiskFileRepository) writeAtomic(dst string, content io.Reader, perm fs.FileMode) error {
	tmpPath := filepath.Join(r.UploadDir, tempPrefix+uuid.NewString()+tempSuffix)
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Save stores content as "<username>_<sanitized originalName>", replacing any
// file with the same final name, and returns that name.
func (r *DiskFileRepository) Save(ctx context.Context, username, originalName string, content io.Reader) (string, error) {
	if !ValidUsername(username) {
		return "", fmt.Errorf("%w %q", models.ErrInvalidUsername, username)
	}
	clean := SanitizeFilename(originalName)
	if clean == "" {
		return "", fmt.Errorf("%w: invalid file name %q", models.ErrValidation, originalName)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := userPrefix(username) + clean
	if err := r.writeAtomic(filepath.Join(r.UploadDir, name), content, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return name, nil
}

// List returns the names of all files owned by username, sorted by name.
func (r *DiskFileRepository) List(ctx context.Context, username string) ([]string, error) {
	entries, err := os.ReadDir(r.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	prefix := userPrefix(username)
	names := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Open returns the stored file for reading. Ownership is not checked.
func (r *DiskFileRepository) Open(ctx context.Context, name string) (*os.File, error) {
	path, err := r.storedPath(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, models.ErrNotFound
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// Delete removes a single stored file. Ownership is not checked.
func (r *DiskFileRepository) Delete(ctx context.Context, name string) error {
	path, err := r.storedPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.ErrNotFound
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// DeleteAllForUser removes every file owned by username. Individual failures
// are recorded in the report and do not stop the batch.
func (r *DiskFileRepository) DeleteAllForUser(ctx context.Context, username string) (models.CleanupReport, error) {
	report := models.CleanupReport{Removed: []string{}, Failed: []models.FileFailure{}}

	names, err := r.List(ctx, username)
	if err != nil {
		return report, err
	}

	for _, name := range names {
		if err := os.Remove(filepath.Join(r.UploadDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			report.Failed = append(report.Failed, models.FileFailure{Filename: name, Error: err.Error()})
			continue
		}
		report.Removed = append(report.Removed, name)
	}
	return report, nil
}

// CopyDefaults copies every regular file of the defaults directory into the
// upload directory as "<username>_<name>" and returns how many were copied.
// A missing defaults directory copies nothing.
func (r *DiskFileRepository) CopyDefaults(ctx context.Context, username string) (int, error) {
	if !ValidUsername(username) {
		return 0, fmt.Errorf("%w %q", models.ErrInvalidUsername, username)
	}
	if r.DefaultsDir == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(r.DefaultsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read defaults dir: %w", err)
	}

	copied := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return copied, err
		}

		src := filepath.Join(r.DefaultsDir, e.Name())
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := r.copyFile(src, filepath.Join(r.UploadDir, userPrefix(username)+e.Name()), info); err != nil {
			return copied, fmt.Errorf("copy default %s: %w", e.Name(), err)
		}
		copied++
	}
	return copied, nil
}

// copyFile copies src to dst keeping the permission bits and modification time.
func (r *DiskFileRepository) copyFile(src, dst string, info fs.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := r.writeAtomic(dst, in, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// RemoveStaleTemp deletes temp files left behind by interrupted writes that
// were last modified before olderThan. It returns the number removed.
func (r *DiskFileRepository) RemoveStaleTemp(olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(r.UploadDir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, tempSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(olderThan) {
			continue
		}
		if err := os.Remove(filepath.Join(r.UploadDir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}
