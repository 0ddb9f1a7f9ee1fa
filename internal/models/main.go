// Package models defines the core data structures for accounts and stored files.
package models

// Account represents a registered user.
type Account struct {
	// Username is the unique login name; it also prefixes every file the user owns.
	Username string `json:"NomeUsuario"`
	// PasswordHash holds the salted digest in "salt:hash" form. It is never serialized.
	PasswordHash string `json:"-"`
	// FullName is the display name of the user.
	FullName string `json:"NomeCompleto"`
	// Email is the contact address used to update the name and password.
	Email string `json:"Email"`
}

// Registration carries the fields of a registration request.
type Registration struct {
	Username string `json:"NomeUsuario"`
	Password string `json:"SenhaUsuario"`
	FullName string `json:"NomeCompleto"`
	Email    string `json:"Email"`
}

// FileFailure describes a single file that could not be removed during a batch operation.
type FileFailure struct {
	// Filename is the stored name of the file.
	Filename string `json:"arquivo"`
	// Error is the text of the underlying filesystem error.
	Error string `json:"erro"`
}

// CleanupReport collects the per-file outcome of a best-effort batch deletion.
type CleanupReport struct {
	// Removed lists the files that were deleted.
	Removed []string `json:"removidos"`
	// Failed lists the files that could not be deleted.
	Failed []FileFailure `json:"falhas"`
}

// Complete reports whether every file in the batch was removed.
func (r CleanupReport) Complete() bool {
	return len(r.Failed) == 0
}
