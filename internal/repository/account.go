// Package repository provides persistence implementations for accounts
// (PostgreSQL) and user files (local filesystem).
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/accvault/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code raised by a duplicate key.
const uniqueViolation = "23505"

// PostgresAccountRepository implements account storage on the informacoes table.
type PostgresAccountRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository with the given database connection.
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// Exists reports whether an account with the given username exists.
func (r *PostgresAccountRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM informacoes WHERE NomeUsuario = $1)`,
		username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new account. The primary key on NomeUsuario settles
// concurrent registrations; its violation is reported as models.ErrDuplicateUsername.
func (r *PostgresAccountRepository) Create(ctx context.Context, acc models.Account) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO informacoes (NomeUsuario, SenhaUsuario, NomeCompleto, Email) VALUES ($1, $2, $3, $4)`,
		acc.Username, acc.PasswordHash, acc.FullName, acc.Email,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ErrDuplicateUsername
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// FindByUsername loads the full account record, including the password hash.
// It returns models.ErrNotFound when no account matches.
func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT NomeUsuario, SenhaUsuario, NomeCompleto, Email FROM informacoes WHERE NomeUsuario = $1`,
		username,
	).Scan(&acc.Username, &acc.PasswordHash, &acc.FullName, &acc.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acc, nil
}

// UpdatePassword replaces the stored hash of every account with the given email.
func (r *PostgresAccountRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	res, err := r.DB.ExecContext(
		ctx,
		`UPDATE informacoes SET SenhaUsuario = $1 WHERE Email = $2`,
		passwordHash, email,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRows(res)
}

// UpdateFullName replaces the full name of every account with the given email.
func (r *PostgresAccountRepository) UpdateFullName(ctx context.Context, email, fullName string) error {
	res, err := r.DB.ExecContext(
		ctx,
		`UPDATE informacoes SET NomeCompleto = $1 WHERE Email = $2`,
		fullName, email,
	)
	if err != nil {
		return fmt.Errorf("update full name: %w", err)
	}
	return requireRows(res)
}

// Delete removes the account row. Deleting a missing username is not an error.
func (r *PostgresAccountRepository) Delete(ctx context.Context, username string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`DELETE FROM informacoes WHERE NomeUsuario = $1`,
		username,
	)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// requireRows maps an update that touched nothing to models.ErrEmailNotFound.
func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrEmailNotFound
	}
	return nil
}
