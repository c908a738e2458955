// Package repository provides data access interfaces and their PostgreSQL
// implementations for the conference catalog.
//
// # Repository Interfaces
//
//   - SubmissionRepository: enriched submissions awaiting admin review
//   - CatalogRepository: approved conferences, papers and authors
//
// # Error Handling
//
// Methods return domain errors (domain.ErrNotFound, domain.ErrAlreadyExists,
// domain.ErrInvalidInput) and wrap driver errors with fmt.Errorf and %w.
//
// # Transactions
//
// Repositories accept a DBTX, so the same implementation runs on the pool
// or inside a transaction:
//
//	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
//	    subs := repository.NewPgSubmissionRepository(tx)
//	    catalog := repository.NewPgCatalogRepository(tx)
//	    ...
//	})
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helixir/conference-catalog-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
type DBTX = database.DBTX

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// isPgUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// nullString converts an empty string to nil for nullable text columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
