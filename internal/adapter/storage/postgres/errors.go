package postgres

import (
	"errors"
	"strings"

	"wallet-ledger-service/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes that map to domain error conditions.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// translateError maps low-level PostgreSQL failures to domain errors.
// Serialization failures and deadlocks become retryable
// ConcurrentModification errors; unique violations become AlreadyExists.
// Everything else passes through for the service layer to wrap.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		return apperror.ErrConcurrentModification(err)
	case pgUniqueViolation:
		return apperror.ErrAlreadyExists(uniqueEntity(pgErr.ConstraintName))
	default:
		return err
	}
}

// uniqueEntity names the conflicting domain entity for a unique-violation
// constraint. Clients see the entity, never the schema's constraint name.
func uniqueEntity(constraint string) string {
	if strings.Contains(constraint, "owner") {
		return "wallet for owner"
	}
	return "record"
}
