package postgres

import (
	"context"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
)

type auditRepo struct {
	pool Pool
}

// NewAuditRepository creates a PostgreSQL-backed AuditRepository.
func NewAuditRepository(pool Pool) ports.AuditRepository {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, wallet_id, event_kind, details, occurred_at, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.WalletID, string(entry.EventKind),
		entry.Details, entry.OccurredAt, entry.RecordedAt,
	)
	return err
}
