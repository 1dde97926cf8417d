package ports

import (
	"context"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside transaction blocks; the ForUpdate
// variants take a pessimistic row lock held until the transaction ends.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	ExistsByOwner(ctx context.Context, ownerID string) (bool, error)
	// Update persists balance, status and updated_at within a transaction.
	Update(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error
}

// TransactionRepository defines persistence operations for ledger entries.
// Entries are immutable; there is no update path.
type TransactionRepository interface {
	// Create inserts the entry and assigns its store-generated id.
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing ledger entries.
type TransactionListParams struct {
	WalletID uuid.UUID
	Type     *domain.TransactionType
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// BalanceHistoryRepository defines persistence for balance snapshots.
// The table is append-only.
type BalanceHistoryRepository interface {
	// Create inserts the row and assigns its store-generated id.
	Create(ctx context.Context, tx pgx.Tx, h *domain.BalanceHistory) error
	// LatestBefore returns the most recent snapshot with recorded_at <= at,
	// or nil if the wallet has no history up to that instant.
	LatestBefore(ctx context.Context, walletID uuid.UUID, at time.Time) (*domain.BalanceHistory, error)
	// List returns snapshots most-recent-first, optionally bounded to a
	// [from, to] window.
	List(ctx context.Context, params HistoryListParams) ([]domain.BalanceHistory, int64, error)
}

// HistoryListParams holds filter + pagination for listing balance snapshots.
type HistoryListParams struct {
	WalletID uuid.UUID
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// AuditRepository persists the audit trail written by the audit event
// handler. Writes are best-effort and happen outside the ledger's atomic
// unit.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
}

// DBTransactor provides database transaction management. One Begin/Commit
// pair brackets each atomic unit: wallet state + ledger entries + history
// rows commit together or not at all.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
