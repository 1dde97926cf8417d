package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// BalanceHistoryRepo implements ports.BalanceHistoryRepository.
type BalanceHistoryRepo struct {
	pool Pool
}

// NewBalanceHistoryRepo creates a new BalanceHistoryRepo.
func NewBalanceHistoryRepo(pool Pool) *BalanceHistoryRepo {
	return &BalanceHistoryRepo{pool: pool}
}

const historyColumns = `id, wallet_id, balance::text, currency, description, recorded_at`

// Create inserts a balance snapshot within a database transaction and
// assigns its sequence id.
func (r *BalanceHistoryRepo) Create(ctx context.Context, tx pgx.Tx, h *domain.BalanceHistory) error {
	query := `INSERT INTO balance_history (wallet_id, balance, currency, description, recorded_at)
		VALUES ($1, $2::numeric, $3, $4, $5)
		RETURNING id`

	err := tx.QueryRow(ctx, query,
		h.WalletID, h.Balance.Amount.String(), h.Balance.Currency,
		h.Description, h.RecordedAt,
	).Scan(&h.ID)
	if err != nil {
		return translateError(err)
	}
	return nil
}

// LatestBefore fetches the most recent snapshot recorded at or before at.
// Returns (nil, nil) when no snapshot qualifies.
func (r *BalanceHistoryRepo) LatestBefore(ctx context.Context, walletID uuid.UUID, at time.Time) (*domain.BalanceHistory, error) {
	query := fmt.Sprintf(`SELECT %s FROM balance_history
		WHERE wallet_id = $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC, id DESC LIMIT 1`, historyColumns)

	h, err := scanHistory(r.pool.QueryRow(ctx, query, walletID, at))
	if err != nil {
		return nil, err
	}
	return h, nil
}

// List fetches balance snapshots with filtering and pagination, newest first.
func (r *BalanceHistoryRepo) List(ctx context.Context, params ports.HistoryListParams) ([]domain.BalanceHistory, int64, error) {
	conditions := "wallet_id = $1"
	args := []any{params.WalletID}
	argIdx := 2

	if params.From != nil {
		conditions += fmt.Sprintf(" AND recorded_at >= $%d", argIdx)
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions += fmt.Sprintf(" AND recorded_at <= $%d", argIdx)
		args = append(args, *params.To)
		argIdx++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM balance_history WHERE %s", conditions)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count balance history: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM balance_history WHERE %s
		ORDER BY recorded_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		historyColumns, conditions, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list balance history: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.BalanceHistory
	for rows.Next() {
		h, err := scanHistoryRow(rows)
		if err != nil {
			return nil, 0, err
		}
		snapshots = append(snapshots, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate balance history rows: %w", err)
	}
	return snapshots, total, nil
}

func scanHistory(row pgx.Row) (*domain.BalanceHistory, error) {
	h, err := scanHistoryRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return h, nil
}

func scanHistoryRow(row pgx.Row) (*domain.BalanceHistory, error) {
	h := &domain.BalanceHistory{}
	var balance string
	err := row.Scan(
		&h.ID, &h.WalletID, &balance, &h.Balance.Currency,
		&h.Description, &h.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan balance history: %w", err)
	}

	h.Balance.Amount, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse history balance %q: %w", balance, err)
	}
	return h, nil
}
