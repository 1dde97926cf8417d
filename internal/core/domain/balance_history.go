package domain

import (
	"time"

	"github.com/google/uuid"
)

// BalanceHistory is an append-only point-in-time record of a wallet's
// balance, written in the same atomic unit as the mutation that produced it.
// Rows are ordered by RecordedAt and answer "what was the balance at or
// before time T" queries.
//
// The ID is assigned by the store at insert time; zero means "not yet
// persisted".
type BalanceHistory struct {
	ID          int64     `json:"id"`
	WalletID    uuid.UUID `json:"wallet_id"`
	Balance     Money     `json:"balance"` // Post-operation balance
	Description string    `json:"description"`
	RecordedAt  time.Time `json:"recorded_at"`
}
