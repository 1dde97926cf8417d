package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// TransactionDirection is the balance effect of an entry on its wallet.
type TransactionDirection string

const (
	DirectionCredit TransactionDirection = "CREDIT"
	DirectionDebit  TransactionDirection = "DEBIT"
)

// TransactionStatus represents the lifecycle state of a ledger entry.
// Entries are only recorded for movements that committed.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction is an immutable ledger entry: one completed monetary movement
// against a single wallet. A transfer between two wallets produces exactly
// two entries, a debit on the source and a credit on the target, each
// referencing the other wallet as counterparty.
//
// The ID is assigned by the store at insert time (monotonic per table),
// never generated ad hoc by callers; zero means "not yet persisted".
type Transaction struct {
	ID                   int64                `json:"id"`
	WalletID             uuid.UUID            `json:"wallet_id"`
	Type                 TransactionType      `json:"type"`
	Direction            TransactionDirection `json:"direction"`
	Amount               Money                `json:"amount"` // Always positive; sign comes from Direction
	Description          string               `json:"description"`
	CounterpartyWalletID *uuid.UUID           `json:"counterparty_wallet_id,omitempty"` // Transfers only
	Status               TransactionStatus    `json:"status"`
	OccurredAt           time.Time            `json:"occurred_at"`
}

// SignedAmount returns the amount with the sign of its balance effect:
// positive for credits, negative for debits.
func (t *Transaction) SignedAmount() Money {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsTransfer reports whether the entry belongs to a two-sided transfer.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TransactionTypeTransfer
}
