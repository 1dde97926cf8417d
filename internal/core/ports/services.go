package ports

import (
	"context"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
)

// WalletService is the ledger engine's contract towards its orchestrating
// callers. Every mutation is validated before any state change, applied as
// one atomic unit, and returns the events it emitted after the commit.
type WalletService interface {
	CreateWallet(ctx context.Context, ownerID string, currency string) (*domain.Wallet, error)
	Deposit(ctx context.Context, req MutationRequest) (*MutationResult, error)
	Withdraw(ctx context.Context, req MutationRequest) (*MutationResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	Suspend(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	Activate(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	Close(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)

	GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	GetWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error)
	// BalanceAt answers "what was the balance at or before t". A future t
	// yields the current balance, as does a t predating all recorded history.
	BalanceAt(ctx context.Context, walletID uuid.UUID, t time.Time) (domain.Money, error)
	History(ctx context.Context, params HistoryListParams) ([]domain.BalanceHistory, int64, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// MutationRequest holds validated input for a deposit or withdrawal.
type MutationRequest struct {
	WalletID    uuid.UUID
	Amount      domain.Money
	Description string
}

// MutationResult is the outcome of a single-wallet mutation.
type MutationResult struct {
	Wallet      *domain.Wallet
	Transaction *domain.Transaction
	Events      []domain.Event
}

// TransferRequest holds validated input for a transfer.
type TransferRequest struct {
	SourceID    uuid.UUID
	TargetID    uuid.UUID
	Amount      domain.Money
	Description string
}

// TransferResult is the outcome of a transfer: both updated wallets and the
// entries/events of both sides.
type TransferResult struct {
	Source       *domain.Wallet
	Target       *domain.Wallet
	Transactions []*domain.Transaction
	Events       []domain.Event
}

// WalletCache is a best-effort read cache for wallet snapshots. A cache
// miss returns (nil, nil); any failure is logged and treated as a miss.
type WalletCache interface {
	Get(ctx context.Context, walletID uuid.UUID) ([]byte, error)
	Set(ctx context.Context, walletID uuid.UUID, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, walletIDs ...uuid.UUID) error
}

// EventPublisher delivers committed domain events to interested consumers.
// Delivery is best-effort, asynchronous and non-blocking; implementations
// must never let a delivery failure propagate back to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event)
}

// EventHandler consumes a single published event. Handlers for the same
// kind run in registration order; ordering across kinds is not guaranteed.
type EventHandler func(ctx context.Context, event domain.Event)
