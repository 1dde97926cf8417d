package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies a domain event type.
type EventKind string

const (
	EventWalletCreated      EventKind = "WALLET_CREATED"
	EventMoneyDeposited     EventKind = "MONEY_DEPOSITED"
	EventMoneyWithdrawn     EventKind = "MONEY_WITHDRAWN"
	EventMoneyTransferred   EventKind = "MONEY_TRANSFERRED"
	EventTransactionCreated EventKind = "TRANSACTION_CREATED"
	EventWalletSuspended    EventKind = "WALLET_SUSPENDED"
	EventWalletActivated    EventKind = "WALLET_ACTIVATED"
	EventWalletClosed       EventKind = "WALLET_CLOSED"
)

// Event is a notification of a completed wallet state change. Wallet
// mutation methods return events to their caller; they never publish
// anything themselves. Delivery is best-effort and asynchronous, and ledger
// correctness never depends on it.
type Event interface {
	Kind() EventKind
	OccurredAt() time.Time
}

// baseEvent carries the fields shared by all events.
type baseEvent struct {
	At time.Time `json:"occurred_at"`
}

func (e baseEvent) OccurredAt() time.Time { return e.At }

// WalletCreatedEvent signals that a new wallet was opened.
type WalletCreatedEvent struct {
	baseEvent
	WalletID uuid.UUID `json:"wallet_id"`
	OwnerID  string    `json:"owner_id"`
	Currency string    `json:"currency"`
}

func (WalletCreatedEvent) Kind() EventKind { return EventWalletCreated }

// MoneyDepositedEvent signals a completed deposit, carrying before/after
// balances.
type MoneyDepositedEvent struct {
	baseEvent
	WalletID   uuid.UUID `json:"wallet_id"`
	OwnerID    string    `json:"owner_id"`
	Amount     Money     `json:"amount"`
	OldBalance Money     `json:"old_balance"`
	NewBalance Money     `json:"new_balance"`
}

func (MoneyDepositedEvent) Kind() EventKind { return EventMoneyDeposited }

// MoneyWithdrawnEvent signals a completed withdrawal, carrying before/after
// balances.
type MoneyWithdrawnEvent struct {
	baseEvent
	WalletID   uuid.UUID `json:"wallet_id"`
	OwnerID    string    `json:"owner_id"`
	Amount     Money     `json:"amount"`
	OldBalance Money     `json:"old_balance"`
	NewBalance Money     `json:"new_balance"`
}

func (MoneyWithdrawnEvent) Kind() EventKind { return EventMoneyWithdrawn }

// MoneyTransferredEvent signals one side of a completed transfer. Each side
// gets its own event carrying that wallet's old/new balance.
type MoneyTransferredEvent struct {
	baseEvent
	WalletID      uuid.UUID `json:"wallet_id"`
	SourceOwnerID string    `json:"source_owner_id"`
	TargetOwnerID string    `json:"target_owner_id"`
	Amount        Money     `json:"amount"`
	OldBalance    Money     `json:"old_balance"`
	NewBalance    Money     `json:"new_balance"`
}

func (MoneyTransferredEvent) Kind() EventKind { return EventMoneyTransferred }

// TransactionCreatedEvent signals that a ledger entry was recorded.
type TransactionCreatedEvent struct {
	baseEvent
	WalletID    uuid.UUID       `json:"wallet_id"`
	OwnerID     string          `json:"owner_id"`
	Type        TransactionType `json:"type"`
	Amount      Money           `json:"amount"`
	Description string          `json:"description"`
}

func (TransactionCreatedEvent) Kind() EventKind { return EventTransactionCreated }

// WalletSuspendedEvent signals a transition to SUSPENDED.
type WalletSuspendedEvent struct {
	baseEvent
	WalletID uuid.UUID `json:"wallet_id"`
	OwnerID  string    `json:"owner_id"`
}

func (WalletSuspendedEvent) Kind() EventKind { return EventWalletSuspended }

// WalletActivatedEvent signals a transition back to ACTIVE.
type WalletActivatedEvent struct {
	baseEvent
	WalletID uuid.UUID `json:"wallet_id"`
	OwnerID  string    `json:"owner_id"`
}

func (WalletActivatedEvent) Kind() EventKind { return EventWalletActivated }

// WalletClosedEvent signals the terminal transition to CLOSED.
type WalletClosedEvent struct {
	baseEvent
	WalletID uuid.UUID `json:"wallet_id"`
	OwnerID  string    `json:"owner_id"`
}

func (WalletClosedEvent) Kind() EventKind { return EventWalletClosed }
