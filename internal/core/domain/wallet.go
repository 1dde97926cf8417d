package domain

import (
	"regexp"
	"time"

	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
)

// WalletStatus represents the lifecycle state of a wallet.
// Transitions: ACTIVE ⇄ SUSPENDED, {ACTIVE, SUSPENDED} → CLOSED (terminal).
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
	WalletStatusClosed    WalletStatus = "CLOSED"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidCurrency reports whether code is a 3-letter uppercase currency code.
func ValidCurrency(code string) bool {
	return currencyPattern.MatchString(code)
}

// Wallet is the aggregate root holding one owner's balance and status.
// Balance currency is fixed at creation, the balance never goes negative,
// and deposit/withdraw/transfer are only legal while ACTIVE. All state
// changes go through the methods below; each mutation returns the ledger
// entries, history rows and events it produced so the caller can persist
// them in one atomic unit and publish the events after commit.
type Wallet struct {
	ID        uuid.UUID    `json:"id"`
	OwnerID   string       `json:"owner_id"`
	Balance   Money        `json:"balance"`
	Status    WalletStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Mutation is the outcome of one balance-affecting operation: the ledger
// entries and history rows to persist atomically with the wallet state, and
// the events to publish after the commit.
type Mutation struct {
	Entries []*Transaction
	History []*BalanceHistory
	Events  []Event
}

// NewWallet opens a wallet for ownerID with a zero balance in the given
// currency. Owner uniqueness is enforced by the store at creation time.
func NewWallet(ownerID string, currency string) (*Wallet, []Event, error) {
	if ownerID == "" {
		return nil, nil, apperror.ErrInvalidArgument("owner id must not be empty")
	}
	if !ValidCurrency(currency) {
		return nil, nil, apperror.ErrInvalidArgument("currency must be a 3-letter uppercase code")
	}

	now := time.Now().UTC()
	w := &Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Balance:   Zero(currency),
		Status:    WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	events := []Event{
		WalletCreatedEvent{
			baseEvent: baseEvent{At: now},
			WalletID:  w.ID,
			OwnerID:   w.OwnerID,
			Currency:  currency,
		},
	}
	return w, events, nil
}

// IsActive reports whether the wallet accepts balance mutations.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// HasSufficientFunds reports whether the balance covers amount.
func (w *Wallet) HasSufficientFunds(amount Money) (bool, error) {
	cmp, err := w.Balance.Compare(amount)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}

// Deposit credits amount to the wallet. Requires ACTIVE status, a strictly
// positive amount and a matching currency. Nothing is applied on failure.
func (w *Wallet) Deposit(amount Money, description string) (*Mutation, error) {
	if err := w.checkMutable(amount); err != nil {
		return nil, err
	}

	oldBalance := w.Balance
	newBalance, err := w.Balance.Add(amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	w.Balance = newBalance
	w.UpdatedAt = now

	entry := &Transaction{
		WalletID:    w.ID,
		Type:        TransactionTypeDeposit,
		Direction:   DirectionCredit,
		Amount:      amount,
		Description: description,
		Status:      TransactionStatusCompleted,
		OccurredAt:  now,
	}
	return &Mutation{
		Entries: []*Transaction{entry},
		History: []*BalanceHistory{w.snapshot(description, now)},
		Events: []Event{
			MoneyDepositedEvent{
				baseEvent:  baseEvent{At: now},
				WalletID:   w.ID,
				OwnerID:    w.OwnerID,
				Amount:     amount,
				OldBalance: oldBalance,
				NewBalance: newBalance,
			},
			TransactionCreatedEvent{
				baseEvent:   baseEvent{At: now},
				WalletID:    w.ID,
				OwnerID:     w.OwnerID,
				Type:        TransactionTypeDeposit,
				Amount:      amount,
				Description: description,
			},
		},
	}, nil
}

// Withdraw debits amount from the wallet. Requires ACTIVE status, a strictly
// positive amount, a matching currency and sufficient funds; the funds check
// and the debit are evaluated against the same balance snapshot.
func (w *Wallet) Withdraw(amount Money, description string) (*Mutation, error) {
	if err := w.checkMutable(amount); err != nil {
		return nil, err
	}

	ok, err := w.HasSufficientFunds(amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrInsufficientFunds()
	}

	oldBalance := w.Balance
	newBalance, err := w.Balance.Sub(amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	w.Balance = newBalance
	w.UpdatedAt = now

	entry := &Transaction{
		WalletID:    w.ID,
		Type:        TransactionTypeWithdraw,
		Direction:   DirectionDebit,
		Amount:      amount,
		Description: description,
		Status:      TransactionStatusCompleted,
		OccurredAt:  now,
	}
	return &Mutation{
		Entries: []*Transaction{entry},
		History: []*BalanceHistory{w.snapshot(description, now)},
		Events: []Event{
			MoneyWithdrawnEvent{
				baseEvent:  baseEvent{At: now},
				WalletID:   w.ID,
				OwnerID:    w.OwnerID,
				Amount:     amount,
				OldBalance: oldBalance,
				NewBalance: newBalance,
			},
			TransactionCreatedEvent{
				baseEvent:   baseEvent{At: now},
				WalletID:    w.ID,
				OwnerID:     w.OwnerID,
				Type:        TransactionTypeWithdraw,
				Amount:      amount,
				Description: description,
			},
		},
	}, nil
}

// TransferTo moves amount from w to target as one logical operation: either
// both balances change or neither does. It produces a debit entry on the
// source, a credit entry on the target, one history row per side and one
// MoneyTransferred event per side. The caller must persist everything in a
// single atomic unit.
func (w *Wallet) TransferTo(target *Wallet, amount Money, description string) (*Mutation, error) {
	if target == nil {
		return nil, apperror.ErrInvalidArgument("target wallet must not be nil")
	}
	if w.ID == target.ID {
		return nil, apperror.ErrSelfTransfer()
	}
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidArgument("amount must be strictly positive")
	}
	if !w.IsActive() {
		return nil, apperror.ErrInvalidState("source wallet is not active")
	}
	if !target.IsActive() {
		return nil, apperror.ErrInvalidState("target wallet is not active")
	}
	if !w.Balance.SameCurrency(amount) {
		return nil, apperror.ErrCurrencyMismatch(w.Balance.Currency, amount.Currency)
	}
	if !target.Balance.SameCurrency(amount) {
		return nil, apperror.ErrCurrencyMismatch(target.Balance.Currency, amount.Currency)
	}

	ok, err := w.HasSufficientFunds(amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrInsufficientFunds()
	}

	sourceOld := w.Balance
	targetOld := target.Balance
	sourceNew, err := w.Balance.Sub(amount)
	if err != nil {
		return nil, err
	}
	targetNew, err := target.Balance.Add(amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	w.Balance = sourceNew
	w.UpdatedAt = now
	target.Balance = targetNew
	target.UpdatedAt = now

	sourceDesc := "Transfer to " + target.OwnerID + ": " + description
	targetDesc := "Transfer from " + w.OwnerID + ": " + description

	sourceEntry := &Transaction{
		WalletID:             w.ID,
		Type:                 TransactionTypeTransfer,
		Direction:            DirectionDebit,
		Amount:               amount,
		Description:          sourceDesc,
		CounterpartyWalletID: &target.ID,
		Status:               TransactionStatusCompleted,
		OccurredAt:           now,
	}
	targetEntry := &Transaction{
		WalletID:             target.ID,
		Type:                 TransactionTypeTransfer,
		Direction:            DirectionCredit,
		Amount:               amount,
		Description:          targetDesc,
		CounterpartyWalletID: &w.ID,
		Status:               TransactionStatusCompleted,
		OccurredAt:           now,
	}

	return &Mutation{
		Entries: []*Transaction{sourceEntry, targetEntry},
		History: []*BalanceHistory{
			w.snapshot(sourceDesc, now),
			target.snapshot(targetDesc, now),
		},
		Events: []Event{
			MoneyTransferredEvent{
				baseEvent:     baseEvent{At: now},
				WalletID:      w.ID,
				SourceOwnerID: w.OwnerID,
				TargetOwnerID: target.OwnerID,
				Amount:        amount,
				OldBalance:    sourceOld,
				NewBalance:    sourceNew,
			},
			MoneyTransferredEvent{
				baseEvent:     baseEvent{At: now},
				WalletID:      target.ID,
				SourceOwnerID: w.OwnerID,
				TargetOwnerID: target.OwnerID,
				Amount:        amount,
				OldBalance:    targetOld,
				NewBalance:    targetNew,
			},
			TransactionCreatedEvent{
				baseEvent:   baseEvent{At: now},
				WalletID:    w.ID,
				OwnerID:     w.OwnerID,
				Type:        TransactionTypeTransfer,
				Amount:      amount,
				Description: sourceDesc,
			},
			TransactionCreatedEvent{
				baseEvent:   baseEvent{At: now},
				WalletID:    target.ID,
				OwnerID:     target.OwnerID,
				Type:        TransactionTypeTransfer,
				Amount:      amount,
				Description: targetDesc,
			},
		},
	}, nil
}

// Suspend pauses the wallet. Legal from ACTIVE or SUSPENDED; a closed wallet
// cannot change state.
func (w *Wallet) Suspend() (Event, error) {
	if w.Status == WalletStatusClosed {
		return nil, apperror.ErrInvalidState("cannot suspend a closed wallet")
	}
	now := time.Now().UTC()
	w.Status = WalletStatusSuspended
	w.UpdatedAt = now
	return WalletSuspendedEvent{baseEvent: baseEvent{At: now}, WalletID: w.ID, OwnerID: w.OwnerID}, nil
}

// Activate resumes the wallet. Legal from ACTIVE or SUSPENDED; a closed
// wallet cannot change state.
func (w *Wallet) Activate() (Event, error) {
	if w.Status == WalletStatusClosed {
		return nil, apperror.ErrInvalidState("cannot activate a closed wallet")
	}
	now := time.Now().UTC()
	w.Status = WalletStatusActive
	w.UpdatedAt = now
	return WalletActivatedEvent{baseEvent: baseEvent{At: now}, WalletID: w.ID, OwnerID: w.OwnerID}, nil
}

// Close terminally closes the wallet. Legal only at exactly zero balance.
func (w *Wallet) Close() (Event, error) {
	if w.Status == WalletStatusClosed {
		return nil, apperror.ErrInvalidState("wallet is already closed")
	}
	if !w.Balance.IsZero() {
		return nil, apperror.ErrInvalidState("cannot close a wallet with a non-zero balance")
	}
	now := time.Now().UTC()
	w.Status = WalletStatusClosed
	w.UpdatedAt = now
	return WalletClosedEvent{baseEvent: baseEvent{At: now}, WalletID: w.ID, OwnerID: w.OwnerID}, nil
}

// checkMutable validates the shared preconditions of deposit and withdraw.
func (w *Wallet) checkMutable(amount Money) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidArgument("amount must be strictly positive")
	}
	if !w.IsActive() {
		return apperror.ErrInvalidState("wallet is not active")
	}
	if !w.Balance.SameCurrency(amount) {
		return apperror.ErrCurrencyMismatch(w.Balance.Currency, amount.Currency)
	}
	return nil
}

func (w *Wallet) snapshot(description string, at time.Time) *BalanceHistory {
	return &BalanceHistory{
		WalletID:    w.ID,
		Balance:     w.Balance,
		Description: description,
		RecordedAt:  at,
	}
}
