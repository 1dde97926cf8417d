package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	defaultLockTimeout = 5 * time.Second
	walletCacheTTL     = 30 * time.Second

	defaultPageSize = 20
	maxPageSize     = 100
)

// WalletServiceImpl implements ports.WalletService.
//
// Every mutation follows the same shape: serialize on the in-process lock
// guard, open one database transaction, load the wallet(s) with row locks,
// let the aggregate validate and apply the change, persist wallet state +
// ledger entries + history rows, commit, then publish events. Validation
// failures roll back before anything is written; event delivery happens
// strictly after the commit and its outcome is ignored.
type WalletServiceImpl struct {
	walletRepo  ports.WalletRepository
	txRepo      ports.TransactionRepository
	historyRepo ports.BalanceHistoryRepository
	transactor  ports.DBTransactor
	locks       *LockGuard
	cache       ports.WalletCache // nil disables caching
	publisher   ports.EventPublisher
	lockTimeout time.Duration
	log         zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl. cache may be nil.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	historyRepo ports.BalanceHistoryRepository,
	transactor ports.DBTransactor,
	locks *LockGuard,
	cache ports.WalletCache,
	publisher ports.EventPublisher,
	lockTimeout time.Duration,
	log zerolog.Logger,
) *WalletServiceImpl {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &WalletServiceImpl{
		walletRepo:  walletRepo,
		txRepo:      txRepo,
		historyRepo: historyRepo,
		transactor:  transactor,
		locks:       locks,
		cache:       cache,
		publisher:   publisher,
		lockTimeout: lockTimeout,
		log:         log,
	}
}

// CreateWallet opens a wallet for ownerID. One wallet per owner; a second
// creation fails with AlreadyExists.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, ownerID string, currency string) (*domain.Wallet, error) {
	w, events, err := domain.NewWallet(ownerID, currency)
	if err != nil {
		return nil, err
	}

	exists, err := s.walletRepo.ExistsByOwner(ctx, ownerID)
	if err != nil {
		return nil, asAppError(err, "check owner")
	}
	if exists {
		return nil, apperror.ErrAlreadyExists("wallet for owner")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// The unique owner index still backstops the pre-check under races.
	if err := s.walletRepo.Create(ctx, dbTx, w); err != nil {
		return nil, asAppError(err, "create wallet")
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, asAppError(err, "commit tx")
	}

	s.publish(ctx, events)

	s.log.Info().
		Str("wallet_id", w.ID.String()).
		Str("owner_id", ownerID).
		Str("currency", currency).
		Msg("wallet created")

	return w, nil
}

// Deposit credits money to a wallet.
func (s *WalletServiceImpl) Deposit(ctx context.Context, req ports.MutationRequest) (*ports.MutationResult, error) {
	return s.mutate(ctx, req.WalletID, "deposit", func(w *domain.Wallet) (*domain.Mutation, error) {
		return w.Deposit(req.Amount, req.Description)
	})
}

// Withdraw debits money from a wallet.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, req ports.MutationRequest) (*ports.MutationResult, error) {
	return s.mutate(ctx, req.WalletID, "withdraw", func(w *domain.Wallet) (*domain.Mutation, error) {
		return w.Withdraw(req.Amount, req.Description)
	})
}

// mutate runs a single-wallet mutation as one atomic unit.
func (s *WalletServiceImpl) mutate(
	ctx context.Context,
	walletID uuid.UUID,
	op string,
	apply func(w *domain.Wallet) (*domain.Mutation, error),
) (*ports.MutationResult, error) {
	release, err := s.acquireLocks(ctx, walletID)
	if err != nil {
		return nil, err
	}
	defer release()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, walletID)
	if err != nil {
		return nil, asAppError(err, "lock wallet")
	}
	if w == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	mut, err := apply(w)
	if err != nil {
		return nil, err
	}

	if err := s.persistMutation(ctx, dbTx, mut, w); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, asAppError(err, "commit tx")
	}

	s.invalidateCache(ctx, walletID)
	s.publish(ctx, mut.Events)

	s.log.Info().
		Str("op", op).
		Str("wallet_id", w.ID.String()).
		Str("balance", w.Balance.String()).
		Int64("transaction_id", mut.Entries[0].ID).
		Msg("wallet mutated")

	return &ports.MutationResult{
		Wallet:      w,
		Transaction: mut.Entries[0],
		Events:      mut.Events,
	}, nil
}

// Transfer moves money between two wallets in a single atomic unit: both
// balances, both ledger entries and both history rows commit together or
// not at all.
func (s *WalletServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if req.SourceID == req.TargetID {
		return nil, apperror.ErrSelfTransfer()
	}

	release, err := s.acquireLocks(ctx, req.SourceID, req.TargetID)
	if err != nil {
		return nil, err
	}
	defer release()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Row locks in ascending id order, mirroring the lock guard, so two
	// opposing transfers cannot deadlock inside the database either.
	wallets := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, id := range orderedUnique([]uuid.UUID{req.SourceID, req.TargetID}) {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, asAppError(err, "lock wallet")
		}
		wallets[id] = w
	}

	source, target := wallets[req.SourceID], wallets[req.TargetID]
	if source == nil {
		return nil, apperror.ErrNotFound("source wallet")
	}
	if target == nil {
		return nil, apperror.ErrNotFound("target wallet")
	}

	mut, err := source.TransferTo(target, req.Amount, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.persistMutation(ctx, dbTx, mut, source, target); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, asAppError(err, "commit tx")
	}

	s.invalidateCache(ctx, req.SourceID, req.TargetID)
	s.publish(ctx, mut.Events)

	s.log.Info().
		Str("source_id", source.ID.String()).
		Str("target_id", target.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("transfer completed")

	return &ports.TransferResult{
		Source:       source,
		Target:       target,
		Transactions: mut.Entries,
		Events:       mut.Events,
	}, nil
}

// Suspend pauses a wallet.
func (s *WalletServiceImpl) Suspend(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	return s.transition(ctx, walletID, "suspend", (*domain.Wallet).Suspend)
}

// Activate resumes a wallet.
func (s *WalletServiceImpl) Activate(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	return s.transition(ctx, walletID, "activate", (*domain.Wallet).Activate)
}

// Close terminally closes a wallet; legal only at zero balance.
func (s *WalletServiceImpl) Close(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	return s.transition(ctx, walletID, "close", (*domain.Wallet).Close)
}

// transition runs a status change as one atomic unit.
func (s *WalletServiceImpl) transition(
	ctx context.Context,
	walletID uuid.UUID,
	op string,
	apply func(w *domain.Wallet) (domain.Event, error),
) (*domain.Wallet, error) {
	release, err := s.acquireLocks(ctx, walletID)
	if err != nil {
		return nil, err
	}
	defer release()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, walletID)
	if err != nil {
		return nil, asAppError(err, "lock wallet")
	}
	if w == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	event, err := apply(w)
	if err != nil {
		return nil, err
	}

	if err := s.walletRepo.Update(ctx, dbTx, w); err != nil {
		return nil, asAppError(err, "update wallet")
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, asAppError(err, "commit tx")
	}

	s.invalidateCache(ctx, walletID)
	s.publish(ctx, []domain.Event{event})

	s.log.Info().
		Str("op", op).
		Str("wallet_id", w.ID.String()).
		Str("status", string(w.Status)).
		Msg("wallet status changed")

	return w, nil
}

// GetWallet fetches a wallet by id, via the read cache when available.
func (s *WalletServiceImpl) GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, walletID); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("wallet cache read failed")
		} else if cached != nil {
			w := &domain.Wallet{}
			if err := json.Unmarshal(cached, w); err == nil {
				return w, nil
			}
		}
	}

	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, asAppError(err, "get wallet")
	}
	if w == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	if s.cache != nil {
		if data, err := json.Marshal(w); err == nil {
			if err := s.cache.Set(ctx, walletID, data, walletCacheTTL); err != nil {
				s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("wallet cache write failed")
			}
		}
	}
	return w, nil
}

// GetWalletByOwner fetches a wallet by its owner id.
func (s *WalletServiceImpl) GetWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, asAppError(err, "get wallet by owner")
	}
	if w == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return w, nil
}

// BalanceAt answers "what was the balance at or before t". A future t
// yields the current balance; so does a t predating all recorded history.
func (s *WalletServiceImpl) BalanceAt(ctx context.Context, walletID uuid.UUID, t time.Time) (domain.Money, error) {
	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return domain.Money{}, asAppError(err, "get wallet")
	}
	if w == nil {
		return domain.Money{}, apperror.ErrNotFound("wallet")
	}

	if t.After(time.Now().UTC()) {
		return w.Balance, nil
	}

	h, err := s.historyRepo.LatestBefore(ctx, walletID, t)
	if err != nil {
		return domain.Money{}, asAppError(err, "query balance history")
	}
	if h == nil {
		return w.Balance, nil
	}
	return h.Balance, nil
}

// History lists balance snapshots, most-recent-first.
func (s *WalletServiceImpl) History(ctx context.Context, params ports.HistoryListParams) ([]domain.BalanceHistory, int64, error) {
	if err := s.requireWallet(ctx, params.WalletID); err != nil {
		return nil, 0, err
	}
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)

	rows, total, err := s.historyRepo.List(ctx, params)
	if err != nil {
		return nil, 0, asAppError(err, "list balance history")
	}
	return rows, total, nil
}

// ListTransactions lists ledger entries, most-recent-first.
func (s *WalletServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if err := s.requireWallet(ctx, params.WalletID); err != nil {
		return nil, 0, err
	}
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)

	rows, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, asAppError(err, "list transactions")
	}
	return rows, total, nil
}

// persistMutation writes the wallet(s), ledger entries and history rows of
// one mutation inside dbTx. Entry/row ids are assigned by the store.
func (s *WalletServiceImpl) persistMutation(ctx context.Context, dbTx pgx.Tx, mut *domain.Mutation, wallets ...*domain.Wallet) error {
	for _, w := range wallets {
		if err := s.walletRepo.Update(ctx, dbTx, w); err != nil {
			return asAppError(err, "update wallet")
		}
	}
	for _, entry := range mut.Entries {
		if err := s.txRepo.Create(ctx, dbTx, entry); err != nil {
			return asAppError(err, "create transaction")
		}
	}
	for _, h := range mut.History {
		if err := s.historyRepo.Create(ctx, dbTx, h); err != nil {
			return asAppError(err, "create balance history")
		}
	}
	return nil
}

// acquireLocks takes the in-process locks with the configured deadline.
func (s *WalletServiceImpl) acquireLocks(ctx context.Context, ids ...uuid.UUID) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	return s.locks.Acquire(lockCtx, ids...)
}

// publish hands committed events to the sink. Best-effort: the publisher
// never blocks the caller and failures never surface here.
func (s *WalletServiceImpl) publish(ctx context.Context, events []domain.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	s.publisher.Publish(ctx, events)
}

func (s *WalletServiceImpl) invalidateCache(ctx context.Context, ids ...uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, ids...); err != nil {
		s.log.Warn().Err(err).Msg("wallet cache invalidation failed")
	}
}

func (s *WalletServiceImpl) requireWallet(ctx context.Context, walletID uuid.UUID) error {
	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return asAppError(err, "get wallet")
	}
	if w == nil {
		return apperror.ErrNotFound("wallet")
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// asAppError passes AppErrors through unchanged (notably the retryable
// ConcurrentModification translated by the store adapter) and wraps
// everything else as an internal error.
func asAppError(err error, op string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}
