package service

import (
	"context"
	"testing"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/internal/core/ports/mocks"
	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type walletTestDeps struct {
	svc         *WalletServiceImpl
	walletRepo  *mocks.MockWalletRepository
	txRepo      *mocks.MockTransactionRepository
	historyRepo *mocks.MockBalanceHistoryRepository
	transactor  *mocks.MockDBTransactor
	publisher   *mocks.MockEventPublisher
	ctrl        *gomock.Controller
}

func setupWalletService(t *testing.T) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		walletRepo:  mocks.NewMockWalletRepository(ctrl),
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		historyRepo: mocks.NewMockBalanceHistoryRepository(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		publisher:   mocks.NewMockEventPublisher(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewWalletService(
		d.walletRepo, d.txRepo, d.historyRepo, d.transactor,
		NewLockGuard(), nil, d.publisher, time.Second, zerolog.Nop(),
	)
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func brl(s string) domain.Money {
	return domain.Money{Amount: decimal.RequireFromString(s), Currency: "BRL"}
}

func activeWallet(balance string) *domain.Wallet {
	now := time.Now().UTC()
	return &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   "user-" + uuid.NewString()[:8],
		Balance:   brl(balance),
		Status:    domain.WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ==================== CreateWallet Tests ====================

func TestWalletService_CreateWallet_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}

	d.walletRepo.EXPECT().ExistsByOwner(ctx, "user-1").Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any())

	w, err := d.svc.CreateWallet(ctx, "user-1", "BRL")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "user-1", w.OwnerID)
	assert.Equal(t, domain.WalletStatusActive, w.Status)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, "BRL", w.Balance.Currency)
}

func TestWalletService_CreateWallet_DuplicateOwner(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.walletRepo.EXPECT().ExistsByOwner(ctx, "user-1").Return(true, nil)

	w, err := d.svc.CreateWallet(ctx, "user-1", "BRL")
	assert.Nil(t, w)
	assertAppError(t, err, apperror.CodeAlreadyExists)
}

func TestWalletService_CreateWallet_InvalidCurrency(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	w, err := d.svc.CreateWallet(context.Background(), "user-1", "reais")
	assert.Nil(t, w)
	assertAppError(t, err, apperror.CodeInvalidArgument)
}

// ==================== Deposit / Withdraw Tests ====================

func TestWalletService_Deposit_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet("100")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)
	d.walletRepo.EXPECT().Update(ctx, tx, w).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, entry *domain.Transaction) error {
			entry.ID = 41
			return nil
		})
	d.historyRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any())

	result, err := d.svc.Deposit(ctx, ports.MutationRequest{
		WalletID:    w.ID,
		Amount:      brl("50.25"),
		Description: "salary",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Wallet.Balance.Equal(brl("150.25")))
	assert.Equal(t, int64(41), result.Transaction.ID)
	assert.Equal(t, domain.TransactionTypeDeposit, result.Transaction.Type)
	assert.Equal(t, domain.DirectionCredit, result.Transaction.Direction)
}

func TestWalletService_Deposit_WalletNotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	id := uuid.New()

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, id).Return(nil, nil)

	result, err := d.svc.Deposit(ctx, ports.MutationRequest{WalletID: id, Amount: brl("10")})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeNotFound)
}

func TestWalletService_Deposit_NonPositiveAmount(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet("100")

	// Validation fails inside the transaction; nothing is persisted.
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)

	result, err := d.svc.Deposit(ctx, ports.MutationRequest{WalletID: w.ID, Amount: brl("0")})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeInvalidArgument)
	assert.True(t, w.Balance.Equal(brl("100")))
}

func TestWalletService_Withdraw_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet("100.50")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)
	d.walletRepo.EXPECT().Update(ctx, tx, w).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.historyRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any())

	result, err := d.svc.Withdraw(ctx, ports.MutationRequest{
		WalletID:    w.ID,
		Amount:      brl("30.25"),
		Description: "groceries",
	})
	require.NoError(t, err)
	assert.True(t, result.Wallet.Balance.Equal(brl("70.25")))
	assert.Equal(t, domain.DirectionDebit, result.Transaction.Direction)
}

func TestWalletService_Withdraw_InsufficientFunds(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet("10")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)

	result, err := d.svc.Withdraw(ctx, ports.MutationRequest{WalletID: w.ID, Amount: brl("10.01")})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeInsufficientFunds)
	assert.True(t, w.Balance.Equal(brl("10")))
}

func TestWalletService_Withdraw_SuspendedWallet(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet("100")
	w.Status = domain.WalletStatusSuspended

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)

	result, err := d.svc.Withdraw(ctx, ports.MutationRequest{WalletID: w.ID, Amount: brl("10")})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeInvalidState)
}

// ==================== Transfer Tests ====================

func TestWalletService_Transfer_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	source := activeWallet("70.25")
	target := activeWallet("0")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, source.ID).Return(source, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, target.ID).Return(target, nil)
	d.walletRepo.EXPECT().Update(ctx, tx, source).Return(nil)
	d.walletRepo.EXPECT().Update(ctx, tx, target).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil).Times(2)
	d.historyRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil).Times(2)
	d.publisher.EXPECT().Publish(ctx, gomock.Any())

	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceID:    source.ID,
		TargetID:    target.ID,
		Amount:      brl("70.25"),
		Description: "settling up",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Source.Balance.IsZero())
	assert.True(t, result.Target.Balance.Equal(brl("70.25")))
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, domain.DirectionDebit, result.Transactions[0].Direction)
	assert.Equal(t, domain.DirectionCredit, result.Transactions[1].Direction)
}

func TestWalletService_Transfer_SelfTransfer(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	id := uuid.New()
	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		SourceID: id, TargetID: id, Amount: brl("10"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeSelfTransfer)
}

func TestWalletService_Transfer_TargetNotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	source := activeWallet("100")
	targetID := uuid.New()

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, source.ID).Return(source, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, targetID).Return(nil, nil)

	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceID: source.ID, TargetID: targetID, Amount: brl("10"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeNotFound)
	assert.True(t, source.Balance.Equal(brl("100")))
}

func TestWalletService_Transfer_CurrencyMismatch(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	source := activeWallet("100")
	target := activeWallet("0")
	target.Balance = domain.Money{Amount: decimal.Zero, Currency: "USD"}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, source.ID).Return(source, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, target.ID).Return(target, nil)

	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceID: source.ID, TargetID: target.ID, Amount: brl("10"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeCurrencyMismatch)
}

func TestWalletService_Transfer_LockedWalletReturnsBusy(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	source := activeWallet("100")
	target := activeWallet("0")

	// Another operation holds the source lock for longer than the service
	// lock timeout.
	svc := NewWalletService(
		d.walletRepo, d.txRepo, d.historyRepo, d.transactor,
		d.svc.locks, nil, d.publisher, 30*time.Millisecond, zerolog.Nop(),
	)
	release, err := d.svc.locks.Acquire(context.Background(), source.ID)
	require.NoError(t, err)
	defer release()

	result, err := svc.Transfer(context.Background(), ports.TransferRequest{
		SourceID: source.ID, TargetID: target.ID, Amount: brl("10"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeBusy)
	assert.True(t, apperror.IsRetryable(err))
}

// ==================== Status Transition Tests ====================

func TestWalletService_SuspendAndActivate(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet("50")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil).Times(2)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil).Times(2)
	d.walletRepo.EXPECT().Update(ctx, tx, w).Return(nil).Times(2)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Times(2)

	suspended, err := d.svc.Suspend(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletStatusSuspended, suspended.Status)

	activated, err := d.svc.Activate(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletStatusActive, activated.Status)
}

func TestWalletService_Close_NonZeroBalance(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet("0.01")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)

	result, err := d.svc.Close(ctx, w.ID)
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeInvalidState)
	assert.Equal(t, domain.WalletStatusActive, w.Status)
}

func TestWalletService_Close_ZeroBalance(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet("0")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)
	d.walletRepo.EXPECT().Update(ctx, tx, w).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any())

	closed, err := d.svc.Close(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletStatusClosed, closed.Status)
}

// ==================== BalanceAt Tests ====================

func TestWalletService_BalanceAt_UsesLatestSnapshot(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := activeWallet("200")
	at := time.Now().UTC().Add(-time.Hour)

	d.walletRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.historyRepo.EXPECT().LatestBefore(ctx, w.ID, at).Return(&domain.BalanceHistory{
		ID:         7,
		WalletID:   w.ID,
		Balance:    brl("120.75"),
		RecordedAt: at.Add(-time.Minute),
	}, nil)

	balance, err := d.svc.BalanceAt(ctx, w.ID, at)
	require.NoError(t, err)
	assert.True(t, balance.Equal(brl("120.75")))
}

func TestWalletService_BalanceAt_FutureTimeYieldsCurrentBalance(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := activeWallet("200")

	d.walletRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)

	balance, err := d.svc.BalanceAt(ctx, w.ID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, balance.Equal(brl("200")))
}

func TestWalletService_BalanceAt_NoHistoryYieldsCurrentBalance(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := activeWallet("200")
	at := time.Now().UTC().Add(-time.Hour)

	d.walletRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.historyRepo.EXPECT().LatestBefore(ctx, w.ID, at).Return(nil, nil)

	balance, err := d.svc.BalanceAt(ctx, w.ID, at)
	require.NoError(t, err)
	assert.True(t, balance.Equal(brl("200")))
}

func TestWalletService_BalanceAt_WalletNotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	d.walletRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	_, err := d.svc.BalanceAt(ctx, id, time.Now())
	assertAppError(t, err, apperror.CodeNotFound)
}

// ==================== Listing Tests ====================

func TestWalletService_ListTransactions_NormalizesPaging(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := activeWallet("100")

	d.walletRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.txRepo.EXPECT().List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, defaultPageSize, params.PageSize)
			return []domain.Transaction{}, 0, nil
		})

	_, _, err := d.svc.ListTransactions(ctx, ports.TransactionListParams{WalletID: w.ID, Page: 0, PageSize: -5})
	require.NoError(t, err)
}

func TestWalletService_History_UnknownWallet(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	d.walletRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	_, _, err := d.svc.History(ctx, ports.HistoryListParams{WalletID: id})
	assertAppError(t, err, apperror.CodeNotFound)
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
