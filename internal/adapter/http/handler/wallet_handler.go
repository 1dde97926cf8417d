package handler

import (
	"context"
	"strconv"
	"time"

	"wallet-ledger-service/internal/adapter/http/dto"
	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"
	"wallet-ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet and ledger endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	w, err := h.walletSvc.CreateWallet(c.Request.Context(), req.OwnerID, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toWalletResponse(w))
}

// GetWallet handles GET /api/v1/wallets/:id.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	id, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	w, err := h.walletSvc.GetWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toWalletResponse(w))
}

// GetWalletByOwner handles GET /api/v1/wallets/owner/:owner_id.
func (h *WalletHandler) GetWalletByOwner(c *gin.Context) {
	w, err := h.walletSvc.GetWalletByOwner(c.Request.Context(), c.Param("owner_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toWalletResponse(w))
}

// Deposit handles POST /api/v1/wallets/:id/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	h.mutate(c, h.walletSvc.Deposit)
}

// Withdraw handles POST /api/v1/wallets/:id/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.mutate(c, h.walletSvc.Withdraw)
}

// mutate runs a deposit or withdrawal endpoint.
func (h *WalletHandler) mutate(c *gin.Context, op func(ctx context.Context, req ports.MutationRequest) (*ports.MutationResult, error)) {
	id, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.MutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, merr := domain.ParseMoney(req.Amount, req.Currency)
	if merr != nil {
		response.Error(c, merr)
		return
	}

	result, err := op(c.Request.Context(), ports.MutationRequest{
		WalletID:    id,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.MutationResponse{
		Wallet:      toWalletResponse(result.Wallet),
		Transaction: toTransactionResponse(result.Transaction),
	})
}

// Transfer handles POST /api/v1/wallets/:id/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	sourceID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	targetID, err2 := uuid.Parse(req.TargetWalletID)
	if err2 != nil {
		response.Error(c, apperror.Validation("target_wallet_id must be a UUID"))
		return
	}

	amount, merr := domain.ParseMoney(req.Amount, req.Currency)
	if merr != nil {
		response.Error(c, merr)
		return
	}

	result, err := h.walletSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SourceID:    sourceID,
		TargetID:    targetID,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.TransferResponse{
		Source: toWalletResponse(result.Source),
		Target: toWalletResponse(result.Target),
	}
	for _, entry := range result.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(entry))
	}
	response.OK(c, resp)
}

// Suspend handles POST /api/v1/wallets/:id/suspend.
func (h *WalletHandler) Suspend(c *gin.Context) {
	h.transition(c, h.walletSvc.Suspend)
}

// Activate handles POST /api/v1/wallets/:id/activate.
func (h *WalletHandler) Activate(c *gin.Context) {
	h.transition(c, h.walletSvc.Activate)
}

// Close handles POST /api/v1/wallets/:id/close.
func (h *WalletHandler) Close(c *gin.Context) {
	h.transition(c, h.walletSvc.Close)
}

// BalanceAt handles GET /api/v1/wallets/:id/balance. The optional "at" query
// parameter (RFC 3339) asks for a historical balance; absent, it reports the
// current one.
func (h *WalletHandler) BalanceAt(c *gin.Context) {
	id, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	at := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		parsed, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			response.Error(c, apperror.Validation("at must be an RFC 3339 timestamp"))
			return
		}
		at = parsed
	}

	balance, err := h.walletSvc.BalanceAt(c.Request.Context(), id, at)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceAtResponse{
		WalletID: id.String(),
		Balance:  balance.Amount.String(),
		Currency: balance.Currency,
		At:       at.Format(time.RFC3339),
	})
}

// History handles GET /api/v1/wallets/:id/history.
func (h *WalletHandler) History(c *gin.Context) {
	id, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	params := ports.HistoryListParams{WalletID: id}
	params.Page, params.PageSize = parsePaging(c)
	params.From, params.To, err = parseTimeWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	snapshots, total, err := h.walletSvc.History(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.PagedResponse[dto.BalanceHistoryResponse]{
		Items:    make([]dto.BalanceHistoryResponse, 0, len(snapshots)),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for _, s := range snapshots {
		resp.Items = append(resp.Items, dto.BalanceHistoryResponse{
			ID:          s.ID,
			WalletID:    s.WalletID.String(),
			Balance:     s.Balance.Amount.String(),
			Currency:    s.Balance.Currency,
			Description: s.Description,
			RecordedAt:  s.RecordedAt.Format(time.RFC3339),
		})
	}
	response.OK(c, resp)
}

// ListTransactions handles GET /api/v1/wallets/:id/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	id, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	params := ports.TransactionListParams{WalletID: id}
	params.Page, params.PageSize = parsePaging(c)
	params.From, params.To, err = parseTimeWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if raw := c.Query("type"); raw != "" {
		txType := domain.TransactionType(raw)
		switch txType {
		case domain.TransactionTypeDeposit, domain.TransactionTypeWithdraw, domain.TransactionTypeTransfer:
			params.Type = &txType
		default:
			response.Error(c, apperror.Validation("type must be DEPOSIT, WITHDRAW or TRANSFER"))
			return
		}
	}

	entries, total, err := h.walletSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.PagedResponse[dto.TransactionResponse]{
		Items:    make([]dto.TransactionResponse, 0, len(entries)),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for i := range entries {
		resp.Items = append(resp.Items, toTransactionResponse(&entries[i]))
	}
	response.OK(c, resp)
}

// transition runs a status change endpoint.
func (h *WalletHandler) transition(c *gin.Context, op func(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)) {
	id, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	w, err := op(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toWalletResponse(w))
}

func parseWalletID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("wallet id must be a UUID")
	}
	return id, nil
}

func parsePaging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

func parseTimeWindow(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, apperror.Validation("from must be an RFC 3339 timestamp")
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, apperror.Validation("to must be an RFC 3339 timestamp")
		}
		to = &t
	}
	return from, to, nil
}

// toWalletResponse converts domain.Wallet to DTO.
func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:        w.ID.String(),
		OwnerID:   w.OwnerID,
		Balance:   w.Balance.Amount.String(),
		Currency:  w.Balance.Currency,
		Status:    string(w.Status),
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:          t.ID,
		WalletID:    t.WalletID.String(),
		Type:        string(t.Type),
		Direction:   string(t.Direction),
		Amount:      t.Amount.Amount.String(),
		Currency:    t.Amount.Currency,
		Description: t.Description,
		Status:      string(t.Status),
		OccurredAt:  t.OccurredAt.Format(time.RFC3339),
	}
	if t.CounterpartyWalletID != nil {
		s := t.CounterpartyWalletID.String()
		resp.CounterpartyWalletID = &s
	}
	return resp
}
