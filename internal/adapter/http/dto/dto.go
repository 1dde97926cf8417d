package dto

// Monetary amounts travel as decimal strings ("100.50") so no precision is
// lost in JSON number parsing.

// CreateWalletRequest is the request body for opening a wallet.
type CreateWalletRequest struct {
	OwnerID  string `json:"owner_id" binding:"required,min=1,max=100"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// MutationRequest is the request body for deposits and withdrawals.
type MutationRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Currency    string `json:"currency" binding:"required,len=3"`
	Description string `json:"description" binding:"max=255"`
}

// TransferRequest is the request body for a transfer.
type TransferRequest struct {
	TargetWalletID string `json:"target_wallet_id" binding:"required,uuid"`
	Amount         string `json:"amount" binding:"required"`
	Currency       string `json:"currency" binding:"required,len=3"`
	Description    string `json:"description" binding:"max=255"`
}

// WalletResponse is the response body for wallet state.
type WalletResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TransactionResponse is the response body for a ledger entry.
type TransactionResponse struct {
	ID                   int64   `json:"id"`
	WalletID             string  `json:"wallet_id"`
	Type                 string  `json:"type"`
	Direction            string  `json:"direction"`
	Amount               string  `json:"amount"`
	Currency             string  `json:"currency"`
	Description          string  `json:"description"`
	CounterpartyWalletID *string `json:"counterparty_wallet_id,omitempty"`
	Status               string  `json:"status"`
	OccurredAt           string  `json:"occurred_at"`
}

// MutationResponse is the response body for a deposit or withdrawal.
type MutationResponse struct {
	Wallet      WalletResponse      `json:"wallet"`
	Transaction TransactionResponse `json:"transaction"`
}

// TransferResponse is the response body for a completed transfer.
type TransferResponse struct {
	Source       WalletResponse        `json:"source"`
	Target       WalletResponse        `json:"target"`
	Transactions []TransactionResponse `json:"transactions"`
}

// BalanceAtResponse is the response body for a point-in-time balance query.
type BalanceAtResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
	At       string `json:"at"`
}

// BalanceHistoryResponse is the response body for one balance snapshot.
type BalanceHistoryResponse struct {
	ID          int64  `json:"id"`
	WalletID    string `json:"wallet_id"`
	Balance     string `json:"balance"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	RecordedAt  string `json:"recorded_at"`
}

// PagedResponse wraps a page of results with pagination metadata.
type PagedResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
