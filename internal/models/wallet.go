package models

import "time"

type Wallet struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

type WalletTransaction struct {
	ID          int64           `json:"id"`
	WalletID    int64           `json:"wallet_id"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SignedAmount is the delta this entry applied to its wallet balance.
func (t WalletTransaction) SignedAmount() int64 {
	if t.Type == TransactionDebit {
		return -t.Amount
	}
	return t.Amount
}

type Reconciliation struct {
	WalletID     int64 `json:"wallet_id"`
	Balance      int64 `json:"balance"`
	LedgerSum    int64 `json:"ledger_sum"`
	EntriesCount int64 `json:"entries_count"`
	Consistent   bool  `json:"consistent"`
}
