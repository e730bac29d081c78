package models

import "time"

type WithdrawalRequest struct {
	ID           int64      `json:"id"`
	PayerID      int64      `json:"payer_id"`
	Amount       int64      `json:"amount"`
	PayoutHandle string     `json:"payout_handle"`
	Reference    string     `json:"reference"`
	IsProcessed  bool       `json:"is_processed"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at"`
}
