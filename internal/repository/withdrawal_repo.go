package repository

import (
	"context"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

type WithdrawalRepository struct {
	db DBTX
}

func NewWithdrawalRepository(db DBTX) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

const withdrawalColumns = `id, payer_id, amount, payout_handle, reference, is_processed, created_at, processed_at`

func scanWithdrawal(row rowScanner) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := row.Scan(
		&w.ID,
		&w.PayerID,
		&w.Amount,
		&w.PayoutHandle,
		&w.Reference,
		&w.IsProcessed,
		&w.CreatedAt,
		&w.ProcessedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) Create(
	ctx context.Context,
	payerID int64,
	amount int64,
	payoutHandle string,
	reference string,
) (*models.WithdrawalRequest, error) {
	return scanWithdrawal(r.db.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (payer_id, amount, payout_handle, reference)
		VALUES ($1, $2, $3, $4)
		RETURNING `+withdrawalColumns, payerID, amount, payoutHandle, reference))
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	return scanWithdrawal(r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id))
}

// MarkProcessed flips is_processed once; a second call gets pgx.ErrNoRows.
func (r *WithdrawalRepository) MarkProcessed(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	return scanWithdrawal(r.db.QueryRow(ctx, `
		UPDATE withdrawal_requests
		SET is_processed = TRUE, processed_at = NOW()
		WHERE id = $1 AND is_processed = FALSE
		RETURNING `+withdrawalColumns, id))
}

// List returns requests newest first. payerID 0 means every payer.
func (r *WithdrawalRepository) List(ctx context.Context, payerID int64, pendingOnly bool, limit int) ([]models.WithdrawalRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests
		WHERE ($1::bigint = 0 OR payer_id = $1)
		  AND (NOT $2::boolean OR is_processed = FALSE)
		ORDER BY id DESC
		LIMIT $3
	`, payerID, pendingOnly, pageSize(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.WithdrawalRequest, 0)
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}
