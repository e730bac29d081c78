package repository

import (
	"context"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

type WalletRepository struct {
	db DBTX
}

func NewWalletRepository(db DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var w models.Wallet
	if err := row.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// Open creates the owner's wallet or returns the existing one.
func (r *WalletRepository) Open(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, `
		INSERT INTO wallets (owner_id)
		VALUES ($1)
		ON CONFLICT (owner_id) DO UPDATE SET owner_id = EXCLUDED.owner_id
		RETURNING id, owner_id, balance, created_at, updated_at
	`, ownerID))
}

func (r *WalletRepository) GetByOwner(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, `
		SELECT id, owner_id, balance, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1
	`, ownerID))
}

// GetByOwnerForShare reads the wallet and holds a share lock on it until the
// transaction ends, so no balance change can commit in between.
func (r *WalletRepository) GetByOwnerForShare(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, `
		SELECT id, owner_id, balance, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1
		FOR SHARE
	`, ownerID))
}

// ApplyDelta adds delta to the balance unless the result would be negative,
// in which case pgx.ErrNoRows is returned and nothing changes.
func (r *WalletRepository) ApplyDelta(ctx context.Context, walletID int64, delta int64) (*models.Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING id, owner_id, balance, created_at, updated_at
	`, walletID, delta))
}

func (r *WalletRepository) AppendTransaction(
	ctx context.Context,
	walletID int64,
	txType models.TransactionType,
	amount int64,
	description string,
) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := r.db.QueryRow(ctx, `
		INSERT INTO wallet_transactions (wallet_id, type, amount, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, wallet_id, type, amount, description, created_at
	`, walletID, txType, amount, description).Scan(
		&t.ID,
		&t.WalletID,
		&t.Type,
		&t.Amount,
		&t.Description,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransactions returns the page of entries older than beforeID, newest
// first. A zero beforeID starts from the latest entry.
func (r *WalletRepository) ListTransactions(
	ctx context.Context,
	walletID int64,
	beforeID int64,
	limit int,
) ([]models.WalletTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, wallet_id, type, amount, description, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1 AND ($2::bigint = 0 OR id < $2)
		ORDER BY id DESC
		LIMIT $3
	`, walletID, beforeID, pageSize(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.WalletTransaction, 0)
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumTransactions returns the signed sum and count of a wallet's log.
func (r *WalletRepository) SumTransactions(ctx context.Context, walletID int64) (int64, int64, error) {
	var sum, count int64
	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'CREDIT' THEN amount ELSE -amount END), 0)::bigint,
			COUNT(*)
		FROM wallet_transactions
		WHERE wallet_id = $1
	`, walletID).Scan(&sum, &count)
	return sum, count, err
}
