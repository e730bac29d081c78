package services

import (
	"context"
	"fmt"
	"iter"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"go.uber.org/zap"
)

const ledgerPageSize = 100

// LedgerService owns wallet balances and their append-only transaction log.
// Every balance change writes exactly one transaction row in the same unit.
type LedgerService struct {
	store  Store
	logger *zap.Logger
}

func NewLedgerService(store Store, logger *zap.Logger) *LedgerService {
	return &LedgerService{store: store, logger: logger}
}

// OpenWallet creates the owner's wallet. Inactive or unknown owners cannot
// open one.
func (s *LedgerService) OpenWallet(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	if ownerID <= 0 {
		return nil, invalid("owner id must be positive")
	}
	var wallet *models.Wallet
	err := s.store.InTx(ctx, func(r Repos) error {
		owner, err := r.Users.GetByID(ctx, ownerID)
		if err != nil {
			if isNoRows(err) {
				return notFound("user")
			}
			return err
		}
		if !owner.IsActive {
			return ErrForbidden
		}
		wallet, err = r.Wallets.Open(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Credit adds amount to the owner's wallet in its own transaction.
func (s *LedgerService) Credit(ctx context.Context, ownerID, amount int64, description string) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := s.store.InTx(ctx, func(r Repos) error {
		var err error
		entry, err = s.credit(ctx, r, ownerID, amount, description)
		return err
	})
	return entry, err
}

// Debit removes amount from the owner's wallet, failing with
// ErrInsufficientFunds rather than going negative.
func (s *LedgerService) Debit(ctx context.Context, ownerID, amount int64, description string) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := s.store.InTx(ctx, func(r Repos) error {
		var err error
		entry, err = s.debit(ctx, r, ownerID, amount, description)
		return err
	})
	return entry, err
}

func (s *LedgerService) credit(ctx context.Context, r Repos, ownerID, amount int64, description string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, invalid("credit amount must be positive")
	}
	wallet, err := r.Wallets.Open(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := r.Wallets.ApplyDelta(ctx, wallet.ID, amount); err != nil {
		return nil, err
	}
	return r.Wallets.AppendTransaction(ctx, wallet.ID, models.TransactionCredit, amount, description)
}

func (s *LedgerService) debit(ctx context.Context, r Repos, ownerID, amount int64, description string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, invalid("debit amount must be positive")
	}
	wallet, err := r.Wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}
	if _, err := r.Wallets.ApplyDelta(ctx, wallet.ID, -amount); err != nil {
		if isNoRows(err) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}
	return r.Wallets.AppendTransaction(ctx, wallet.ID, models.TransactionDebit, amount, description)
}

func (s *LedgerService) Balance(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	wallet, err := s.store.Read().Wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("wallet")
		}
		return nil, err
	}
	return wallet, nil
}

// Transactions yields the owner's entries newest first, fetching a page at a
// time. Ranging over the sequence again starts from the newest entry.
func (s *LedgerService) Transactions(ctx context.Context, ownerID int64) iter.Seq2[models.WalletTransaction, error] {
	return s.TransactionsBefore(ctx, ownerID, 0)
}

// TransactionsBefore is Transactions starting after the entry with id beforeID.
func (s *LedgerService) TransactionsBefore(ctx context.Context, ownerID, beforeID int64) iter.Seq2[models.WalletTransaction, error] {
	return func(yield func(models.WalletTransaction, error) bool) {
		wallet, err := s.Balance(ctx, ownerID)
		if err != nil {
			yield(models.WalletTransaction{}, err)
			return
		}
		cursor := beforeID
		for {
			page, err := s.store.Read().Wallets.ListTransactions(ctx, wallet.ID, cursor, ledgerPageSize)
			if err != nil {
				yield(models.WalletTransaction{}, err)
				return
			}
			for _, entry := range page {
				if !yield(entry, nil) {
					return
				}
			}
			if len(page) < ledgerPageSize {
				return
			}
			cursor = page[len(page)-1].ID
		}
	}
}

// Reconcile compares a wallet's balance with the signed sum of its log. The
// wallet row is share-locked first; every writer updates that row before
// appending, so both reads see the same set of committed entries.
func (s *LedgerService) Reconcile(ctx context.Context, ownerID int64) (*models.Reconciliation, error) {
	var out *models.Reconciliation
	err := s.store.InTx(ctx, func(r Repos) error {
		wallet, err := r.Wallets.GetByOwnerForShare(ctx, ownerID)
		if err != nil {
			if isNoRows(err) {
				return notFound("wallet")
			}
			return err
		}
		sum, count, err := r.Wallets.SumTransactions(ctx, wallet.ID)
		if err != nil {
			return err
		}
		out = &models.Reconciliation{
			WalletID:     wallet.ID,
			Balance:      wallet.Balance,
			LedgerSum:    sum,
			EntriesCount: count,
			Consistent:   sum == wallet.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Consistent {
		s.logger.Error("wallet out of balance",
			zap.Int64("owner_id", ownerID),
			zap.Int64("balance", out.Balance),
			zap.Int64("ledger_sum", out.LedgerSum),
		)
	}
	return out, nil
}

func sessionRef(sessionID int64) string {
	return fmt.Sprintf("session #%d", sessionID)
}
