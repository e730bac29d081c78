package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type WithdrawalService struct {
	store  Store
	ledger *LedgerService
	notes  *NotificationService
	policy Policy
	logger *zap.Logger
}

func NewWithdrawalService(
	store Store,
	ledger *LedgerService,
	notes *NotificationService,
	policy Policy,
	logger *zap.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		store:  store,
		ledger: ledger,
		notes:  notes,
		policy: policy,
		logger: logger,
	}
}

// Request files a payout for operator approval. The wallet is only checked
// here; money moves when the request is processed.
func (s *WithdrawalService) Request(ctx context.Context, actor Actor, amount int64, payoutHandle string) (*models.WithdrawalRequest, error) {
	if actor.Role == models.RoleOperator {
		return nil, ErrForbidden
	}
	if amount < s.policy.MinWithdrawal {
		return nil, invalid("minimum withdrawal is %d", s.policy.MinWithdrawal)
	}
	payoutHandle = strings.TrimSpace(payoutHandle)
	if payoutHandle == "" {
		return nil, invalid("payout handle is required")
	}

	var (
		request *models.WithdrawalRequest
		box     outbox
	)
	err := s.store.InTx(ctx, func(r Repos) error {
		box = outbox{}
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		wallet, err := r.Wallets.GetByOwner(ctx, actor.ID)
		if err != nil {
			if isNoRows(err) {
				return ErrInsufficientFunds
			}
			return err
		}
		if wallet.Balance < amount {
			return ErrInsufficientFunds
		}
		request, err = r.Withdrawals.Create(ctx, actor.ID, amount, payoutHandle, ulid.Make().String())
		if err != nil {
			return err
		}
		operator, err := r.Users.GetOperator(ctx)
		if err != nil {
			if isNoRows(err) {
				return nil
			}
			return err
		}
		return s.notes.record(ctx, r, &box, Event{
			Kind:        models.KindInfo,
			Audience:    models.AudienceOperator,
			RecipientID: operator.ID,
			Title:       "Withdrawal requested",
			Message:     fmt.Sprintf("User #%d requested a withdrawal of %d (%s).", actor.ID, amount, request.Reference),
			Link:        "/admin/withdrawals",
		})
	})
	if err != nil {
		return nil, err
	}
	s.notes.push(&box)
	return request, nil
}

// Process pays out a pending request. The processed flag and the wallet debit
// commit together; a second call fails with ErrAlreadyProcessed.
func (s *WithdrawalService) Process(ctx context.Context, actor Actor, requestID int64) (*models.WithdrawalRequest, error) {
	if actor.Role != models.RoleOperator {
		return nil, ErrForbidden
	}

	var (
		request *models.WithdrawalRequest
		box     outbox
	)
	err := s.store.InTx(ctx, func(r Repos) error {
		box = outbox{}
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		var err error
		request, err = r.Withdrawals.MarkProcessed(ctx, requestID)
		if err != nil {
			if !isNoRows(err) {
				return err
			}
			if _, err := r.Withdrawals.GetByID(ctx, requestID); err != nil {
				if isNoRows(err) {
					return notFound("withdrawal")
				}
				return err
			}
			return ErrAlreadyProcessed
		}
		if _, err := s.ledger.debit(ctx, r, request.PayerID, request.Amount, "Withdrawal "+request.Reference); err != nil {
			return err
		}
		audience, err := payerAudience(ctx, r, request.PayerID)
		if err != nil {
			return err
		}
		return s.notes.record(ctx, r, &box, Event{
			Kind:        models.KindSuccess,
			Audience:    audience,
			RecipientID: request.PayerID,
			Title:       "Withdrawal processed",
			Message:     fmt.Sprintf("Your withdrawal of %d has been sent to %s.", request.Amount, request.PayoutHandle),
			Link:        "/wallet",
		})
	})
	if err != nil {
		return nil, err
	}
	s.notes.push(&box)
	s.logger.Info("withdrawal processed",
		zap.Int64("withdrawal_id", request.ID),
		zap.Int64("payer_id", request.PayerID),
		zap.Int64("amount", request.Amount),
	)
	return request, nil
}

// List shows operators every request and everyone else their own.
func (s *WithdrawalService) List(ctx context.Context, actor Actor, pendingOnly bool, limit int) ([]models.WithdrawalRequest, error) {
	if err := requireActive(ctx, s.store.Read().Users, actor); err != nil {
		return nil, err
	}
	payerID := actor.ID
	if actor.Role == models.RoleOperator {
		payerID = 0
	}
	return s.store.Read().Withdrawals.List(ctx, payerID, pendingOnly, limit)
}

func payerAudience(ctx context.Context, r Repos, payerID int64) (models.Audience, error) {
	user, err := r.Users.GetByID(ctx, payerID)
	if err != nil {
		return "", fmt.Errorf("load payer %d: %w", payerID, err)
	}
	return user.Role.Audience(), nil
}
