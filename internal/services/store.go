package services

import (
	"context"
	"errors"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetOperator(ctx context.Context) (*models.User, error)
}

type SlotStore interface {
	UpsertDate(ctx context.Context, therapistID int64, date string) (int64, error)
	AddTime(ctx context.Context, dateID int64, timeOfDay string) (bool, error)
	ListByDate(ctx context.Context, dateID int64) ([]models.Slot, error)
	GetByID(ctx context.Context, slotID int64) (*models.Slot, error)
	GetByIDForUpdate(ctx context.Context, slotID int64) (*models.Slot, error)
	DeleteUnbooked(ctx context.Context, slotID int64) (bool, error)
	DeleteDateIfEmpty(ctx context.Context, dateID int64) error
	Reserve(ctx context.Context, slotID int64, date string, therapistID int64) (*models.Slot, error)
	ListAvailable(ctx context.Context, therapistID int64, fromDate string, after *repository.SlotCursor, limit int) ([]models.Slot, error)
}

type SessionStore interface {
	Create(ctx context.Context, input repository.CreateSessionInput) (*models.Session, error)
	GetByID(ctx context.Context, sessionID int64) (*models.Session, error)
	GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.Session, error)
	HasPriorSession(ctx context.Context, clientID, therapistID int64) (bool, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
	ListDueIDs(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]int64, error)
	TransitionIfScheduled(ctx context.Context, sessionID int64, next models.SessionStatus) (*models.Session, error)
	CancelIfScheduled(ctx context.Context, sessionID int64, reason string, by models.Party) (*models.Session, error)
	MarkAttendance(ctx context.Context, sessionID int64, party models.Party) (*models.Session, error)
	SetFeedback(ctx context.Context, sessionID int64, feedback string, rating int) (*models.Session, error)
	RatingSummary(ctx context.Context, therapistID int64) (*models.RatingSummary, error)
}

type WalletStore interface {
	Open(ctx context.Context, ownerID int64) (*models.Wallet, error)
	GetByOwner(ctx context.Context, ownerID int64) (*models.Wallet, error)
	GetByOwnerForShare(ctx context.Context, ownerID int64) (*models.Wallet, error)
	ApplyDelta(ctx context.Context, walletID int64, delta int64) (*models.Wallet, error)
	AppendTransaction(ctx context.Context, walletID int64, txType models.TransactionType, amount int64, description string) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, walletID int64, beforeID int64, limit int) ([]models.WalletTransaction, error)
	SumTransactions(ctx context.Context, walletID int64) (int64, int64, error)
}

type WithdrawalStore interface {
	Create(ctx context.Context, payerID int64, amount int64, payoutHandle string, reference string) (*models.WithdrawalRequest, error)
	GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error)
	MarkProcessed(ctx context.Context, id int64) (*models.WithdrawalRequest, error)
	List(ctx context.Context, payerID int64, pendingOnly bool, limit int) ([]models.WithdrawalRequest, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) (*models.Notification, error)
	List(ctx context.Context, audience models.Audience, recipientID int64, beforeID int64, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int64, audience models.Audience, recipientID int64) (bool, error)
	MarkAllRead(ctx context.Context, audience models.Audience, recipientID int64) (int64, error)
	UnreadCount(ctx context.Context, audience models.Audience, recipientID int64) (int64, error)
}

type PriceStore interface {
	Get(ctx context.Context) (*models.PriceList, error)
	Set(ctx context.Context, p models.PriceList) (*models.PriceList, error)
}

type ChatStore interface {
	OpenConversation(ctx context.Context, clientID, therapistID int64) (*models.Conversation, error)
	ConversationForParticipant(ctx context.Context, conversationID, participantID int64) (*models.Conversation, error)
	ConversationsForParticipant(ctx context.Context, participantID int64) ([]models.ConversationSummary, error)
	AppendMessage(ctx context.Context, conversationID, senderID int64, content string) (*models.ChatMessage, error)
	Messages(ctx context.Context, conversationID int64, limit, offset int) ([]models.ChatMessage, int, error)
	MarkRead(ctx context.Context, conversationID, readerID int64) (int64, error)
}

// Repos is one set of repositories bound to the same connection or transaction.
type Repos struct {
	Users         UserStore
	Slots         SlotStore
	Sessions      SessionStore
	Wallets       WalletStore
	Withdrawals   WithdrawalStore
	Notifications NotificationStore
	Prices        PriceStore
	Chat          ChatStore
}

// Store hands out repositories. InTx runs fn inside one transaction that is
// committed only when fn returns nil.
type Store interface {
	Read() Repos
	InTx(ctx context.Context, fn func(Repos) error) error
}

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func reposFor(db repository.DBTX) Repos {
	return Repos{
		Users:         repository.NewUserRepository(db),
		Slots:         repository.NewSlotRepository(db),
		Sessions:      repository.NewSessionRepository(db),
		Wallets:       repository.NewWalletRepository(db),
		Withdrawals:   repository.NewWithdrawalRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Prices:        repository.NewPriceRepository(db),
		Chat:          repository.NewChatRepository(db),
	}
}

func (s *PgStore) Read() Repos {
	return reposFor(s.pool)
}

func (s *PgStore) InTx(ctx context.Context, fn func(Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(reposFor(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
