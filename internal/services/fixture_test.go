package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/notify"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic   notify.Topic
	payload []byte
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic notify.Topic, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic: topic, payload: payload})
	return p.err
}

func (p *recordingPublisher) topics() []notify.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.Topic, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.topic)
	}
	return out
}

var baseTime = time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

const (
	slotDate = "2030-01-02"
	slotTime = "10:00"
)

type fixture struct {
	store  *memStore
	pub    *recordingPublisher
	policy Policy

	clockMu sync.Mutex
	now     time.Time

	ledger      *LedgerService
	notes       *NotificationService
	sessions    *SessionService
	slots       *SlotService
	withdrawals *WithdrawalService
	prices      *PriceService
	chat        *ChatService

	operator  int64
	client    int64
	client2   int64
	therapist int64
	blocked   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	f := &fixture{
		store:  store,
		pub:    &recordingPublisher{},
		policy: DefaultPolicy(),
		now:    baseTime,
	}
	f.operator = store.addUser(models.RoleOperator, true)
	f.client = store.addUser(models.RoleClient, true)
	f.client2 = store.addUser(models.RoleClient, true)
	f.therapist = store.addUser(models.RoleTherapist, true)
	f.blocked = store.addUser(models.RoleClient, false)
	store.setPrices(models.PriceList{VideoCall: 1000, VoiceCall: 800, Message: 500})

	logger := zap.NewNop()
	f.ledger = NewLedgerService(store, logger)
	f.notes = NewNotificationService(store, f.pub, logger)
	f.sessions = NewSessionService(store, f.ledger, f.notes, f.policy, logger)
	f.sessions.SetClock(f.clock)
	f.slots = NewSlotService(store, logger)
	f.withdrawals = NewWithdrawalService(store, f.ledger, f.notes, f.policy, logger)
	f.prices = NewPriceService(store)
	f.chat = NewChatService(store)
	return f
}

func (f *fixture) clock() time.Time {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	return f.now
}

func (f *fixture) setNow(at time.Time) {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	f.now = at
}

func (f *fixture) actor(id int64) Actor {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return Actor{ID: id, Role: f.store.st.users[id].Role}
}

// openSlot adds one slot for the therapist and returns its id.
func (f *fixture) openSlot(t *testing.T, date, at string) int64 {
	t.Helper()
	slots, err := f.slots.AddSlots(context.Background(), f.actor(f.therapist), date, []string{at})
	require.NoError(t, err)
	for _, s := range slots {
		if s.Time == at {
			return s.ID
		}
	}
	t.Fatalf("slot %s %s not found after AddSlots", date, at)
	return 0
}

func (f *fixture) book(t *testing.T, clientID, slotID int64) *models.Session {
	t.Helper()
	session, err := f.sessions.Book(context.Background(), f.actor(clientID), BookSessionInput{
		TherapistID: f.therapist,
		SlotID:      slotID,
		Date:        slotDate,
		Mode:        models.ModeVideo,
	})
	require.NoError(t, err)
	return session
}

// requireReconciled checks balance == signed sum of entries for every wallet.
func (f *fixture) requireReconciled(t *testing.T) {
	t.Helper()
	for _, w := range f.store.allWallets() {
		var sum int64
		for _, e := range f.store.entries(w.OwnerID) {
			sum += e.SignedAmount()
		}
		require.Equalf(t, sum, w.Balance, "wallet of owner %d out of balance", w.OwnerID)
		require.GreaterOrEqual(t, w.Balance, int64(0))
	}
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equalf(t, kind, KindOf(err), "unexpected kind for %v", err)
}
