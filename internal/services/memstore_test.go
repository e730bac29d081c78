package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/repository"
	"github.com/jackc/pgx/v5"
)

// memStore is an in-memory Store. Transactions are serialized and rolled back
// by restoring a snapshot, which gives the same all-or-nothing behaviour the
// services rely on from Postgres. Because of the serialization, row-level
// races are only exercised by the Postgres integration tests.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *memState

	// failNext makes the next call of the named operation return the error.
	failNext map[string]error
}

type memDate struct {
	id          int64
	therapistID int64
	date        string
}

type memTime struct {
	id       int64
	dateID   int64
	time     string
	isBooked bool
}

type memState struct {
	seq           int64
	users         map[int64]models.User
	dates         map[int64]memDate
	times         map[int64]memTime
	sessions      map[int64]models.Session
	wallets       map[int64]models.Wallet
	txns          []models.WalletTransaction
	withdrawals   map[int64]models.WithdrawalRequest
	notes         []models.Notification
	prices        models.PriceList
	conversations map[int64]models.Conversation
	messages      []models.ChatMessage
}

func newMemStore() *memStore {
	return &memStore{
		st: &memState{
			users:         map[int64]models.User{},
			dates:         map[int64]memDate{},
			times:         map[int64]memTime{},
			sessions:      map[int64]models.Session{},
			wallets:       map[int64]models.Wallet{},
			withdrawals:   map[int64]models.WithdrawalRequest{},
			conversations: map[int64]models.Conversation{},
		},
		failNext: map[string]error{},
	}
}

func (st *memState) clone() *memState {
	out := *st
	out.users = cloneMap(st.users)
	out.dates = cloneMap(st.dates)
	out.times = cloneMap(st.times)
	out.sessions = cloneMap(st.sessions)
	out.wallets = cloneMap(st.wallets)
	out.withdrawals = cloneMap(st.withdrawals)
	out.conversations = cloneMap(st.conversations)
	out.txns = append([]models.WalletTransaction(nil), st.txns...)
	out.notes = append([]models.Notification(nil), st.notes...)
	out.messages = append([]models.ChatMessage(nil), st.messages...)
	return &out
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (st *memState) nextID() int64 {
	st.seq++
	return st.seq
}

func (m *memStore) repos() Repos {
	return Repos{
		Users:         memUsers{m},
		Slots:         memSlots{m},
		Sessions:      memSessions{m},
		Wallets:       memWallets{m},
		Withdrawals:   memWithdrawals{m},
		Notifications: memNotifications{m},
		Prices:        memPrices{m},
		Chat:          memChat{m},
	}
}

func (m *memStore) Read() Repos {
	return m.repos()
}

func (m *memStore) InTx(ctx context.Context, fn func(Repos) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.st.clone()
	m.mu.Unlock()

	if err := fn(m.repos()); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// lock takes the data lock and returns the injected failure for op, if any.
func (m *memStore) lock(op string) error {
	m.mu.Lock()
	if err, ok := m.failNext[op]; ok {
		delete(m.failNext, op)
		return err
	}
	return nil
}

func (m *memStore) failOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[op] = err
}

// seeding helpers

func (m *memStore) addUser(role models.Role, active bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.st.nextID()
	m.st.users[id] = models.User{ID: id, Email: string(role) + "@example.com", Role: role, IsActive: active}
	return id
}

func (m *memStore) setActive(id int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.st.users[id]
	u.IsActive = active
	m.st.users[id] = u
}

func (m *memStore) removeUser(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.st.users, id)
}

func (m *memStore) setPrices(p models.PriceList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.prices = p
}

func (m *memStore) session(id int64) models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.sessions[id]
}

func (m *memStore) sessionsForSlot(slotID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.st.sessions {
		if s.SlotID == slotID {
			n++
		}
	}
	return n
}

func (m *memStore) slotBooked(slotID int64) (booked, exists bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.st.times[slotID]
	return t.isBooked, ok
}

func (m *memStore) dateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.dates)
}

func (m *memStore) balance(ownerID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.st.wallets {
		if w.OwnerID == ownerID {
			return w.Balance
		}
	}
	return 0
}

func (m *memStore) entries(ownerID int64) []models.WalletTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WalletTransaction
	for _, w := range m.st.wallets {
		if w.OwnerID != ownerID {
			continue
		}
		for _, t := range m.st.txns {
			if t.WalletID == w.ID {
				out = append(out, t)
			}
		}
	}
	return out
}

func (m *memStore) allWallets() []models.Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Wallet, 0, len(m.st.wallets))
	for _, w := range m.st.wallets {
		out = append(out, w)
	}
	return out
}

func (m *memStore) notifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.st.notes...)
}

func (m *memStore) setStartsAt(sessionID int64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.st.sessions[sessionID]
	s.StartsAt = at
	m.st.sessions[sessionID] = s
}

// users

type memUsers struct{ m *memStore }

func (r memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if err := r.m.lock("users.get"); err != nil {
		r.m.mu.Unlock()
		return nil, err
	}
	defer r.m.mu.Unlock()
	u, ok := r.m.st.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r memUsers) GetOperator(ctx context.Context) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var best *models.User
	for _, u := range r.m.st.users {
		if u.Role != models.RoleOperator || !u.IsActive {
			continue
		}
		if best == nil || u.ID < best.ID {
			u := u
			best = &u
		}
	}
	if best == nil {
		return nil, pgx.ErrNoRows
	}
	return best, nil
}

// slots

type memSlots struct{ m *memStore }

func (r memSlots) slot(t memTime) models.Slot {
	d := r.m.st.dates[t.dateID]
	return models.Slot{ID: t.id, DateID: t.dateID, TherapistID: d.therapistID, Date: d.date, Time: t.time, IsBooked: t.isBooked}
}

func (r memSlots) UpsertDate(ctx context.Context, therapistID int64, date string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, d := range r.m.st.dates {
		if d.therapistID == therapistID && d.date == date {
			return d.id, nil
		}
	}
	id := r.m.st.nextID()
	r.m.st.dates[id] = memDate{id: id, therapistID: therapistID, date: date}
	return id, nil
}

func (r memSlots) AddTime(ctx context.Context, dateID int64, timeOfDay string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.st.times {
		if t.dateID == dateID && t.time == timeOfDay {
			return false, nil
		}
	}
	id := r.m.st.nextID()
	r.m.st.times[id] = memTime{id: id, dateID: dateID, time: timeOfDay}
	return true, nil
}

func (r memSlots) sorted(keep func(models.Slot) bool) []models.Slot {
	out := make([]models.Slot, 0)
	for _, t := range r.m.st.times {
		s := r.slot(t)
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return slotLess(out[i], out[j]) })
	return out
}

func slotLess(a, b models.Slot) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.ID < b.ID
}

func (r memSlots) ListByDate(ctx context.Context, dateID int64) ([]models.Slot, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.sorted(func(s models.Slot) bool { return s.DateID == dateID }), nil
}

func (r memSlots) GetByID(ctx context.Context, slotID int64) (*models.Slot, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.st.times[slotID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	s := r.slot(t)
	return &s, nil
}

func (r memSlots) GetByIDForUpdate(ctx context.Context, slotID int64) (*models.Slot, error) {
	return r.GetByID(ctx, slotID)
}

func (r memSlots) DeleteUnbooked(ctx context.Context, slotID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.st.times[slotID]
	if !ok || t.isBooked {
		return false, nil
	}
	delete(r.m.st.times, slotID)
	return true, nil
}

func (r memSlots) DeleteDateIfEmpty(ctx context.Context, dateID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.st.times {
		if t.dateID == dateID {
			return nil
		}
	}
	delete(r.m.st.dates, dateID)
	return nil
}

func (r memSlots) Reserve(ctx context.Context, slotID int64, date string, therapistID int64) (*models.Slot, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.st.times[slotID]
	if !ok || t.isBooked {
		return nil, pgx.ErrNoRows
	}
	d := r.m.st.dates[t.dateID]
	if d.date != date || d.therapistID != therapistID {
		return nil, pgx.ErrNoRows
	}
	t.isBooked = true
	r.m.st.times[slotID] = t
	s := r.slot(t)
	return &s, nil
}

func (r memSlots) ListAvailable(
	ctx context.Context,
	therapistID int64,
	fromDate string,
	after *repository.SlotCursor,
	limit int,
) ([]models.Slot, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	all := r.sorted(func(s models.Slot) bool {
		if s.TherapistID != therapistID || s.Date < fromDate || s.IsBooked {
			return false
		}
		if after != nil {
			return slotLess(models.Slot{Date: after.Date, Time: after.Time, ID: after.ID}, s)
		}
		return true
	})
	return truncate(all, limit), nil
}

func truncate[T any](in []T, limit int) []T {
	if limit <= 0 {
		limit = 50
	}
	if len(in) > limit {
		return in[:limit]
	}
	return in
}

// sessions

type memSessions struct{ m *memStore }

func (r memSessions) Create(ctx context.Context, in repository.CreateSessionInput) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.st.sessions {
		if s.SlotID == in.SlotID {
			return nil, errors.New("duplicate key value violates unique constraint on slot_id")
		}
	}
	now := time.Now().UTC()
	owner := in.CommissionOwnerID
	s := models.Session{
		ID:                r.m.st.nextID(),
		ClientID:          in.ClientID,
		TherapistID:       in.TherapistID,
		SlotID:            in.SlotID,
		StartsAt:          in.StartsAt,
		Price:             in.Price,
		Commission:        in.Commission,
		CommissionOwnerID: &owner,
		Mode:              in.Mode,
		Status:            models.SessionScheduled,
		IsNew:             in.IsNew,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.m.st.sessions[s.ID] = s
	return &s, nil
}

func (r memSessions) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.st.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (r memSessions) GetByIDForUpdate(ctx context.Context, id int64) (*models.Session, error) {
	return r.GetByID(ctx, id)
}

func (r memSessions) HasPriorSession(ctx context.Context, clientID, therapistID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.st.sessions {
		if s.ClientID == clientID && s.TherapistID == therapistID {
			return true, nil
		}
	}
	return false, nil
}

func (r memSessions) List(ctx context.Context, f repository.SessionListFilter) ([]models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.Session, 0)
	for _, s := range r.m.st.sessions {
		switch f.Role {
		case models.RoleClient:
			if s.ClientID != f.ActorID {
				continue
			}
		case models.RoleTherapist:
			if s.TherapistID != f.ActorID {
				continue
			}
		case models.RoleOperator:
		default:
			return nil, errors.New("unsupported role")
		}
		if f.Status != "" && string(s.Status) != f.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.After(out[j].StartsAt)
		}
		return out[i].ID > out[j].ID
	})
	return truncate(out, f.Limit), nil
}

func (r memSessions) ListDueIDs(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ids := make([]int64, 0)
	for _, s := range r.m.st.sessions {
		if s.Status == models.SessionScheduled && s.StartsAt.Before(cutoff) && s.ID > afterID {
			ids = append(ids, s.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return truncate(ids, limit), nil
}

// update applies fn to a scheduled session and reports pgx.ErrNoRows otherwise.
func (r memSessions) update(id int64, requireScheduled bool, fn func(*models.Session)) (*models.Session, error) {
	s, ok := r.m.st.sessions[id]
	if !ok || (requireScheduled && s.Status != models.SessionScheduled) {
		return nil, pgx.ErrNoRows
	}
	fn(&s)
	s.UpdatedAt = time.Now().UTC()
	r.m.st.sessions[id] = s
	return &s, nil
}

func (r memSessions) TransitionIfScheduled(ctx context.Context, id int64, next models.SessionStatus) (*models.Session, error) {
	if err := r.m.lock("sessions.transition"); err != nil {
		r.m.mu.Unlock()
		return nil, err
	}
	defer r.m.mu.Unlock()
	return r.update(id, true, func(s *models.Session) { s.Status = next })
}

func (r memSessions) CancelIfScheduled(ctx context.Context, id int64, reason string, by models.Party) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.update(id, true, func(s *models.Session) {
		s.Status = models.SessionCancelled
		s.CancelReason = &reason
		s.CanceledBy = &by
	})
}

func (r memSessions) MarkAttendance(ctx context.Context, id int64, party models.Party) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.update(id, true, func(s *models.Session) {
		if party == models.PartyTherapist {
			s.TherapistAttended = true
		} else {
			s.ClientAttended = true
		}
	})
}

func (r memSessions) SetFeedback(ctx context.Context, id int64, feedback string, rating int) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.update(id, false, func(s *models.Session) {
		s.Feedback = &feedback
		s.Rating = &rating
	})
}

func (r memSessions) RatingSummary(ctx context.Context, therapistID int64) (*models.RatingSummary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := models.RatingSummary{TherapistID: therapistID}
	var total int
	for _, s := range r.m.st.sessions {
		if s.TherapistID == therapistID && s.Rating != nil {
			total += *s.Rating
			out.Count++
		}
	}
	if out.Count > 0 {
		out.Average = float64(total) / float64(out.Count)
	}
	return &out, nil
}

// wallets

type memWallets struct{ m *memStore }

func (r memWallets) Open(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, w := range r.m.st.wallets {
		if w.OwnerID == ownerID {
			return &w, nil
		}
	}
	now := time.Now().UTC()
	w := models.Wallet{ID: r.m.st.nextID(), OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	r.m.st.wallets[w.ID] = w
	return &w, nil
}

func (r memWallets) GetByOwner(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, w := range r.m.st.wallets {
		if w.OwnerID == ownerID {
			return &w, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memWallets) GetByOwnerForShare(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	return r.GetByOwner(ctx, ownerID)
}

func (r memWallets) ApplyDelta(ctx context.Context, walletID int64, delta int64) (*models.Wallet, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	w, ok := r.m.st.wallets[walletID]
	if !ok || w.Balance+delta < 0 {
		return nil, pgx.ErrNoRows
	}
	w.Balance += delta
	w.UpdatedAt = time.Now().UTC()
	r.m.st.wallets[walletID] = w
	return &w, nil
}

func (r memWallets) AppendTransaction(
	ctx context.Context,
	walletID int64,
	txType models.TransactionType,
	amount int64,
	description string,
) (*models.WalletTransaction, error) {
	if err := r.m.lock("wallets.append"); err != nil {
		r.m.mu.Unlock()
		return nil, err
	}
	defer r.m.mu.Unlock()
	t := models.WalletTransaction{
		ID:          r.m.st.nextID(),
		WalletID:    walletID,
		Type:        txType,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	r.m.st.txns = append(r.m.st.txns, t)
	return &t, nil
}

func (r memWallets) ListTransactions(ctx context.Context, walletID int64, beforeID int64, limit int) ([]models.WalletTransaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.WalletTransaction, 0)
	for i := len(r.m.st.txns) - 1; i >= 0; i-- {
		t := r.m.st.txns[i]
		if t.WalletID == walletID && (beforeID == 0 || t.ID < beforeID) {
			out = append(out, t)
		}
	}
	return truncate(out, limit), nil
}

func (r memWallets) SumTransactions(ctx context.Context, walletID int64) (int64, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var sum, count int64
	for _, t := range r.m.st.txns {
		if t.WalletID == walletID {
			sum += t.SignedAmount()
			count++
		}
	}
	return sum, count, nil
}

// withdrawals

type memWithdrawals struct{ m *memStore }

func (r memWithdrawals) Create(ctx context.Context, payerID, amount int64, payoutHandle, reference string) (*models.WithdrawalRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	w := models.WithdrawalRequest{
		ID:           r.m.st.nextID(),
		PayerID:      payerID,
		Amount:       amount,
		PayoutHandle: payoutHandle,
		Reference:    reference,
		CreatedAt:    time.Now().UTC(),
	}
	r.m.st.withdrawals[w.ID] = w
	return &w, nil
}

func (r memWithdrawals) GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	w, ok := r.m.st.withdrawals[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &w, nil
}

func (r memWithdrawals) MarkProcessed(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	w, ok := r.m.st.withdrawals[id]
	if !ok || w.IsProcessed {
		return nil, pgx.ErrNoRows
	}
	now := time.Now().UTC()
	w.IsProcessed = true
	w.ProcessedAt = &now
	r.m.st.withdrawals[id] = w
	return &w, nil
}

func (r memWithdrawals) List(ctx context.Context, payerID int64, pendingOnly bool, limit int) ([]models.WithdrawalRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.WithdrawalRequest, 0)
	for _, w := range r.m.st.withdrawals {
		if (payerID == 0 || w.PayerID == payerID) && (!pendingOnly || !w.IsProcessed) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return truncate(out, limit), nil
}

// notifications

type memNotifications struct{ m *memStore }

func (r memNotifications) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n.ID = r.m.st.nextID()
	n.CreatedAt = time.Now().UTC()
	r.m.st.notes = append(r.m.st.notes, n)
	return &n, nil
}

func (r memNotifications) List(ctx context.Context, audience models.Audience, recipientID, beforeID int64, limit int) ([]models.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.Notification, 0)
	for i := len(r.m.st.notes) - 1; i >= 0; i-- {
		n := r.m.st.notes[i]
		if n.Audience == audience && n.RecipientID == recipientID && (beforeID == 0 || n.ID < beforeID) {
			out = append(out, n)
		}
	}
	return truncate(out, limit), nil
}

func (r memNotifications) MarkRead(ctx context.Context, id int64, audience models.Audience, recipientID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, n := range r.m.st.notes {
		if n.ID == id && n.Audience == audience && n.RecipientID == recipientID {
			r.m.st.notes[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r memNotifications) MarkAllRead(ctx context.Context, audience models.Audience, recipientID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for i, note := range r.m.st.notes {
		if note.Audience == audience && note.RecipientID == recipientID && !note.Read {
			r.m.st.notes[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r memNotifications) UnreadCount(ctx context.Context, audience models.Audience, recipientID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, note := range r.m.st.notes {
		if note.Audience == audience && note.RecipientID == recipientID && !note.Read {
			n++
		}
	}
	return n, nil
}

// prices

type memPrices struct{ m *memStore }

func (r memPrices) Get(ctx context.Context) (*models.PriceList, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p := r.m.st.prices
	return &p, nil
}

func (r memPrices) Set(ctx context.Context, p models.PriceList) (*models.PriceList, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	r.m.st.prices = p
	return &p, nil
}

// chat

type memChat struct{ m *memStore }

func (r memChat) OpenConversation(ctx context.Context, clientID, therapistID int64) (*models.Conversation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.st.conversations {
		if c.ClientID == clientID && c.TherapistID == therapistID {
			return &c, nil
		}
	}
	now := time.Now().UTC()
	c := models.Conversation{ID: r.m.st.nextID(), ClientID: clientID, TherapistID: therapistID, CreatedAt: now, UpdatedAt: now}
	r.m.st.conversations[c.ID] = c
	return &c, nil
}

func (r memChat) ConversationForParticipant(ctx context.Context, conversationID, participantID int64) (*models.Conversation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.st.conversations[conversationID]
	if !ok || (c.ClientID != participantID && c.TherapistID != participantID) {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r memChat) ConversationsForParticipant(ctx context.Context, participantID int64) ([]models.ConversationSummary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.ConversationSummary, 0)
	for _, c := range r.m.st.conversations {
		if c.ClientID != participantID && c.TherapistID != participantID {
			continue
		}
		summary := models.ConversationSummary{Conversation: c}
		for _, msg := range r.m.st.messages {
			if msg.ConversationID != c.ID {
				continue
			}
			msg := msg
			summary.LastMessage = &msg
			if msg.SenderID != participantID && !msg.IsRead {
				summary.UnreadCount++
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memChat) AppendMessage(ctx context.Context, conversationID, senderID int64, content string) (*models.ChatMessage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	msg := models.ChatMessage{
		ID:             r.m.st.nextID(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	r.m.st.messages = append(r.m.st.messages, msg)
	return &msg, nil
}

func (r memChat) Messages(ctx context.Context, conversationID int64, limit, offset int) ([]models.ChatMessage, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	all := make([]models.ChatMessage, 0)
	for i := len(r.m.st.messages) - 1; i >= 0; i-- {
		if r.m.st.messages[i].ConversationID == conversationID {
			all = append(all, r.m.st.messages[i])
		}
	}
	total := len(all)
	if offset >= total {
		return []models.ChatMessage{}, total, nil
	}
	return truncate(all[offset:], limit), total, nil
}

func (r memChat) MarkRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for i, msg := range r.m.st.messages {
		if msg.ConversationID == conversationID && msg.SenderID != readerID && !msg.IsRead {
			r.m.st.messages[i].IsRead = true
			n++
		}
	}
	return n, nil
}
