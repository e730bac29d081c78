package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type SessionService struct {
	store  Store
	ledger *LedgerService
	notes  *NotificationService
	policy Policy
	logger *zap.Logger
	now    func() time.Time
	sweeps singleflight.Group
}

func NewSessionService(
	store Store,
	ledger *LedgerService,
	notes *NotificationService,
	policy Policy,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		store:  store,
		ledger: ledger,
		notes:  notes,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

type BookSessionInput struct {
	TherapistID int64
	SlotID      int64
	Date        string
	Mode        models.SessionMode
}

// Book reserves the slot, creates the session with a price snapshot and
// credits the platform commission, all in one transaction.
func (s *SessionService) Book(ctx context.Context, actor Actor, input BookSessionInput) (*models.Session, error) {
	if actor.Role != models.RoleClient {
		return nil, ErrForbidden
	}
	if input.TherapistID <= 0 || input.SlotID <= 0 {
		return nil, invalid("therapist_id and slot_id are required")
	}
	if !input.Mode.Valid() {
		return nil, invalid("unknown mode %q", input.Mode)
	}
	if !validDate(input.Date) {
		return nil, invalid("date must be YYYY-MM-DD")
	}

	var (
		session *models.Session
		box     outbox
	)
	err := s.store.InTx(ctx, func(r Repos) error {
		box = outbox{}
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		therapist, err := r.Users.GetByID(ctx, input.TherapistID)
		if err != nil {
			if isNoRows(err) {
				return notFound("therapist")
			}
			return err
		}
		if therapist.Role != models.RoleTherapist {
			return notFound("therapist")
		}
		if !therapist.IsActive {
			return precondition("therapist is not accepting bookings")
		}
		prices, err := r.Prices.Get(ctx)
		if err != nil {
			return err
		}
		price := prices.For(input.Mode)

		slot, err := reserveSlot(ctx, r, input.SlotID, input.Date, input.TherapistID)
		if err != nil {
			return err
		}
		startsAt, err := s.policy.StartsAt(slot)
		if err != nil {
			return err
		}
		if !startsAt.After(s.now()) {
			return precondition("slot has already started")
		}

		seen, err := r.Sessions.HasPriorSession(ctx, actor.ID, input.TherapistID)
		if err != nil {
			return err
		}
		operator, err := r.Users.GetOperator(ctx)
		if err != nil {
			if isNoRows(err) {
				return errors.New("no active operator to hold commission")
			}
			return err
		}
		commission, _ := s.policy.Split(price)
		session, err = r.Sessions.Create(ctx, repository.CreateSessionInput{
			ClientID:          actor.ID,
			TherapistID:       input.TherapistID,
			SlotID:            slot.ID,
			StartsAt:          startsAt,
			Price:             price,
			Commission:        commission,
			CommissionOwnerID: operator.ID,
			Mode:              input.Mode,
			IsNew:             !seen,
		})
		if err != nil {
			return err
		}

		if commission > 0 {
			if _, err := s.ledger.credit(ctx, r, operator.ID, commission, "Commission for "+sessionRef(session.ID)); err != nil {
				return err
			}
		}

		when := startsAt.Format("2006-01-02 15:04")
		events := []Event{
			{
				Kind:        models.KindSuccess,
				Audience:    models.AudienceClient,
				RecipientID: actor.ID,
				Title:       "Session booked",
				Message:     fmt.Sprintf("Your %s session is booked for %s.", input.Mode, when),
				Link:        "/appointments",
			},
			{
				Kind:        models.KindInfo,
				Audience:    models.AudienceTherapist,
				RecipientID: input.TherapistID,
				Title:       "New session",
				Message:     fmt.Sprintf("A client booked a %s session for %s.", input.Mode, when),
				Link:        "/therapist/appointments",
			},
			{
				Kind:        models.KindInfo,
				Audience:    models.AudienceOperator,
				RecipientID: operator.ID,
				Title:       "New booking",
				Message:     fmt.Sprintf("Session #%d booked with therapist %s.", session.ID, therapist.DisplayName()),
				Link:        "/admin/appointments",
			},
		}
		for _, ev := range events {
			if err := s.notes.record(ctx, r, &box, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notes.push(&box)
	s.logger.Info("session booked",
		zap.Int64("session_id", session.ID),
		zap.Int64("client_id", session.ClientID),
		zap.Int64("therapist_id", session.TherapistID),
		zap.Int64("price", session.Price),
	)
	return session, nil
}

// commissionHolder is the wallet owner credited with the session's commission
// at booking. Rows written before the owner was recorded fall back to the
// current operator.
func commissionHolder(ctx context.Context, r Repos, session *models.Session) (int64, error) {
	if session.CommissionOwnerID != nil {
		return *session.CommissionOwnerID, nil
	}
	operator, err := r.Users.GetOperator(ctx)
	if err != nil {
		return 0, err
	}
	return operator.ID, nil
}

// Cancel ends a scheduled session before the cancellation window closes. The
// platform commission is reversed and the client refunded the full price.
func (s *SessionService) Cancel(ctx context.Context, actor Actor, sessionID int64, reason string) (*models.Session, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason is required")
	}

	var (
		session *models.Session
		box     outbox
	)
	err := s.store.InTx(ctx, func(r Repos) error {
		box = outbox{}
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		current, err := r.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if isNoRows(err) {
				return notFound("session")
			}
			return err
		}
		party, ok := partyOf(actor, current)
		if !ok {
			return ErrForbidden
		}
		if current.Status.Terminal() {
			return fmt.Errorf("%w: session is %s", ErrConflict, current.Status)
		}
		if !CancellationOpen(current.StartsAt, s.now(), s.policy.CancellationWindow) {
			return precondition("sessions can only be cancelled %s before they start", s.policy.CancellationWindow)
		}

		session, err = r.Sessions.CancelIfScheduled(ctx, sessionID, reason, party)
		if err != nil {
			if isNoRows(err) {
				return ErrConflict
			}
			return err
		}

		if session.Commission > 0 {
			holder, err := commissionHolder(ctx, r, session)
			if err != nil {
				return err
			}
			if _, err := s.ledger.debit(ctx, r, holder, session.Commission, "Commission reversal for "+sessionRef(session.ID)); err != nil {
				return err
			}
		}
		if session.Price > 0 {
			if _, err := s.ledger.credit(ctx, r, session.ClientID, session.Price, "Refund for "+sessionRef(session.ID)); err != nil {
				return err
			}
		}

		ev := Event{
			Kind:    models.KindWarning,
			Title:   "Session cancelled",
			Message: fmt.Sprintf("Session #%d on %s was cancelled: %s", session.ID, session.StartsAt.Format("2006-01-02 15:04"), reason),
		}
		if party == models.PartyClient {
			ev.Audience, ev.RecipientID, ev.Link = models.AudienceTherapist, session.TherapistID, "/therapist/appointments"
		} else {
			ev.Audience, ev.RecipientID, ev.Link = models.AudienceClient, session.ClientID, "/appointments"
		}
		return s.notes.record(ctx, r, &box, ev)
	})
	if err != nil {
		return nil, err
	}
	s.notes.push(&box)
	return session, nil
}

// MarkAttendance records that the acting party joined. Repeating it is a no-op.
func (s *SessionService) MarkAttendance(ctx context.Context, actor Actor, sessionID int64) (*models.Session, error) {
	var session *models.Session
	err := s.store.InTx(ctx, func(r Repos) error {
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		current, err := r.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if isNoRows(err) {
				return notFound("session")
			}
			return err
		}
		party, ok := partyOf(actor, current)
		if !ok {
			return ErrForbidden
		}
		if current.Status.Terminal() {
			return fmt.Errorf("%w: session is %s", ErrConflict, current.Status)
		}
		session, err = r.Sessions.MarkAttendance(ctx, sessionID, party)
		if isNoRows(err) {
			return ErrConflict
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Complete is the therapist closing a session both parties attended.
func (s *SessionService) Complete(ctx context.Context, actor Actor, sessionID int64) (*models.Session, error) {
	if actor.Role != models.RoleTherapist {
		return nil, ErrForbidden
	}
	var (
		session *models.Session
		box     outbox
	)
	err := s.store.InTx(ctx, func(r Repos) error {
		box = outbox{}
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		current, err := r.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if isNoRows(err) {
				return notFound("session")
			}
			return err
		}
		if current.TherapistID != actor.ID {
			return ErrForbidden
		}
		session, err = s.complete(ctx, r, &box, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notes.push(&box)
	return session, nil
}

// complete moves a locked, scheduled session to completed and pays the
// therapist their share. The conditional status update guarantees the credit
// happens at most once per session.
func (s *SessionService) complete(ctx context.Context, r Repos, box *outbox, current *models.Session) (*models.Session, error) {
	if current.Status.Terminal() {
		return nil, fmt.Errorf("%w: session is %s", ErrConflict, current.Status)
	}
	if !current.ClientAttended || !current.TherapistAttended {
		return nil, precondition("both parties must attend before completion")
	}
	session, err := r.Sessions.TransitionIfScheduled(ctx, current.ID, models.SessionCompleted)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	_, share := s.policy.Split(session.Price)
	if share > 0 {
		if _, err := s.ledger.credit(ctx, r, session.TherapistID, share, "Earnings for "+sessionRef(session.ID)); err != nil {
			return nil, err
		}
	}
	err = s.notes.record(ctx, r, box, Event{
		Kind:        models.KindSuccess,
		Audience:    models.AudienceTherapist,
		RecipientID: session.TherapistID,
		Title:       "Earnings credited",
		Message:     fmt.Sprintf("%d credited to your wallet for session #%d.", share, session.ID),
		Link:        "/earnings",
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

type FeedbackInput struct {
	Feedback string
	Rating   int
}

// Feedback attaches the client's review. It may be overwritten at any time.
func (s *SessionService) Feedback(ctx context.Context, actor Actor, sessionID int64, input FeedbackInput) (*models.Session, error) {
	if actor.Role != models.RoleClient {
		return nil, ErrForbidden
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	var session *models.Session
	err := s.store.InTx(ctx, func(r Repos) error {
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		current, err := r.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if isNoRows(err) {
				return notFound("session")
			}
			return err
		}
		if current.ClientID != actor.ID {
			return ErrForbidden
		}
		session, err = r.Sessions.SetFeedback(ctx, sessionID, strings.TrimSpace(input.Feedback), input.Rating)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, actor Actor, sessionID int64) (*models.Session, error) {
	session, err := s.store.Read().Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("session")
		}
		return nil, err
	}
	if !canViewSession(actor, session) {
		return nil, ErrForbidden
	}
	return session, nil
}

type SessionFilter struct {
	Status    string
	Timeframe string
	Limit     int
}

// List returns the actor's sessions, newest first. Operators see every
// session. Overdue sessions are settled first when sweeping on read is enabled.
func (s *SessionService) List(ctx context.Context, actor Actor, filter SessionFilter) ([]models.Session, error) {
	switch actor.Role {
	case models.RoleClient, models.RoleTherapist, models.RoleOperator:
	default:
		return nil, ErrForbidden
	}
	if filter.Status != "" && !models.SessionStatus(filter.Status).Valid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	if s.policy.SweepOnRead {
		s.sweepOnRead(ctx)
	}
	return s.store.Read().Sessions.List(ctx, repository.SessionListFilter{
		ActorID:   actor.ID,
		Role:      actor.Role,
		Status:    filter.Status,
		Timeframe: filter.Timeframe,
		Limit:     filter.Limit,
	})
}

// Rating averages the therapist's rated sessions.
func (s *SessionService) Rating(ctx context.Context, actor Actor) (*models.RatingSummary, error) {
	if actor.Role != models.RoleTherapist {
		return nil, ErrForbidden
	}
	if err := requireActive(ctx, s.store.Read().Users, actor); err != nil {
		return nil, err
	}
	return s.store.Read().Sessions.RatingSummary(ctx, actor.ID)
}
