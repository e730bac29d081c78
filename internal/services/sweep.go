package services

import (
	"context"
	"fmt"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"go.uber.org/zap"
)

// SweepReport counts what one ApplyDueTransitions pass did.
type SweepReport struct {
	Scanned         int `json:"scanned"`
	Completed       int `json:"completed"`
	AbsentClient    int `json:"absent_client"`
	AbsentTherapist int `json:"absent_therapist"`
	NoShowBoth      int `json:"no_show_both"`
	Skipped         int `json:"skipped"`
	Failed          int `json:"failed"`
}

func (r *SweepReport) count(status models.SessionStatus) {
	switch status {
	case models.SessionCompleted:
		r.Completed++
	case models.SessionAbsentClient:
		r.AbsentClient++
	case models.SessionAbsentTherapist:
		r.AbsentTherapist++
	case models.SessionNoShowBoth:
		r.NoShowBoth++
	default:
		r.Skipped++
	}
}

// ApplyDueTransitions settles every scheduled session whose grace period has
// elapsed. Each session is re-read under lock in its own transaction, so a
// concurrent cancel or a second sweep never applies twice. A failure on one
// session is logged and counted; the pass carries on with the rest.
func (s *SessionService) ApplyDueTransitions(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	now := s.now()
	cutoff := now.Add(-s.policy.GracePeriod)
	batch := s.policy.SweepBatchSize
	if batch <= 0 {
		batch = 100
	}

	var afterID int64
	for {
		ids, err := s.store.Read().Sessions.ListDueIDs(ctx, cutoff, afterID, batch)
		if err != nil {
			return report, fmt.Errorf("list due sessions: %w", err)
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Scanned++
			status, err := s.settle(ctx, id, now)
			if err != nil {
				report.Failed++
				s.logger.Error("settle overdue session", zap.Int64("session_id", id), zap.Error(err))
				continue
			}
			report.count(status)
		}
		if len(ids) < batch {
			break
		}
		afterID = ids[len(ids)-1]
	}

	if report.Scanned > 0 {
		s.logger.Info("sweep finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("completed", report.Completed),
			zap.Int("absent_client", report.AbsentClient),
			zap.Int("absent_therapist", report.AbsentTherapist),
			zap.Int("no_show_both", report.NoShowBoth),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
	}
	return report, nil
}

// settle applies the overdue outcome to one session. It returns
// SessionScheduled when there was nothing to do.
func (s *SessionService) settle(ctx context.Context, sessionID int64, now time.Time) (models.SessionStatus, error) {
	var (
		outcome models.SessionStatus
		box     outbox
	)
	err := s.store.InTx(ctx, func(r Repos) error {
		box = outbox{}
		outcome = models.SessionScheduled
		current, err := r.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if isNoRows(err) {
				return nil
			}
			return err
		}
		if !Overdue(current, now, s.policy.GracePeriod) {
			return nil
		}

		next := ResolveOverdue(current.ClientAttended, current.TherapistAttended)
		if next == models.SessionCompleted {
			if _, err := s.complete(ctx, r, &box, current); err != nil {
				return err
			}
			outcome = next
			return nil
		}

		session, err := r.Sessions.TransitionIfScheduled(ctx, sessionID, next)
		if err != nil {
			if isNoRows(err) {
				return nil
			}
			return err
		}
		outcome = next
		for _, ev := range overdueEvents(session) {
			if err := s.notes.record(ctx, r, &box, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.SessionScheduled, err
	}
	s.notes.push(&box)
	return outcome, nil
}

func overdueEvents(session *models.Session) []Event {
	var clientMsg, therapistMsg string
	switch session.Status {
	case models.SessionNoShowBoth:
		clientMsg = fmt.Sprintf("Session #%d was closed because neither party joined.", session.ID)
		therapistMsg = clientMsg
	case models.SessionAbsentClient:
		clientMsg = fmt.Sprintf("You were marked absent for session #%d.", session.ID)
		therapistMsg = fmt.Sprintf("The client did not join session #%d.", session.ID)
	case models.SessionAbsentTherapist:
		clientMsg = fmt.Sprintf("The therapist did not join session #%d.", session.ID)
		therapistMsg = fmt.Sprintf("You were marked absent for session #%d.", session.ID)
	default:
		return nil
	}
	return []Event{
		{
			Kind:        models.KindWarning,
			Audience:    models.AudienceClient,
			RecipientID: session.ClientID,
			Title:       "Session closed",
			Message:     clientMsg,
			Link:        "/appointments",
		},
		{
			Kind:        models.KindWarning,
			Audience:    models.AudienceTherapist,
			RecipientID: session.TherapistID,
			Title:       "Session closed",
			Message:     therapistMsg,
			Link:        "/therapist/appointments",
		},
	}
}

// sweepOnRead runs a sweep before a list read. Concurrent readers share one
// pass and errors never fail the read.
func (s *SessionService) sweepOnRead(ctx context.Context) {
	_, err, _ := s.sweeps.Do("sweep", func() (any, error) {
		return s.ApplyDueTransitions(context.WithoutCancel(ctx))
	})
	if err != nil {
		s.logger.Warn("sweep on read", zap.Error(err))
	}
}
