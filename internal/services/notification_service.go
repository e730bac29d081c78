package services

import (
	"context"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/notify"
	"go.uber.org/zap"
)

const pushTimeout = 3 * time.Second

// Event is a domain event addressed to one recipient.
type Event struct {
	Kind        models.NotificationKind
	Audience    models.Audience
	RecipientID int64
	Title       string
	Message     string
	Link        string
}

type NotificationService struct {
	store     Store
	publisher notify.Publisher
	logger    *zap.Logger
}

func NewNotificationService(store Store, publisher notify.Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{store: store, publisher: publisher, logger: logger}
}

// outbox collects notifications written inside a transaction so they can be
// pushed once it has committed.
type outbox struct {
	notes []*models.Notification
}

// record persists ev with the transaction's repositories.
func (s *NotificationService) record(ctx context.Context, r Repos, box *outbox, ev Event) error {
	n := models.Notification{
		Audience:    ev.Audience,
		RecipientID: ev.RecipientID,
		Kind:        ev.Kind,
		Title:       ev.Title,
		Message:     ev.Message,
	}
	if ev.Link != "" {
		link := ev.Link
		n.Link = &link
	}
	saved, err := r.Notifications.Create(ctx, n)
	if err != nil {
		return err
	}
	box.notes = append(box.notes, saved)
	return nil
}

// push publishes committed notifications without blocking the caller.
// Failures are logged; the stored record is the durable copy.
func (s *NotificationService) push(box *outbox) {
	if s.publisher == nil || box == nil || len(box.notes) == 0 {
		return
	}
	notes := box.notes
	go func() {
		for _, n := range notes {
			payload, err := notify.Encode("notification", n)
			if err != nil {
				s.logger.Error("encode notification", zap.Int64("notification_id", n.ID), zap.Error(err))
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
			topic := notify.TopicFor(n.Audience, n.RecipientID)
			if err := s.publisher.Publish(ctx, topic, payload); err != nil {
				s.logger.Warn("push notification",
					zap.Int64("notification_id", n.ID),
					zap.String("topic", string(topic)),
					zap.Error(err),
				)
			}
			cancel()
		}
	}()
}

// Notify records and pushes a standalone event.
func (s *NotificationService) Notify(ctx context.Context, ev Event) (*models.Notification, error) {
	var box outbox
	err := s.store.InTx(ctx, func(r Repos) error {
		box = outbox{}
		return s.record(ctx, r, &box, ev)
	})
	if err != nil {
		return nil, err
	}
	s.push(&box)
	return box.notes[0], nil
}

func (s *NotificationService) List(ctx context.Context, actor Actor, beforeID int64, limit int) ([]models.Notification, error) {
	return s.store.Read().Notifications.List(ctx, actor.Role.Audience(), actor.ID, beforeID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, notificationID int64) error {
	if notificationID <= 0 {
		return invalid("notification id must be positive")
	}
	return s.store.InTx(ctx, func(r Repos) error {
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		ok, err := r.Notifications.MarkRead(ctx, notificationID, actor.Role.Audience(), actor.ID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("notification")
		}
		return nil
	})
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	var marked int64
	err := s.store.InTx(ctx, func(r Repos) error {
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		var err error
		marked, err = r.Notifications.MarkAllRead(ctx, actor.Role.Audience(), actor.ID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	return s.store.Read().Notifications.UnreadCount(ctx, actor.Role.Audience(), actor.ID)
}
