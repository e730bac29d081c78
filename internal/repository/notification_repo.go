package repository

import (
	"context"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, audience, recipient_id, kind, title, message, link, read, created_at`

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(
		&n.ID,
		&n.Audience,
		&n.RecipientID,
		&n.Kind,
		&n.Title,
		&n.Message,
		&n.Link,
		&n.Read,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	return scanNotification(r.db.QueryRow(ctx, `
		INSERT INTO notifications (audience, recipient_id, kind, title, message, link)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+notificationColumns,
		n.Audience, n.RecipientID, n.Kind, n.Title, n.Message, n.Link))
}

func (r *NotificationRepository) List(
	ctx context.Context,
	audience models.Audience,
	recipientID int64,
	beforeID int64,
	limit int,
) ([]models.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE audience = $1 AND recipient_id = $2 AND ($3::bigint = 0 OR id < $3)
		ORDER BY id DESC
		LIMIT $4
	`, audience, recipientID, beforeID, pageSize(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, audience models.Audience, recipientID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND audience = $2 AND recipient_id = $3
	`, id, audience, recipientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, audience models.Audience, recipientID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE audience = $1 AND recipient_id = $2 AND read = FALSE
	`, audience, recipientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, audience models.Audience, recipientID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE audience = $1 AND recipient_id = $2 AND read = FALSE
	`, audience, recipientID).Scan(&count)
	return count, err
}
