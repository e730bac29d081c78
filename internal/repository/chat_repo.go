package repository

import (
	"context"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

// ChatRepository stores client/therapist conversations and their messages.
type ChatRepository struct {
	db DBTX
}

func NewChatRepository(db DBTX) *ChatRepository {
	return &ChatRepository{db: db}
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var c models.Conversation
	if err := row.Scan(&c.ID, &c.ClientID, &c.TherapistID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanMessage(row rowScanner) (*models.ChatMessage, error) {
	var m models.ChatMessage
	if err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// OpenConversation returns the single conversation between a client and a
// therapist, creating it on first contact.
func (r *ChatRepository) OpenConversation(ctx context.Context, clientID, therapistID int64) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (client_id, therapist_id)
		VALUES ($1, $2)
		ON CONFLICT (client_id, therapist_id)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, client_id, therapist_id, created_at, updated_at
	`
	return scanConversation(r.db.QueryRow(ctx, query, clientID, therapistID))
}

func (r *ChatRepository) ConversationForParticipant(ctx context.Context, conversationID, participantID int64) (*models.Conversation, error) {
	query := `
		SELECT id, client_id, therapist_id, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND (client_id = $2 OR therapist_id = $2)
	`
	return scanConversation(r.db.QueryRow(ctx, query, conversationID, participantID))
}

func (r *ChatRepository) ConversationsForParticipant(ctx context.Context, participantID int64) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id, c.client_id, c.therapist_id, c.created_at, c.updated_at,
			lm.id, lm.sender_id, lm.content, lm.is_read, lm.created_at,
			(
				SELECT COUNT(*)
				FROM messages u
				WHERE u.conversation_id = c.id AND u.sender_id <> $1 AND u.is_read = FALSE
			)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, is_read, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY id DESC
			LIMIT 1
		) lm ON TRUE
		WHERE c.client_id = $1 OR c.therapist_id = $1
		ORDER BY COALESCE(lm.created_at, c.updated_at) DESC, c.id DESC
	`
	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var (
			s        models.ConversationSummary
			lastID   *int64
			senderID *int64
			content  *string
			isRead   *bool
			sentAt   *time.Time
		)
		if err := rows.Scan(
			&s.ID, &s.ClientID, &s.TherapistID, &s.CreatedAt, &s.UpdatedAt,
			&lastID, &senderID, &content, &isRead, &sentAt,
			&s.UnreadCount,
		); err != nil {
			return nil, err
		}
		if lastID != nil {
			s.LastMessage = &models.ChatMessage{
				ID:             *lastID,
				ConversationID: s.ID,
				SenderID:       *senderID,
				Content:        *content,
				IsRead:         *isRead,
				CreatedAt:      *sentAt,
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AppendMessage stores a message and bumps the conversation so it sorts first.
func (r *ChatRepository) AppendMessage(ctx context.Context, conversationID, senderID int64, content string) (*models.ChatMessage, error) {
	msg, err := scanMessage(r.db.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, sender_id, content, is_read, created_at
	`, conversationID, senderID, content))
	if err != nil {
		return nil, err
	}
	if _, err := r.db.Exec(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversationID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *ChatRepository) Messages(ctx context.Context, conversationID int64, limit, offset int) ([]models.ChatMessage, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, sender_id, content, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, conversationID, pageSize(limit), offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]models.ChatMessage, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

// MarkRead flags every message the reader did not send as read.
func (r *ChatRepository) MarkRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
