package services

import (
	"context"
	"strings"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

const maxMessageLength = 4000

type ChatService struct {
	store Store
}

// ChatDelivery is a stored message plus who should receive it live.
type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.ChatMessage
	RecipientID  int64
}

func NewChatService(store Store) *ChatService {
	return &ChatService{store: store}
}

func isParticipantRole(role models.Role) bool {
	return role == models.RoleClient || role == models.RoleTherapist
}

func (s *ChatService) ListConversations(ctx context.Context, actor Actor) ([]models.ConversationSummary, error) {
	if !isParticipantRole(actor.Role) {
		return nil, ErrForbidden
	}
	return s.store.Read().Chat.ConversationsForParticipant(ctx, actor.ID)
}

// OpenConversation starts (or returns) the client's thread with a therapist.
func (s *ChatService) OpenConversation(ctx context.Context, actor Actor, therapistID int64) (*models.Conversation, error) {
	if actor.Role != models.RoleClient {
		return nil, ErrForbidden
	}
	if therapistID <= 0 || therapistID == actor.ID {
		return nil, invalid("therapist_id is required")
	}

	var conversation *models.Conversation
	err := s.store.InTx(ctx, func(r Repos) error {
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		therapist, err := r.Users.GetByID(ctx, therapistID)
		if err != nil {
			if isNoRows(err) {
				return notFound("therapist")
			}
			return err
		}
		if therapist.Role != models.RoleTherapist {
			return notFound("therapist")
		}
		conversation, err = r.Chat.OpenConversation(ctx, actor.ID, therapistID)
		return err
	})
	return conversation, err
}

// ListMessages returns one page of a conversation, newest first, and marks
// the other side's messages as read.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actor Actor,
	conversationID int64,
	page int,
	limit int,
) ([]models.ChatMessage, int, error) {
	if !isParticipantRole(actor.Role) {
		return nil, 0, ErrForbidden
	}
	if conversationID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, invalid("conversation id, page and limit must be positive")
	}

	var (
		messages []models.ChatMessage
		total    int
	)
	err := s.store.InTx(ctx, func(r Repos) error {
		if _, err := r.Chat.ConversationForParticipant(ctx, conversationID, actor.ID); err != nil {
			if isNoRows(err) {
				return notFound("conversation")
			}
			return err
		}
		var err error
		messages, total, err = r.Chat.Messages(ctx, conversationID, limit, (page-1)*limit)
		if err != nil {
			return err
		}
		_, err = r.Chat.MarkRead(ctx, conversationID, actor.ID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	for i := range messages {
		if messages[i].SenderID != actor.ID {
			messages[i].IsRead = true
		}
	}
	return messages, total, nil
}

func (s *ChatService) SendMessage(ctx context.Context, actor Actor, conversationID int64, content string) (*ChatDelivery, error) {
	if !isParticipantRole(actor.Role) {
		return nil, ErrForbidden
	}
	trimmed := strings.TrimSpace(content)
	if conversationID <= 0 || trimmed == "" {
		return nil, invalid("conversation id and content are required")
	}
	if len(trimmed) > maxMessageLength {
		return nil, invalid("message is longer than %d bytes", maxMessageLength)
	}

	var delivery *ChatDelivery
	err := s.store.InTx(ctx, func(r Repos) error {
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		conversation, err := r.Chat.ConversationForParticipant(ctx, conversationID, actor.ID)
		if err != nil {
			if isNoRows(err) {
				return ErrForbidden
			}
			return err
		}
		message, err := r.Chat.AppendMessage(ctx, conversationID, actor.ID, trimmed)
		if err != nil {
			return err
		}
		recipientID := conversation.ClientID
		if actor.ID == conversation.ClientID {
			recipientID = conversation.TherapistID
		}
		delivery = &ChatDelivery{Conversation: conversation, Message: message, RecipientID: recipientID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
