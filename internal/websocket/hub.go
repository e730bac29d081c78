package chatws

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/notify"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	websocket "github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

var ErrHubBusy = errors.New("websocket hub is busy")

// Conn is the part of a websocket connection the pumps use.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub routes payloads to live connections by key. Each connection listens on
// its notification topic and on its own chat key.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	outbound   chan outbound
	done       chan struct{}
	logger     *zap.Logger
}

type outbound struct {
	keys    []string
	client  *Client
	payload []byte
}

type Client struct {
	hub   *Hub
	conn  Conn
	actor services.Actor
	keys  []string
	send  chan []byte
}

type sender interface {
	SendMessage(ctx context.Context, actor services.Actor, conversationID int64, content string) (*services.ChatDelivery, error)
}

type Message struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	SenderID       string `json:"sender_id,omitempty"`
	RecipientID    string `json:"recipient_id,omitempty"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan outbound, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func chatKey(userID int64) string {
	return "chat." + strconv.FormatInt(userID, 10)
}

func NewClient(hub *Hub, conn Conn, actor services.Actor) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		actor: actor,
		keys: []string{
			string(notify.TopicFor(actor.Role.Audience(), actor.ID)),
			chatKey(actor.ID),
		},
		send: make(chan []byte, 32),
	}
}

// Run serves register, unregister and delivery until ctx is done. Once it
// returns, Register and Unregister no longer block.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			for _, key := range client.keys {
				set, ok := h.clients[key]
				if !ok {
					set = make(map[*Client]struct{})
					h.clients[key] = set
				}
				set[client] = struct{}{}
			}
		case client := <-h.unregister:
			h.drop(client)
		case out := <-h.outbound:
			if out.client != nil {
				h.sendDirect(out.client, out.payload)
				continue
			}
			for _, key := range out.keys {
				h.sendTo(key, out.payload)
			}
		}
	}
}

// Register adds client to the hub. A client registered after the hub stopped
// has its send channel closed straight away so its write pump exits.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish hands payload to the connections listening on topic. It never
// blocks; a full queue drops the payload and reports ErrHubBusy.
func (h *Hub) Publish(_ context.Context, topic notify.Topic, payload []byte) error {
	return h.enqueue(outbound{keys: []string{string(topic)}, payload: payload})
}

// Deliver forwards a payload received from the broker.
func (h *Hub) Deliver(topic notify.Topic, payload []byte) {
	if _, _, ok := topic.Parse(); !ok {
		h.logger.Warn("ignoring unknown topic", zap.String("topic", string(topic)))
		return
	}
	if err := h.Publish(context.Background(), topic, payload); err != nil {
		h.logger.Warn("drop notification", zap.String("topic", string(topic)), zap.Error(err))
	}
}

func (h *Hub) enqueue(out outbound) error {
	select {
	case h.outbound <- out:
		return nil
	default:
		return ErrHubBusy
	}
}

func (h *Hub) drop(client *Client) {
	removed := false
	for _, key := range client.keys {
		set, ok := h.clients[key]
		if !ok {
			continue
		}
		if _, exists := set[client]; exists {
			delete(set, client)
			removed = true
		}
		if len(set) == 0 {
			delete(h.clients, key)
		}
	}
	if removed {
		close(client.send)
	}
}

func (h *Hub) sendTo(key string, payload []byte) {
	set, ok := h.clients[key]
	if !ok {
		return
	}

	var slow []*Client
	for client := range set {
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	for _, client := range slow {
		h.logger.Debug("dropping slow websocket client", zap.Int64("user_id", client.actor.ID))
		h.drop(client)
	}
}

func (h *Hub) sendDirect(client *Client, payload []byte) {
	if _, ok := h.clients[client.keys[0]][client]; !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

func (h *Hub) closeAll() {
	seen := make(map[*Client]struct{})
	for _, set := range h.clients {
		for client := range set {
			seen[client] = struct{}{}
		}
	}
	for client := range seen {
		h.drop(client)
	}
}

func encodeMessage(message *Message) ([]byte, error) {
	return json.Marshal(message)
}

func (c *Client) ReadPump(service sender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string `json:"type"`
			ConversationID string `json:"conversation_id"`
			Content        string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			writeError(c, "unsupported message type")
			continue
		}

		conversationID, err := strconv.ParseInt(incoming.ConversationID, 10, 64)
		if err != nil || conversationID <= 0 {
			writeError(c, "invalid conversation id")
			continue
		}

		delivery, err := service.SendMessage(context.Background(), c.actor, conversationID, incoming.Content)
		if err != nil {
			if services.KindOf(err) == services.KindInternal {
				c.hub.logger.Error("send chat message",
					zap.Int64("user_id", c.actor.ID),
					zap.Int64("conversation_id", conversationID),
					zap.Error(err),
				)
			}
			writeError(c, "failed to send message")
			continue
		}

		encoded, err := encodeMessage(&Message{
			Type:           "message",
			ConversationID: strconv.FormatInt(delivery.Message.ConversationID, 10),
			SenderID:       strconv.FormatInt(delivery.Message.SenderID, 10),
			RecipientID:    strconv.FormatInt(delivery.RecipientID, 10),
			Content:        delivery.Message.Content,
			Timestamp:      services.FormatChatTimestamp(delivery.Message.CreatedAt),
		})
		if err != nil {
			c.hub.logger.Error("encode chat message", zap.Error(err))
			continue
		}
		keys := []string{chatKey(delivery.Message.SenderID)}
		if delivery.RecipientID != delivery.Message.SenderID {
			keys = append(keys, chatKey(delivery.RecipientID))
		}
		if err := c.hub.enqueue(outbound{keys: keys, payload: encoded}); err != nil {
			c.hub.logger.Warn("drop chat message", zap.Int64("message_id", delivery.Message.ID), zap.Error(err))
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Message{
		Type:      "error",
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	_ = client.hub.enqueue(outbound{client: client, payload: payload})
}

// ActorFromClaims builds the actor a websocket connection acts as.
func ActorFromClaims(userID, role string) (services.Actor, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || id <= 0 {
		return services.Actor{}, errors.New("invalid user id")
	}
	switch r := models.Role(role); r {
	case models.RoleClient, models.RoleTherapist, models.RoleOperator:
		return services.Actor{ID: id, Role: r}, nil
	}
	return services.Actor{}, errors.New("invalid role")
}
