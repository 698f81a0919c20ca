package ws

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/ridepool/internal/metrics"
	"github.com/avolkov/ridepool/internal/models"
	"github.com/avolkov/ridepool/internal/store"
)

// Inbound is a chat message frame received from a client.
type Inbound struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`

	senderID string
}

// ErrEmptyMessage rejects blank or whitespace-only sends.
var ErrEmptyMessage = errors.New("message cannot be empty")

// Event is the envelope pushed to clients. Type is "message" for chat
// messages and an event name ("booking_confirmed", "ride_booked", ...)
// for everything else; clients refetch the affected list on events.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// outbound is a delivery request processed by the Run loop. Either
// userID (direct) or chatID (fan out to participants) is set.
type outbound struct {
	userID string
	chatID string
	data   []byte
}

type Hub struct {
	// Registered clients. Owned by the Run goroutine.
	clients map[*Client]bool

	// Inbound messages from the clients.
	inbound chan Inbound

	// Deliveries requested by handlers and services.
	out chan outbound

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	store store.Store
}

func NewHub(store store.Store) *Hub {
	return &Hub{
		inbound:    make(chan Inbound),
		out:        make(chan outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		store:      store,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case in := <-h.inbound:
			msg, err := h.Send(in.ChatID, in.senderID, in.Text)
			if err != nil {
				log.Printf("ws send rejected: %v", err)
				continue
			}
			h.deliver(outbound{chatID: msg.ChatID, data: mustEvent("message", msg)})
		case o := <-h.out:
			h.deliver(o)
		}
	}
}

// Send validates, persists and returns a chat message. The message
// write is what counts; the chat's cached last message is updated
// best-effort afterwards, so the list cache can lag the stream by one
// message until the next send.
func (h *Hub) Send(chatID, senderID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	ok, err := h.store.IsParticipant(chatID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNotParticipant
	}

	sender, err := h.store.GetUserByID(senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		SenderID:    sender.ID,
		SenderName:  sender.DisplayName,
		SenderPhoto: sender.PhotoURL,
		Text:        text,
		SentAt:      time.Now(),
		Read:        false,
	}
	if err := h.store.SaveMessage(msg); err != nil {
		return nil, err
	}
	if err := h.store.UpdateChatLastMessage(chatID, msg.Text, msg.SentAt); err != nil {
		log.Printf("last-message cache update failed for chat %s: %v", chatID, err)
	}
	metrics.MessagesTotal.Inc()
	return msg, nil
}

// Broadcast fans a persisted message out to connected participants of
// its chat. Used by the REST send path after Send.
func (h *Hub) Broadcast(msg *models.Message) {
	h.enqueue(outbound{chatID: msg.ChatID, data: mustEvent("message", msg)})
}

// NotifyUser delivers an event to every connection the user has open.
func (h *Hub) NotifyUser(userID string, event string, payload any) {
	h.enqueue(outbound{userID: userID, data: mustEvent(event, payload)})
}

// enqueue hands a delivery to the Run loop. Dropped when the queue is
// full: events are refresh hints, not durable state.
func (h *Hub) enqueue(o outbound) {
	select {
	case h.out <- o:
	default:
		log.Printf("ws event queue full, dropping %d bytes", len(o.data))
	}
}

func (h *Hub) deliver(o outbound) {
	for client := range h.clients {
		if o.userID != "" {
			if client.userID != o.userID {
				continue
			}
		} else {
			ok, err := h.store.IsParticipant(o.chatID, client.userID)
			if err != nil {
				log.Printf("participant check failed: %v", err)
				continue
			}
			if !ok {
				continue
			}
		}
		select {
		case client.send <- o.data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func mustEvent(eventType string, payload any) []byte {
	data, _ := json.Marshal(Event{Type: eventType, Payload: payload})
	return data
}
