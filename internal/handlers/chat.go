package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avolkov/ridepool/internal/middleware"
	"github.com/avolkov/ridepool/internal/models"
	"github.com/avolkov/ridepool/internal/store"
	"github.com/avolkov/ridepool/internal/ws"
)

type ChatHandler struct {
	Store store.Store
	Hub   *ws.Hub
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Store.GetUserChats(middleware.UserID(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	json.NewEncoder(w).Encode(chats)
}

func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]

	isParticipant, err := h.Store.IsParticipant(chatID, middleware.UserID(r))
	if err != nil || !isParticipant {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	messages, err := h.Store.GetChatMessages(chatID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	json.NewEncoder(w).Encode(messages)
}

// SendMessage is the REST send path; the WebSocket inbound path goes
// through the hub directly.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Hub.Send(chatID, middleware.UserID(r), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, ws.ErrEmptyMessage):
			http.Error(w, "Message cannot be empty", http.StatusBadRequest)
		case errors.Is(err, models.ErrNotParticipant):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, models.ErrNotFound):
			http.Error(w, "Chat not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to send message", http.StatusInternalServerError)
		}
		return
	}

	h.Hub.Broadcast(msg)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}
