package sqlstore

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/avolkov/ridepool/internal/models"
)

func (s *SQLStore) CreateChat(chat *models.Chat) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lastTime any
	if !chat.LastMessageTime.IsZero() {
		lastTime = chat.LastMessageTime
	}
	query := s.rebind(`INSERT INTO chats (id, ride_id, last_message, last_message_time, created_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := tx.Exec(query, chat.ID, chat.RideID, chat.LastMessage, lastTime, chat.CreatedAt); err != nil {
		return err
	}

	for _, userID := range chat.Participants {
		detail := chat.Details[userID]
		query := s.rebind(`INSERT INTO chat_participants (chat_id, user_id, name, photo) VALUES (?, ?, ?, ?)`)
		if _, err := tx.Exec(query, chat.ID, userID, detail.Name, detail.Photo); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLStore) GetChat(id string) (*models.Chat, error) {
	var chat models.Chat
	var lastTime sql.NullTime
	query := s.rebind(`SELECT id, ride_id, last_message, last_message_time, created_at FROM chats WHERE id = ?`)
	err := s.db.QueryRow(query, id).Scan(&chat.ID, &chat.RideID, &chat.LastMessage, &lastTime, &chat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastTime.Valid {
		chat.LastMessageTime = lastTime.Time
	}

	if err := s.loadParticipants(&chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetRideChatFor finds the chat for a ride that includes the given user,
// or ErrNotFound. Used to reuse an existing channel instead of creating
// a duplicate on re-booking attempts.
func (s *SQLStore) GetRideChatFor(rideID, userID string) (*models.Chat, error) {
	var chatID string
	query := s.rebind(`SELECT c.id FROM chats c
		JOIN chat_participants p ON c.id = p.chat_id
		WHERE c.ride_id = ? AND p.user_id = ?`)
	err := s.db.QueryRow(query, rideID, userID).Scan(&chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetChat(chatID)
}

func (s *SQLStore) IsParticipant(chatID, userID string) (bool, error) {
	var exists bool
	query := s.rebind(`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id = ? AND user_id = ?)`)
	err := s.db.QueryRow(query, chatID, userID).Scan(&exists)
	return exists, err
}

// GetUserChats returns the user's chats for list rendering, newest
// conversation first. The last message comes from the messages table
// when one exists; the chat's own cached copy is only a fallback, so a
// lagging cache never shows stale text. Chats with no time sort last.
func (s *SQLStore) GetUserChats(userID string) ([]models.Chat, error) {
	query := s.rebind(`SELECT c.id, c.ride_id, c.last_message, c.last_message_time, c.created_at
		FROM chats c
		JOIN chat_participants p ON c.id = p.chat_id
		WHERE p.user_id = ?`)
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		var lastTime sql.NullTime
		if err := rows.Scan(&chat.ID, &chat.RideID, &chat.LastMessage, &lastTime, &chat.CreatedAt); err != nil {
			return nil, err
		}
		if lastTime.Valid {
			chat.LastMessageTime = lastTime.Time
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range chats {
		if err := s.loadParticipants(&chats[i]); err != nil {
			return nil, err
		}
		latest, err := s.LatestMessage(chats[i].ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		if latest != nil {
			chats[i].LastMessage = latest.Text
			chats[i].LastMessageTime = latest.SentAt
		}
	}

	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].LastMessageTime.After(chats[j].LastMessageTime)
	})
	return chats, nil
}

func (s *SQLStore) loadParticipants(chat *models.Chat) error {
	query := s.rebind(`SELECT user_id, name, photo FROM chat_participants WHERE chat_id = ?`)
	rows, err := s.db.Query(query, chat.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	chat.Participants = nil
	chat.Details = make(map[string]models.Participant)
	for rows.Next() {
		var userID string
		var p models.Participant
		if err := rows.Scan(&userID, &p.Name, &p.Photo); err != nil {
			return err
		}
		chat.Participants = append(chat.Participants, userID)
		chat.Details[userID] = p
	}
	return rows.Err()
}

func (s *SQLStore) SaveMessage(msg *models.Message) error {
	query := s.rebind(`INSERT INTO messages (id, chat_id, sender_id, sender_name, sender_photo, body, sent_at, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Exec(query, msg.ID, msg.ChatID, msg.SenderID, msg.SenderName, msg.SenderPhoto, msg.Text, msg.SentAt, msg.Read)
	return err
}

func (s *SQLStore) GetChatMessages(chatID string) ([]models.Message, error) {
	query := s.rebind(`SELECT id, chat_id, sender_id, sender_name, sender_photo, body, sent_at, is_read
		FROM messages WHERE chat_id = ? ORDER BY sent_at ASC, id ASC`)
	rows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.SenderName, &m.SenderPhoto, &m.Text, &m.SentAt, &m.Read); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SQLStore) LatestMessage(chatID string) (*models.Message, error) {
	var m models.Message
	query := s.rebind(`SELECT id, chat_id, sender_id, sender_name, sender_photo, body, sent_at, is_read
		FROM messages WHERE chat_id = ? ORDER BY sent_at DESC, id DESC LIMIT 1`)
	err := s.db.QueryRow(query, chatID).Scan(&m.ID, &m.ChatID, &m.SenderID, &m.SenderName, &m.SenderPhoto, &m.Text, &m.SentAt, &m.Read)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLStore) UpdateChatLastMessage(chatID, text string, at time.Time) error {
	query := s.rebind(`UPDATE chats SET last_message = ?, last_message_time = ? WHERE id = ?`)
	_, err := s.db.Exec(query, text, at, chatID)
	return err
}

// deleteChat removes a chat with its messages and participant rows,
// messages first to respect the foreign keys.
func (s *SQLStore) deleteChat(chatID string) error {
	if _, err := s.db.Exec(s.rebind(`DELETE FROM messages WHERE chat_id = ?`), chatID); err != nil {
		return err
	}
	if _, err := s.db.Exec(s.rebind(`DELETE FROM chat_participants WHERE chat_id = ?`), chatID); err != nil {
		return err
	}
	_, err := s.db.Exec(s.rebind(`DELETE FROM chats WHERE id = ?`), chatID)
	return err
}
