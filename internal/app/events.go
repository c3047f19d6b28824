package app

import "github.com/dkeye/Chatter/internal/domain"

// Outbound event envelopes. The Type tag is the closed dispatch set clients
// switch on.

type MessageEvent struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

type NotificationEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type TypingEvent struct {
	Type     string          `json:"type"`
	Room     domain.RoomName `json:"room"`
	Identity domain.Identity `json:"identity"`
	IsTyping bool            `json:"isTyping"`
}

type HistoryEvent struct {
	Type     string           `json:"type"`
	Room     domain.RoomName  `json:"room"`
	Messages []domain.Message `json:"messages"`
}

type RoomsEvent struct {
	Type  string            `json:"type"`
	Rooms []domain.RoomName `json:"rooms"`
}

type AckEvent struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
}

type LeftEvent struct {
	Type string          `json:"type"`
	Room domain.RoomName `json:"room"`
}

type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

const (
	EventMessage       = "message"
	EventMessageUpdate = "message_update"
	EventNotification  = "notification"
	EventTyping        = "typing"
	EventHistory       = "history"
	EventRooms         = "rooms"
	EventAck           = "ack"
	EventLeft          = "left"
	EventError         = "error"
)
