package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyMessage = errors.New("message has neither text nor file")

// File describes an uploaded object a message may reference. The server never
// stores file bytes, only this descriptor.
type File struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// Message is one entry of a room's bounded log. Room, sender, text, file and
// timestamp are fixed at creation; ReadBy and Reactions only ever grow and are
// mutated exclusively by the owning log while it holds the room lock.
type Message struct {
	ID        string                `json:"id"`
	Room      RoomName              `json:"room"`
	Sender    Identity              `json:"sender"`
	Text      string                `json:"text,omitempty"`
	File      *File                 `json:"file,omitempty"`
	Timestamp int64                 `json:"timestamp"`
	ReadBy    []Identity            `json:"readBy"`
	Reactions map[string][]Identity `json:"reactions"`
}

// NewMessage builds a message for a room. The sender has implicitly read its
// own message, so ReadBy starts as {sender}.
func NewMessage(room RoomName, sender Identity, text string, file *File) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && file == nil {
		return nil, ErrEmptyMessage
	}
	return &Message{
		ID:        uuid.NewString(),
		Room:      room,
		Sender:    sender,
		Text:      text,
		File:      file,
		Timestamp: time.Now().UnixMilli(),
		ReadBy:    []Identity{sender},
		Reactions: map[string][]Identity{},
	}, nil
}

// Clone returns a deep copy safe to marshal outside the room lock.
func (m *Message) Clone() Message {
	out := *m
	out.ReadBy = append([]Identity(nil), m.ReadBy...)
	out.Reactions = make(map[string][]Identity, len(m.Reactions))
	for emoji, who := range m.Reactions {
		out.Reactions[emoji] = append([]Identity(nil), who...)
	}
	if m.File != nil {
		f := *m.File
		out.File = &f
	}
	return out
}
