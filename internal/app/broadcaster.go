package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chatter/internal/core"
	"github.com/dkeye/Chatter/internal/domain"
)

// Broadcaster fans events out to room members. It is stateless: membership is
// resolved through the registry at call time, so delivery goes to the exact
// snapshot of members at the instant of the call. Sends are non-blocking;
// a connection that cannot keep up misses the frame and recovers it from its
// next history read.
type Broadcaster struct {
	Registry *Registry
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{Registry: reg}
}

// Message delivers a newly appended message to every member of its room,
// including the sender: the sender relies on the broadcast, not a local echo.
func (b *Broadcaster) Message(msg domain.Message) {
	b.fanout(msg.Room, "", MessageEvent{Type: EventMessage, Message: msg})
}

// MessageUpdate delivers a reaction/read-receipt change to the whole room.
func (b *Broadcaster) MessageUpdate(msg domain.Message) {
	b.fanout(msg.Room, "", MessageEvent{Type: EventMessageUpdate, Message: msg})
}

// Notification delivers a short text event to the room, excluding the
// originating connection.
func (b *Broadcaster) Notification(room domain.RoomName, from core.SessionID, text string) {
	b.fanout(room, from, NotificationEvent{Type: EventNotification, Text: text})
}

// Typing delivers a presence signal to the room, excluding the actor.
func (b *Broadcaster) Typing(room domain.RoomName, from core.SessionID, identity domain.Identity, isTyping bool) {
	b.fanout(room, from, TypingEvent{Type: EventTyping, Room: room, Identity: identity, IsTyping: isTyping})
}

// Unicast sends an event to a single connection only.
func (b *Broadcaster) Unicast(conn core.SignalConnection, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Msg("unicast marshal")
		return
	}
	_ = conn.TrySend(frame)
}

// fanout marshals once and best-effort delivers to the membership snapshot.
// An empty from means nobody is excluded.
func (b *Broadcaster) fanout(room domain.RoomName, from core.SessionID, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Msg("fanout marshal")
		return
	}
	sent, dropped := 0, 0
	for _, m := range b.Registry.MembersOf(room) {
		if from != "" && m.SID == from {
			continue
		}
		if err := m.Conn.TrySend(frame); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.broadcaster").Str("room", string(room)).Int("sent", sent).Int("dropped", dropped).Msg("fanout")
}
