package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chatter/internal/app"
	"github.com/dkeye/Chatter/internal/core"
	"github.com/dkeye/Chatter/internal/domain"
)

// handleMessage appends a message to its room's log, fans it out to every
// member including the sender, and unicasts a delivery ack. The ack confirms
// persistence and fanout initiation, not per-recipient receipt.
func (ctl *ChatWSController) handleMessage(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type messagePayload struct {
		Type string       `json:"type"`
		Room string       `json:"room"`
		Text string       `json:"text"`
		File *domain.File `json:"file"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	identity, ok := ctl.Registry.IdentityOf(sid)
	if !ok {
		return
	}
	if !ctl.Limiter.Allow(identity) {
		ctl.sendError(conn, "rate_limited")
		return
	}

	room, ok := ctl.roomOrCurrent(sid, p.Room)
	if !ok {
		ctl.sendError(conn, "bad_room_name")
		return
	}

	msg, err := domain.NewMessage(room, identity, p.Text, p.File)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			ctl.sendError(conn, "empty_message")
			return
		}
		ctl.sendError(conn, "bad_payload")
		return
	}

	stored := ctl.Store.Append(msg)
	ctl.Cast.Message(stored)
	ctl.Cast.Unicast(conn, app.AckEvent{
		Type:      app.EventAck,
		Status:    "delivered",
		MessageID: stored.ID,
	})
}

// handleReact applies an idempotent reaction. An unknown or already evicted
// message id is absorbed silently, since eviction racing a late reaction is
// expected and benign.
func (ctl *ChatWSController) handleReact(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type reactPayload struct {
		Type      string `json:"type"`
		MessageID string `json:"message_id"`
		Emoji     string `json:"emoji"`
	}
	var p reactPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Emoji == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad react payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	identity, ok := ctl.Registry.IdentityOf(sid)
	if !ok {
		return
	}
	if snap, changed := ctl.Store.AddReaction(p.MessageID, identity, p.Emoji); changed {
		ctl.Cast.MessageUpdate(snap)
	}
}

// handleRead records a read receipt; same silent no-op rules as reactions.
func (ctl *ChatWSController) handleRead(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type readPayload struct {
		Type      string `json:"type"`
		MessageID string `json:"message_id"`
	}
	var p readPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad read payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	identity, ok := ctl.Registry.IdentityOf(sid)
	if !ok {
		return
	}
	if snap, changed := ctl.Store.MarkRead(p.MessageID, identity); changed {
		ctl.Cast.MessageUpdate(snap)
	}
}

// roomOrCurrent resolves an optional room field against the session's most
// recently joined room.
func (ctl *ChatWSController) roomOrCurrent(sid core.SessionID, raw string) (domain.RoomName, bool) {
	if raw == "" {
		return ctl.Registry.CurrentRoom(sid)
	}
	room, err := domain.NewRoomName(raw)
	if err != nil {
		return "", false
	}
	return room, true
}
