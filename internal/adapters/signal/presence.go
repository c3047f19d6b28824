package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chatter/internal/core"
)

// handleTyping records the ephemeral flag and fans it out, excluding the
// actor. The room may be left implicit; then the session's current room is
// used.
func (ctl *ChatWSController) handleTyping(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type typingPayload struct {
		Type     string `json:"type"`
		Room     string `json:"room"`
		IsTyping bool   `json:"isTyping"`
	}
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad typing payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	identity, ok := ctl.Registry.IdentityOf(sid)
	if !ok {
		return
	}
	room, ok := ctl.roomOrCurrent(sid, p.Room)
	if !ok {
		ctl.sendError(conn, "bad_room_name")
		return
	}
	ctl.Presence.SetTyping(room, sid, identity, p.IsTyping)
}
