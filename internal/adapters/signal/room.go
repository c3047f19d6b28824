package signal

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chatter/internal/app"
	"github.com/dkeye/Chatter/internal/core"
	"github.com/dkeye/Chatter/internal/domain"
)

// handleJoin adds the session to a room (creating it implicitly), unicasts
// the recent history to the joiner and notifies the other members.
func (ctl *ChatWSController) handleJoin(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	room, err := domain.NewRoomName(p.Room)
	if err != nil {
		ctl.sendError(conn, "bad_room_name")
		return
	}

	if !ctl.Registry.Join(sid, room) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room)).Msg("join")

	ctl.Cast.Unicast(conn, app.HistoryEvent{
		Type:     app.EventHistory,
		Room:     room,
		Messages: ctl.Store.RecentHistory(room, ctl.HistoryLimit),
	})

	if identity, ok := ctl.Registry.IdentityOf(sid); ok {
		ctl.Cast.Notification(room, sid, fmt.Sprintf("%s joined %s", identity, room))
	}
}

// handleLeave drops the room from the session's joined set; the connection
// itself stays up.
func (ctl *ChatWSController) handleLeave(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type leavePayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	room, err := domain.NewRoomName(p.Room)
	if err != nil {
		ctl.sendError(conn, "bad_room_name")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room)).Msg("leave")
	ctl.Registry.Leave(sid, room)
	ctl.Cast.Unicast(conn, app.LeftEvent{Type: app.EventLeft, Room: room})
}

// sendRooms unicasts the session's joined rooms, on connect and on request.
func (ctl *ChatWSController) sendRooms(sid core.SessionID, conn core.SignalConnection) {
	ctl.Cast.Unicast(conn, app.RoomsEvent{
		Type:  app.EventRooms,
		Rooms: ctl.Registry.RoomsOf(sid),
	})
}
