package signal

import "github.com/dkeye/Chatter/internal/core"

func (ctl *ChatWSController) handlePing(
	conn core.SignalConnection,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.Cast.Unicast(conn, resp)
}
