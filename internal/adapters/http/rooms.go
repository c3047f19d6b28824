package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Chatter/internal/app"
)

// roomsHandler lists every room holding at least one message, for the lobby
// view. Joined-room state stays on the websocket side.
func roomsHandler(store *app.RoomStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": store.Rooms()})
	}
}
