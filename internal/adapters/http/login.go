package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chatter/internal/auth"
	"github.com/dkeye/Chatter/internal/domain"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// loginHandler is the credential-issuing collaborator: it validates the
// requested display name and returns a signed token embedding it. The name is
// also kept in the cookie session so /api/me can echo it for display.
func loginHandler(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username"})
			return
		}
		identity, err := domain.NewIdentity(req.Username)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username"})
			return
		}

		token, err := tokens.Issue(identity)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("token issue")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			return
		}

		session := sessions.Default(c)
		session.Set("username", string(identity))
		if err := session.Save(); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		}

		log.Info().Str("module", "adapters.http").Str("identity", string(identity)).Msg("issued token")
		c.JSON(http.StatusOK, LoginResponse{Token: token})
	}
}

// meHandler echoes the display name from the cookie session. Display only;
// identity on the socket always comes from token verification.
func meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		name, _ := session.Get("username").(string)
		if name == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": name})
	}
}
