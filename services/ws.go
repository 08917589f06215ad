package services

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/numberplay/numberplay-backend/auth"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the live result feed. The access token travels
// in the token query parameter; anything but a valid token for a real user
// is rejected before the connection joins a group.
func HandleWebSocket(hub *Hub, tokens *auth.TokenManager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.VerifyAccess(c.Query("token"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return
		}

		client := newClient(hub, conn, claims.UserID, log)
		hub.Join(claims.UserID, client)
		log.Debugf("websocket client %s connected for user %d", client.id, claims.UserID)

		client.sendEnvelope(Envelope{
			Type:    "connection_established",
			Message: "Connected to game channel",
		})

		go client.writePump()
		go client.readPump()
	}
}
