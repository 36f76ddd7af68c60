// internal/api/handlers/websocket_handler.go
package handlers

import (
	"log"
	"net/http"

	"food-rescue-api-server/internal/auth"
	"food-rescue-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub        *socket.Hub
	Tokens     *auth.Tokens
	SendBuffer int
}

// ServeWs xử lý các yêu cầu kết nối WebSocket.
// Trình duyệt không gửi được header Authorization khi mở WebSocket nên token đi qua query.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := h.Tokens.Parse(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	// Mỗi kết nối có ID riêng, một actor có thể mở nhiều tab.
	client := socket.NewClient(uuid.NewString(), claims.ActorID, claims.Role, h.SendBuffer)
	h.Hub.Serve(conn, client)
}
