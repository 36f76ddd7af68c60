// internal/socket/conn.go
package socket

import (
	"encoding/json"
	"log"
	"time"

	"food-rescue-api-server/internal/models"

	"github.com/gorilla/websocket"
)

const (
	// Thời gian chờ tối đa cho một tin nhắn từ client.
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second

	maxMessageSize = 8192
)

// Inbound message types.
const (
	MsgJoinRoom  = "join-room"
	MsgLeaveRoom = "leave-room"
	MsgPosition  = "position"
)

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type roomRequest struct {
	DonationID string `json:"donationId"`
}

type positionReport struct {
	DonationID string  `json:"donationId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Serve runs the connection until it closes. It registers c, writes queued frames from a second
// goroutine and disconnects c from the hub when the peer goes away.
func (h *Hub) Serve(conn *websocket.Conn, c *Client) {
	if err := h.Register(c); err != nil {
		log.Printf("Failed to register WebSocket client: %v", err)
		conn.Close()
		return
	}
	go writePump(conn, c)
	h.readPump(conn, c)
}

func (h *Hub) readPump(conn *websocket.Conn, c *Client) {
	defer func() {
		h.Disconnect(c.ID)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// Browsers behind some proxies ping us instead; answer and extend the deadline too.
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected close error: %v", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Dropping malformed message from %s: %v", c.ID, err)
			continue
		}
		if err := h.handle(c, msg); err != nil {
			log.Printf("Failed to handle %q from %s: %v", msg.Type, c.ID, err)
		}
	}
}

func (h *Hub) handle(c *Client, msg inbound) error {
	switch msg.Type {
	case MsgJoinRoom, MsgLeaveRoom:
		var req roomRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return err
		}
		if msg.Type == MsgJoinRoom {
			return h.JoinRoom(c.ID, req.DonationID)
		}
		return h.LeaveRoom(c.ID, req.DonationID)

	case MsgPosition:
		if c.Role != models.RoleVolunteer {
			return errNotCarrier
		}
		var req positionReport
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return err
		}
		// The reporting volunteer keeps watching the room it reports into.
		if err := h.JoinRoom(c.ID, req.DonationID); err != nil {
			return err
		}
		return h.ReportPosition(req.DonationID, c.ActorID, req.Latitude, req.Longitude)
	}
	return errUnknownMessage
}

func writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Messages():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub đã đóng kênh.
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
