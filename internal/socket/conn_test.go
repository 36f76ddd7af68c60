package socket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"food-rescue-api-server/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHub(t *testing.T, h *Hub, role models.Role) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(conn, NewClient(r.URL.Query().Get("id"), "actor-1", role, 16))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?id=conn-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(inbound{Type: msgType, Data: raw}))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var r received
	require.NoError(t, conn.ReadJSON(&r))
	return r
}

func TestServeJoinAndReceive(t *testing.T) {
	h := NewHub()
	conn := serveHub(t, h, models.RoleNGO)

	send(t, conn, MsgJoinRoom, roomRequest{DonationID: "d1"})
	require.Eventually(t, func() bool { return h.Members("d1") == 1 }, time.Second, 5*time.Millisecond)

	h.AnnounceDelivered("d1")
	got := readEnvelope(t, conn)
	assert.Equal(t, EventDonationDelivered, got.Event)
	assert.Equal(t, "d1", got.Data["donationId"])

	send(t, conn, MsgLeaveRoom, roomRequest{DonationID: "d1"})
	require.Eventually(t, func() bool { return h.Members("d1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestServePositionFromVolunteer(t *testing.T) {
	h := NewHub()
	conn := serveHub(t, h, models.RoleVolunteer)

	// Reporting joins the room, so the volunteer sees its own report.
	send(t, conn, MsgPosition, positionReport{DonationID: "d7", Latitude: 19.1, Longitude: 72.8})
	got := readEnvelope(t, conn)
	assert.Equal(t, EventVolunteerLocation, got.Event)
	assert.Equal(t, "actor-1", got.Data["carrierId"])
	assert.Equal(t, 1, h.Members("d7"))
}

func TestServeIgnoresPositionFromOthers(t *testing.T) {
	h := NewHub()
	conn := serveHub(t, h, models.RoleNGO)

	send(t, conn, MsgPosition, positionReport{DonationID: "d7", Latitude: 19.1, Longitude: 72.8})
	send(t, conn, MsgJoinRoom, roomRequest{DonationID: "d8"})
	require.Eventually(t, func() bool { return h.Members("d8") == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, h.Members("d7"))
}

func TestServeDisconnectsOnClose(t *testing.T) {
	h := NewHub()
	conn := serveHub(t, h, models.RoleNGO)
	require.Eventually(t, func() bool { return h.Connected() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.Connected() == 0 }, time.Second, 5*time.Millisecond)
}

func TestServePositionWithoutDonationID(t *testing.T) {
	h := NewHub()
	conn := serveHub(t, h, models.RoleVolunteer)
	bystander := connect(t, h, "bystander", models.RoleNGO, 8)

	send(t, conn, MsgPosition, positionReport{Latitude: 19.1, Longitude: 72.8})
	send(t, conn, MsgPosition, positionReport{DonationID: "d7", Latitude: 19.1, Longitude: 72.8})
	got := readEnvelope(t, conn)
	assert.Equal(t, "d7", got.Room)
	assert.Equal(t, 0, h.Members(""))
	assert.Empty(t, drain(t, bystander))
}
