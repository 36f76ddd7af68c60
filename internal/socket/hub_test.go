package socket

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"food-rescue-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	Event string         `json:"event"`
	Room  string         `json:"room"`
	Data  map[string]any `json:"data"`
}

// drain returns whatever is queued for c without blocking.
func drain(t *testing.T, c *Client) []received {
	t.Helper()
	var out []received
	for {
		select {
		case msg, ok := <-c.Messages():
			if !ok {
				return out
			}
			var r received
			require.NoError(t, json.Unmarshal(msg, &r))
			out = append(out, r)
		default:
			return out
		}
	}
}

func events(rs []received) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Event
	}
	return out
}

func connect(t *testing.T, h *Hub, id string, role models.Role, buffer int) *Client {
	t.Helper()
	c := NewClient(id, "actor-"+id, role, buffer)
	require.NoError(t, h.Register(c))
	return c
}

func TestRegister(t *testing.T) {
	h := NewHub()
	connect(t, h, "c1", models.RoleNGO, 8)
	assert.ErrorIs(t, h.Register(NewClient("c1", "x", models.RoleNGO, 8)), ErrDuplicateClient)
	assert.ErrorIs(t, h.JoinRoom("ghost", "d1"), ErrUnknownConnection)
	assert.ErrorIs(t, h.LeaveRoom("ghost", "d1"), ErrUnknownConnection)
	assert.Equal(t, 1, h.Connected())
}

func TestAnnounceCreatedReachesEveryone(t *testing.T) {
	h := NewHub()
	a := connect(t, h, "a", models.RoleNGO, 8)
	b := connect(t, h, "b", models.RoleVolunteer, 8)

	h.AnnounceCreated(models.Donation{ID: "d1", Status: models.StatusAvailable})

	for _, c := range []*Client{a, b} {
		got := drain(t, c)
		require.Len(t, got, 1)
		assert.Equal(t, EventNewDonation, got[0].Event)
		assert.Equal(t, "d1", got[0].Data["id"])
	}
}

func TestRoomEventsOnlyReachMembers(t *testing.T) {
	h := NewHub()
	member := connect(t, h, "member", models.RoleNGO, 8)
	outsider := connect(t, h, "outsider", models.RoleNGO, 8)
	require.NoError(t, h.JoinRoom("member", "d1"))

	h.AnnounceAccepted("d1", &models.Coordinate{Latitude: 19.1, Longitude: 72.9})

	got := drain(t, member)
	require.Len(t, got, 1)
	assert.Equal(t, EventDonationAccepted, got[0].Event)
	assert.Equal(t, "d1", got[0].Room)
	assert.Equal(t, map[string]any{"latitude": 19.1, "longitude": 72.9}, got[0].Data["brokerLocation"])
	assert.Empty(t, drain(t, outsider))
}

func TestLateJoinerGetsNoReplay(t *testing.T) {
	h := NewHub()
	early := connect(t, h, "early", models.RoleNGO, 8)
	late := connect(t, h, "late", models.RoleRestaurant, 8)
	require.NoError(t, h.JoinRoom("early", "d1"))

	h.AnnounceAccepted("d1", nil)
	require.NoError(t, h.JoinRoom("late", "d1"))
	h.AnnounceCarrierAssigned("d1", models.RouteInfo{CarrierID: "v1"})

	assert.Equal(t, []string{EventDonationAccepted, EventVolunteerAssigned}, events(drain(t, early)))
	assert.Equal(t, []string{EventVolunteerAssigned}, events(drain(t, late)))
}

func TestJoinIsIdempotent(t *testing.T) {
	h := NewHub()
	c := connect(t, h, "c", models.RoleNGO, 8)
	require.NoError(t, h.JoinRoom("c", "d1"))
	require.NoError(t, h.JoinRoom("c", "d1"))
	require.NoError(t, h.JoinRoom("c", "d2"))
	assert.Equal(t, 1, h.Members("d1"))

	h.AnnounceDelivered("d1")
	h.AnnounceDelivered("d2")
	assert.Len(t, drain(t, c), 2)

	require.NoError(t, h.LeaveRoom("c", "d1"))
	assert.Equal(t, 0, h.Members("d1"))
	h.AnnounceDelivered("d1")
	assert.Empty(t, drain(t, c))
}

func TestDisconnect(t *testing.T) {
	h := NewHub()
	gone := connect(t, h, "gone", models.RoleVolunteer, 8)
	stays := connect(t, h, "stays", models.RoleNGO, 8)
	require.NoError(t, h.JoinRoom("gone", "d1"))
	require.NoError(t, h.JoinRoom("gone", "d2"))
	require.NoError(t, h.JoinRoom("stays", "d1"))

	h.Disconnect("gone")

	assert.Equal(t, 1, h.Members("d1"))
	assert.Equal(t, 0, h.Members("d2"))
	assert.Equal(t, 1, h.Connected())

	got := drain(t, stays)
	require.Len(t, got, 1)
	assert.Equal(t, EventUserDisconnected, got[0].Event)
	assert.Equal(t, "gone", got[0].Data["connectionId"])

	_, open := <-gone.Messages()
	assert.False(t, open)

	// Later room events skip the departed client and a second disconnect is a no-op.
	h.AnnounceDelivered("d1")
	h.Disconnect("gone")
	assert.Equal(t, []string{EventDonationDelivered}, events(drain(t, stays)))
}

func TestReportPosition(t *testing.T) {
	h := NewHub()
	watcher := connect(t, h, "w", models.RoleRestaurant, 8)
	require.NoError(t, h.JoinRoom("w", "d1"))

	require.NoError(t, h.ReportPosition("d1", "v1", 19.2, 72.8))
	assert.Error(t, h.ReportPosition("d1", "v1", 120, 72.8))

	got := drain(t, watcher)
	require.Len(t, got, 1)
	assert.Equal(t, EventVolunteerLocation, got[0].Event)
	assert.Equal(t, "v1", got[0].Data["carrierId"])
	assert.Equal(t, 19.2, got[0].Data["latitude"])
}

func TestMembersSeeRoomEventsInOneOrder(t *testing.T) {
	h := NewHub()
	const reports = 100
	a := connect(t, h, "a", models.RoleNGO, reports*2)
	b := connect(t, h, "b", models.RoleRestaurant, reports*2)
	require.NoError(t, h.JoinRoom("a", "d1"))
	require.NoError(t, h.JoinRoom("b", "d1"))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < reports/4; i++ {
				h.ReportPosition("d1", fmt.Sprintf("v%d", w), float64(i%90), 0)
			}
		}(w)
	}
	wg.Wait()

	gotA, gotB := drain(t, a), drain(t, b)
	require.Len(t, gotA, reports)
	assert.Equal(t, gotA, gotB)
}

func TestSlowClientIsEvicted(t *testing.T) {
	h := NewHub()
	slow := connect(t, h, "slow", models.RoleNGO, 1)
	fast := connect(t, h, "fast", models.RoleRestaurant, 16)
	require.NoError(t, h.JoinRoom("slow", "d1"))
	require.NoError(t, h.JoinRoom("fast", "d1"))

	for i := 0; i < 3; i++ {
		require.NoError(t, h.ReportPosition("d1", "v1", float64(i), 0))
	}

	assert.Equal(t, 1, h.Members("d1"))
	assert.Equal(t, 1, h.Connected())
	assert.Equal(t, []string{
		EventVolunteerLocation,
		EventVolunteerLocation,
		EventUserDisconnected,
		EventVolunteerLocation,
	}, events(drain(t, fast)))

	// The slow client keeps what it had queued, then sees its channel closed.
	assert.Len(t, drain(t, slow), 1)
	_, open := <-slow.Messages()
	assert.False(t, open)
}

func TestBlankDonationIDIsNotARoom(t *testing.T) {
	h := NewHub()
	connect(t, h, "vol", models.RoleVolunteer, 8)
	bystander := connect(t, h, "bystander", models.RoleRestaurant, 8)

	for _, id := range []string{"", "   ", "\t"} {
		t.Run(fmt.Sprintf("id %q", id), func(t *testing.T) {
			assert.ErrorIs(t, h.JoinRoom("vol", id), ErrMissingDonationID)
			assert.ErrorIs(t, h.LeaveRoom("vol", id), ErrMissingDonationID)
			assert.ErrorIs(t, h.ReportPosition(id, "v1", 19.1, 72.8), ErrMissingDonationID)
			h.AnnounceAccepted(id, &models.Coordinate{Latitude: 19, Longitude: 72})
			h.AnnounceCarrierAssigned(id, models.RouteInfo{})
			h.AnnounceDelivered(id)

			assert.Equal(t, 0, h.Members(id))
			assert.Empty(t, drain(t, bystander))
		})
	}

	t.Run("global events still reach everyone", func(t *testing.T) {
		h.AnnounceCreated(models.Donation{ID: "d1"})
		assert.Equal(t, []string{EventNewDonation}, events(drain(t, bystander)))
	})
}
