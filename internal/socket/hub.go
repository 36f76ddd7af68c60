// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"food-rescue-api-server/internal/models"
)

// Event names on the wire. The web clients already listen for these.
const (
	EventNewDonation       = "new-donation"
	EventDonationAccepted  = "donation-accepted"
	EventVolunteerAssigned = "volunteer-assigned"
	EventDonationDelivered = "donation-delivered"
	EventVolunteerLocation = "volunteer-location"
	EventUserDisconnected  = "user-disconnected"
)

// DefaultSendBuffer is how many frames a client may lag behind before it is evicted.
const DefaultSendBuffer = 256

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrDuplicateClient   = errors.New("connection already registered")
	ErrMissingDonationID = errors.New("donation id is required")

	errNotCarrier     = errors.New("only volunteers report positions")
	errUnknownMessage = errors.New("unknown message type")
)

// Envelope là cấu trúc chung của mọi tin nhắn gửi xuống client.
type Envelope struct {
	Event string `json:"event"`
	Room  string `json:"room,omitempty"`
	Data  any    `json:"data"`
}

// Client is one connection. Frames queued on send are written by the connection's writer in order.
type Client struct {
	ID      string
	ActorID string
	Role    models.Role

	send chan []byte

	// guarded by Hub.mu
	rooms  map[string]struct{}
	closed bool
}

// NewClient creates a client with a send buffer of the given size.
func NewClient(id, actorID string, role models.Role, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:      id,
		ActorID: actorID,
		Role:    role,
		send:    make(chan []byte, buffer),
		rooms:   make(map[string]struct{}),
	}
}

// Messages is closed when the hub drops the client.
func (c *Client) Messages() <-chan []byte { return c.send }

// Hub is the room registry. A room is keyed by donation id and holds the connections watching
// that handoff. Register, JoinRoom, LeaveRoom, Disconnect and the broadcasts are the only
// mutation points and all run under mu, so every member of a room sees its events in the same order.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	rooms   map[string]map[*Client]struct{}
}

// NewHub tạo một Hub mới.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register adds a connection to the global room.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateClient, c.ID)
	}
	h.clients[c.ID] = c
	log.Printf("WebSocket client registered: %s (actor %s)", c.ID, c.ActorID)
	return nil
}

// JoinRoom adds the connection to a donation's room. Joining twice is a no-op.
func (h *Hub) JoinRoom(connID, donationID string) error {
	if err := checkRoom(donationID); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	members, ok := h.rooms[donationID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[donationID] = members
	}
	members[c] = struct{}{}
	c.rooms[donationID] = struct{}{}
	return nil
}

// LeaveRoom removes the connection from a donation's room.
func (h *Hub) LeaveRoom(connID, donationID string) error {
	if err := checkRoom(donationID); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	h.leaveLocked(c, donationID)
	return nil
}

// Members returns how many connections are in a donation's room.
func (h *Hub) Members(donationID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[donationID])
}

// Connected returns how many connections are registered.
func (h *Hub) Connected() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Disconnect drops the connection from every room it joined and tells everyone it left.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	h.removeLocked(c)
	log.Printf("WebSocket client unregistered: %s", connID)
	h.deliverAllLocked(leftNotice(connID))
}

// AnnounceCreated tells every connected client about a new donation.
func (h *Hub) AnnounceCreated(d models.Donation) {
	h.broadcastAll(Envelope{Event: EventNewDonation, Data: d})
}

// AnnounceAccepted tells a donation's room which NGO accepted it and where it is.
func (h *Hub) AnnounceAccepted(donationID string, brokerLocation *models.Coordinate) {
	h.announceToRoom(Envelope{Event: EventDonationAccepted, Room: donationID, Data: map[string]any{
		"donationId":     donationID,
		"brokerLocation": brokerLocation,
	}})
}

// AnnounceCarrierAssigned tells a donation's room which volunteer is carrying it and the route.
func (h *Hub) AnnounceCarrierAssigned(donationID string, route models.RouteInfo) {
	h.announceToRoom(Envelope{Event: EventVolunteerAssigned, Room: donationID, Data: map[string]any{
		"donationId": donationID,
		"route":      route,
	}})
}

// AnnounceDelivered tells a donation's room the handoff is complete.
func (h *Hub) AnnounceDelivered(donationID string) {
	h.announceToRoom(Envelope{Event: EventDonationDelivered, Room: donationID, Data: map[string]any{
		"donationId": donationID,
	}})
}

// ReportPosition relays a volunteer's live position to a donation's room. There is no
// deduplication or rate limiting here.
func (h *Hub) ReportPosition(donationID, carrierID string, lat, lon float64) error {
	if err := checkRoom(donationID); err != nil {
		return err
	}
	pos := models.Coordinate{Latitude: lat, Longitude: lon}
	if err := pos.Validate(); err != nil {
		return err
	}
	h.broadcastRoom(Envelope{Event: EventVolunteerLocation, Room: donationID, Data: map[string]any{
		"donationId": donationID,
		"carrierId":  carrierID,
		"latitude":   lat,
		"longitude":  lon,
	}})
	return nil
}

// announceToRoom drops room announcements without a donation id; the lifecycle always has one.
func (h *Hub) announceToRoom(env Envelope) {
	if err := checkRoom(env.Room); err != nil {
		log.Printf("Dropping %s event: %v", env.Event, err)
		return
	}
	h.broadcastRoom(env)
}

func (h *Hub) broadcastRoom(env Envelope) {
	msg, ok := encode(env)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	members := make([]*Client, 0, len(h.rooms[env.Room]))
	for c := range h.rooms[env.Room] {
		members = append(members, c)
	}
	h.fanOutLocked(members, msg)
}

func (h *Hub) broadcastAll(env Envelope) {
	msg, ok := encode(env)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverAllLocked(msg)
}

func (h *Hub) deliverAllLocked(msg []byte) {
	all := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.fanOutLocked(all, msg)
}

// fanOutLocked queues msg for every target without blocking. A target whose buffer is full is
// evicted, and its departure is announced like a disconnect.
func (h *Hub) fanOutLocked(targets []*Client, msg []byte) {
	var evicted []*Client
	for _, c := range targets {
		if c.closed {
			continue
		}
		select {
		case c.send <- msg:
		default:
			evicted = append(evicted, c)
		}
	}

	for _, c := range evicted {
		h.removeLocked(c)
		log.Printf("WebSocket client %s is too slow, dropping it", c.ID)
	}
	for _, c := range evicted {
		h.deliverAllLocked(leftNotice(c.ID))
	}
}

func encode(env Envelope) ([]byte, bool) {
	msg, err := json.Marshal(env)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", env.Event, err)
		return nil, false
	}
	return msg, true
}

func checkRoom(donationID string) error {
	if strings.TrimSpace(donationID) == "" {
		return ErrMissingDonationID
	}
	return nil
}

func (h *Hub) leaveLocked(c *Client, donationID string) {
	delete(c.rooms, donationID)
	if members, ok := h.rooms[donationID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, donationID)
		}
	}
}

func (h *Hub) removeLocked(c *Client) {
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c.ID)
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func leftNotice(connID string) []byte {
	msg, _ := json.Marshal(Envelope{Event: EventUserDisconnected, Data: map[string]string{"connectionId": connID}})
	return msg
}
