// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"food-rescue-api-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys on the donation topic exchange.
const (
	KeyCreated   = "donation.created"
	KeyAccepted  = "donation.accepted"
	KeyPickedUp  = "donation.picked_up"
	KeyDelivered = "donation.delivered"
)

const publishTimeout = 5 * time.Second

// Event is the body of every published message.
type Event struct {
	Type       string             `json:"type"`
	DonationID string             `json:"donationId"`
	Donation   *models.Donation   `json:"donation,omitempty"`
	Location   *models.Coordinate `json:"location,omitempty"`
	Route      *models.RouteInfo  `json:"route,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher forwards committed lifecycle transitions to a RabbitMQ topic exchange so other
// services (reporting, SMS alerts) can follow them. It implements donation.Notifier.
// Publishing happens on a background goroutine so a slow broker never holds up a request.
type Publisher struct {
	ch       Channel
	conn     *amqp.Connection
	exchange string
	queue    chan outgoing
	wg       sync.WaitGroup
	now      func() time.Time

	mu     sync.Mutex // guards closed and sends on queue
	closed bool
}

type outgoing struct {
	key  string
	body []byte
}

// Dial connects to the broker and declares the exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	p := NewPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

// NewPublisher starts a publisher on an open channel.
func NewPublisher(ch Channel, exchange string) *Publisher {
	p := &Publisher{
		ch:       ch,
		exchange: exchange,
		queue:    make(chan outgoing, 1024),
		now:      time.Now,
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.ch.PublishWithContext(ctx, p.exchange, msg.key, false, false, amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg.body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now(),
		})
		cancel()
		if err != nil {
			log.Printf("CRITICAL: Failed to publish %s event: %v", msg.key, err)
		}
	}
}

// Close drains pending events and closes the channel and connection. Events announced after
// Close are dropped. Closing twice is a no-op.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *Publisher) AnnounceCreated(d models.Donation) {
	p.enqueue(KeyCreated, Event{DonationID: d.ID, Donation: &d})
}

func (p *Publisher) AnnounceAccepted(donationID string, brokerLocation *models.Coordinate) {
	p.enqueue(KeyAccepted, Event{DonationID: donationID, Location: brokerLocation})
}

func (p *Publisher) AnnounceCarrierAssigned(donationID string, route models.RouteInfo) {
	p.enqueue(KeyPickedUp, Event{DonationID: donationID, Route: &route})
}

func (p *Publisher) AnnounceDelivered(donationID string) {
	p.enqueue(KeyDelivered, Event{DonationID: donationID})
}

func (p *Publisher) enqueue(key string, ev Event) {
	ev.Type = key
	ev.OccurredAt = p.now().UTC()
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("CRITICAL: Failed to encode %s event: %v", key, err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		log.Printf("CRITICAL: Publisher closed, dropping %s event for donation %s", key, ev.DonationID)
		return
	}
	select {
	case p.queue <- outgoing{key: key, body: body}:
	default:
		log.Printf("CRITICAL: Event queue full, dropping %s for donation %s", key, ev.DonationID)
	}
}
