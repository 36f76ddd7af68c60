package donation

import "food-rescue-api-server/internal/models"

// Notifier receives committed lifecycle transitions. Implementations must not block the caller
// on slow consumers.
type Notifier interface {
	AnnounceCreated(d models.Donation)
	AnnounceAccepted(donationID string, brokerLocation *models.Coordinate)
	AnnounceCarrierAssigned(donationID string, route models.RouteInfo)
	AnnounceDelivered(donationID string)
}

// Notifiers fans every announcement out to each notifier in order.
type Notifiers []Notifier

func (ns Notifiers) AnnounceCreated(d models.Donation) {
	for _, n := range ns {
		n.AnnounceCreated(d)
	}
}

func (ns Notifiers) AnnounceAccepted(donationID string, brokerLocation *models.Coordinate) {
	for _, n := range ns {
		n.AnnounceAccepted(donationID, brokerLocation)
	}
}

func (ns Notifiers) AnnounceCarrierAssigned(donationID string, route models.RouteInfo) {
	for _, n := range ns {
		n.AnnounceCarrierAssigned(donationID, route)
	}
}

func (ns Notifiers) AnnounceDelivered(donationID string) {
	for _, n := range ns {
		n.AnnounceDelivered(donationID)
	}
}
