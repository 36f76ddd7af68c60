// internal/models/donation.go
package models

import "time"

// DonationStatus is the closed set of lifecycle states of a donation.
type DonationStatus string

const (
	StatusAvailable DonationStatus = "available"
	StatusAccepted  DonationStatus = "accepted"
	StatusPickedUp  DonationStatus = "picked_up"
	StatusDelivered DonationStatus = "delivered"
)

// Valid reports whether s is a known status.
func (s DonationStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusAccepted, StatusPickedUp, StatusDelivered:
		return true
	}
	return false
}

// HasBroker reports whether a donation in status s must carry a broker.
func (s DonationStatus) HasBroker() bool {
	return s == StatusAccepted || s == StatusPickedUp || s == StatusDelivered
}

// HasCarrier reports whether a donation in status s must carry a carrier.
func (s DonationStatus) HasCarrier() bool {
	return s == StatusPickedUp || s == StatusDelivered
}

const (
	VarietyVeg    = "veg"
	VarietyNonVeg = "non-veg"

	CategoryCooked   = "cooked"
	CategoryPackaged = "packaged"
)

// DonationAttributes mô tả thực phẩm được quyên góp.
type DonationAttributes struct {
	FoodName    string   `bson:"foodName" json:"foodName"`
	Variety     string   `bson:"variety" json:"variety"`   // veg | non-veg
	Category    string   `bson:"category" json:"category"` // cooked | packaged
	Quantity    Quantity `bson:"quantity" json:"quantity"`
	Description string   `bson:"description" json:"description"`
}

// Donation matches the document in the "donations" collection.
type Donation struct {
	ID         string             `bson:"_id" json:"id"`
	SourceID   string             `bson:"sourceId" json:"sourceId"`
	BrokerID   string             `bson:"brokerId,omitempty" json:"brokerId,omitempty"`
	CarrierID  string             `bson:"carrierId,omitempty" json:"carrierId,omitempty"`
	Attributes DonationAttributes `bson:"attributes" json:"attributes"`
	Expiry     time.Time          `bson:"expiry" json:"expiry"`
	Status     DonationStatus     `bson:"status" json:"status"`
	PhotoURL   string             `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
