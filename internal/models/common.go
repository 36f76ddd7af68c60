// internal/models/common.go
package models

import (
	"fmt"
	"math"
)

// Quantity định nghĩa đơn vị và giá trị số lượng.
type Quantity struct {
	Unit  string  `bson:"unit" json:"unit"`
	Value float64 `bson:"value" json:"value"`
}

// Coordinate is a WGS84 point. Restaurants and NGOs store one; volunteers only stream them.
type Coordinate struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Validate checks the latitude/longitude bounds. NaN and infinities are never valid.
func (c Coordinate) Validate() error {
	if !finite(c.Latitude) || !finite(c.Longitude) {
		return fmt.Errorf("coordinate must be finite, got (%v, %v)", c.Latitude, c.Longitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", c.Longitude)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RouteInfo is what a volunteer's map needs once they are assigned: where to pick up and where to drop off.
type RouteInfo struct {
	CarrierID string      `json:"carrierId"`
	Pickup    *Coordinate `json:"pickup,omitempty"`
	Dropoff   *Coordinate `json:"dropoff,omitempty"`
}
