package geo

import (
	"encoding/json"
	"fmt"
	"math"

	"food-rescue-api-server/internal/models"
)

// Distance is a road distance in kilometres or the Unavailable sentinel.
type Distance struct {
	km    float64
	known bool
}

// Unavailable means the distance could not be determined. It sorts after every known distance.
var Unavailable = Distance{}

// Km builds a known distance rounded to two decimals.
func Km(v float64) Distance {
	return Distance{km: math.Round(v*100) / 100, known: true}
}

// Known reports whether d carries a value.
func (d Distance) Known() bool { return d.known }

// Kilometres returns the value and whether it is known.
func (d Distance) Kilometres() (float64, bool) { return d.km, d.known }

// Less orders known distances ascending and puts unavailable last.
func (d Distance) Less(o Distance) bool {
	if d.known != o.known {
		return d.known
	}
	return d.known && d.km < o.km
}

func (d Distance) String() string {
	if !d.known {
		return "N/A"
	}
	return fmt.Sprintf("%.2f km", d.km)
}

// MarshalJSON renders the sentinel as "N/A", the value clients already understand.
func (d Distance) MarshalJSON() ([]byte, error) {
	if !d.known {
		return []byte(`"N/A"`), nil
	}
	return json.Marshal(d.km)
}

// Key identifies an ordered coordinate pair: (a, b) and (b, a) are different keys.
type Key string

// KeyFor builds the cache key for a lookup from a to b.
func KeyFor(a, b models.Coordinate) Key {
	return Key(fmt.Sprintf("%v,%v-%v,%v", a.Latitude, a.Longitude, b.Latitude, b.Longitude))
}
