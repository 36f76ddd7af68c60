// internal/models/user.go
package models

import "time"

// Role is the part an actor plays in a handoff.
type Role string

const (
	RoleRestaurant Role = "restaurant" // source
	RoleNGO        Role = "ngo"        // broker
	RoleVolunteer  Role = "volunteer"  // carrier
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRestaurant, RoleNGO, RoleVolunteer:
		return true
	}
	return false
}

// Actor matches the document in the "actors" collection.
type Actor struct {
	ID           string      `bson:"_id" json:"id"`
	Role         Role        `bson:"role" json:"role"`
	Name         string      `bson:"name" json:"name"`
	Email        string      `bson:"email" json:"email"`
	PasswordHash string      `bson:"passwordHash" json:"-"`
	Location     *Coordinate `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt    time.Time   `bson:"createdAt" json:"createdAt"`
}

// LeaderboardEntry tổng hợp đóng góp của một actor.
type LeaderboardEntry struct {
	ActorID    string `json:"actorId"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Donations  int    `json:"donations"`
	Received   int    `json:"received"`
	Transports int    `json:"transports"`
}

// Total is the ranking key of the leaderboard.
func (e LeaderboardEntry) Total() int {
	return e.Donations + e.Received + e.Transports
}
