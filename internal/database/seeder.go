// internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"log"
	"time"

	"food-rescue-api-server/internal/auth"
	"food-rescue-api-server/internal/donation"
	"food-rescue-api-server/internal/models"
)

const demoPassword = "demopassword"

var demoActors = []models.Actor{
	{ID: "demo-restaurant", Role: models.RoleRestaurant, Name: "Demo Kitchen", Email: "restaurant@example.com",
		Location: &models.Coordinate{Latitude: 19.0760, Longitude: 72.8777}},
	{ID: "demo-ngo", Role: models.RoleNGO, Name: "Demo Food Bank", Email: "ngo@example.com",
		Location: &models.Coordinate{Latitude: 19.0896, Longitude: 72.8656}},
	{ID: "demo-volunteer", Role: models.RoleVolunteer, Name: "Demo Rider", Email: "volunteer@example.com"},
}

// SeedDemoActors đảm bảo có sẵn một nhà hàng, một NGO và một tình nguyện viên để thử nghiệm.
func SeedDemoActors(ctx context.Context, actors donation.ActorRegistry) error {
	hashedPassword, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	for _, a := range demoActors {
		_, err := actors.FindByEmail(ctx, a.Email)
		if err == nil {
			log.Printf("Demo actor %s already exists. Seeding skipped.", a.Email)
			continue
		}
		if !errors.Is(err, donation.ErrNotFound) {
			return err
		}

		a.PasswordHash = hashedPassword
		a.CreatedAt = time.Now().UTC()
		if err := actors.Create(ctx, a); err != nil {
			return err
		}
		log.Printf("Demo actor %s seeded successfully.", a.Email)
	}
	return nil
}
