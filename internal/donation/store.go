package donation

import (
	"context"
	"io"

	"food-rescue-api-server/internal/models"
)

// Store is the durable record store for donations. Implementations must make
// UpdateStatusAndAssignee atomic: either every field of the transition is written or none is.
type Store interface {
	// Insert persists a new donation. d.ID is assigned by the caller.
	Insert(ctx context.Context, d models.Donation) error

	// GetByID returns ErrNotFound when no donation has the id.
	GetByID(ctx context.Context, id string) (models.Donation, error)

	// UpdateStatusAndAssignee moves the donation from expected to next and sets the assignee field,
	// only if its status is still expected. It returns ErrStatusMismatch when the stored status
	// differs and ErrNotFound when the donation is gone.
	UpdateStatusAndAssignee(ctx context.Context, id string, expected, next models.DonationStatus, field AssigneeField, assigneeID string) (models.Donation, error)

	// SetPhotoURL records the photo of a donation.
	SetPhotoURL(ctx context.Context, id, url string) error

	// Delete returns ErrNotFound when nothing was removed.
	Delete(ctx context.Context, id string) error

	// ListByFilter returns matching donations, newest first.
	ListByFilter(ctx context.Context, f Filter) ([]models.Donation, error)
}

// ActorDirectory resolves restaurants, NGOs and volunteers.
type ActorDirectory interface {
	Exists(ctx context.Context, actorID string, role models.Role) (bool, error)
	// LocationOf returns nil when the actor has no stored coordinate.
	LocationOf(ctx context.Context, actorID string) (*models.Coordinate, error)
	Get(ctx context.Context, actorID string) (models.Actor, error)
}

// ActorRegistry is the directory plus the write side used by signup.
type ActorRegistry interface {
	ActorDirectory
	Create(ctx context.Context, a models.Actor) error
	FindByEmail(ctx context.Context, email string) (models.Actor, error)
	List(ctx context.Context) ([]models.Actor, error)
}

// PhotoStore uploads a donation photo and returns its public URL.
type PhotoStore interface {
	UploadFile(ctx context.Context, file io.Reader, objectKey string) (string, error)
}

// Filter is a conjunctive predicate over donations. Zero fields match everything.
type Filter struct {
	SourceID    string
	BrokerID    string
	Statuses    []models.DonationStatus
	Variety     string
	Category    string
	MinQuantity float64
}

// Matches evaluates the filter in memory.
func (f Filter) Matches(d models.Donation) bool {
	if f.SourceID != "" && d.SourceID != f.SourceID {
		return false
	}
	if f.BrokerID != "" && d.BrokerID != f.BrokerID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if d.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Variety != "" && d.Attributes.Variety != f.Variety {
		return false
	}
	if f.Category != "" && d.Attributes.Category != f.Category {
		return false
	}
	if f.MinQuantity > 0 && d.Attributes.Quantity.Value < f.MinQuantity {
		return false
	}
	return true
}
