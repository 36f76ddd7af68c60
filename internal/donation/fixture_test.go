package donation

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"food-rescue-api-server/internal/geo"
	"food-rescue-api-server/internal/models"
)

var baseTime = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

// fakeDistances answers by destination coordinate; missing entries are unavailable.
type fakeDistances map[models.Coordinate]geo.Distance

func (f fakeDistances) DistanceBetween(_ context.Context, _, b models.Coordinate) geo.Distance {
	if d, ok := f[b]; ok {
		return d
	}
	return geo.Unavailable
}

func (f fakeDistances) Ceiling() int { return 3 }

type announcement struct {
	kind       string
	donationID string
	location   *models.Coordinate
	route      models.RouteInfo
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []announcement
}

func (r *recordingNotifier) add(a announcement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, a)
}

func (r *recordingNotifier) AnnounceCreated(d models.Donation) {
	r.add(announcement{kind: "created", donationID: d.ID})
}

func (r *recordingNotifier) AnnounceAccepted(id string, loc *models.Coordinate) {
	r.add(announcement{kind: "accepted", donationID: id, location: loc})
}

func (r *recordingNotifier) AnnounceCarrierAssigned(id string, route models.RouteInfo) {
	r.add(announcement{kind: "carrier-assigned", donationID: id, route: route})
}

func (r *recordingNotifier) AnnounceDelivered(id string) {
	r.add(announcement{kind: "delivered", donationID: id})
}

func (r *recordingNotifier) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	for i, a := range r.got {
		out[i] = a.kind
	}
	return out
}

type fakePhotos struct {
	keys []string
	err  error
}

func (f *fakePhotos) UploadFile(_ context.Context, file io.Reader, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

// brokenStore fails every call, like a database that went away.
type brokenStore struct{}

var errDown = errors.New("connection refused")

func (brokenStore) Insert(context.Context, models.Donation) error { return errDown }
func (brokenStore) GetByID(context.Context, string) (models.Donation, error) {
	return models.Donation{}, errDown
}
func (brokenStore) UpdateStatusAndAssignee(context.Context, string, models.DonationStatus, models.DonationStatus, AssigneeField, string) (models.Donation, error) {
	return models.Donation{}, errDown
}
func (brokenStore) SetPhotoURL(context.Context, string, string) error { return errDown }
func (brokenStore) Delete(context.Context, string) error { return errDown }
func (brokenStore) ListByFilter(context.Context, Filter) ([]models.Donation, error) {
	return nil, errDown
}

var (
	kitchenLoc  = models.Coordinate{Latitude: 19.07, Longitude: 72.87}
	foodBankLoc = models.Coordinate{Latitude: 19.10, Longitude: 72.90}
)

func testActors() *MemoryActors {
	return NewMemoryActors(
		models.Actor{ID: "r1", Role: models.RoleRestaurant, Name: "Kitchen", Email: "r1@example.com", Location: &kitchenLoc},
		models.Actor{ID: "r2", Role: models.RoleRestaurant, Name: "Bakery", Email: "r2@example.com", Location: &models.Coordinate{Latitude: 19.2, Longitude: 72.8}},
		models.Actor{ID: "n1", Role: models.RoleNGO, Name: "Food Bank", Email: "n1@example.com", Location: &foodBankLoc},
		models.Actor{ID: "n2", Role: models.RoleNGO, Name: "Shelter", Email: "n2@example.com", Location: &models.Coordinate{Latitude: 19.3, Longitude: 72.7}},
		models.Actor{ID: "v1", Role: models.RoleVolunteer, Name: "Rider", Email: "v1@example.com"},
		models.Actor{ID: "v2", Role: models.RoleVolunteer, Name: "Cyclist", Email: "v2@example.com"},
	)
}

type fixture struct {
	coord    *Coordinator
	store    *MemoryStore
	actors   *MemoryActors
	notifier *recordingNotifier
}

// newFixture returns a coordinator whose clock advances one minute per reading, so donations
// created later are strictly newer.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	var mu sync.Mutex
	tick := 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := baseTime.Add(time.Duration(tick) * time.Minute)
		tick++
		return now
	}

	f := &fixture{store: NewMemoryStore(), actors: testActors(), notifier: &recordingNotifier{}}
	opts = append([]Option{WithNotifier(f.notifier), WithClock(clock)}, opts...)
	f.coord = NewCoordinator(f.store, f.actors, fakeDistances{}, opts...)
	return f
}

func cooked(name string) CreateRequest {
	return CreateRequest{Attributes: models.DonationAttributes{
		FoodName: name,
		Variety:  models.VarietyVeg,
		Category: models.CategoryCooked,
		Quantity: models.Quantity{Value: 10, Unit: "plates"},
	}}
}
