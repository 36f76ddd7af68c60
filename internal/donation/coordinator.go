package donation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"food-rescue-api-server/internal/geo"
	"food-rescue-api-server/internal/models"

	"github.com/google/uuid"
)

// CookedShelfLife is the expiry given to cooked food created without one.
const CookedShelfLife = 4 * time.Hour

// DistanceSource is satisfied by *geo.Cache.
type DistanceSource interface {
	geo.DistanceLookup
	Ceiling() int
}

// CreateRequest carries what a restaurant supplies for a new donation.
type CreateRequest struct {
	Attributes models.DonationAttributes
	Expiry     *time.Time
}

// AvailableFilter narrows ListAvailable. Fields are ANDed; zero values match everything.
type AvailableFilter struct {
	Variety     string
	Category    string
	MinQuantity float64
}

// Listing is a donation as shown on a dashboard. Distance is only set when the listing was
// ranked from an origin.
type Listing struct {
	models.Donation
	SourceName     string             `json:"sourceName,omitempty"`
	SourceLocation *models.Coordinate `json:"sourceLocation,omitempty"`
	BrokerName     string             `json:"brokerName,omitempty"`
	BrokerLocation *models.Coordinate `json:"brokerLocation,omitempty"`
	Distance       *geo.Distance      `json:"distance,omitempty"`
}

// Party is one side of a handoff on the details view.
type Party struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Location *models.Coordinate `json:"location,omitempty"`
}

// Details is a donation with every actor attached to it, for the live maps.
type Details struct {
	Donation models.Donation `json:"donation"`
	Source   *Party          `json:"source"`
	Broker   *Party          `json:"broker"`
	Carrier  *Party          `json:"carrier"`
}

// Coordinator owns the donation state machine. Every transition is a conditional write on the
// store, so concurrent accepts or pickups on one donation have exactly one winner.
type Coordinator struct {
	store     Store
	actors    ActorDirectory
	distances DistanceSource
	notifier  Notifier
	photos    PhotoStore
	now       func() time.Time
	newID     func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets where committed transitions are announced.
func WithNotifier(n Notifier) Option { return func(c *Coordinator) { c.notifier = n } }

// WithPhotoStore enables AttachPhoto.
func WithPhotoStore(p PhotoStore) Option { return func(c *Coordinator) { c.photos = p } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option { return func(c *Coordinator) { c.newID = gen } }

// NewCoordinator wires the coordinator to its collaborators.
func NewCoordinator(store Store, actors ActorDirectory, distances DistanceSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		actors:    actors,
		distances: distances,
		notifier:  Notifiers(nil),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create validates the attributes and persists a new Available donation for sourceID.
func (c *Coordinator) Create(ctx context.Context, sourceID string, req CreateRequest) (models.Donation, error) {
	if strings.TrimSpace(sourceID) == "" {
		return models.Donation{}, validationf("source id is required")
	}
	attrs, err := normalizeAttributes(req.Attributes)
	if err != nil {
		return models.Donation{}, err
	}

	now := canonical(c.now())
	var expiry time.Time
	switch {
	case req.Expiry != nil:
		expiry = canonical(*req.Expiry)
	case attrs.Category == models.CategoryCooked:
		expiry = now.Add(CookedShelfLife)
	default:
		return models.Donation{}, validationf("expiry is required for %s food", attrs.Category)
	}

	ok, err := c.actors.Exists(ctx, sourceID, models.RoleRestaurant)
	if err != nil {
		return models.Donation{}, storeFailure("resolve restaurant", err)
	}
	if !ok {
		return models.Donation{}, fmt.Errorf("%w: restaurant %s", ErrNotFound, sourceID)
	}

	d := models.Donation{
		ID:         c.newID(),
		SourceID:   sourceID,
		Attributes: attrs,
		Expiry:     expiry,
		Status:     models.StatusAvailable,
		CreatedAt:  now,
	}
	if err := c.store.Insert(ctx, d); err != nil {
		return models.Donation{}, storeFailure("insert donation", err)
	}

	c.notifier.AnnounceCreated(d)
	return d, nil
}

// Accept assigns brokerID to an Available donation.
func (c *Coordinator) Accept(ctx context.Context, id, brokerID string) (models.Donation, error) {
	d, err := c.transition(ctx, id, EventAccept, brokerID, models.RoleNGO)
	if err != nil {
		return models.Donation{}, err
	}
	c.notifier.AnnounceAccepted(d.ID, c.locationOf(ctx, d.BrokerID))
	return d, nil
}

// Pickup assigns carrierID to an Accepted donation.
func (c *Coordinator) Pickup(ctx context.Context, id, carrierID string) (models.Donation, error) {
	d, err := c.transition(ctx, id, EventPickup, carrierID, models.RoleVolunteer)
	if err != nil {
		return models.Donation{}, err
	}
	c.notifier.AnnounceCarrierAssigned(d.ID, models.RouteInfo{
		CarrierID: d.CarrierID,
		Pickup:    c.locationOf(ctx, d.SourceID),
		Dropoff:   c.locationOf(ctx, d.BrokerID),
	})
	return d, nil
}

// Deliver marks a PickedUp donation Delivered.
func (c *Coordinator) Deliver(ctx context.Context, id string) (models.Donation, error) {
	d, err := c.transition(ctx, id, EventDeliver, "", "")
	if err != nil {
		return models.Donation{}, err
	}
	c.notifier.AnnounceDelivered(d.ID)
	return d, nil
}

// Delete removes a donation whatever its status.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: donation %s", ErrNotFound, id)
		}
		return storeFailure("delete donation", err)
	}
	return nil
}

func (c *Coordinator) transition(ctx context.Context, id string, ev Event, assigneeID string, role models.Role) (models.Donation, error) {
	if role != "" && strings.TrimSpace(assigneeID) == "" {
		return models.Donation{}, validationf("%s id is required", role)
	}

	current, err := c.Get(ctx, id)
	if err != nil {
		return models.Donation{}, err
	}

	from, to, field, err := Transition(current.Status, ev)
	if err != nil {
		var te *TransitionError
		if errors.As(err, &te) {
			te.DonationID = id
		}
		return models.Donation{}, err
	}

	if role != "" {
		ok, err := c.actors.Exists(ctx, assigneeID, role)
		if err != nil {
			return models.Donation{}, storeFailure("resolve "+string(role), err)
		}
		if !ok {
			return models.Donation{}, fmt.Errorf("%w: %s %s", ErrNotFound, role, assigneeID)
		}
	}

	updated, err := c.store.UpdateStatusAndAssignee(ctx, id, from, to, field, assigneeID)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, ErrStatusMismatch):
		// Someone else won the race between our read and our write.
		return models.Donation{}, &TransitionError{DonationID: id, Event: ev, Current: updated.Status}
	case errors.Is(err, ErrNotFound):
		return models.Donation{}, fmt.Errorf("%w: donation %s", ErrNotFound, id)
	default:
		return models.Donation{}, storeFailure("update donation", err)
	}
}

// Get returns one donation.
func (c *Coordinator) Get(ctx context.Context, id string) (models.Donation, error) {
	d, err := c.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Donation{}, fmt.Errorf("%w: donation %s", ErrNotFound, id)
		}
		return models.Donation{}, storeFailure("get donation", err)
	}
	return d, nil
}

// Details returns a donation with its source, broker and carrier.
func (c *Coordinator) Details(ctx context.Context, id string) (Details, error) {
	d, err := c.Get(ctx, id)
	if err != nil {
		return Details{}, err
	}
	out := Details{Donation: d}
	if out.Source, err = c.party(ctx, d.SourceID); err != nil {
		return Details{}, err
	}
	if out.Broker, err = c.party(ctx, d.BrokerID); err != nil {
		return Details{}, err
	}
	if out.Carrier, err = c.party(ctx, d.CarrierID); err != nil {
		return Details{}, err
	}
	return out, nil
}

// ListBySource returns a restaurant's donations, newest first.
func (c *Coordinator) ListBySource(ctx context.Context, sourceID string) ([]models.Donation, error) {
	return c.list(ctx, Filter{SourceID: sourceID})
}

// ListByBroker returns the donations an NGO accepted, newest first.
func (c *Coordinator) ListByBroker(ctx context.Context, brokerID string) ([]models.Donation, error) {
	return c.list(ctx, Filter{BrokerID: brokerID})
}

// ListForCarriers returns what volunteers can pick up or are carrying, newest first. Each
// listing names both ends of the trip: the restaurant and the NGO it is going to.
func (c *Coordinator) ListForCarriers(ctx context.Context) ([]Listing, error) {
	ds, err := c.list(ctx, Filter{Statuses: []models.DonationStatus{models.StatusAccepted, models.StatusPickedUp}})
	if err != nil {
		return nil, err
	}
	parties := make(map[string]*Party)
	listings, err := c.listingsWith(ctx, ds, parties)
	if err != nil {
		return nil, err
	}
	for i := range listings {
		p, err := c.cachedParty(ctx, parties, listings[i].BrokerID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			listings[i].BrokerName = p.Name
			listings[i].BrokerLocation = p.Location
		}
	}
	return listings, nil
}

// ListAvailable returns Available donations matching f. With an origin the result is ranked by
// road distance from it, otherwise it is newest first.
func (c *Coordinator) ListAvailable(ctx context.Context, f AvailableFilter, origin *models.Coordinate) ([]Listing, error) {
	filter := Filter{Statuses: []models.DonationStatus{models.StatusAvailable}, MinQuantity: f.MinQuantity}
	if f.MinQuantity < 0 {
		return nil, validationf("minimum quantity cannot be negative")
	}
	if f.Variety != "" {
		v, err := normalizeVariety(f.Variety)
		if err != nil {
			return nil, err
		}
		filter.Variety = v
	}
	if f.Category != "" {
		cat, err := normalizeCategory(f.Category)
		if err != nil {
			return nil, err
		}
		filter.Category = cat
	}
	return c.ranked(ctx, filter, origin)
}

// ListAccepted returns Accepted donations, ranked from origin when one is given.
func (c *Coordinator) ListAccepted(ctx context.Context, origin *models.Coordinate) ([]Listing, error) {
	return c.ranked(ctx, Filter{Statuses: []models.DonationStatus{models.StatusAccepted}}, origin)
}

// AttachPhoto uploads a photo of the donation. Only the creating restaurant may do it.
func (c *Coordinator) AttachPhoto(ctx context.Context, id, sourceID string, photo io.Reader, ext string) (models.Donation, error) {
	if c.photos == nil {
		return models.Donation{}, ErrPhotosDisabled
	}
	d, err := c.Get(ctx, id)
	if err != nil {
		return models.Donation{}, err
	}
	if d.SourceID != sourceID {
		return models.Donation{}, fmt.Errorf("%w: donation %s belongs to another restaurant", ErrForbidden, id)
	}

	key := fmt.Sprintf("donations/%s/%s%s", id, uuid.NewString(), ext)
	url, err := c.photos.UploadFile(ctx, photo, key)
	if err != nil {
		return models.Donation{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	if err := c.store.SetPhotoURL(ctx, id, url); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Donation{}, fmt.Errorf("%w: donation %s", ErrNotFound, id)
		}
		return models.Donation{}, storeFailure("set photo url", err)
	}
	d.PhotoURL = url
	return d, nil
}

func (c *Coordinator) list(ctx context.Context, f Filter) ([]models.Donation, error) {
	ds, err := c.store.ListByFilter(ctx, f)
	if err != nil {
		return nil, storeFailure("list donations", err)
	}
	return ds, nil
}

func (c *Coordinator) ranked(ctx context.Context, f Filter, origin *models.Coordinate) ([]Listing, error) {
	if origin != nil {
		if err := origin.Validate(); err != nil {
			return nil, validationf("origin: %v", err)
		}
	}
	ds, err := c.list(ctx, f)
	if err != nil {
		return nil, err
	}
	listings, err := c.listings(ctx, ds)
	if err != nil || origin == nil {
		return listings, err
	}

	ranked := geo.Rank(ctx, c.distances, c.distances.Ceiling(), *origin, listings, func(l Listing) *models.Coordinate {
		return l.SourceLocation
	})
	out := make([]Listing, len(ranked))
	for i, r := range ranked {
		dist := r.Distance
		out[i] = r.Item
		out[i].Distance = &dist
	}
	return out, nil
}

// listings joins each donation with its restaurant's name and location.
func (c *Coordinator) listings(ctx context.Context, ds []models.Donation) ([]Listing, error) {
	return c.listingsWith(ctx, ds, make(map[string]*Party))
}

func (c *Coordinator) listingsWith(ctx context.Context, ds []models.Donation, parties map[string]*Party) ([]Listing, error) {
	out := make([]Listing, 0, len(ds))
	for _, d := range ds {
		p, err := c.cachedParty(ctx, parties, d.SourceID)
		if err != nil {
			return nil, err
		}
		l := Listing{Donation: d}
		if p != nil {
			l.SourceName = p.Name
			l.SourceLocation = p.Location
		}
		out = append(out, l)
	}
	return out, nil
}

// cachedParty looks each actor up once per listing pass. Missing actors are cached as nil.
func (c *Coordinator) cachedParty(ctx context.Context, parties map[string]*Party, actorID string) (*Party, error) {
	if p, seen := parties[actorID]; seen {
		return p, nil
	}
	p, err := c.party(ctx, actorID)
	if err != nil {
		return nil, err
	}
	parties[actorID] = p
	return p, nil
}

// party returns nil for an empty id or an actor that no longer exists.
func (c *Coordinator) party(ctx context.Context, actorID string) (*Party, error) {
	if actorID == "" {
		return nil, nil
	}
	a, err := c.actors.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, storeFailure("get actor", err)
	}
	return &Party{ID: a.ID, Name: a.Name, Location: a.Location}, nil
}

// locationOf is best effort: the transition is already committed when it is called.
func (c *Coordinator) locationOf(ctx context.Context, actorID string) *models.Coordinate {
	loc, err := c.actors.LocationOf(ctx, actorID)
	if err != nil {
		log.Printf("Could not resolve location of actor %s: %v", actorID, err)
		return nil
	}
	return loc
}

func canonical(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func normalizeAttributes(a models.DonationAttributes) (models.DonationAttributes, error) {
	a.FoodName = strings.TrimSpace(a.FoodName)
	a.Description = strings.TrimSpace(a.Description)
	a.Quantity.Unit = strings.TrimSpace(a.Quantity.Unit)

	if a.FoodName == "" {
		return a, validationf("food name is required")
	}
	var err error
	if a.Variety, err = normalizeVariety(a.Variety); err != nil {
		return a, err
	}
	if a.Category, err = normalizeCategory(a.Category); err != nil {
		return a, err
	}
	if a.Quantity.Value <= 0 {
		return a, validationf("quantity must be positive")
	}
	if a.Quantity.Unit == "" {
		return a, validationf("unit is required")
	}
	return a, nil
}

func normalizeVariety(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case models.VarietyVeg:
		return models.VarietyVeg, nil
	case models.VarietyNonVeg, "non veg", "nonveg":
		return models.VarietyNonVeg, nil
	}
	return "", validationf("variety must be %q or %q", models.VarietyVeg, models.VarietyNonVeg)
}

func normalizeCategory(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case models.CategoryCooked:
		return models.CategoryCooked, nil
	case models.CategoryPackaged:
		return models.CategoryPackaged, nil
	}
	return "", validationf("category must be %q or %q", models.CategoryCooked, models.CategoryPackaged)
}
