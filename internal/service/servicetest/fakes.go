// Package servicetest provides in-memory stand-ins for the stores, Redis and
// the event publisher used by the services.
package servicetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"semisto-service/internal/cart"
	"semisto-service/internal/models"
	"semisto-service/internal/portal"
	"semisto-service/internal/redisclient"
	"semisto-service/internal/store"
	"semisto-service/internal/workflow"
)

func roundTrip[T any](v *T) *T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

type Redis struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart
	runs  map[string]*workflow.Run
	Locks map[string]bool
	idem  map[string]string
}

func NewRedis() *Redis {
	return &Redis{
		carts: map[string]*cart.Cart{},
		runs:  map[string]*workflow.Run{},
		Locks: map[string]bool{},
		idem:  map[string]string{},
	}
}

func (m *Redis) GetCart(ctx context.Context, id string, ttl time.Duration) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return nil, redisclient.ErrNotFound
	}
	return roundTrip(c), nil
}

func (m *Redis) SaveCart(ctx context.Context, c *cart.Cart, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.ID] = roundTrip(c)
	return nil
}

func (m *Redis) DeleteCart(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, id)
	return nil
}

func (m *Redis) GetRun(ctx context.Context, id string) (*workflow.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, redisclient.ErrNotFound
	}
	return roundTrip(r), nil
}

func (m *Redis) SaveRun(ctx context.Context, run *workflow.Run, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = roundTrip(run)
	return nil
}

func (m *Redis) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Locks[key] {
		return false, nil
	}
	m.Locks[key] = true
	return true, nil
}

func (m *Redis) ReleaseLock(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Locks, key)
	return nil
}

func (m *Redis) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idem[key] = fmt.Sprint(value)
	return nil
}

func (m *Redis) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.idem[key]
	if !ok {
		return "", redisclient.ErrNotFound
	}
	return v, nil
}

type Catalog struct {
	Items   []models.Product
	Pickups []models.PickupLocation
	Events  []models.Event
	Courses []models.Course
}

func NewCatalog() *Catalog {
	return &Catalog{
		Items: []models.Product{
			{ID: "p1", Name: "Pommier Reinette", Category: "fruitiers", Price: 25, Stock: 5},
			{ID: "p2", Name: "Poirier Conférence", Category: "fruitiers", Price: 12.5, Stock: 3},
			{ID: "p3", Name: "Cassissier", Category: "petits-fruits", Price: 8, Stock: 0},
			{ID: "p4", Name: "Thym", Category: "aromatiques", Price: 4.9, Stock: 10},
		},
		Pickups: []models.PickupLocation{
			{LabID: "lab-wallonie", Name: "Semisto Wallonie", Address: "Rue de la Forêt 12, Namur"},
		},
		Events: []models.Event{
			{ID: "event-1", Title: "Portes ouvertes", Price: 0, SpotsTotal: 30, SpotsAvailable: 30},
			{ID: "event-2", Title: "Atelier greffe", Price: 15, SpotsTotal: 12, SpotsAvailable: 3},
		},
		Courses: []models.Course{
			{ID: "course-1", Slug: "design-jardin-foret", Title: "Design de jardin-forêt", Price: 350, SpotsTotal: 16, SpotsAvailable: 4},
		},
	}
}

func (f *Catalog) Products(ctx context.Context, country string) []models.Product {
	return f.Items
}

func (f *Catalog) ProductByID(ctx context.Context, id string) (models.Product, bool) {
	for _, p := range f.Items {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (f *Catalog) PickupLocation(ctx context.Context, labID string) (models.PickupLocation, bool) {
	for _, p := range f.Pickups {
		if p.LabID == labID {
			return p, true
		}
	}
	return models.PickupLocation{}, false
}

func (f *Catalog) EventByID(ctx context.Context, id string) (models.Event, bool) {
	for _, e := range f.Events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func (f *Catalog) CourseByID(ctx context.Context, id string) (models.Course, bool) {
	for _, c := range f.Courses {
		if c.ID == id || c.Slug == id {
			return c, true
		}
	}
	return models.Course{}, false
}

// Store implements every store interface the services need. Set FailCreate
// to make order and donation inserts fail.
type Store struct {
	mu            sync.Mutex
	nextID        int64
	Orders        []*models.Order
	Items         map[int64][]models.OrderItem
	Donations     []*models.Donation
	Registrations []*models.Registration
	Progress      map[string]models.FundingProgress
	Allocations   []*models.FundingAllocation
	Processed     map[string]string
	FailCreate    error
}

func NewStore() *Store {
	return &Store{
		Items:     map[int64][]models.OrderItem{},
		Progress:  map[string]models.FundingProgress{},
		Processed: map[string]string{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return s.FailCreate
	}
	order.ID = s.id()
	order.CreatedAt = time.Now()
	for i := range items {
		items[i].OrderID = order.ID
		items[i].ID = s.id()
	}
	s.Orders = append(s.Orders, order)
	s.Items[order.ID] = items
	return nil
}

func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Orders {
		if o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, nil
}

func (s *Store) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Orders {
		if o.Reference == reference {
			return o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Orders {
		if o.ID == orderID {
			o.Status = status
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Items[orderID], nil
}

func (s *Store) CreateDonation(ctx context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return s.FailCreate
	}
	d.ID = s.id()
	s.Donations = append(s.Donations, d)
	return nil
}

func (s *Store) GetDonationByIdempotencyKey(ctx context.Context, key string) (*models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.Donations {
		if d.IdempotencyKey == key {
			return d, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateRegistration(ctx context.Context, r *models.Registration, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	booked := 0
	for _, existing := range s.Registrations {
		if existing.TargetType == r.TargetType && existing.TargetID == r.TargetID {
			booked += existing.Seats
		}
	}
	if booked+r.Seats > capacity {
		return store.ErrSoldOut
	}
	r.ID = s.id()
	s.Registrations = append(s.Registrations, r)
	return nil
}

func (s *Store) GetRegistrationByIdempotencyKey(ctx context.Context, key string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Registrations {
		if r.IdempotencyKey == key {
			return r, nil
		}
	}
	return nil, nil
}

func (s *Store) CountSeats(ctx context.Context, targetType, targetID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.Registrations {
		if r.TargetType == targetType && r.TargetID == targetID {
			n += r.Seats
		}
	}
	return n, nil
}

func (s *Store) AllocateFundingTx(ctx context.Context, proposal models.FundingProposal, alloc *models.FundingAllocation) (*models.FundingProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Progress[proposal.ID]
	if !ok {
		p = models.FundingProgress{ProposalID: proposal.ID, TargetAmount: proposal.TargetAmount, RaisedAmount: proposal.RaisedAmount}
	}
	applied := portal.Allocate(p.TargetAmount, p.RaisedAmount, alloc.RequestedAmount)
	p.RaisedAmount = applied.Raised
	p.UpdatedAt = time.Now()
	s.Progress[proposal.ID] = p

	alloc.ID = s.id()
	alloc.ProposalID = proposal.ID
	alloc.Amount = applied.Applied
	alloc.CreatedAt = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	s.Allocations = append(s.Allocations, alloc)
	return &p, nil
}

func (s *Store) GetFundingProgress(ctx context.Context, proposalID string) (*models.FundingProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Progress[proposalID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListFundingProgress(ctx context.Context) (map[string]models.FundingProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.FundingProgress, len(s.Progress))
	for k, v := range s.Progress {
		out[k] = v
	}
	return out, nil
}

func (s *Store) GetAllocationByIdempotencyKey(ctx context.Context, key string) (*models.FundingAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Allocations {
		if a.IdempotencyKey == key {
			return a, nil
		}
	}
	return nil, nil
}

func (s *Store) ListAllocationsByPartner(ctx context.Context, partnerID string) ([]models.FundingAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FundingAllocation
	for _, a := range s.Allocations {
		if a.PartnerID == partnerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Processed[eventID]
	return ok, nil
}

func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed[eventID] = eventType
	return nil
}

type Publisher struct {
	mu            sync.Mutex
	Orders        []*models.OrderPlacedEvent
	Donations     []*models.DonationRecordedEvent
	Fundings      []*models.FundingAllocatedEvent
	Registrations []*models.RegistrationConfirmedEvent
	Err           error
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, e *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Orders = append(p.Orders, e)
	return p.Err
}

func (p *Publisher) PublishDonationRecorded(ctx context.Context, e *models.DonationRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Donations = append(p.Donations, e)
	return p.Err
}

func (p *Publisher) PublishFundingAllocated(ctx context.Context, e *models.FundingAllocatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Fundings = append(p.Fundings, e)
	return p.Err
}

func (p *Publisher) PublishRegistrationConfirmed(ctx context.Context, e *models.RegistrationConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Registrations = append(p.Registrations, e)
	return p.Err
}
