package booking_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/evently-backend/internal/booking"
	"github.com/nekogravitycat/evently-backend/internal/event"
	"github.com/nekogravitycat/evently-backend/internal/resource"
)

// memRepository is an in-memory ledger with the same contract as the stores.
type memRepository struct {
	mu        sync.Mutex
	resources map[string]*resource.Resource
	bookings  map[string]*booking.Booking
}

func newMemRepository() *memRepository {
	return &memRepository{
		resources: make(map[string]*resource.Resource),
		bookings:  make(map[string]*booking.Booking),
	}
}

func (m *memRepository) addResource(name string, quantity int) *resource.Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := &resource.Resource{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      resource.TypeMaterial,
		Quantity:  quantity,
		Available: quantity,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.resources[res.ID] = res
	return cloneResource(res)
}

func (m *memRepository) resource(id string) *resource.Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneResource(m.resources[id])
}

func (m *memRepository) setAvailable(id string, available int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[id].Available = available
}

// reserved sums every line item that references the resource.
func (m *memRepository) reserved(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.bookings {
		if it, ok := b.Item(id); ok {
			total += it.Quantity
		}
	}
	return total
}

func (m *memRepository) Book(_ context.Context, p booking.BookParams) (*booking.BookResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.resources[p.ResourceID]
	if !ok {
		return nil, booking.ErrResourceNotFound
	}
	if res.Available < p.Quantity {
		return nil, booking.NewInsufficientAvailability(res.ID, p.Quantity, res.Available)
	}
	res.Available -= p.Quantity

	var b *booking.Booking
	for _, existing := range m.bookings {
		if existing.EventID == p.EventID && existing.UserID == p.UserID {
			b = existing
			break
		}
	}
	now := time.Now()
	if b == nil {
		b = &booking.Booking{ID: uuid.NewString(), EventID: p.EventID, UserID: p.UserID, CreatedAt: now}
		m.bookings[b.ID] = b
	}
	b.UpdatedAt = now

	found := false
	for i := range b.Items {
		if b.Items[i].ResourceID == p.ResourceID {
			b.Items[i].Quantity += p.Quantity
			found = true
		}
	}
	if !found {
		b.Items = append(b.Items, booking.LineItem{ResourceID: p.ResourceID, Quantity: p.Quantity, CreatedAt: now})
	}

	return &booking.BookResult{Resource: cloneResource(res), Booking: cloneBooking(b)}, nil
}

func (m *memRepository) Unbook(_ context.Context, p booking.UnbookParams) (*booking.UnbookResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[p.BookingID]
	if !ok {
		return nil, booking.ErrNotFound
	}
	if p.Authorize != nil {
		if err := p.Authorize(cloneBooking(b)); err != nil {
			return nil, err
		}
	}
	res, ok := m.resources[p.ResourceID]
	if !ok {
		return nil, booking.ErrResourceNotFound
	}
	item, ok := b.Item(p.ResourceID)
	if !ok {
		return nil, booking.ErrLineItemNotFound
	}

	released := min(p.Quantity, item.Quantity)
	res.Available = min(res.Quantity, res.Available+released)

	items := b.Items[:0]
	for _, it := range b.Items {
		if it.ResourceID == p.ResourceID {
			it.Quantity -= released
			if it.Quantity == 0 {
				continue
			}
		}
		items = append(items, it)
	}
	b.Items = items

	deleted := len(b.Items) == 0
	if deleted {
		delete(m.bookings, b.ID)
	}
	return &booking.UnbookResult{
		Resource: cloneResource(res),
		Booking:  cloneBooking(b),
		Released: released,
		Deleted:  deleted,
	}, nil
}

func (m *memRepository) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (m *memRepository) List(_ context.Context, f booking.Filter) ([]*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*booking.Booking
	for _, b := range m.bookings {
		if f.EventID != "" && b.EventID != f.EventID {
			continue
		}
		if f.UserID != "" && b.UserID != f.UserID {
			continue
		}
		if f.ResourceID != "" {
			if _, ok := b.Item(f.ResourceID); !ok {
				continue
			}
		}
		out = append(out, cloneBooking(b))
	}
	return out, nil
}

func cloneResource(r *resource.Resource) *resource.Resource {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	c := *b
	c.Items = append([]booking.LineItem(nil), b.Items...)
	return &c
}

// fakeResources serves the resource lookups the service needs from memRepository.
type fakeResources struct {
	resource.Service
	repo *memRepository
}

func (f fakeResources) GetMany(_ context.Context, ids []string) (map[string]*resource.Resource, error) {
	out := make(map[string]*resource.Resource, len(ids))
	for _, id := range ids {
		if r := f.repo.resource(id); r != nil {
			out[id] = r
		}
	}
	return out, nil
}

type fakeEvents struct {
	event.Service
	events map[string]*event.Event
}

func newFakeEvents(evts ...*event.Event) fakeEvents {
	f := fakeEvents{events: make(map[string]*event.Event)}
	for _, e := range evts {
		f.events[e.ID] = e
	}
	return f
}

func (f fakeEvents) GetByID(_ context.Context, id string) (*event.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, event.ErrNotFound
	}
	return e, nil
}

func (f fakeEvents) GetMany(_ context.Context, ids []string) (map[string]*event.Event, error) {
	out := make(map[string]*event.Event)
	for _, id := range ids {
		if e, ok := f.events[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

type publishedMessage struct {
	topic   string
	payload any
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{topic: topic, payload: payload})
	return nil
}

func (p *recordingPublisher) changes() []booking.ChangeMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []booking.ChangeMessage
	for _, m := range p.messages {
		if msg, ok := m.payload.(booking.ChangeMessage); ok {
			out = append(out, msg)
		}
	}
	return out
}
