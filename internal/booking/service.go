package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nekogravitycat/evently-backend/internal/auth"
	"github.com/nekogravitycat/evently-backend/internal/event"
	"github.com/nekogravitycat/evently-backend/internal/notify"
	"github.com/nekogravitycat/evently-backend/internal/resource"
)

type BookRequest struct {
	ResourceID string
	EventID    string
	Quantity   int
}

type UnbookRequest struct {
	BookingID  string
	ResourceID string
	Quantity   int
}

//go:generate mockgen -source=service.go -destination=mock/service_mock.go -package=mock

type Service interface {
	Book(ctx context.Context, req BookRequest, caller auth.Identity) (*BookResult, error)
	Unbook(ctx context.Context, req UnbookRequest, caller auth.Identity) (*UnbookResult, error)
	GetByID(ctx context.Context, id string, caller auth.Identity) (*Report, error)
	List(ctx context.Context, filter Filter, caller auth.Identity) ([]*Report, error)
	EventResources(ctx context.Context, eventID string) ([]EventLine, error)
}

type service struct {
	repo       Repository
	resService resource.Service
	evtService event.Service
	publisher  notify.Publisher
}

func NewService(repo Repository, resService resource.Service, evtService event.Service, publisher notify.Publisher) Service {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &service{
		repo:       repo,
		resService: resService,
		evtService: evtService,
		publisher:  publisher,
	}
}

func (s *service) getEvent(ctx context.Context, id string) (*event.Event, error) {
	e, err := s.evtService.GetByID(ctx, id)
	if errors.Is(err, event.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return e, err
}

func (s *service) Book(ctx context.Context, req BookRequest, caller auth.Identity) (*BookResult, error) {
	if !validQuantity(req.Quantity) {
		return nil, ErrInvalidQuantity
	}

	e, err := s.getEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	result, err := s.repo.Book(ctx, BookParams{
		ResourceID: req.ResourceID,
		EventID:    req.EventID,
		UserID:     caller.UserID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "resource booked",
		"booking_id", result.Booking.ID,
		"resource_id", req.ResourceID,
		"event_id", req.EventID,
		"quantity", req.Quantity,
		"available", result.Resource.Available,
	)
	s.publishChange(ctx, ChangeMessage{
		BookingID:  result.Booking.ID,
		EventID:    result.Booking.EventID,
		UserID:     result.Booking.UserID,
		ResourceID: req.ResourceID,
		Delta:      -req.Quantity,
		Available:  result.Resource.Available,
	})
	return result, nil
}

func (s *service) Unbook(ctx context.Context, req UnbookRequest, caller auth.Identity) (*UnbookResult, error) {
	if !validQuantity(req.Quantity) {
		return nil, ErrInvalidQuantity
	}

	result, err := s.repo.Unbook(ctx, UnbookParams{
		BookingID:  req.BookingID,
		ResourceID: req.ResourceID,
		Quantity:   req.Quantity,
		Authorize: func(b *Booking) error {
			if b.UserID != caller.UserID && !caller.IsAdmin() {
				return ErrPermissionDenied
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "resource released",
		"booking_id", req.BookingID,
		"resource_id", req.ResourceID,
		"released", result.Released,
		"available", result.Resource.Available,
		"booking_deleted", result.Deleted,
	)
	s.publishChange(ctx, ChangeMessage{
		BookingID:      result.Booking.ID,
		EventID:        result.Booking.EventID,
		UserID:         result.Booking.UserID,
		ResourceID:     req.ResourceID,
		Delta:          result.Released,
		Available:      result.Resource.Available,
		BookingDeleted: result.Deleted,
	})
	return result, nil
}

func (s *service) publishChange(ctx context.Context, msg ChangeMessage) {
	msg.At = time.Now().UTC()
	if err := s.publisher.Publish(ctx, notify.TopicBookingChanged, msg); err != nil {
		slog.WarnContext(ctx, "publish booking change failed", "booking_id", msg.BookingID, "error", err.Error())
	}
}

func (s *service) GetByID(ctx context.Context, id string, caller auth.Identity) (*Report, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	reports, err := s.buildReports(ctx, []*Booking{b})
	if err != nil {
		return nil, err
	}
	return reports[0], nil
}

// List returns every matching booking for admins. Everyone else only sees
// their own bookings regardless of the requested user.
func (s *service) List(ctx context.Context, filter Filter, caller auth.Identity) ([]*Report, error) {
	if !caller.IsAdmin() {
		filter.UserID = caller.UserID
	}

	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.buildReports(ctx, bookings)
}

func (s *service) EventResources(ctx context.Context, eventID string) ([]EventLine, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.List(ctx, Filter{EventID: eventID})
	if err != nil {
		return nil, err
	}

	resources, err := s.resService.GetMany(ctx, resourceIDs(bookings))
	if err != nil {
		return nil, err
	}

	var lines []EventLine
	for _, b := range bookings {
		for _, it := range b.Items {
			line := EventLine{
				Key:      LineKey{BookingID: b.ID, ResourceID: it.ResourceID},
				UserID:   b.UserID,
				Quantity: it.Quantity,
			}
			if res, ok := resources[it.ResourceID]; ok {
				line.ResourceName = res.Name
			}
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (s *service) buildReports(ctx context.Context, bookings []*Booking) ([]*Report, error) {
	reports := make([]*Report, 0, len(bookings))
	if len(bookings) == 0 {
		return reports, nil
	}

	resources, err := s.resService.GetMany(ctx, resourceIDs(bookings))
	if err != nil {
		return nil, err
	}

	eventIDs := make([]string, 0, len(bookings))
	seen := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		if _, ok := seen[b.EventID]; !ok {
			seen[b.EventID] = struct{}{}
			eventIDs = append(eventIDs, b.EventID)
		}
	}
	events, err := s.evtService.GetMany(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	for _, b := range bookings {
		r := &Report{
			ID:        b.ID,
			EventID:   b.EventID,
			UserID:    b.UserID,
			Items:     make([]ReportItem, 0, len(b.Items)),
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		}
		if e, ok := events[b.EventID]; ok {
			r.EventTitle = e.Title
		}
		for _, it := range b.Items {
			item := ReportItem{ResourceID: it.ResourceID, Quantity: it.Quantity}
			if res, ok := resources[it.ResourceID]; ok {
				item.ResourceName = res.Name
			}
			r.Items = append(r.Items, item)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func resourceIDs(bookings []*Booking) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, b := range bookings {
		for _, id := range b.ResourceIDs() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}
