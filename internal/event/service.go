package event

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

type CreateRequest struct {
	OrganizerID   string
	Title         string
	Description   string
	Location      string
	ImageURL      string
	StartDateTime time.Time
	EndDateTime   time.Time
	Price         string
	IsFree        bool
	URL           string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	GetMany(ctx context.Context, ids []string) (map[string]*Event, error)
	List(ctx context.Context, filter Filter) ([]*Event, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func textInRange(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Event, error) {
	e := &Event{
		OrganizerID:   req.OrganizerID,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Location:      strings.TrimSpace(req.Location),
		ImageURL:      req.ImageURL,
		StartDateTime: req.StartDateTime.UTC(),
		EndDateTime:   req.EndDateTime.UTC(),
		Price:         strings.TrimSpace(req.Price),
		IsFree:        req.IsFree,
		URL:           req.URL,
	}

	if utf8.RuneCountInString(e.Title) < 3 {
		return nil, ErrInvalidTitle
	}
	if !textInRange(e.Description, 3, 400) || !textInRange(e.Location, 3, 400) {
		return nil, ErrInvalidText
	}
	if !e.StartDateTime.Before(e.EndDateTime) {
		return nil, ErrInvalidTimeRange
	}
	if e.IsFree {
		e.Price = ""
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "event created", "event_id", e.ID, "organizer_id", e.OrganizerID)
	return e, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetMany(ctx context.Context, ids []string) (map[string]*Event, error) {
	return s.repo.GetMany(ctx, ids)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Event, int, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	return s.repo.List(ctx, filter)
}
