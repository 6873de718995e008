package registration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nekogravitycat/evently-backend/internal/auth"
	"github.com/nekogravitycat/evently-backend/internal/event"
	"github.com/nekogravitycat/evently-backend/internal/notify"
)

type Service interface {
	Register(ctx context.Context, eventID string, user auth.Identity) (*Registration, error)
	IsRegistered(ctx context.Context, eventID, userID string) (bool, error)
	Cancel(ctx context.Context, eventID, userID string) (*Registration, error)
	ListMine(ctx context.Context, userID string, status Status) ([]*Registration, error)
}

type service struct {
	repo       Repository
	evtService event.Service
	publisher  notify.Publisher
}

// NewService builds the registration service. publisher should not block;
// wrap slow transports in notify.Async.
func NewService(repo Repository, evtService event.Service, publisher notify.Publisher) Service {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &service{repo: repo, evtService: evtService, publisher: publisher}
}

func (s *service) Register(ctx context.Context, eventID string, user auth.Identity) (*Registration, error) {
	e, err := s.evtService.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	reg := &Registration{
		EventID:   eventID,
		UserID:    user.UserID,
		UserEmail: user.Email,
		UserName:  user.Name,
	}
	if err := s.repo.Register(ctx, reg); err != nil {
		return nil, err
	}
	reg.EventTitle = e.Title
	reg.EventStart = e.StartDateTime
	reg.EventEnd = e.EndDateTime

	slog.InfoContext(ctx, "registered for event", "event_id", eventID, "user_id", user.UserID)

	// The registration stands even when the confirmation cannot be sent.
	if err := s.publisher.Publish(ctx, notify.TopicRegistrationConfirmed, ConfirmationMessage{
		RegistrationID: reg.ID,
		EventID:        e.ID,
		EventTitle:     e.Title,
		EventLocation:  e.Location,
		StartDateTime:  e.StartDateTime,
		EndDateTime:    e.EndDateTime,
		UserID:         user.UserID,
		UserEmail:      user.Email,
		UserName:       user.Name,
	}); err != nil {
		slog.WarnContext(ctx, "publish registration confirmation failed", "registration_id", reg.ID, "error", err.Error())
	}
	return reg, nil
}

func (s *service) IsRegistered(ctx context.Context, eventID, userID string) (bool, error) {
	reg, err := s.repo.Get(ctx, eventID, userID)
	if errors.Is(err, ErrNotRegistered) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return reg.Status == StatusConfirmed, nil
}

func (s *service) Cancel(ctx context.Context, eventID, userID string) (*Registration, error) {
	reg, err := s.repo.Cancel(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "registration cancelled", "event_id", eventID, "user_id", userID)
	return reg, nil
}

func (s *service) ListMine(ctx context.Context, userID string, status Status) ([]*Registration, error) {
	return s.repo.ListByUser(ctx, userID, status)
}
