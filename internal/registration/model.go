package registration

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/evently-backend/internal/pkg/apperror"
)

var (
	ErrAlreadyRegistered = apperror.New(http.StatusConflict, "already registered for this event")
	ErrNotRegistered     = apperror.New(http.StatusNotFound, "not registered for this event")
	ErrEventNotFound     = apperror.New(http.StatusNotFound, "event not found")
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Registration is a user's sign-up for an event. The user's email and name
// are copied from the identity token at registration time.
type Registration struct {
	ID        string
	EventID   string
	UserID    string
	UserEmail string
	UserName  string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	// Populated by listings.
	EventTitle string
	EventStart time.Time
	EventEnd   time.Time
}

// ConfirmationMessage carries what the confirmation email needs.
type ConfirmationMessage struct {
	RegistrationID string    `json:"registrationId"`
	EventID        string    `json:"eventId"`
	EventTitle     string    `json:"eventTitle"`
	EventLocation  string    `json:"eventLocation"`
	StartDateTime  time.Time `json:"startDateTime"`
	EndDateTime    time.Time `json:"endDateTime"`
	UserID         string    `json:"userId"`
	UserEmail      string    `json:"userEmail"`
	UserName       string    `json:"userName"`
}
