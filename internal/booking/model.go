package booking

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/evently-backend/internal/pkg/apperror"
)

var (
	ErrNotFound                 = apperror.New(http.StatusNotFound, "booking not found")
	ErrResourceNotFound         = apperror.New(http.StatusNotFound, "resource not found")
	ErrEventNotFound            = apperror.New(http.StatusNotFound, "event not found")
	ErrLineItemNotFound         = apperror.New(http.StatusNotFound, "resource is not part of this booking")
	ErrInvalidQuantity          = apperror.New(http.StatusBadRequest, "quantity must be a positive integer")
	ErrInsufficientAvailability = apperror.New(http.StatusConflict, "insufficient availability")
	ErrPermissionDenied         = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvalidLineKey           = apperror.New(http.StatusBadRequest, "invalid line key")
)

// MaxQuantity bounds a single Book or Unbook to what an integer column holds.
const MaxQuantity = math.MaxInt32

func validQuantity(q int) bool {
	return q > 0 && q <= MaxQuantity
}

// InsufficientAvailabilityError reports how many units were actually left.
// errors.Is(err, ErrInsufficientAvailability) holds for it.
type InsufficientAvailabilityError struct {
	ResourceID string
	Requested  int
	Available  int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("only %d available", e.Available)
}

func (e *InsufficientAvailabilityError) Is(target error) bool {
	return target == ErrInsufficientAvailability
}

// NewInsufficientAvailability builds the 409 returned when a Book cannot be satisfied.
func NewInsufficientAvailability(resourceID string, requested, available int) error {
	ie := &InsufficientAvailabilityError{ResourceID: resourceID, Requested: requested, Available: available}
	return apperror.Wrap(ie, http.StatusConflict, ie.Error())
}

// LineItem is the quantity of one resource held by a booking.
type LineItem struct {
	ResourceID string
	Quantity   int
	CreatedAt  time.Time
}

// Booking is one user's reservation for one event. It exists only while it
// has at least one line item and is unique per (EventID, UserID).
type Booking struct {
	ID        string
	EventID   string
	UserID    string
	Items     []LineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item returns the line item for resourceID.
func (b *Booking) Item(resourceID string) (LineItem, bool) {
	for _, it := range b.Items {
		if it.ResourceID == resourceID {
			return it, true
		}
	}
	return LineItem{}, false
}

// ResourceIDs lists the resources referenced by the booking in item order.
func (b *Booking) ResourceIDs() []string {
	ids := make([]string, len(b.Items))
	for i, it := range b.Items {
		ids[i] = it.ResourceID
	}
	return ids
}

// LineKey addresses a single line item.
type LineKey struct {
	BookingID  string
	ResourceID string
}

const lineKeySep = "/"

func (k LineKey) String() string {
	return k.BookingID + lineKeySep + k.ResourceID
}

func (k LineKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *LineKey) UnmarshalText(text []byte) error {
	parsed, err := ParseLineKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseLineKey parses the "<bookingId>/<resourceId>" form produced by String.
func ParseLineKey(s string) (LineKey, error) {
	bookingID, resourceID, ok := strings.Cut(s, lineKeySep)
	if !ok {
		return LineKey{}, ErrInvalidLineKey
	}
	if _, err := uuid.Parse(bookingID); err != nil {
		return LineKey{}, ErrInvalidLineKey
	}
	if _, err := uuid.Parse(resourceID); err != nil {
		return LineKey{}, ErrInvalidLineKey
	}
	return LineKey{BookingID: bookingID, ResourceID: resourceID}, nil
}

// Filter narrows booking listings; empty fields match everything.
type Filter struct {
	EventID    string
	UserID     string
	ResourceID string
}

// ReportItem is a line item with its resource name resolved.
type ReportItem struct {
	ResourceID   string
	ResourceName string
	Quantity     int
}

// Report is the reporting projection of a booking.
type Report struct {
	ID         string
	EventID    string
	EventTitle string
	UserID     string
	Items      []ReportItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EventLine is one row of an event's resource sub-view.
type EventLine struct {
	Key          LineKey
	UserID       string
	ResourceName string
	Quantity     int
}

// ChangeMessage is published after every successful Book or Unbook.
type ChangeMessage struct {
	BookingID      string    `json:"bookingId"`
	EventID        string    `json:"eventId"`
	UserID         string    `json:"userId"`
	ResourceID     string    `json:"resourceId"`
	Delta          int       `json:"delta"`
	Available      int       `json:"available"`
	BookingDeleted bool      `json:"bookingDeleted"`
	At             time.Time `json:"at"`
}
