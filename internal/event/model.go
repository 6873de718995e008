package event

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/evently-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "event not found")
	ErrInvalidTitle     = apperror.New(http.StatusBadRequest, "title must be at least 3 characters")
	ErrInvalidText      = apperror.New(http.StatusBadRequest, "description and location must be 3 to 400 characters")
	ErrInvalidTimeRange = apperror.New(http.StatusBadRequest, "startDateTime must be before endDateTime")
)

// Event is a campus event created by a club account or an admin.
type Event struct {
	ID            string
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
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Filter defines parameters for browsing events.
type Filter struct {
	Query       string // title search
	OrganizerID string
	Page        int
	PageSize    int
}
