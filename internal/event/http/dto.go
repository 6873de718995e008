package http

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/nekogravitycat/evently-backend/internal/event"
	"github.com/nekogravitycat/evently-backend/internal/pkg/request"
)

type EventResponse struct {
	ID            string    `json:"id"`
	OrganizerID   string    `json:"organizerId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	ImageURL      string    `json:"imageUrl"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	Price         string    `json:"price"`
	IsFree        bool      `json:"isFree"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewEventResponse(e *event.Event) EventResponse {
	var resp EventResponse
	_ = copier.Copy(&resp, e)
	return resp
}

type ListEventsRequest struct {
	request.ListParams
	Q           string `form:"q" binding:"omitempty,max=100"`
	OrganizerID string `form:"organizerId" binding:"omitempty,max=128"`
}

type CreateEventRequest struct {
	Title         string    `json:"title" binding:"required,min=3,max=200"`
	Description   string    `json:"description" binding:"required,min=3,max=400"`
	Location      string    `json:"location" binding:"required,min=3,max=400"`
	ImageURL      string    `json:"imageUrl" binding:"omitempty,url"`
	StartDateTime time.Time `json:"startDateTime" binding:"required"`
	EndDateTime   time.Time `json:"endDateTime" binding:"required"`
	Price         string    `json:"price" binding:"omitempty,max=32"`
	IsFree        bool      `json:"isFree"`
	URL           string    `json:"url" binding:"omitempty,url"`
}

// Validate performs custom validation for CreateEventRequest.
func (r *CreateEventRequest) Validate() error {
	if !r.StartDateTime.Before(r.EndDateTime) {
		return event.ErrInvalidTimeRange
	}
	return nil
}

func (r *CreateEventRequest) ToServiceRequest(organizerID string) event.CreateRequest {
	var req event.CreateRequest
	_ = copier.Copy(&req, r)
	req.OrganizerID = organizerID
	return req
}
