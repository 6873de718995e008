package http

import (
	"time"

	"github.com/nekogravitycat/evently-backend/internal/booking"
	"github.com/nekogravitycat/evently-backend/internal/pkg/request"
	resHttp "github.com/nekogravitycat/evently-backend/internal/resource/http"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	EventID    string `form:"eventId" binding:"omitempty,uuid"`
	UserID     string `form:"userId" binding:"omitempty,max=128"`
	ResourceID string `form:"resourceId" binding:"omitempty,uuid"`
}

type BookRequest struct {
	EventID  string           `json:"eventId" binding:"required,uuid"`
	Quantity request.Quantity `json:"quantity"`
}

type UnbookRequest struct {
	ResourceID string           `json:"resourceId" binding:"required,uuid"`
	Quantity   request.Quantity `json:"quantity"`
}

// UnbookLineRequest addresses the line item by the key from the event resources listing.
type UnbookLineRequest struct {
	Key      booking.LineKey  `json:"key"`
	Quantity request.Quantity `json:"quantity"`
}

type LineItemResponse struct {
	ResourceID string    `json:"resourceId"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"createdAt"`
}

type BookingResponse struct {
	ID        string             `json:"id"`
	EventID   string             `json:"eventId"`
	UserID    string             `json:"userId"`
	Resources []LineItemResponse `json:"resources"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:        b.ID,
		EventID:   b.EventID,
		UserID:    b.UserID,
		Resources: make([]LineItemResponse, len(b.Items)),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	for i, it := range b.Items {
		resp.Resources[i] = LineItemResponse(it)
	}
	return resp
}

type BookResponse struct {
	Message  string                   `json:"message"`
	Booking  BookingResponse          `json:"booking"`
	Resource resHttp.ResourceResponse `json:"resource"`
}

type UnbookResponse struct {
	Message         string                   `json:"message"`
	UpdatedResource resHttp.ResourceResponse `json:"updatedResource"`
	Booking         BookingResponse          `json:"booking"`
	BookingDeleted  bool                     `json:"bookingDeleted"`
	Released        int                      `json:"released"`
}

type ReportItemResponse struct {
	Resource resHttp.ResourceTag `json:"resource"`
	Quantity int                 `json:"quantity"`
}

type EventTag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ReportResponse struct {
	ID        string               `json:"id"`
	Event     EventTag             `json:"event"`
	UserID    string               `json:"userId"`
	Resources []ReportItemResponse `json:"resources"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func NewReportResponse(r *booking.Report) ReportResponse {
	resp := ReportResponse{
		ID:        r.ID,
		Event:     EventTag{ID: r.EventID, Title: r.EventTitle},
		UserID:    r.UserID,
		Resources: make([]ReportItemResponse, len(r.Items)),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for i, it := range r.Items {
		resp.Resources[i] = ReportItemResponse{
			Resource: resHttp.ResourceTag{ID: it.ResourceID, Name: it.ResourceName},
			Quantity: it.Quantity,
		}
	}
	return resp
}

type EventLineResponse struct {
	Key       booking.LineKey     `json:"key"`
	BookingID string              `json:"bookingId"`
	UserID    string              `json:"userId"`
	Resource  resHttp.ResourceTag `json:"resource"`
	Quantity  int                 `json:"quantity"`
}

func NewEventLineResponse(l booking.EventLine) EventLineResponse {
	return EventLineResponse{
		Key:       l.Key,
		BookingID: l.Key.BookingID,
		UserID:    l.UserID,
		Resource:  resHttp.ResourceTag{ID: l.Key.ResourceID, Name: l.ResourceName},
		Quantity:  l.Quantity,
	}
}

type EventResourcesResponse struct {
	Resources []EventLineResponse `json:"resources"`
}
