package http

import (
	"time"

	"github.com/nekogravitycat/evently-backend/internal/registration"
)

type ListMineRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=confirmed cancelled"`
}

type EventTag struct {
	ID            string     `json:"id"`
	Title         string     `json:"title,omitempty"`
	StartDateTime *time.Time `json:"startDateTime,omitempty"`
	EndDateTime   *time.Time `json:"endDateTime,omitempty"`
}

type RegistrationResponse struct {
	ID        string    `json:"id"`
	Event     EventTag  `json:"event"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	UserName  string    `json:"userName,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewRegistrationResponse(r *registration.Registration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:        r.ID,
		Event:     EventTag{ID: r.EventID, Title: r.EventTitle},
		UserID:    r.UserID,
		UserEmail: r.UserEmail,
		UserName:  r.UserName,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if !r.EventStart.IsZero() {
		start, end := r.EventStart, r.EventEnd
		resp.Event.StartDateTime = &start
		resp.Event.EndDateTime = &end
	}
	return resp
}

type StatusResponse struct {
	Registered bool `json:"registered"`
}
