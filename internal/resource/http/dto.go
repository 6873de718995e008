package http

import (
	"time"

	"github.com/nekogravitycat/evently-backend/internal/resource"
)

type ResourceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description *string   `json:"description,omitempty"`
	Quantity    int       `json:"quantity"`
	Available   int       `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:          r.ID,
		Name:        r.Name,
		Type:        string(r.Type),
		Description: r.Description,
		Quantity:    r.Quantity,
		Available:   r.Available,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ResourceTag is the short form embedded in booking reports.
type ResourceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListResourcesRequest struct {
	Type string `form:"type" binding:"omitempty,oneof=room audiovisual material"`
	Q    string `form:"q" binding:"omitempty,max=100"`
}

type CreateRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Type        string  `json:"type" binding:"required,oneof=room audiovisual material"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Quantity    *int    `json:"quantity" binding:"required,min=0,max=2147483647"`
	Available   *int    `json:"available" binding:"omitempty,min=0,max=2147483647"`
}

// Validate performs cross-field checks the binding tags cannot express.
func (r *CreateRequest) Validate() error {
	if r.Available != nil && r.Quantity != nil && *r.Available > *r.Quantity {
		return resource.ErrInvalidAvailable
	}
	return nil
}

type UpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=200"`
	Type        *string `json:"type" binding:"omitempty,oneof=room audiovisual material"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Quantity    *int    `json:"quantity" binding:"omitempty,min=0,max=2147483647"`
}
