package resource

import (
	"context"
	"log/slog"
	"strings"
)

type CreateRequest struct {
	Name        string
	Type        Type
	Description *string
	Quantity    int
	Available   *int // defaults to Quantity
}

type UpdateRequest struct {
	Name        *string
	Type        *Type
	Description *string
	Quantity    *int
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	GetMany(ctx context.Context, ids []string) (map[string]*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}
	if req.Quantity < 0 || req.Quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	available := req.Quantity
	if req.Available != nil {
		available = *req.Available
	}
	if available < 0 || available > req.Quantity {
		return nil, ErrInvalidAvailable
	}

	res := &Resource{
		Name:        name,
		Type:        req.Type,
		Description: req.Description,
		Quantity:    req.Quantity,
		Available:   available,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "resource created", "resource_id", res.ID, "quantity", res.Quantity, "available", res.Available)
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetMany(ctx context.Context, ids []string) (map[string]*Resource, error) {
	return s.repo.GetMany(ctx, ids)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, ErrInvalidType
	}
	filter.Query = strings.TrimSpace(filter.Query)
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error) {
	var p Patch

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		p.Name = &name
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, ErrInvalidType
		}
		p.Type = req.Type
	}
	if req.Quantity != nil && (*req.Quantity < 0 || *req.Quantity > MaxQuantity) {
		return nil, ErrInvalidQuantity
	}
	p.Description = req.Description
	p.Quantity = req.Quantity

	if p.Name == nil && p.Type == nil && p.Description == nil && p.Quantity == nil {
		return s.repo.GetByID(ctx, id)
	}

	res, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "resource updated", "resource_id", res.ID, "quantity", res.Quantity, "available", res.Available)
	return res, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "resource deleted", "resource_id", id)
	return nil
}
