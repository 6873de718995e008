package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/evently-backend/internal/pkg/cache"
	"github.com/nekogravitycat/evently-backend/internal/pkg/request"
	"github.com/nekogravitycat/evently-backend/internal/pkg/response"
	"github.com/nekogravitycat/evently-backend/internal/resource"
)

type Handler struct {
	service resource.Service
	cache   *cache.Invalidator
}

func NewHandler(service resource.Service, invalidator *cache.Invalidator) *Handler {
	return &Handler{
		service: service,
		cache:   invalidator,
	}
}

// List returns the catalog as a plain array.
func (h *Handler) List(c *gin.Context) {
	var req ListResourcesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	resources, err := h.service.List(c.Request.Context(), resource.Filter{
		Type:  resource.Type(req.Type),
		Query: req.Q,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ResourceResponse, len(resources))
	for i, r := range resources {
		items[i] = NewResponse(r)
	}
	c.JSON(http.StatusOK, response.List(items))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(res))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), resource.CreateRequest{
		Name:        body.Name,
		Type:        resource.Type(body.Type),
		Description: body.Description,
		Quantity:    *body.Quantity,
		Available:   body.Available,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.Purge(c.Request.Context(), cache.NamespaceResources)
	c.JSON(http.StatusCreated, NewResponse(res))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := resource.UpdateRequest{
		Name:        body.Name,
		Description: body.Description,
		Quantity:    body.Quantity,
	}
	if body.Type != nil {
		t := resource.Type(*body.Type)
		req.Type = &t
	}

	res, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.Purge(c.Request.Context(), cache.NamespaceResources)
	c.JSON(http.StatusOK, NewResponse(res))
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		response.Error(c, err)
		return
	}

	h.cache.Purge(c.Request.Context(), cache.NamespaceResources)
	c.JSON(http.StatusOK, gin.H{"message": "Resource deleted"})
}
