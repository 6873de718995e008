package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/evently-backend/internal/auth"
	"github.com/nekogravitycat/evently-backend/internal/event"
	"github.com/nekogravitycat/evently-backend/internal/pkg/cache"
	"github.com/nekogravitycat/evently-backend/internal/pkg/request"
	"github.com/nekogravitycat/evently-backend/internal/pkg/response"
)

type Handler struct {
	service event.Service
	cache   *cache.Invalidator
}

func NewHandler(service event.Service, invalidator *cache.Invalidator) *Handler {
	return &Handler{service: service, cache: invalidator}
}

func (h *Handler) List(c *gin.Context) {
	var req ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	events, total, err := h.service.List(c.Request.Context(), event.Filter{
		Query:       req.Q,
		OrganizerID: req.OrganizerID,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]EventResponse, len(events))
	for i, e := range events {
		items[i] = NewEventResponse(e)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewEventResponse(e))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateEventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	e, err := h.service.Create(c.Request.Context(), body.ToServiceRequest(auth.GetUserID(c)))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.Purge(c.Request.Context(), cache.NamespaceEvents)
	c.JSON(http.StatusCreated, NewEventResponse(e))
}
