package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/evently-backend/internal/auth"
	"github.com/nekogravitycat/evently-backend/internal/pkg/request"
	"github.com/nekogravitycat/evently-backend/internal/pkg/response"
	"github.com/nekogravitycat/evently-backend/internal/registration"
)

type Handler struct {
	service registration.Service
}

func NewHandler(service registration.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	reg, err := h.service.Register(c.Request.Context(), req.ID, auth.GetIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewRegistrationResponse(reg))
}

func (h *Handler) Status(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	ok, err := h.service.IsRegistered(c.Request.Context(), req.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Registered: ok})
}

func (h *Handler) Cancel(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	reg, err := h.service.Cancel(c.Request.Context(), req.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRegistrationResponse(reg))
}

func (h *Handler) ListMine(c *gin.Context) {
	var req ListMineRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	regs, err := h.service.ListMine(c.Request.Context(), auth.GetUserID(c), registration.Status(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]RegistrationResponse, len(regs))
	for i, r := range regs {
		items[i] = NewRegistrationResponse(r)
	}
	c.JSON(http.StatusOK, items)
}
