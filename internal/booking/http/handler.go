package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/evently-backend/internal/auth"
	"github.com/nekogravitycat/evently-backend/internal/booking"
	"github.com/nekogravitycat/evently-backend/internal/pkg/cache"
	"github.com/nekogravitycat/evently-backend/internal/pkg/request"
	"github.com/nekogravitycat/evently-backend/internal/pkg/response"
	resHttp "github.com/nekogravitycat/evently-backend/internal/resource/http"
)

type Handler struct {
	service booking.Service
	cache   *cache.Invalidator
}

func NewHandler(service booking.Service, invalidator *cache.Invalidator) *Handler {
	return &Handler{service: service, cache: invalidator}
}

// bindBody reports malformed quantities as the domain error rather than a generic 400.
func bindBody(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var qe *request.QuantityError
		if errors.As(err, &qe) {
			response.Error(c, booking.ErrInvalidQuantity)
			return false
		}
		if errors.Is(err, booking.ErrInvalidLineKey) {
			response.Error(c, booking.ErrInvalidLineKey)
			return false
		}
		response.BadRequest(c, "invalid request body", err)
		return false
	}
	return true
}

// Book reserves units of the resource in the path for an event.
func (h *Handler) Book(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body BookRequest
	if !bindBody(c, &body) {
		return
	}

	result, err := h.service.Book(c.Request.Context(), booking.BookRequest{
		ResourceID: uri.ID,
		EventID:    body.EventID,
		Quantity:   body.Quantity.Int(),
	}, auth.GetIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.Purge(c.Request.Context(), cache.NamespaceResources)
	c.JSON(http.StatusOK, BookResponse{
		Message:  "Resource booked successfully",
		Booking:  NewBookingResponse(result.Booking),
		Resource: resHttp.NewResponse(result.Resource),
	})
}

// Unbook releases units of one line item of the booking in the path.
func (h *Handler) Unbook(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body UnbookRequest
	if !bindBody(c, &body) {
		return
	}

	h.unbook(c, booking.UnbookRequest{
		BookingID:  uri.ID,
		ResourceID: body.ResourceID,
		Quantity:   body.Quantity.Int(),
	})
}

// UnbookLine releases units of the line item addressed by a key taken from
// the event resources listing.
func (h *Handler) UnbookLine(c *gin.Context) {
	var body UnbookLineRequest
	if !bindBody(c, &body) {
		return
	}
	if body.Key == (booking.LineKey{}) {
		response.Error(c, booking.ErrInvalidLineKey)
		return
	}

	h.unbook(c, booking.UnbookRequest{
		BookingID:  body.Key.BookingID,
		ResourceID: body.Key.ResourceID,
		Quantity:   body.Quantity.Int(),
	})
}

func (h *Handler) unbook(c *gin.Context, req booking.UnbookRequest) {
	result, err := h.service.Unbook(c.Request.Context(), req, auth.GetIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.Purge(c.Request.Context(), cache.NamespaceResources)
	c.JSON(http.StatusOK, UnbookResponse{
		Message:         "Resource unbooked successfully",
		UpdatedResource: resHttp.NewResponse(result.Resource),
		Booking:         NewBookingResponse(result.Booking),
		BookingDeleted:  result.Deleted,
		Released:        result.Released,
	})
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	reports, err := h.service.List(c.Request.Context(), booking.Filter{
		EventID:    req.EventID,
		UserID:     req.UserID,
		ResourceID: req.ResourceID,
	}, auth.GetIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ReportResponse, len(reports))
	for i, r := range reports {
		items[i] = NewReportResponse(r)
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	report, err := h.service.GetByID(c.Request.Context(), req.ID, auth.GetIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReportResponse(report))
}

func (h *Handler) EventResources(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	lines, err := h.service.EventResources(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := EventResourcesResponse{Resources: make([]EventLineResponse, len(lines))}
	for i, l := range lines {
		resp.Resources[i] = NewEventLineResponse(l)
	}
	c.JSON(http.StatusOK, resp)
}
