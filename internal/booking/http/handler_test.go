package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/nekogravitycat/evently-backend/internal/auth"
	"github.com/nekogravitycat/evently-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/evently-backend/internal/booking/http"
	"github.com/nekogravitycat/evently-backend/internal/booking/mock"
	"github.com/nekogravitycat/evently-backend/internal/resource"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	mockCtrl *gomock.Controller
	mockSvc  *mock.MockService
	caller   auth.Identity
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockSvc = mock.NewMockService(s.mockCtrl)
	s.caller = auth.Identity{UserID: "club_1", Email: "club@campus.edu", Role: auth.RoleClub}

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		auth.SetIdentity(c, s.caller)
		c.Next()
	}
	passThrough := func(c *gin.Context) { c.Next() }

	bookingHttp.RegisterRoutes(s.router.Group("/v1"), bookingHttp.NewHandler(s.mockSvc, nil), authMiddleware, passThrough)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func (s *BookingHandlerTestSuite) perform(method, url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			s.Require().NoError(json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *BookingHandlerTestSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleBookResult(resourceID, eventID string) *booking.BookResult {
	now := time.Now().UTC()
	return &booking.BookResult{
		Resource: &resource.Resource{ID: resourceID, Name: "Chairs", Type: resource.TypeMaterial, Quantity: 10, Available: 7},
		Booking: &booking.Booking{
			ID:        uuid.NewString(),
			EventID:   eventID,
			UserID:    "club_1",
			Items:     []booking.LineItem{{ResourceID: resourceID, Quantity: 3, CreatedAt: now}},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// ================================================================================
// TestBook
// ================================================================================

func (s *BookingHandlerTestSuite) TestBook() {
	resourceID := uuid.NewString()
	eventID := uuid.NewString()
	url := "/v1/resources/" + resourceID + "/book"

	s.Run("success: numeric quantity", func() {
		s.mockSvc.EXPECT().
			Book(gomock.Any(), booking.BookRequest{ResourceID: resourceID, EventID: eventID, Quantity: 3}, s.caller).
			Return(sampleBookResult(resourceID, eventID), nil)

		rec := s.perform(http.MethodPost, url, map[string]any{"eventId": eventID, "quantity": 3})

		s.Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Equal("Resource booked successfully", body["message"])
		s.EqualValues(7, body["resource"].(map[string]any)["available"])
		items := body["booking"].(map[string]any)["resources"].([]any)
		s.Len(items, 1)
		s.EqualValues(3, items[0].(map[string]any)["quantity"])
	})

	s.Run("success: numeric string quantity", func() {
		s.mockSvc.EXPECT().
			Book(gomock.Any(), booking.BookRequest{ResourceID: resourceID, EventID: eventID, Quantity: 3}, s.caller).
			Return(sampleBookResult(resourceID, eventID), nil)

		rec := s.perform(http.MethodPost, url, map[string]any{"eventId": eventID, "quantity": "3"})
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("error: non-numeric quantity", func() {
		rec := s.perform(http.MethodPost, url, map[string]any{"eventId": eventID, "quantity": "abc"})

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("quantity must be a positive integer", s.decode(rec)["error"])
	})

	s.Run("error: quantity out of range", func() {
		rec := s.perform(http.MethodPost, url, `{"eventId":"`+eventID+`","quantity":3000000000}`)

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("quantity must be a positive integer", s.decode(rec)["error"])
	})

	s.Run("error: fractional quantity", func() {
		rec := s.perform(http.MethodPost, url, `{"eventId":"`+eventID+`","quantity":1.5}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: missing eventId", func() {
		rec := s.perform(http.MethodPost, url, map[string]any{"quantity": 1})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: invalid resource id", func() {
		rec := s.perform(http.MethodPost, "/v1/resources/not-a-uuid/book", map[string]any{"eventId": eventID, "quantity": 1})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: insufficient availability", func() {
		s.mockSvc.EXPECT().Book(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, booking.NewInsufficientAvailability(resourceID, 5, 2))

		rec := s.perform(http.MethodPost, url, map[string]any{"eventId": eventID, "quantity": 5})

		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("only 2 available", s.decode(rec)["error"])
	})

	s.Run("error: resource not found", func() {
		s.mockSvc.EXPECT().Book(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, booking.ErrResourceNotFound)

		rec := s.perform(http.MethodPost, url, map[string]any{"eventId": eventID, "quantity": 1})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("error: unexpected failure is a bare 500", func() {
		s.mockSvc.EXPECT().Book(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

		rec := s.perform(http.MethodPost, url, map[string]any{"eventId": eventID, "quantity": 1})

		s.Equal(http.StatusInternalServerError, rec.Code)
		s.Equal("internal server error", s.decode(rec)["error"])
	})
}

// ================================================================================
// TestUnbook
// ================================================================================

func (s *BookingHandlerTestSuite) TestUnbook() {
	bookingID := uuid.NewString()
	resourceID := uuid.NewString()
	url := "/v1/bookings/" + bookingID + "/unbook"

	s.Run("success: booking deleted", func() {
		s.mockSvc.EXPECT().
			Unbook(gomock.Any(), booking.UnbookRequest{BookingID: bookingID, ResourceID: resourceID, Quantity: 3}, s.caller).
			Return(&booking.UnbookResult{
				Resource: &resource.Resource{ID: resourceID, Name: "Chairs", Quantity: 10, Available: 10},
				Booking:  &booking.Booking{ID: bookingID, EventID: uuid.NewString(), UserID: "club_1"},
				Released: 3,
				Deleted:  true,
			}, nil)

		rec := s.perform(http.MethodPost, url, map[string]any{"resourceId": resourceID, "quantity": "3"})

		s.Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Equal("Resource unbooked successfully", body["message"])
		s.Equal(true, body["bookingDeleted"])
		s.EqualValues(10, body["updatedResource"].(map[string]any)["available"])
		s.Equal([]any{}, body["booking"].(map[string]any)["resources"])
	})

	s.Run("error: permission denied", func() {
		s.mockSvc.EXPECT().Unbook(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, booking.ErrPermissionDenied)

		rec := s.perform(http.MethodPost, url, map[string]any{"resourceId": resourceID, "quantity": 1})
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("error: line item not found", func() {
		s.mockSvc.EXPECT().Unbook(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, booking.ErrLineItemNotFound)

		rec := s.perform(http.MethodPost, url, map[string]any{"resourceId": resourceID, "quantity": 1})

		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal("resource is not part of this booking", s.decode(rec)["error"])
	})

	s.Run("error: null quantity", func() {
		rec := s.perform(http.MethodPost, url, `{"resourceId":"`+resourceID+`","quantity":null}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: quantity out of range", func() {
		rec := s.perform(http.MethodPost, url, `{"resourceId":"`+resourceID+`","quantity":"3000000000"}`)

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("quantity must be a positive integer", s.decode(rec)["error"])
	})
}

func (s *BookingHandlerTestSuite) TestUnbookLine() {
	bookingID := uuid.NewString()
	resourceID := uuid.NewString()
	key := booking.LineKey{BookingID: bookingID, ResourceID: resourceID}
	url := "/v1/bookings/unbook"

	s.Run("success: key from the event listing", func() {
		s.mockSvc.EXPECT().
			Unbook(gomock.Any(), booking.UnbookRequest{BookingID: bookingID, ResourceID: resourceID, Quantity: 2}, s.caller).
			Return(&booking.UnbookResult{
				Resource: &resource.Resource{ID: resourceID, Name: "Chairs", Quantity: 10, Available: 9},
				Booking: &booking.Booking{ID: bookingID, EventID: uuid.NewString(), UserID: "club_1", Items: []booking.LineItem{
					{ResourceID: resourceID, Quantity: 1, CreatedAt: time.Now()},
				}},
				Released: 2,
			}, nil)

		rec := s.perform(http.MethodPost, url, map[string]any{"key": key.String(), "quantity": 2})

		s.Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Equal("Resource unbooked successfully", body["message"])
		s.Equal(false, body["bookingDeleted"])
		s.EqualValues(2, body["released"])
	})

	s.Run("error: malformed key", func() {
		rec := s.perform(http.MethodPost, url, map[string]any{"key": bookingID + ":" + resourceID, "quantity": 1})

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid line key", s.decode(rec)["error"])
	})

	s.Run("error: key with a non-uuid half", func() {
		rec := s.perform(http.MethodPost, url, map[string]any{"key": bookingID + "/chairs", "quantity": 1})

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid line key", s.decode(rec)["error"])
	})

	s.Run("error: missing key", func() {
		rec := s.perform(http.MethodPost, url, map[string]any{"quantity": 1})

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid line key", s.decode(rec)["error"])
	})

	s.Run("error: quantity out of range", func() {
		rec := s.perform(http.MethodPost, url, `{"key":"`+key.String()+`","quantity":3000000000}`)

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("quantity must be a positive integer", s.decode(rec)["error"])
	})
}

// ================================================================================
// TestReports
// ================================================================================

func (s *BookingHandlerTestSuite) TestList() {
	eventID := uuid.NewString()

	s.Run("success: passes filters through", func() {
		s.mockSvc.EXPECT().
			List(gomock.Any(), booking.Filter{EventID: eventID}, s.caller).
			Return([]*booking.Report{{
				ID:         uuid.NewString(),
				EventID:    eventID,
				EventTitle: "Spring Fair",
				UserID:     "club_1",
				Items:      []booking.ReportItem{{ResourceID: "r1", ResourceName: "Chairs", Quantity: 2}},
			}}, nil)

		rec := s.perform(http.MethodGet, "/v1/bookings?eventId="+eventID, nil)

		s.Equal(http.StatusOK, rec.Code)
		var body []map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Require().Len(body, 1)
		s.Equal("Spring Fair", body[0]["event"].(map[string]any)["title"])
	})

	s.Run("success: empty list is an array", func() {
		s.mockSvc.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		rec := s.perform(http.MethodGet, "/v1/bookings", nil)

		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`[]`, rec.Body.String())
	})

	s.Run("error: invalid eventId", func() {
		rec := s.perform(http.MethodGet, "/v1/bookings?eventId=nope", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *BookingHandlerTestSuite) TestEventResources() {
	eventID := uuid.NewString()
	key := booking.LineKey{BookingID: uuid.NewString(), ResourceID: uuid.NewString()}

	s.mockSvc.EXPECT().EventResources(gomock.Any(), eventID).Return([]booking.EventLine{
		{Key: key, UserID: "club_1", ResourceName: "Chairs", Quantity: 4},
	}, nil)

	rec := s.perform(http.MethodGet, "/v1/events/"+eventID+"/resources", nil)

	s.Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	lines := body["resources"].([]any)
	s.Require().Len(lines, 1)
	line := lines[0].(map[string]any)
	s.Equal(key.String(), line["key"])
	s.Equal(key.BookingID, line["bookingId"])
	s.Equal("Chairs", line["resource"].(map[string]any)["name"])
}

func (s *BookingHandlerTestSuite) TestUnauthenticated() {
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}
