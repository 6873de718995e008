//go:build integration

package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/evently-backend/internal/app"
	"github.com/nekogravitycat/evently-backend/internal/auth"
	"github.com/nekogravitycat/evently-backend/internal/db/dbtest"
)

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	pool := dbtest.NewPool(t)

	c := app.NewContainer(app.Config{
		DBPool:    pool,
		JWTSecret: "integration-secret",
		JWTTTL:    30 * time.Minute,
	})
	return &testEnv{t: t, router: c.Router, jwt: c.JWTManager}
}

func (e *testEnv) token(userID string, role auth.Role) string {
	e.t.Helper()
	token, err := e.jwt.GenerateAccessToken(auth.Identity{UserID: userID, Email: userID + "@campus.edu", Role: role})
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestLedgerEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	adminToken := env.token("admin_1", auth.RoleAdmin)
	clubToken := env.token("club_1", auth.RoleClub)
	studentToken := env.token("student_1", auth.RoleStudent)

	var resourceID, eventID, bookingID string

	t.Run("Health", func(t *testing.T) {
		w := env.executeRequest(http.MethodGet, "/healthz", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Setup", func(t *testing.T) {
		w := env.executeRequest(http.MethodPost, "/v1/resources", map[string]any{
			"name": "Folding Chairs", "type": "material", "quantity": 10,
		}, adminToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resourceID = decode[map[string]any](t, w)["id"].(string)

		w = env.executeRequest(http.MethodPost, "/v1/resources", map[string]any{
			"name": "Chairs", "type": "material", "quantity": 1,
		}, clubToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.executeRequest(http.MethodPost, "/v1/events", map[string]any{
			"title":         "Spring Fair",
			"description":   "Booths, food and music",
			"location":      "Main Lawn",
			"startDateTime": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
			"endDateTime":   time.Now().Add(52 * time.Hour).Format(time.RFC3339),
			"isFree":        true,
		}, clubToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		eventID = decode[map[string]any](t, w)["id"].(string)
	})

	t.Run("Book", func(t *testing.T) {
		path := fmt.Sprintf("/v1/resources/%s/book", resourceID)

		w := env.executeRequest(http.MethodPost, path, map[string]any{"eventId": eventID, "quantity": "3"}, clubToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[map[string]any](t, w)
		assert.EqualValues(t, 7, body["resource"].(map[string]any)["available"])
		bookingID = body["booking"].(map[string]any)["id"].(string)

		w = env.executeRequest(http.MethodPost, path, map[string]any{"eventId": eventID, "quantity": 8}, clubToken)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "only 7 available", decode[map[string]any](t, w)["error"])

		w = env.executeRequest(http.MethodPost, path, map[string]any{"eventId": eventID, "quantity": "abc"}, clubToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.executeRequest(http.MethodPost, path, map[string]any{"eventId": eventID, "quantity": 1}, studentToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Reports", func(t *testing.T) {
		w := env.executeRequest(http.MethodGet, "/v1/events/"+eventID+"/resources", nil, studentToken)
		require.Equal(t, http.StatusOK, w.Code)
		lines := decode[map[string][]map[string]any](t, w)["resources"]
		require.Len(t, lines, 1)
		assert.Equal(t, bookingID+"/"+resourceID, lines[0]["key"])

		w = env.executeRequest(http.MethodGet, "/v1/bookings", nil, studentToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]map[string]any](t, w))

		w = env.executeRequest(http.MethodGet, "/v1/bookings/"+bookingID, nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Spring Fair", decode[map[string]any](t, w)["event"].(map[string]any)["title"])
	})

	t.Run("Delete in use is rejected", func(t *testing.T) {
		w := env.executeRequest(http.MethodDelete, "/v1/resources/"+resourceID, nil, adminToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Unbook", func(t *testing.T) {
		path := fmt.Sprintf("/v1/bookings/%s/unbook", bookingID)

		w := env.executeRequest(http.MethodPost, path, map[string]any{"resourceId": resourceID, "quantity": 3}, studentToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.executeRequest(http.MethodPost, path, map[string]any{"resourceId": resourceID, "quantity": 3}, clubToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[map[string]any](t, w)
		assert.Equal(t, true, body["bookingDeleted"])
		assert.EqualValues(t, 10, body["updatedResource"].(map[string]any)["available"])

		w = env.executeRequest(http.MethodGet, "/v1/bookings/"+bookingID, nil, adminToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete once free", func(t *testing.T) {
		w := env.executeRequest(http.MethodDelete, "/v1/resources/"+resourceID, nil, adminToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Registrations", func(t *testing.T) {
		base := "/v1/events/" + eventID + "/registrations"

		w := env.executeRequest(http.MethodPost, base, nil, studentToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = env.executeRequest(http.MethodPost, base, nil, studentToken)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = env.executeRequest(http.MethodGet, base+"/me", nil, studentToken)
		assert.Equal(t, true, decode[map[string]any](t, w)["registered"])

		w = env.executeRequest(http.MethodGet, "/v1/registrations/me", nil, studentToken)
		require.Equal(t, http.StatusOK, w.Code)
		regs := decode[[]map[string]any](t, w)
		require.Len(t, regs, 1)
		assert.Equal(t, "Spring Fair", regs[0]["event"].(map[string]any)["title"])

		w = env.executeRequest(http.MethodDelete, base+"/me", nil, studentToken)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.executeRequest(http.MethodGet, base+"/me", nil, studentToken)
		assert.Equal(t, false, decode[map[string]any](t, w)["registered"])
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		w := env.executeRequest(http.MethodGet, "/v1/resources", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
