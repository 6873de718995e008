package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/evently-backend/internal/resource"
	resHttp "github.com/nekogravitycat/evently-backend/internal/resource/http"
)

// recordingService counts the calls that get past request binding.
type recordingService struct {
	resource.Service
	creates int
	updates int
}

func (s *recordingService) Create(_ context.Context, req resource.CreateRequest) (*resource.Resource, error) {
	s.creates++
	return &resource.Resource{ID: uuid.NewString(), Name: req.Name, Type: req.Type, Quantity: req.Quantity, Available: req.Quantity}, nil
}

func (s *recordingService) Update(_ context.Context, id string, req resource.UpdateRequest) (*resource.Resource, error) {
	s.updates++
	res := &resource.Resource{ID: id, Name: "Chairs", Type: resource.TypeMaterial, Quantity: 10, Available: 10}
	if req.Quantity != nil {
		res.Quantity, res.Available = *req.Quantity, *req.Quantity
	}
	return res, nil
}

func newRouter(svc resource.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	pass := func(c *gin.Context) { c.Next() }
	resHttp.RegisterRoutes(r.Group("/v1"), resHttp.NewHandler(svc, nil), pass, pass, pass)
	return r
}

func send(r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreate_QuantityBounds(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"Largest int32", `{"name":"Chairs","type":"material","quantity":2147483647}`, http.StatusCreated},
		{"Above int32", `{"name":"Chairs","type":"material","quantity":3000000000}`, http.StatusBadRequest},
		{"Available above int32", `{"name":"Chairs","type":"material","quantity":1,"available":3000000000}`, http.StatusBadRequest},
		{"Negative", `{"name":"Chairs","type":"material","quantity":-1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &recordingService{}
			w := send(newRouter(svc), http.MethodPost, "/v1/resources", tt.body)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode == http.StatusCreated {
				assert.Equal(t, 1, svc.creates)
			} else {
				assert.Zero(t, svc.creates, "out of range quantities must not reach the store")
			}
		})
	}
}

func TestUpdate_QuantityBounds(t *testing.T) {
	url := "/v1/resources/" + uuid.NewString()

	svc := &recordingService{}
	w := send(newRouter(svc), http.MethodPatch, url, `{"quantity":3000000000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.updates)

	w = send(newRouter(svc), http.MethodPatch, url, `{"quantity":12}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.updates)
}
