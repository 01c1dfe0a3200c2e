package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/gateway"
	"storefront-service/internal/service"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// A webhook service with an unconfigured verifier is enough for the
	// routing and error-path assertions below; no backend is reached.
	webhooks := service.NewWebhookService(
		gateway.NewClient(gateway.Config{WebhookSecret: "secret"}),
		nil, nil, nil, nil, "")

	handler := NewHandler(nil, nil, nil, nil, nil, webhooks, nil, nil, nil)
	router := gin.New()
	handler.SetupRoutes(router)
	return router
}

func TestHealthEndpoints(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/health", "/ready"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestWebhookMissingSignatureReturns400(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment",
		strings.NewReader(`{"id":"evt_1","event":"payment.captured"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INPUT")
}

func TestWebhookBadSignatureReturns400(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment",
		strings.NewReader(`{"id":"evt_1","event":"payment.captured"}`))
	req.Header.Set(service.SignatureHeader, "deadbeef")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRouteRequiresSession(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/me/addresses", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestBearerTokenParsing(t *testing.T) {
	assert.Equal(t, "abc123", bearerToken("Bearer abc123"))
	assert.Equal(t, "abc123", bearerToken("Bearer  abc123"))
	assert.Equal(t, "", bearerToken("abc123"))
	assert.Equal(t, "", bearerToken(""))
}
