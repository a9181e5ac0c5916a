package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"farewatch/internal/flight"
	"farewatch/pkg/identity"
	"farewatch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	report *ScanReport
	err    error
}

func (r stubRunner) Run(context.Context) (*ScanReport, error) {
	return r.report, r.err
}

type staticVerifier struct{ subject string }

func (v staticVerifier) Verify(_ context.Context, raw string) (*identity.Claims, error) {
	if raw != "valid" {
		return nil, errors.New("rejected")
	}
	return &identity.Claims{Subject: v.subject}, nil
}

func newActionRouter(store *memStore, runner Runner, middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(newTrackingService(store), runner, logger.Nop{}).RegisterRoutes(r, middleware...)
	return r
}

func do(t *testing.T, r http.Handler, method, target, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestActionHandler_UnknownAction(t *testing.T) {
	r := newActionRouter(newMemStore(), stubRunner{})

	for _, target := range []string{"/v1/flight-api", "/v1/flight-api?action=drop-tables"} {
		w, body := do(t, r, http.MethodGet, target, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, string(flight.ErrorCodeValidation), body["code"])
	}
}

func TestActionHandler_CreateSearch(t *testing.T) {
	store := newMemStore()
	r := newActionRouter(store, stubRunner{})

	w, body := do(t, r, http.MethodPost, "/v1/flight-api?action=create-search", `{
		"userId": "user-1",
		"origin": "GRU",
		"destination": "JFK",
		"departureDate": "2026-06-01",
		"maxPrice": 4000
	}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "GRU", data["origin"])
	assert.Equal(t, true, data["is_active"])
	require.Len(t, store.alerts, 1)
}

func TestActionHandler_CreateSearchValidation(t *testing.T) {
	store := newMemStore()
	r := newActionRouter(store, stubRunner{})

	w, body := do(t, r, http.MethodPost, "/v1/flight-api?action=create-search", `{"userId": "user-1", "origin": "GRU"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Empty(t, store.searches)
}

func TestActionHandler_PriceHistory(t *testing.T) {
	store := newMemStore()
	store.history = []PriceHistoryPoint{
		{Origin: "GRU", Destination: "JFK", DepartureDate: "2026-06-01", Price: decimal.NewFromInt(3800), RecordedAt: scanTime},
		{Origin: "GRU", Destination: "JFK", DepartureDate: "2026-06-02", Price: decimal.NewFromInt(4200), RecordedAt: scanTime},
	}
	r := newActionRouter(store, stubRunner{})

	w, body := do(t, r, http.MethodGet, "/v1/flight-api?action=get-price-history&origin=GRU&destination=JFK&departureDate=2026-06-01", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, body["data"], 1)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, "3800", stats["lowestPrice"])
}

func TestActionHandler_UserNotifications(t *testing.T) {
	store := newMemStore()
	store.notes = []UserNotification{
		{ID: 1, UserID: "user-1", Message: "a"},
		{ID: 2, UserID: "user-2", Message: "b"},
	}
	r := newActionRouter(store, stubRunner{})

	w, body := do(t, r, http.MethodGet, "/v1/flight-api?action=get-user-notifications&userId=user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 1)

	w, _ = do(t, r, http.MethodGet, "/v1/flight-api?action=get-user-alerts", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActionHandler_MarkNotificationReadNotFound(t *testing.T) {
	r := newActionRouter(newMemStore(), stubRunner{})

	w, body := do(t, r, http.MethodPost, "/v1/flight-api?action=mark-notification-read", `{"userId": "user-1", "notificationId": 99}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(flight.ErrorCodeNotFound), body["code"])
}

func TestActionHandler_CreateAlertUnknownSearch(t *testing.T) {
	r := newActionRouter(newMemStore(), stubRunner{})

	w, body := do(t, r, http.MethodPost, "/v1/flight-api?action=create-alert",
		`{"userId": "user-1", "searchId": 12345, "priceThreshold": "3500"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(flight.ErrorCodeNotFound), body["code"])
}

func TestActionHandler_TokenSubjectOverridesUserID(t *testing.T) {
	store := newMemStore()
	r := newActionRouter(store, stubRunner{}, identity.Middleware(staticVerifier{subject: "oidc-subject"}))

	w, _ := do(t, r, http.MethodPost, "/v1/flight-api?action=create-search",
		`{"userId": "someone-else", "origin": "GRU", "destination": "GIG", "departureDate": "2026-06-01"}`,
		"Authorization", "Bearer valid")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, store.searches, 1)
	assert.Equal(t, "oidc-subject", store.searches[0].UserID)

	w, _ = do(t, r, http.MethodGet, "/v1/flight-api?action=get-user-alerts&userId=x", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScanHandler(t *testing.T) {
	found := 3
	report := &ScanReport{Results: []Outcome{
		{SearchID: 1, FlightsFound: &found},
		{SearchID: 2, Error: "provider search failed"},
	}}

	r := newActionRouter(newMemStore(), stubRunner{report: report})
	w, body := do(t, r, http.MethodPost, "/v1/scan", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, float64(3), results[0].(map[string]any)["flightsFound"])
	assert.Equal(t, "provider search failed", results[1].(map[string]any)["error"])
}

func TestScanHandler_AuthFailure(t *testing.T) {
	r := newActionRouter(newMemStore(), stubRunner{err: fmt.Errorf("%w: 401", flight.ErrProviderAuth)})

	w, body := do(t, r, http.MethodPost, "/v1/scan", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, string(flight.ErrorCodeProviderAuth), body["code"])
}

func TestScanHandler_RequiresTokenWhenIdentityEnabled(t *testing.T) {
	found := 1
	report := &ScanReport{Results: []Outcome{{SearchID: 1, FlightsFound: &found}}}
	r := newActionRouter(newMemStore(), stubRunner{report: report}, identity.Middleware(staticVerifier{subject: "ops"}))

	w, _ := do(t, r, http.MethodPost, "/v1/scan", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := do(t, r, http.MethodPost, "/v1/scan", "", "Authorization", "Bearer valid")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
}
