package flight

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"farewatch/pkg/cache"
	"farewatch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, src OfferSource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewFlightHandler(NewService(src, cache.NewMemory(), 15, PortugueseLabels, logger.Nop{})).RegisterRoutes(r)
	return r
}

func post(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFilterFlightsHandler(t *testing.T) {
	r := newTestRouter(t, &stubSource{offers: domesticOffers(t)})

	w := post(t, r, "/v1/flights/filter", `{
		"origin": "GRU",
		"destination": "GIG",
		"departure_date": "2026-03-10",
		"filters": {"stops": "1", "airlines": ["latam", "azul"], "sort_by": "departure-asc"}
	}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp FilterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"LA3456", "AD4567"}, ids(resp.Offers))
	assert.Equal(t, []ActiveFilter{
		{Field: FieldStops, Label: "Max 1 escala"},
		{Field: FieldAirlines, Label: "2 selecionadas"},
	}, resp.ActiveFilters)
}

func TestSearchFlightsHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    *stubSource
		body   string
		status int
		code   ErrorCode
	}{
		{"malformed json", &stubSource{}, `{`, http.StatusBadRequest, ErrorCodeValidation},
		{"missing origin", &stubSource{}, `{"destination":"GIG","departure_date":"2026-03-10"}`, http.StatusBadRequest, ErrorCodeValidation},
		{"provider down", &stubSource{err: ErrProviderSearch}, `{"origin":"GRU","destination":"GIG","departure_date":"2026-03-10"}`, http.StatusBadGateway, ErrorCodeProviderSearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.src)

			w := post(t, r, "/v1/flights/search", tt.body)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tt.code), body["code"])
		})
	}
}

func TestInvalidateCacheHandler(t *testing.T) {
	src := &stubSource{offers: domesticOffers(t)}
	r := newTestRouter(t, src)
	body := `{"origin": "GRU", "destination": "GIG", "departure_date": "2026-03-10"}`

	require.Equal(t, http.StatusOK, post(t, r, "/v1/flights/search", body).Code)
	require.Equal(t, http.StatusOK, post(t, r, "/v1/flights/search", body).Code)
	assert.Equal(t, 1, src.calls)

	w := post(t, r, "/v1/flights/cache/invalidate", body)
	assert.Equal(t, http.StatusNoContent, w.Code)

	require.Equal(t, http.StatusOK, post(t, r, "/v1/flights/search", body).Code)
	assert.Equal(t, 2, src.calls)

	w = post(t, r, "/v1/flights/cache/invalidate", `{"origin": "GRU", "destination": "GRU", "departure_date": "2026-03-10"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
