package amadeus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"farewatch/internal/flight"
	"farewatch/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	tokenCalls  atomic.Int32
	searchCalls atomic.Int32
	tokenStatus int
	offerStatus int
	lastQuery   chan map[string]string
}

func newFakeProvider(t *testing.T) (*fakeProvider, *httptest.Server) {
	t.Helper()
	fp := &fakeProvider{
		tokenStatus: http.StatusOK,
		offerStatus: http.StatusOK,
		lastQuery:   make(chan map[string]string, 1),
	}

	fixture, err := os.ReadFile("testdata/flight_offers.json")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		fp.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "client_credentials" ||
			r.PostForm.Get("client_id") != "id" || r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if fp.tokenStatus != http.StatusOK {
			w.WriteHeader(fp.tokenStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"token_type":   "Bearer",
			"expires_in":   1799,
		})
	})
	mux.HandleFunc("GET /v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		fp.searchCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		select {
		case fp.lastQuery <- q:
		default:
		}
		if fp.offerStatus != http.StatusOK {
			w.WriteHeader(fp.offerStatus)
			w.Write([]byte(`{"errors":[{"title":"SYSTEM ERROR HAS OCCURRED"}]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(fixture)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fp, srv
}

func newTestClient(baseURL, secret string) *Client {
	return NewClient(&http.Client{Timeout: 2 * time.Second}, Config{
		BaseURL:      baseURL,
		ClientID:     "id",
		ClientSecret: secret,
	}, logger.Nop{})
}

func request() flight.SearchRequest {
	maxPrice := 4000
	return flight.SearchRequest{
		Origin:        "GRU",
		Destination:   "LIS",
		DepartureDate: "2026-03-10",
		ReturnDate:    "2026-03-20",
		Adults:        2,
		MaxPrice:      &maxPrice,
	}
}

func TestClient_FetchOffers(t *testing.T) {
	fp, srv := newFakeProvider(t)
	client := newTestClient(srv.URL, "secret")

	offers, err := client.FetchOffers(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, int32(1), fp.tokenCalls.Load())
	assert.Equal(t, int32(1), fp.searchCalls.Load())

	q := <-fp.lastQuery
	assert.Equal(t, map[string]string{
		"originLocationCode":      "GRU",
		"destinationLocationCode": "LIS",
		"departureDate":           "2026-03-10",
		"returnDate":              "2026-03-20",
		"adults":                  "2",
		"currencyCode":            "BRL",
		"maxPrice":                "4000",
	}, q)

	require.Len(t, offers, 3)
	assert.Equal(t, "TP88", offers[0].FlightNumber)
	assert.Equal(t, "IB3101", offers[1].FlightNumber)
	assert.Equal(t, "LA8086", offers[2].FlightNumber)
}

func TestClient_SearchOmitsOptionalParams(t *testing.T) {
	fp, srv := newFakeProvider(t)
	client := newTestClient(srv.URL, "secret")

	req := flight.SearchRequest{Origin: "GRU", Destination: "GIG", DepartureDate: "2026-03-10"}
	_, err := client.FetchOffers(context.Background(), req)
	require.NoError(t, err)

	q := <-fp.lastQuery
	assert.NotContains(t, q, "returnDate")
	assert.NotContains(t, q, "maxPrice")
	assert.Equal(t, "1", q["adults"])
}

func TestClient_AuthFailure(t *testing.T) {
	fp, srv := newFakeProvider(t)
	client := newTestClient(srv.URL, "wrong")

	_, err := client.FetchOffers(context.Background(), request())

	require.Error(t, err)
	assert.ErrorIs(t, err, flight.ErrProviderAuth)
	assert.Equal(t, int32(0), fp.searchCalls.Load())
}

func TestClient_SearchNon2xx(t *testing.T) {
	fp, srv := newFakeProvider(t)
	fp.offerStatus = http.StatusInternalServerError
	client := newTestClient(srv.URL, "secret")

	tok, err := client.Authenticate(context.Background())
	require.NoError(t, err)

	_, err = client.SearchOffers(context.Background(), tok, request())

	require.Error(t, err)
	assert.ErrorIs(t, err, flight.ErrProviderSearch)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "SYSTEM ERROR")
	assert.Equal(t, int32(1), fp.searchCalls.Load(), "no automatic retry")
}

func TestClient_SharedTokenAcrossSearches(t *testing.T) {
	fp, srv := newFakeProvider(t)
	client := newTestClient(srv.URL, "secret")

	tok, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok.AccessToken)

	for range 3 {
		_, err := client.SearchOffers(context.Background(), tok, request())
		require.NoError(t, err)
		<-fp.lastQuery
	}
	assert.Equal(t, int32(1), fp.tokenCalls.Load())
	assert.Equal(t, int32(3), fp.searchCalls.Load())
}

func TestNormalize(t *testing.T) {
	raw, err := os.ReadFile("testdata/flight_offers.json")
	require.NoError(t, err)

	var resp offersResponse
	require.NoError(t, json.Unmarshal(raw, &resp))

	offers, skipped := normalize(resp.Data)

	require.Len(t, offers, 3)
	assert.Len(t, skipped, 3)
	for _, s := range skipped {
		assert.ErrorIs(t, s, flight.ErrNormalization)
	}

	outbound := offers[0]
	assert.Equal(t, "1-0", outbound.ID)
	assert.Equal(t, "TP", outbound.Airline)
	assert.Equal(t, "GRU", outbound.Origin)
	assert.Equal(t, "LIS", outbound.Destination)
	assert.Equal(t, flight.Duration(705), outbound.Duration)
	assert.Equal(t, 0, outbound.Stops)
	assert.Empty(t, outbound.LayoverAirports)
	assert.Equal(t, flight.CabinBusiness, outbound.CabinClass)
	assert.True(t, decimal.RequireFromString("3800.50").Equal(outbound.Price))

	inbound := offers[1]
	assert.Equal(t, "1-1", inbound.ID)
	assert.Equal(t, flight.Duration(960), inbound.Duration)
	assert.Equal(t, 1, inbound.Stops)
	assert.Equal(t, []string{"MAD"}, inbound.LayoverAirports)
	assert.Len(t, inbound.LayoverAirports, inbound.Stops)
	assert.True(t, outbound.Price.Equal(inbound.Price), "each itinerary carries the full offer price")

	fallback := offers[2]
	assert.Equal(t, "2-2", fallback.ID)
	assert.Equal(t, flight.CabinEconomy, fallback.CabinClass)
	assert.Equal(t, flight.Duration(750), fallback.Duration)
}

func TestClient_RateLimitHonoursDeadline(t *testing.T) {
	fp, srv := newFakeProvider(t)
	client := NewClient(&http.Client{Timeout: 2 * time.Second}, Config{
		BaseURL:      srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		MaxRPS:       1,
	}, logger.Nop{})

	tok, err := client.Authenticate(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.SearchOffers(ctx, tok, request())

	assert.ErrorIs(t, err, flight.ErrProviderSearch)
	assert.Equal(t, int32(0), fp.searchCalls.Load())
}
