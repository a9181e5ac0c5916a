package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"farewatch/internal/flight"
	"farewatch/pkg/amadeus"
	"farewatch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	newMockServer("dev-id", "dev-secret", 0).register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(baseURL, secret string) *amadeus.Client {
	return amadeus.NewClient(&http.Client{Timeout: 2 * time.Second}, amadeus.Config{
		BaseURL:      baseURL,
		ClientID:     "dev-id",
		ClientSecret: secret,
	}, logger.Nop{})
}

func TestMockServer_ServesNormalizableOffers(t *testing.T) {
	srv := newTestServer(t)
	gw := newGateway(srv.URL, "dev-secret")
	req := flight.SearchRequest{Origin: "GRU", Destination: "GIG", DepartureDate: "2026-03-10", Adults: 1}

	first, err := gw.FetchOffers(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first, len(carriers))

	for _, o := range first {
		assert.Equal(t, "GRU", o.Origin)
		assert.Equal(t, "GIG", o.Destination)
		assert.Positive(t, int(o.Duration))
		assert.Equal(t, len(o.LayoverAirports), o.Stops)
		assert.Equal(t, flight.CabinEconomy, o.CabinClass)
	}

	second, err := gw.FetchOffers(context.Background(), req)
	require.NoError(t, err)
	for i := range first {
		assert.True(t, first[i].Price.Equal(second[i].Price), "prices are stable per route and date")
	}
}

func TestMockServer_RoundTripAndMaxPrice(t *testing.T) {
	srv := newTestServer(t)
	gw := newGateway(srv.URL, "dev-secret")

	all, err := gw.FetchOffers(context.Background(), flight.SearchRequest{
		Origin: "GRU", Destination: "JFK", DepartureDate: "2026-06-01", ReturnDate: "2026-06-15",
	})
	require.NoError(t, err)
	assert.Len(t, all, 2*len(carriers))

	cheapest := all[0].Price
	for _, o := range all {
		if o.Price.LessThan(cheapest) {
			cheapest = o.Price
		}
	}
	limit := int(cheapest.IntPart())

	capped, err := gw.FetchOffers(context.Background(), flight.SearchRequest{
		Origin: "GRU", Destination: "JFK", DepartureDate: "2026-06-01", ReturnDate: "2026-06-15", MaxPrice: &limit,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, capped)
	assert.Less(t, len(capped), len(all))
}

func TestMockServer_RejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)

	_, err := newGateway(srv.URL, "wrong").Authenticate(context.Background())

	assert.ErrorIs(t, err, flight.ErrProviderAuth)
}

func TestMockServer_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v2/shopping/flight-offers?originLocationCode=GRU&destinationLocationCode=GIG&departureDate=2026-03-10")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMockServer_ExpiredTokensAreEvicted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newMockServer("dev-id", "dev-secret", 0)
	r := gin.New()
	s.register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	s.tokens["stale"] = time.Now().Add(-time.Second)
	s.tokens["expired"] = time.Now().Add(-time.Minute)

	assert.False(t, s.validToken("Bearer stale"))
	assert.NotContains(t, s.tokens, "stale")

	_, err := newGateway(srv.URL, "dev-secret").Authenticate(context.Background())
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.NotContains(t, s.tokens, "expired")
	assert.Len(t, s.tokens, 1)
}
