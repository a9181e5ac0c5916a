// Package amadeus talks to the Amadeus Self-Service flight-offers API.
package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"farewatch/internal/flight"
	"farewatch/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// Currency is the single reporting currency requested from the provider.
const Currency = "BRL"

const (
	tokenPath  = "/v1/security/oauth2/token"
	offersPath = "/v2/shopping/flight-offers"
	maxErrBody = 4 << 10
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// MaxRPS caps outbound requests per second across all callers. Zero
	// disables the limit.
	MaxRPS int
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      clientcredentials.Config
	limiter    *rate.Limiter
	logger     logger.Client
}

// NewClient builds a gateway. httpClient carries the request timeout; the
// client never retries on its own.
func NewClient(httpClient *http.Client, cfg Config, log logger.Client) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.MaxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), cfg.MaxRPS)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		creds: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     base + tokenPath,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		limiter: limiter,
		logger:  log,
	}
}

// Authenticate exchanges the client credentials for a bearer token. The token
// is not cached between calls.
func (c *Client) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("amadeus: %w: %v", flight.ErrProviderAuth, err)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("amadeus: %w: %v", flight.ErrProviderAuth, err)
	}
	return tok, nil
}

// SearchOffers runs one flight-offers query with an existing token and
// returns the normalised offers.
func (c *Client) SearchOffers(ctx context.Context, tok *oauth2.Token, req flight.SearchRequest) ([]flight.Offer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("amadeus: %w: %v", flight.ErrProviderSearch, err)
	}
	endpoint := c.baseURL + offersPath + "?" + searchParams(req).Encode()

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("amadeus: failed to build request: %w", err)
	}
	r.Header.Set("Accept", "application/json")
	tok.SetAuthHeader(r)

	resp, err := c.httpClient.Do(r)
	if err != nil {
		return nil, fmt.Errorf("amadeus: %w: %v", flight.ErrProviderSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return nil, fmt.Errorf("amadeus: %w: status %d: %s", flight.ErrProviderSearch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var apiResp offersResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("amadeus: %w: failed to decode json response: %v", flight.ErrProviderSearch, err)
	}

	offers, skipped := normalize(apiResp.Data)
	for _, s := range skipped {
		c.logger.Warn("itinerary_skipped",
			logger.Field{Key: "route", Value: req.Origin + "-" + req.Destination},
			logger.Err(s),
		)
	}
	return offers, nil
}

// FetchOffers authenticates and searches in one call.
func (c *Client) FetchOffers(ctx context.Context, req flight.SearchRequest) ([]flight.Offer, error) {
	tok, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return c.SearchOffers(ctx, tok, req)
}

func searchParams(req flight.SearchRequest) url.Values {
	adults := req.Adults
	if adults < 1 {
		adults = 1
	}

	q := url.Values{}
	q.Set("originLocationCode", req.Origin)
	q.Set("destinationLocationCode", req.Destination)
	q.Set("departureDate", req.DepartureDate)
	q.Set("adults", strconv.Itoa(adults))
	q.Set("currencyCode", Currency)
	if req.ReturnDate != "" {
		q.Set("returnDate", req.ReturnDate)
	}
	if req.MaxPrice != nil {
		q.Set("maxPrice", strconv.Itoa(*req.MaxPrice))
	}
	return q
}
