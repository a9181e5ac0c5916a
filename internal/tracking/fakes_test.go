package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"farewatch/internal/flight"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
)

var errDB = errors.New("connection reset")

// memStore is an in-memory Store. Calls counts every method invocation.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	calls   int
	touched map[int64]time.Time

	searches []RecurringSearch
	alerts   []PriceAlert
	history  []PriceHistoryPoint
	results  int
	notes    []UserNotification

	listErr   error
	appendErr error
	alertsErr error
}

func newMemStore() *memStore {
	return &memStore{nextID: 100, touched: map[int64]time.Time{}}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateSearch(_ context.Context, s *RecurringSearch, seed *PriceAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	s.ID = m.id()
	m.searches = append(m.searches, *s)
	if seed != nil {
		seed.ID = m.id()
		seed.SearchID = s.ID
		m.alerts = append(m.alerts, *seed)
	}
	return nil
}

func (m *memStore) ListActiveSearches(context.Context) ([]RecurringSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []RecurringSearch
	for _, s := range m.searches {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) TouchLastChecked(_ context.Context, searchID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.touched[searchID] = at
	return nil
}

func (m *memStore) DeactivateSearch(_ context.Context, searchID int64, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for i := range m.searches {
		if m.searches[i].ID == searchID && m.searches[i].UserID == userID {
			m.searches[i].IsActive = false
			return nil
		}
	}
	return flight.ErrNotFound
}

func (m *memStore) AppendResults(_ context.Context, search RecurringSearch, offers []flight.Offer, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.appendErr != nil {
		return m.appendErr
	}
	for _, o := range offers {
		m.results++
		m.history = append(m.history, PriceHistoryPoint{
			ID:            m.id(),
			Origin:        search.Origin,
			Destination:   search.Destination,
			DepartureDate: search.DepartureDate,
			Airline:       o.Airline,
			Price:         o.Price,
			Currency:      o.Currency,
			DataSource:    DataSource,
			RecordedAt:    at,
		})
	}
	return nil
}

func (m *memStore) PriceHistory(_ context.Context, q HistoryQuery) ([]PriceHistoryPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []PriceHistoryPoint
	for _, p := range m.history {
		if p.Origin == q.Origin && p.Destination == q.Destination &&
			(q.DepartureDate == "" || p.DepartureDate == q.DepartureDate) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CreateAlert(_ context.Context, a *PriceAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	owned := false
	for _, s := range m.searches {
		if s.ID == a.SearchID && s.UserID == a.UserID {
			owned = true
		}
	}
	if !owned {
		return flight.ErrNotFound
	}
	a.ID = m.id()
	m.alerts = append(m.alerts, *a)
	return nil
}

func (m *memStore) ListTriggeredAlerts(_ context.Context, searchID int64, price decimal.Decimal) ([]PriceAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.alertsErr != nil {
		return nil, m.alertsErr
	}
	var out []PriceAlert
	for _, a := range m.alerts {
		if a.SearchID == searchID && a.IsActive && a.PriceThreshold.GreaterThanOrEqual(price) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) MarkTriggered(_ context.Context, alertIDs []int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, id := range alertIDs {
		for i := range m.alerts {
			if m.alerts[i].ID == id {
				t := at
				m.alerts[i].LastTriggered = &t
			}
		}
	}
	return nil
}

func (m *memStore) AlertsByUser(_ context.Context, userID string) ([]PriceAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []PriceAlert
	for _, a := range m.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) CreateNotifications(_ context.Context, ns []UserNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for i := range ns {
		ns[i].ID = m.id()
		m.notes = append(m.notes, ns[i])
	}
	return nil
}

func (m *memStore) NotificationsByUser(_ context.Context, userID string) ([]UserNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []UserNotification
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, notificationID int64, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for i := range m.notes {
		if m.notes[i].ID == notificationID && m.notes[i].UserID == userID {
			m.notes[i].IsRead = true
			return nil
		}
	}
	return flight.ErrNotFound
}

// fakeGateway answers per route. Routes listed in errs fail.
type fakeGateway struct {
	mu        sync.Mutex
	authErr   error
	authCalls int
	requests  []flight.SearchRequest
	offers    map[string][]flight.Offer
	errs      map[string]error
}

func (g *fakeGateway) Authenticate(context.Context) (*oauth2.Token, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authCalls++
	if g.authErr != nil {
		return nil, g.authErr
	}
	return &oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"}, nil
}

func (g *fakeGateway) SearchOffers(_ context.Context, _ *oauth2.Token, req flight.SearchRequest) ([]flight.Offer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	route := req.Origin + "-" + req.Destination
	if err := g.errs[route]; err != nil {
		return nil, err
	}
	return g.offers[route], nil
}

func priced(id string, price string) flight.Offer {
	return flight.Offer{
		ID:       id,
		Airline:  "American Airlines",
		Price:    decimal.RequireFromString(price),
		Currency: "BRL",
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
