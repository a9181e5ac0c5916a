package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farewatch/internal/flight"
	"farewatch/pkg/clock"
	"farewatch/pkg/logger"

	"github.com/shopspring/decimal"
)

type CreateSearchInput struct {
	UserID        string           `json:"userId"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	DepartureDate string           `json:"departureDate"`
	ReturnDate    string           `json:"returnDate,omitempty"`
	MaxPrice      *decimal.Decimal `json:"maxPrice,omitempty"`
	MinPrice      *decimal.Decimal `json:"minPrice,omitempty"`
}

type CreateAlertInput struct {
	UserID         string          `json:"userId"`
	SearchID       int64           `json:"searchId"`
	PriceThreshold decimal.Decimal `json:"priceThreshold"`
}

// Service implements the tracking actions exposed over HTTP.
type Service struct {
	store  Store
	clock  clock.Clock
	logger logger.Client
}

func NewService(store Store, clk clock.Clock, log logger.Client) *Service {
	return &Service{store: store, clock: clk, logger: log}
}

// CreateSearch stores a recurring search. A maxPrice also creates the first
// alert for the user at that threshold.
func (s *Service) CreateSearch(ctx context.Context, in CreateSearchInput) (*RecurringSearch, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	search := &RecurringSearch{
		UserID:        in.UserID,
		Origin:        in.Origin,
		Destination:   in.Destination,
		DepartureDate: in.DepartureDate,
		MinPrice:      in.MinPrice,
		MaxPrice:      in.MaxPrice,
		IsActive:      true,
		CreatedAt:     now,
	}
	if in.ReturnDate != "" {
		rd := in.ReturnDate
		search.ReturnDate = &rd
	}

	var seed *PriceAlert
	if in.MaxPrice != nil {
		seed = &PriceAlert{
			UserID:         in.UserID,
			PriceThreshold: *in.MaxPrice,
			IsActive:       true,
			CreatedAt:      now,
		}
	}

	if err := s.store.CreateSearch(ctx, search, seed); err != nil {
		return nil, fmt.Errorf("%w: create search: %v", flight.ErrPersistence, err)
	}

	s.logger.Info("search_created",
		logger.Field{Key: "search_id", Value: search.ID},
		logger.Field{Key: "route", Value: search.Route()},
		logger.Field{Key: "seeded_alert", Value: seed != nil},
	)
	return search, nil
}

func (s *Service) CreateAlert(ctx context.Context, in CreateAlertInput) (*PriceAlert, error) {
	if strings.TrimSpace(in.UserID) == "" || in.SearchID == 0 {
		return nil, fmt.Errorf("%w: userId, searchId and priceThreshold are required", flight.ErrValidation)
	}
	if !in.PriceThreshold.IsPositive() {
		return nil, fmt.Errorf("%w: priceThreshold must be positive", flight.ErrValidation)
	}

	alert := &PriceAlert{
		UserID:         in.UserID,
		SearchID:       in.SearchID,
		PriceThreshold: in.PriceThreshold,
		IsActive:       true,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.store.CreateAlert(ctx, alert); err != nil {
		return nil, wrapStoreErr("create alert", err)
	}
	return alert, nil
}

// PriceHistory returns the series for a route, oldest first, with summary
// statistics. All statistics are zero for an empty series.
func (s *Service) PriceHistory(ctx context.Context, q HistoryQuery) ([]PriceHistoryPoint, PriceStats, error) {
	q.Origin = strings.ToUpper(strings.TrimSpace(q.Origin))
	q.Destination = strings.ToUpper(strings.TrimSpace(q.Destination))
	if q.Origin == "" || q.Destination == "" {
		return nil, PriceStats{}, fmt.Errorf("%w: origin and destination are required", flight.ErrValidation)
	}
	if !flight.IsIATACode(q.Origin) || !flight.IsIATACode(q.Destination) {
		return nil, PriceStats{}, fmt.Errorf("%w: origin and destination must be 3-letter IATA codes", flight.ErrValidation)
	}
	if q.DepartureDate != "" {
		if _, err := time.Parse(time.DateOnly, q.DepartureDate); err != nil {
			return nil, PriceStats{}, fmt.Errorf("%w: departureDate must be YYYY-MM-DD", flight.ErrValidation)
		}
	}

	points, err := s.store.PriceHistory(ctx, q)
	if err != nil {
		return nil, PriceStats{}, fmt.Errorf("%w: price history: %v", flight.ErrPersistence, err)
	}
	if points == nil {
		points = []PriceHistoryPoint{}
	}
	return points, computeStats(points), nil
}

func computeStats(points []PriceHistoryPoint) PriceStats {
	if len(points) == 0 {
		return PriceStats{LowestPrice: decimal.Zero, HighestPrice: decimal.Zero, AveragePrice: decimal.Zero}
	}

	lowest, highest, total := points[0].Price, points[0].Price, decimal.Zero
	for _, p := range points {
		if p.Price.LessThan(lowest) {
			lowest = p.Price
		}
		if p.Price.GreaterThan(highest) {
			highest = p.Price
		}
		total = total.Add(p.Price)
	}
	return PriceStats{
		LowestPrice:  lowest,
		HighestPrice: highest,
		AveragePrice: total.Div(decimal.NewFromInt(int64(len(points)))).Round(2),
	}
}

func (s *Service) AlertsByUser(ctx context.Context, userID string) ([]PriceAlert, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", flight.ErrValidation)
	}
	alerts, err := s.store.AlertsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: alerts by user: %v", flight.ErrPersistence, err)
	}
	if alerts == nil {
		alerts = []PriceAlert{}
	}
	return alerts, nil
}

func (s *Service) NotificationsByUser(ctx context.Context, userID string) ([]UserNotification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", flight.ErrValidation)
	}
	notes, err := s.store.NotificationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: notifications by user: %v", flight.ErrPersistence, err)
	}
	if notes == nil {
		notes = []UserNotification{}
	}
	return notes, nil
}

// DeactivateSearch stops the scanner from selecting the search. Rows are
// never deleted.
func (s *Service) DeactivateSearch(ctx context.Context, searchID int64, userID string) error {
	if searchID == 0 || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: searchId and userId are required", flight.ErrValidation)
	}
	if err := s.store.DeactivateSearch(ctx, searchID, userID); err != nil {
		return wrapStoreErr("deactivate search", err)
	}
	return nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, notificationID int64, userID string) error {
	if notificationID == 0 || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: notificationId and userId are required", flight.ErrValidation)
	}
	if err := s.store.MarkNotificationRead(ctx, notificationID, userID); err != nil {
		return wrapStoreErr("mark notification read", err)
	}
	return nil
}

// wrapStoreErr keeps ErrNotFound visible to the HTTP layer.
func wrapStoreErr(op string, err error) error {
	if errors.Is(err, flight.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", flight.ErrPersistence, op, err)
}

func (in *CreateSearchInput) validate() error {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Origin = strings.ToUpper(strings.TrimSpace(in.Origin))
	in.Destination = strings.ToUpper(strings.TrimSpace(in.Destination))

	if in.UserID == "" || in.Origin == "" || in.Destination == "" || in.DepartureDate == "" {
		return fmt.Errorf("%w: userId, origin, destination and departureDate are required", flight.ErrValidation)
	}
	if !flight.IsIATACode(in.Origin) || !flight.IsIATACode(in.Destination) {
		return fmt.Errorf("%w: origin and destination must be 3-letter IATA codes", flight.ErrValidation)
	}
	if in.Origin == in.Destination {
		return fmt.Errorf("%w: origin and destination must differ", flight.ErrValidation)
	}
	dep, err := time.Parse(time.DateOnly, in.DepartureDate)
	if err != nil {
		return fmt.Errorf("%w: departureDate must be YYYY-MM-DD", flight.ErrValidation)
	}
	if in.ReturnDate != "" {
		ret, err := time.Parse(time.DateOnly, in.ReturnDate)
		if err != nil {
			return fmt.Errorf("%w: returnDate must be YYYY-MM-DD", flight.ErrValidation)
		}
		if ret.Before(dep) {
			return fmt.Errorf("%w: returnDate must not precede departureDate", flight.ErrValidation)
		}
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return fmt.Errorf("%w: minPrice must not be negative", flight.ErrValidation)
	}
	if in.MaxPrice != nil && !in.MaxPrice.IsPositive() {
		return fmt.Errorf("%w: maxPrice must be positive", flight.ErrValidation)
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return fmt.Errorf("%w: minPrice must not exceed maxPrice", flight.ErrValidation)
	}
	return nil
}
