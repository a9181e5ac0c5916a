package tracking

import (
	"time"

	"github.com/shopspring/decimal"
)

// DataSource tags rows written from provider results.
const DataSource = "amadeus"

// RecurringSearch is a route and date the scanner re-prices on every run.
type RecurringSearch struct {
	ID            int64            `json:"id"`
	UserID        string           `json:"user_id"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	DepartureDate string           `json:"departure_date"`
	ReturnDate    *string          `json:"return_date"`
	MinPrice      *decimal.Decimal `json:"min_price"`
	MaxPrice      *decimal.Decimal `json:"max_price"`
	IsActive      bool             `json:"is_active"`
	LastChecked   *time.Time       `json:"last_checked"`
	CreatedAt     time.Time        `json:"created_at"`
}

func (s RecurringSearch) Route() string {
	return s.Origin + "-" + s.Destination
}

type PriceAlert struct {
	ID             int64           `json:"id"`
	UserID         string          `json:"user_id"`
	SearchID       int64           `json:"search_id"`
	PriceThreshold decimal.Decimal `json:"price_threshold"`
	IsActive       bool            `json:"is_active"`
	LastTriggered  *time.Time      `json:"last_triggered"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PriceHistoryPoint is one observed price. Rows are append-only.
type PriceHistoryPoint struct {
	ID            int64           `json:"id"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DepartureDate string          `json:"departure_date"`
	ReturnDate    *string         `json:"return_date"`
	Airline       string          `json:"airline"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	DataSource    string          `json:"data_source"`
	RecordedAt    time.Time       `json:"timestamp"`
}

type UserNotification struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	AlertID   *int64    `json:"alert_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
}

type PriceStats struct {
	LowestPrice  decimal.Decimal `json:"lowestPrice"`
	HighestPrice decimal.Decimal `json:"highestPrice"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

// Outcome is the scan result for one subscription: either FlightsFound or
// Error is set.
type Outcome struct {
	SearchID     int64  `json:"searchId"`
	FlightsFound *int   `json:"flightsFound,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (o Outcome) Failed() bool {
	return o.Error != ""
}

type ScanReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Results    []Outcome `json:"results"`
}
