package tracking

import (
	"context"
	"time"

	"farewatch/internal/flight"

	"github.com/shopspring/decimal"
)

type SearchStore interface {
	// CreateSearch inserts the search and, when seed is non-nil, its first
	// alert in the same transaction. IDs are assigned by the store.
	CreateSearch(ctx context.Context, s *RecurringSearch, seed *PriceAlert) error
	ListActiveSearches(ctx context.Context) ([]RecurringSearch, error)
	TouchLastChecked(ctx context.Context, searchID int64, at time.Time) error
	DeactivateSearch(ctx context.Context, searchID int64, userID string) error
}

type ResultStore interface {
	// AppendResults writes one flight_search_results row and one
	// price_history row per offer.
	AppendResults(ctx context.Context, search RecurringSearch, offers []flight.Offer, at time.Time) error
	PriceHistory(ctx context.Context, q HistoryQuery) ([]PriceHistoryPoint, error)
}

type AlertStore interface {
	CreateAlert(ctx context.Context, a *PriceAlert) error
	// ListTriggeredAlerts returns active alerts of the search whose threshold
	// is at or above price.
	ListTriggeredAlerts(ctx context.Context, searchID int64, price decimal.Decimal) ([]PriceAlert, error)
	MarkTriggered(ctx context.Context, alertIDs []int64, at time.Time) error
	AlertsByUser(ctx context.Context, userID string) ([]PriceAlert, error)
}

type NotificationStore interface {
	CreateNotifications(ctx context.Context, ns []UserNotification) error
	NotificationsByUser(ctx context.Context, userID string) ([]UserNotification, error)
	MarkNotificationRead(ctx context.Context, notificationID int64, userID string) error
}

// Store is everything the tracking package persists.
type Store interface {
	SearchStore
	ResultStore
	AlertStore
	NotificationStore
}
