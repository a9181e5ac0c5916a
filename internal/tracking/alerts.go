package tracking

import (
	"context"
	"fmt"

	"farewatch/internal/flight"
	"farewatch/pkg/clock"
	"farewatch/pkg/logger"

	"github.com/shopspring/decimal"
)

// AlertEvaluator turns a fresh batch of offers into notifications for every
// alert whose threshold the cheapest offer reached.
type AlertEvaluator struct {
	alerts        AlertStore
	notifications NotificationStore
	clock         clock.Clock
	metrics       *Metrics
	logger        logger.Client
}

func NewAlertEvaluator(alerts AlertStore, notifications NotificationStore, clk clock.Clock, metrics *Metrics, log logger.Client) *AlertEvaluator {
	return &AlertEvaluator{
		alerts:        alerts,
		notifications: notifications,
		clock:         clk,
		metrics:       metrics,
		logger:        log,
	}
}

// Evaluate fires on every call while the price stays at or below a threshold;
// last_triggered is recorded but does not suppress repeats.
func (e *AlertEvaluator) Evaluate(ctx context.Context, search RecurringSearch, offers []flight.Offer) ([]UserNotification, error) {
	if len(offers) == 0 {
		return nil, nil
	}

	minPrice := lowestPrice(offers)

	alerts, err := e.alerts.ListTriggeredAlerts(ctx, search.ID, minPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: list alerts for search %d: %v", flight.ErrPersistence, search.ID, err)
	}
	if len(alerts) == 0 {
		return nil, nil
	}

	now := e.clock.Now()
	message := alertMessage(search, minPrice)

	notes := make([]UserNotification, 0, len(alerts))
	alertIDs := make([]int64, 0, len(alerts))
	for _, a := range alerts {
		alertID := a.ID
		notes = append(notes, UserNotification{
			UserID:    a.UserID,
			AlertID:   &alertID,
			Message:   message,
			CreatedAt: now,
		})
		alertIDs = append(alertIDs, a.ID)
	}

	if err := e.notifications.CreateNotifications(ctx, notes); err != nil {
		return nil, fmt.Errorf("%w: create notifications for search %d: %v", flight.ErrPersistence, search.ID, err)
	}
	if err := e.alerts.MarkTriggered(ctx, alertIDs, now); err != nil {
		return notes, fmt.Errorf("%w: mark alerts triggered for search %d: %v", flight.ErrPersistence, search.ID, err)
	}

	e.metrics.NotificationsCreated.Add(float64(len(notes)))
	e.logger.Info("alerts_triggered",
		logger.Field{Key: "search_id", Value: search.ID},
		logger.Field{Key: "alerts", Value: len(notes)},
		logger.Field{Key: "min_price", Value: minPrice.StringFixed(2)},
	)
	return notes, nil
}

func lowestPrice(offers []flight.Offer) decimal.Decimal {
	lowest := offers[0].Price
	for _, o := range offers[1:] {
		if o.Price.LessThan(lowest) {
			lowest = o.Price
		}
	}
	return lowest
}

func alertMessage(search RecurringSearch, price decimal.Decimal) string {
	return fmt.Sprintf("Voo encontrado abaixo do preço alvo! %s para %s por R$ %s",
		search.Origin, search.Destination, price.StringFixed(2))
}
