package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"farewatch/internal/flight"
	"farewatch/internal/tracking"
	"farewatch/pkg/db"
	"farewatch/pkg/idgen"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const foreignKeyViolation = pq.ErrorCode("23503")

const (
	insertSearchQuery = `INSERT INTO recurring_searches
		(id, user_id, origin, destination, departure_date, return_date, min_price, max_price, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	insertAlertQuery = `INSERT INTO price_alerts
		(id, user_id, search_id, price_threshold, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// insertOwnedAlertQuery writes nothing unless the search exists and
	// belongs to the same user.
	insertOwnedAlertQuery = `INSERT INTO price_alerts
		(id, user_id, search_id, price_threshold, is_active, created_at)
		SELECT $1::bigint, $2::text, $3::bigint, $4::numeric, $5::boolean, $6::timestamptz
		WHERE EXISTS (SELECT 1 FROM recurring_searches WHERE id = $3 AND user_id = $2)`

	listActiveSearchesQuery = `SELECT id, user_id, origin, destination,
		to_char(departure_date, 'YYYY-MM-DD'), to_char(return_date, 'YYYY-MM-DD'),
		min_price, max_price, is_active, last_checked, created_at
		FROM recurring_searches WHERE is_active ORDER BY created_at`

	touchLastCheckedQuery = `UPDATE recurring_searches SET last_checked = $2 WHERE id = $1`

	deactivateSearchQuery = `UPDATE recurring_searches SET is_active = false WHERE id = $1 AND user_id = $2`

	insertResultQuery = `INSERT INTO flight_search_results
		(id, search_id, origin, destination, departure_date, return_date, airline, flight_number,
		departure_time, arrival_time, duration, price, currency, layovers, layover_airports,
		cabin_class, deep_link, data_source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	insertHistoryQuery = `INSERT INTO price_history
		(id, origin, destination, departure_date, return_date, airline, price, currency, data_source, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	priceHistoryQuery = `SELECT id, origin, destination,
		to_char(departure_date, 'YYYY-MM-DD'), to_char(return_date, 'YYYY-MM-DD'),
		airline, price, currency, data_source, recorded_at
		FROM price_history WHERE origin = $1 AND destination = $2`

	triggeredAlertsQuery = `SELECT id, user_id, search_id, price_threshold, is_active, last_triggered, created_at
		FROM price_alerts WHERE search_id = $1 AND is_active AND price_threshold >= $2`

	markTriggeredQuery = `UPDATE price_alerts SET last_triggered = $2 WHERE id = ANY($1)`

	alertsByUserQuery = `SELECT id, user_id, search_id, price_threshold, is_active, last_triggered, created_at
		FROM price_alerts WHERE user_id = $1 ORDER BY created_at DESC`

	insertNotificationQuery = `INSERT INTO user_notifications
		(id, user_id, alert_id, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	notificationsByUserQuery = `SELECT id, user_id, alert_id, message, is_read, created_at
		FROM user_notifications WHERE user_id = $1 ORDER BY created_at DESC`

	markNotificationReadQuery = `UPDATE user_notifications SET is_read = true WHERE id = $1 AND user_id = $2`
)

// PostgresStore persists recurring searches, alerts, results and
// notifications. History tables are insert-only.
type PostgresStore struct {
	db  db.SQLExecutor
	ids idgen.Generator
}

var _ tracking.Store = (*PostgresStore)(nil)

func NewPostgresStore(exec db.SQLExecutor, ids idgen.Generator) *PostgresStore {
	return &PostgresStore{db: exec, ids: ids}
}

func (s *PostgresStore) CreateSearch(ctx context.Context, search *tracking.RecurringSearch, seed *tracking.PriceAlert) error {
	search.ID = s.ids.NewID()
	if seed != nil {
		seed.ID = s.ids.NewID()
		seed.SearchID = search.ID
	}

	return s.db.WithTransaction(ctx, sql.LevelReadCommitted, func(ctx context.Context, tx db.Querier) error {
		_, err := tx.ExecContext(ctx, insertSearchQuery,
			search.ID, search.UserID, search.Origin, search.Destination, search.DepartureDate,
			search.ReturnDate, search.MinPrice, search.MaxPrice, search.IsActive, search.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert recurring search: %w", err)
		}
		if seed == nil {
			return nil
		}
		if err := insertAlert(ctx, tx, seed); err != nil {
			return fmt.Errorf("insert seed alert: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) ListActiveSearches(ctx context.Context) ([]tracking.RecurringSearch, error) {
	rows, err := s.db.QueryContext(ctx, listActiveSearchesQuery)
	if err != nil {
		return nil, fmt.Errorf("query active searches: %w", err)
	}
	defer rows.Close()

	var out []tracking.RecurringSearch
	for rows.Next() {
		var (
			rs          tracking.RecurringSearch
			returnDate  sql.NullString
			minPrice    decimal.NullDecimal
			maxPrice    decimal.NullDecimal
			lastChecked sql.NullTime
		)
		if err := rows.Scan(&rs.ID, &rs.UserID, &rs.Origin, &rs.Destination, &rs.DepartureDate,
			&returnDate, &minPrice, &maxPrice, &rs.IsActive, &lastChecked, &rs.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recurring search: %w", err)
		}
		rs.ReturnDate = nullString(returnDate)
		rs.MinPrice = nullDecimal(minPrice)
		rs.MaxPrice = nullDecimal(maxPrice)
		rs.LastChecked = nullTime(lastChecked)
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (s *PostgresStore) TouchLastChecked(ctx context.Context, searchID int64, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, touchLastCheckedQuery, searchID, at); err != nil {
		return fmt.Errorf("touch last_checked for %d: %w", searchID, err)
	}
	return nil
}

func (s *PostgresStore) DeactivateSearch(ctx context.Context, searchID int64, userID string) error {
	res, err := s.db.ExecContext(ctx, deactivateSearchQuery, searchID, userID)
	if err != nil {
		return fmt.Errorf("deactivate search %d: %w", searchID, err)
	}
	return requireAffected(res, "recurring search", searchID)
}

// AppendResults writes every offer into both history tables in one
// transaction, so a partial batch is never visible.
func (s *PostgresStore) AppendResults(ctx context.Context, search tracking.RecurringSearch, offers []flight.Offer, at time.Time) error {
	if len(offers) == 0 {
		return nil
	}

	return s.db.WithTransaction(ctx, sql.LevelReadCommitted, func(ctx context.Context, tx db.Querier) error {
		for _, o := range offers {
			_, err := tx.ExecContext(ctx, insertResultQuery,
				s.ids.NewID(), search.ID, search.Origin, search.Destination, search.DepartureDate, search.ReturnDate,
				o.Airline, o.FlightNumber, o.DepartureTime.Time, o.ArrivalTime.Time, int(o.Duration),
				o.Price, o.Currency, o.Stops, pq.Array(o.LayoverAirports),
				string(o.CabinClass), o.DeepLink, tracking.DataSource, at,
			)
			if err != nil {
				return fmt.Errorf("insert search result %s: %w", o.ID, err)
			}

			_, err = tx.ExecContext(ctx, insertHistoryQuery,
				s.ids.NewID(), search.Origin, search.Destination, search.DepartureDate, search.ReturnDate,
				o.Airline, o.Price, o.Currency, tracking.DataSource, at,
			)
			if err != nil {
				return fmt.Errorf("insert price history %s: %w", o.ID, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) PriceHistory(ctx context.Context, q tracking.HistoryQuery) ([]tracking.PriceHistoryPoint, error) {
	query, args := priceHistorySQL(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	var out []tracking.PriceHistoryPoint
	for rows.Next() {
		var (
			p          tracking.PriceHistoryPoint
			returnDate sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Origin, &p.Destination, &p.DepartureDate, &returnDate,
			&p.Airline, &p.Price, &p.Currency, &p.DataSource, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan price history: %w", err)
		}
		p.ReturnDate = nullString(returnDate)
		out = append(out, p)
	}
	return out, rows.Err()
}

func priceHistorySQL(q tracking.HistoryQuery) (string, []any) {
	query := priceHistoryQuery
	args := []any{q.Origin, q.Destination}
	if q.DepartureDate != "" {
		query += " AND departure_date = $3"
		args = append(args, q.DepartureDate)
	}
	return query + " ORDER BY recorded_at ASC", args
}

// CreateAlert reports flight.ErrNotFound when the search is unknown or owned
// by another user.
func (s *PostgresStore) CreateAlert(ctx context.Context, a *tracking.PriceAlert) error {
	a.ID = s.ids.NewID()
	res, err := s.db.ExecContext(ctx, insertOwnedAlertQuery,
		a.ID, a.UserID, a.SearchID, a.PriceThreshold, a.IsActive, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", mapPQError(err, "recurring search", a.SearchID))
	}
	return requireAffected(res, "recurring search", a.SearchID)
}

func insertAlert(ctx context.Context, q db.Querier, a *tracking.PriceAlert) error {
	_, err := q.ExecContext(ctx, insertAlertQuery,
		a.ID, a.UserID, a.SearchID, a.PriceThreshold, a.IsActive, a.CreatedAt,
	)
	return err
}

func (s *PostgresStore) ListTriggeredAlerts(ctx context.Context, searchID int64, price decimal.Decimal) ([]tracking.PriceAlert, error) {
	return s.queryAlerts(ctx, triggeredAlertsQuery, searchID, price)
}

func (s *PostgresStore) AlertsByUser(ctx context.Context, userID string) ([]tracking.PriceAlert, error) {
	return s.queryAlerts(ctx, alertsByUserQuery, userID)
}

func (s *PostgresStore) queryAlerts(ctx context.Context, query string, args ...any) ([]tracking.PriceAlert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []tracking.PriceAlert
	for rows.Next() {
		var (
			a             tracking.PriceAlert
			lastTriggered sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.SearchID, &a.PriceThreshold, &a.IsActive,
			&lastTriggered, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.LastTriggered = nullTime(lastTriggered)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkTriggered(ctx context.Context, alertIDs []int64, at time.Time) error {
	if len(alertIDs) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, markTriggeredQuery, pq.Array(alertIDs), at); err != nil {
		return fmt.Errorf("mark alerts triggered: %w", err)
	}
	return nil
}

// CreateNotifications assigns ids in place.
func (s *PostgresStore) CreateNotifications(ctx context.Context, ns []tracking.UserNotification) error {
	if len(ns) == 0 {
		return nil
	}
	for i := range ns {
		ns[i].ID = s.ids.NewID()
	}

	return s.db.WithTransaction(ctx, sql.LevelReadCommitted, func(ctx context.Context, tx db.Querier) error {
		for _, n := range ns {
			if _, err := tx.ExecContext(ctx, insertNotificationQuery,
				n.ID, n.UserID, n.AlertID, n.Message, n.IsRead, n.CreatedAt); err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) NotificationsByUser(ctx context.Context, userID string) ([]tracking.UserNotification, error) {
	rows, err := s.db.QueryContext(ctx, notificationsByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []tracking.UserNotification
	for rows.Next() {
		var (
			n       tracking.UserNotification
			alertID sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &alertID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if alertID.Valid {
			id := alertID.Int64
			n.AlertID = &id
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, notificationID int64, userID string) error {
	res, err := s.db.ExecContext(ctx, markNotificationReadQuery, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification %d read: %w", notificationID, err)
	}
	return requireAffected(res, "notification", notificationID)
}

func requireAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", flight.ErrNotFound, what, id)
	}
	return nil
}

// mapPQError turns a foreign key violation into flight.ErrNotFound.
func mapPQError(err error, what string, id int64) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s %d", flight.ErrNotFound, what, id)
	}
	return err
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullDecimal(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
