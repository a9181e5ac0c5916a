package flight

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// ParseCabinClass maps provider and form spellings ("PREMIUM_ECONOMY",
// "premium-economy") onto the closed set. Unknown values fall back to economy.
func ParseCabinClass(s string) CabinClass {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "premium_economy":
		return CabinPremiumEconomy
	case "business":
		return CabinBusiness
	case "first":
		return CabinFirst
	default:
		return CabinEconomy
	}
}

// TimeBand is a fixed clock-hour window. Intervals are half-open [from, to).
type TimeBand string

const (
	BandAny       TimeBand = "any"
	BandMorning   TimeBand = "morning"
	BandAfternoon TimeBand = "afternoon"
	BandEvening   TimeBand = "evening"
	BandNight     TimeBand = "night"
)

var bandMinutes = map[TimeBand][2]int{
	BandNight:     {0, 6 * 60},
	BandMorning:   {6 * 60, 12 * 60},
	BandAfternoon: {12 * 60, 18 * 60},
	BandEvening:   {18 * 60, 24 * 60},
}

// Contains reports whether a minutes-since-midnight value falls in the band.
// BandAny contains everything.
func (b TimeBand) Contains(minuteOfDay int) bool {
	if b.orAny() == BandAny {
		return true
	}
	r, ok := bandMinutes[b]
	if !ok {
		return true
	}
	return minuteOfDay >= r[0] && minuteOfDay < r[1]
}

func (b TimeBand) orAny() TimeBand {
	if b == "" {
		return BandAny
	}
	return b
}

// Valid accepts every named band. An empty band means BandAny.
func (b TimeBand) Valid() bool {
	if b == BandAny || b == "" {
		return true
	}
	_, ok := bandMinutes[b]
	return ok
}

type SortKey string

const (
	SortPriceAsc     SortKey = "price-asc"
	SortDurationAsc  SortKey = "duration-asc"
	SortDepartureAsc SortKey = "departure-asc"
	SortArrivalAsc   SortKey = "arrival-asc"
)

// StopLimit is the maximum number of stops. StopsAny disables the constraint.
type StopLimit int

const StopsAny StopLimit = -1

func (s StopLimit) MarshalJSON() ([]byte, error) {
	if s == StopsAny {
		return []byte(`"any"`), nil
	}
	return []byte(strconv.Itoa(int(s))), nil
}

// UnmarshalJSON accepts "any", a numeric string such as "1", or a number.
func (s *StopLimit) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*s = StopsAny
		return nil
	case float64:
		if v < 0 || v != float64(int(v)) {
			return fmt.Errorf("%w: stops must be a non-negative integer, got %v", ErrValidation, v)
		}
		*s = StopLimit(int(v))
		return nil
	case string:
		if v == "" || strings.EqualFold(v, "any") {
			*s = StopsAny
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: stops must be \"any\" or a non-negative integer, got %q", ErrValidation, v)
		}
		*s = StopLimit(n)
		return nil
	default:
		return fmt.Errorf("%w: unsupported stops value %s", ErrValidation, string(b))
	}
}

// FlexibleTime accepts the provider's zone-less timestamps, RFC 3339, and the
// date-less "HH:MM" display form.
type FlexibleTime struct {
	time.Time
}

var flexibleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"15:04",
}

func ParseFlexibleTime(s string) (FlexibleTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range flexibleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FlexibleTime{Time: t}, nil
		}
	}
	return FlexibleTime{}, fmt.Errorf("unrecognised time %q", s)
}

func (t FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339))
}

func (t *FlexibleTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseFlexibleTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MinuteOfDay is the clock time as minutes since midnight.
func (t FlexibleTime) MinuteOfDay() int {
	return t.Hour()*60 + t.Minute()
}

// Offer is one priced itinerary.
type Offer struct {
	ID              string          `json:"id"`
	Airline         string          `json:"airline"`
	FlightNumber    string          `json:"flight_number"`
	Origin          string          `json:"origin"`
	Destination     string          `json:"destination"`
	DepartureTime   FlexibleTime    `json:"departure_time"`
	ArrivalTime     FlexibleTime    `json:"arrival_time"`
	Duration        Duration        `json:"duration"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	Stops           int             `json:"stops"`
	LayoverAirports []string        `json:"layover_airports"`
	CabinClass      CabinClass      `json:"cabin_class"`
	DeepLink        string          `json:"deep_link,omitempty"`
}

type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

func (r PriceRange) Equal(o PriceRange) bool {
	return r.Min.Equal(o.Min) && r.Max.Equal(o.Max)
}

// FilterState is the complete filter and sort selection of one results view.
type FilterState struct {
	PriceRange       PriceRange `json:"price_range"`
	DepartureBand    TimeBand   `json:"departure_time"`
	ArrivalBand      TimeBand   `json:"arrival_time"`
	MaxDurationHours int        `json:"max_duration_hours"`
	Stops            StopLimit  `json:"stops"`
	Airlines         []string   `json:"airlines"`
	SortBy           SortKey    `json:"sort_by"`
	CabinClass       CabinClass `json:"cabin_class"`
	IncludeBaggage   bool       `json:"include_baggage"`
	FlexibleTickets  bool       `json:"include_flexible_tickets"`
}

// UnmarshalJSON starts from DefaultFilterState so omitted fields keep their
// defaults instead of zero values.
func (f *FilterState) UnmarshalJSON(b []byte) error {
	type plain FilterState
	state := plain(DefaultFilterState())
	if err := json.Unmarshal(b, &state); err != nil {
		return err
	}
	*f = FilterState(state)
	f.DepartureBand = f.DepartureBand.orAny()
	f.ArrivalBand = f.ArrivalBand.orAny()
	return nil
}

// Validate rejects states the filter engine cannot interpret.
func (f FilterState) Validate() error {
	if f.PriceRange.Min.GreaterThan(f.PriceRange.Max) {
		return fmt.Errorf("%w: price_range.min must not exceed price_range.max", ErrValidation)
	}
	if f.PriceRange.Min.IsNegative() {
		return fmt.Errorf("%w: price_range.min must not be negative", ErrValidation)
	}
	if !f.DepartureBand.Valid() || !f.ArrivalBand.Valid() {
		return fmt.Errorf("%w: unknown time band", ErrValidation)
	}
	if f.MaxDurationHours < 1 {
		return fmt.Errorf("%w: max_duration_hours must be positive", ErrValidation)
	}
	return nil
}

type SearchRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	Adults        int    `json:"adults"`
	MaxPrice      *int   `json:"max_price,omitempty"`
}

// IsIATACode reports whether code is three upper-case ASCII letters.
func IsIATACode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// Validate normalises codes to upper case and checks the route.
func (r *SearchRequest) Validate() error {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))

	if r.Origin == "" || r.Destination == "" {
		return fmt.Errorf("%w: origin and destination are required", ErrValidation)
	}
	if !IsIATACode(r.Origin) || !IsIATACode(r.Destination) {
		return fmt.Errorf("%w: origin and destination must be 3-letter IATA codes", ErrValidation)
	}
	if r.Origin == r.Destination {
		return fmt.Errorf("%w: origin and destination must differ", ErrValidation)
	}
	if _, err := time.Parse(time.DateOnly, r.DepartureDate); err != nil {
		return fmt.Errorf("%w: departure_date must be YYYY-MM-DD", ErrValidation)
	}
	if r.ReturnDate != "" {
		if _, err := time.Parse(time.DateOnly, r.ReturnDate); err != nil {
			return fmt.Errorf("%w: return_date must be YYYY-MM-DD", ErrValidation)
		}
	}
	if r.Adults == 0 {
		r.Adults = 1
	}
	if r.Adults < 0 {
		return fmt.Errorf("%w: adults must be positive", ErrValidation)
	}
	return nil
}

type Metadata struct {
	TotalResults int    `json:"total_results"`
	SearchTimeMs int64  `json:"search_time_ms"`
	CacheKey     string `json:"cache_key"`
	CacheHit     bool   `json:"cache_hit"`
}

type SearchResponse struct {
	Metadata Metadata `json:"metadata"`
	Offers   []Offer  `json:"offers"`
}

type FilterRequest struct {
	SearchRequest
	Filters *FilterState `json:"filters,omitempty"`
}

type FilterResponse struct {
	Metadata      Metadata       `json:"metadata"`
	Offers        []Offer        `json:"offers"`
	ActiveFilters []ActiveFilter `json:"active_filters"`
}
