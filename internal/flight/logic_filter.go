package flight

import (
	"strings"

	"github.com/shopspring/decimal"
)

// filterContext holds the normalised state so nothing is re-derived inside the loop
type filterContext struct {
	minPrice    decimal.Decimal
	maxPrice    decimal.Decimal
	maxStops    StopLimit
	airlines    map[string]struct{}
	depBand     TimeBand
	arrBand     TimeBand
	maxDuration Duration
}

func newFilterContext(state FilterState) *filterContext {
	fc := &filterContext{
		minPrice:    state.PriceRange.Min,
		maxPrice:    state.PriceRange.Max,
		maxStops:    state.Stops,
		depBand:     state.DepartureBand,
		arrBand:     state.ArrivalBand,
	}

	if len(state.Airlines) > 0 {
		fc.airlines = make(map[string]struct{}, len(state.Airlines))
		for _, a := range state.Airlines {
			fc.airlines[AirlineKey(a)] = struct{}{}
		}
	}

	// Default slider positions mean "no limit" rather than a real cap.
	if state.MaxDurationHours < defaultMaxDurationHours {
		fc.maxDuration = Duration(state.MaxDurationHours * 60)
	}
	return fc
}

// ApplyFilters returns the offers that satisfy every predicate in state.
// The input slice is not modified.
func ApplyFilters(offers []Offer, state FilterState) []Offer {
	fc := newFilterContext(state)

	filtered := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if fc.matches(o) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// matches returns true only if ALL active filters pass
func (fc *filterContext) matches(o Offer) bool {
	// Bounds always apply, the default range included.
	if o.Price.LessThan(fc.minPrice) || o.Price.GreaterThan(fc.maxPrice) {
		return false
	}

	if fc.maxStops != StopsAny && o.Stops > int(fc.maxStops) {
		return false
	}

	if fc.maxDuration > 0 && o.Duration > fc.maxDuration {
		return false
	}

	if !fc.depBand.Contains(o.DepartureTime.MinuteOfDay()) {
		return false
	}
	if !fc.arrBand.Contains(o.ArrivalTime.MinuteOfDay()) {
		return false
	}

	if fc.airlines != nil {
		if _, ok := fc.airlines[AirlineKey(o.Airline)]; !ok {
			return false
		}
	}

	return true
}

// AirlineKey is the case-folded first word of a carrier name, so "LATAM
// Airlines" and "latam" select the same carrier.
func AirlineKey(airline string) string {
	fields := strings.Fields(airline)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
