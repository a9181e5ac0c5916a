package flight

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

const (
	defaultMinPrice         = 500
	defaultMaxPrice         = 10000
	defaultMaxDurationHours = 24
)

// DefaultFilterState is the "no filters applied" state. Initial state, reset
// and per-field removal all derive from it.
func DefaultFilterState() FilterState {
	return FilterState{
		PriceRange: PriceRange{
			Min: decimal.NewFromInt(defaultMinPrice),
			Max: decimal.NewFromInt(defaultMaxPrice),
		},
		DepartureBand:    BandAny,
		ArrivalBand:      BandAny,
		MaxDurationHours: defaultMaxDurationHours,
		Stops:            StopsAny,
		Airlines:         []string{},
		SortBy:           SortPriceAsc,
		CabinClass:       CabinEconomy,
	}
}

// FilterField names one removable filter.
type FilterField string

const (
	FieldPriceRange      FilterField = "price_range"
	FieldDepartureTime   FilterField = "departure_time"
	FieldArrivalTime     FilterField = "arrival_time"
	FieldMaxDuration     FilterField = "max_duration"
	FieldStops           FilterField = "stops"
	FieldAirlines        FilterField = "airlines"
	FieldCabinClass      FilterField = "cabin_class"
	FieldIncludeBaggage  FilterField = "include_baggage"
	FieldFlexibleTickets FilterField = "include_flexible_tickets"
)

// fieldOrder is the canonical display order used by Summarize.
var fieldOrder = []FilterField{
	FieldPriceRange,
	FieldDepartureTime,
	FieldArrivalTime,
	FieldMaxDuration,
	FieldStops,
	FieldAirlines,
	FieldCabinClass,
	FieldIncludeBaggage,
	FieldFlexibleTickets,
}

// Fields lists every filter field in display order.
func Fields() []FilterField {
	return slices.Clone(fieldOrder)
}

type fieldSpec struct {
	isDefault func(s, def FilterState) bool
	copy      func(dst *FilterState, src FilterState)
}

var fieldSpecs = map[FilterField]fieldSpec{
	FieldPriceRange: {
		isDefault: func(s, def FilterState) bool { return s.PriceRange.Equal(def.PriceRange) },
		copy:      func(dst *FilterState, src FilterState) { dst.PriceRange = src.PriceRange },
	},
	FieldDepartureTime: {
		isDefault: func(s, def FilterState) bool { return s.DepartureBand.orAny() == def.DepartureBand.orAny() },
		copy:      func(dst *FilterState, src FilterState) { dst.DepartureBand = src.DepartureBand },
	},
	FieldArrivalTime: {
		isDefault: func(s, def FilterState) bool { return s.ArrivalBand.orAny() == def.ArrivalBand.orAny() },
		copy:      func(dst *FilterState, src FilterState) { dst.ArrivalBand = src.ArrivalBand },
	},
	FieldMaxDuration: {
		// Only a tighter ceiling counts as a filter.
		isDefault: func(s, def FilterState) bool { return s.MaxDurationHours >= def.MaxDurationHours },
		copy:      func(dst *FilterState, src FilterState) { dst.MaxDurationHours = src.MaxDurationHours },
	},
	FieldStops: {
		isDefault: func(s, def FilterState) bool { return s.Stops == def.Stops },
		copy:      func(dst *FilterState, src FilterState) { dst.Stops = src.Stops },
	},
	FieldAirlines: {
		isDefault: func(s, def FilterState) bool { return len(s.Airlines) == len(def.Airlines) },
		copy:      func(dst *FilterState, src FilterState) { dst.Airlines = slices.Clone(src.Airlines) },
	},
	FieldCabinClass: {
		isDefault: func(s, def FilterState) bool { return s.CabinClass == def.CabinClass },
		copy:      func(dst *FilterState, src FilterState) { dst.CabinClass = src.CabinClass },
	},
	FieldIncludeBaggage: {
		isDefault: func(s, def FilterState) bool { return s.IncludeBaggage == def.IncludeBaggage },
		copy:      func(dst *FilterState, src FilterState) { dst.IncludeBaggage = src.IncludeBaggage },
	},
	FieldFlexibleTickets: {
		isDefault: func(s, def FilterState) bool { return s.FlexibleTickets == def.FlexibleTickets },
		copy:      func(dst *FilterState, src FilterState) { dst.FlexibleTickets = src.FlexibleTickets },
	},
}

// ActiveFilter is one removable entry in the applied-filters list.
type ActiveFilter struct {
	Field FilterField `json:"key"`
	Label string      `json:"label"`
}

// IsActive reports whether field differs from its default in state.
func IsActive(state FilterState, field FilterField) bool {
	spec, ok := fieldSpecs[field]
	if !ok {
		return false
	}
	return !spec.isDefault(state, DefaultFilterState())
}

// UpdateSummary drops any previous entry for field and appends a fresh one
// when the field is now active. prev is not modified.
func UpdateSummary(prev []ActiveFilter, state FilterState, field FilterField, labels Labels) ([]ActiveFilter, bool) {
	next := make([]ActiveFilter, 0, len(prev)+1)
	for _, f := range prev {
		if f.Field != field {
			next = append(next, f)
		}
	}

	active := IsActive(state, field)
	if active {
		next = append(next, ActiveFilter{Field: field, Label: labels.Label(field, state)})
	}
	return next, active
}

// Summarize lists every active field of state in display order.
func Summarize(state FilterState, labels Labels) []ActiveFilter {
	out := []ActiveFilter{}
	for _, field := range fieldOrder {
		if IsActive(state, field) {
			out = append(out, ActiveFilter{Field: field, Label: labels.Label(field, state)})
		}
	}
	return out
}

// ResetField returns state with exactly one field restored to its default.
func ResetField(state FilterState, field FilterField) (FilterState, error) {
	spec, ok := fieldSpecs[field]
	if !ok {
		return state, fmt.Errorf("%w: unknown filter field %q", ErrValidation, field)
	}
	spec.copy(&state, DefaultFilterState())
	return state, nil
}

// Session is the filter state of one results view together with its
// applied-filters list.
type Session struct {
	State  FilterState
	Active []ActiveFilter
	labels Labels
}

func NewSession(labels Labels) *Session {
	return &Session{
		State:  DefaultFilterState(),
		Active: []ActiveFilter{},
		labels: labels,
	}
}

// Change applies edit but keeps only the named field from its result, so an
// edit cannot leak into other fields. It reports whether the field is active.
func (s *Session) Change(field FilterField, edit func(*FilterState)) (bool, error) {
	spec, ok := fieldSpecs[field]
	if !ok {
		return false, fmt.Errorf("%w: unknown filter field %q", ErrValidation, field)
	}

	scratch := s.State
	scratch.Airlines = slices.Clone(s.State.Airlines)
	edit(&scratch)
	spec.copy(&s.State, scratch)

	var active bool
	s.Active, active = UpdateSummary(s.Active, s.State, field, s.labels)
	return active, nil
}

// Remove resets field to its default and drops its summary entry.
func (s *Session) Remove(field FilterField) error {
	state, err := ResetField(s.State, field)
	if err != nil {
		return err
	}
	s.State = state
	s.Active, _ = UpdateSummary(s.Active, s.State, field, s.labels)
	return nil
}

// SetSort changes the sort key. Sorting is not a filter and never appears in
// the summary.
func (s *Session) SetSort(key SortKey) {
	s.State.SortBy = key
}

// Reset restores every field and clears the summary.
func (s *Session) Reset() {
	s.State = DefaultFilterState()
	s.Active = []ActiveFilter{}
}
