package flight

import (
	"cmp"
	"slices"
)

type offerComparator func(a, b Offer) int

var comparators = map[SortKey]offerComparator{
	SortPriceAsc: func(a, b Offer) int {
		return a.Price.Cmp(b.Price)
	},
	SortDurationAsc: func(a, b Offer) int {
		return cmp.Compare(CompareDurations(a.Duration, b.Duration), 0)
	},
	SortDepartureAsc: func(a, b Offer) int {
		return cmp.Compare(a.DepartureTime.MinuteOfDay(), b.DepartureTime.MinuteOfDay())
	},
	SortArrivalAsc: func(a, b Offer) int {
		return cmp.Compare(a.ArrivalTime.MinuteOfDay(), b.ArrivalTime.MinuteOfDay())
	},
}

// KnownSortKey reports whether key selects a comparator.
func KnownSortKey(key SortKey) bool {
	_, ok := comparators[key]
	return ok
}

// SortOffers returns a sorted copy. Equal keys keep their input order and an
// unknown key returns the copy unsorted.
func SortOffers(offers []Offer, key SortKey) []Offer {
	sorted := slices.Clone(offers)
	if sorted == nil {
		sorted = []Offer{}
	}

	compare, ok := comparators[key]
	if !ok || len(sorted) <= 1 {
		return sorted
	}

	slices.SortStableFunc(sorted, compare)
	return sorted
}
