package flight

import (
	"testing"

	"github.com/shopspring/decimal"
)

func clock(t *testing.T, hhmm string) FlexibleTime {
	t.Helper()
	ft, err := ParseFlexibleTime(hhmm)
	if err != nil {
		t.Fatalf("bad clock %q: %v", hhmm, err)
	}
	return ft
}

func offer(t *testing.T, id, airline string, price int64, dep, arr string, minutes, stops int) Offer {
	t.Helper()
	return Offer{
		ID:            id,
		Airline:       airline,
		FlightNumber:  id,
		Origin:        "GRU",
		Destination:   "GIG",
		DepartureTime: clock(t, dep),
		ArrivalTime:   clock(t, arr),
		Duration:      Duration(minutes),
		Price:         decimal.NewFromInt(price),
		Currency:      "BRL",
		Stops:         stops,
		CabinClass:    CabinEconomy,
	}
}

// domesticOffers mirrors a typical Sao Paulo to Rio results page. Every price
// sits inside the default range.
func domesticOffers(t *testing.T) []Offer {
	return []Offer{
		offer(t, "LA3456", "LATAM Airlines", 650, "08:00", "09:00", 60, 0),
		offer(t, "G31234", "Gol Linhas Aereas", 720, "10:30", "11:30", 60, 0),
		offer(t, "AD4567", "Azul", 580, "14:15", "15:45", 90, 1),
		offer(t, "AA0950", "American Airlines", 3800, "22:10", "05:40", 450, 2),
	}
}

func ids(offers []Offer) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.ID
	}
	return out
}
