package amadeus

import (
	"fmt"
	"strconv"

	"farewatch/internal/flight"

	"github.com/shopspring/decimal"
)

type offersResponse struct {
	Data []apiOffer `json:"data"`
}

type apiOffer struct {
	ID               string            `json:"id"`
	Itineraries      []apiItinerary    `json:"itineraries"`
	Price            apiPrice          `json:"price"`
	TravelerPricings []travelerPricing `json:"travelerPricings"`
}

type apiPrice struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

type apiItinerary struct {
	Duration string       `json:"duration"`
	Segments []apiSegment `json:"segments"`
}

type apiSegment struct {
	CarrierCode string      `json:"carrierCode"`
	Number      string      `json:"number"`
	Departure   apiEndpoint `json:"departure"`
	Arrival     apiEndpoint `json:"arrival"`
}

type apiEndpoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

type travelerPricing struct {
	FareDetailsBySegment []struct {
		Cabin string `json:"cabin"`
	} `json:"fareDetailsBySegment"`
}

// normalize flattens provider offers into one flight.Offer per itinerary.
// Every itinerary carries the full offer price. Offers or itineraries that
// cannot be read are returned as errors and left out; the rest still count.
func normalize(data []apiOffer) ([]flight.Offer, []error) {
	offers := make([]flight.Offer, 0, len(data))
	var skipped []error

	for _, o := range data {
		price, err := decimal.NewFromString(o.Price.Total)
		if err != nil || price.IsNegative() {
			skipped = append(skipped, fmt.Errorf("%w: offer %s: bad price %q", flight.ErrNormalization, o.ID, o.Price.Total))
			continue
		}

		currency := o.Price.Currency
		if currency == "" {
			currency = Currency
		}
		cabin := offerCabin(o)

		for i, it := range o.Itineraries {
			fo, err := normalizeItinerary(it)
			if err != nil {
				skipped = append(skipped, fmt.Errorf("offer %s itinerary %d: %w", o.ID, i, err))
				continue
			}
			fo.ID = o.ID + "-" + strconv.Itoa(i)
			fo.Price = price
			fo.Currency = currency
			fo.CabinClass = cabin
			offers = append(offers, fo)
		}
	}
	return offers, skipped
}

func normalizeItinerary(it apiItinerary) (flight.Offer, error) {
	if len(it.Segments) == 0 {
		return flight.Offer{}, fmt.Errorf("%w: no segments", flight.ErrNormalization)
	}

	first := it.Segments[0]
	last := it.Segments[len(it.Segments)-1]

	dep, err := flight.ParseFlexibleTime(first.Departure.At)
	if err != nil {
		return flight.Offer{}, fmt.Errorf("%w: departure: %v", flight.ErrNormalization, err)
	}
	arr, err := flight.ParseFlexibleTime(last.Arrival.At)
	if err != nil {
		return flight.Offer{}, fmt.Errorf("%w: arrival: %v", flight.ErrNormalization, err)
	}

	minutes := int(arr.Sub(dep.Time).Minutes())
	if minutes < 0 {
		return flight.Offer{}, fmt.Errorf("%w: arrival before departure", flight.ErrNormalization)
	}
	if first.CarrierCode == "" {
		return flight.Offer{}, fmt.Errorf("%w: missing carrier code", flight.ErrNormalization)
	}

	layovers := make([]string, 0, len(it.Segments)-1)
	for _, seg := range it.Segments[:len(it.Segments)-1] {
		layovers = append(layovers, seg.Arrival.IATACode)
	}

	return flight.Offer{
		Airline:         first.CarrierCode,
		FlightNumber:    first.CarrierCode + first.Number,
		Origin:          first.Departure.IATACode,
		Destination:     last.Arrival.IATACode,
		DepartureTime:   dep,
		ArrivalTime:     arr,
		Duration:        flight.Duration(minutes),
		Stops:           len(it.Segments) - 1,
		LayoverAirports: layovers,
	}, nil
}

func offerCabin(o apiOffer) flight.CabinClass {
	if len(o.TravelerPricings) == 0 || len(o.TravelerPricings[0].FareDetailsBySegment) == 0 {
		return flight.CabinEconomy
	}
	return flight.ParseCabinClass(o.TravelerPricings[0].FareDetailsBySegment[0].Cabin)
}
