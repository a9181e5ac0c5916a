package flight

import "fmt"

// Labels renders the display text of an active filter. Swapping the table
// changes the language without touching the matching logic.
type Labels map[FilterField]func(FilterState) string

func (l Labels) Label(field FilterField, state FilterState) string {
	if render, ok := l[field]; ok {
		return render(state)
	}
	return string(field)
}

// LabelsFor picks a table by locale tag; unknown tags get Portuguese.
func LabelsFor(locale string) Labels {
	switch locale {
	case "en", "en-US", "en-GB":
		return EnglishLabels
	default:
		return PortugueseLabels
	}
}

var ptBands = map[TimeBand]string{
	BandMorning:   "Manhã",
	BandAfternoon: "Tarde",
	BandEvening:   "Noite",
	BandNight:     "Madrugada",
}

var ptCabins = map[CabinClass]string{
	CabinEconomy:        "Econômica",
	CabinPremiumEconomy: "Econômica Premium",
	CabinBusiness:       "Executiva",
	CabinFirst:          "Primeira Classe",
}

var PortugueseLabels = Labels{
	FieldPriceRange: func(s FilterState) string {
		return fmt.Sprintf("R$%s - R$%s", s.PriceRange.Min.String(), s.PriceRange.Max.String())
	},
	FieldDepartureTime: func(s FilterState) string {
		return "Partida: " + ptBands[s.DepartureBand]
	},
	FieldArrivalTime: func(s FilterState) string {
		return "Chegada: " + ptBands[s.ArrivalBand]
	},
	FieldMaxDuration: func(s FilterState) string {
		return fmt.Sprintf("Max %dh", s.MaxDurationHours)
	},
	FieldStops: func(s FilterState) string {
		switch s.Stops {
		case 0:
			return "Direto"
		case 1:
			return "Max 1 escala"
		default:
			return fmt.Sprintf("Max %d escalas", s.Stops)
		}
	},
	FieldAirlines: func(s FilterState) string {
		return fmt.Sprintf("%d selecionadas", len(s.Airlines))
	},
	FieldCabinClass:      func(s FilterState) string { return ptCabins[s.CabinClass] },
	FieldIncludeBaggage:  func(FilterState) string { return "Com bagagem" },
	FieldFlexibleTickets: func(FilterState) string { return "Bilhetes flexíveis" },
}

var enBands = map[TimeBand]string{
	BandMorning:   "Morning",
	BandAfternoon: "Afternoon",
	BandEvening:   "Evening",
	BandNight:     "Night",
}

var enCabins = map[CabinClass]string{
	CabinEconomy:        "Economy",
	CabinPremiumEconomy: "Premium Economy",
	CabinBusiness:       "Business",
	CabinFirst:          "First",
}

var EnglishLabels = Labels{
	FieldPriceRange: func(s FilterState) string {
		return fmt.Sprintf("R$%s - R$%s", s.PriceRange.Min.String(), s.PriceRange.Max.String())
	},
	FieldDepartureTime: func(s FilterState) string { return "Departure: " + enBands[s.DepartureBand] },
	FieldArrivalTime:   func(s FilterState) string { return "Arrival: " + enBands[s.ArrivalBand] },
	FieldMaxDuration:   func(s FilterState) string { return fmt.Sprintf("Max %dh", s.MaxDurationHours) },
	FieldStops: func(s FilterState) string {
		switch s.Stops {
		case 0:
			return "Non-stop"
		case 1:
			return "Max 1 stop"
		default:
			return fmt.Sprintf("Max %d stops", s.Stops)
		}
	},
	FieldAirlines: func(s FilterState) string {
		return fmt.Sprintf("%d selected", len(s.Airlines))
	},
	FieldCabinClass:      func(s FilterState) string { return enCabins[s.CabinClass] },
	FieldIncludeBaggage:  func(FilterState) string { return "Checked bag" },
	FieldFlexibleTickets: func(FilterState) string { return "Flexible tickets" },
}
