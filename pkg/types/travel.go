package types

// TravelMode selects the transportation mode for Distance Matrix and Directions.
type TravelMode string

const (
	TravelModeDriving   TravelMode = "driving"
	TravelModeWalking   TravelMode = "walking"
	TravelModeBicycling TravelMode = "bicycling"
	TravelModeTransit   TravelMode = "transit"
)

// DisplayName is the name used in validation messages ("Transit", "Driving", ...).
func (m TravelMode) DisplayName() string {
	switch m {
	case TravelModeDriving:
		return "Driving"
	case TravelModeWalking:
		return "Walking"
	case TravelModeBicycling:
		return "Bicycling"
	case TravelModeTransit:
		return "Transit"
	default:
		return string(m)
	}
}

func ParseTravelMode(s string) (TravelMode, bool) {
	switch TravelMode(s) {
	case TravelModeDriving, TravelModeWalking, TravelModeBicycling, TravelModeTransit:
		return TravelMode(s), true
	default:
		return "", false
	}
}

type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

func ParseUnits(s string) (Units, bool) {
	switch Units(s) {
	case UnitsMetric, UnitsImperial:
		return Units(s), true
	default:
		return "", false
	}
}

// Avoid lists route features to avoid.
type Avoid string

const (
	AvoidTolls    Avoid = "tolls"
	AvoidHighways Avoid = "highways"
	AvoidFerries  Avoid = "ferries"
	AvoidIndoor   Avoid = "indoor"
)

func ParseAvoid(s string) (Avoid, bool) {
	switch Avoid(s) {
	case AvoidTolls, AvoidHighways, AvoidFerries, AvoidIndoor:
		return Avoid(s), true
	default:
		return "", false
	}
}

type TransitMode string

const (
	TransitModeBus    TransitMode = "bus"
	TransitModeSubway TransitMode = "subway"
	TransitModeTrain  TransitMode = "train"
	TransitModeTram   TransitMode = "tram"
	TransitModeRail   TransitMode = "rail"
)

func ParseTransitMode(s string) (TransitMode, bool) {
	switch TransitMode(s) {
	case TransitModeBus, TransitModeSubway, TransitModeTrain, TransitModeTram, TransitModeRail:
		return TransitMode(s), true
	default:
		return "", false
	}
}

type TransitRoutingPreference string

const (
	LessWalking    TransitRoutingPreference = "less_walking"
	FewerTransfers TransitRoutingPreference = "fewer_transfers"
)

func ParseTransitRoutingPreference(s string) (TransitRoutingPreference, bool) {
	switch TransitRoutingPreference(s) {
	case LessWalking, FewerTransfers:
		return TransitRoutingPreference(s), true
	default:
		return "", false
	}
}
