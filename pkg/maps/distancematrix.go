package maps

import (
	"time"

	"github.com/af-corp/googleapi/pkg/query"
	"github.com/af-corp/googleapi/pkg/signing"
	"github.com/af-corp/googleapi/pkg/types"
	"github.com/af-corp/googleapi/pkg/validation"
)

// DistanceMatrixRequest asks for travel distance and time between every origin
// and every destination. Build one with NewDistanceMatrixRequest.
type DistanceMatrixRequest struct {
	origins      []types.Location
	destinations []types.Location

	travelMode    types.TravelMode
	departureTime time.Time
	arrivalTime   time.Time
	units         types.Units
	avoid         types.Avoid
	language      string
	transitModes  []types.TransitMode
	routingPref   types.TransitRoutingPreference

	sensor    bool
	sensorSet bool

	creds signing.Credentials
}

type DistanceMatrixOption func(*DistanceMatrixRequest)

func WithTravelMode(m types.TravelMode) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) { r.travelMode = m }
}

func WithDepartureTime(t time.Time) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) { r.departureTime = t }
}

func WithArrivalTime(t time.Time) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) { r.arrivalTime = t }
}

func WithUnits(u types.Units) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) { r.units = u }
}

func WithAvoid(a types.Avoid) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) { r.avoid = a }
}

func WithLanguage(lang string) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) { r.language = lang }
}

func WithTransitModes(modes ...types.TransitMode) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) {
		r.transitModes = append([]types.TransitMode(nil), modes...)
	}
}

func WithTransitRoutingPreference(p types.TransitRoutingPreference) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) { r.routingPref = p }
}

// WithSensor sets the legacy sensor flag. It is only sent when set explicitly.
func WithSensor(v bool) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) {
		r.sensor = v
		r.sensorSet = true
	}
}

func WithCredentials(c signing.Credentials) DistanceMatrixOption {
	return func(r *DistanceMatrixRequest) { r.creds = c }
}

// NewDistanceMatrixRequest copies origins and destinations; later changes to
// the caller's slices do not affect the request.
func NewDistanceMatrixRequest(origins, destinations []types.Location, opts ...DistanceMatrixOption) DistanceMatrixRequest {
	r := DistanceMatrixRequest{
		origins:      copyLocations(origins),
		destinations: copyLocations(destinations),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func copyLocations(in []types.Location) []types.Location {
	if in == nil {
		return nil
	}
	return append(make([]types.Location, 0, len(in)), in...)
}

func (r DistanceMatrixRequest) API() string { return APIDistanceMatrix }

func (r DistanceMatrixRequest) Origins() []types.Location      { return copyLocations(r.origins) }
func (r DistanceMatrixRequest) Destinations() []types.Location { return copyLocations(r.destinations) }
func (r DistanceMatrixRequest) TravelMode() types.TravelMode   { return r.travelMode }

func (r DistanceMatrixRequest) Credentials() signing.Credentials { return r.creds }

func (r DistanceMatrixRequest) RequiredFields() []validation.Field {
	return []validation.Field{
		validation.Required("Origins", len(r.origins)),
		validation.Required("Destinations", len(r.destinations)),
	}
}

func (r DistanceMatrixRequest) ConditionalRules() []validation.Rule {
	return []validation.Rule{
		// "DepatureTime" is what existing callers match on.
		validation.RequiredOneOfWhen(
			"TravelMode", types.TravelModeTransit.DisplayName(), r.travelMode == types.TravelModeTransit,
			"DepatureTime", !r.departureTime.IsZero(),
			"ArrivalTime", !r.arrivalTime.IsZero(),
		),
	}
}

func (r DistanceMatrixRequest) QueryParameters() query.Params {
	var p query.Params
	p = p.Add("origins", types.JoinLocations(r.origins))
	p = p.Add("destinations", types.JoinLocations(r.destinations))
	p = p.AddIf("mode", string(r.travelMode))
	p = p.AddIf("avoid", string(r.avoid))
	p = p.AddIf("units", string(r.units))
	p = p.AddIf("language", r.language)
	p = p.AddTime("departure_time", r.departureTime)
	p = p.AddTime("arrival_time", r.arrivalTime)

	if len(r.transitModes) > 0 {
		modes := make([]string, len(r.transitModes))
		for i, m := range r.transitModes {
			modes[i] = string(m)
		}
		p = p.AddJoined("transit_mode", modes)
	}
	p = p.AddIf("transit_routing_preference", string(r.routingPref))
	if r.sensorSet {
		p = p.AddBool(query.SensorParam, r.sensor)
	}
	return p
}

// TextValue is a measured quantity with its localized rendering.
type TextValue struct {
	Text  string `json:"text"`
	Value int64  `json:"value"`
}

// Seconds interprets Value as a duration in seconds.
func (v TextValue) Seconds() time.Duration { return time.Duration(v.Value) * time.Second }

type Fare struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
	Text     string  `json:"text"`
}

type Element struct {
	Status            types.Status `json:"status"`
	Distance          TextValue    `json:"distance"`
	Duration          TextValue    `json:"duration"`
	DurationInTraffic *TextValue   `json:"duration_in_traffic,omitempty"`
	Fare              *Fare        `json:"fare,omitempty"`
}

type Row struct {
	Elements []Element `json:"elements"`
}

type DistanceMatrixResponse struct {
	Status               types.Status `json:"status"`
	ErrorMessage         string       `json:"error_message,omitempty"`
	OriginAddresses      []string     `json:"origin_addresses"`
	DestinationAddresses []string     `json:"destination_addresses"`
	Rows                 []Row        `json:"rows"`
}

// Err is non-nil when Status reports a failed query.
func (r *DistanceMatrixResponse) Err() error {
	return statusErr(APIDistanceMatrix, r.Status, r.ErrorMessage)
}

// Element returns the cell for origin i and destination j.
func (r *DistanceMatrixResponse) Element(i, j int) (Element, bool) {
	if i < 0 || i >= len(r.Rows) || j < 0 || j >= len(r.Rows[i].Elements) {
		return Element{}, false
	}
	return r.Rows[i].Elements[j], true
}

func DecodeDistanceMatrix(body []byte) (*DistanceMatrixResponse, error) {
	return decode[DistanceMatrixResponse](APIDistanceMatrix, body)
}
