package maps

import (
	"sort"
	"strings"

	"github.com/af-corp/googleapi/pkg/query"
	"github.com/af-corp/googleapi/pkg/signing"
	"github.com/af-corp/googleapi/pkg/types"
	"github.com/af-corp/googleapi/pkg/validation"
)

// GeocodeRequest is a forward (address), reverse (latlng) or place id lookup.
type GeocodeRequest struct {
	address    string
	location   *types.LatLng
	placeID    string
	region     string
	language   string
	components map[string]string

	sensor    bool
	sensorSet bool

	creds signing.Credentials
}

type GeocodeOption func(*GeocodeRequest)

func WithAddress(a string) GeocodeOption {
	return func(r *GeocodeRequest) { r.address = a }
}

func WithLatLng(ll types.LatLng) GeocodeOption {
	return func(r *GeocodeRequest) { r.location = &ll }
}

func WithPlaceID(id string) GeocodeOption {
	return func(r *GeocodeRequest) { r.placeID = id }
}

func WithRegion(region string) GeocodeOption {
	return func(r *GeocodeRequest) { r.region = region }
}

func WithGeocodeLanguage(lang string) GeocodeOption {
	return func(r *GeocodeRequest) { r.language = lang }
}

// WithComponents restricts results, e.g. {"country": "US", "postal_code": "10007"}.
func WithComponents(c map[string]string) GeocodeOption {
	return func(r *GeocodeRequest) {
		r.components = make(map[string]string, len(c))
		for k, v := range c {
			r.components[k] = v
		}
	}
}

func WithGeocodeSensor(v bool) GeocodeOption {
	return func(r *GeocodeRequest) {
		r.sensor = v
		r.sensorSet = true
	}
}

func WithGeocodeCredentials(c signing.Credentials) GeocodeOption {
	return func(r *GeocodeRequest) { r.creds = c }
}

func NewGeocodeRequest(opts ...GeocodeOption) GeocodeRequest {
	var r GeocodeRequest
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r GeocodeRequest) API() string { return APIGeocode }

func (r GeocodeRequest) Credentials() signing.Credentials { return r.creds }

func (r GeocodeRequest) RequiredFields() []validation.Field { return nil }

func (r GeocodeRequest) ConditionalRules() []validation.Rule {
	return []validation.Rule{
		validation.ExactlyOneOf(
			[]string{"Address", "Location", "PlaceId"},
			strings.TrimSpace(r.address) != "", r.location != nil, strings.TrimSpace(r.placeID) != "",
		),
	}
}

func (r GeocodeRequest) QueryParameters() query.Params {
	var p query.Params
	p = p.AddIf("address", r.address)
	if r.location != nil {
		p = p.Add("latlng", r.location.LocationString())
	}
	p = p.AddIf("place_id", r.placeID)
	p = p.AddIf("region", r.region)
	p = p.AddIf("language", r.language)
	if len(r.components) > 0 {
		keys := make([]string, 0, len(r.components))
		for k := range r.components {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + r.components[k]
		}
		p = p.AddJoined("components", parts)
	}
	if r.sensorSet {
		p = p.AddBool(query.SensorParam, r.sensor)
	}
	return p
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type Bounds struct {
	NorthEast types.LatLng `json:"northeast"`
	SouthWest types.LatLng `json:"southwest"`
}

type Geometry struct {
	Location     types.LatLng `json:"location"`
	LocationType string       `json:"location_type"`
	Viewport     Bounds       `json:"viewport"`
	Bounds       *Bounds      `json:"bounds,omitempty"`
}

type GeocodeResult struct {
	AddressComponents []AddressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          Geometry           `json:"geometry"`
	PlaceID           string             `json:"place_id"`
	Types             []string           `json:"types"`
	PartialMatch      bool               `json:"partial_match,omitempty"`
}

type GeocodeResponse struct {
	Status       types.Status    `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []GeocodeResult `json:"results"`
}

func (r *GeocodeResponse) Err() error {
	return statusErr(APIGeocode, r.Status, r.ErrorMessage)
}

func DecodeGeocode(body []byte) (*GeocodeResponse, error) {
	return decode[GeocodeResponse](APIGeocode, body)
}
