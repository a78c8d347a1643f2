package gateway

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/af-corp/googleapi/pkg/maps"
	"github.com/af-corp/googleapi/pkg/search"
	"github.com/af-corp/googleapi/pkg/types"
)

// Bodies are checked for shape here; whether a request is complete is left to
// the request's own validation so clients see the same messages as library users.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkBody returns a readable message for the first invalid field.
func checkBody(body any) error {
	err := validate.Struct(body)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Errorf("%s failed %q (%s)", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%s failed %q", fe.Field(), fe.Tag())
}

type signBody struct {
	URL string `json:"url" validate:"required"`
}

type signResponse struct {
	URL    string `json:"url"`
	Signed bool   `json:"signed"`
}

type distanceMatrixBody struct {
	Origins                  []string `json:"origins" validate:"dive,required"`
	Destinations             []string `json:"destinations" validate:"dive,required"`
	Mode                     string   `json:"mode" validate:"omitempty,oneof=driving walking bicycling transit"`
	Avoid                    string   `json:"avoid" validate:"omitempty,oneof=tolls highways ferries indoor"`
	Units                    string   `json:"units" validate:"omitempty,oneof=metric imperial"`
	Language                 string   `json:"language" validate:"omitempty,bcp47_language_tag"`
	DepartureTime            *int64   `json:"departure_time" validate:"omitempty,gte=0"`
	ArrivalTime              *int64   `json:"arrival_time" validate:"omitempty,gte=0"`
	TransitModes             []string `json:"transit_modes" validate:"dive,oneof=bus subway train tram rail"`
	TransitRoutingPreference string   `json:"transit_routing_preference" validate:"omitempty,oneof=less_walking fewer_transfers"`
	Sensor                   *bool    `json:"sensor"`
}

func (b distanceMatrixBody) request() maps.DistanceMatrixRequest {
	var opts []maps.DistanceMatrixOption
	if b.Mode != "" {
		opts = append(opts, maps.WithTravelMode(types.TravelMode(b.Mode)))
	}
	if b.Avoid != "" {
		opts = append(opts, maps.WithAvoid(types.Avoid(b.Avoid)))
	}
	if b.Units != "" {
		opts = append(opts, maps.WithUnits(types.Units(b.Units)))
	}
	if b.Language != "" {
		opts = append(opts, maps.WithLanguage(b.Language))
	}
	if b.DepartureTime != nil {
		opts = append(opts, maps.WithDepartureTime(time.Unix(*b.DepartureTime, 0)))
	}
	if b.ArrivalTime != nil {
		opts = append(opts, maps.WithArrivalTime(time.Unix(*b.ArrivalTime, 0)))
	}
	if len(b.TransitModes) > 0 {
		modes := make([]types.TransitMode, len(b.TransitModes))
		for i, m := range b.TransitModes {
			modes[i] = types.TransitMode(m)
		}
		opts = append(opts, maps.WithTransitModes(modes...))
	}
	if b.TransitRoutingPreference != "" {
		opts = append(opts, maps.WithTransitRoutingPreference(types.TransitRoutingPreference(b.TransitRoutingPreference)))
	}
	if b.Sensor != nil {
		opts = append(opts, maps.WithSensor(*b.Sensor))
	}
	return maps.NewDistanceMatrixRequest(parseLocations(b.Origins), parseLocations(b.Destinations), opts...)
}

func parseLocations(in []string) []types.Location {
	if len(in) == 0 {
		return nil
	}
	out := make([]types.Location, len(in))
	for i, s := range in {
		out[i] = types.ParseLocation(s)
	}
	return out
}

type latLngBody struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type geocodeBody struct {
	Address    string            `json:"address"`
	Location   *latLngBody       `json:"location"`
	PlaceID    string            `json:"place_id"`
	Region     string            `json:"region" validate:"omitempty,len=2"`
	Language   string            `json:"language" validate:"omitempty,bcp47_language_tag"`
	Components map[string]string `json:"components" validate:"dive,keys,oneof=route locality administrative_area postal_code country,endkeys,required"`
	Sensor     *bool             `json:"sensor"`
}

func (b geocodeBody) request() maps.GeocodeRequest {
	var opts []maps.GeocodeOption
	if b.Address != "" {
		opts = append(opts, maps.WithAddress(b.Address))
	}
	if b.Location != nil {
		opts = append(opts, maps.WithLatLng(types.LatLng{Lat: b.Location.Lat, Lng: b.Location.Lng}))
	}
	if b.PlaceID != "" {
		opts = append(opts, maps.WithPlaceID(b.PlaceID))
	}
	if b.Region != "" {
		opts = append(opts, maps.WithRegion(b.Region))
	}
	if b.Language != "" {
		opts = append(opts, maps.WithGeocodeLanguage(b.Language))
	}
	if len(b.Components) > 0 {
		opts = append(opts, maps.WithComponents(b.Components))
	}
	if b.Sensor != nil {
		opts = append(opts, maps.WithGeocodeSensor(*b.Sensor))
	}
	return maps.NewGeocodeRequest(opts...)
}

type searchBody struct {
	Query            string `json:"q"`
	EngineID         string `json:"cx"`
	Num              int    `json:"num" validate:"gte=0"`
	Start            int    `json:"start" validate:"gte=0"`
	Safe             string `json:"safe" validate:"omitempty,oneof=off active"`
	GL               string `json:"gl"`
	CR               string `json:"cr"`
	HL               string `json:"hl"`
	LR               string `json:"lr"`
	SiteSearch       string `json:"site_search"`
	SiteSearchFilter string `json:"site_search_filter" validate:"omitempty,oneof=e i"`
	ExactTerms       string `json:"exact_terms"`
	ExcludeTerms     string `json:"exclude_terms"`
	OrTerms          string `json:"or_terms"`
	FileType         string `json:"file_type"`
	SearchType       string `json:"search_type" validate:"omitempty,oneof=image"`
	Sort             string `json:"sort"`
	DateRestrict     string `json:"date_restrict"`
	Filter           *bool  `json:"filter"`
}

func (b searchBody) request() search.Request {
	opts := []search.Option{
		search.WithNumber(b.Num),
		search.WithStartIndex(b.Start),
		search.WithSafe(search.SafetyLevel(b.Safe)),
		search.WithGeoLocation(b.GL),
		search.WithCountryRestrict(b.CR),
		search.WithInterfaceLanguage(b.HL),
		search.WithLanguageRestrict(b.LR),
		search.WithSiteSearch(b.SiteSearch, b.SiteSearchFilter),
		search.WithExactTerms(b.ExactTerms),
		search.WithExcludeTerms(b.ExcludeTerms),
		search.WithOrTerms(b.OrTerms),
		search.WithFileType(b.FileType),
		search.WithSearchType(b.SearchType),
		search.WithSort(b.Sort),
		search.WithDateRestrict(b.DateRestrict),
	}
	if b.Filter != nil {
		opts = append(opts, search.WithFilter(*b.Filter))
	}
	return search.NewRequest(b.Query, b.EngineID, opts...)
}
