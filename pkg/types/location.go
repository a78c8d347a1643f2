package types

import (
	"strconv"
	"strings"
)

// Location is anything that renders itself as a Google location parameter value.
type Location interface {
	LocationString() string
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationString renders "lat,lng" using the shortest exact decimal form.
func (l LatLng) LocationString() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// Address is a free-form address, e.g. "185 Broadway Ave, Manhattan, NY, USA".
type Address string

func (a Address) LocationString() string { return string(a) }

// PlaceID references a location by Google place id; rendered as "place_id:<id>".
type PlaceID string

func (p PlaceID) LocationString() string { return "place_id:" + string(p) }

// JoinLocations renders locations separated by '|', the multi-value form the Maps APIs accept.
func JoinLocations(locs []Location) string {
	parts := make([]string, 0, len(locs))
	for _, l := range locs {
		if l == nil {
			continue
		}
		parts = append(parts, l.LocationString())
	}
	return strings.Join(parts, "|")
}

// ParseLocation interprets "lat,lng" as a LatLng, "place_id:<id>" as a PlaceID and
// anything else as an Address.
func ParseLocation(s string) Location {
	s = strings.TrimSpace(s)
	if id, ok := strings.CutPrefix(s, "place_id:"); ok {
		return PlaceID(id)
	}
	if lat, lng, ok := strings.Cut(s, ","); ok {
		la, errLat := strconv.ParseFloat(strings.TrimSpace(lat), 64)
		ln, errLng := strconv.ParseFloat(strings.TrimSpace(lng), 64)
		if errLat == nil && errLng == nil && la >= -90 && la <= 90 && ln >= -180 && ln <= 180 {
			return LatLng{Lat: la, Lng: ln}
		}
	}
	return Address(s)
}
