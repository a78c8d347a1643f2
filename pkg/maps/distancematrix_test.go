package maps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/af-corp/googleapi/pkg/query"
	"github.com/af-corp/googleapi/pkg/request"
	"github.com/af-corp/googleapi/pkg/signing"
	"github.com/af-corp/googleapi/pkg/types"
	"github.com/af-corp/googleapi/pkg/validation"
)

var endpoint = Endpoint("", APIDistanceMatrix)

func TestDistanceMatrix_RequiredCollections(t *testing.T) {
	tests := []struct {
		name         string
		origins      []types.Location
		destinations []types.Location
		want         string
	}{
		{"origins nil", nil, []types.Location{types.Address("test")}, "Origins is required."},
		{"origins empty", []types.Location{}, []types.Location{types.LatLng{}}, "Origins is required."},
		{"destinations nil", []types.Location{types.LatLng{}}, nil, "Destinations is required."},
		{"destinations empty", []types.Location{types.LatLng{}}, []types.Location{}, "Destinations is required."},
		{"both missing", nil, nil, "Origins is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDistanceMatrixRequest(tt.origins, tt.destinations)
			err := validation.Validate(r)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())

			_, err = request.Build(endpoint, r)
			assert.ErrorIs(t, err, validation.ErrInvalidRequest)
		})
	}
}

func TestDistanceMatrix_TransitNeedsTime(t *testing.T) {
	origins := []types.Location{types.LatLng{}}
	destinations := []types.Location{types.Address("test")}
	at := time.Unix(1700000000, 0)

	r := NewDistanceMatrixRequest(origins, destinations, WithTravelMode(types.TravelModeTransit))
	err := validation.Validate(r)
	require.Error(t, err)
	assert.Equal(t, "DepatureTime or ArrivalTime is required, when TravelMode is Transit.", err.Error())

	for _, opt := range []DistanceMatrixOption{WithDepartureTime(at), WithArrivalTime(at)} {
		r := NewDistanceMatrixRequest(origins, destinations, WithTravelMode(types.TravelModeTransit), opt)
		assert.NoError(t, validation.Validate(r))
	}

	r = NewDistanceMatrixRequest(origins, destinations, WithTravelMode(types.TravelModeDriving))
	assert.NoError(t, validation.Validate(r))
}

func TestDistanceMatrix_QueryParameters(t *testing.T) {
	r := NewDistanceMatrixRequest(
		[]types.Location{types.LatLng{Lat: 40.7141289, Lng: -73.9614074}},
		[]types.Location{types.Address("185 Broadway Ave, Manhattan, NY, USA"), types.PlaceID("abc")},
		WithTravelMode(types.TravelModeTransit),
		WithDepartureTime(time.Unix(1700000000, 0)),
		WithUnits(types.UnitsImperial),
		WithAvoid(types.AvoidTolls),
		WithLanguage("en"),
		WithTransitModes(types.TransitModeBus, types.TransitModeRail),
		WithTransitRoutingPreference(types.LessWalking),
	)

	p := r.QueryParameters()
	origins, _ := p.Get("origins")
	assert.Equal(t, "40.7141289,-73.9614074", origins)
	destinations, _ := p.Get("destinations")
	assert.Equal(t, "185 Broadway Ave, Manhattan, NY, USA|place_id:abc", destinations)
	mode, _ := p.Get("mode")
	assert.Equal(t, "transit", mode)
	dep, _ := p.Get("departure_time")
	assert.Equal(t, "1700000000", dep)
	tm, _ := p.Get("transit_mode")
	assert.Equal(t, "bus|rail", tm)
	assert.False(t, p.Has("arrival_time"))
	assert.False(t, p.Has(query.SensorParam), "sensor is only sent when set")

	assert.Equal(t, r.QueryParameters().Encode(), p.Encode())
}

func TestDistanceMatrix_Immutable(t *testing.T) {
	origins := []types.Location{types.Address("a")}
	r := NewDistanceMatrixRequest(origins, []types.Location{types.Address("b")})
	origins[0] = types.Address("changed")

	assert.Equal(t, types.Address("a"), r.Origins()[0])
	r.Origins()[0] = types.Address("changed")
	assert.Equal(t, types.Address("a"), r.Origins()[0])
}

func TestDistanceMatrix_SignedBuild(t *testing.T) {
	r := NewDistanceMatrixRequest(
		[]types.Location{types.LatLng{}},
		[]types.Location{types.Address("test")},
		WithCredentials(signing.Credentials{Key: "MDEyMzQ1Njc4OWFiY2RlZmdoaWo=", ClientID: "gme-12345"}),
	)

	u, err := request.Builder{Policy: query.KeepAll}.Build(endpoint, r)
	require.NoError(t, err)
	assert.Equal(t,
		"https://maps.googleapis.com/maps/api/distancematrix/json?origins=0%2C0&destinations=test&client=gme-12345&signature=DgFQiwFDcxvj4l2uFxywNTtdSHw=",
		u.String())

	u, err = request.Build(endpoint, r)
	require.NoError(t, err)
	assert.Equal(t,
		"https://maps.googleapis.com/maps/api/distancematrix/json?sensor=false&client=gme-12345&signature=yjuLutO_Qjc95g7etw2Wo4vUdjc=",
		u.String())
}

func TestDecodeDistanceMatrix(t *testing.T) {
	body := []byte(`{
		"status": "OK",
		"origin_addresses": ["Brooklyn, NY, USA"],
		"destination_addresses": ["185 Broadway, New York, NY 10007, USA"],
		"rows": [{"elements": [{
			"status": "OK",
			"distance": {"text": "8.2 km", "value": 8247},
			"duration": {"text": "18 mins", "value": 1095}
		}]}]
	}`)

	resp, err := DecodeDistanceMatrix(body)
	require.NoError(t, err)
	require.NoError(t, resp.Err())
	assert.Equal(t, []string{"Brooklyn, NY, USA"}, resp.OriginAddresses)

	el, ok := resp.Element(0, 0)
	require.True(t, ok)
	assert.Equal(t, types.StatusOK, el.Status)
	assert.Equal(t, int64(8247), el.Distance.Value)
	assert.Equal(t, 1095*time.Second, el.Duration.Seconds())
	assert.Nil(t, el.DurationInTraffic)

	_, ok = resp.Element(1, 0)
	assert.False(t, ok)
}

func TestDecodeDistanceMatrix_StatusError(t *testing.T) {
	resp, err := DecodeDistanceMatrix([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
	require.NoError(t, err)

	var sErr *StatusError
	require.ErrorAs(t, resp.Err(), &sErr)
	assert.Equal(t, types.StatusRequestDenied, sErr.Status)
	assert.Equal(t, "distancematrix: REQUEST_DENIED: The provided API key is invalid.", sErr.Error())

	_, err = DecodeDistanceMatrix([]byte(`not json`))
	assert.Error(t, err)
}
