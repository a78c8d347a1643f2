package types

import "testing"

func TestParseTravelMode(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"driving", true},
		{"walking", true},
		{"bicycling", true},
		{"transit", true},
		{"Transit", false},
		{"", false},
	}
	for _, tt := range tests {
		_, ok := ParseTravelMode(tt.input)
		if ok != tt.valid {
			t.Errorf("ParseTravelMode(%q) valid = %v, want %v", tt.input, ok, tt.valid)
		}
	}
}

func TestTravelModeDisplayName(t *testing.T) {
	tests := []struct {
		mode TravelMode
		want string
	}{
		{TravelModeTransit, "Transit"},
		{TravelModeDriving, "Driving"},
		{TravelMode("hovercraft"), "hovercraft"},
	}
	for _, tt := range tests {
		if got := tt.mode.DisplayName(); got != tt.want {
			t.Errorf("%s.DisplayName() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if _, ok := ParseUnits("imperial"); !ok {
		t.Error("expected imperial to parse")
	}
	if _, ok := ParseAvoid("tolls"); !ok {
		t.Error("expected tolls to parse")
	}
	if _, ok := ParseTransitMode("rail"); !ok {
		t.Error("expected rail to parse")
	}
	if _, ok := ParseTransitRoutingPreference("less_walking"); !ok {
		t.Error("expected less_walking to parse")
	}
	if _, ok := ParseAvoid("potholes"); ok {
		t.Error("expected potholes to be rejected")
	}
}

func TestStatus(t *testing.T) {
	if !StatusZeroResults.Succeeded() {
		t.Error("ZERO_RESULTS should count as succeeded")
	}
	if StatusRequestDenied.Succeeded() {
		t.Error("REQUEST_DENIED should not count as succeeded")
	}
	if !StatusOverQueryLimit.Retryable() {
		t.Error("OVER_QUERY_LIMIT should be retryable")
	}
}
