package query

import "fmt"

// SensorParam is the legacy "request came from a device with a location sensor" flag.
const SensorParam = "sensor"

// Policy decides which parameters of a signed request reach the signed URL.
// Unsigned requests are never redacted.
type Policy interface {
	Name() string
	Redact(p Params) Params
}

type keepAll struct{}

func (keepAll) Name() string { return "keep_all" }

func (keepAll) Redact(p Params) Params { return p.Clone() }

type sensorOnly struct{}

func (sensorOnly) Name() string { return "sensor_only" }

// Redact drops everything except the sensor flag, which defaults to false.
func (sensorOnly) Redact(p Params) Params {
	v, ok := p.Get(SensorParam)
	if !ok {
		v = "false"
	}
	return Params{{Name: SensorParam, Value: v}}
}

var (
	// KeepAll signs every parameter the request produced.
	KeepAll Policy = keepAll{}
	// SensorOnly reproduces the legacy premium-plan behavior: a signed request
	// carries only sensor=<bool>, every other field is silently dropped.
	SensorOnly Policy = sensorOnly{}
)

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "keep_all":
		return KeepAll, nil
	case "sensor_only", "":
		return SensorOnly, nil
	default:
		return nil, fmt.Errorf("unknown signing policy %q", s)
	}
}
