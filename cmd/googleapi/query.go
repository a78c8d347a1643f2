package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/af-corp/googleapi/internal/config"
	"github.com/af-corp/googleapi/internal/service"
	"github.com/af-corp/googleapi/internal/telemetry"
	"github.com/af-corp/googleapi/pkg/maps"
	"github.com/af-corp/googleapi/pkg/query"
	"github.com/af-corp/googleapi/pkg/request"
	"github.com/af-corp/googleapi/pkg/search"
	"github.com/af-corp/googleapi/pkg/signing"
	"github.com/af-corp/googleapi/pkg/transport"
	"github.com/af-corp/googleapi/pkg/types"
)

func setupLogging(c *cli.Context) error {
	slog.SetDefault(telemetry.NewLogger(os.Stderr, c.String("log-level"), "text"))
	return nil
}

// credentialFlags are shared by every command that talks to Google.
func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "client-id",
			Usage:   "Premium client id (gme-...); enables signing",
			EnvVars: []string{"GOOGLE_CLIENT_ID"},
		},
		&cli.StringFlag{
			Name:    "key",
			Usage:   "Private signing key (URL-safe base64)",
			EnvVars: []string{"GOOGLE_SIGNING_KEY"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Plain API key for unsigned requests",
			EnvVars: []string{"GOOGLE_API_KEY"},
		},
	}
}

func queryFlags() []cli.Flag {
	return append(credentialFlags(),
		&cli.StringFlag{
			Name:  "policy",
			Value: query.SensorOnly.Name(),
			Usage: "Parameters kept in signed URLs (sensor_only, keep_all)",
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Override the API endpoint",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 10 * time.Second,
			Usage: "Request timeout",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Print the request URL instead of sending it",
		},
	)
}

func credentials(c *cli.Context) signing.Credentials {
	if id := c.String("client-id"); id != "" {
		return signing.Credentials{ClientID: id, Key: c.String("key")}
	}
	return signing.Credentials{Key: c.String("api-key")}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "Sign a fully assembled request URL",
		Flags: append(credentialFlags(),
			&cli.StringFlag{
				Name:     "url",
				Aliases:  []string{"u"},
				Usage:    "Absolute URL to sign",
				Required: true,
			},
		),
		Action: func(c *cli.Context) error {
			creds := credentials(c)
			if !creds.Signed() {
				return fmt.Errorf("--client-id is required to sign")
			}
			svc := newService(c, creds)
			u, _, err := svc.Sign(nil, c.String("url"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, u.String())
			return nil
		},
	}
}

func distanceMatrixCommand() *cli.Command {
	return &cli.Command{
		Name:  "distancematrix",
		Usage: "Travel distance and time between origins and destinations",
		Flags: append(queryFlags(),
			&cli.StringSliceFlag{Name: "origin", Aliases: []string{"o"}, Usage: "Origin (address, lat,lng or place_id:ID); repeatable"},
			&cli.StringSliceFlag{Name: "destination", Aliases: []string{"d"}, Usage: "Destination; repeatable"},
			&cli.StringFlag{Name: "mode", Usage: "driving, walking, bicycling or transit"},
			&cli.StringFlag{Name: "avoid", Usage: "tolls, highways, ferries or indoor"},
			&cli.StringFlag{Name: "units", Usage: "metric or imperial"},
			&cli.StringFlag{Name: "language"},
			&cli.TimestampFlag{Name: "departure", Layout: time.RFC3339, Usage: "Departure time (RFC 3339)"},
			&cli.TimestampFlag{Name: "arrival", Layout: time.RFC3339, Usage: "Arrival time (RFC 3339)"},
		),
		Action: func(c *cli.Context) error {
			var opts []maps.DistanceMatrixOption
			if v := c.String("mode"); v != "" {
				m, ok := types.ParseTravelMode(v)
				if !ok {
					return fmt.Errorf("unknown mode %q", v)
				}
				opts = append(opts, maps.WithTravelMode(m))
			}
			if v := c.String("avoid"); v != "" {
				a, ok := types.ParseAvoid(v)
				if !ok {
					return fmt.Errorf("unknown avoid %q", v)
				}
				opts = append(opts, maps.WithAvoid(a))
			}
			if v := c.String("units"); v != "" {
				u, ok := types.ParseUnits(v)
				if !ok {
					return fmt.Errorf("unknown units %q", v)
				}
				opts = append(opts, maps.WithUnits(u))
			}
			if v := c.String("language"); v != "" {
				opts = append(opts, maps.WithLanguage(v))
			}
			if t := c.Timestamp("departure"); t != nil {
				opts = append(opts, maps.WithDepartureTime(*t))
			}
			if t := c.Timestamp("arrival"); t != nil {
				opts = append(opts, maps.WithArrivalTime(*t))
			}
			opts = append(opts, maps.WithCredentials(credentials(c)))

			r := maps.NewDistanceMatrixRequest(locations(c.StringSlice("origin")), locations(c.StringSlice("destination")), opts...)
			if c.Bool("dry-run") {
				return printURL(c, r)
			}
			resp, _, err := newService(c, signing.Credentials{}).DistanceMatrix(c.Context, nil, r)
			if err != nil {
				return err
			}
			return printJSON(c, resp)
		},
	}
}

func geocodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "geocode",
		Usage: "Convert between addresses and coordinates",
		Flags: append(queryFlags(),
			&cli.StringFlag{Name: "address", Aliases: []string{"a"}},
			&cli.StringFlag{Name: "latlng", Usage: "lat,lng for reverse geocoding"},
			&cli.StringFlag{Name: "place-id"},
			&cli.StringFlag{Name: "region"},
			&cli.StringFlag{Name: "language"},
			&cli.StringSliceFlag{Name: "component", Usage: "Component filter key:value; repeatable"},
		),
		Action: func(c *cli.Context) error {
			var opts []maps.GeocodeOption
			if v := c.String("address"); v != "" {
				opts = append(opts, maps.WithAddress(v))
			}
			if v := c.String("latlng"); v != "" {
				ll, ok := types.ParseLocation(v).(types.LatLng)
				if !ok {
					return fmt.Errorf("invalid --latlng %q", v)
				}
				opts = append(opts, maps.WithLatLng(ll))
			}
			if v := c.String("place-id"); v != "" {
				opts = append(opts, maps.WithPlaceID(v))
			}
			if v := c.String("region"); v != "" {
				opts = append(opts, maps.WithRegion(v))
			}
			if v := c.String("language"); v != "" {
				opts = append(opts, maps.WithGeocodeLanguage(v))
			}
			if comps := c.StringSlice("component"); len(comps) > 0 {
				m := make(map[string]string, len(comps))
				for _, kv := range comps {
					k, v, ok := strings.Cut(kv, ":")
					if !ok {
						return fmt.Errorf("invalid --component %q, want key:value", kv)
					}
					m[k] = v
				}
				opts = append(opts, maps.WithComponents(m))
			}
			opts = append(opts, maps.WithGeocodeCredentials(credentials(c)))

			r := maps.NewGeocodeRequest(opts...)
			if c.Bool("dry-run") {
				return printURL(c, r)
			}
			resp, _, err := newService(c, signing.Credentials{}).Geocode(c.Context, nil, r)
			if err != nil {
				return err
			}
			return printJSON(c, resp)
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Query a Custom Search engine",
		Flags: append(queryFlags(),
			&cli.StringFlag{Name: "q", Usage: "Search terms"},
			&cli.StringFlag{Name: "cx", Usage: "Search engine id", EnvVars: []string{"GOOGLE_SEARCH_ENGINE_ID"}},
			&cli.IntFlag{Name: "num", Usage: "Results per page (1-10)"},
			&cli.IntFlag{Name: "start", Usage: "Index of the first result"},
			&cli.StringFlag{Name: "safe", Usage: "off or active"},
			&cli.StringFlag{Name: "date-restrict", Usage: "e.g. d[5] for the past five days"},
			&cli.StringFlag{Name: "site", Usage: "Restrict to (or exclude, with --exclude-site) a site"},
			&cli.BoolFlag{Name: "exclude-site"},
		),
		Action: func(c *cli.Context) error {
			filter := "i"
			if c.Bool("exclude-site") {
				filter = "e"
			}
			r := search.NewRequest(c.String("q"), c.String("cx"),
				search.WithNumber(c.Int("num")),
				search.WithStartIndex(c.Int("start")),
				search.WithSafe(search.SafetyLevel(c.String("safe"))),
				search.WithDateRestrict(c.String("date-restrict")),
				search.WithSiteSearch(c.String("site"), filter),
				search.WithKey(c.String("api-key")),
			)
			if c.Bool("dry-run") {
				return printURL(c, r)
			}
			resp, _, err := newService(c, signing.Credentials{}).Search(c.Context, nil, r)
			if err != nil {
				return err
			}
			return printJSON(c, resp)
		},
	}
}

func locations(in []string) []types.Location {
	if len(in) == 0 {
		return nil
	}
	out := make([]types.Location, len(in))
	for i, s := range in {
		out[i] = types.ParseLocation(s)
	}
	return out
}

func baseURL(c *cli.Context, api string) (string, error) {
	if v := c.String("base-url"); v != "" {
		return v, nil
	}
	a, ok := config.DefaultAPIs().Lookup(api)
	if !ok {
		return "", fmt.Errorf("no endpoint for %s", api)
	}
	return a.BaseURL, nil
}

func printURL(c *cli.Context, r request.Request) error {
	policy, err := query.ParsePolicy(c.String("policy"))
	if err != nil {
		return err
	}
	base, err := baseURL(c, r.API())
	if err != nil {
		return err
	}
	u, err := request.Builder{Policy: policy}.Build(base, r)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, u.String())
	return nil
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newService runs queries without tenants: requests carry their own
// credentials, falling back to creds.
func newService(c *cli.Context, creds signing.Credentials) *service.Service {
	cfg := config.DefaultConfig()
	cfg.Signing.ClientID = creds.ClientID
	cfg.Signing.Key = creds.Key
	if c.IsSet("policy") {
		cfg.Signing.Policy = c.String("policy")
	}

	apis := config.DefaultAPIs()
	for name, a := range apis.APIs {
		if v := c.String("base-url"); v != "" {
			a.BaseURL = v
		}
		if c.IsSet("timeout") {
			a.Timeout = c.Duration("timeout")
		}
		apis.APIs[name] = a
	}
	return service.New(service.Deps{
		Config:    func() *config.Config { return cfg },
		APIs:      func() *config.APIsConfig { return apis },
		Transport: transport.NewClient(),
	})
}
