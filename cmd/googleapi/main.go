// googleapi signs Google web-service URLs, runs queries against them and
// manages gateway tenants.
//
// Usage:
//
//	googleapi sign --url 'https://maps.googleapis.com/maps/api/geocode/json?address=x'
//	googleapi geocode --address 'Berlin' --api-key AIza...
//	googleapi distancematrix --origin Berlin --destination Potsdam --dry-run
//	googleapi search --q golang --cx 0123:abc --api-key AIza...
//	googleapi tenant create --name acme --client-id gme-acme --signing-key ...
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "googleapi",
		Usage:   "Sign and send Google web-service requests",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"GOOGLEAPI_LOG_LEVEL"},
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			signCommand(),
			distanceMatrixCommand(),
			geocodeCommand(),
			searchCommand(),
			tenantCommand(),
		},
	}
}
