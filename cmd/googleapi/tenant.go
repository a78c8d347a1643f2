package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/af-corp/googleapi/internal/config"
	"github.com/af-corp/googleapi/internal/tenant"
	"github.com/af-corp/googleapi/pkg/signing"
)

func tenantCommand() *cli.Command {
	dbFlag := &cli.StringFlag{
		Name:    "db-url",
		Value:   config.DefaultConfig().Database.DSN(),
		Usage:   "PostgreSQL URL",
		EnvVars: []string{"DATABASE_URL"},
	}
	return &cli.Command{
		Name:  "tenant",
		Usage: "Manage gateway tenants and keys",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a tenant and issue its first gateway key",
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{Name: "name", Usage: "Tenant name", Required: true},
					&cli.StringSliceFlag{Name: "api", Usage: "Allowed API; repeatable (default: all)"},
					&cli.StringFlag{Name: "api-key", Usage: "Google API key for unsigned requests"},
					&cli.StringFlag{Name: "client-id", Usage: "Premium client id (gme-...)"},
					&cli.StringFlag{Name: "signing-key", Usage: "Premium signing key"},
					&cli.StringFlag{Name: "env", Value: "prod", Usage: "Environment prefix of the key"},
					&cli.StringFlag{Name: "expires", Value: "365d", Usage: "Key lifetime (e.g. 365d, 720h)"},
					&cli.IntFlag{Name: "rpm", Usage: "Tenant-wide requests per minute (0 = no cap)"},
				},
				Action: createTenant,
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a gateway key",
				ArgsUsage: "<gateway-key>",
				Flags:     []cli.Flag{dbFlag},
				Action:    revokeKey,
			},
		},
	}
}

func newTenant(c *cli.Context) (tenant.NewTenant, error) {
	validFor, err := tenant.ParseDuration(c.String("expires"))
	if err != nil {
		return tenant.NewTenant{}, fmt.Errorf("invalid --expires: %w", err)
	}
	creds := signing.Credentials{ClientID: c.String("client-id"), Key: c.String("signing-key")}
	if err := creds.Check(); err != nil {
		return tenant.NewTenant{}, err
	}
	nt := tenant.NewTenant{
		Name:        strings.TrimSpace(c.String("name")),
		AllowedAPIs: c.StringSlice("api"),
		APIKey:      c.String("api-key"),
		ClientID:    creds.ClientID,
		SigningKey:  creds.Key,
		Env:         c.String("env"),
		ValidFor:    validFor,
	}
	if rpm := c.Int("rpm"); rpm > 0 {
		nt.RequestsPerMinute = &rpm
	}
	return nt, nil
}

func createTenant(c *cli.Context) error {
	nt, err := newTenant(c)
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	rawKey, p, err := store.Create(c.Context, nt)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintln(w, "=== Gateway Key Generated ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Tenant ID:   %s\n", p.ID)
	fmt.Fprintf(w, "  Key ID:      %s\n", p.KeyID)
	fmt.Fprintf(w, "  Key Prefix:  %s\n", tenant.KeyPrefix(rawKey))
	fmt.Fprintf(w, "  Name:        %s\n", p.Name)
	if len(p.AllowedAPIs) > 0 {
		fmt.Fprintf(w, "  APIs:        %s\n", strings.Join(p.AllowedAPIs, ", "))
	}
	if p.ClientID != "" {
		fmt.Fprintf(w, "  Client ID:   %s\n", p.ClientID)
	}
	fmt.Fprintf(w, "  Expires:     %s\n", p.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Gateway key (save this, it will NOT be shown again):")
	fmt.Fprintf(w, "  %s\n", rawKey)
	return nil
}

func revokeKey(c *cli.Context) error {
	rawKey := c.Args().First()
	if rawKey == "" {
		return fmt.Errorf("gateway key argument is required")
	}

	store, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.Revoke(c.Context, rawKey); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "revoked %s\n", tenant.KeyPrefix(rawKey))
	return nil
}

func openStore(c *cli.Context) (*tenant.CachedStore, func(), error) {
	ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, c.String("db-url"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return tenant.NewCachedStore(pool, nil), pool.Close, nil
}
