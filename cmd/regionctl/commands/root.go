// Package commands implements the regionctl CLI: ad hoc catalog lookups,
// snapshot rehydration and cache warm-up against the configured backends.
package commands

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"alumni/internal/app"
	"alumni/internal/platform/config"
	"alumni/internal/platform/logger"
)

// runtime is the state shared by every subcommand once flags are parsed.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	catalog  *app.Catalog
	logLevel string

	catalogURL  string
	postalURL   string
	databaseURL string
	redisURL    string
}

func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Flags override the environment.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "regionctl",
		Short:         "Inspect and warm the Indonesian region catalog",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if rt.catalogURL != "" {
				cfg.Catalog.URL = rt.catalogURL
			}
			if rt.postalURL != "" {
				cfg.Catalog.PostalURL = rt.postalURL
			}
			if rt.databaseURL != "" {
				cfg.Database.URL = rt.databaseURL
			}
			if rt.redisURL != "" {
				cfg.Redis.URL = rt.redisURL
			}
			rt.cfg = cfg
			rt.logger = logger.NewWithWriter(cmd.ErrOrStderr(), rt.logLevel)

			catalog, err := app.Build(cmd.Context(), cfg, rt.logger, nil)
			if err != nil {
				return err
			}
			rt.catalog = catalog
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.catalog == nil {
				return nil
			}
			return rt.catalog.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&rt.catalogURL, "catalog-url", "", "remote region catalog base URL (default $REGION_CATALOG_URL)")
	flags.StringVar(&rt.postalURL, "postal-url", "", "postal code service base URL (default $REGION_POSTAL_URL)")
	flags.StringVar(&rt.databaseURL, "database-url", "", "Postgres catalog DSN (default $DATABASE_URL)")
	flags.StringVar(&rt.redisURL, "redis-url", "", "Redis cache URL (default $REDIS_URL)")
	flags.StringVar(&rt.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(childrenCmd(rt), rehydrateCmd(rt), warmCmd(rt))
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
