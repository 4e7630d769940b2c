package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"alumni/internal/region/models"
	"alumni/internal/region/store"
	"alumni/pkg/platform/strings"
)

func warmCmd(rt *runtime) *cobra.Command {
	var (
		provinces   string
		depth       string
		sink        string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Copy the catalog hierarchy into Redis or Postgres",
		Example: `  regionctl warm --redis-url redis://localhost:6379 --provinces 33,31
  regionctl warm --catalog-url https://example.org/api --database-url postgres://... --sink postgres`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := models.ParseLevel(depth)
			if err != nil {
				return err
			}

			var target store.Sink
			switch sink {
			case "redis":
				if rt.catalog.Redis == nil {
					return errors.New("warming redis needs --redis-url")
				}
				target = rt.catalog.Redis
			case "postgres":
				if rt.catalog.Postgres == nil {
					return errors.New("warming postgres needs --database-url")
				}
				if rt.catalog.Origin == rt.catalog.Postgres {
					return errors.New("warming postgres needs a remote --catalog-url to copy from")
				}
				target = rt.catalog.Postgres
			default:
				return fmt.Errorf("unknown sink %q", sink)
			}

			stats, err := store.Warm(cmd.Context(), rt.catalog.Origin, target, store.WarmOptions{
				Provinces:   strings.SplitList(provinces),
				MaxLevel:    &level,
				Concurrency: concurrency,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, l := range models.Levels {
				if l > level {
					break
				}
				fmt.Fprintf(out, "%-9s %5d lists %7d options\n", l, stats.Lists[l], stats.Options[l])
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&provinces, "provinces", "", "comma separated province codes (default all)")
	flags.StringVar(&depth, "depth", "village", "deepest level to copy")
	flags.StringVar(&sink, "sink", "redis", "where to copy to: redis or postgres")
	flags.IntVar(&concurrency, "concurrency", 4, "parallel fetches per level")
	return cmd
}
