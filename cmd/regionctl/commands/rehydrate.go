package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"alumni/internal/region/cascade"
	"alumni/internal/region/models"
)

func rehydrateCmd(rt *runtime) *cobra.Command {
	var (
		snapshot models.Selection
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "rehydrate",
		Short: "Restore a saved selection and print the settled selector state",
		Example: `  regionctl rehydrate --village 3374040003
  regionctl rehydrate --province 33 --regency 3374 --district 337404`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cascade.New(rt.catalog.Source, rt.catalog.Postal,
				cascade.WithLogger(rt.logger),
				cascade.WithDebounce(0),
				cascade.WithFetchTimeout(rt.cfg.Selector.FetchTimeout),
			)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			state, err := restore(ctx, c, snapshot)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&snapshot.Province, "province", "", "province code")
	flags.StringVar(&snapshot.Regency, "regency", "", "regency code")
	flags.StringVar(&snapshot.District, "district", "", "district code")
	flags.StringVar(&snapshot.Village, "village", "", "village code")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for the selector to settle")
	return cmd
}

// restore mounts c, applies snapshot and returns the settled state.
func restore(ctx context.Context, c *cascade.Controller, snapshot models.Selection) (cascade.State, error) {
	if err := c.Mount(ctx); err != nil {
		return cascade.State{}, err
	}
	if err := c.Rehydrate(snapshot); err != nil {
		return cascade.State{}, err
	}
	if err := c.WaitSettled(ctx); err != nil {
		return cascade.State{}, fmt.Errorf("selector did not settle: %w", err)
	}
	return c.State(), nil
}
