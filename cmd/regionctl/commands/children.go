package commands

import (
	"github.com/spf13/cobra"

	"alumni/internal/region/models"
)

func childrenCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "children LEVEL [PARENT]",
		Short: "List the regions of LEVEL under PARENT",
		Example: `  regionctl children province
  regionctl children regency 33`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := models.ParseLevel(args[0])
			if err != nil {
				return err
			}
			var parent string
			if len(args) == 2 {
				parent = args[1]
			}
			options, err := rt.catalog.Source.FetchChildren(cmd.Context(), level, parent)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), options)
		},
	}
	return cmd
}
