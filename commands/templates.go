package commands

import (
	"github.com/spf13/cobra"

	"github.com/mbolis/field-survey/catalog"
)

func addTemplates(topLevel *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the templates drafts can be started from.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(st.cfg.Catalog)
			if err != nil {
				return err
			}
			printTemplates(cmd.OutOrStdout(), c.All())
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
