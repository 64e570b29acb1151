package commands

import (
	"github.com/spf13/cobra"

	"github.com/mbolis/field-survey/app"
)

func addSurvey(topLevel *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Inspect submitted surveys.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List surveys and whether they have been synchronized.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withDevice(cmd.Context(), cmd.OutOrStdout(), func(d *app.Device) error {
				printSurveys(cmd.OutOrStdout(), d.Surveys.List())
				return nil
			})
		},
	}
	cmd.AddCommand(list)
	topLevel.AddCommand(cmd)
}
