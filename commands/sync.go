package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/database"
	"github.com/mbolis/field-survey/ledger"
	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/routes"
)

func addSync(topLevel *cobra.Command, st *state) {
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Send unsynchronized surveys to the remote.",
		Example: `
fieldsurvey sync
fieldsurvey sync --watch 5m
fieldsurvey sync --remote local --db-url received.sqlite
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []app.DeviceOption
			if st.cfg.LocalRemote() {
				db, err := database.Open(st.cfg.DBUrl)
				if err != nil {
					return err
				}
				defer db.Close()
				log.Debugf("sync.remote: posting into %s", st.cfg.DBUrl)
				opts = append(opts, app.WithLocalRemote(routes.Wire(app.NewApp(db, st.cfg))))
			}

			out := cmd.OutOrStdout()
			return st.withDevice(cmd.Context(), out, func(d *app.Device) error {
				if watch <= 0 {
					report, err := d.Surveys.Sync(cmd.Context())
					printReport(out, report)
					return err
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				err := d.Surveys.AutoSync(ctx, watch, func(r ledger.Report) { printReport(out, r) })
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}, opts...)
		},
	}
	cmd.Flags().DurationVar(&watch, "watch", 0, "keep synchronizing at this interval until interrupted")
	topLevel.AddCommand(cmd)
}
