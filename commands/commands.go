// Package commands is the fieldsurvey command line.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/config"
	"github.com/mbolis/field-survey/log"
)

// state carries the resolved configuration from the root command to the
// subcommand being run.
type state struct {
	cfg config.Config
}

func New() *cobra.Command {
	st := &state{}

	cmd := &cobra.Command{
		Use:           "fieldsurvey",
		Short:         "Collect surveys offline and synchronize them when a connection is available.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Debug {
				log.SetLevel(log.DebugLevel)
			}
			st.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	config.BindFlags(cmd.PersistentFlags())

	AddCommands(cmd, st)
	return cmd
}

func AddCommands(topLevel *cobra.Command, st *state) {
	addTemplates(topLevel, st)
	addDraft(topLevel, st)
	addSurvey(topLevel, st)
	addSync(topLevel, st)
	addServe(topLevel, st)
}

// withDevice opens the local device for the length of fn.
func (st *state) withDevice(ctx context.Context, out io.Writer, fn func(d *app.Device) error, opts ...app.DeviceOption) error {
	d, err := app.NewDevice(ctx, st.cfg, out, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Warnf("commands.close_device: %s", err)
		}
	}()
	return fn(d)
}
