package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/ledger"
	"github.com/mbolis/field-survey/model"
	"github.com/mbolis/field-survey/session"
)

func addDraft(topLevel *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Start, fill in and submit drafts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	addDraftStart(cmd, st)
	addDraftList(cmd, st)
	addDraftAnswer(cmd, st)
	addDraftBeneficiary(cmd, st)
	addDraftLocate(cmd, st)
	addDraftSubmit(cmd, st)
	topLevel.AddCommand(cmd)
}

// selectDraft makes the draft with the given uuid the session's active form.
func selectDraft(d *app.Device, uuid string) (*model.Form, error) {
	f, ok := d.Drafts.Get(uuid)
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", uuid, ledger.ErrNotFound)
	}
	d.Session.Select(f, session.AsDraft)
	return f, nil
}

func addDraftStart(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:     "start <template-id>",
		Short:   "Start a new draft from a template and print its uuid.",
		Example: "fieldsurvey draft start 1",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("template id %q: %w", args[0], err)
			}
			return st.withDevice(cmd.Context(), cmd.OutOrStdout(), func(d *app.Device) error {
				t, ok := d.Catalog.Get(id)
				if !ok {
					return fmt.Errorf("no template with id %d", id)
				}
				d.Session.Select(t.Instantiate(), session.AsDraft)
				if err := d.Session.StartDraft(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), d.Session.Active().UUID)
				return err
			})
		},
	}
	parent.AddCommand(cmd)
}

func addDraftList(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withDevice(cmd.Context(), cmd.OutOrStdout(), func(d *app.Device) error {
				printDrafts(cmd.OutOrStdout(), d.Drafts.List())
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addDraftAnswer(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:     "answer <uuid> <question-id> <value>",
		Short:   "Answer a question on a draft.",
		Example: `fieldsurvey draft answer 5b1f3c3e-8a43-4d0f-9c55-2b6f4f0d9a11 1 "Ana Rojas"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withDevice(cmd.Context(), cmd.OutOrStdout(), func(d *app.Device) error {
				if _, err := selectDraft(d, args[0]); err != nil {
					return err
				}
				if err := d.Session.Fields().Set(args[1], args[2]); err != nil {
					return err
				}
				return d.Session.TouchModified(cmd.Context())
			})
		},
	}
	parent.AddCommand(cmd)
}

func addDraftBeneficiary(parent *cobra.Command, st *state) {
	b := model.Beneficiary{}

	cmd := &cobra.Command{
		Use:   "beneficiary <uuid>",
		Short: "Attach a beneficiary to a draft.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("id") {
				return fmt.Errorf("missing parameter --id")
			}
			return st.withDevice(cmd.Context(), cmd.OutOrStdout(), func(d *app.Device) error {
				if _, err := selectDraft(d, args[0]); err != nil {
					return err
				}
				candidate := b
				if err := d.Session.SetBeneficiary(&candidate); err != nil {
					return err
				}
				return d.Session.TouchModified(cmd.Context())
			})
		},
	}
	cmd.Flags().IntVar(&b.ID, "id", 0, "beneficiary id")
	cmd.Flags().StringVar(&b.Name, "name", "", "beneficiary name")
	cmd.Flags().IntVar(&b.AssociationID, "association", 0, "id of the beneficiary's association")
	cmd.Flags().BoolVar(&b.Specialized, "specialized", false, "beneficiary is already specialized")
	cmd.Flags().BoolVar(&b.Eligible, "eligible", false, "beneficiary may be promoted to specialized")
	parent.AddCommand(cmd)
}

func addDraftLocate(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "locate <uuid>",
		Short: "Record the device position on a draft.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withDevice(cmd.Context(), cmd.OutOrStdout(), func(d *app.Device) error {
				f, err := selectDraft(d, args[0])
				if err != nil {
					return err
				}
				if err := d.Session.RequestLocation(cmd.Context()).Wait(cmd.Context()); err != nil {
					return err
				}
				if err := d.Session.TouchModified(cmd.Context()); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), f.Position)
				return err
			})
		},
	}
	parent.AddCommand(cmd)
}

func addDraftSubmit(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "submit <uuid>",
		Short: "Turn a draft into a survey waiting to be synchronized.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withDevice(cmd.Context(), cmd.OutOrStdout(), func(d *app.Device) error {
				return submit(cmd, d, args[0])
			})
		},
	}
	parent.AddCommand(cmd)
}

func submit(cmd *cobra.Command, d *app.Device, uuid string) error {
	f, err := selectDraft(d, uuid)
	if err != nil {
		return err
	}
	if missing := d.Session.Fields().Missing(); len(missing) > 0 {
		_, _ = warning.Fprintf(cmd.ErrOrStderr(), "%s: unanswered required questions %v\n", f.UUID, missing)
	}
	return d.Session.SaveSurvey(cmd.Context())
}
