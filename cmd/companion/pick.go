package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/companion/core"
	"pkt.systems/companion/schema"
)

func newPickCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Open the chooser and save the picked companion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			events, cancel := app.Bus().Subscribe()
			defer cancel()

			outcome, err := app.Pick(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch outcome {
			case core.OutcomeResolved:
				// The bus is notified before the cycle ends, so the event is buffered.
				select {
				case ev := <-events:
					_, err = fmt.Fprintf(out, "%s (%s)\n", ev.Selection.DisplayName, ev.Selection.Component)
				default:
					sel, _ := app.Selector().SavedSelection().Selection()
					_, err = fmt.Fprintf(out, "%s (%s)\n", sel.DisplayName, sel.Component)
				}
			case core.OutcomeFailed:
				return schema.ErrPersistenceFailed
			default:
				_, err = fmt.Fprintln(out, "cancelled")
			}
			return err
		},
	}
}
