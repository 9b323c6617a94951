package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLaunchCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Start the saved companion, or the configured fallback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if _, _, err := app.SeedDefault(cmd.Context()); err != nil {
				return err
			}
			res, err := app.Launcher().Launch(cmd.Context(), app.Selector().SavedSelection())
			if err != nil {
				return err
			}
			suffix := ""
			if res.Fallback {
				suffix = " (fallback)"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "started %s pid %d%s\n", res.Component, res.PID, suffix)
			return err
		},
	}
}

func newForgetCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Remove the saved companion selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return app.Selector().Forget()
		},
	}
}

func newResetCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the saved selection with the configured default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			sel, err := app.ResetToDefault(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", sel.DisplayName, sel.Component)
			return err
		},
	}
}
