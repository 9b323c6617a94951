package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pkt.systems/companion"
	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

func newShowCmd(cfgPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved companion selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if _, seeded, err := app.SeedDefault(cmd.Context()); err != nil {
				return err
			} else if seeded {
				pslog.Ctx(cmd.Context()).Info("default companion saved")
			}
			saved := app.Selector().SavedSelection()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(saved)
			}
			if err := writeSaved(cmd.OutOrStdout(), saved); err != nil {
				return err
			}
			return writeDefaults(cmd.OutOrStdout(), app)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func writeSaved(w io.Writer, saved schema.SavedSelection) error {
	rows := []struct {
		key   string
		field schema.Field
	}{
		{schema.KeyNamespaceID, saved.NamespaceID},
		{schema.KeyMemberID, saved.MemberID},
		{schema.KeyDisplayName, saved.DisplayName},
	}
	for _, row := range rows {
		value := "<unset>"
		if row.field.Present {
			value = row.field.Value
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", row.key, value); err != nil {
			return err
		}
	}
	return nil
}

func writeDefaults(w io.Writer, app *companion.App) error {
	def := "<unset>"
	if id, ok := app.DefaultCompanion(); ok {
		def = id.String()
	}
	fallback := "<unset>"
	if id, ok := app.Launcher().Fallback(); ok {
		fallback = id.String()
	}
	_, err := fmt.Fprintf(w, "default: %s\nfallback: %s\n", def, fallback)
	return err
}

func newResolveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve NAMESPACE[/MEMBER]",
		Short: "Print the display name a component would be saved with",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := schema.ParseComponentID(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			app, err := openApp(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), app.Resolve(cmd.Context(), id))
			return err
		},
	}
}

func newListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the components the chooser offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			candidates, err := app.Registry().Launchables(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, candidate := range candidates {
				if _, err := fmt.Fprintf(out, "%s\t%s\n", candidate.Component, candidate.Label); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
