package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/companion"
	"pkt.systems/companion/internal/appconfig"
	"pkt.systems/pslog"
)

// openApp loads the config and composes the app for a command.
func openApp(cmd *cobra.Command, cfgPath string) (*companion.App, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger := pslog.Ctx(cmd.Context())
	logger.Debug("config loaded", "state_dir", cfg.StateDir, "namespace", cfg.Namespace, "data_dirs", cfg.Registry.DataDirs)
	return companion.New(companion.Config{
		StateDir:       cfg.StateDir,
		Namespace:      cfg.Namespace,
		DataDirs:       cfg.Registry.DataDirs,
		Locale:         cfg.Registry.Locale,
		IncludeActions: cfg.Registry.IncludeActions,
		LookupTimeout:  cfg.LookupTimeout(),
		ChooserTitle:   cfg.Chooser.Title,
		LaunchFallback: cfg.Launch.Fallback,

		DefaultCompanion: cfg.Launch.Default,
	}, companion.Deps{
		Logger: logger,
		Input:  cmd.InOrStdin(),
		Output: cmd.OutOrStdout(),
	})
}
