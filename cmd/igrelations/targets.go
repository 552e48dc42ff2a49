package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"igrelations/pkg/ui"
)

// targetsCmd represents the targets command
var targetsCmd = &cobra.Command{
	Use:   "targets <username>...",
	Short: "Fetch and export the profiles of the given usernames",
	Long: `Resolve each username to an account id and fetch its profile. A username that
cannot be resolved is skipped after a long pause (pacing.skip_delay). Output
file names always carry a unix timestamp.`,
	Example: `  igrelations targets lorem_ipsum dolor_sit_amet`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
	addRemoteFlags(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(remoteFlags())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	s, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}

	outcome, err := s.Targets(ctx, args)
	if errors.Is(err, context.Canceled) {
		ui.PrintWarning("Interrupted, nothing was exported")
	}
	if err != nil {
		return err
	}

	for _, loc := range outcome.Summary.Locations() {
		ui.PrintInfo("Saved", loc)
	}
	ui.PrintSuccess("Done")
	return nil
}
