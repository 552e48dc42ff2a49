package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igrelations/pkg/auth"
	"igrelations/pkg/config"
	errs "igrelations/pkg/errors"
	"igrelations/pkg/logger"
	"igrelations/pkg/models"
	"igrelations/pkg/relations"
	"igrelations/pkg/scraper"
	"igrelations/pkg/ui"
)

var (
	// Flags shared by the commands that talk to the remote service
	username          string
	sessionFile       string
	outputDir         string
	formats           []string
	databaseURL       string
	dbDriver          string
	requestsPerMinute int
	timestampSuffix   bool

	// Collect command flags
	categoryFlag string
	includeOwner bool
	targetPK     string
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch and export one relationship category",
	Long: `Log in, list the followers and the following of the account, and fetch the
profile of every account in the chosen category:

  1  mutual              accounts that follow and are followed back
  2  not following back  followers the account does not follow
  3  not followed back   accounts followed that do not follow back

Without --category the choice is prompted for. The analysed account itself is
added to the set unless --include-owner=false is given.`,
	Example: `  # Prompt for the category
  igrelations collect

  # Export accounts that do not follow back, without the owner row
  igrelations collect --category 3 --include-owner=false

  # Analyse another account and write to a database as well
  igrelations collect --target-pk 123456789 --database-url postgres://user:pw@localhost/ig`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	addRemoteFlags(collectCmd)
	collectCmd.Flags().StringVar(&categoryFlag, "category", "", "category to fetch: 1|mutual, 2|not-following-back, 3|not-followed-back (prompted when empty)")
	collectCmd.Flags().BoolVar(&includeOwner, "include-owner", true, "add the analysed account to the fetched set")
	collectCmd.Flags().StringVar(&targetPK, "target-pk", "", "analyse this account id instead of the logged-in account (INSTA_TARGET_PK)")
}

func addRemoteFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&username, "username", "u", "", "account to log in as (ACCOUNT_USERNAME)")
	cmd.Flags().StringVar(&sessionFile, "session-file", "", "plain JSON session file to load and save")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	cmd.Flags().StringSliceVar(&formats, "formats", nil, "file formats to write (json,csv,xlsx)")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "database to append records to (DATABASE_URL)")
	cmd.Flags().StringVar(&dbDriver, "db-driver", "", "database driver (postgres, mysql)")
	cmd.Flags().IntVar(&requestsPerMinute, "rate-limit", 0, "maximum requests per minute")
	cmd.Flags().BoolVar(&timestampSuffix, "timestamp", false, "append a unix timestamp to output file names")
}

func remoteFlags() map[string]interface{} {
	return map[string]interface{}{
		"username":            username,
		"target-pk":           targetPK,
		"session-file":        sessionFile,
		"output":              outputDir,
		"formats":             formats,
		"database-url":        databaseURL,
		"db-driver":           dbDriver,
		"requests-per-minute": requestsPerMinute,
	}
}

// connect logs in and builds a scraper over the resulting session
func connect(ctx context.Context, cfg *config.Config, log logger.Logger) (*scraper.Scraper, error) {
	sessions, err := auth.NewManager(auth.ManagerOptions{SessionFile: cfg.Instagram.SessionFile})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session storage: %w", err)
	}

	client := scraper.NewClient(cfg.Instagram, log)
	api, err := scraper.Connect(ctx, client, cfg.Instagram, sessions, log)
	if err != nil {
		if errs.IsFatal(err) {
			auth.WriteLoginHelp(os.Stderr)
		}
		return nil, err
	}
	ui.PrintInfo("Logged in as", fmt.Sprintf("%s (%s)", api.Session().Username, api.UserID()))

	s, err := scraper.New(cfg, api, scraper.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(remoteFlags())
	if err != nil {
		return err
	}
	if timestampSuffix {
		cfg.Output.TimestampSuffix = true
	}

	opts := scraper.CollectOptions{IncludeOwner: includeOwner}
	if cfg.Instagram.TargetPK != "" {
		pk, err := models.ParseAccountID(cfg.Instagram.TargetPK)
		if err != nil {
			return err
		}
		opts.TargetPK = pk
	}

	if categoryFlag != "" {
		opts.Category, err = relations.ParseCategory(categoryFlag)
		if err != nil {
			return err
		}
	}

	ctx, stop := signalContext()
	defer stop()

	s, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}

	if opts.Category == 0 {
		opts.Category, err = ui.PromptCategory(os.Stdin, ui.Output())
		if err != nil {
			return err
		}
	}

	outcome, err := s.Collect(ctx, opts)
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
