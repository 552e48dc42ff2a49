package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"igrelations/pkg/scraper"
	"igrelations/pkg/ui"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [csv]",
	Short: "Load an exported CSV file into the database",
	Long: `Append every row of a CSV file written by 'collect' to the database table.
The file comes from the argument or CSV_FILE_PATH. Imported rows are marked
mutual.`,
	Example: `  DATABASE_URL=mysql://user:pw@localhost:3306/ig igrelations import owner_mutuals.csv`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&databaseURL, "database-url", "", "database to append records to (DATABASE_URL)")
	importCmd.Flags().StringVar(&dbDriver, "db-driver", "", "database driver (postgres, mysql)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(map[string]interface{}{
		"database-url": databaseURL,
		"db-driver":    dbDriver,
	})
	if err != nil {
		return err
	}

	path := cfg.Output.CSVFile
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return errors.New("no csv file given (argument or CSV_FILE_PATH)")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	s, err := scraper.New(cfg, nil, scraper.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	res, err := s.Import(ctx, f)
	if err != nil {
		return err
	}
	if res.Skipped {
		ui.PrintWarning("CSV has no rows, nothing imported")
		return nil
	}
	ui.PrintSuccess(fmt.Sprintf("Imported %s rows into %s", humanize.Comma(int64(res.Records)), res.Location))
	return nil
}
