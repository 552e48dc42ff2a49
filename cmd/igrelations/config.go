package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igrelations/pkg/config"
	"igrelations/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igrelations configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (and .env files)
  - Configuration file
  - Default values`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with every available option.

The file is created as '.igrelations.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after merging every source. Secrets are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# igrelations configuration
#
# Environment variables override this file, for example ACCOUNT_USERNAME,
# ACCOUNT_PASSWORD, INSTA_TARGET_PK, DATABASE_URL, CSV_FILE_PATH and the
# IGRELATIONS_* variables. Durations use Go syntax (7s, 1m30s).

instagram:
  # Account to log in as. Prefer ACCOUNT_PASSWORD or 'igrelations auth login'
  # over storing the password here.
  username: ""
  # Analyse this account id instead of the logged-in one
  target_pk: ""
  # Plain JSON session file, tried before the keychain
  session_file: ""
  user_agent: ""
  base_url: "https://i.instagram.com"
  timeout: 30s
  requests_per_minute: 30
  burst_size: 1
  # Attempts per listing page
  max_retries: 3
  retry_delay: 5s

# Pauses between profile fetches
pacing:
  success_min: 7s
  success_max: 18s
  failure_min: 20s
  failure_max: 30s
  # 1 keeps the failure pause fixed, above 1 grows it per consecutive failure
  backoff_multiplier: 1
  max_failure_delay: 5m
  # Pause after a username that cannot be resolved (targets command)
  skip_delay: 30s

output:
  directory: "./output"
  formats: [json, csv, xlsx]
  timestamp_suffix: false
  # CSV loaded by the import command
  csv_file: ""

# Leave url empty to skip the database sink
database:
  url: ""
  # postgres or mysql, taken from the url scheme when empty
  driver: ""
  table: Main_Instagram_Data
  batch_size: 500
  max_open_conns: 1
  connect_timeout: 10s

# Leave endpoint empty to skip uploads
object_store:
  endpoint: ""
  access_key: ""
  secret_key: ""
  bucket: ""
  prefix: igrelations
  region: ""
  use_ssl: true

notifications:
  enabled: true
  on_complete: true
  on_error: true

metrics:
  # Prometheus text file written after each run
  textfile_path: ""

logging:
  level: info
  file: ""
  format: console
  no_color: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".igrelations.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set instagram.username (or ACCOUNT_USERNAME)")
	fmt.Println("2. Run 'igrelations auth login' to save a session")
	fmt.Println("3. Run 'igrelations config validate', then 'igrelations collect'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current configuration")
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.Instagram.Username == "" {
		warnings = append(warnings, "no account username configured")
	}
	if !cfg.Database.Enabled() {
		warnings = append(warnings, "no database configured, records go to files only")
	}
	if len(cfg.Output.Formats) == 0 && !cfg.Database.Enabled() && !cfg.ObjectStore.Enabled() {
		warnings = append(warnings, "no sink configured, nothing will be exported")
	}

	for _, w := range warnings {
		ui.PrintWarning("Warning: " + w)
	}
	ui.PrintSuccess("Configuration is valid")
	return nil
}
