package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igrelations/pkg/auth"
	"igrelations/pkg/config"
	"igrelations/pkg/instagram"
	"igrelations/pkg/scraper"
	"igrelations/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage saved sessions",
	Long: `Manage saved Instagram sessions.

Sessions are stored in, in order of preference:
  - the plain session file given with --session-file
  - the system keychain (when available)
  - an encrypted file with a PBKDF2 derived key
  - environment variables (read only)

A saved session gives full access to the account. Keep it private.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in with a password and save the session",
	Long: `Log in with the account password and save the resulting session so later
runs do not need the password. The password is read without echo.`,
	Example: `  igrelations auth login
  igrelations auth login myaccount`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "plain JSON session file to use")
}

func sessionManager(cfg *config.Config) (*auth.Manager, error) {
	m, err := auth.NewManager(auth.ManagerOptions{SessionFile: cfg.Instagram.SessionFile})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session storage: %w", err)
	}
	return m, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(map[string]interface{}{"session-file": sessionFile})
	if err != nil {
		return err
	}
	sessions, err := sessionManager(cfg)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	name := cfg.Instagram.Username
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		fmt.Print("Instagram username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		name = strings.TrimSpace(input)
	}
	if !instagram.IsValidUsername(name) {
		return fmt.Errorf("invalid username %q", name)
	}

	password := cfg.Instagram.Password
	if password == "" {
		fmt.Print("Password: ")
		password, err = readPassword(reader)
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if password == "" {
		return errors.New("password is required")
	}

	ctx, stop := signalContext()
	defer stop()

	client := scraper.NewClient(cfg.Instagram, log)
	session, err := client.Login(ctx, instagram.Credentials{Username: name, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := sessions.Store(session); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Session saved for %s (%s)", session.Username, session.UserID))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(map[string]interface{}{"session-file": sessionFile})
	if err != nil {
		return err
	}
	sessions, err := sessionManager(cfg)
	if err != nil {
		return err
	}

	if err := sessions.Delete(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess("Session removed: " + args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(map[string]interface{}{"session-file": sessionFile})
	if err != nil {
		return err
	}
	sessions, err := sessionManager(cfg)
	if err != nil {
		return err
	}

	list, err := sessions.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ui.PrintWarning("No saved sessions")
		return nil
	}

	for _, s := range list {
		safe := auth.SanitizeSession(s)
		updated := "unknown"
		if !s.LastModified.IsZero() {
			updated = humanize.Time(s.LastModified)
		}
		fmt.Printf("  %s  %s  sessionid=%s  updated %s\n",
			ui.Cyan(safe.Username), ui.Dim(safe.UserID.String()), safe.SessionID, updated)
	}
	return nil
}

// readPassword reads a line from the terminal without echo, or from
// reader when stdin is not a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	b, err := term.ReadPassword(fd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
