package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Banner printed at the start of interactive commands
const Banner = `
  ╔═══════════════════════════════════════════╗
  ║  igrelations · follower relationship ETL  ║
  ╚═══════════════════════════════════════════╝
`

var (
	outMu   sync.Mutex
	out     io.Writer = os.Stdout
	noColor bool
	quiet   bool
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetOutput redirects terminal output. nil restores stdout.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// Output returns the current terminal writer
func Output() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

// SetNoColor disables ANSI colors
func SetNoColor(v bool) { noColor = v }

// SetQuiet suppresses banners and informational lines. Errors and
// per-account progress are still printed.
func SetQuiet(v bool) { quiet = v }

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool { return quiet }

func printf(format string, args ...interface{}) {
	fmt.Fprintf(Output(), format, args...)
}

// PrintLogo prints the banner with color
func PrintLogo() {
	if quiet {
		return
	}
	printf("%s", Cyan(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		printf("%s\n", Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		printf("%s\n", Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	printf("%s\n", Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		printf("%s\n", Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		printf("%s\n", Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	printf("%s\n", Magenta(msg))
}
