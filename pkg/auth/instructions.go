package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteLoginHelp explains the ways a session can be provided
func WriteLoginHelp(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "No usable Instagram session was found.")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Provide one of the following:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Username and password")
	fmt.Fprintln(w, "     ACCOUNT_USERNAME=<login> ACCOUNT_PASSWORD=<password>")
	fmt.Fprintln(w, "     or run `igrelations auth login` to be prompted.")
	fmt.Fprintln(w, "     The session is saved and reused on the next run.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  2. Browser cookies")
	fmt.Fprintln(w, "     IGRELATIONS_SESSION_ID=<sessionid cookie>")
	fmt.Fprintln(w, "     IGRELATIONS_CSRF_TOKEN=<csrftoken cookie>")
	fmt.Fprintln(w, "     Copy both from the Cookies list for https://www.instagram.com")
	fmt.Fprintln(w, "     in your browser's developer tools.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  3. A saved session file")
	fmt.Fprintln(w, "     --session-file session.json (or IGRELATIONS_SESSION_FILE)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Session cookies give full access to the account. Keep them private.")
	fmt.Fprintln(w, rule)
}
