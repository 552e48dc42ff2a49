package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorToggle(t *testing.T) {
	SetNoColor(false)
	assert.Equal(t, "\033[31mboom\033[0m", Red("boom"))
	SetNoColor(true)
	defer SetNoColor(false)
	assert.Equal(t, "boom", Red("boom"))
}

func TestQuietSuppressesInfo(t *testing.T) {
	buf := withPlainOutput(t)
	SetQuiet(true)

	PrintLogo()
	PrintInfo("Owner", "alice")
	PrintSuccess("done")
	PrintHighlight("note")
	assert.Empty(t, buf.String())

	PrintError("Export failed", errors.New("disk full"))
	PrintWarning("slow down")
	assert.Equal(t, "Export failed: disk full\nslow down\n", buf.String())
}

func TestPrintInfo(t *testing.T) {
	buf := withPlainOutput(t)
	PrintInfo("Owner", "alice")
	assert.Equal(t, "Owner: alice\n", buf.String())
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return errors.New("no display")
}

func TestNotifier(t *testing.T) {
	buf := withPlainOutput(t)

	sender := &recordingSender{}
	n := NewNotifierWithSender(sender, true)
	n.SendSuccess("Export complete", "3 files")
	n.SendError("Export failed", "database")
	assert.Equal(t, []string{"Export complete", "Export failed"}, sender.titles)
	assert.Contains(t, buf.String(), "Export complete: 3 files")

	disabled := &recordingSender{}
	NewNotifierWithSender(disabled, false).SendNotification("Rate limit", "pausing")
	assert.Empty(t, disabled.titles)
	assert.Contains(t, buf.String(), "Rate limit: pausing")
}
