package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"igrelations/pkg/models"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// ProgressPrinter writes one line per enriched account
type ProgressPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewProgressPrinter writes progress lines to w. A nil w uses the
// terminal output.
func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{w: w}
}

func (p *ProgressPrinter) writer() io.Writer {
	if p.w != nil {
		return p.w
	}
	return Output()
}

// Success prints "[i/N] OK → username"
func (p *ProgressPrinter) Success(i, n int, rec models.EnrichedRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.writer(), "%s %s → %s\n", Dim(counter(i, n)), Green("OK"), rec.DisplayName())
}

// Failure prints "[i/N] FAILED → pk | error"
func (p *ProgressPrinter) Failure(i, n int, id models.AccountID, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.writer(), "%s %s → %s | %v\n", Dim(counter(i, n)), Red("FAILED"), id, err)
}

func counter(i, n int) string {
	return fmt.Sprintf("[%d/%d]", i, n)
}

// Bar renders done out of total as a fixed width progress bar
func Bar(done, total, width int) string {
	if width <= 0 {
		width = 20
	}
	if total <= 0 {
		return strings.Repeat(ProgressEmpty, width)
	}
	if done > total {
		done = total
	}
	filled := done * width / total
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// FormatDuration formats a duration as "1h 2m 3s", dropping leading zero units
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
