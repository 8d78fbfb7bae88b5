package notifier

import (
	"fmt"
	"strings"
	"time"

	"CryptoTracker/internal/model"
)

// FormatCycleFailure formats the alert sent once failures reach the threshold.
func FormatCycleFailure(res model.CycleResult, consecutive int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 <b>CryptoTracker price updates failing</b> | %s\n\n", res.StartedAt.UTC().Format("2006-01-02 15:04 MST")))
	b.WriteString(fmt.Sprintf("Consecutive failed cycles: %d\n", consecutive))
	b.WriteString(fmt.Sprintf("Stored: %d | Missing: %d | Write errors: %d\n", res.Stored, res.Skipped, res.Failed))
	if res.Err != nil {
		b.WriteString(fmt.Sprintf("Last error: <code>%s</code>\n", escapeHTML(res.Err.Error())))
	}
	if res.ID != "" {
		b.WriteString(fmt.Sprintf("Cycle: %s\n", res.ID))
	}
	return b.String()
}

// FormatRecovered formats the message sent after the first good cycle following an alert.
func FormatRecovered(res model.CycleResult, failedCycles int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ <b>CryptoTracker price updates recovered</b> | %s\n\n", res.StartedAt.UTC().Format("2006-01-02 15:04 MST")))
	b.WriteString(fmt.Sprintf("Failed cycles before recovery: %d\n", failedCycles))
	b.WriteString(fmt.Sprintf("Stored: %d | Missing: %d\n", res.Stored, res.Skipped))
	b.WriteString(fmt.Sprintf("Cycle duration: %s\n", res.Duration.Round(time.Millisecond)))
	return b.String()
}

func escapeHTML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
