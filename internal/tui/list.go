package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/pipeline"
)

// logEntry is one line in the activity pane.
type logEntry struct {
	at   time.Time
	ok   bool
	text string
}

const maxLogEntries = 50

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func resultEntry(res pipeline.Result) logEntry {
	text := fmt.Sprintf("%s: %s", res.Key, res.Outcome)
	if res.Err != nil {
		text += fmt.Sprintf(" (%v)", res.Err)
	}
	return logEntry{at: time.Now(), ok: res.Err == nil, text: text}
}

func noticeEntry(n pipeline.Notice) logEntry {
	return logEntry{at: time.Now(), ok: n.Success, text: n.String()}
}

// pushEntry prepends e, keeping the newest maxLogEntries.
func pushEntry(entries []logEntry, e logEntry) []logEntry {
	entries = append([]logEntry{e}, entries...)
	if len(entries) > maxLogEntries {
		entries = entries[:maxLogEntries]
	}
	return entries
}

func renderEntry(e logEntry, width int) string {
	if width < 10 {
		width = 30
	}
	mark := noticeOKStyle.Render("✓")
	if !e.ok {
		mark = noticeFailStyle.Render("✗")
	}
	when := noticeTimeStyle.Render(relativeTime(e.at))
	return mark + " " + truncateStr(e.text, width-10) + " " + when
}

func renderLog(entries []logEntry, height, width int) string {
	if len(entries) == 0 {
		return helpDimStyle.Render("Nothing visited yet")
	}
	if height < 1 {
		height = 1
	}
	if len(entries) > height {
		entries = entries[:height]
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = renderEntry(e, width)
	}
	return strings.Join(lines, "\n")
}
