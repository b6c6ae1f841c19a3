package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/kopisync/internal/models"
	"github.com/desertthunder/kopisync/internal/tasks"
)

var _ Painter = (*Palette)(nil)

// statusStyle picks the color of a sync status cell.
func statusStyle(s models.SyncStatus) lipgloss.Style {
	switch s {
	case models.StatusSuccess:
		return styles.ok
	case models.StatusFailed:
		return styles.err
	default:
		return styles.warn
	}
}

// RenderStatus draws the sync_metadata rows as a table.
func RenderStatus(rows []models.SyncMetadata) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("KOPIS Sync Status"))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(styles.help.Render("No sync has run yet. Run `kopisync sync all` to start."))
		b.WriteString("\n")
		return b.String()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.help).
		Headers("TYPE", "STATUS", "WATERMARK", "ADDED", "UPDATED", "LAST RUN")

	for _, m := range rows {
		watermark := "-"
		if m.LastSyncDate != nil {
			watermark = m.LastSyncDate.Format(time.DateOnly)
		}
		t.Row(
			string(m.SyncType),
			string(m.Status),
			watermark,
			strconv.Itoa(m.ItemsAdded),
			strconv.Itoa(m.ItemsUpdated),
			m.LastSyncTimestamp.Local().Format(time.DateTime),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return styles.head
		}
		if col == 1 && row >= 0 && row < len(rows) {
			return statusStyle(rows[row].Status).Padding(0, 1)
		}
		return styles.cell
	})

	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// RenderResult summarizes a finished run. A non-nil err renders the failure instead.
func RenderResult(result *tasks.SyncResult, err error) string {
	if err != nil {
		return styles.err.Render("✗ Sync failed: ") + err.Error()
	}

	line := fmt.Sprintf("%s sync: %d added, %d updated", result.SyncType, result.Added, result.Updated)
	if result.Errors > 0 {
		return styles.warn.Render("! ") + line + styles.warn.Render(fmt.Sprintf(", %d errors", result.Errors))
	}
	return styles.ok.Render("✓ ") + line + styles.help.Render(fmt.Sprintf(" (%s)", result.Duration().Round(time.Millisecond)))
}

// RenderProgress formats a progress update for line-oriented output.
func RenderProgress(u tasks.ProgressUpdate) string {
	prefix := styles.help.Render(fmt.Sprintf("[%s]", u.Phase))
	switch u.Phase {
	case tasks.Failed:
		return prefix + " " + styles.err.Render(u.Message)
	case tasks.Completed:
		return prefix + " " + styles.ok.Render(u.Message)
	default:
		return prefix + " " + u.Message
	}
}
