// package formatter renders sync status rows and run results as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/kopisync/internal/models"
	"github.com/desertthunder/kopisync/internal/tasks"
)

// Format selects an output encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat parses a format name, accepting "markdown" and "txt" as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// statusRecord is the JSON shape of a sync_metadata row.
type statusRecord struct {
	SyncType          models.SyncType   `json:"sync_type"`
	Status            models.SyncStatus `json:"status"`
	LastSyncDate      string            `json:"last_sync_date,omitempty"`
	ItemsAdded        int               `json:"items_added"`
	ItemsUpdated      int               `json:"items_updated"`
	LastSyncTimestamp time.Time         `json:"last_sync_timestamp"`
}

func lastSyncDate(m models.SyncMetadata) string {
	if m.LastSyncDate == nil {
		return ""
	}
	return m.LastSyncDate.Format(time.DateOnly)
}

// StatusToCSV converts sync status rows to CSV with columns: Type, Status, Last Sync Date, Added, Updated, Updated At
func StatusToCSV(rows []models.SyncMetadata) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Type", "Status", "Last Sync Date", "Added", "Updated", "Updated At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range rows {
		record := []string{
			string(m.SyncType),
			string(m.Status),
			lastSyncDate(m),
			strconv.Itoa(m.ItemsAdded),
			strconv.Itoa(m.ItemsUpdated),
			m.LastSyncTimestamp.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// StatusToMarkdown converts sync status rows to a Markdown table
func StatusToMarkdown(rows []models.SyncMetadata) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# KOPIS Sync Status\n\n")
	if len(rows) == 0 {
		buf.WriteString("No sync has run yet.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Type | Status | Last Sync Date | Added | Updated | Updated At |\n")
	buf.WriteString("| --- | --- | --- | ---: | ---: | --- |\n")
	for _, m := range rows {
		date := lastSyncDate(m)
		if date == "" {
			date = "-"
		}
		fmt.Fprintf(&buf, "| %s | %s | %s | %d | %d | %s |\n",
			m.SyncType, m.Status, date, m.ItemsAdded, m.ItemsUpdated, m.LastSyncTimestamp.UTC().Format(time.RFC3339))
	}

	return buf.Bytes(), nil
}

// StatusToText converts sync status rows to plain text format
func StatusToText(rows []models.SyncMetadata) ([]byte, error) {
	var buf bytes.Buffer

	for _, m := range rows {
		date := lastSyncDate(m)
		if date == "" {
			date = "never"
		}
		fmt.Fprintf(&buf, "%s: %s (watermark %s, %d added, %d updated)\n",
			m.SyncType, m.Status, date, m.ItemsAdded, m.ItemsUpdated)
	}

	return buf.Bytes(), nil
}

// StatusToJSON converts sync status rows to an indented JSON array
func StatusToJSON(rows []models.SyncMetadata) ([]byte, error) {
	records := make([]statusRecord, len(rows))
	for i, m := range rows {
		records[i] = statusRecord{
			SyncType:          m.SyncType,
			Status:            m.Status,
			LastSyncDate:      lastSyncDate(m),
			ItemsAdded:        m.ItemsAdded,
			ItemsUpdated:      m.ItemsUpdated,
			LastSyncTimestamp: m.LastSyncTimestamp.UTC(),
		}
	}
	return json.MarshalIndent(records, "", "  ")
}

// FormatStatus renders rows in the given format
func FormatStatus(rows []models.SyncMetadata, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return StatusToCSV(rows)
	case FormatMarkdown:
		return StatusToMarkdown(rows)
	case FormatText:
		return StatusToText(rows)
	case FormatJSON:
		return StatusToJSON(rows)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// ResultToJSON generates an indented JSON representation of a sync run result
func ResultToJSON(result *tasks.SyncResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// ResultToText generates a one-line summary of a sync run result
func ResultToText(result *tasks.SyncResult) string {
	return fmt.Sprintf("%s: %d added, %d updated, %d errors in %s",
		result.SyncType, result.Added, result.Updated, result.Errors, result.Duration().Round(time.Millisecond))
}

// WriteExport writes data to path, or to w when path is empty or "-".
func WriteExport(w io.Writer, data []byte, path string) error {
	if path == "" || path == "-" {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
