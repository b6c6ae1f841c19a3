// Package ui renders CLI output with lipgloss styles.
//
// [RenderStatus] draws the sync_metadata rows as a bordered table, [RenderResult] summarizes a
// finished run and [RenderProgress] formats a progress update line. Colors come from a shared [Palette].
package ui
