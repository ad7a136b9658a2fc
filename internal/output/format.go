// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tasklist/internal/service"
	"tasklist/internal/tasklist"
)

// FormatTask formats one task line.
// Format: "{ID:>6}  [x] {TITLE}\n", with "[ ]" for pending tasks.
func FormatTask(w io.Writer, task service.Task) {
	mark := " "
	if task.Completed {
		mark = "x"
	}
	fmt.Fprintf(w, "%6d  [%s] %s\n", task.ID, mark, normalizeTitle(task.Title))
}

// FormatSummary formats the aggregate counts line.
func FormatSummary(w io.Writer, v tasklist.View) {
	noun := "tasks"
	if v.Total == 1 {
		noun = "task"
	}
	fmt.Fprintf(w, "%d %s, %d completed (filter: %s)\n", v.Total, noun, v.Completed, v.Filter)
}

// FormatError formats a user-facing message on errOut.
func FormatError(errOut io.Writer, msg string) {
	fmt.Fprintf(errOut, "error: %s\n", msg)
}

// FormatView writes the filtered view. A failed load shows only the error
// panel. Otherwise the list and summary go to w and any pending message
// goes to errOut.
func FormatView(w, errOut io.Writer, v tasklist.View, quiet bool) {
	if v.Phase == tasklist.Failed {
		FormatError(errOut, v.Err)
		return
	}

	if len(v.Tasks) == 0 {
		if !quiet {
			fmt.Fprintln(w, "no tasks found")
		}
	} else {
		for _, task := range v.Tasks {
			FormatTask(w, task)
		}
	}
	if !quiet {
		FormatSummary(w, v)
	}

	if v.Err != "" {
		FormatError(errOut, v.Err)
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
