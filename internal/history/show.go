package history

import (
	"fmt"
	"io"
	"time"
)

// ShowRuns writes runs as a table.
func ShowRuns(w io.Writer, runs []Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No run history")
		return
	}

	fmt.Fprintf(w, "%-36s %-15s %-20s %-10s %8s %10s  %s\n", "ID", "Action", "Started", "Status", "Tables", "Rows", "File")
	fmt.Fprintln(w, "----------------------------------------------------------------------------------------------------------------------")

	for _, r := range runs {
		fmt.Fprintf(w, "%-36s %-15s %-20s %-10s %8d %10d  %s\n",
			r.ID, r.Action, r.StartedAt.Format(timeLayout), r.Status, r.Tables, r.Rows, r.File)
		if r.Warnings > 0 {
			fmt.Fprintf(w, "%37s Warnings: %d\n", "", r.Warnings)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "%37s Error: %s\n", "", r.Error)
		}
	}
}

// ShowRun writes the details of one run.
func ShowRun(w io.Writer, r *Run) {
	fmt.Fprintf(w, "Run ID:    %s\n", r.ID)
	fmt.Fprintf(w, "Action:    %s\n", r.Action)
	fmt.Fprintf(w, "Status:    %s\n", r.Status)
	if r.Format != "" {
		fmt.Fprintf(w, "Format:    %s\n", r.Format)
	}
	if r.File != "" {
		fmt.Fprintf(w, "File:      %s\n", r.File)
	}
	fmt.Fprintf(w, "Started:   %s\n", r.StartedAt.Format(timeLayout))
	if r.CompletedAt != nil {
		fmt.Fprintf(w, "Completed: %s\n", r.CompletedAt.Format(timeLayout))
		fmt.Fprintf(w, "Duration:  %s\n", r.CompletedAt.Sub(r.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(w, "Tables:    %d\n", r.Tables)
	fmt.Fprintf(w, "Rows:      %d\n", r.Rows)
	if r.Warnings > 0 {
		fmt.Fprintf(w, "Warnings:  %d\n", r.Warnings)
	}
	if r.Details != "" {
		fmt.Fprintf(w, "Details:   %s\n", r.Details)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", r.Error)
	}
}
