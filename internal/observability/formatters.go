// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of entries to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRun outputs a human-readable summary of a completed pipeline run.
func (p *Printer) PrintRun(run *types.PipelineRun) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Watchlist:     %s\n", run.WatchlistID))
	sb.WriteString(fmt.Sprintf("Status:        %s\n", run.Status))
	sb.WriteString(fmt.Sprintf("Items checked: %d\n", run.ItemsChecked))
	sb.WriteString(fmt.Sprintf("Notifications: %d\n", run.NotificationsSent))
	sb.WriteString(fmt.Sprintf("Errors:        %d\n", len(run.Errors)))

	if len(run.Errors) > 0 {
		sb.WriteString("\n")
		for i, e := range run.Errors {
			if i >= maxItemsToShow {
				sb.WriteString(fmt.Sprintf("... and %d more\n", len(run.Errors)-maxItemsToShow))
				break
			}
			sb.WriteString(fmt.Sprintf("%s [%s]: %s\n", e.ItemID, e.Stage, e.Reason))
		}
	}

	p.printBox(fmt.Sprintf("PIPELINE RUN %s", run.RunID), sb.String())
}

// PrintDecision outputs the messages of a notification decision.
func (p *Printer) PrintDecision(itemName string, decision types.NotificationDecision) {
	if !decision.ShouldNotify {
		return
	}

	var sb strings.Builder
	for _, msg := range decision.Messages {
		sb.WriteString(fmt.Sprintf("[%s/%s] %s\n", msg.Type, msg.Priority, msg.Text))
	}

	p.printBox(fmt.Sprintf("NOTIFICATIONS: %s", itemName), sb.String())
}

// PrintChangeSet outputs a summary of detected changes for an item.
func (p *Printer) PrintChangeSet(itemName string, changes types.ChangeSet) {
	var sb strings.Builder

	switch {
	case changes.NoPriorData:
		sb.WriteString("First observation, no prior data\n")
	case !changes.HasChanges():
		sb.WriteString("No changes\n")
	default:
		if pc := changes.Price; pc != nil {
			if pc.Percent != nil {
				sb.WriteString(fmt.Sprintf("Price: %.2f -> %.2f (%.2f%%)\n", pc.Old, pc.New, *pc.Percent))
			} else {
				sb.WriteString(fmt.Sprintf("Price: %.2f -> %.2f\n", pc.Old, pc.New))
			}
		}
		if ac := changes.Availability; ac != nil {
			sb.WriteString(fmt.Sprintf("Availability: %s\n", ac.Status))
		}
		if tc := changes.Title; tc != nil {
			sb.WriteString(fmt.Sprintf("Title: %q -> %q\n", tc.Old, tc.New))
		}
		if changes.DescriptionChanged {
			sb.WriteString("Description updated\n")
		}
	}

	p.printBox(fmt.Sprintf("CHANGES: %s", itemName), sb.String())
}
