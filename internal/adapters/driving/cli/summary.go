package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

var (
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func statusCell(status domain.OutcomeStatus) string {
	switch status {
	case domain.OutcomeFailed:
		return failedStyle.Render(string(status))
	case domain.OutcomePartial:
		return partialStyle.Render(string(status))
	case domain.OutcomeSucceeded:
		return okStyle.Render(string(status))
	default:
		return string(status)
	}
}

// printReport writes a per-object-type summary of a run.
func printReport(w io.Writer, report *domain.RunReport) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("OBJECT TYPE", "TABLE", "MODE", "STATUS", "RECORDS", "SKIPPED", "PAGES", "DURATION")

	for _, o := range report.Outcomes {
		t.Row(
			o.Stream.ObjectType,
			o.Stream.Table,
			string(o.Stream.Disposition),
			statusCell(o.Status),
			strconv.Itoa(o.Emitted),
			strconv.Itoa(o.Skipped),
			strconv.Itoa(o.Pages),
			o.Duration().Round(time.Millisecond).String(),
		)
	}

	fmt.Fprintf(w, "Run %s (%s)\n", report.RunID, report.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "%d records written\n", report.TotalEmitted())

	for _, o := range report.Outcomes {
		if o.Error != "" {
			fmt.Fprintf(w, "  %s: %s\n", o.Stream.ObjectType, o.Error)
		}
	}
}

// printSpecs lists object type specs.
func printSpecs(w io.Writer, specs []domain.ObjectTypeSpec) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("OBJECT TYPE", "TABLE", "FILTER", "MODE", "PRIMARY KEY", "PROPERTIES")

	for _, s := range specs {
		filter := "none"
		switch {
		case s.FullLoad:
			filter = "full load"
		case s.UsesFilter():
			filter = fmt.Sprintf("%s %s now-%dd", s.FilterProperty, s.Operator(), s.DaysBack)
		}
		t.Row(
			s.ObjectType,
			s.TableName(),
			filter,
			string(s.Disposition()),
			s.KeyField(),
			strconv.Itoa(len(s.Properties)),
		)
	}
	fmt.Fprintln(w, t.String())
}
