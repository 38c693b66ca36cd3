package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kingrea/roitrack/internal/csvio"
	"github.com/kingrea/roitrack/internal/session"
	"github.com/kingrea/roitrack/internal/task"
)

type commandFunc func(ctx context.Context, sess *session.Session, args []string, stdout io.Writer) error

var commands = map[string]commandFunc{
	"tui":     runTUI,
	"list":    runList,
	"summary": runSummary,
	"export":  runExport,
	"import":  runImport,
}

func runList(_ context.Context, sess *session.Session, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stdout)
	search := fs.String("search", "", "case-insensitive title substring")
	status := fs.String("status", sess.Config.DefaultStatusFilter(), "all, pending, in-progress or completed")
	priority := fs.String("priority", sess.Config.DefaultPriorityFilter(), "all, low, medium or high")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter := task.Filter{
		Search:   *search,
		Status:   strings.ToLower(strings.TrimSpace(*status)),
		Priority: strings.ToLower(strings.TrimSpace(*priority)),
	}
	if err := validateFilter(filter); err != nil {
		return err
	}
	tasks := task.QueryLocale(sess.Store.All(), filter, task.ParseLocale(sess.Config.Locale()))
	if len(tasks) == 0 {
		fmt.Fprintln(stdout, "No tasks found.")
		return nil
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.Title,
			fmt.Sprintf("$%.2f", t.Revenue),
			task.FormatNumber(t.TimeTaken) + "h",
			fmt.Sprintf("%.2f", t.ROI),
			string(t.Priority),
			string(t.Status),
		})
	}
	out := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Title", "Revenue", "Time", "ROI", "Priority", "Status").
		Rows(rows...)
	fmt.Fprintln(stdout, out.String())
	return nil
}

func validateFilter(f task.Filter) error {
	if f.Status != "" && f.Status != task.All && !task.Status(f.Status).Valid() {
		return fmt.Errorf("unknown status %q", f.Status)
	}
	if f.Priority != "" && f.Priority != task.All && !task.Priority(f.Priority).Valid() {
		return fmt.Errorf("unknown priority %q", f.Priority)
	}
	return nil
}

func runSummary(_ context.Context, sess *session.Session, _ []string, stdout io.Writer) error {
	s := task.Summarize(sess.Store.All())
	fmt.Fprintf(stdout, "Tasks:          %d\n", s.Count)
	fmt.Fprintf(stdout, "Total Revenue:  %s\n", s.TotalRevenueText())
	fmt.Fprintf(stdout, "Efficiency:     %s\n", s.EfficiencyText())
	fmt.Fprintf(stdout, "Avg ROI:        %s\n", s.AvgROIText())
	fmt.Fprintf(stdout, "Grade:          %s\n", s.Grade)
	return nil
}

func runExport(_ context.Context, sess *session.Session, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stdout)
	output := fs.String("o", sess.Config.ExportPath(), "destination file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tasks := sess.Store.All()
	if *output == "-" {
		if err := csvio.Encode(stdout, tasks); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
		return nil
	}
	if err := csvio.WriteFile(*output, tasks); err != nil {
		sess.Logbook.Error("Export to %s failed: %v", *output, err)
		return err
	}
	sess.Logbook.Info("Exported %d task(s) to %s", len(tasks), *output)
	fmt.Fprintf(stdout, "Exported %d task(s) to %s\n", len(tasks), *output)
	return nil
}

func runImport(ctx context.Context, sess *session.Session, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("import needs at least one CSV file")
	}
	records, err := csvio.DecodeFiles(ctx, args...)
	if err != nil {
		sess.Logbook.Error("Import failed: %v", err)
		return err
	}
	imported, err := sess.Store.Import(ctx, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Imported %d task(s) from %d file(s)\n", len(imported), len(args))
	return nil
}
