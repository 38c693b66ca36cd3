// Package csvio converts task collections to and from the tracker's CSV
// exchange format.
//
// The column layout is fixed:
//
//	Title,Revenue,Time Taken,ROI,Priority,Status,Notes
//
// Fields that contain a comma, a double quote or a line break are quoted
// using RFC 4180 rules; every other field is written verbatim.
package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kingrea/roitrack/internal/task"
)

// Header is the first row of every export.
var Header = []string{"Title", "Revenue", "Time Taken", "ROI", "Priority", "Status", "Notes"}

const (
	colTitle = iota
	colRevenue
	colTimeTaken
	colROI
	colPriority
	colStatus
	colNotes
	columnCount
)

const (
	// UntitledTitle replaces an empty title on import.
	UntitledTitle = "Untitled"
	// DefaultTimeTaken replaces an unparseable time on import.
	DefaultTimeTaken = 1.0
)

// Encode writes the header and one row per task. Rows are separated by a
// single newline with no trailing newline.
func Encode(w io.Writer, tasks []task.Task) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, Header)
	for _, t := range tasks {
		bw.WriteByte('\n')
		writeRow(bw, []string{
			t.Title,
			task.FormatNumber(t.Revenue),
			task.FormatNumber(t.TimeTaken),
			task.FormatNumber(t.ROI),
			string(t.Priority),
			string(t.Status),
			t.Notes,
		})
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("csvio: write: %w", err)
	}
	return nil
}

// EncodeString is Encode into a string.
func EncodeString(tasks []task.Task) (string, error) {
	var sb strings.Builder
	if err := Encode(&sb, tasks); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeRow(w *bufio.Writer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString(quoteField(field))
	}
}

func quoteField(field string) string {
	if !strings.ContainsAny(field, ",\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Decode reads an export back into tasks. The first non-blank record is
// treated as the header and skipped, as are blank lines. Malformed values fall
// back to defaults instead of failing: only read errors are returned.
//
// Decoded tasks have no ID or CreatedAt; the store assigns both on import.
func Decode(r io.Reader) ([]task.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("csvio: read: %w", err)
	}
	var (
		tasks      []task.Task
		seenHeader bool
	)
	for _, record := range splitRecords(string(data)) {
		if blankRecord(record) {
			continue
		}
		if !seenHeader {
			seenHeader = true
			continue
		}
		tasks = append(tasks, decodeRecord(record))
	}
	return tasks, nil
}

// splitRecords breaks text into records. Well-quoted rows are parsed with
// RFC 4180 rules, including quoted fields that span lines. A row with broken
// quoting is split on commas by itself so it cannot absorb the rows after it.
func splitRecords(text string) [][]string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	var records [][]string
	for i := 0; i < len(lines); {
		if end, ok := quotedSpan(lines, i); ok {
			if record, err := parseRecord(strings.Join(lines[i:end], "\n")); err == nil {
				records = append(records, record)
				i = end
				continue
			}
		}
		records = append(records, strings.Split(lines[i], ","))
		i++
	}
	return records
}

// quotedSpan reports the line index just past the record starting at
// lines[start], following quoted fields across line breaks. ok is false when
// a quote appears anywhere other than around a whole field, or when a quoted
// field is never closed.
func quotedSpan(lines []string, start int) (end int, ok bool) {
	inQuotes := false
	for i := start; i < len(lines); i++ {
		line := lines[i]
		fieldStart := !inQuotes
		for j := 0; j < len(line); j++ {
			c := line[j]
			switch {
			case inQuotes:
				if c != '"' {
					continue
				}
				if j+1 < len(line) && line[j+1] == '"' {
					j++
					continue
				}
				if j+1 < len(line) && line[j+1] != ',' {
					return 0, false
				}
				inQuotes = false
			case c == '"':
				if !fieldStart {
					return 0, false
				}
				inQuotes = true
			case c == ',':
				fieldStart = true
				continue
			}
			fieldStart = false
		}
		if !inQuotes {
			return i + 1, true
		}
	}
	return 0, false
}

func parseRecord(text string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []string{""}, nil
	}
	return record, err
}

// DecodeString is Decode over a string.
func DecodeString(text string) ([]task.Task, error) {
	return Decode(strings.NewReader(text))
}

func decodeRecord(record []string) task.Task {
	if len(record) < columnCount {
		padded := make([]string, columnCount)
		copy(padded, record)
		record = padded
	}
	rawRevenue := record[colRevenue]
	rawTime := record[colTimeTaken]

	title := strings.TrimSpace(record[colTitle])
	if title == "" {
		title = UntitledTitle
	}
	revenue, ok := task.ParseNumber(rawRevenue)
	if !ok || revenue < 0 {
		revenue = 0
	}
	timeTaken, ok := task.ParseNumber(rawTime)
	if !ok || timeTaken < 0 {
		timeTaken = DefaultTimeTaken
	}
	return task.Task{
		Title:     title,
		Revenue:   revenue,
		TimeTaken: timeTaken,
		// ROI column is ignored: always derived from the raw text.
		ROI:      task.ROIFromText(rawRevenue, rawTime),
		Priority: task.ParsePriority(record[colPriority], task.DefaultPriority),
		Status:   task.ParseStatus(record[colStatus], task.DefaultStatus),
		Notes:    strings.TrimSpace(record[colNotes]),
	}
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return len(record) <= 1
}
