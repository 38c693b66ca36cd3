package task

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// All disables a status or priority filter.
const All = "all"

// Filter narrows a task list. Empty fields behave like All.
type Filter struct {
	Search   string
	Status   string
	Priority string
}

// Match reports whether t passes every condition of the filter.
func (f Filter) Match(t Task) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	if !matchesEnum(f.Status, string(t.Status)) {
		return false
	}
	return matchesEnum(f.Priority, string(t.Priority))
}

func matchesEnum(filter, value string) bool {
	return filter == "" || filter == All || filter == value
}

// Query filters tasks and orders the result for display, comparing titles
// with English collation. The input slice is not modified.
func Query(tasks []Task, f Filter) []Task {
	return QueryLocale(tasks, f, language.English)
}

// QueryLocale is Query with an explicit collation language for the title
// tie-break.
func QueryLocale(tasks []Task, f Filter, tag language.Tag) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	SortLocale(out, tag)
	return out
}

// SortLocale orders tasks in place by ROI descending, then priority rank
// descending, then title ascending. Titles are compared with the collation
// for tag; distinct titles the collator treats as equal fall back to byte
// order so the order is total.
func SortLocale(tasks []Task, tag language.Tag) {
	col := collate.New(tag)
	sort.SliceStable(tasks, func(i, j int) bool {
		return compare(col, tasks[i], tasks[j]) < 0
	})
}

func compare(col *collate.Collator, a, b Task) int {
	if a.ROI != b.ROI {
		if a.ROI > b.ROI {
			return -1
		}
		return 1
	}
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		if ra > rb {
			return -1
		}
		return 1
	}
	if c := col.CompareString(a.Title, b.Title); c != 0 {
		return c
	}
	return strings.Compare(a.Title, b.Title)
}

// ParseLocale resolves a BCP 47 tag, defaulting to English when value is
// empty or malformed.
func ParseLocale(value string) language.Tag {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.English
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.English
	}
	return tag
}
