package claim

import (
    "fmt"
    "strings"
    "time"
)

// DayFilterError reports a day filter outside the accepted vocabulary.
type DayFilterError struct {
    Input string
}

func (e *DayFilterError) Error() string {
    return fmt.Sprintf("unrecognized day filter %q", e.Input)
}

// The day filter accepts a small, audited vocabulary rather than ad hoc
// string comparison. Callers may send an ordinal day ("day1", "day2"),
// an ISO date ("2025-09-03") or a short month-day form ("Sep 3"); all
// resolve to one canonical UTC calendar day relative to the event's
// first day.

// dayLayouts lists the accepted date spellings, tried in order. The
// short forms inherit their year from the event start date.
var dayLayouts = []string{
    "2006-01-02",
    "Jan 2",
    "Jan 02",
    "January 2",
}

// DayBounds resolves a caller-supplied day filter to the [start, end)
// UTC boundaries of a single calendar day. eventStart anchors ordinal
// day names and year-less dates. It returns an error when the input is
// not part of the accepted vocabulary.
func DayBounds(input string, eventStart time.Time) (time.Time, time.Time, error) {
    s := strings.TrimSpace(input)
    if s == "" {
        return time.Time{}, time.Time{}, &DayFilterError{Input: input}
    }
    base := eventStart.UTC().Truncate(24 * time.Hour)

    // Ordinal form: day1 is the event's first day.
    if n, ok := ordinalDay(s); ok {
        start := base.AddDate(0, 0, n-1)
        return start, start.AddDate(0, 0, 1), nil
    }

    for _, layout := range dayLayouts {
        t, err := time.ParseInLocation(layout, s, time.UTC)
        if err != nil {
            continue
        }
        if t.Year() == 0 {
            t = time.Date(base.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
        }
        start := t.Truncate(24 * time.Hour)
        return start, start.AddDate(0, 0, 1), nil
    }
    return time.Time{}, time.Time{}, &DayFilterError{Input: input}
}

// ordinalDay parses "day1".."day9" (case-insensitive). Anything outside
// that range is not a valid ordinal.
func ordinalDay(s string) (int, bool) {
    low := strings.ToLower(s)
    if !strings.HasPrefix(low, "day") || len(low) != 4 {
        return 0, false
    }
    d := low[3]
    if d < '1' || d > '9' {
        return 0, false
    }
    return int(d - '0'), true
}
