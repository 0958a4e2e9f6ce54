// schedule.go - Pure time-slot and date-range computations backing the
// availability calendar and the booking wizards. The server remains the
// authority on conflicts; these helpers only keep the UI honest before a
// request is made.

package schedule

import (
	"fmt"
	"sort"
	"time"

	"teledesk/src/models"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

// ParseClock parses an HH:MM 24-hour value into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("schedule: bad clock value %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether two ranges intersect. Ranges are half-open, so
// back-to-back ranges (10:00-11:00, 11:00-12:00) do not overlap.
func Overlaps(a, b models.TimeRange) (bool, error) {
	aStart, err := ParseClock(a.Start)
	if err != nil {
		return false, err
	}
	aEnd, err := ParseClock(a.End)
	if err != nil {
		return false, err
	}
	bStart, err := ParseClock(b.Start)
	if err != nil {
		return false, err
	}
	bEnd, err := ParseClock(b.End)
	if err != nil {
		return false, err
	}
	return aStart < bEnd && bStart < aEnd, nil
}

// MergeRanges normalizes drag-selected ranges: sorts by start and coalesces
// overlapping or touching ranges into one. Invalid or empty ranges are
// dropped.
func MergeRanges(ranges []models.TimeRange) []models.TimeRange {
	type span struct{ start, end int }
	spans := make([]span, 0, len(ranges))
	for _, r := range ranges {
		start, err := ParseClock(r.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(r.End)
		if err != nil || end <= start {
			continue
		}
		spans = append(spans, span{start, end})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var merged []span
	for _, s := range spans {
		if n := len(merged); n > 0 && s.start <= merged[n-1].end {
			if s.end > merged[n-1].end {
				merged[n-1].end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	out := make([]models.TimeRange, len(merged))
	for i, s := range merged {
		out[i] = models.TimeRange{Start: formatClock(s.start), End: formatClock(s.end)}
	}
	return out
}

// SlotsBetween cuts a range into consultation slots of the given length.
// A trailing remainder shorter than the step is discarded.
func SlotsBetween(r models.TimeRange, step time.Duration) ([]models.TimeRange, error) {
	start, err := ParseClock(r.Start)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(r.End)
	if err != nil {
		return nil, err
	}
	stepMin := int(step.Minutes())
	if stepMin <= 0 {
		return nil, fmt.Errorf("schedule: non-positive slot length %v", step)
	}

	var slots []models.TimeRange
	for at := start; at+stepMin <= end; at += stepMin {
		slots = append(slots, models.TimeRange{Start: formatClock(at), End: formatClock(at + stepMin)})
	}
	return slots, nil
}

// ConflictsWith reports whether candidate overlaps any existing range.
func ConflictsWith(existing []models.TimeRange, candidate models.TimeRange) (bool, error) {
	for _, r := range existing {
		overlap, err := Overlaps(r, candidate)
		if err != nil {
			return false, err
		}
		if overlap {
			return true, nil
		}
	}
	return false, nil
}

// ExpandDates returns every date from from to to inclusive, for
// drag-to-select date ranges. Reversed bounds yield nil.
func ExpandDates(from, to string) ([]string, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("schedule: bad date %q: %w", from, err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("schedule: bad date %q: %w", to, err)
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dateLayout))
	}
	return days, nil
}

// To12Hour converts HH:MM 24-hour to a 12-hour display value like "2:30 PM".
func To12Hour(s string) (string, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return "", fmt.Errorf("schedule: bad clock value %q: %w", s, err)
	}
	return t.Format("3:04 PM"), nil
}

// To24Hour converts a 12-hour value like "2:30 PM" back to HH:MM.
func To24Hour(s string) (string, error) {
	t, err := time.Parse("3:04 PM", s)
	if err != nil {
		return "", fmt.Errorf("schedule: bad 12-hour value %q: %w", s, err)
	}
	return t.Format(clockLayout), nil
}
