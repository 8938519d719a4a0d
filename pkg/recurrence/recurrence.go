// Package recurrence derives bounded iCalendar recurrence rules from a
// task's recurrence descriptor. Every emitted rule carries an UNTIL bound so
// a synced series always terminates at the edge of the sync window.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/syncerr"
)

// Schedule is the outcome of rule derivation: the RRULE string plus the
// timing of the first occurrence (fixed one-hour duration, local zone).
type Schedule struct {
	Rule  string
	Start time.Time
	End   time.Time
}

const untilLayout = "20060102"

// Build computes the schedule for a recurrence descriptor relative to now.
func Build(rec *model.Recurrence, window model.SyncWindow, now time.Time) (Schedule, error) {
	if rec == nil {
		return Schedule{}, syncerr.New(syncerr.KindInvalidPayload, "task has no recurrence settings")
	}

	hour, minute, err := parseClock(rec.Time)
	if err != nil {
		return Schedule{}, syncerr.Wrap(syncerr.KindInvalidPayload, fmt.Sprintf("invalid recurrence time %q", rec.Time), err)
	}

	// First occurrence is today at the configured time; if that instant has
	// already passed, roll to the next calendar day.
	first := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if first.Before(now) {
		first = first.AddDate(0, 0, 1)
	}

	var seriesEnd time.Time
	switch window {
	case model.WindowOneMonth:
		seriesEnd = first.AddDate(0, 1, 0)
	case model.WindowOneWeek, "":
		seriesEnd = first.AddDate(0, 0, 7)
	default:
		return Schedule{}, syncerr.New(syncerr.KindInvalidPayload, fmt.Sprintf("unsupported sync window %q", window))
	}

	rule, err := buildRule(rec, seriesEnd)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{
		Rule:  rule,
		Start: first,
		End:   first.Add(time.Hour),
	}, nil
}

func buildRule(rec *model.Recurrence, until time.Time) (string, error) {
	var b strings.Builder
	b.WriteString("RRULE:")

	switch rec.Type {
	case model.RecurrenceDaily:
		b.WriteString("FREQ=DAILY")
	case model.RecurrenceCustom:
		// Custom repeats map onto a daily frequency with the interval
		// measured in days, matching the product's observed behavior.
		b.WriteString("FREQ=DAILY")
		if rec.Interval > 0 {
			fmt.Fprintf(&b, ";INTERVAL=%d", rec.Interval)
		}
	case model.RecurrenceWeekly:
		b.WriteString("FREQ=WEEKLY")
	case model.RecurrenceMonthly:
		b.WriteString("FREQ=MONTHLY")
	default:
		return "", syncerr.New(syncerr.KindInvalidPayload, fmt.Sprintf("unknown recurrence type %q", rec.Type))
	}

	fmt.Fprintf(&b, ";UNTIL=%s", until.Format(untilLayout))
	return b.String(), nil
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
