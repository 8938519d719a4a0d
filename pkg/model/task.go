package model

import (
	"fmt"
	"strings"
	"time"
)

// Recurrence types supported by the calendar mapping.
const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceCustom  = "custom"
)

// SyncWindow bounds how far into the future a recurring series is generated.
type SyncWindow string

const (
	WindowOneWeek  SyncWindow = "1week"
	WindowOneMonth SyncWindow = "1month"
)

// Valid reports whether the window is one of the supported spans.
func (w SyncWindow) Valid() bool {
	return w == WindowOneWeek || w == WindowOneMonth
}

// FlexTime accepts the timestamp formats the task store emits: RFC3339 or a
// local datetime without zone ("2006-01-02T15:04").
type FlexTime struct {
	time.Time
}

const localLayout = "2006-01-02T15:04"

// UnmarshalJSON implements the json.Unmarshaler interface for FlexTime.
func (ft *FlexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		ft.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		ft.Time = t
		return nil
	}
	t, err := time.ParseInLocation(localLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("failed to parse task time %q: %w", s, err)
	}
	ft.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for FlexTime.
func (ft FlexTime) MarshalJSON() ([]byte, error) {
	if ft.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ft.Time.Format(time.RFC3339) + `"`), nil
}

// Recurrence describes how a recurring task repeats.
type Recurrence struct {
	Type     string `json:"type"`               // daily | weekly | monthly | custom
	Interval int    `json:"interval,omitempty"` // days, custom type only
	Time     string `json:"time"`               // "HH:MM"
}

// Task is the subset of a QuickNotes task record the sync engine reads, plus
// the three fields it writes back after a successful upsert.
type Task struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Description        string      `json:"description,omitempty"`
	Priority           string      `json:"priority,omitempty"`
	StartDate          *FlexTime   `json:"startDate,omitempty"`
	DueDate            *FlexTime   `json:"dueDate,omitempty"`
	EndDate            *FlexTime   `json:"endDate,omitempty"`
	Recurring          bool        `json:"recurring,omitempty"`
	Recurrence         *Recurrence `json:"recurrence,omitempty"`
	IsScheduledMeeting bool        `json:"isScheduledMeeting,omitempty"`

	// Written by the sync coordinator only.
	CalendarEventID    string    `json:"calendarEventId,omitempty"`
	SyncedWithCalendar bool      `json:"syncedWithCalendar,omitempty"`
	LastSyncDate       *FlexTime `json:"lastSyncDate,omitempty"`
}

// Start returns the task's start instant, falling back to the due date.
func (t *Task) Start() time.Time {
	if t.StartDate != nil && !t.StartDate.IsZero() {
		return t.StartDate.Time
	}
	if t.DueDate != nil && !t.DueDate.IsZero() {
		return t.DueDate.Time
	}
	return time.Time{}
}

// End returns the task's end instant, if set.
func (t *Task) End() time.Time {
	if t.EndDate != nil && !t.EndDate.IsZero() {
		return t.EndDate.Time
	}
	return time.Time{}
}
