package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/recurrence"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/syncerr"
)

// TaskIDProperty is the private extended property carrying the owning task
// id. It is the primary dedup key for the upsert protocol.
const TaskIDProperty = "taskId"

// Extended properties recording how a recurring series was generated.
const (
	recurrenceTypeProperty     = "recurrenceType"
	recurrenceIntervalProperty = "recurrenceInterval"
	syncWindowProperty         = "syncWindow"
)

const defaultEventDuration = time.Hour

// BuildEvent converts a task into its canonical calendar event payload.
// Plain tasks need a parseable start; recurring tasks delegate timing and
// rule generation to the recurrence builder; meetings additionally get a
// conference request and stronger reminders. Recurring takes precedence:
// a task flagged as both recurring and a meeting syncs as a recurring
// event with no conference data.
func BuildEvent(task *model.Task, window model.SyncWindow, now time.Time) (*calendar.Event, error) {
	if task == nil || task.ID == "" {
		return nil, syncerr.New(syncerr.KindInvalidPayload, "task has no id")
	}

	event := &calendar.Event{
		Summary:     task.Title,
		Description: buildDescription(task),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: task.ID,
			},
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	if task.Recurring {
		sched, err := recurrence.Build(task.Recurrence, window, now)
		if err != nil {
			return nil, err
		}
		event.Recurrence = []string{sched.Rule}
		setEventTimes(event, sched.Start, sched.End)

		event.ExtendedProperties.Private[recurrenceTypeProperty] = task.Recurrence.Type
		if task.Recurrence.Interval > 0 {
			event.ExtendedProperties.Private[recurrenceIntervalProperty] = strconv.Itoa(task.Recurrence.Interval)
		}
		if window == "" {
			window = model.WindowOneWeek
		}
		event.ExtendedProperties.Private[syncWindowProperty] = string(window)
		return event, nil
	}

	start := task.Start()
	if start.IsZero() {
		return nil, syncerr.New(syncerr.KindInvalidPayload, fmt.Sprintf("task %s has no parseable start or due date", task.ID))
	}
	end := task.End()
	if end.IsZero() {
		end = start.Add(defaultEventDuration)
	}
	if !end.After(start) {
		return nil, syncerr.New(syncerr.KindInvalidPayload, fmt.Sprintf("task %s ends before it starts", task.ID))
	}
	setEventTimes(event, start, end)

	if task.IsScheduledMeeting {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
		event.Reminders.Overrides = []*calendar.EventReminder{
			{Method: "popup", Minutes: 30},
			{Method: "email", Minutes: 60},
		}
	}

	return event, nil
}

func setEventTimes(event *calendar.Event, start, end time.Time) {
	event.Start = &calendar.EventDateTime{
		DateTime: start.Format(time.RFC3339),
		TimeZone: zoneName(start),
	}
	event.End = &calendar.EventDateTime{
		DateTime: end.Format(time.RFC3339),
		TimeZone: zoneName(end),
	}
}

// zoneName returns the IANA zone for the instant, or empty when the location
// has no portable name (the RFC 3339 offset still pins the instant).
func zoneName(t time.Time) string {
	name := t.Location().String()
	if name == "Local" {
		return ""
	}
	return name
}

// buildDescription renders the event body. The trailing "Task ID:" line is
// the text-searchable fallback dedup key for events created before the
// extended-property convention existed.
func buildDescription(task *model.Task) string {
	var b strings.Builder
	if task.Description != "" {
		b.WriteString(task.Description)
		b.WriteString("\n\n")
	}
	if task.Priority != "" {
		fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	}
	fmt.Fprintf(&b, "Task ID: %s", task.ID)
	return b.String()
}

// TextSearchKey is the free-text query matching the description fallback key.
func TextSearchKey(taskID string) string {
	return fmt.Sprintf("Task ID: %s", taskID)
}
