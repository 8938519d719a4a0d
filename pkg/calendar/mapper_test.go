package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/syncerr"
)

func ft(t time.Time) *model.FlexTime {
	return &model.FlexTime{Time: t}
}

func TestBuildEventPlainTask(t *testing.T) {
	start := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	task := &model.Task{
		ID:          "task-1",
		Title:       "Write report",
		Description: "Quarterly numbers",
		Priority:    "high",
		StartDate:   ft(start),
		EndDate:     ft(start.Add(2 * time.Hour)),
	}

	event, err := BuildEvent(task, model.WindowOneWeek, start)
	require.NoError(t, err)

	assert.Equal(t, "Write report", event.Summary)
	assert.Equal(t, start.Format(time.RFC3339), event.Start.DateTime)
	assert.Equal(t, start.Add(2*time.Hour).Format(time.RFC3339), event.End.DateTime)
	assert.Empty(t, event.Recurrence)
	assert.Nil(t, event.ConferenceData)

	require.NotNil(t, event.ExtendedProperties)
	assert.Equal(t, "task-1", event.ExtendedProperties.Private[TaskIDProperty])
	assert.Contains(t, event.Description, "Task ID: task-1")
	assert.Contains(t, event.Description, "Quarterly numbers")

	require.NotNil(t, event.Reminders)
	assert.False(t, event.Reminders.UseDefault)
	require.Len(t, event.Reminders.Overrides, 1)
	assert.Equal(t, "popup", event.Reminders.Overrides[0].Method)
	assert.Equal(t, int64(30), event.Reminders.Overrides[0].Minutes)
}

func TestBuildEventEndDefaultsToOneHour(t *testing.T) {
	start := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	task := &model.Task{ID: "task-2", Title: "Call", DueDate: ft(start)}

	event, err := BuildEvent(task, model.WindowOneWeek, start)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour).Format(time.RFC3339), event.End.DateTime)
}

func TestBuildEventMissingDates(t *testing.T) {
	_, err := BuildEvent(&model.Task{ID: "task-3", Title: "No dates"}, model.WindowOneWeek, time.Now())
	require.Error(t, err)
	assert.Equal(t, syncerr.KindInvalidPayload, syncerr.KindOf(err))
}

func TestBuildEventRecurringDaily(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	task := &model.Task{
		ID:        "abc123",
		Title:     "Standup",
		Recurring: true,
		Recurrence: &model.Recurrence{
			Type: model.RecurrenceDaily,
			Time: "09:00",
		},
	}

	event, err := BuildEvent(task, model.WindowOneWeek, now)
	require.NoError(t, err)

	assert.Equal(t, "abc123", event.ExtendedProperties.Private[TaskIDProperty])
	require.Len(t, event.Recurrence, 1)
	// First occurrence is 2024-01-01 09:00; UNTIL is exactly 7 days later.
	assert.Equal(t, "RRULE:FREQ=DAILY;UNTIL=20240108", event.Recurrence[0])

	assert.Equal(t, "daily", event.ExtendedProperties.Private["recurrenceType"])
	assert.Equal(t, "1week", event.ExtendedProperties.Private["syncWindow"])
}

func TestBuildEventRecurringCustomEmbedsInterval(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	task := &model.Task{
		ID:        "task-4",
		Title:     "Water plants",
		Recurring: true,
		Recurrence: &model.Recurrence{
			Type:     model.RecurrenceCustom,
			Interval: 2,
			Time:     "18:00",
		},
	}

	event, err := BuildEvent(task, model.WindowOneMonth, now)
	require.NoError(t, err)
	assert.Equal(t, "2", event.ExtendedProperties.Private["recurrenceInterval"])
	assert.Equal(t, "1month", event.ExtendedProperties.Private["syncWindow"])
	assert.Contains(t, event.Recurrence[0], "FREQ=DAILY;INTERVAL=2")
}

func TestBuildEventMeeting(t *testing.T) {
	start := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	task := &model.Task{
		ID:                 "meet-1",
		Title:              "Design review",
		StartDate:          ft(start),
		IsScheduledMeeting: true,
	}

	event, err := BuildEvent(task, model.WindowOneWeek, start)
	require.NoError(t, err)

	require.NotNil(t, event.ConferenceData)
	require.NotNil(t, event.ConferenceData.CreateRequest)
	assert.NotEmpty(t, event.ConferenceData.CreateRequest.RequestId)
	assert.Equal(t, "hangoutsMeet", event.ConferenceData.CreateRequest.ConferenceSolutionKey.Type)

	require.Len(t, event.Reminders.Overrides, 2)
	assert.Equal(t, "popup", event.Reminders.Overrides[0].Method)
	assert.Equal(t, int64(30), event.Reminders.Overrides[0].Minutes)
	assert.Equal(t, "email", event.Reminders.Overrides[1].Method)
	assert.Equal(t, int64(60), event.Reminders.Overrides[1].Minutes)
}

func TestBuildEventNoID(t *testing.T) {
	_, err := BuildEvent(&model.Task{Title: "orphan"}, model.WindowOneWeek, time.Now())
	require.Error(t, err)
	assert.Equal(t, syncerr.KindInvalidPayload, syncerr.KindOf(err))
}
