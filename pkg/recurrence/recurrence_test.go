package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/syncerr"
)

func TestBuildWeeklyOneWeekWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rec := &model.Recurrence{Type: model.RecurrenceWeekly, Time: "09:00"}

	sched, err := Build(rec, model.WindowOneWeek, now)
	require.NoError(t, err)

	wantStart := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, wantStart, sched.Start)
	assert.Equal(t, wantStart.Add(time.Hour), sched.End)

	// UNTIL is exactly seven days after the first occurrence.
	assert.Equal(t, "RRULE:FREQ=WEEKLY;UNTIL=20240108", sched.Rule)
}

func TestBuildRollsToNextDayWhenTimeElapsed(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	rec := &model.Recurrence{Type: model.RecurrenceDaily, Time: "09:00"}

	sched, err := Build(rec, model.WindowOneWeek, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), sched.Start)
	assert.Equal(t, "RRULE:FREQ=DAILY;UNTIL=20240109", sched.Rule)
}

func TestBuildMonthlyWindow(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	rec := &model.Recurrence{Type: model.RecurrenceMonthly, Time: "14:45"}

	sched, err := Build(rec, model.WindowOneMonth, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 15, 14, 45, 0, 0, time.UTC), sched.Start)
	assert.Equal(t, "RRULE:FREQ=MONTHLY;UNTIL=20240215", sched.Rule)
}

func TestBuildCustomUsesDailyFrequencyWithInterval(t *testing.T) {
	now := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	rec := &model.Recurrence{Type: model.RecurrenceCustom, Interval: 3, Time: "07:30"}

	sched, err := Build(rec, model.WindowOneWeek, now)
	require.NoError(t, err)
	assert.Equal(t, "RRULE:FREQ=DAILY;INTERVAL=3;UNTIL=20240317", sched.Rule)
}

func TestBuildInvalidTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	cases := []string{"", "9am", "25:00", "09:75", "09"}
	for _, bad := range cases {
		_, err := Build(&model.Recurrence{Type: model.RecurrenceDaily, Time: bad}, model.WindowOneWeek, now)
		require.Error(t, err, "time %q", bad)
		assert.Equal(t, syncerr.KindInvalidPayload, syncerr.KindOf(err), "time %q", bad)
	}
}

func TestBuildUnknownType(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	_, err := Build(&model.Recurrence{Type: "yearly", Time: "09:00"}, model.WindowOneWeek, now)
	require.Error(t, err)
	assert.Equal(t, syncerr.KindInvalidPayload, syncerr.KindOf(err))
}

func TestBuildNilRecurrence(t *testing.T) {
	_, err := Build(nil, model.WindowOneWeek, time.Now())
	require.Error(t, err)
	assert.Equal(t, syncerr.KindInvalidPayload, syncerr.KindOf(err))
}
