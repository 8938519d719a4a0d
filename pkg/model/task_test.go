package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexTimeParsesRFC3339(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","dueDate":"2024-06-01T09:00:00Z"}`), &task))
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)))
}

func TestFlexTimeParsesLocalDatetime(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","startDate":"2024-06-01T09:30"}`), &task))
	require.NotNil(t, task.StartDate)
	want := time.Date(2024, 6, 1, 9, 30, 0, 0, time.Local)
	assert.True(t, task.StartDate.Equal(want))
}

func TestFlexTimeEmptyString(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","dueDate":""}`), &task))
	assert.True(t, task.DueDate.IsZero())
}

func TestFlexTimeRejectsGarbage(t *testing.T) {
	var task Task
	assert.Error(t, json.Unmarshal([]byte(`{"id":"t1","dueDate":"next tuesday"}`), &task))
}

func TestTaskStartFallsBackToDueDate(t *testing.T) {
	due := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", DueDate: &FlexTime{Time: due}}
	assert.True(t, task.Start().Equal(due))

	start := due.Add(-time.Hour)
	task.StartDate = &FlexTime{Time: start}
	assert.True(t, task.Start().Equal(start))
}

func TestSyncWindowValid(t *testing.T) {
	assert.True(t, WindowOneWeek.Valid())
	assert.True(t, WindowOneMonth.Valid())
	assert.False(t, SyncWindow("fortnight").Valid())
}
