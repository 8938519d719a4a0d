package taskstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	fs, err := OpenFile(path)
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	fs.Add(&model.Task{
		ID:        "t1",
		Title:     "Write report",
		StartDate: &model.FlexTime{Time: start},
	})
	require.NoError(t, fs.Save())

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	task, err := reopened.Task("t1")
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)
	assert.True(t, task.StartDate.Equal(start))
}

func TestFileStoreAssignsID(t *testing.T) {
	fs, err := OpenFile(filepath.Join(t.TempDir(), "tasks.json"))
	require.NoError(t, err)

	task := &model.Task{Title: "no id yet"}
	fs.Add(task)
	assert.NotEmpty(t, task.ID)
}

func TestFileStoreTaskNotFound(t *testing.T) {
	fs, err := OpenFile(filepath.Join(t.TempDir(), "tasks.json"))
	require.NoError(t, err)

	_, err = fs.Task("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fs.UpdateSync("missing", SyncResult{}), ErrNotFound)
}

func TestUpdateSyncWritesThreeFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	fs, err := OpenFile(path)
	require.NoError(t, err)

	fs.Add(&model.Task{ID: "t1", Title: "Report"})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, fs.UpdateSync("t1", SyncResult{
		CalendarEventID: "evt-9",
		LastSyncDate:    now,
	}))
	require.NoError(t, fs.Save())

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	task, err := reopened.Task("t1")
	require.NoError(t, err)
	assert.Equal(t, "evt-9", task.CalendarEventID)
	assert.True(t, task.SyncedWithCalendar)
	require.NotNil(t, task.LastSyncDate)
	assert.True(t, task.LastSyncDate.Equal(now))
}

func TestListOrderedByID(t *testing.T) {
	fs, err := OpenFile(filepath.Join(t.TempDir(), "tasks.json"))
	require.NoError(t, err)
	fs.Add(&model.Task{ID: "b", Title: "second"})
	fs.Add(&model.Task{ID: "a", Title: "first"})

	tasks, err := fs.List()
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "b", tasks[1].ID)
}
