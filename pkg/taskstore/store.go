package taskstore

import (
	"errors"
	"time"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
)

// ErrNotFound is returned when a task id has no record in the store.
var ErrNotFound = errors.New("task not found")

// SyncResult is the trio of fields the coordinator writes back after a
// successful upsert. Nothing else on the task is touched by the sync engine.
type SyncResult struct {
	CalendarEventID string
	LastSyncDate    time.Time
}

// Store is the task-store collaborator. The surrounding application owns
// task CRUD; the sync engine only reads tasks and records sync outcomes.
type Store interface {
	Task(id string) (*model.Task, error)
	List() ([]*model.Task, error)
	UpdateSync(id string, res SyncResult) error
}
