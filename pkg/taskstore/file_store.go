package taskstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
)

// FileStore is a JSON-file task repository used by the CLI and tests. The
// real application keeps tasks elsewhere; this implements the same Store
// contract over a local file.
type FileStore struct {
	Path string

	mu    sync.RWMutex
	tasks map[string]*model.Task
	dirty bool
}

// OpenFile loads the task file at path, starting empty if it does not exist.
func OpenFile(path string) (*FileStore, error) {
	fs := &FileStore{
		Path:  path,
		tasks: make(map[string]*model.Task),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, err
	}
	defer f.Close()

	var tasks []*model.Task
	if err := json.NewDecoder(f).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("failed to decode task file %s: %w", path, err)
	}
	for _, t := range tasks {
		fs.tasks[t.ID] = t
	}
	return fs, nil
}

// Save writes the tasks back to disk if anything changed.
func (fs *FileStore) Save() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !fs.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(fs.Path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(fs.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	tasks := make([]*model.Task, 0, len(fs.tasks))
	for _, t := range fs.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return err
	}
	fs.dirty = false
	return nil
}

// Add inserts a task, assigning an id when the caller left it empty.
func (fs *FileStore) Add(t *model.Task) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	fs.tasks[t.ID] = t
	fs.dirty = true
}

// Task returns the task with the given id.
func (fs *FileStore) Task(id string) (*model.Task, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	t, ok := fs.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := *t
	return &copied, nil
}

// List returns all tasks ordered by id.
func (fs *FileStore) List() ([]*model.Task, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	tasks := make([]*model.Task, 0, len(fs.tasks))
	for _, t := range fs.tasks {
		copied := *t
		tasks = append(tasks, &copied)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// UpdateSync records a successful upsert on the task.
func (fs *FileStore) UpdateSync(id string, res SyncResult) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	t, ok := fs.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t.CalendarEventID = res.CalendarEventID
	t.SyncedWithCalendar = true
	t.LastSyncDate = &model.FlexTime{Time: res.LastSyncDate}
	fs.dirty = true
	return nil
}
