package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/syncerr"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/taskstore"
)

// CredentialSource supplies a live OAuth credential before any remote call.
// Invalidate discards the cached credential so the next Token call refreshes.
type CredentialSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Invalidate()
}

// Lookup windows for the dedup search. Recurring tasks scan a wide fixed
// span; plain tasks scan a narrow span anchored on their own dates.
const (
	recurringLookbackMonths = 3
	recurringLookaheadYears = 1
	plainLookupPadding      = 24 * time.Hour
)

// Outcome reports the result of syncing one task in a batch.
type Outcome struct {
	TaskID  string
	EventID string
	Err     error
}

// Kind returns the failure classification, or "" on success.
func (o Outcome) Kind() syncerr.Kind {
	if o.Err == nil {
		return ""
	}
	return syncerr.KindOf(o.Err)
}

// Coordinator drives the idempotent upsert protocol: credential, payload,
// dedup lookup, create-or-update, and write-back of the sync result.
type Coordinator struct {
	events  EventsAPI
	tokens  CredentialSource
	store   taskstore.Store
	window  model.SyncWindow
	log     *zap.Logger
	nowFunc func() time.Time
}

// NewCoordinator wires the upsert protocol over its collaborators.
func NewCoordinator(events EventsAPI, tokens CredentialSource, store taskstore.Store, window model.SyncWindow, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if !window.Valid() {
		window = model.WindowOneWeek
	}
	return &Coordinator{
		events:  events,
		tokens:  tokens,
		store:   store,
		window:  window,
		log:     log,
		nowFunc: time.Now,
	}
}

// Sync upserts the task onto the calendar and records the result on the
// task. For a fixed task id, repeated calls converge to a single live event.
// The task record is never mutated on failure.
func (c *Coordinator) Sync(ctx context.Context, task *model.Task) (string, error) {
	if _, err := c.tokens.Token(ctx); err != nil {
		return "", syncerr.Classify(err)
	}

	payload, err := BuildEvent(task, c.window, c.nowFunc())
	if err != nil {
		return "", syncerr.Classify(err)
	}

	existing, err := c.findExisting(ctx, task)
	if err != nil {
		return "", err
	}

	targetID := ""
	if existing != nil {
		targetID = existing.Id
	} else if task.CalendarEventID != "" {
		// The remote search index may lag behind a recent insert; trust the
		// id recorded on the task before creating a duplicate.
		targetID = task.CalendarEventID
	}

	var synced *calendar.Event
	if targetID != "" {
		synced, err = c.update(ctx, targetID, payload)
	} else {
		synced, err = c.insert(ctx, payload)
	}
	if err != nil {
		c.log.Warn("calendar sync failed",
			zap.String("task_id", task.ID),
			zap.String("kind", string(syncerr.KindOf(err))),
			zap.Error(err))
		return "", err
	}

	res := taskstore.SyncResult{
		CalendarEventID: synced.Id,
		LastSyncDate:    c.nowFunc(),
	}
	if err := c.store.UpdateSync(task.ID, res); err != nil {
		return "", syncerr.Wrap(syncerr.KindTransient, "failed to record sync result", err)
	}

	c.log.Info("task synced",
		zap.String("task_id", task.ID),
		zap.String("event_id", synced.Id))
	return synced.Id, nil
}

// SyncMany processes tasks strictly sequentially to respect third-party
// rate limits. One task's failure never aborts the rest of the batch.
func (c *Coordinator) SyncMany(ctx context.Context, tasks []*model.Task) []Outcome {
	outcomes := make([]Outcome, 0, len(tasks))
	for _, task := range tasks {
		eventID, err := c.Sync(ctx, task)
		outcomes = append(outcomes, Outcome{TaskID: task.ID, EventID: eventID, Err: err})
	}
	return outcomes
}

// findExisting runs the dedup lookup: first the exact extended-property
// filter, then the free-text fallback for events predating that convention.
func (c *Coordinator) findExisting(ctx context.Context, task *model.Task) (*calendar.Event, error) {
	timeMin, timeMax := c.lookupWindow(task)

	var items []*calendar.Event
	err := c.remote(ctx, func() error {
		var listErr error
		items, listErr = c.events.List(ctx, ListQuery{
			TaskID:  task.ID,
			TimeMin: timeMin,
			TimeMax: timeMax,
		})
		return listErr
	})
	if err != nil {
		return nil, err
	}
	if ev := firstLive(items); ev != nil {
		return ev, nil
	}

	err = c.remote(ctx, func() error {
		var listErr error
		items, listErr = c.events.List(ctx, ListQuery{
			Text:    TextSearchKey(task.ID),
			TimeMin: timeMin,
			TimeMax: timeMax,
		})
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return firstLive(items), nil
}

func (c *Coordinator) lookupWindow(task *model.Task) (time.Time, time.Time) {
	now := c.nowFunc()
	if task.Recurring {
		return now.AddDate(0, -recurringLookbackMonths, 0), now.AddDate(recurringLookaheadYears, 0, 0)
	}
	start := task.Start()
	if start.IsZero() {
		return now.AddDate(0, -recurringLookbackMonths, 0), now.AddDate(recurringLookaheadYears, 0, 0)
	}
	end := task.End()
	if end.IsZero() {
		end = start.Add(defaultEventDuration)
	}
	return start.Add(-plainLookupPadding), end.Add(plainLookupPadding)
}

func firstLive(items []*calendar.Event) *calendar.Event {
	for _, ev := range items {
		if ev != nil && ev.Status != "cancelled" {
			return ev
		}
	}
	return nil
}

func (c *Coordinator) insert(ctx context.Context, payload *calendar.Event) (*calendar.Event, error) {
	var created *calendar.Event
	err := c.remote(ctx, func() error {
		var insErr error
		created, insErr = c.events.Insert(ctx, payload)
		return insErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Coordinator) update(ctx context.Context, eventID string, payload *calendar.Event) (*calendar.Event, error) {
	var updated *calendar.Event
	err := c.remote(ctx, func() error {
		var updErr error
		updated, updErr = c.events.Update(ctx, eventID, payload)
		return updErr
	})
	if err == nil {
		return updated, nil
	}
	// A vanished target means the recorded event id is stale; fall back to
	// creating a fresh event.
	if syncerr.KindOf(err) == syncerr.KindTargetNotFound {
		c.log.Info("linked event gone, recreating", zap.String("event_id", eventID))
		return c.insert(ctx, payload)
	}
	return nil, err
}

// remote runs one remote operation under the shared retry policy. Expired
// credentials get a single silent re-authentication before one more try.
func (c *Coordinator) remote(ctx context.Context, fn func() error) error {
	err := syncerr.Retry(ctx, syncerr.DefaultAttempts, syncerr.DefaultBackoff, fn)
	if err == nil {
		return nil
	}
	if syncerr.KindOf(err) != syncerr.KindAuthExpired {
		return err
	}
	c.tokens.Invalidate()
	if _, tokenErr := c.tokens.Token(ctx); tokenErr != nil {
		return syncerr.Classify(tokenErr)
	}
	return syncerr.Retry(ctx, 1, syncerr.DefaultBackoff, fn)
}
