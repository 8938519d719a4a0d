// Package autosync runs the batch sync on a schedule while the stored
// auto-sync preference is enabled.
package autosync

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/calendar"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/statestore"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/taskstore"
)

// Runner periodically mirrors syncable tasks onto the calendar.
type Runner struct {
	coord     *calendar.Coordinator
	tasks     taskstore.Store
	state     *statestore.Store
	principal string
	log       *zap.Logger
	cron      *cron.Cron
	interval  time.Duration
}

// New builds a runner firing every interval.
func New(coord *calendar.Coordinator, tasks taskstore.Store, state *statestore.Store, principal string, interval time.Duration, log *zap.Logger) *Runner {
	switch {
	case interval <= 0:
		interval = 5 * time.Minute
	case interval < time.Second:
		// The cron schedule has second granularity.
		interval = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	r := &Runner{
		coord:     coord,
		tasks:     tasks,
		state:     state,
		principal: principal,
		log:       log,
		cron:      cron.New(),
		interval:  interval,
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		r.RunOnce(ctx)
	}); err != nil {
		log.Error("could not register auto-sync schedule",
			zap.String("schedule", schedule), zap.Error(err))
	}

	return r
}

// Start launches the scheduler.
func (r *Runner) Start() {
	r.cron.Start()
	r.log.Info("auto-sync started", zap.Duration("interval", r.interval))
}

// Stop halts the scheduler, waiting for a running pass to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("auto-sync stopped")
}

// RunOnce performs a single pass: skip entirely when the preference is off,
// otherwise sync every syncable task and log per-task outcomes.
func (r *Runner) RunOnce(ctx context.Context) {
	enabled, err := r.state.AutoSync(r.principal)
	if err != nil {
		r.log.Warn("could not read auto-sync preference", zap.Error(err))
		return
	}
	if !enabled {
		return
	}

	all, err := r.tasks.List()
	if err != nil {
		r.log.Warn("could not list tasks", zap.Error(err))
		return
	}

	var pending []*model.Task
	for _, t := range all {
		if Syncable(t) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return
	}

	outcomes := r.coord.SyncMany(ctx, pending)
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			r.log.Warn("auto-sync task failed",
				zap.String("task_id", o.TaskID),
				zap.String("kind", string(o.Kind())),
				zap.Error(o.Err))
		}
	}
	r.log.Info("auto-sync pass complete",
		zap.Int("synced", len(outcomes)-failed),
		zap.Int("failed", failed))
}

// Syncable reports whether the task carries enough scheduling information to
// be mirrored: a recurrence descriptor or at least one usable date.
func Syncable(t *model.Task) bool {
	if t == nil {
		return false
	}
	if t.Recurring {
		return t.Recurrence != nil
	}
	return !t.Start().IsZero()
}
