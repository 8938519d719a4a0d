package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/auth"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/autosync"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/calendar"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/config"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/logger"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/statestore"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/syncerr"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/taskstore"
)

func main() {
	doAuth := flag.Bool("auth", false, "Connect a Google account (runs the consent flow)")
	disconnect := flag.Bool("disconnect", false, "Revoke calendar access and clear stored credentials")
	syncID := flag.String("sync", "", "Sync a single task by id")
	syncAll := flag.Bool("sync-all", false, "Sync every syncable task")
	daemon := flag.Bool("daemon", false, "Run the auto-sync scheduler in the foreground")
	autoSyncPref := flag.String("auto-sync", "", "Persist the auto-sync preference: on|off")
	window := flag.String("window", "", "Sync window for recurring tasks: 1week|1month (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *window != "" {
		w := model.SyncWindow(*window)
		if !w.Valid() {
			fmt.Fprintf(os.Stderr, "invalid sync window %q (want 1week or 1month)\n", *window)
			os.Exit(2)
		}
		cfg.Sync.Window = w
	}

	log, err := logger.New(logger.Config(cfg.Logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	state, err := statestore.Open(cfg.Sync.StatePath)
	if err != nil {
		log.Fatal("could not open state store", zap.Error(err))
	}
	defer state.Close()

	if *autoSyncPref != "" {
		enabled := *autoSyncPref == "on" || *autoSyncPref == "true"
		if err := state.SetAutoSync(cfg.Google.Principal, enabled); err != nil {
			log.Fatal("could not save auto-sync preference", zap.Error(err))
		}
		fmt.Printf("Auto-sync preference set to %v\n", enabled)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := auth.NewManager(auth.Config{
		ClientID:          cfg.Google.ClientID,
		ClientSecret:      cfg.Google.ClientSecret,
		APIKey:            cfg.Google.APIKey,
		RedirectURL:       cfg.Google.RedirectURL,
		AuthorizedDomains: cfg.Google.AuthorizedDomains,
		Principal:         cfg.Google.Principal,
	}, state, &auth.BrowserFlow{}, log)

	if err := manager.Init(ctx); err != nil {
		fail(log, err)
	}

	if *disconnect {
		if err := manager.Revoke(ctx); err != nil {
			fail(log, err)
		}
		fmt.Println("Google Calendar disconnected.")
		return
	}

	if *doAuth {
		if _, err := manager.Token(ctx); err != nil {
			fail(log, err)
		}
		fmt.Println("Google Calendar connected.")
		return
	}

	if !*syncAll && *syncID == "" && !*daemon {
		flag.Usage()
		os.Exit(2)
	}

	tasks, err := taskstore.OpenFile(cfg.TaskFile)
	if err != nil {
		log.Fatal("could not open task file", zap.Error(err))
	}

	events, err := calendar.NewGoogleEvents(ctx, manager.Client(ctx), cfg.Google.Calendar)
	if err != nil {
		fail(log, err)
	}
	coord := calendar.NewCoordinator(events, manager, tasks, cfg.Sync.Window, log)

	switch {
	case *syncID != "":
		task, err := tasks.Task(*syncID)
		if err != nil {
			log.Fatal("task not found", zap.String("task_id", *syncID), zap.Error(err))
		}
		eventID, err := coord.Sync(ctx, task)
		if err != nil {
			fail(log, err)
		}
		if err := tasks.Save(); err != nil {
			log.Fatal("could not save task file", zap.Error(err))
		}
		fmt.Printf("Synced task %s to event %s\n", *syncID, eventID)

	case *syncAll:
		all, err := tasks.List()
		if err != nil {
			log.Fatal("could not list tasks", zap.Error(err))
		}
		var pending []*model.Task
		for _, t := range all {
			if autosync.Syncable(t) {
				pending = append(pending, t)
			}
		}
		outcomes := coord.SyncMany(ctx, pending)
		if err := tasks.Save(); err != nil {
			log.Fatal("could not save task file", zap.Error(err))
		}
		failed := 0
		for _, o := range outcomes {
			if o.Err != nil {
				failed++
				fmt.Printf("✗ %s: %s (%s)\n", o.TaskID, syncerr.Remediation(o.Kind()), o.Err)
			} else {
				fmt.Printf("✓ %s → %s\n", o.TaskID, o.EventID)
			}
		}
		fmt.Printf("Synced %d/%d tasks\n", len(outcomes)-failed, len(outcomes))
		if failed > 0 {
			os.Exit(1)
		}

	case *daemon:
		runner := autosync.New(coord, tasks, state, cfg.Google.Principal, cfg.Sync.AutoSyncInterval, log)
		runner.Start()
		<-ctx.Done()
		runner.Stop()
		if err := tasks.Save(); err != nil {
			log.Error("could not save task file", zap.Error(err))
		}
	}
}

func fail(log *zap.Logger, err error) {
	kind := syncerr.KindOf(err)
	fmt.Fprintf(os.Stderr, "%s\n", syncerr.Remediation(kind))
	log.Fatal("command failed", zap.String("kind", string(kind)), zap.Error(err))
}
