package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, model.WindowOneWeek, cfg.Sync.Window)
	assert.Equal(t, "primary", cfg.Google.Calendar)
	assert.Equal(t, "default", cfg.Google.Principal)
	assert.Equal(t, 5*time.Minute, cfg.Sync.AutoSyncInterval)
	assert.Contains(t, cfg.Google.AuthorizedDomains, "localhost")
	assert.NotEmpty(t, cfg.TaskFile)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYNC_WINDOW", "1month")
	t.Setenv("GOOGLE_CALENDAR", "Tasks")
	t.Setenv("AUTO_SYNC_INTERVAL", "90s")
	t.Setenv("GOOGLE_AUTHORIZED_DOMAINS", "app.example.com, localhost")

	cfg := Load()
	assert.Equal(t, model.WindowOneMonth, cfg.Sync.Window)
	assert.Equal(t, "Tasks", cfg.Google.Calendar)
	assert.Equal(t, 90*time.Second, cfg.Sync.AutoSyncInterval)
	assert.Equal(t, []string{"app.example.com", "localhost"}, cfg.Google.AuthorizedDomains)
}

func TestLoadInvalidWindowFallsBack(t *testing.T) {
	t.Setenv("SYNC_WINDOW", "fortnight")
	cfg := Load()
	assert.Equal(t, model.WindowOneWeek, cfg.Sync.Window)
}
