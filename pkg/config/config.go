package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/model"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/statestore"
)

// Config aggregates the runtime settings of the sync engine.
type Config struct {
	Google   GoogleConfig
	Sync     SyncConfig
	Logger   LoggerConfig
	TaskFile string
}

type GoogleConfig struct {
	ClientID          string
	ClientSecret      string
	APIKey            string
	RedirectURL       string
	AuthorizedDomains []string
	Calendar          string
	Principal         string
}

type SyncConfig struct {
	Window           model.SyncWindow
	AutoSyncInterval time.Duration
	StatePath        string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the CLI can run with minimal setup.
func Load() *Config {
	_ = godotenv.Load(".env")

	window := model.SyncWindow(getString("SYNC_WINDOW", string(model.WindowOneWeek)))
	if !window.Valid() {
		window = model.WindowOneWeek
	}

	return &Config{
		Google: GoogleConfig{
			ClientID:          os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret:      os.Getenv("GOOGLE_CLIENT_SECRET"),
			APIKey:            os.Getenv("GOOGLE_API_KEY"),
			RedirectURL:       getString("GOOGLE_REDIRECT_URL", "http://localhost:6789/oauth2callback"),
			AuthorizedDomains: getList("GOOGLE_AUTHORIZED_DOMAINS", []string{"localhost", "127.0.0.1"}),
			Calendar:          getString("GOOGLE_CALENDAR", "primary"),
			Principal:         getString("SYNC_PRINCIPAL", "default"),
		},
		Sync: SyncConfig{
			Window:           window,
			AutoSyncInterval: getDuration("AUTO_SYNC_INTERVAL", 5*time.Minute),
			StatePath:        getString("SYNC_STATE_PATH", statestore.DefaultPath()),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
		TaskFile: getString("TASK_FILE", defaultTaskFile()),
	}
}

func defaultTaskFile() string {
	return filepath.Join(xdg.DataHome, "quicknotes", "tasks.json")
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
