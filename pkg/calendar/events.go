package calendar

import (
	"context"
	"time"

	"google.golang.org/api/calendar/v3"
)

// ListQuery narrows an events listing. Exactly one of TaskID or Text is set:
// TaskID filters on the private extended property, Text runs a free-text
// search over event bodies.
type ListQuery struct {
	TaskID  string
	Text    string
	TimeMin time.Time
	TimeMax time.Time
}

// EventsAPI is the narrow slice of the remote events resource the sync
// engine needs. The Google-backed implementation lives in this package;
// tests substitute fakes.
type EventsAPI interface {
	List(ctx context.Context, q ListQuery) ([]*calendar.Event, error)
	Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
	Update(ctx context.Context, eventID string, event *calendar.Event) (*calendar.Event, error)
}
