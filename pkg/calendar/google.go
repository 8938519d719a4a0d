package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleEvents implements EventsAPI against the Google Calendar v3 events
// resource for a single calendar.
type GoogleEvents struct {
	srv        *calendar.Service
	calendarID string
}

// NewGoogleEvents builds the events client over an authenticated HTTP
// client, resolving the calendar by name when it is not the primary one.
func NewGoogleEvents(ctx context.Context, client *http.Client, calendarName string) (*GoogleEvents, error) {
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}

	calendarID := "primary"
	if calendarName != "" && calendarName != "primary" {
		calendarList, err := srv.CalendarList.List().Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
		}
		calendarID = ""
		for _, item := range calendarList.Items {
			if item.Summary == calendarName {
				calendarID = item.Id
				break
			}
		}
		if calendarID == "" {
			return nil, fmt.Errorf("calendar %q not found", calendarName)
		}
	}

	return &GoogleEvents{srv: srv, calendarID: calendarID}, nil
}

// List fetches events matching the query, expanded to single instances and
// ordered by start time.
func (g *GoogleEvents) List(ctx context.Context, q ListQuery) ([]*calendar.Event, error) {
	call := g.srv.Events.List(g.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	if q.TaskID != "" {
		call = call.PrivateExtendedProperty(fmt.Sprintf("%s=%s", TaskIDProperty, q.TaskID))
	} else if q.Text != "" {
		call = call.Q(q.Text)
	}
	if !q.TimeMin.IsZero() {
		call = call.TimeMin(q.TimeMin.Format(time.RFC3339))
	}
	if !q.TimeMax.IsZero() {
		call = call.TimeMax(q.TimeMax.Format(time.RFC3339))
	}

	events, err := call.Do()
	if err != nil {
		return nil, err
	}
	return events.Items, nil
}

// Insert creates the event. ConferenceDataVersion(1) is required for the
// conference creation request on meeting events to take effect.
func (g *GoogleEvents) Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	return g.srv.Events.Insert(g.calendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
}

// Update replaces the event with the given id.
func (g *GoogleEvents) Update(ctx context.Context, eventID string, event *calendar.Event) (*calendar.Event, error) {
	return g.srv.Events.Update(g.calendarID, eventID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
}
