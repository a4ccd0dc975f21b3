// ABOUTME: Read-only Google Calendar client for holidays and personal schedules
// ABOUTME: Paginates event listings and normalizes all-day versus timed starts
package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
)

const maxResults = 250 // Google Calendar API max per page

// Event is one calendar entry with its start resolved to a concrete time.
// All-day events carry local midnight of their date.
type Event struct {
	Summary  string
	Start    time.Time
	AllDay   bool
	HTMLLink string
}

type Client struct {
	svc               *gcal.Service
	holidayCalendarID string
	loc               *time.Location
	log               *zap.Logger
}

func NewClient(svc *gcal.Service, holidayCalendarID string, loc *time.Location, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Client{svc: svc, holidayCalendarID: holidayCalendarID, loc: loc, log: log}
}

// Events lists the events of one calendar between start (inclusive) and end
// (exclusive), expanded to single instances and ordered by start time.
func (c *Client) Events(ctx context.Context, calendarID string, start, end time.Time) ([]Event, error) {
	var events []Event
	pageToken := ""
	for {
		call := c.svc.Events.List(calendarID).
			Context(ctx).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(maxResults)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events for %s: %w", calendarID, err)
		}

		for _, item := range resp.Items {
			ev, ok := c.toEvent(item)
			if !ok {
				continue
			}
			events = append(events, ev)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.log.Debug("calendar events fetched",
		zap.String("calendarId", calendarID),
		zap.Int("count", len(events)))
	return events, nil
}

// Holidays returns the holidays between start and end as a date-keyed map
// ("2006-01-02" in the client's timezone) to holiday name.
func (c *Client) Holidays(ctx context.Context, start, end time.Time) (map[string]string, error) {
	events, err := c.Events(ctx, c.holidayCalendarID, start, end)
	if err != nil {
		return nil, err
	}
	holidays := make(map[string]string, len(events))
	for _, ev := range events {
		holidays[ev.Start.In(c.loc).Format("2006-01-02")] = ev.Summary
	}
	return holidays, nil
}

func (c *Client) toEvent(item *gcal.Event) (Event, bool) {
	if item == nil || item.Start == nil {
		return Event{}, false
	}
	ev := Event{Summary: item.Summary, HTMLLink: item.HtmlLink}

	if item.Start.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", item.Start.Date, c.loc)
		if err != nil {
			return Event{}, false
		}
		ev.Start = t
		ev.AllDay = true
		return ev, true
	}

	t, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return Event{}, false
	}
	ev.Start = t
	return ev, true
}
