// ABOUTME: Tests for the weekly journal service
// ABOUTME: Week assembly merges entries, holidays and personal schedule
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wllin/sheetcrm/calendar"
	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/store"
)

func newWeeklyService(t *testing.T, rows [][]string, cal *fakeCalendar) (*WeeklyBusinessService, *store.WeeklyReader) {
	t.Helper()
	if rows == nil {
		rows = [][]string{{"recordId"}}
	}
	backend := newMemBackend(map[string][][]string{"weekly": rows})

	c := serviceTestCache()
	cfg := serviceTestConfig()
	reader := store.NewWeeklyReader(backend, c, cfg, nil)
	writer := store.NewWeeklyWriter(backend, c, cfg, nil, reader)
	if cal == nil {
		cal = &fakeCalendar{holidays: map[string]string{}}
	}
	return NewWeeklyBusinessService(reader, writer, cal, cfg, nil), reader
}

func TestWeeklySummaryListFallsBackToCurrentWeek(t *testing.T) {
	svc, _ := newWeeklyService(t, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC) }

	weeks, err := svc.SummaryList(context.Background())
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	assert.Equal(t, "2024-W10", weeks[0].ID)
	assert.Equal(t, 0, weeks[0].SummaryCount)
}

func TestWeeklySummaryListNewestFirst(t *testing.T) {
	svc, _ := newWeeklyService(t, [][]string{
		{"recordId"},
		{"W1", "2024-W09", "2024-02-26", "u", "", "a", "", ""},
		{"W2", "2024-W10", "2024-03-04", "u", "", "b", "", ""},
		{"W3", "2024-W10", "2024-03-05", "u", "", "c", "", ""},
	}, nil)

	weeks, err := svc.SummaryList(context.Background())
	require.NoError(t, err)
	require.Len(t, weeks, 2)
	assert.Equal(t, "2024-W10", weeks[0].ID)
	assert.Equal(t, 2, weeks[0].SummaryCount)
	assert.Equal(t, "2024-W09", weeks[1].ID)
}

func TestWeeklyDetailsMergesCalendars(t *testing.T) {
	cal := &fakeCalendar{
		holidays: map[string]string{"2024-03-08": "和平紀念日補假"},
		events: []calendar.Event{
			{Summary: "Factory tour", Start: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)},
			{Summary: "Trade show", Start: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), AllDay: true},
		},
	}
	svc, _ := newWeeklyService(t, [][]string{
		{"recordId"},
		{"W1", "2024-W10", "2024-03-04", "alice", "拜訪", "met the line manager", "", ""},
	}, cal)

	details, err := svc.Details(context.Background(), "2024-W10")
	require.NoError(t, err)

	require.Len(t, details.Entries, 1)
	assert.Equal(t, "met the line manager", details.Entries[0].Content)

	var tuesday, friday *WeekDay
	for i := range details.Days {
		switch details.Days[i].Date {
		case "2024-03-05":
			tuesday = &details.Days[i]
		case "2024-03-08":
			friday = &details.Days[i]
		}
	}
	require.NotNil(t, tuesday)
	require.NotNil(t, friday)

	assert.Equal(t, "和平紀念日補假", friday.HolidayName)
	require.Len(t, tuesday.CalendarEvents, 2)
	// All-day events sort before timed ones.
	assert.Equal(t, "Trade show", tuesday.CalendarEvents[0].Summary)
	assert.Equal(t, "全天", tuesday.CalendarEvents[0].Time)
	assert.Equal(t, "Factory tour", tuesday.CalendarEvents[1].Summary)
	assert.Equal(t, "14:30", tuesday.CalendarEvents[1].Time)
}

func TestWeekOptionsDisableExistingWeeks(t *testing.T) {
	svc, _ := newWeeklyService(t, [][]string{
		{"recordId"},
		{"W1", "2024-W10", "2024-03-04", "u", "", "x", "", ""},
	}, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC) }

	options, err := svc.WeekOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 3)

	assert.Equal(t, "2024-W09", options[0].ID)
	assert.False(t, options[0].Disabled)
	assert.Equal(t, "2024-W10", options[1].ID)
	assert.True(t, options[1].Disabled, "this week already has entries")
	assert.Equal(t, "2024-W11", options[2].ID)
	assert.False(t, options[2].Disabled)
}

func TestCreateEntryDerivesWeekID(t *testing.T) {
	svc, reader := newWeeklyService(t, nil, nil)

	created, err := svc.CreateEntry(context.Background(), models.WeeklyEntry{
		Date:    "2024-03-05",
		Owner:   "alice",
		Content: "called the client",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-W10", created.WeekID)

	entries, err := reader.EntriesForWeek(context.Background(), "2024-W10")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdateEntryMovesWeeks(t *testing.T) {
	svc, reader := newWeeklyService(t, nil, nil)
	ctx := context.Background()

	created, err := svc.CreateEntry(ctx, models.WeeklyEntry{Date: "2024-03-05", Content: "x"})
	require.NoError(t, err)

	newDate := "2024-03-12"
	updated, err := svc.UpdateEntry(ctx, created.RecordID, store.WeeklyEntryUpdate{Date: &newDate})
	require.NoError(t, err)
	assert.Equal(t, "2024-W11", updated.WeekID)

	old, err := reader.EntriesForWeek(ctx, "2024-W10")
	require.NoError(t, err)
	assert.Empty(t, old)
}

func TestCreateEntryRejectsBadDate(t *testing.T) {
	svc, _ := newWeeklyService(t, nil, nil)
	_, err := svc.CreateEntry(context.Background(), models.WeeklyEntry{Date: "tomorrow", Content: "x"})
	assert.Error(t, err)
}
