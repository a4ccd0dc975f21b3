// ABOUTME: Weekly journal orchestration over the store and calendar layers
// ABOUTME: Merges journal entries with holidays and personal schedule per week
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wllin/sheetcrm/calendar"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/store"
)

// CalendarSource is the slice of the calendar client the weekly service
// needs.
type CalendarSource interface {
	Holidays(ctx context.Context, start, end time.Time) (map[string]string, error)
	Events(ctx context.Context, calendarID string, start, end time.Time) ([]calendar.Event, error)
}

// WeekSummary is one row of the week overview list.
type WeekSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	DateRange    string `json:"dateRange"`
	SummaryCount int    `json:"summaryCount"`
}

// WeekDetails is a full week: layout, holidays, calendar events and journal
// entries.
type WeekDetails struct {
	WeekInfo
	Entries []models.WeeklyEntry `json:"entries"`
}

// WeekOption is one choice in the new-week picker; weeks that already have
// entries are disabled.
type WeekOption struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

type WeeklyBusinessService struct {
	reader *store.WeeklyReader
	writer *store.WeeklyWriter
	cal    CalendarSource
	cfg    *config.Config
	loc    *time.Location
	log    *zap.Logger
	now    func() time.Time
}

func NewWeeklyBusinessService(reader *store.WeeklyReader, writer *store.WeeklyWriter, cal CalendarSource, cfg *config.Config, log *zap.Logger) *WeeklyBusinessService {
	if log == nil {
		log = zap.NewNop()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn("invalid timezone, falling back to UTC", zap.String("timezone", cfg.Timezone))
		loc = time.UTC
	}
	return &WeeklyBusinessService{
		reader: reader,
		writer: writer,
		cal:    cal,
		cfg:    cfg,
		loc:    loc,
		log:    log,
		now:    time.Now,
	}
}

// SummaryList returns the week overview, newest week first. An empty
// journal yields the current week with a zero count so the page always has
// something to show.
func (s *WeeklyBusinessService) SummaryList(ctx context.Context) ([]WeekSummary, error) {
	summaries, err := s.reader.Summary(ctx)
	if err != nil {
		return nil, err
	}

	weeks := make([]WeekSummary, 0, len(summaries))
	for _, sum := range summaries {
		info, err := GetWeekInfo(sum.WeekID, s.loc)
		if err != nil {
			s.log.Warn("skipping malformed week id", zap.String("weekId", sum.WeekID))
			continue
		}
		weeks = append(weeks, WeekSummary{
			ID:           sum.WeekID,
			Title:        info.Title,
			DateRange:    info.DateRange,
			SummaryCount: sum.SummaryCount,
		})
	}

	if len(weeks) == 0 {
		currentID := WeekID(s.now().In(s.loc))
		info, err := GetWeekInfo(currentID, s.loc)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, WeekSummary{ID: currentID, Title: info.Title, DateRange: info.DateRange})
	}

	sort.Slice(weeks, func(i, j int) bool { return weeks[i].ID > weeks[j].ID })
	return weeks, nil
}

// Details assembles one week: the journal entries plus holidays and the
// personal calendar, fetched concurrently. The personal calendar is skipped
// when none is configured.
func (s *WeeklyBusinessService) Details(ctx context.Context, weekID string) (*WeekDetails, error) {
	info, err := GetWeekInfo(weekID, s.loc)
	if err != nil {
		return nil, err
	}

	start, err := time.ParseInLocation("2006-01-02", info.Days[0].Date, s.loc)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, 7)

	var (
		entries  []models.WeeklyEntry
		holidays map[string]string
		personal []calendar.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { entries, err = s.reader.EntriesForWeek(gctx, weekID); return })
	g.Go(func() (err error) { holidays, err = s.cal.Holidays(gctx, start, end); return })
	if s.cfg.PersonalCalendarID != "" {
		g.Go(func() (err error) {
			personal, err = s.cal.Events(gctx, s.cfg.PersonalCalendarID, start, end)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble week %s: %w", weekID, err)
	}

	eventsByDay := make(map[string][]DayEvent)
	for _, ev := range personal {
		dateKey := ev.Start.In(s.loc).Format("2006-01-02")
		timeStr := "全天"
		if !ev.AllDay {
			timeStr = ev.Start.In(s.loc).Format("15:04")
		}
		eventsByDay[dateKey] = append(eventsByDay[dateKey], DayEvent{
			Summary:  ev.Summary,
			IsAllDay: ev.AllDay,
			Time:     timeStr,
			HTMLLink: ev.HTMLLink,
		})
	}
	for key := range eventsByDay {
		evs := eventsByDay[key]
		sort.SliceStable(evs, func(i, j int) bool {
			if evs[i].IsAllDay != evs[j].IsAllDay {
				return evs[i].IsAllDay
			}
			return evs[i].Time < evs[j].Time
		})
	}

	for i := range info.Days {
		day := &info.Days[i]
		if name, ok := holidays[day.Date]; ok {
			day.HolidayName = name
		}
		if evs, ok := eventsByDay[day.Date]; ok {
			day.CalendarEvents = evs
		}
	}

	return &WeekDetails{WeekInfo: info, Entries: entries}, nil
}

// WeekOptions offers last week, this week and next week, disabling the
// ones that already hold entries.
func (s *WeeklyBusinessService) WeekOptions(ctx context.Context) ([]WeekOption, error) {
	summaries, err := s.reader.Summary(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(summaries))
	for _, sum := range summaries {
		existing[sum.WeekID] = true
	}

	today := s.now().In(s.loc)
	options := []WeekOption{
		{ID: WeekID(today.AddDate(0, 0, -7)), Label: "上一週"},
		{ID: WeekID(today), Label: "本週"},
		{ID: WeekID(today.AddDate(0, 0, 7)), Label: "下一週"},
	}
	for i := range options {
		options[i].Disabled = existing[options[i].ID]
	}
	return options, nil
}

// CreateEntry derives the week id from the entry date and stores the entry.
func (s *WeeklyBusinessService) CreateEntry(ctx context.Context, entry models.WeeklyEntry) (*models.WeeklyEntry, error) {
	weekID, err := weekIDForDate(entry.Date, s.loc)
	if err != nil {
		return nil, err
	}
	entry.WeekID = weekID
	return s.writer.Create(ctx, entry)
}

// UpdateEntry re-derives the week id when the date moves, so an entry
// dragged to another week files under it.
func (s *WeeklyBusinessService) UpdateEntry(ctx context.Context, recordID string, upd store.WeeklyEntryUpdate) (*models.WeeklyEntry, error) {
	if upd.Date != nil {
		weekID, err := weekIDForDate(*upd.Date, s.loc)
		if err != nil {
			return nil, err
		}
		upd.WeekID = &weekID
	}
	return s.writer.Update(ctx, recordID, upd)
}

// DeleteEntry removes a journal entry.
func (s *WeeklyBusinessService) DeleteEntry(ctx context.Context, recordID string) error {
	return s.writer.Delete(ctx, recordID)
}

func weekIDForDate(date string, loc *time.Location) (string, error) {
	t, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return "", fmt.Errorf("invalid entry date %q: %w", date, err)
	}
	return WeekID(t), nil
}
