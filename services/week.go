// ABOUTME: ISO-week identifiers and week layout used by the weekly journal
// ABOUTME: Week ids look like 2024-W10; weeks run Monday through Sunday
package services

import (
	"fmt"
	"time"
)

var weekdayLabels = []string{"週一", "週二", "週三", "週四", "週五", "週六", "週日"}

// WeekID returns the ISO-week identifier of t, e.g. "2024-W10".
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekDay is one day of a week layout, enriched with holiday and calendar
// data by the weekly service.
type WeekDay struct {
	Date           string     `json:"date"`
	Label          string     `json:"label"`
	HolidayName    string     `json:"holidayName,omitempty"`
	CalendarEvents []DayEvent `json:"calendarEvents"`
}

// DayEvent is a calendar event rendered into a day cell.
type DayEvent struct {
	Summary  string `json:"summary"`
	IsAllDay bool   `json:"isAllDay"`
	Time     string `json:"time"`
	HTMLLink string `json:"htmlLink,omitempty"`
}

// WeekInfo is the static layout of one ISO week.
type WeekInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DateRange string    `json:"dateRange"`
	Days      []WeekDay `json:"days"`
}

// weekStart returns the Monday of the given ISO week in loc.
func weekStart(year, week int, loc *time.Location) time.Time {
	// January 4th is always inside ISO week 1.
	t := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, -1)
	}
	return t.AddDate(0, 0, (week-1)*7)
}

// ParseWeekID splits "2024-W10" into year and week number.
func ParseWeekID(weekID string) (int, int, error) {
	var year, week int
	if _, err := fmt.Sscanf(weekID, "%d-W%d", &year, &week); err != nil {
		return 0, 0, fmt.Errorf("invalid week id %q: %w", weekID, err)
	}
	if week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("invalid week id %q: week out of range", weekID)
	}
	return year, week, nil
}

// GetWeekInfo builds the Monday-through-Sunday layout of a week.
func GetWeekInfo(weekID string, loc *time.Location) (WeekInfo, error) {
	year, week, err := ParseWeekID(weekID)
	if err != nil {
		return WeekInfo{}, err
	}
	if loc == nil {
		loc = time.UTC
	}

	start := weekStart(year, week, loc)
	days := make([]WeekDay, 7)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i] = WeekDay{
			Date:           d.Format("2006-01-02"),
			Label:          weekdayLabels[i],
			CalendarEvents: []DayEvent{},
		}
	}
	end := start.AddDate(0, 0, 6)

	return WeekInfo{
		ID:        weekID,
		Title:     fmt.Sprintf("%d 第%02d週", year, week),
		DateRange: fmt.Sprintf("%s ~ %s", start.Format("01/02"), end.Format("01/02")),
		Days:      days,
	}, nil
}
