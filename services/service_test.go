// ABOUTME: Shared fixtures for the service tests
// ABOUTME: In-memory sheet backend and a canned calendar source
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/calendar"
	"github.com/wllin/sheetcrm/config"
)

type memBackend struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

func newMemBackend(sheets map[string][][]string) *memBackend {
	if sheets == nil {
		sheets = make(map[string][][]string)
	}
	return &memBackend{sheets: sheets}
}

func splitTestRange(rng string) (string, int) {
	name, ref, _ := strings.Cut(rng, "!")
	start, _, _ := strings.Cut(ref, ":")
	digits := strings.TrimLeft(start, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if digits == "" {
		return name, 0
	}
	row, _ := strconv.Atoi(digits)
	return name, row
}

func (m *memBackend) Read(ctx context.Context, rng string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, row := splitTestRange(rng)
	all := m.sheets[name]
	if row == 0 {
		out := make([][]string, len(all))
		for i, r := range all {
			out[i] = append([]string(nil), r...)
		}
		return out, nil
	}
	if row < 1 || row > len(all) {
		return nil, nil
	}
	return [][]string{append([]string(nil), all[row-1]...)}, nil
}

func (m *memBackend) Append(ctx context.Context, rng string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, _ := splitTestRange(rng)
	m.sheets[name] = append(m.sheets[name], rows...)
	return nil
}

func (m *memBackend) Update(ctx context.Context, rng string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, row := splitTestRange(rng)
	if row == 0 {
		return fmt.Errorf("update needs a row-addressed range, got %q", rng)
	}
	sheet := m.sheets[name]
	for len(sheet) < row {
		sheet = append(sheet, nil)
	}
	sheet[row-1] = append([]string(nil), rows[0]...)
	m.sheets[name] = sheet
	return nil
}

func (m *memBackend) DeleteRow(ctx context.Context, sheetName string, rowIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sheet := m.sheets[sheetName]
	if rowIndex < 1 || rowIndex > len(sheet) {
		return fmt.Errorf("no row %d in %s", rowIndex, sheetName)
	}
	m.sheets[sheetName] = append(sheet[:rowIndex-1], sheet[rowIndex:]...)
	return nil
}

type fakeCalendar struct {
	holidays map[string]string
	events   []calendar.Event
}

func (f *fakeCalendar) Holidays(ctx context.Context, start, end time.Time) (map[string]string, error) {
	return f.holidays, nil
}

func (f *fakeCalendar) Events(ctx context.Context, calendarID string, start, end time.Time) ([]calendar.Event, error) {
	return f.events, nil
}

func serviceTestConfig() *config.Config {
	return &config.Config{
		SpreadsheetID:      "test",
		CacheTTL:           5 * time.Minute,
		ContactsPerPage:    20,
		Timezone:           "UTC",
		PersonalCalendarID: "personal@test",
		Sheets: config.Sheets{
			Contacts:         "contacts",
			ContactList:      "contactList",
			Companies:        "companies",
			Opportunities:    "opportunities",
			Interactions:     "interactions",
			OppContactLinks:  "links",
			SystemConfig:     "settings",
			Users:            "users",
			Weekly:           "weekly",
			EventLogsGeneral: "events_general",
			EventLogsIoT:     "events_iot",
			EventLogsDT:      "events_dt",
			EventLogsDX:      "events_dx",
			EventLogsLegacy:  "events_legacy",
		},
	}
}

func serviceTestCache() *cache.Cache {
	return cache.New(5 * time.Minute)
}
