// ABOUTME: In-memory sheet backend used by the store tests
// ABOUTME: Tracks per-sheet read counts so tests can assert cache behavior
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/config"
)

type fakeBackend struct {
	mu     sync.Mutex
	sheets map[string][][]string
	reads  map[string]int
	err    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sheets: make(map[string][][]string),
		reads:  make(map[string]int),
	}
}

func (f *fakeBackend) setSheet(name string, rows [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets[name] = rows
}

func (f *fakeBackend) readCount(sheetName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[sheetName]
}

// splitRange breaks "Sheet!A5:M5" into the sheet name and an optional
// 1-based row number (0 for whole-column ranges like "Sheet!A:M").
func splitRange(rng string) (string, int, error) {
	name, ref, ok := strings.Cut(rng, "!")
	if !ok {
		return "", 0, fmt.Errorf("malformed range %q", rng)
	}
	start, _, _ := strings.Cut(ref, ":")
	digits := strings.TrimLeft(start, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if digits == "" {
		return name, 0, nil
	}
	row, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, fmt.Errorf("malformed range %q: %w", rng, err)
	}
	return name, row, nil
}

func (f *fakeBackend) Read(ctx context.Context, rng string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	name, row, err := splitRange(rng)
	if err != nil {
		return nil, err
	}
	f.reads[name]++

	all := f.sheets[name]
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

func (f *fakeBackend) Append(ctx context.Context, rng string, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	name, _, err := splitRange(rng)
	if err != nil {
		return err
	}
	f.sheets[name] = append(f.sheets[name], rows...)
	return nil
}

func (f *fakeBackend) Update(ctx context.Context, rng string, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	name, row, err := splitRange(rng)
	if err != nil {
		return err
	}
	if row == 0 {
		return fmt.Errorf("update needs a row-addressed range, got %q", rng)
	}
	sheet := f.sheets[name]
	for len(sheet) < row {
		sheet = append(sheet, nil)
	}
	sheet[row-1] = append([]string(nil), rows[0]...)
	f.sheets[name] = sheet
	return nil
}

func (f *fakeBackend) DeleteRow(ctx context.Context, sheetName string, rowIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	sheet := f.sheets[sheetName]
	if rowIndex < 1 || rowIndex > len(sheet) {
		return fmt.Errorf("no row %d in %s", rowIndex, sheetName)
	}
	f.sheets[sheetName] = append(sheet[:rowIndex-1], sheet[rowIndex:]...)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		SpreadsheetID:   "test",
		CacheTTL:        5 * time.Minute,
		ContactsPerPage: 2,
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

func testCache() *cache.Cache {
	return cache.New(5 * time.Minute)
}
