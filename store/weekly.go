// ABOUTME: Reader and writer for the weekly business journal sheet
// ABOUTME: Entries group into per-week summaries by their weekId column
package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/sheets"
)

// Weekly journal sheet columns A:H.
const (
	colWklID       = 0
	colWklWeekID   = 1
	colWklDate     = 2
	colWklOwner    = 3
	colWklCategory = 4
	colWklContent  = 5
	colWklCreated  = 6
	colWklUpdated  = 7
)

const weeklyColumnCount = 8

type WeeklyReader struct {
	base
}

func NewWeeklyReader(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger) *WeeklyReader {
	return &WeeklyReader{base: newBase(backend, c, cfg, log)}
}

func parseWeeklyRow(row []string, idx int) models.WeeklyEntry {
	return models.WeeklyEntry{
		RowIndex:       idx,
		RecordID:       cell(row, colWklID),
		WeekID:         cell(row, colWklWeekID),
		Date:           cell(row, colWklDate),
		Owner:          cell(row, colWklOwner),
		Category:       cell(row, colWklCategory),
		Content:        cell(row, colWklContent),
		CreatedTime:    cell(row, colWklCreated),
		LastUpdateTime: cell(row, colWklUpdated),
	}
}

// Entries returns every journal entry, oldest date first.
func (r *WeeklyReader) Entries(ctx context.Context) ([]models.WeeklyEntry, error) {
	return fetchCached(ctx, &r.base, keyWeeklyEntries, r.cfg.Sheets.Weekly+"!A:H",
		parseWeeklyRow,
		func(a, b models.WeeklyEntry) bool { return a.Date < b.Date })
}

// EntriesForWeek returns the entries whose weekId matches.
func (r *WeeklyReader) EntriesForWeek(ctx context.Context, weekID string) ([]models.WeeklyEntry, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return nil, err
	}
	var result []models.WeeklyEntry
	for _, e := range entries {
		if e.WeekID == weekID {
			result = append(result, e)
		}
	}
	return result, nil
}

// Summary groups the journal into per-week entry counts, newest week first.
func (r *WeeklyReader) Summary(ctx context.Context) ([]models.WeeklySummary, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, e := range entries {
		if e.WeekID != "" {
			counts[e.WeekID]++
		}
	}
	summaries := make([]models.WeeklySummary, 0, len(counts))
	for weekID, n := range counts {
		summaries = append(summaries, models.WeeklySummary{WeekID: weekID, SummaryCount: n})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].WeekID > summaries[j].WeekID })
	return summaries, nil
}

func (r *WeeklyReader) byID(ctx context.Context, recordID string) (*models.WeeklyEntry, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].RecordID == recordID {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: weekly entry %s", ErrNotFound, recordID)
}

type WeeklyWriter struct {
	base
	reader *WeeklyReader
}

func NewWeeklyWriter(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger, reader *WeeklyReader) *WeeklyWriter {
	return &WeeklyWriter{base: newBase(backend, c, cfg, log), reader: reader}
}

// Create appends a journal entry. Date and weekId are expected from the
// caller; the service layer derives weekId from the entry date.
func (w *WeeklyWriter) Create(ctx context.Context, e models.WeeklyEntry) (*models.WeeklyEntry, error) {
	if e.Date == "" {
		return nil, fmt.Errorf("weekly entry date is required")
	}
	if e.Content == "" {
		return nil, fmt.Errorf("weekly entry content is required")
	}

	now := time.Now().Format(time.RFC3339)
	e.RecordID = newID("WKL")
	e.CreatedTime = now
	e.LastUpdateTime = now

	row := []string{e.RecordID, e.WeekID, e.Date, e.Owner, e.Category, e.Content, e.CreatedTime, e.LastUpdateTime}
	if err := w.backend.Append(ctx, w.cfg.Sheets.Weekly+"!A:H", [][]string{row}); err != nil {
		return nil, fmt.Errorf("failed to create weekly entry: %w", err)
	}

	w.cache.Invalidate(keyWeeklyEntries)
	w.log.Info("weekly entry created", zap.String("recordId", e.RecordID), zap.String("weekId", e.WeekID))
	return &e, nil
}

// WeeklyEntryUpdate carries the updatable journal fields.
type WeeklyEntryUpdate struct {
	WeekID   *string `json:"weekId,omitempty"`
	Date     *string `json:"date,omitempty"`
	Owner    *string `json:"owner,omitempty"`
	Category *string `json:"category,omitempty"`
	Content  *string `json:"content,omitempty"`
}

// Update rewrites an entry's row in place, resolved fresh by record id.
func (w *WeeklyWriter) Update(ctx context.Context, recordID string, upd WeeklyEntryUpdate) (*models.WeeklyEntry, error) {
	w.cache.Invalidate(keyWeeklyEntries)
	current, err := w.reader.byID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	merged := *current
	if upd.WeekID != nil {
		merged.WeekID = *upd.WeekID
	}
	if upd.Date != nil {
		merged.Date = *upd.Date
	}
	if upd.Owner != nil {
		merged.Owner = *upd.Owner
	}
	if upd.Category != nil {
		merged.Category = *upd.Category
	}
	if upd.Content != nil {
		merged.Content = *upd.Content
	}
	merged.LastUpdateTime = time.Now().Format(time.RFC3339)

	rng := rowRange(w.cfg.Sheets.Weekly, merged.RowIndex, weeklyColumnCount)
	row := []string{merged.RecordID, merged.WeekID, merged.Date, merged.Owner, merged.Category, merged.Content, merged.CreatedTime, merged.LastUpdateTime}
	if err := w.backend.Update(ctx, rng, [][]string{row}); err != nil {
		return nil, fmt.Errorf("failed to update weekly entry %s: %w", recordID, err)
	}

	w.cache.Invalidate(keyWeeklyEntries)
	w.log.Info("weekly entry updated", zap.String("recordId", recordID))
	return &merged, nil
}

// Delete removes an entry's row.
func (w *WeeklyWriter) Delete(ctx context.Context, recordID string) error {
	w.cache.Invalidate(keyWeeklyEntries)
	current, err := w.reader.byID(ctx, recordID)
	if err != nil {
		return err
	}

	if err := w.backend.DeleteRow(ctx, w.cfg.Sheets.Weekly, current.RowIndex); err != nil {
		return fmt.Errorf("failed to delete weekly entry %s: %w", recordID, err)
	}

	w.cache.Invalidate(keyWeeklyEntries)
	w.log.Info("weekly entry deleted", zap.String("recordId", recordID))
	return nil
}
