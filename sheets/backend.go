// ABOUTME: Spreadsheet backend interface and Google Sheets API implementation
// ABOUTME: Read/Append/Update by A1 range plus physical row deletion via batch update
package sheets

import (
	"context"
	"fmt"

	gsheets "google.golang.org/api/sheets/v4"
)

// Backend is the spreadsheet store every reader and writer talks to. Ranges
// are "SheetName!A:Y"-style A1 addresses. There are no transactional
// guarantees across calls; row 1 of every sheet is a header.
type Backend interface {
	Read(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, rows [][]string) error
	Update(ctx context.Context, rng string, rows [][]string) error
	// DeleteRow removes the physical row at rowIndex (1-based) from the
	// named sheet. Rows below it shift up by one.
	DeleteRow(ctx context.Context, sheetName string, rowIndex int) error
}

// GoogleBackend implements Backend against the Sheets API v4.
type GoogleBackend struct {
	svc           *gsheets.Service
	spreadsheetID string

	sheetIDs map[string]int64 // title -> numeric sheet id, lazily resolved
}

func NewGoogleBackend(svc *gsheets.Service, spreadsheetID string) *GoogleBackend {
	return &GoogleBackend{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}
}

func (b *GoogleBackend) Read(ctx context.Context, rng string) ([][]string, error) {
	resp, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rng, err)
	}
	return toStringRows(resp.Values), nil
}

func (b *GoogleBackend) Append(ctx context.Context, rng string, rows [][]string) error {
	vr := &gsheets.ValueRange{Values: toInterfaceRows(rows)}
	_, err := b.svc.Spreadsheets.Values.Append(b.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to range %s: %w", rng, err)
	}
	return nil
}

func (b *GoogleBackend) Update(ctx context.Context, rng string, rows [][]string) error {
	vr := &gsheets.ValueRange{Values: toInterfaceRows(rows)}
	_, err := b.svc.Spreadsheets.Values.Update(b.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update range %s: %w", rng, err)
	}
	return nil
}

func (b *GoogleBackend) DeleteRow(ctx context.Context, sheetName string, rowIndex int) error {
	if rowIndex <= 1 {
		return fmt.Errorf("invalid rowIndex %d: header row cannot be deleted", rowIndex)
	}

	sheetID, err := b.sheetID(ctx, sheetName)
	if err != nil {
		return err
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			DeleteDimension: &gsheets.DeleteDimensionRequest{
				Range: &gsheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex - 1), // API indices are 0-based
					EndIndex:   int64(rowIndex),
				},
			},
		}},
	}
	if _, err := b.svc.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete row %d from %s: %w", rowIndex, sheetName, err)
	}
	return nil
}

// sheetID resolves a worksheet title to its numeric id. The mapping is
// stable for the lifetime of the spreadsheet, so it is fetched once.
func (b *GoogleBackend) sheetID(ctx context.Context, sheetName string) (int64, error) {
	if id, ok := b.sheetIDs[sheetName]; ok {
		return id, nil
	}

	meta, err := b.svc.Spreadsheets.Get(b.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch spreadsheet metadata: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			b.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}

	id, ok := b.sheetIDs[sheetName]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found in spreadsheet", sheetName)
	}
	return id, nil
}

func toStringRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	return rows
}

func toInterfaceRows(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}
	return values
}
