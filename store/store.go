// ABOUTME: Shared plumbing for the sheet-backed readers and writers
// ABOUTME: Cache keys, id generation, not-found sentinel and the common dependency bundle
package store

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/sheets"
)

// Cache keys, one per logical dataset. A writer that mutates a dataset
// invalidates its key plus every key whose derived data the mutation could
// have staled.
const (
	keyContacts        = "contacts"
	keyContactList     = "contactList"
	keyOppContactLinks = "oppContactLinks"
	keyCompanies       = "companies"
	keyOpportunities   = "opportunities"
	keyInteractions    = "interactions"
	keyEventLogs       = "eventLogs"
	keySystemConfig    = "systemConfig"
	keyUsers           = "users"
	keyWeeklyEntries   = "weeklyEntries"
)

// ErrNotFound marks a lookup that targeted a missing id or row.
var ErrNotFound = errors.New("record not found")

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// base bundles the dependencies every reader and writer needs.
type base struct {
	backend sheets.Backend
	cache   *cache.Cache
	cfg     *config.Config
	log     *zap.Logger
}

func newBase(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{backend: backend, cache: c, cfg: cfg, log: log}
}

// newID returns a prefixed, lexically sortable record id, e.g. OPP01J....
func newID(prefix string) string {
	return prefix + ulid.Make().String()
}

// cell returns row[i] or "" when the row is shorter. The Sheets API trims
// trailing empty cells, so short rows are normal.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// setCell grows row as needed so that index i exists, then assigns it.
func setCell(row []string, i int, v string) []string {
	for len(row) <= i {
		row = append(row, "")
	}
	row[i] = v
	return row
}

// columnLetter converts a 0-based column index to its A1 letter(s).
func columnLetter(i int) string {
	s := ""
	for i >= 0 {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
	}
	return s
}

// rowRange builds the A1 address of one physical row spanning cols columns.
func rowRange(sheetName string, rowIndex, cols int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheetName, rowIndex, columnLetter(cols-1), rowIndex)
}
