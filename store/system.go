// ABOUTME: Reader for the system settings sheet and the user roster
// ABOUTME: Settings degrade to built-in defaults when the backend is unreachable
package store

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/sheets"
)

// Settings sheet columns A:H.
const (
	colCfgCategory = 0
	colCfgValue    = 1
	colCfgOrder    = 2
	colCfgEnabled  = 3
	colCfgNote     = 4
	colCfgColor    = 5
	colCfgValue2   = 6
	colCfgValue3   = 7
)

const defaultConfigOrder = 99

type SystemReader struct {
	base
}

func NewSystemReader(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger) *SystemReader {
	return &SystemReader{base: newBase(backend, c, cfg, log)}
}

// eventTypeOptions is the built-in 事件類型 category. It is seeded into
// every settings read regardless of sheet content so the event type
// dropdown works even on a blank settings sheet.
func eventTypeOptions() []models.ConfigOption {
	return []models.ConfigOption{
		{Value: models.EventTypeGeneral, Note: "一般", Order: 1, Color: "#6c757d"},
		{Value: models.EventTypeIoT, Note: "IOT", Order: 2, Color: "#007bff"},
		{Value: models.EventTypeDT, Note: "DT", Order: 3, Color: "#28a745"},
		{Value: models.EventTypeDX, Note: "DX", Order: 4, Color: "#ffc107"},
		{Value: models.EventTypeLegacy, Note: "舊事件", Order: 5, Color: "#dc3545"},
	}
}

func defaultSystemConfig() models.SystemConfig {
	return models.SystemConfig{"事件類型": eventTypeOptions()}
}

// SystemConfig reads the settings sheet into category option lists. Only
// rows flagged enabled TRUE count; each category's list is sorted by order
// ascending with 99 standing in for a missing or non-numeric order. A
// backend failure returns the built-in defaults and a nil error so the
// rest of the application keeps rendering.
func (r *SystemReader) SystemConfig(ctx context.Context) (models.SystemConfig, error) {
	if v, ok := r.cache.Get(keySystemConfig); ok {
		r.log.Debug("cache hit", zap.String("key", keySystemConfig))
		return v.(models.SystemConfig), nil
	}

	rows, err := r.backend.Read(ctx, r.cfg.Sheets.SystemConfig+"!A:H")
	if err != nil {
		r.log.Warn("settings read failed, using defaults", zap.Error(err))
		return defaultSystemConfig(), nil
	}
	if len(rows) <= 1 {
		return models.SystemConfig{}, nil
	}

	settings := defaultSystemConfig()
	for _, row := range rows[1:] {
		category := cell(row, colCfgCategory)
		value := cell(row, colCfgValue)
		if cell(row, colCfgEnabled) != "TRUE" || category == "" || value == "" {
			continue
		}
		note := cell(row, colCfgNote)
		if note == "" {
			note = value
		}
		order, err := strconv.Atoi(cell(row, colCfgOrder))
		if err != nil || order == 0 {
			order = defaultConfigOrder
		}
		settings[category] = append(settings[category], models.ConfigOption{
			Value:  value,
			Note:   note,
			Order:  order,
			Color:  cell(row, colCfgColor),
			Value2: cell(row, colCfgValue2),
			Value3: cell(row, colCfgValue3),
		})
	}

	for category := range settings {
		opts := settings[category]
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Order < opts[j].Order })
	}

	r.cache.Set(keySystemConfig, settings)
	return settings, nil
}

// Users returns the roster, dropping rows missing a username or password
// hash.
func (r *SystemReader) Users(ctx context.Context) ([]models.User, error) {
	users, err := fetchCached(ctx, &r.base, keyUsers, r.cfg.Sheets.Users+"!A:C",
		func(row []string, _ int) models.User {
			return models.User{
				Username:     cell(row, 0),
				PasswordHash: cell(row, 1),
				DisplayName:  cell(row, 2),
			}
		}, nil)
	if err != nil {
		return nil, err
	}
	complete := users[:0:0]
	for _, u := range users {
		if u.Username != "" && u.PasswordHash != "" {
			complete = append(complete, u)
		}
	}
	return complete, nil
}
