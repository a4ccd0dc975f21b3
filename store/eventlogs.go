// ABOUTME: Reader and writer for the typed event log sheets
// ABOUTME: One schema per event type; type changes migrate rows between sheets
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/sheets"
)

// commonEventColumns is the column layout shared by every event sheet; the
// per-type slices extend it. Order is the physical column order.
var commonEventColumns = []string{
	"eventId", "eventName", "opportunityId", "companyId", "creator",
	"createdTime", "lastModifiedTime", "lastModifier", "ourParticipants",
	"clientParticipants", "visitPlace", "eventContent", "clientQuestions",
	"clientIntelligence", "eventNotes",
}

var iotEventColumns = []string{
	"iot_deviceScale", "iot_lineFeatures", "iot_productionStatus",
	"iot_iotStatus", "iot_painPoints", "iot_painPointDetails",
	"iot_painPointAnalysis", "iot_systemArchitecture",
}

var dtEventColumns = []string{
	"dt_processingType", "dt_industry", "dt_deviceScale",
}

// eventSchema binds an event type to its physical sheet and column layout.
type eventSchema struct {
	eventType string
	columns   []string
}

func eventSchemas() map[string]eventSchema {
	return map[string]eventSchema{
		models.EventTypeGeneral: {models.EventTypeGeneral, commonEventColumns},
		models.EventTypeIoT:     {models.EventTypeIoT, append(append([]string{}, commonEventColumns...), iotEventColumns...)},
		models.EventTypeDT:      {models.EventTypeDT, append(append([]string{}, commonEventColumns...), dtEventColumns...)},
		models.EventTypeDX:      {models.EventTypeDX, commonEventColumns},
		models.EventTypeLegacy:  {models.EventTypeLegacy, commonEventColumns},
	}
}

func eventSheetName(cfg *config.Config, eventType string) string {
	switch eventType {
	case models.EventTypeIoT:
		return cfg.Sheets.EventLogsIoT
	case models.EventTypeDT:
		return cfg.Sheets.EventLogsDT
	case models.EventTypeDX:
		return cfg.Sheets.EventLogsDX
	case models.EventTypeLegacy:
		return cfg.Sheets.EventLogsLegacy
	default:
		return cfg.Sheets.EventLogsGeneral
	}
}

func eventField(e *models.EventLog, key string) (string, bool) {
	switch key {
	case "eventId":
		return e.EventID, true
	case "eventName":
		return e.EventName, true
	case "opportunityId":
		return e.OpportunityID, true
	case "companyId":
		return e.CompanyID, true
	case "creator":
		return e.Creator, true
	case "createdTime":
		return e.CreatedTime, true
	case "lastModifiedTime":
		return e.LastModifiedTime, true
	case "lastModifier":
		return e.LastModifier, true
	case "ourParticipants":
		return e.OurParticipants, true
	case "clientParticipants":
		return e.ClientParticipants, true
	case "visitPlace":
		return e.VisitPlace, true
	case "eventContent":
		return e.EventContent, true
	case "clientQuestions":
		return e.ClientQuestions, true
	case "clientIntelligence":
		return e.ClientIntelligence, true
	case "eventNotes":
		return e.EventNotes, true
	case "iot_deviceScale":
		return e.IoTDeviceScale, true
	case "iot_lineFeatures":
		return e.IoTLineFeatures, true
	case "iot_productionStatus":
		return e.IoTProductionStatus, true
	case "iot_iotStatus":
		return e.IoTStatus, true
	case "iot_painPoints":
		return e.IoTPainPoints, true
	case "iot_painPointDetails":
		return e.IoTPainPointDetails, true
	case "iot_painPointAnalysis":
		return e.IoTPainPointAnalysis, true
	case "iot_systemArchitecture":
		return e.IoTSystemArchitecture, true
	case "dt_processingType":
		return e.DTProcessingType, true
	case "dt_industry":
		return e.DTIndustry, true
	case "dt_deviceScale":
		return e.DTDeviceScale, true
	}
	return "", false
}

func setEventField(e *models.EventLog, key, v string) bool {
	switch key {
	case "eventId":
		e.EventID = v
	case "eventName":
		e.EventName = v
	case "opportunityId":
		e.OpportunityID = v
	case "companyId":
		e.CompanyID = v
	case "creator":
		e.Creator = v
	case "createdTime":
		e.CreatedTime = v
	case "lastModifiedTime":
		e.LastModifiedTime = v
	case "lastModifier":
		e.LastModifier = v
	case "ourParticipants":
		e.OurParticipants = v
	case "clientParticipants":
		e.ClientParticipants = v
	case "visitPlace":
		e.VisitPlace = v
	case "eventContent":
		e.EventContent = v
	case "clientQuestions":
		e.ClientQuestions = v
	case "clientIntelligence":
		e.ClientIntelligence = v
	case "eventNotes":
		e.EventNotes = v
	case "iot_deviceScale":
		e.IoTDeviceScale = v
	case "iot_lineFeatures":
		e.IoTLineFeatures = v
	case "iot_productionStatus":
		e.IoTProductionStatus = v
	case "iot_iotStatus":
		e.IoTStatus = v
	case "iot_painPoints":
		e.IoTPainPoints = v
	case "iot_painPointDetails":
		e.IoTPainPointDetails = v
	case "iot_painPointAnalysis":
		e.IoTPainPointAnalysis = v
	case "iot_systemArchitecture":
		e.IoTSystemArchitecture = v
	case "dt_processingType":
		e.DTProcessingType = v
	case "dt_industry":
		e.DTIndustry = v
	case "dt_deviceScale":
		e.DTDeviceScale = v
	default:
		return false
	}
	return true
}

// validateEventSchemas checks every schema column resolves to a record
// field and no schema repeats a column. Runs once at startup so a mapping
// mistake fails loudly instead of scrambling rows.
func validateEventSchemas() error {
	for eventType, schema := range eventSchemas() {
		seen := make(map[string]bool, len(schema.columns))
		var probe models.EventLog
		for _, key := range schema.columns {
			if seen[key] {
				return fmt.Errorf("event schema %s repeats column %q", eventType, key)
			}
			seen[key] = true
			if !setEventField(&probe, key, "") {
				return fmt.Errorf("event schema %s references unknown field %q", eventType, key)
			}
		}
	}
	return nil
}

func eventFromRow(row []string, columns []string, eventType string, rowIndex int) models.EventLog {
	e := models.EventLog{RowIndex: rowIndex, EventType: eventType}
	for i, key := range columns {
		setEventField(&e, key, cell(row, i))
	}
	return e
}

func rowFromEvent(e *models.EventLog, columns []string) []string {
	row := make([]string, len(columns))
	for i, key := range columns {
		v, _ := eventField(e, key)
		row[i] = v
	}
	return row
}

type EventLogReader struct {
	base
	schemas map[string]eventSchema
}

func NewEventLogReader(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger) (*EventLogReader, error) {
	if err := validateEventSchemas(); err != nil {
		return nil, err
	}
	return &EventLogReader{base: newBase(backend, c, cfg, log), schemas: eventSchemas()}, nil
}

// EventLogs returns the logs from all five type sheets, newest first. The
// combined result is cached under a single key; any event write drops it
// whole.
func (r *EventLogReader) EventLogs(ctx context.Context) ([]models.EventLog, error) {
	if v, ok := r.cache.Get(keyEventLogs); ok {
		r.log.Debug("cache hit", zap.String("key", keyEventLogs))
		return v.([]models.EventLog), nil
	}

	var mu sync.Mutex
	var all []models.EventLog

	g, gctx := errgroup.WithContext(ctx)
	for eventType, schema := range r.schemas {
		eventType, schema := eventType, schema
		g.Go(func() error {
			sheetName := eventSheetName(r.cfg, eventType)
			rng := fmt.Sprintf("%s!A:%s", sheetName, columnLetter(len(schema.columns)-1))
			rows, err := r.backend.Read(gctx, rng)
			if err != nil {
				return fmt.Errorf("failed to read %s event logs: %w", eventType, err)
			}
			var parsed []models.EventLog
			for i, row := range rows[min(1, len(rows)):] {
				parsed = append(parsed, eventFromRow(row, schema.columns, eventType, i+2))
			}
			mu.Lock()
			all = append(all, parsed...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortEventLogs(all)
	r.cache.Set(keyEventLogs, all)
	return all, nil
}

// sortEventLogs orders newest created first, unparseable dates last.
func sortEventLogs(logs []models.EventLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return eventLogBefore(logs[i], logs[j])
	})
}

func eventLogBefore(a, b models.EventLog) bool {
	ta, okA := models.ParseSheetTime(a.CreatedTime)
	tb, okB := models.ParseSheetTime(b.CreatedTime)
	if !okB {
		return okA
	}
	if !okA {
		return false
	}
	return ta.After(tb)
}

// ByID scans every type sheet for the event with the given id.
func (r *EventLogReader) ByID(ctx context.Context, eventID string) (*models.EventLog, error) {
	logs, err := r.EventLogs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range logs {
		if logs[i].EventID == eventID {
			return &logs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
}

// ByOpportunity returns the logs tied to one opportunity.
func (r *EventLogReader) ByOpportunity(ctx context.Context, opportunityID string) ([]models.EventLog, error) {
	logs, err := r.EventLogs(ctx)
	if err != nil {
		return nil, err
	}
	var result []models.EventLog
	for _, e := range logs {
		if e.OpportunityID == opportunityID {
			result = append(result, e)
		}
	}
	return result, nil
}

// EventLogUpdate carries the updatable event fields; nil leaves the stored
// cell alone. Setting EventType to a different value than the stored one
// triggers a migration instead of an in-place update.
type EventLogUpdate struct {
	EventType          *string `json:"eventType,omitempty"`
	EventName          *string `json:"eventName,omitempty"`
	OpportunityID      *string `json:"opportunityId,omitempty"`
	CompanyID          *string `json:"companyId,omitempty"`
	CreatedTime        *string `json:"createdTime,omitempty"`
	OurParticipants    *string `json:"ourParticipants,omitempty"`
	ClientParticipants *string `json:"clientParticipants,omitempty"`
	VisitPlace         *string `json:"visitPlace,omitempty"`
	EventContent       *string `json:"eventContent,omitempty"`
	ClientQuestions    *string `json:"clientQuestions,omitempty"`
	ClientIntelligence *string `json:"clientIntelligence,omitempty"`
	EventNotes         *string `json:"eventNotes,omitempty"`

	IoTDeviceScale        *string `json:"iot_deviceScale,omitempty"`
	IoTLineFeatures       *string `json:"iot_lineFeatures,omitempty"`
	IoTProductionStatus   *string `json:"iot_productionStatus,omitempty"`
	IoTStatus             *string `json:"iot_iotStatus,omitempty"`
	IoTPainPoints         *string `json:"iot_painPoints,omitempty"`
	IoTPainPointDetails   *string `json:"iot_painPointDetails,omitempty"`
	IoTPainPointAnalysis  *string `json:"iot_painPointAnalysis,omitempty"`
	IoTSystemArchitecture *string `json:"iot_systemArchitecture,omitempty"`

	DTProcessingType *string `json:"dt_processingType,omitempty"`
	DTIndustry       *string `json:"dt_industry,omitempty"`
	DTDeviceScale    *string `json:"dt_deviceScale,omitempty"`
}

// apply merges the update into e, skipping EventType (migration is decided
// by the writer, not the merge).
func (u *EventLogUpdate) apply(e *models.EventLog) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&e.EventName, u.EventName)
	set(&e.OpportunityID, u.OpportunityID)
	set(&e.CompanyID, u.CompanyID)
	set(&e.CreatedTime, u.CreatedTime)
	set(&e.OurParticipants, u.OurParticipants)
	set(&e.ClientParticipants, u.ClientParticipants)
	set(&e.VisitPlace, u.VisitPlace)
	set(&e.EventContent, u.EventContent)
	set(&e.ClientQuestions, u.ClientQuestions)
	set(&e.ClientIntelligence, u.ClientIntelligence)
	set(&e.EventNotes, u.EventNotes)
	set(&e.IoTDeviceScale, u.IoTDeviceScale)
	set(&e.IoTLineFeatures, u.IoTLineFeatures)
	set(&e.IoTProductionStatus, u.IoTProductionStatus)
	set(&e.IoTStatus, u.IoTStatus)
	set(&e.IoTPainPoints, u.IoTPainPoints)
	set(&e.IoTPainPointDetails, u.IoTPainPointDetails)
	set(&e.IoTPainPointAnalysis, u.IoTPainPointAnalysis)
	set(&e.IoTSystemArchitecture, u.IoTSystemArchitecture)
	set(&e.DTProcessingType, u.DTProcessingType)
	set(&e.DTIndustry, u.DTIndustry)
	set(&e.DTDeviceScale, u.DTDeviceScale)
}

// EventWriteResult reports the outcome of an event log mutation.
type EventWriteResult struct {
	EventID     string `json:"eventId"`
	CreatedTime string `json:"createdTime,omitempty"`
	Migrated    bool   `json:"migrated,omitempty"`
	NewEventID  string `json:"newEventId,omitempty"`
}

type EventLogWriter struct {
	base
	reader *EventLogReader
}

func NewEventLogWriter(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger, reader *EventLogReader) *EventLogWriter {
	return &EventLogWriter{base: newBase(backend, c, cfg, log), reader: reader}
}

// Create appends an event log into its type's sheet. A caller-supplied
// created time is honored (migrations preserve the original); the last
// modified time always equals the created time on a fresh row.
func (w *EventLogWriter) Create(ctx context.Context, e models.EventLog) (*EventWriteResult, error) {
	if e.EventType == "" {
		e.EventType = models.EventTypeGeneral
	}
	schema, ok := w.reader.schemas[e.EventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", e.EventType)
	}

	now := time.Now().Format(time.RFC3339)
	e.EventID = newID("EVT")
	if e.CreatedTime == "" {
		e.CreatedTime = now
	}
	e.LastModifiedTime = e.CreatedTime

	sheetName := eventSheetName(w.cfg, e.EventType)
	row := rowFromEvent(&e, schema.columns)
	rng := fmt.Sprintf("%s!A:%s", sheetName, columnLetter(len(schema.columns)-1))
	if err := w.backend.Append(ctx, rng, [][]string{row}); err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	w.cache.Invalidate(keyEventLogs)
	if e.OpportunityID != "" || e.CompanyID != "" {
		w.cache.Invalidate(keyOpportunities)
	}

	w.log.Info("event log created",
		zap.String("eventId", e.EventID),
		zap.String("eventType", e.EventType),
		zap.String("sheet", sheetName))
	return &EventWriteResult{EventID: e.EventID, CreatedTime: e.CreatedTime}, nil
}

// Update applies an update to the event with the given id. When the update
// carries a different event type the row migrates: the merged record is
// created in the destination sheet under a new id and the original row is
// deleted from its sheet. Every type pair uses this same procedure; a row
// can never change sheets in place.
func (w *EventLogWriter) Update(ctx context.Context, eventID string, upd EventLogUpdate, modifier string) (*EventWriteResult, error) {
	w.cache.Invalidate(keyEventLogs)
	original, err := w.reader.ByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if upd.EventType != nil && *upd.EventType != original.EventType {
		return w.migrate(ctx, original, upd, *upd.EventType, modifier)
	}

	schema := w.reader.schemas[original.EventType]
	sheetName := eventSheetName(w.cfg, original.EventType)
	rng := rowRange(sheetName, original.RowIndex, len(schema.columns))

	rows, err := w.backend.Read(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to read event row %d: %w", original.RowIndex, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: event %s vanished from row %d of %s", ErrNotFound, eventID, original.RowIndex, sheetName)
	}

	merged := eventFromRow(rows[0], schema.columns, original.EventType, original.RowIndex)
	upd.apply(&merged)
	merged.LastModifiedTime = time.Now().Format(time.RFC3339)
	merged.LastModifier = modifier

	if err := w.backend.Update(ctx, rng, [][]string{rowFromEvent(&merged, schema.columns)}); err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventID, err)
	}

	w.cache.Invalidate(keyEventLogs, keyOpportunities)
	w.log.Info("event log updated", zap.String("eventId", eventID), zap.String("modifier", modifier))
	return &EventWriteResult{EventID: eventID}, nil
}

// migrate moves an event to a different type's sheet: create the merged
// record in the destination, then delete the source row. The delete is
// guarded by a fresh id lookup so a concurrent migration that already
// removed (or shifted) the row does not take an innocent neighbor with it.
func (w *EventLogWriter) migrate(ctx context.Context, original *models.EventLog, upd EventLogUpdate, newType, modifier string) (*EventWriteResult, error) {
	if _, ok := w.reader.schemas[newType]; !ok {
		return nil, fmt.Errorf("unknown event type %q", newType)
	}

	w.log.Info("migrating event log",
		zap.String("eventId", original.EventID),
		zap.String("from", original.EventType),
		zap.String("to", newType))

	merged := *original
	upd.apply(&merged)
	merged.EventType = newType
	merged.LastModifier = modifier

	created, err := w.Create(ctx, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrated event: %w", err)
	}

	if err := w.deleteByID(ctx, original.EventID); err != nil {
		return nil, fmt.Errorf("migrated to %s but failed to delete source row: %w", created.EventID, err)
	}

	return &EventWriteResult{EventID: original.EventID, Migrated: true, NewEventID: created.EventID}, nil
}

// Delete removes an event log's row from its type's sheet.
func (w *EventLogWriter) Delete(ctx context.Context, eventID, modifier string) (*models.EventLog, error) {
	w.cache.Invalidate(keyEventLogs)
	original, err := w.reader.ByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := w.deleteByID(ctx, eventID); err != nil {
		return nil, err
	}

	w.log.Info("event log deleted",
		zap.String("eventId", eventID),
		zap.String("eventType", original.EventType),
		zap.String("modifier", modifier))
	return original, nil
}

// deleteByID re-resolves the event's current row position and deletes it.
// A missing id means the row is already gone (e.g. a concurrent migration
// finished first); that is treated as success, not an error.
func (w *EventLogWriter) deleteByID(ctx context.Context, eventID string) error {
	w.cache.Invalidate(keyEventLogs)
	current, err := w.reader.ByID(ctx, eventID)
	if err != nil {
		if isNotFound(err) {
			w.log.Warn("event row already gone, skipping delete", zap.String("eventId", eventID))
			return nil
		}
		return err
	}

	sheetName := eventSheetName(w.cfg, current.EventType)
	if err := w.backend.DeleteRow(ctx, sheetName, current.RowIndex); err != nil {
		return fmt.Errorf("failed to delete event %s from %s: %w", eventID, sheetName, err)
	}

	w.cache.Invalidate(keyEventLogs, keyOpportunities)
	return nil
}
