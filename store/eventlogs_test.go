// ABOUTME: Tests for the typed event log sheets and type migration
// ABOUTME: Migration must land exactly one destination row and empty the source
package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wllin/sheetcrm/models"
)

func eventHeader() []string {
	return []string{"eventId", "eventName"}
}

func seedEventSheets(backend *fakeBackend) {
	for _, name := range []string{"events_general", "events_iot", "events_dt", "events_dx", "events_legacy"} {
		backend.setSheet(name, [][]string{eventHeader()})
	}
}

type eventFixture struct {
	backend *fakeBackend
	reader  *EventLogReader
	writer  *EventLogWriter
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	backend := newFakeBackend()
	seedEventSheets(backend)

	c := testCache()
	cfg := testConfig()
	reader, err := NewEventLogReader(backend, c, cfg, nil)
	require.NoError(t, err)
	return &eventFixture{
		backend: backend,
		reader:  reader,
		writer:  NewEventLogWriter(backend, c, cfg, nil, reader),
	}
}

func TestEventSchemasValidate(t *testing.T) {
	require.NoError(t, validateEventSchemas())
}

func TestEventLogCreateDefaultsToGeneral(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	created, err := f.writer.Create(ctx, models.EventLog{EventName: "Kickoff", OpportunityID: "OPP1", Creator: "u"})
	require.NoError(t, err)
	assert.Contains(t, created.EventID, "EVT")
	assert.NotEmpty(t, created.CreatedTime)

	got, err := f.reader.ByID(ctx, created.EventID)
	require.NoError(t, err)
	assert.Equal(t, models.EventTypeGeneral, got.EventType)
	assert.Equal(t, "Kickoff", got.EventName)
	assert.Equal(t, 2, got.RowIndex)
}

func TestEventLogUpdateInPlace(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	created, err := f.writer.Create(ctx, models.EventLog{EventType: models.EventTypeIoT, EventName: "Site visit", Creator: "u"})
	require.NoError(t, err)

	scale := "200 machines"
	result, err := f.writer.Update(ctx, created.EventID, EventLogUpdate{IoTDeviceScale: &scale}, "editor")
	require.NoError(t, err)
	assert.False(t, result.Migrated)

	got, err := f.reader.ByID(ctx, created.EventID)
	require.NoError(t, err)
	assert.Equal(t, "200 machines", got.IoTDeviceScale)
	assert.Equal(t, "editor", got.LastModifier)
	assert.NotEmpty(t, got.LastModifiedTime)
}

func TestEventLogMigration(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	created, err := f.writer.Create(ctx, models.EventLog{
		EventType:    models.EventTypeGeneral,
		EventName:    "Factory audit",
		EventContent: "walked the line",
		CreatedTime:  "2024-05-01T00:00:00Z",
		Creator:      "u",
	})
	require.NoError(t, err)

	newType := models.EventTypeIoT
	scale := "50 machines"
	result, err := f.writer.Update(ctx, created.EventID, EventLogUpdate{
		EventType:      &newType,
		IoTDeviceScale: &scale,
	}, "editor")
	require.NoError(t, err)

	assert.True(t, result.Migrated)
	assert.NotEmpty(t, result.NewEventID)
	assert.NotEqual(t, created.EventID, result.NewEventID)

	// Source sheet keeps only its header.
	assert.Len(t, f.backend.sheets["events_general"], 1)
	// Destination holds exactly one data row carrying the merged record.
	require.Len(t, f.backend.sheets["events_iot"], 2)

	got, err := f.reader.ByID(ctx, result.NewEventID)
	require.NoError(t, err)
	assert.Equal(t, models.EventTypeIoT, got.EventType)
	assert.Equal(t, "Factory audit", got.EventName)
	assert.Equal(t, "walked the line", got.EventContent)
	assert.Equal(t, "50 machines", got.IoTDeviceScale)
	assert.Equal(t, "2024-05-01T00:00:00Z", got.CreatedTime, "migration keeps the original created time")

	_, err = f.reader.ByID(ctx, created.EventID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventLogMigrationRejectsUnknownType(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	created, err := f.writer.Create(ctx, models.EventLog{EventName: "x", Creator: "u"})
	require.NoError(t, err)

	bogus := "quantum"
	_, err = f.writer.Update(ctx, created.EventID, EventLogUpdate{EventType: &bogus}, "editor")
	assert.Error(t, err)
}

func TestEventLogsSortedNewestFirst(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	_, err := f.writer.Create(ctx, models.EventLog{EventName: "old", CreatedTime: "2024-01-01T00:00:00Z"})
	require.NoError(t, err)
	_, err = f.writer.Create(ctx, models.EventLog{EventType: models.EventTypeDT, EventName: "new", CreatedTime: "2024-06-01T00:00:00Z"})
	require.NoError(t, err)

	logs, err := f.reader.EventLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "new", logs[0].EventName)
	assert.Equal(t, "old", logs[1].EventName)
}

func TestEventLogDelete(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	created, err := f.writer.Create(ctx, models.EventLog{EventType: models.EventTypeDX, EventName: "x"})
	require.NoError(t, err)

	deleted, err := f.writer.Delete(ctx, created.EventID, "editor")
	require.NoError(t, err)
	assert.Equal(t, "x", deleted.EventName)

	logs, err := f.reader.EventLogs(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestEventLogByOpportunity(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	_, err := f.writer.Create(ctx, models.EventLog{EventName: "a", OpportunityID: "OPP1"})
	require.NoError(t, err)
	_, err = f.writer.Create(ctx, models.EventLog{EventType: models.EventTypeLegacy, EventName: "b", OpportunityID: "OPP2"})
	require.NoError(t, err)

	logs, err := f.reader.ByOpportunity(ctx, "OPP1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "a", logs[0].EventName)
}
