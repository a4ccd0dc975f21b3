// ABOUTME: Tests for the event log service and its audit side-channel
// ABOUTME: Audit interactions must reference the event and never fail the mutation
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/store"
)

type eventServiceFixture struct {
	backend      *memBackend
	service      *EventLogService
	events       *store.EventLogReader
	interactions *store.InteractionReader
}

func newEventServiceFixture(t *testing.T) *eventServiceFixture {
	t.Helper()
	sheets := map[string][][]string{
		"interactions": {{"interactionId"}},
	}
	for _, name := range []string{"events_general", "events_iot", "events_dt", "events_dx", "events_legacy"} {
		sheets[name] = [][]string{{"eventId"}}
	}
	backend := newMemBackend(sheets)

	c := serviceTestCache()
	cfg := serviceTestConfig()
	eventReader, err := store.NewEventLogReader(backend, c, cfg, nil)
	require.NoError(t, err)
	eventWriter := store.NewEventLogWriter(backend, c, cfg, nil, eventReader)
	interactionReader := store.NewInteractionReader(backend, c, cfg, nil)
	interactionWriter := store.NewInteractionWriter(backend, c, cfg, nil, interactionReader)

	return &eventServiceFixture{
		backend:      backend,
		service:      NewEventLogService(eventReader, eventWriter, interactionWriter, nil),
		events:       eventReader,
		interactions: interactionReader,
	}
}

func TestEventServiceCreateWritesAuditInteraction(t *testing.T) {
	f := newEventServiceFixture(t)
	ctx := context.Background()

	result, err := f.service.Create(ctx, models.EventLog{
		EventName:          "Plant visit",
		OpportunityID:      "OPP1",
		CompanyID:          "COM1",
		Creator:            "alice",
		OurParticipants:    "alice",
		ClientParticipants: "mr. wang",
	})
	require.NoError(t, err)

	interactions, err := f.interactions.ByOpportunity(ctx, "OPP1")
	require.NoError(t, err)
	require.Len(t, interactions, 1)

	audit := interactions[0]
	assert.Equal(t, models.InteractionTypeEventReport, audit.EventType)
	assert.Equal(t, "Plant visit", audit.EventTitle)
	assert.Contains(t, audit.ContentSummary, "event_log_id="+result.EventID)
	assert.Equal(t, "alice", audit.Recorder)
	assert.Equal(t, result.CreatedTime, audit.InteractionTime)
	assert.Contains(t, audit.Participants, "alice (我方)")
}

func TestEventServiceUpdateWritesSystemInteraction(t *testing.T) {
	f := newEventServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, models.EventLog{EventName: "Audit", OpportunityID: "OPP1", Creator: "alice"})
	require.NoError(t, err)

	name := "Audit (rescheduled)"
	_, err = f.service.Update(ctx, created.EventID, store.EventLogUpdate{EventName: &name}, "bob")
	require.NoError(t, err)

	interactions, err := f.interactions.ByOpportunity(ctx, "OPP1")
	require.NoError(t, err)
	require.Len(t, interactions, 2)

	var system *models.Interaction
	for i := range interactions {
		if interactions[i].EventType == models.InteractionTypeSystem {
			system = &interactions[i]
		}
	}
	require.NotNil(t, system)
	assert.Equal(t, "更新事件報告", system.EventTitle)
	assert.Contains(t, system.ContentSummary, "event_log_id="+created.EventID)
	assert.Equal(t, "bob", system.Recorder)
}

func TestEventServiceMigrationAuditPointsAtNewID(t *testing.T) {
	f := newEventServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, models.EventLog{EventName: "Line survey", OpportunityID: "OPP1", Creator: "alice"})
	require.NoError(t, err)

	newType := models.EventTypeIoT
	result, err := f.service.Update(ctx, created.EventID, store.EventLogUpdate{EventType: &newType}, "bob")
	require.NoError(t, err)
	require.True(t, result.Migrated)

	interactions, err := f.interactions.ByOpportunity(ctx, "OPP1")
	require.NoError(t, err)

	found := false
	for _, in := range interactions {
		if in.EventType == models.InteractionTypeSystem && in.EventTitle == "更新事件報告" {
			assert.Contains(t, in.ContentSummary, "event_log_id="+result.NewEventID)
			found = true
		}
	}
	assert.True(t, found, "expected an update audit referencing the migrated id")
}

func TestEventServiceDeleteWritesAuditAndRemovesEvent(t *testing.T) {
	f := newEventServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, models.EventLog{EventName: "Old report", OpportunityID: "OPP1", Creator: "alice"})
	require.NoError(t, err)

	_, err = f.service.Delete(ctx, created.EventID, "bob")
	require.NoError(t, err)

	_, err = f.events.ByID(ctx, created.EventID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	interactions, err := f.interactions.ByOpportunity(ctx, "OPP1")
	require.NoError(t, err)

	found := false
	for _, in := range interactions {
		if in.EventTitle == "刪除事件報告" {
			assert.Contains(t, in.ContentSummary, "bob")
			found = true
		}
	}
	assert.True(t, found)
}
