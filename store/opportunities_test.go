// ABOUTME: Tests for opportunity reads, writes and the derived activity view
// ABOUTME: Exercises id-based row resolution and specification pricing
package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wllin/sheetcrm/models"
)

func opportunityRow(id, name, stage, created, updated string) []string {
	return []string{id, name, "COM1", stage, "owner", "0", models.ValueSourceManual, "", "", created, updated, "u", "u"}
}

type oppFixture struct {
	backend       *fakeBackend
	opportunities *OpportunityReader
	interactions  *InteractionReader
	oppWriter     *OpportunityWriter
	intWriter     *InteractionWriter
}

func newOppFixture(t *testing.T) *oppFixture {
	t.Helper()
	backend := newFakeBackend()
	backend.setSheet("opportunities", [][]string{{"opportunityId"}})
	backend.setSheet("interactions", [][]string{interactionHeader()})

	c := testCache()
	cfg := testConfig()
	interactions := NewInteractionReader(backend, c, cfg, nil)
	opportunities := NewOpportunityReader(backend, c, cfg, nil, interactions)
	return &oppFixture{
		backend:       backend,
		opportunities: opportunities,
		interactions:  interactions,
		oppWriter:     NewOpportunityWriter(backend, c, cfg, nil, opportunities),
		intWriter:     NewInteractionWriter(backend, c, cfg, nil, interactions),
	}
}

func TestEffectiveLastActivityFollowsInteractions(t *testing.T) {
	f := newOppFixture(t)
	f.backend.setSheet("opportunities", [][]string{
		{"opportunityId"},
		opportunityRow("OPP1", "Deal", "lead", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"),
	})

	ctx := context.Background()

	withActivity, err := f.opportunities.WithActivity(ctx)
	require.NoError(t, err)
	require.Len(t, withActivity, 1)
	assert.Equal(t, "2024-01-01T00:00:00Z", withActivity[0].EffectiveLastActivity)

	created, err := f.intWriter.Create(ctx, models.Interaction{
		OpportunityID:   "OPP1",
		InteractionTime: "2024-02-01T00:00:00Z",
		EventType:       "客戶拜訪",
	})
	require.NoError(t, err)

	withActivity, err = f.opportunities.WithActivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01T00:00:00Z", withActivity[0].EffectiveLastActivity,
		"a new interaction must surface through the invalidated cache")

	laterTime := "2024-03-01T00:00:00Z"
	err = f.intWriter.Update(ctx, created.InteractionID, InteractionUpdate{InteractionTime: &laterTime}, "u")
	require.NoError(t, err)

	withActivity, err = f.opportunities.WithActivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, laterTime, withActivity[0].EffectiveLastActivity)
}

func TestOpportunityUpdateResolvesRowAfterDelete(t *testing.T) {
	f := newOppFixture(t)
	f.backend.setSheet("opportunities", [][]string{
		{"opportunityId"},
		opportunityRow("OPP1", "First", "lead", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"),
		opportunityRow("OPP2", "Second", "lead", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"),
	})

	ctx := context.Background()

	// Prime the cache so OPP2 is remembered at row 3, then delete the row
	// above it.
	_, err := f.opportunities.Opportunities(ctx)
	require.NoError(t, err)
	require.NoError(t, f.oppWriter.Delete(ctx, "OPP1"))

	stage := "proposal"
	require.NoError(t, f.oppWriter.Update(ctx, "OPP2", OpportunityUpdate{Stage: &stage}, "u"))

	got, err := f.opportunities.ByID(ctx, "OPP2")
	require.NoError(t, err)
	assert.Equal(t, "proposal", got.Stage)
	assert.Equal(t, 2, got.RowIndex, "OPP2 shifted up after the delete")
}

func TestOpportunityCreateGeneratesID(t *testing.T) {
	f := newOppFixture(t)
	ctx := context.Background()

	created, err := f.oppWriter.Create(ctx, models.Opportunity{Name: "New deal", CompanyID: "COM1", Creator: "u"})
	require.NoError(t, err)
	assert.Contains(t, created.OpportunityID, "OPP")
	assert.Equal(t, models.ValueSourceManual, created.ValueSource)

	got, err := f.opportunities.ByID(ctx, created.OpportunityID)
	require.NoError(t, err)
	assert.Equal(t, "New deal", got.Name)
}

func TestOpportunityCreateRequiresName(t *testing.T) {
	f := newOppFixture(t)
	_, err := f.oppWriter.Create(context.Background(), models.Opportunity{})
	assert.Error(t, err)
}

func TestOpportunityChildren(t *testing.T) {
	f := newOppFixture(t)
	f.backend.setSheet("opportunities", [][]string{
		{"opportunityId"},
		opportunityRow("OPP1", "Parent", "lead", "", ""),
		{"OPP2", "Child A", "COM1", "lead", "owner", "0", models.ValueSourceManual, "", "OPP1", "", "", "u", "u"},
		{"OPP3", "Child B", "COM1", "lead", "owner", "0", models.ValueSourceManual, "", "OPP1", "", "", "u", "u"},
	})

	children, err := f.opportunities.Children(context.Background(), "OPP1")
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestComputeSpecificationValue(t *testing.T) {
	cfg := models.SystemConfig{
		SpecCategoryOrderable: {
			{Value: "sensor", Value2: "1000", Value3: "allow_quantity"},
			{Value: "setup", Value2: "5000", Value3: "boolean"},
		},
	}

	total, err := ComputeSpecificationValue(cfg, []SpecItem{
		{Spec: "sensor", Quantity: 3},
		{Spec: "setup", Quantity: 10},
	})
	require.NoError(t, err)
	// Only allow_quantity options multiply by quantity.
	assert.Equal(t, int64(3*1000+5000), total)

	total, err = ComputeSpecificationValue(cfg, []SpecItem{{Spec: "sensor"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), total, "quantity defaults to 1")

	_, err = ComputeSpecificationValue(cfg, []SpecItem{{Spec: "unknown"}})
	assert.Error(t, err)
}
