// ABOUTME: Reader and writer for the opportunity sheet
// ABOUTME: Derived effective-last-activity listing and specification-based value computation
package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/sheets"
)

// Opportunity sheet columns.
const (
	colOppID = iota
	colOppName
	colOppCompanyID
	colOppStage
	colOppAssignee
	colOppValue
	colOppValueSource
	colOppSpecification
	colOppParentID
	colOppCreatedTime
	colOppUpdateTime
	colOppCreator
	colOppModifier
)

// SpecCategoryOrderable is the system-config category holding orderable
// specifications with unit prices.
const SpecCategoryOrderable = "可能下單規格"

type OpportunityReader struct {
	base
	interactions *InteractionReader
}

func NewOpportunityReader(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger, interactions *InteractionReader) *OpportunityReader {
	return &OpportunityReader{base: newBase(backend, c, cfg, log), interactions: interactions}
}

// Opportunities returns every opportunity row.
func (r *OpportunityReader) Opportunities(ctx context.Context) ([]models.Opportunity, error) {
	rng := r.cfg.Sheets.Opportunities + "!A:M"

	parse := func(row []string, idx int) models.Opportunity {
		value, _ := strconv.ParseInt(cell(row, colOppValue), 10, 64)
		return models.Opportunity{
			RowIndex:       idx,
			OpportunityID:  cell(row, colOppID),
			Name:           cell(row, colOppName),
			CompanyID:      cell(row, colOppCompanyID),
			Stage:          cell(row, colOppStage),
			Assignee:       cell(row, colOppAssignee),
			Value:          value,
			ValueSource:    cell(row, colOppValueSource),
			Specification:  cell(row, colOppSpecification),
			ParentID:       cell(row, colOppParentID),
			CreatedTime:    cell(row, colOppCreatedTime),
			LastUpdateTime: cell(row, colOppUpdateTime),
			Creator:        cell(row, colOppCreator),
			LastModifier:   cell(row, colOppModifier),
		}
	}

	return fetchCached(ctx, &r.base, keyOpportunities, rng, parse, nil)
}

// ByID finds an opportunity by id.
func (r *OpportunityReader) ByID(ctx context.Context, opportunityID string) (*models.Opportunity, error) {
	opportunities, err := r.Opportunities(ctx)
	if err != nil {
		return nil, err
	}
	for i := range opportunities {
		if opportunities[i].OpportunityID == opportunityID {
			return &opportunities[i], nil
		}
	}
	return nil, fmt.Errorf("%w: opportunity %s", ErrNotFound, opportunityID)
}

// Children returns the direct child opportunities of a parent.
func (r *OpportunityReader) Children(ctx context.Context, parentID string) ([]models.Opportunity, error) {
	opportunities, err := r.Opportunities(ctx)
	if err != nil {
		return nil, err
	}
	var children []models.Opportunity
	for _, o := range opportunities {
		if o.ParentID == parentID {
			children = append(children, o)
		}
	}
	return children, nil
}

// OpportunityWithActivity decorates an opportunity with its derived
// effective last activity.
type OpportunityWithActivity struct {
	models.Opportunity
	EffectiveLastActivity string `json:"effectiveLastActivity"`
}

// WithActivity returns every opportunity decorated with its effective last
// activity (max of its own update time and the latest linked interaction),
// most recently active first. The value is derived on every call; cache
// invalidation on interaction writes is what keeps it honest.
func (r *OpportunityReader) WithActivity(ctx context.Context) ([]OpportunityWithActivity, error) {
	var (
		opportunities []models.Opportunity
		interactions  []models.Interaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { opportunities, err = r.Opportunities(gctx); return })
	g.Go(func() (err error) { interactions, err = r.interactions.Interactions(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]OpportunityWithActivity, len(opportunities))
	for i, opp := range opportunities {
		t, ok := models.EffectiveLastActivity(opp, interactions)
		result[i] = OpportunityWithActivity{Opportunity: opp}
		if ok {
			result[i].EffectiveLastActivity = t.Format(time.RFC3339)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, okA := models.ParseSheetTime(result[i].EffectiveLastActivity)
		b, okB := models.ParseSheetTime(result[j].EffectiveLastActivity)
		if !okB {
			return okA
		}
		if !okA {
			return false
		}
		return a.After(b)
	})
	return result, nil
}

// SpecItem is one orderable-specification line used to compute an
// opportunity's value.
type SpecItem struct {
	Spec     string `json:"spec"`
	Quantity int    `json:"quantity"`
}

// ComputeSpecificationValue prices a set of specification items against the
// orderable-specification config category. Value2 is the unit price; only
// options flagged allow_quantity multiply by the item quantity.
func ComputeSpecificationValue(cfg models.SystemConfig, items []SpecItem) (int64, error) {
	options := cfg[SpecCategoryOrderable]
	priced := make(map[string]models.ConfigOption, len(options))
	for _, opt := range options {
		priced[opt.Value] = opt
	}

	var total int64
	for _, item := range items {
		opt, ok := priced[item.Spec]
		if !ok {
			return 0, fmt.Errorf("unknown specification %q", item.Spec)
		}
		unit, err := strconv.ParseInt(opt.Value2, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("specification %q has no numeric unit price: %w", item.Spec, err)
		}
		if opt.Value3 == "allow_quantity" {
			qty := item.Quantity
			if qty < 1 {
				qty = 1
			}
			total += unit * int64(qty)
		} else {
			total += unit
		}
	}
	return total, nil
}

// OpportunityUpdate carries the updatable opportunity fields.
type OpportunityUpdate struct {
	Name          *string `json:"name,omitempty"`
	CompanyID     *string `json:"companyId,omitempty"`
	Stage         *string `json:"stage,omitempty"`
	Assignee      *string `json:"assignee,omitempty"`
	Value         *int64  `json:"value,omitempty"`
	ValueSource   *string `json:"valueSource,omitempty"`
	Specification *string `json:"specification,omitempty"`
	ParentID      *string `json:"parentId,omitempty"`
}

type OpportunityWriter struct {
	base
	reader *OpportunityReader
}

func NewOpportunityWriter(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger, reader *OpportunityReader) *OpportunityWriter {
	return &OpportunityWriter{base: newBase(backend, c, cfg, log), reader: reader}
}

// Create appends an opportunity with a generated id.
func (w *OpportunityWriter) Create(ctx context.Context, opp models.Opportunity) (*models.Opportunity, error) {
	if opp.Name == "" {
		return nil, fmt.Errorf("opportunity name is required")
	}

	now := time.Now().Format(time.RFC3339)
	opp.OpportunityID = newID("OPP")
	opp.CreatedTime = now
	opp.LastUpdateTime = now
	opp.LastModifier = opp.Creator
	if opp.ValueSource == "" {
		opp.ValueSource = models.ValueSourceManual
	}

	row := []string{
		opp.OpportunityID, opp.Name, opp.CompanyID, opp.Stage, opp.Assignee,
		strconv.FormatInt(opp.Value, 10), opp.ValueSource, opp.Specification,
		opp.ParentID, opp.CreatedTime, opp.LastUpdateTime, opp.Creator, opp.LastModifier,
	}
	if err := w.backend.Append(ctx, w.cfg.Sheets.Opportunities+"!A:M", [][]string{row}); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}

	w.cache.Invalidate(keyOpportunities)
	w.log.Info("opportunity created", zap.String("opportunityId", opp.OpportunityID), zap.String("name", opp.Name))
	return &opp, nil
}

// Update merges the provided fields into the opportunity row. The row
// position is resolved fresh by id immediately before the write; a
// caller-captured rowIndex is never trusted across requests.
func (w *OpportunityWriter) Update(ctx context.Context, opportunityID string, upd OpportunityUpdate, modifier string) error {
	w.cache.Invalidate(keyOpportunities)
	opp, err := w.reader.ByID(ctx, opportunityID)
	if err != nil {
		return err
	}

	rng := rowRange(w.cfg.Sheets.Opportunities, opp.RowIndex, colOppModifier+1)
	rows, err := w.backend.Read(ctx, rng)
	if err != nil {
		return fmt.Errorf("failed to read opportunity row %d: %w", opp.RowIndex, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: opportunity %s vanished from row %d", ErrNotFound, opportunityID, opp.RowIndex)
	}

	row := rows[0]
	applyStr := func(col int, v *string) {
		if v != nil {
			row = setCell(row, col, *v)
		}
	}
	applyStr(colOppName, upd.Name)
	applyStr(colOppCompanyID, upd.CompanyID)
	applyStr(colOppStage, upd.Stage)
	applyStr(colOppAssignee, upd.Assignee)
	applyStr(colOppValueSource, upd.ValueSource)
	applyStr(colOppSpecification, upd.Specification)
	applyStr(colOppParentID, upd.ParentID)
	if upd.Value != nil {
		row = setCell(row, colOppValue, strconv.FormatInt(*upd.Value, 10))
	}
	row = setCell(row, colOppUpdateTime, time.Now().Format(time.RFC3339))
	row = setCell(row, colOppModifier, modifier)

	if err := w.backend.Update(ctx, rng, [][]string{row}); err != nil {
		return fmt.Errorf("failed to update opportunity %s: %w", opportunityID, err)
	}

	w.cache.Invalidate(keyOpportunities)
	w.log.Info("opportunity updated", zap.String("opportunityId", opportunityID), zap.String("modifier", modifier))
	return nil
}

// Delete removes the opportunity's physical row, re-resolving its current
// position by id first. Deleting shifts every row below up by one, which is
// why stored row indices go stale.
func (w *OpportunityWriter) Delete(ctx context.Context, opportunityID string) error {
	w.cache.Invalidate(keyOpportunities)
	opp, err := w.reader.ByID(ctx, opportunityID)
	if err != nil {
		return err
	}

	if err := w.backend.DeleteRow(ctx, w.cfg.Sheets.Opportunities, opp.RowIndex); err != nil {
		return fmt.Errorf("failed to delete opportunity %s: %w", opportunityID, err)
	}

	w.cache.Invalidate(keyOpportunities)
	w.log.Info("opportunity deleted", zap.String("opportunityId", opportunityID), zap.Int("rowIndex", opp.RowIndex))
	return nil
}
