// ABOUTME: Reader and writer for the interaction audit sheet
// ABOUTME: Enforces the content lock on system-generated records during updates
package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/sheets"
)

// Interaction sheet columns.
const (
	colIntID = iota
	colIntOpportunityID
	colIntTime
	colIntEventType
	colIntEventTitle
	colIntSummary
	colIntParticipants
	colIntNextAction
	colIntAttachment
	colIntCalendarEventID
	colIntRecorder
	colIntCreatedTime
	colIntCompanyID
)

type InteractionReader struct {
	base
}

func NewInteractionReader(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger) *InteractionReader {
	return &InteractionReader{base: newBase(backend, c, cfg, log)}
}

// Interactions returns every interaction, newest first by interaction time.
func (r *InteractionReader) Interactions(ctx context.Context) ([]models.Interaction, error) {
	rng := r.cfg.Sheets.Interactions + "!A:M"

	parse := func(row []string, idx int) models.Interaction {
		return models.Interaction{
			RowIndex:        idx,
			InteractionID:   cell(row, colIntID),
			OpportunityID:   cell(row, colIntOpportunityID),
			InteractionTime: cell(row, colIntTime),
			EventType:       cell(row, colIntEventType),
			EventTitle:      cell(row, colIntEventTitle),
			ContentSummary:  cell(row, colIntSummary),
			Participants:    cell(row, colIntParticipants),
			NextAction:      cell(row, colIntNextAction),
			AttachmentLink:  cell(row, colIntAttachment),
			CalendarEventID: cell(row, colIntCalendarEventID),
			Recorder:        cell(row, colIntRecorder),
			CreatedTime:     cell(row, colIntCreatedTime),
			CompanyID:       cell(row, colIntCompanyID),
		}
	}

	less := func(a, b models.Interaction) bool {
		ta, okA := models.ParseSheetTime(a.InteractionTime)
		tb, okB := models.ParseSheetTime(b.InteractionTime)
		if !okB {
			return okA
		}
		if !okA {
			return false
		}
		return ta.After(tb)
	}

	return fetchCached(ctx, &r.base, keyInteractions, rng, parse, less)
}

// ByOpportunity returns the interactions linked to one opportunity.
func (r *InteractionReader) ByOpportunity(ctx context.Context, opportunityID string) ([]models.Interaction, error) {
	all, err := r.Interactions(ctx)
	if err != nil {
		return nil, err
	}
	var result []models.Interaction
	for _, in := range all {
		if in.OpportunityID == opportunityID {
			result = append(result, in)
		}
	}
	return result, nil
}

// ByID finds an interaction by id.
func (r *InteractionReader) ByID(ctx context.Context, interactionID string) (*models.Interaction, error) {
	all, err := r.Interactions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].InteractionID == interactionID {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: interaction %s", ErrNotFound, interactionID)
}

// InteractionUpdate carries the fields an interaction update may touch. On
// a protected record only InteractionTime (plus the modifier column) is
// honored; the rest are silently dropped, not merged.
type InteractionUpdate struct {
	InteractionTime *string `json:"interactionTime,omitempty"`
	EventType       *string `json:"eventType,omitempty"`
	ContentSummary  *string `json:"contentSummary,omitempty"`
	NextAction      *string `json:"nextAction,omitempty"`
}

type InteractionWriter struct {
	base
	reader *InteractionReader
}

func NewInteractionWriter(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger, reader *InteractionReader) *InteractionWriter {
	return &InteractionWriter{base: newBase(backend, c, cfg, log), reader: reader}
}

// Create appends an interaction. Opportunity last activity derives from
// interactions, so the opportunities cache is invalidated as well.
func (w *InteractionWriter) Create(ctx context.Context, in models.Interaction) (*models.Interaction, error) {
	now := time.Now().Format(time.RFC3339)
	in.InteractionID = newID("INT")
	if in.InteractionTime == "" {
		in.InteractionTime = now
	}
	in.CreatedTime = now

	row := []string{
		in.InteractionID, in.OpportunityID, in.InteractionTime, in.EventType,
		in.EventTitle, in.ContentSummary, in.Participants, in.NextAction,
		in.AttachmentLink, in.CalendarEventID, in.Recorder, in.CreatedTime,
		in.CompanyID,
	}
	if err := w.backend.Append(ctx, w.cfg.Sheets.Interactions+"!A:M", [][]string{row}); err != nil {
		return nil, fmt.Errorf("failed to create interaction: %w", err)
	}

	w.cache.Invalidate(keyInteractions, keyOpportunities)
	w.log.Info("interaction created",
		zap.String("interactionId", in.InteractionID),
		zap.String("opportunityId", in.OpportunityID),
		zap.String("eventType", in.EventType))
	return &in, nil
}

// Update applies an update to the interaction with the given id. The stored
// event type decides how much of the payload lands: protected types accept
// only the interaction time and the modifier; everything else is dropped.
func (w *InteractionWriter) Update(ctx context.Context, interactionID string, upd InteractionUpdate, modifier string) error {
	w.cache.Invalidate(keyInteractions)
	current, err := w.reader.ByID(ctx, interactionID)
	if err != nil {
		return err
	}

	rng := rowRange(w.cfg.Sheets.Interactions, current.RowIndex, colIntCompanyID+1)
	rows, err := w.backend.Read(ctx, rng)
	if err != nil {
		return fmt.Errorf("failed to read interaction row %d: %w", current.RowIndex, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: interaction %s vanished from row %d", ErrNotFound, interactionID, current.RowIndex)
	}
	row := rows[0]

	storedType := cell(row, colIntEventType)
	locked := models.IsProtectedInteractionType(storedType)

	if upd.InteractionTime != nil {
		row = setCell(row, colIntTime, *upd.InteractionTime)
	}
	row = setCell(row, colIntRecorder, modifier)

	if locked {
		w.log.Warn("interaction content locked, applying time and modifier only",
			zap.String("interactionId", interactionID),
			zap.String("eventType", storedType))
	} else {
		if upd.EventType != nil {
			row = setCell(row, colIntEventType, *upd.EventType)
		}
		if upd.ContentSummary != nil {
			row = setCell(row, colIntSummary, *upd.ContentSummary)
		}
		if upd.NextAction != nil {
			row = setCell(row, colIntNextAction, *upd.NextAction)
		}
	}

	if err := w.backend.Update(ctx, rng, [][]string{row}); err != nil {
		return fmt.Errorf("failed to update interaction %s: %w", interactionID, err)
	}

	w.cache.Invalidate(keyInteractions, keyOpportunities)
	w.log.Info("interaction updated", zap.String("interactionId", interactionID), zap.String("modifier", modifier))
	return nil
}

// Delete removes an interaction's physical row, re-resolving its position
// by id immediately beforehand.
func (w *InteractionWriter) Delete(ctx context.Context, interactionID string) error {
	w.cache.Invalidate(keyInteractions)
	current, err := w.reader.ByID(ctx, interactionID)
	if err != nil {
		return err
	}

	if err := w.backend.DeleteRow(ctx, w.cfg.Sheets.Interactions, current.RowIndex); err != nil {
		return fmt.Errorf("failed to delete interaction %s: %w", interactionID, err)
	}

	w.cache.Invalidate(keyInteractions, keyOpportunities)
	w.log.Info("interaction deleted", zap.String("interactionId", interactionID))
	return nil
}
