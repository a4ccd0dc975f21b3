// ABOUTME: Event log orchestration with the best-effort audit side-channel
// ABOUTME: Every event mutation synthesizes a companion interaction record
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/store"
)

type EventLogService struct {
	reader       *store.EventLogReader
	writer       *store.EventLogWriter
	interactions *store.InteractionWriter
	log          *zap.Logger
}

func NewEventLogService(reader *store.EventLogReader, writer *store.EventLogWriter, interactions *store.InteractionWriter, log *zap.Logger) *EventLogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventLogService{reader: reader, writer: writer, interactions: interactions, log: log}
}

// Create stores an event log and synthesizes a companion 事件報告
// interaction pointing back at it. The audit record is best effort: its
// failure is logged and never fails the event itself.
func (s *EventLogService) Create(ctx context.Context, e models.EventLog) (*store.EventWriteResult, error) {
	result, err := s.writer.Create(ctx, e)
	if err != nil {
		return nil, err
	}

	title := e.EventName
	if title == "" {
		title = "建立事件紀錄報告"
	}
	s.audit(ctx, models.Interaction{
		OpportunityID:   e.OpportunityID,
		CompanyID:       e.CompanyID,
		InteractionTime: result.CreatedTime,
		EventType:       models.InteractionTypeEventReport,
		EventTitle:      title,
		ContentSummary:  fmt.Sprintf("已建立事件報告: %q. [點此查看報告](event_log_id=%s)", e.EventName, result.EventID),
		Participants:    fmt.Sprintf("%s (我方), %s (客戶方)", e.OurParticipants, e.ClientParticipants),
		Recorder:        e.Creator,
	})
	return result, nil
}

// Update applies an event update (possibly migrating it to another type's
// sheet) and records a 系統事件 interaction. After a migration the audit
// link points at the new event id, since the old one no longer resolves.
func (s *EventLogService) Update(ctx context.Context, eventID string, upd store.EventLogUpdate, modifier string) (*store.EventWriteResult, error) {
	result, err := s.writer.Update(ctx, eventID, upd, modifier)
	if err != nil {
		return nil, err
	}

	currentID := eventID
	if result.Migrated {
		currentID = result.NewEventID
	}
	if current, err := s.reader.ByID(ctx, currentID); err == nil {
		s.audit(ctx, models.Interaction{
			OpportunityID:  current.OpportunityID,
			CompanyID:      current.CompanyID,
			EventType:      models.InteractionTypeSystem,
			EventTitle:     "更新事件報告",
			ContentSummary: fmt.Sprintf("更新了事件報告: %q. [點此查看報告](event_log_id=%s)", current.EventName, currentID),
			Recorder:       modifier,
		})
	} else {
		s.log.Warn("skipping update audit, event not readable", zap.String("eventId", currentID), zap.Error(err))
	}
	return result, nil
}

// Delete removes an event log and records a 系統事件 interaction naming
// who deleted it.
func (s *EventLogService) Delete(ctx context.Context, eventID, modifier string) (*store.EventWriteResult, error) {
	deleted, err := s.writer.Delete(ctx, eventID, modifier)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, models.Interaction{
		OpportunityID:  deleted.OpportunityID,
		CompanyID:      deleted.CompanyID,
		EventType:      models.InteractionTypeSystem,
		EventTitle:     "刪除事件報告",
		ContentSummary: fmt.Sprintf("事件報告 %q 已被 %s 刪除。", deleted.EventName, modifier),
		Recorder:       modifier,
	})
	return &store.EventWriteResult{EventID: eventID}, nil
}

func (s *EventLogService) audit(ctx context.Context, in models.Interaction) {
	if _, err := s.interactions.Create(ctx, in); err != nil {
		s.log.Warn("failed to create audit interaction",
			zap.String("eventTitle", in.EventTitle),
			zap.Error(err))
		return
	}
	s.log.Debug("audit interaction created", zap.String("eventTitle", in.EventTitle))
}
