package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/relocation-intake/internal/domain"
	"github.com/yungbote/relocation-intake/internal/domain/intake"
	"github.com/yungbote/relocation-intake/internal/gateway"
)

func (s *intakeService) event(state intake.CaseState, typ string, round *int, meta map[string]any) *types.UserEvent {
	caseID := state.Meta.CaseID
	var raw datatypes.JSON
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			raw = datatypes.JSON(b)
		}
	}
	return &types.UserEvent{
		CaseID:    &caseID,
		Type:      typ,
		Round:     round,
		MaxRounds: state.Meta.MaxRounds,
		Metadata:  raw,
	}
}

func (s *intakeService) completedEvent(state intake.CaseState, reasoning string) *types.UserEvent {
	return s.event(state, types.EventAssessmentCompleted, nil, map[string]any{
		"reasoning": reasoning,
		"rounds":    state.AnsweredRounds(),
	})
}

// emitRoundOutcome records the model's follow-up judgment for round, the questions it led
// to, and the completion if there was one.
func (s *intakeService) emitRoundOutcome(ctx context.Context, userID uuid.UUID, state intake.CaseState, round int, asked []intake.QAEntry, fu gateway.FollowUps, reasoning string) {
	r := round
	evs := []*types.UserEvent{
		s.event(state, types.EventLLMAnalysis, &r, map[string]any{
			"reasoning":      fu.Reasoning,
			"is_complete":    fu.IsComplete,
			"degraded":       fu.Degraded,
			"question_count": len(fu.Questions),
		}),
	}
	for _, q := range asked {
		qr := q.Round
		ev := s.event(state, types.EventFollowUpQuestion, &qr, map[string]any{"entry_id": q.ID, "reason": q.Reason})
		ev.Question = q.Question
		ev.Category = string(q.Category)
		evs = append(evs, ev)
	}
	if state.Meta.IsComplete {
		evs = append(evs, s.completedEvent(state, reasoning))
	}
	s.emit(ctx, userID, state, evs...)
}

func (s *intakeService) emitAnswers(ctx context.Context, userID uuid.UUID, state intake.CaseState, round int, outcomes []intake.AnswerOutcome) {
	byID := make(map[string]intake.QAEntry, len(state.QALog))
	for _, e := range state.QALog {
		byID[e.ID] = e
	}
	evs := make([]*types.UserEvent, 0, len(outcomes))
	for _, o := range outcomes {
		e, ok := byID[o.EntryID]
		if !ok || !o.Applied() {
			continue
		}
		r := round
		ev := s.event(state, types.EventFollowUpAnswer, &r, map[string]any{"entry_id": e.ID, "status": o.Status})
		ev.Question = e.Question
		ev.Answer = e.Answer
		ev.Category = string(e.Category)
		evs = append(evs, ev)
	}
	s.emit(ctx, userID, state, evs...)
}

// emit appends events in order. Failures are logged; they never fail the round.
func (s *intakeService) emit(ctx context.Context, userID uuid.UUID, state intake.CaseState, evs ...*types.UserEvent) {
	if s.events == nil {
		return
	}
	for _, ev := range evs {
		ev.UserID = userID
		if _, err := s.events.AddEvent(ctx, ev); err != nil {
			s.log.Warn("Event log write failed", "case_id", state.Meta.CaseID, "type", ev.Type, "error", err)
		}
	}
}
