package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/relocation-intake/internal/data/repos"
	types "github.com/yungbote/relocation-intake/internal/domain"
	"github.com/yungbote/relocation-intake/internal/domain/events"
	"github.com/yungbote/relocation-intake/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
)

// EventLog appends immutable user events and keeps each user's summary in step with them.
type EventLog interface {
	// AddEvent assigns the next event id for e.UserID, stores e, and recomputes the user's
	// summary from the full history, all in one transaction. It opens its own transaction,
	// so do not call it while holding one.
	AddEvent(ctx context.Context, e *types.UserEvent) (*types.UserEvent, error)
	ListUserEvents(ctx context.Context, userID uuid.UUID) ([]*types.UserEvent, error)
	// ListEventsByType lists events of one type; uuid.Nil means every user.
	ListEventsByType(ctx context.Context, userID uuid.UUID, eventType string) ([]*types.UserEvent, error)
	// ListLatestEvents lists the newest events first; uuid.Nil means every user.
	ListLatestEvents(ctx context.Context, userID uuid.UUID, limit int) ([]*types.UserEvent, error)
	GetUserSummary(ctx context.Context, userID uuid.UUID) (*types.UserSummary, error)
}

const addEventAttempts = 3

type eventLog struct {
	db               *gorm.DB
	log              *logger.Logger
	events           repos.UserEventRepo
	summaries        repos.UserSummaryRepo
	defaultMaxRounds int
}

func NewEventLog(db *gorm.DB, baseLog *logger.Logger, eventRepo repos.UserEventRepo, summaryRepo repos.UserSummaryRepo, defaultMaxRounds int) EventLog {
	return &eventLog{
		db:               db,
		log:              baseLog.With("service", "EventLog"),
		events:           eventRepo,
		summaries:        summaryRepo,
		defaultMaxRounds: defaultMaxRounds,
	}
}

func (s *eventLog) AddEvent(ctx context.Context, e *types.UserEvent) (*types.UserEvent, error) {
	if e == nil || e.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: event needs a user id", pkgerrors.ErrInvalidArgument)
	}
	e.Type = strings.TrimSpace(e.Type)
	if !events.IsEventType(e.Type) {
		return nil, fmt.Errorf("%w: unknown event type %q", pkgerrors.ErrInvalidArgument, e.Type)
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	var err error
	for attempt := 1; attempt <= addEventAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			next, err := s.events.NextEventID(dbc, e.UserID)
			if err != nil {
				return err
			}
			e.ID = uuid.Nil
			e.EventID = next
			if err := s.events.Create(dbc, e); err != nil {
				return err
			}
			return s.recompute(dbc, e.UserID)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.log.Debug("Event id taken by a concurrent writer; retrying", "user_id", e.UserID, "attempt", attempt)
	}
	if err != nil {
		return nil, fmt.Errorf("add event: %w", err)
	}
	return e, nil
}

func (s *eventLog) recompute(dbc dbctx.Context, userID uuid.UUID) error {
	history, err := s.events.ListByUser(dbc, userID)
	if err != nil {
		return err
	}
	flat := make([]events.UserEvent, 0, len(history))
	for _, h := range history {
		flat = append(flat, *h)
	}
	summary := events.Summarize(userID, flat, s.defaultMaxRounds)
	return s.summaries.Upsert(dbc, &summary)
}

func (s *eventLog) ListUserEvents(ctx context.Context, userID uuid.UUID) ([]*types.UserEvent, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id required", pkgerrors.ErrInvalidArgument)
	}
	return s.events.ListByUser(dbctx.Context{Ctx: ctx}, userID)
}

func (s *eventLog) ListEventsByType(ctx context.Context, userID uuid.UUID, eventType string) ([]*types.UserEvent, error) {
	if !events.IsEventType(eventType) {
		return nil, fmt.Errorf("%w: unknown event type %q", pkgerrors.ErrInvalidArgument, eventType)
	}
	return s.events.ListByType(dbctx.Context{Ctx: ctx}, userID, eventType)
}

func (s *eventLog) ListLatestEvents(ctx context.Context, userID uuid.UUID, limit int) ([]*types.UserEvent, error) {
	return s.events.ListLatest(dbctx.Context{Ctx: ctx}, userID, limit)
}

func (s *eventLog) GetUserSummary(ctx context.Context, userID uuid.UUID) (*types.UserSummary, error) {
	sum, err := s.summaries.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	if sum == nil {
		return nil, fmt.Errorf("summary for user %s: %w", userID, pkgerrors.ErrNotFound)
	}
	return sum, nil
}
