package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/relocation-intake/internal/domain"
	"github.com/yungbote/relocation-intake/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
)

// UserEventRepo is insert-only: there is no update or delete path for events.
type UserEventRepo interface {
	NextEventID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	Create(dbc dbctx.Context, e *types.UserEvent) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserEvent, error)
	ListByType(dbc dbctx.Context, userID uuid.UUID, eventType string) ([]*types.UserEvent, error)
	ListLatest(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserEvent, error)
}

type userEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserEventRepo(db *gorm.DB, baseLog *logger.Logger) UserEventRepo {
	return &userEventRepo{db: db, log: baseLog.With("repo", "UserEventRepo")}
}

func (r *userEventRepo) NextEventID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("%w: user id required", pkgerrors.ErrInvalidArgument)
	}
	var maxID int64
	err := dbc.Resolve(r.db).
		Model(&types.UserEvent{}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(event_id), 0)").
		Scan(&maxID).Error
	if err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

// Create inserts e. A concurrent writer that took the same event id surfaces as
// gorm.ErrDuplicatedKey.
func (r *userEventRepo) Create(dbc dbctx.Context, e *types.UserEvent) error {
	if e == nil || e.UserID == uuid.Nil || e.EventID < 1 {
		return fmt.Errorf("%w: event needs user id and event id", pkgerrors.ErrInvalidArgument)
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return dbc.Resolve(r.db).Create(e).Error
}

func (r *userEventRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserEvent, error) {
	var out []*types.UserEvent
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Resolve(r.db).
		Where("user_id = ?", userID).
		Order("event_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByType returns events of one type in ascending order. A nil userID spans all users.
func (r *userEventRepo) ListByType(dbc dbctx.Context, userID uuid.UUID, eventType string) ([]*types.UserEvent, error) {
	var out []*types.UserEvent
	q := dbc.Resolve(r.db).Where("type = ?", eventType)
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Order("occurred_at ASC").Order("event_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListLatest returns the newest events first. A nil userID spans all users.
func (r *userEventRepo) ListLatest(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var out []*types.UserEvent
	q := dbc.Resolve(r.db)
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID).Order("event_id DESC")
	} else {
		q = q.Order("occurred_at DESC").Order("event_id DESC")
	}
	if err := q.Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
