package intake

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/relocation-intake/internal/domain"
	"github.com/yungbote/relocation-intake/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
)

type IntakeCaseRepo interface {
	Create(dbc dbctx.Context, rec *types.IntakeCase) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.IntakeCase, error)
	GetByOwnerAndID(dbc dbctx.Context, ownerUserID uuid.UUID, id uuid.UUID) (*types.IntakeCase, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.IntakeCase, error)
	Save(dbc dbctx.Context, rec *types.IntakeCase) error
	LockByID(dbc dbctx.Context, id uuid.UUID) error
}

type intakeCaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIntakeCaseRepo(db *gorm.DB, baseLog *logger.Logger) IntakeCaseRepo {
	return &intakeCaseRepo{
		db:  db,
		log: baseLog.With("repo", "IntakeCaseRepo"),
	}
}

func (r *intakeCaseRepo) Create(dbc dbctx.Context, rec *types.IntakeCase) error {
	if rec == nil || rec.ID == uuid.Nil {
		return fmt.Errorf("%w: case id required", pkgerrors.ErrInvalidArgument)
	}
	return dbc.Resolve(r.db).Create(rec).Error
}

// GetByID returns nil, nil when no row exists.
func (r *intakeCaseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.IntakeCase, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rec types.IntakeCase
	if err := dbc.Resolve(r.db).Where("id = ?", id).Limit(1).Find(&rec).Error; err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *intakeCaseRepo) GetByOwnerAndID(dbc dbctx.Context, ownerUserID uuid.UUID, id uuid.UUID) (*types.IntakeCase, error) {
	if ownerUserID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var rec types.IntakeCase
	if err := dbc.Resolve(r.db).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Limit(1).
		Find(&rec).Error; err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *intakeCaseRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.IntakeCase, error) {
	var out []*types.IntakeCase
	if ownerUserID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if err := dbc.Resolve(r.db).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save overwrites the stored document and its mirrored columns. Last write wins.
func (r *intakeCaseRepo) Save(dbc dbctx.Context, rec *types.IntakeCase) error {
	if rec == nil || rec.ID == uuid.Nil {
		return fmt.Errorf("%w: case id required", pkgerrors.ErrInvalidArgument)
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	res := dbc.Resolve(r.db).
		Model(&types.IntakeCase{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"current_round": rec.CurrentRound,
			"max_rounds":    rec.MaxRounds,
			"is_complete":   rec.IsComplete,
			"state":         rec.State,
			"updated_at":    updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("case %s: %w", rec.ID, pkgerrors.ErrNotFound)
	}
	return nil
}

// LockByID takes a row lock on the case for the rest of dbc.Tx. It is a plain read on
// drivers without row locking.
func (r *intakeCaseRepo) LockByID(dbc dbctx.Context, id uuid.UUID) error {
	var rec types.IntakeCase
	res := dbc.Resolve(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		Limit(1).
		Find(&rec)
	if res.Error != nil {
		return res.Error
	}
	if rec.ID == uuid.Nil {
		return fmt.Errorf("case %s: %w", id, pkgerrors.ErrNotFound)
	}
	return nil
}
