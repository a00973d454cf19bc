package events

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/relocation-intake/internal/domain"
	"github.com/yungbote/relocation-intake/internal/pkg/dbctx"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
)

type UserSummaryRepo interface {
	Upsert(dbc dbctx.Context, s *types.UserSummary) error
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserSummary, error)
}

type userSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserSummaryRepo(db *gorm.DB, baseLog *logger.Logger) UserSummaryRepo {
	return &userSummaryRepo{db: db, log: baseLog.With("repo", "UserSummaryRepo")}
}

// Upsert replaces the whole projection row for s.UserID.
func (r *userSummaryRepo) Upsert(dbc dbctx.Context, s *types.UserSummary) error {
	if s == nil || s.UserID == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(s).Error
}

func (r *userSummaryRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserSummary, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var s types.UserSummary
	if err := dbc.Resolve(r.db).Where("user_id = ?", userID).Limit(1).Find(&s).Error; err != nil {
		return nil, err
	}
	if s.UserID == uuid.Nil {
		return nil, nil
	}
	return &s, nil
}
