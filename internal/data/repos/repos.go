package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/relocation-intake/internal/data/repos/events"
	"github.com/yungbote/relocation-intake/internal/data/repos/intake"
	"github.com/yungbote/relocation-intake/internal/data/repos/jobs"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
)

type IntakeCaseRepo = intake.IntakeCaseRepo

type UserEventRepo = events.UserEventRepo
type UserSummaryRepo = events.UserSummaryRepo

type JobRunRepo = jobs.JobRunRepo

func NewIntakeCaseRepo(db *gorm.DB, baseLog *logger.Logger) IntakeCaseRepo {
	return intake.NewIntakeCaseRepo(db, baseLog)
}

func NewUserEventRepo(db *gorm.DB, baseLog *logger.Logger) UserEventRepo {
	return events.NewUserEventRepo(db, baseLog)
}
func NewUserSummaryRepo(db *gorm.DB, baseLog *logger.Logger) UserSummaryRepo {
	return events.NewUserSummaryRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
