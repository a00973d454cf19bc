package intake_round

import (
	"github.com/yungbote/relocation-intake/internal/domain/jobs"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
	"github.com/yungbote/relocation-intake/internal/services"
)

type Pipeline struct {
	log    *logger.Logger
	intake services.IntakeService
}

func New(baseLog *logger.Logger, intake services.IntakeService) *Pipeline {
	return &Pipeline{
		log:    baseLog.With("job", jobs.JobTypeIntakeRound),
		intake: intake,
	}
}

func (p *Pipeline) Type() string { return jobs.JobTypeIntakeRound }
