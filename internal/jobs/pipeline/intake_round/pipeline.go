package intake_round

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	domainjobs "github.com/yungbote/relocation-intake/internal/domain/jobs"
	jobrt "github.com/yungbote/relocation-intake/internal/jobs/runtime"
	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
)

// Run processes one follow-up round. Failures are terminal; the caller resubmits.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	caseID, ok := jc.PayloadUUID("case_id")
	if !ok || caseID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("%w: missing case_id", pkgerrors.ErrInvalidArgument))
		return nil
	}
	answers := jc.PayloadStringMap("answers")
	if len(answers) == 0 {
		jc.Fail("validate", fmt.Errorf("%w: missing answers", pkgerrors.ErrInvalidArgument))
		return nil
	}

	jc.Progress("merging", 10, "Incorporating your answers")
	res, err := p.intake.ProcessFollowUpRound(jc.Ctx, jc.Job.OwnerUserID, caseID, answers)
	if err != nil {
		p.log.Warn("Round failed", "job_id", jc.Job.ID, "case_id", caseID, "error", err)
		jc.Fail(failStage(err), err)
		return nil
	}
	return jc.Succeed(domainjobs.StageDone, res)
}

func failStage(err error) string {
	switch {
	case errors.Is(err, pkgerrors.ErrGateway):
		return "gateway"
	case errors.Is(err, pkgerrors.ErrNotFound), errors.Is(err, pkgerrors.ErrCorruptState):
		return "load"
	case errors.Is(err, pkgerrors.ErrInvalidArgument), errors.Is(err, pkgerrors.ErrCaseComplete):
		return "validate"
	default:
		return "run"
	}
}
