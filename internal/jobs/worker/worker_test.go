package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"

	"github.com/yungbote/relocation-intake/internal/data/repos"
	"github.com/yungbote/relocation-intake/internal/data/repos/testutil"
	"github.com/yungbote/relocation-intake/internal/domain/intake"
	domainjobs "github.com/yungbote/relocation-intake/internal/domain/jobs"
	"github.com/yungbote/relocation-intake/internal/gateway"
	"github.com/yungbote/relocation-intake/internal/gateway/gatewaytest"
	"github.com/yungbote/relocation-intake/internal/jobs/pipeline/intake_round"
	"github.com/yungbote/relocation-intake/internal/jobs/runtime"
	"github.com/yungbote/relocation-intake/internal/pkg/dbctx"
	"github.com/yungbote/relocation-intake/internal/services"
)

type funcHandler struct {
	t  string
	fn func(*runtime.Context) error
}

func (h funcHandler) Type() string                  { return h.t }
func (h funcHandler) Run(jc *runtime.Context) error { return h.fn(jc) }

func newTestWorker(t *testing.T, db *gorm.DB, handlers ...runtime.Handler) (*Worker, repos.JobRunRepo) {
	t.Helper()
	log := testutil.Logger(t)
	repo := repos.NewJobRunRepo(db, log)
	reg := runtime.NewRegistry()
	for _, h := range handlers {
		require.NoError(t, reg.Register(h))
	}
	return NewWorker(db, log, repo, reg, services.NewJobNotifier(nil), Config{PollInterval: 5 * time.Millisecond}), repo
}

func jobStatus(t *testing.T, repo repos.JobRunRepo, id uuid.UUID) (string, string) {
	t.Helper()
	job, err := repo.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job.Status, job.Stage
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	owner := uuid.New()

	w, repo := newTestWorker(t, db,
		funcHandler{t: "ok_job", fn: func(jc *runtime.Context) error {
			return jc.Succeed(domainjobs.StageDone, map[string]any{"n": 1})
		}},
		funcHandler{t: "panicky_job", fn: func(*runtime.Context) error { panic("boom") }},
	)

	ok := testutil.SeedJob(t, ctx, db, owner, "ok_job", domainjobs.StatusQueued, nil)
	require.True(t, w.RunOnce(ctx, 1))
	status, stage := jobStatus(t, repo, ok.ID)
	require.Equal(t, domainjobs.StatusSucceeded, status)
	require.Equal(t, domainjobs.StageDone, stage)
	require.False(t, w.RunOnce(ctx, 1), "queue should be empty")

	orphan := testutil.SeedJob(t, ctx, db, owner, "unknown_job", domainjobs.StatusQueued, nil)
	require.True(t, w.RunOnce(ctx, 1))
	status, stage = jobStatus(t, repo, orphan.ID)
	require.Equal(t, domainjobs.StatusFailed, status)
	require.Equal(t, "dispatch", stage)

	p := testutil.SeedJob(t, ctx, db, owner, "panicky_job", domainjobs.StatusQueued, nil)
	require.True(t, w.RunOnce(ctx, 1))
	status, stage = jobStatus(t, repo, p.ID)
	require.Equal(t, domainjobs.StatusFailed, status)
	require.Equal(t, "panic", stage)
}

func TestWorkerProcessesIntakeRound(t *testing.T) {
	db := testutil.DB(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	log := testutil.Logger(t)
	gw := gatewaytest.New("Move to Portugal")
	gw.FollowUps = []gateway.FollowUps{gatewaytest.Ask(3, "r1"), gatewaytest.Ask(3, "r2")}

	jobRuns := repos.NewJobRunRepo(db, log)
	events := services.NewEventLog(db, log, repos.NewUserEventRepo(db, log), repos.NewUserSummaryRepo(db, log), intake.DefaultMaxRounds)
	jobs := services.NewJobService(log, jobRuns, services.NewJobNotifier(nil))
	svc := services.NewIntakeService(db, log, repos.NewIntakeCaseRepo(db, log), jobRuns, jobs, gw, events, services.IntakeConfig{MaxRounds: 3})

	owner := uuid.New()
	ctx := context.Background()
	first, err := svc.SubmitInitialAnswers(ctx, owner, map[string]string{"goal": "Move to Portugal"})
	require.NoError(t, err)
	require.Len(t, first.Questions, 3)

	answers := map[string]string{}
	for _, q := range first.Questions {
		answers[q.ID] = "answer"
	}
	job, err := svc.BeginFollowUpRound(ctx, owner, first.CaseID, answers)
	require.NoError(t, err)

	reg := runtime.NewRegistry()
	require.NoError(t, reg.Register(intake_round.New(log, svc)))
	w := NewWorker(db, log, jobRuns, reg, services.NewJobNotifier(nil), Config{PollInterval: 5 * time.Millisecond})

	runCtx, cancel := context.WithCancel(ctx)
	w.Start(runCtx)

	var st *services.RoundStatus
	require.Eventually(t, func() bool {
		st, err = svc.PollRoundStatus(ctx, owner, job.ID)
		return err == nil && st.Status != services.RoundProcessing
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, w.Wait())

	require.Equal(t, services.RoundCompleted, st.Status)
	require.NotNil(t, st.Result)
	require.Equal(t, 2, st.Result.NextRound)
	require.Len(t, st.Result.Questions, 3)
}
