package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	types "github.com/yungbote/relocation-intake/internal/domain"
	"github.com/yungbote/relocation-intake/internal/domain/intake"
	domainjobs "github.com/yungbote/relocation-intake/internal/domain/jobs"
	"github.com/yungbote/relocation-intake/internal/gateway"
	"github.com/yungbote/relocation-intake/internal/gateway/gatewaytest"
	"github.com/yungbote/relocation-intake/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
	"github.com/yungbote/relocation-intake/internal/realtime"
)

func TestSubmitInitialAnswersOpensRoundOne(t *testing.T) {
	f := newFixture(t)
	f.gw.FollowUps = []gateway.FollowUps{gatewaytest.Ask(4, "r1")}
	ctx := context.Background()

	res, err := f.intake.SubmitInitialAnswers(ctx, f.owner, map[string]string{"destination": "Italy", "empty": "  "})
	require.NoError(t, err)
	require.Equal(t, 1, res.NextRound)
	require.False(t, res.IsComplete)
	require.Equal(t, "Move to Italy", res.Snapshot.Goal)
	require.Len(t, res.Questions, 4)
	for _, q := range res.Questions {
		require.Empty(t, q.Answer)
		require.Equal(t, 1, q.Round)
	}

	state, err := f.intake.GetCaseState(ctx, f.owner, res.CaseID)
	require.NoError(t, err)
	require.Len(t, state.QALog, 4)
	require.Equal(t, 4, state.Meta.TotalQuestions)

	evs, err := f.events.ListUserEvents(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, evs, 7)
	for i, e := range evs {
		require.Equal(t, int64(i+1), e.EventID, "event ids are contiguous from 1")
	}
	require.Equal(t, types.EventInitialSubmission, evs[0].Type)
	require.Equal(t, types.EventCategorization, evs[1].Type)
	require.Equal(t, types.EventLLMAnalysis, evs[2].Type)
	require.Equal(t, types.EventFollowUpQuestion, evs[3].Type)
}

func TestSubmitInitialAnswersValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.intake.SubmitInitialAnswers(context.Background(), f.owner, map[string]string{"a": " "})
	require.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	f.gw.CategorizeErr = fmt.Errorf("%w: categorize: timeout", pkgerrors.ErrGateway)
	_, err = f.intake.SubmitInitialAnswers(context.Background(), f.owner, map[string]string{"a": "b"})
	require.ErrorIs(t, err, pkgerrors.ErrGateway)

	list, err := f.intake.ListCases(context.Background(), f.owner, 10)
	require.NoError(t, err)
	require.Empty(t, list, "a failed categorize stores nothing")
}

func TestZeroQuestionsCompletesCase(t *testing.T) {
	f := newFixture(t)
	f.gw.FollowUps = []gateway.FollowUps{{Questions: []intake.Question{}, IsComplete: false, Reasoning: "x"}}

	res, err := f.intake.SubmitInitialAnswers(context.Background(), f.owner, map[string]string{"destination": "Italy"})
	require.NoError(t, err)
	require.True(t, res.IsComplete)
	require.Empty(t, res.Questions)
	require.Equal(t, intake.NoQuestionsReasoning, res.Reasoning)

	sum, err := f.events.GetUserSummary(context.Background(), f.owner)
	require.NoError(t, err)
	require.True(t, sum.IsComplete)

	done, err := f.events.ListEventsByType(context.Background(), f.owner, types.EventAssessmentCompleted)
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, float64(0), completedRounds(t, done[0]))
}

func TestModelCanFinishAtRoundOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fu := gatewaytest.Ask(3, "r1")
	fu.IsComplete = true
	fu.Reasoning = "profile already covers every category"
	f.gw.FollowUps = []gateway.FollowUps{fu}

	res, err := f.intake.SubmitInitialAnswers(ctx, f.owner, map[string]string{"destination": "Italy"})
	require.NoError(t, err)
	require.True(t, res.IsComplete)
	require.Empty(t, res.Questions)
	require.Equal(t, "profile already covers every category", res.Reasoning)

	state, err := f.intake.GetCaseState(ctx, f.owner, res.CaseID)
	require.NoError(t, err)
	require.True(t, state.Meta.IsComplete)
	require.Empty(t, state.QALog)

	_, err = f.intake.BeginFollowUpRound(ctx, f.owner, res.CaseID, map[string]string{"x": "y"})
	require.ErrorIs(t, err, pkgerrors.ErrCaseComplete)

	sum, err := f.events.GetUserSummary(ctx, f.owner)
	require.NoError(t, err)
	require.True(t, sum.IsComplete)
}

func TestRoundsRunToCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gw.FollowUps = []gateway.FollowUps{gatewaytest.Ask(4, "r1"), gatewaytest.Ask(3, "r2"), gatewaytest.Ask(2, "r3")}
	f.gw.Merge = func(snap intake.Snapshot, answered []intake.QAEntry) (intake.Patch, error) {
		p := snap.AsPatch()
		p["finance"] = fmt.Sprintf("%d answers so far", len(answered))
		return p, nil
	}

	res, err := f.intake.SubmitInitialAnswers(ctx, f.owner, map[string]string{"destination": "Italy"})
	require.NoError(t, err)
	caseID := res.CaseID
	round1 := res.Questions

	// round 1 -> 2
	res, err = f.intake.ProcessFollowUpRound(ctx, f.owner, caseID, answerAll(round1, "a"))
	require.NoError(t, err)
	require.Equal(t, 2, res.NextRound)
	require.False(t, res.IsComplete)
	require.Equal(t, intake.ContinueReasoning(1), res.Reasoning)
	require.Equal(t, "4 answers so far", res.Snapshot.Finance)
	require.Len(t, res.Questions, 3)
	seen := map[string]bool{}
	for _, q := range round1 {
		seen[q.ID] = true
	}
	for _, q := range res.Questions {
		require.False(t, seen[q.ID], "round 2 ids are new")
		require.Equal(t, 2, q.Round)
	}

	state, err := f.intake.GetCaseState(ctx, f.owner, caseID)
	require.NoError(t, err)
	for _, e := range state.ByRound(1) {
		require.True(t, e.Answered())
	}

	// round 2 -> 3
	res, err = f.intake.ProcessFollowUpRound(ctx, f.owner, caseID, answerAll(res.Questions, "b"))
	require.NoError(t, err)
	require.Equal(t, 3, res.NextRound)
	followUpsBefore, _ := f.gw.Calls()

	// round 3 is final: merge, no further questions
	res, err = f.intake.ProcessFollowUpRound(ctx, f.owner, caseID, answerAll(res.Questions, "c"))
	require.NoError(t, err)
	require.True(t, res.IsComplete)
	require.Equal(t, intake.CompletedReasoning(3), res.Reasoning)
	require.Empty(t, res.Questions)
	followUpsAfter, merges := f.gw.Calls()
	require.Equal(t, followUpsBefore, followUpsAfter)
	require.Equal(t, 3, merges)

	state, err = f.intake.GetCaseState(ctx, f.owner, caseID)
	require.NoError(t, err)
	require.Equal(t, 4, state.Meta.CurrentRound)
	require.Equal(t, 9, state.Meta.TotalAnswers)
	require.Equal(t, "9 answers so far", state.Snapshot.Finance)

	_, err = f.intake.ProcessFollowUpRound(ctx, f.owner, caseID, map[string]string{round1[0].ID: "late"})
	require.ErrorIs(t, err, pkgerrors.ErrCaseComplete)

	sum, err := f.events.GetUserSummary(ctx, f.owner)
	require.NoError(t, err)
	require.True(t, sum.IsComplete)
	require.Equal(t, 3, sum.CurrentRound)
	require.Equal(t, caseID, *sum.CaseID)

	evs, err := f.events.ListUserEvents(ctx, f.owner)
	require.NoError(t, err)
	for i, e := range evs {
		require.Equal(t, int64(i+1), e.EventID)
	}
	require.Equal(t, types.EventAssessmentCompleted, evs[len(evs)-1].Type)
	require.Equal(t, float64(3), completedRounds(t, evs[len(evs)-1]))
}

func completedRounds(t *testing.T, e *types.UserEvent) float64 {
	t.Helper()
	var meta map[string]any
	require.NoError(t, json.Unmarshal(e.Metadata, &meta))
	rounds, ok := meta["rounds"].(float64)
	require.True(t, ok, "rounds missing from %s", e.Metadata)
	return rounds
}

func TestMergeFailureLeavesCaseAtLastGoodState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gw.FollowUps = []gateway.FollowUps{gatewaytest.Ask(2, "r1")}
	res, err := f.intake.SubmitInitialAnswers(ctx, f.owner, map[string]string{"destination": "Italy"})
	require.NoError(t, err)
	before, err := f.intake.GetCaseState(ctx, f.owner, res.CaseID)
	require.NoError(t, err)

	f.gw.Merge = func(intake.Snapshot, []intake.QAEntry) (intake.Patch, error) {
		return nil, fmt.Errorf("%w: merge: upstream 503", pkgerrors.ErrGateway)
	}
	answers := answerAll(res.Questions, "a")
	_, err = f.intake.ProcessFollowUpRound(ctx, f.owner, res.CaseID, answers)
	require.ErrorIs(t, err, pkgerrors.ErrGateway)

	after, err := f.intake.GetCaseState(ctx, f.owner, res.CaseID)
	require.NoError(t, err)
	require.Equal(t, before.Meta, after.Meta)
	require.Equal(t, 0, after.Meta.TotalAnswers)

	// resubmitting the same answers once the gateway recovers succeeds
	f.gw.Merge = nil
	f.gw.FollowUps = []gateway.FollowUps{gatewaytest.Ask(1, "r2")}
	res, err = f.intake.ProcessFollowUpRound(ctx, f.owner, res.CaseID, answers)
	require.NoError(t, err)
	require.Equal(t, 2, res.NextRound)
}

func TestDegradedFollowUpsComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gw.FollowUps = []gateway.FollowUps{gatewaytest.Ask(1, "r1"), gateway.DegradedFollowUps(errors.New("malformed"))}
	res, err := f.intake.SubmitInitialAnswers(ctx, f.owner, map[string]string{"destination": "Italy"})
	require.NoError(t, err)

	res, err = f.intake.ProcessFollowUpRound(ctx, f.owner, res.CaseID, answerAll(res.Questions, "a"))
	require.NoError(t, err)
	require.True(t, res.Degraded)
	require.True(t, res.IsComplete)
	require.Equal(t, 2, res.NextRound)
}

func TestProcessFollowUpRoundRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gw.FollowUps = []gateway.FollowUps{gatewaytest.Ask(2, "r1")}
	res, err := f.intake.SubmitInitialAnswers(ctx, f.owner, map[string]string{"destination": "Italy"})
	require.NoError(t, err)

	_, err = f.intake.ProcessFollowUpRound(ctx, f.owner, res.CaseID, map[string]string{"nope": "x"})
	require.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	_, err = f.intake.ProcessFollowUpRound(ctx, uuid.New(), res.CaseID, answerAll(res.Questions, "a"))
	require.ErrorIs(t, err, pkgerrors.ErrNotFound)

	_, err = f.intake.GetCaseState(ctx, f.owner, uuid.New())
	require.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestBeginAndPollRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gw.FollowUps = []gateway.FollowUps{gatewaytest.Ask(2, "r1"), gatewaytest.Ask(1, "r2")}
	res, err := f.intake.SubmitInitialAnswers(ctx, f.owner, map[string]string{"destination": "Italy"})
	require.NoError(t, err)
	answers := answerAll(res.Questions, "a")

	job, err := f.intake.BeginFollowUpRound(ctx, f.owner, res.CaseID, answers)
	require.NoError(t, err)
	require.Equal(t, domainjobs.JobTypeIntakeRound, job.JobType)
	require.Equal(t, res.CaseID, *job.EntityID)
	require.Contains(t, f.emitter.events(), realtime.SSEEventJobCreated)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	require.Equal(t, res.CaseID.String(), payload["case_id"])

	_, err = f.intake.BeginFollowUpRound(ctx, f.owner, res.CaseID, answers)
	require.ErrorIs(t, err, pkgerrors.ErrConflict)

	st, err := f.intake.PollRoundStatus(ctx, f.owner, job.ID)
	require.NoError(t, err)
	require.Equal(t, RoundProcessing, st.Status)

	_, err = f.intake.PollRoundStatus(ctx, uuid.New(), job.ID)
	require.ErrorIs(t, err, pkgerrors.ErrNotFound)

	// the worker would do this
	out, err := f.intake.ProcessFollowUpRound(ctx, f.owner, res.CaseID, answers)
	require.NoError(t, err)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	require.NoError(t, f.jobRuns.UpdateFields(dbctx.Context{Ctx: ctx}, job.ID, map[string]interface{}{
		"status": domainjobs.StatusSucceeded,
		"stage":  domainjobs.StageDone,
		"result": datatypes.JSON(raw),
	}))

	st, err = f.intake.PollRoundStatus(ctx, f.owner, job.ID)
	require.NoError(t, err)
	require.Equal(t, RoundCompleted, st.Status)
	require.NotNil(t, st.Result)
	require.Equal(t, out.NextRound, st.Result.NextRound)
	require.False(t, out.IsComplete)

	// a finished job no longer blocks the next round
	next, err := f.intake.BeginFollowUpRound(ctx, f.owner, res.CaseID, map[string]string{"x": "y"})
	require.NoError(t, err)
	require.NoError(t, f.jobRuns.UpdateFields(dbctx.Context{Ctx: ctx}, next.ID, map[string]interface{}{
		"status": domainjobs.StatusFailed,
		"error":  "gateway error: merge: timeout",
	}))
	st, err = f.intake.PollRoundStatus(ctx, f.owner, next.ID)
	require.NoError(t, err)
	require.Equal(t, RoundFailed, st.Status)
	require.Contains(t, st.Error, "timeout")
}

func TestBeginFollowUpRoundOnCompleteCase(t *testing.T) {
	f := newFixture(t)
	res, err := f.intake.SubmitInitialAnswers(context.Background(), f.owner, map[string]string{"destination": "Italy"})
	require.NoError(t, err)
	require.True(t, res.IsComplete)

	_, err = f.intake.BeginFollowUpRound(context.Background(), f.owner, res.CaseID, map[string]string{"x": "y"})
	require.ErrorIs(t, err, pkgerrors.ErrCaseComplete)
}
