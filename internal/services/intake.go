package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/relocation-intake/internal/data/repos"
	types "github.com/yungbote/relocation-intake/internal/domain"
	"github.com/yungbote/relocation-intake/internal/domain/intake"
	domainjobs "github.com/yungbote/relocation-intake/internal/domain/jobs"
	"github.com/yungbote/relocation-intake/internal/gateway"
	"github.com/yungbote/relocation-intake/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
)

// Round status values reported by PollRoundStatus.
const (
	RoundProcessing = "processing"
	RoundCompleted  = "completed"
	RoundFailed     = "failed"
)

type RoundStatus struct {
	JobID  uuid.UUID           `json:"job_id"`
	CaseID *uuid.UUID          `json:"case_id,omitempty"`
	Status string              `json:"status"`
	Stage  string              `json:"stage,omitempty"`
	Result *intake.RoundResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// IntakeService drives a case from the initial free-text submission through its follow-up
// rounds. Model calls go through the gateway; the case document is the source of truth.
type IntakeService interface {
	SubmitInitialAnswers(ctx context.Context, ownerUserID uuid.UUID, freeText map[string]string) (*intake.RoundResult, error)
	// BeginFollowUpRound queues the round and returns the job that tracks it.
	BeginFollowUpRound(ctx context.Context, ownerUserID uuid.UUID, caseID uuid.UUID, answers map[string]string) (*types.JobRun, error)
	PollRoundStatus(ctx context.Context, ownerUserID uuid.UUID, jobID uuid.UUID) (*RoundStatus, error)
	// ProcessFollowUpRound runs one round synchronously. The intake_round job calls it.
	ProcessFollowUpRound(ctx context.Context, ownerUserID uuid.UUID, caseID uuid.UUID, answers map[string]string) (*intake.RoundResult, error)
	GetCaseState(ctx context.Context, ownerUserID uuid.UUID, caseID uuid.UUID) (*intake.CaseState, error)
	ListCases(ctx context.Context, ownerUserID uuid.UUID, limit int) ([]intake.CaseMeta, error)
}

type IntakeConfig struct {
	MaxRounds int
}

type intakeService struct {
	db      *gorm.DB
	log     *logger.Logger
	cases   repos.IntakeCaseRepo
	jobRuns repos.JobRunRepo
	jobs    JobService
	gw      gateway.Gateway
	events  EventLog
	cfg     IntakeConfig
	now     func() time.Time
}

func NewIntakeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cases repos.IntakeCaseRepo,
	jobRuns repos.JobRunRepo,
	jobs JobService,
	gw gateway.Gateway,
	events EventLog,
	cfg IntakeConfig,
) IntakeService {
	if cfg.MaxRounds < 1 {
		cfg.MaxRounds = intake.DefaultMaxRounds
	}
	return &intakeService{
		db:      db,
		log:     baseLog.With("service", "IntakeService"),
		cases:   cases,
		jobRuns: jobRuns,
		jobs:    jobs,
		gw:      gw,
		events:  events,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *intakeService) SubmitInitialAnswers(ctx context.Context, ownerUserID uuid.UUID, freeText map[string]string) (*intake.RoundResult, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
	}
	fields := make(map[string]string, len(freeText))
	for k, v := range freeText {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no answers submitted", pkgerrors.ErrInvalidArgument)
	}

	patch, err := s.gw.Categorize(ctx, fields)
	if err != nil {
		return nil, err
	}
	snap := s.merge(intake.EmptySnapshot(), patch, "categorize")

	now := s.now()
	state := intake.NewCaseState(uuid.New(), s.cfg.MaxRounds, snap, now)

	fu := s.followUps(ctx, state, 1)
	reasoning := fu.Reasoning
	var asked []intake.QAEntry
	switch {
	case len(fu.Questions) == 0:
		state = state.Complete(now)
		reasoning = intake.NoQuestionsReasoning
	case fu.IsComplete:
		// nothing gets asked on a finished case
		state = state.Complete(now)
	default:
		state, asked = intake.AppendQuestions(state, fu.Questions, now)
	}

	rec, err := intake.NewRecord(ownerUserID, state)
	if err != nil {
		return nil, err
	}
	if err := s.cases.Create(dbctx.Context{Ctx: ctx}, rec); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	s.log.Info("Case created",
		"case_id", state.Meta.CaseID,
		"user_id", ownerUserID,
		"questions", len(asked),
		"is_complete", state.Meta.IsComplete,
		"degraded", fu.Degraded,
	)

	s.emit(ctx, ownerUserID, state,
		s.event(state, types.EventInitialSubmission, nil, map[string]any{"fields": fields}),
		s.event(state, types.EventCategorization, nil, map[string]any{"snapshot": snap}),
	)
	s.emitRoundOutcome(ctx, ownerUserID, state, 1, asked, fu, reasoning)

	res := state.Result(reasoning, fu.Degraded, nil)
	return &res, nil
}

func (s *intakeService) BeginFollowUpRound(ctx context.Context, ownerUserID uuid.UUID, caseID uuid.UUID, answers map[string]string) (*types.JobRun, error) {
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: no answers submitted", pkgerrors.ErrInvalidArgument)
	}
	var job *types.JobRun
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		state, err := s.load(dbc, ownerUserID, caseID)
		if err != nil {
			return err
		}
		if state.Meta.IsComplete {
			return fmt.Errorf("case %s: %w", caseID, pkgerrors.ErrCaseComplete)
		}
		if err := s.cases.LockByID(dbc, caseID); err != nil {
			return err
		}
		busy, err := s.jobRuns.HasRunnableForEntity(dbc, ownerUserID, domainjobs.EntityIntakeCase, caseID, domainjobs.JobTypeIntakeRound)
		if err != nil {
			return err
		}
		if busy {
			return fmt.Errorf("case %s: a round is already processing: %w", caseID, pkgerrors.ErrConflict)
		}
		entityID := caseID
		job, err = s.jobs.Enqueue(dbc, ownerUserID, domainjobs.JobTypeIntakeRound, domainjobs.EntityIntakeCase, &entityID, map[string]any{
			"case_id": caseID.String(),
			"answers": answers,
			"round":   state.Meta.CurrentRound,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *intakeService) PollRoundStatus(ctx context.Context, ownerUserID uuid.UUID, jobID uuid.UUID) (*RoundStatus, error) {
	job, err := s.jobs.GetByIDForUser(dbctx.Context{Ctx: ctx}, ownerUserID, jobID)
	if err != nil {
		return nil, err
	}
	if job.JobType != domainjobs.JobTypeIntakeRound {
		return nil, fmt.Errorf("job %s: %w", jobID, pkgerrors.ErrNotFound)
	}
	st := &RoundStatus{JobID: job.ID, CaseID: job.EntityID, Stage: job.Stage}
	switch job.Status {
	case domainjobs.StatusSucceeded:
		var res intake.RoundResult
		if err := json.Unmarshal(job.Result, &res); err != nil {
			return nil, fmt.Errorf("%w: job %s result: %v", pkgerrors.ErrCorruptState, jobID, err)
		}
		st.Status = RoundCompleted
		st.Result = &res
	case domainjobs.StatusFailed:
		st.Status = RoundFailed
		st.Error = job.Error
	default:
		st.Status = RoundProcessing
	}
	return st, nil
}

func (s *intakeService) ProcessFollowUpRound(ctx context.Context, ownerUserID uuid.UUID, caseID uuid.UUID, answers map[string]string) (*intake.RoundResult, error) {
	dbc := dbctx.Context{Ctx: ctx}
	state, err := s.load(dbc, ownerUserID, caseID)
	if err != nil {
		return nil, err
	}
	if state.Meta.IsComplete {
		return nil, fmt.Errorf("case %s: %w", caseID, pkgerrors.ErrCaseComplete)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: no answers submitted", pkgerrors.ErrInvalidArgument)
	}

	now := s.now()
	round := state.Meta.CurrentRound
	state, outcomes := intake.RecordAnswers(state, answers, now)
	applied := 0
	for _, o := range outcomes {
		if o.Applied() {
			applied++
		}
	}
	if applied == 0 {
		return nil, fmt.Errorf("%w: no submitted answer matched an open question", pkgerrors.ErrInvalidArgument)
	}

	patch, err := s.gw.MergeAnswers(ctx, state.Snapshot, state.Answered())
	if err != nil {
		return nil, err
	}
	state = state.WithSnapshot(s.merge(state.Snapshot, patch, "merge_answers"), now)

	var (
		reasoning string
		asked     []intake.QAEntry
		fu        gateway.FollowUps
	)
	if round < state.Meta.MaxRounds {
		fu = s.followUps(ctx, state, round+1)
		if state, err = state.Advance(now); err != nil {
			return nil, err
		}
		if len(fu.Questions) == 0 {
			state = state.Complete(now)
			reasoning = intake.NoQuestionsReasoning
		} else {
			state, asked = intake.AppendQuestions(state, fu.Questions, now)
			reasoning = intake.ContinueReasoning(round)
		}
	} else {
		if state, err = state.Advance(now); err != nil {
			return nil, err
		}
		state = state.Complete(now)
		reasoning = intake.CompletedReasoning(state.Meta.MaxRounds)
	}

	rec, err := intake.NewRecord(ownerUserID, state)
	if err != nil {
		return nil, err
	}
	if err := s.cases.Save(dbc, rec); err != nil {
		return nil, fmt.Errorf("save case: %w", err)
	}
	s.log.Info("Round processed",
		"case_id", caseID,
		"round", round,
		"answers", applied,
		"next_round", state.Meta.CurrentRound,
		"is_complete", state.Meta.IsComplete,
		"degraded", fu.Degraded,
	)

	s.emitAnswers(ctx, ownerUserID, state, round, outcomes)
	if round < state.Meta.MaxRounds {
		s.emitRoundOutcome(ctx, ownerUserID, state, round+1, asked, fu, reasoning)
	} else {
		s.emit(ctx, ownerUserID, state, s.completedEvent(state, reasoning))
	}

	res := state.Result(reasoning, fu.Degraded, outcomes)
	return &res, nil
}

func (s *intakeService) GetCaseState(ctx context.Context, ownerUserID uuid.UUID, caseID uuid.UUID) (*intake.CaseState, error) {
	state, err := s.load(dbctx.Context{Ctx: ctx}, ownerUserID, caseID)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *intakeService) ListCases(ctx context.Context, ownerUserID uuid.UUID, limit int) ([]intake.CaseMeta, error) {
	rows, err := s.cases.ListByOwner(dbctx.Context{Ctx: ctx}, ownerUserID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]intake.CaseMeta, 0, len(rows))
	for _, r := range rows {
		st, err := r.Decode()
		if err != nil {
			s.log.Warn("Skipping unreadable case", "case_id", r.ID, "error", err)
			continue
		}
		out = append(out, st.Meta)
	}
	return out, nil
}

func (s *intakeService) load(dbc dbctx.Context, ownerUserID uuid.UUID, caseID uuid.UUID) (intake.CaseState, error) {
	rec, err := s.cases.GetByOwnerAndID(dbc, ownerUserID, caseID)
	if err != nil {
		return intake.CaseState{}, err
	}
	if rec == nil {
		return intake.CaseState{}, fmt.Errorf("case %s: %w", caseID, pkgerrors.ErrNotFound)
	}
	return rec.Decode()
}

func (s *intakeService) merge(current intake.Snapshot, patch intake.Patch, op string) intake.Snapshot {
	next, rep := intake.Merge(current, patch)
	if rep.HasDrift() {
		s.log.Warn("Snapshot patch carried keys outside the schema",
			"op", op,
			"unknown_keys", rep.UnknownKeys,
			"non_string", rep.NonString,
		)
	}
	return next
}

func (s *intakeService) followUps(ctx context.Context, state intake.CaseState, round int) gateway.FollowUps {
	fu := s.gw.GenerateFollowUps(ctx, gateway.FollowUpRequest{
		Snapshot:          state.Snapshot,
		Round:             round,
		MaxRounds:         state.Meta.MaxRounds,
		PreviousQuestions: state.QuestionTexts(),
	})
	if fu.Degraded {
		s.log.Warn("Follow-up generation degraded", "case_id", state.Meta.CaseID, "round", round, "error", fu.Cause)
	}
	return fu
}
