package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/relocation-intake/internal/domain"
	"github.com/yungbote/relocation-intake/internal/domain/intake"
)

// SeedCase stores a fresh round-1 case with the given open questions.
func SeedCase(tb testing.TB, ctx context.Context, tx *gorm.DB, owner uuid.UUID, questions ...string) intake.CaseState {
	tb.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	s := intake.NewCaseState(uuid.New(), intake.DefaultMaxRounds, intake.Snapshot{Goal: "Move to Italy"}, now)
	qs := make([]intake.Question, 0, len(questions))
	for _, q := range questions {
		qs = append(qs, intake.Question{Text: q, Category: intake.CategoryOther})
	}
	s, _ = intake.AppendQuestions(s, qs, now)
	rec, err := intake.NewRecord(owner, s)
	if err != nil {
		tb.Fatalf("seed case: %v", err)
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed case: %v", err)
	}
	return s
}

func SeedJob(tb testing.TB, ctx context.Context, tx *gorm.DB, owner uuid.UUID, jobType, status string, entityID *uuid.UUID) *types.JobRun {
	tb.Helper()
	now := time.Now().UTC()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: owner,
		JobType:     jobType,
		EntityType:  "intake_case",
		EntityID:    entityID,
		Status:      status,
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte(`{}`)),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(job).Error; err != nil {
		tb.Fatalf("seed job: %v", err)
	}
	return job
}

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }
