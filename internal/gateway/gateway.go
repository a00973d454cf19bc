// Package gateway is the model-facing boundary of the intake engine. The orchestrator only
// sees the Gateway interface; the OpenAI-backed implementation lives in openai.go.
package gateway

import (
	"context"

	"github.com/yungbote/relocation-intake/internal/domain/intake"
)

const (
	MinQuestions = 3
	MaxQuestions = 5
)

type Gateway interface {
	// Categorize turns free-text answers into a full snapshot patch. Transport and parse
	// failures are returned wrapped in ErrGateway.
	Categorize(ctx context.Context, freeText map[string]string) (intake.Patch, error)
	// GenerateFollowUps never fails: transport or parse problems come back as a degraded
	// result with no questions.
	GenerateFollowUps(ctx context.Context, req FollowUpRequest) FollowUps
	// MergeAnswers returns the whole updated snapshot as a patch. Failures wrap ErrGateway.
	MergeAnswers(ctx context.Context, snapshot intake.Snapshot, answered []intake.QAEntry) (intake.Patch, error)
}

type FollowUpRequest struct {
	Snapshot          intake.Snapshot
	Round             int
	MaxRounds         int
	PreviousQuestions []string
}

type FollowUps struct {
	Questions  []intake.Question
	IsComplete bool
	Reasoning  string
	// Degraded is set when the defaults replaced a failed or malformed response.
	Degraded bool
	// Cause holds the failure behind a degraded result, for logging.
	Cause error
}

// DegradedFollowUps is the safe default used when generation fails.
func DegradedFollowUps(cause error) FollowUps {
	return FollowUps{
		Questions: []intake.Question{},
		Reasoning: intake.DefaultFollowUpReasoning,
		Degraded:  true,
		Cause:     cause,
	}
}
