package intake

import (
	"fmt"

	"github.com/google/uuid"
)

// RoundResult is what a caller sees after the initial submission or a follow-up round.
type RoundResult struct {
	CaseID     uuid.UUID       `json:"case_id"`
	Snapshot   Snapshot        `json:"snapshot"`
	Questions  []QAEntry       `json:"questions"`
	IsComplete bool            `json:"is_complete"`
	Reasoning  string          `json:"reasoning"`
	NextRound  int             `json:"next_round"`
	MaxRounds  int             `json:"max_rounds"`
	Degraded   bool            `json:"degraded,omitempty"`
	Answers    []AnswerOutcome `json:"answers,omitempty"`
}

// DefaultFollowUpReasoning replaces reasoning the gateway could not supply.
const DefaultFollowUpReasoning = "Unable to determine follow-up questions at this time"

// NoQuestionsReasoning is used when a round produced nothing left to ask.
const NoQuestionsReasoning = "No follow-up questions remain; assessment complete"

func ContinueReasoning(round int) string {
	return fmt.Sprintf("Round %d complete, continuing to round %d", round, round+1)
}

func CompletedReasoning(rounds int) string {
	return fmt.Sprintf("Assessment completed after %d rounds", rounds)
}

// Result renders s as a RoundResult carrying the current round's open questions.
func (s CaseState) Result(reasoning string, degraded bool, answers []AnswerOutcome) RoundResult {
	qs := s.UnansweredInCurrentRound()
	if s.Meta.IsComplete || qs == nil {
		qs = []QAEntry{}
	}
	return RoundResult{
		CaseID:     s.Meta.CaseID,
		Snapshot:   s.Snapshot,
		Questions:  qs,
		IsComplete: s.Meta.IsComplete,
		Reasoning:  reasoning,
		NextRound:  s.Meta.CurrentRound,
		MaxRounds:  s.Meta.MaxRounds,
		Degraded:   degraded,
		Answers:    answers,
	}
}
