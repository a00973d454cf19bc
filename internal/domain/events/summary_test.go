package events

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func answerEvent(id int64, caseID uuid.UUID, round int, category, answer string, at time.Time) UserEvent {
	return UserEvent{
		EventID:    id,
		CaseID:     &caseID,
		Type:       EventFollowUpAnswer,
		Category:   category,
		Answer:     answer,
		Round:      intp(round),
		MaxRounds:  3,
		OccurredAt: at,
	}
}

func TestSummarizeSkipsDuplicateAnswers(t *testing.T) {
	user := uuid.New()
	c := uuid.New()
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	history := []UserEvent{
		answerEvent(1, c, 1, "finance", "€50k savings", t0),
		answerEvent(2, c, 1, "finance", "€50k savings", t0.Add(time.Second)),
	}
	s := Summarize(user, history, 3)
	require.Equal(t, "€50k savings", s.Current.Finance)
	require.Equal(t, 2, s.TotalEvents)
	require.Equal(t, int64(2), s.LastEventID)
	require.Equal(t, t0, *s.FirstEventAt)
	require.Equal(t, t0.Add(time.Second), *s.LastEventAt)
}

func TestSummarizeAccumulatesInEventOrder(t *testing.T) {
	user := uuid.New()
	c := uuid.New()
	t0 := time.Now().UTC()
	history := []UserEvent{
		answerEvent(3, c, 2, "finance", "no debt", t0),
		answerEvent(1, c, 1, "finance", "€50k savings", t0),
		answerEvent(2, c, 1, "Housing", "renting", t0),
		{EventID: 4, CaseID: &c, Type: EventFollowUpQuestion, Category: "tax", Question: "Where do you pay tax?", Round: intp(2), OccurredAt: t0},
	}
	s := Summarize(user, history, 3)
	require.Equal(t, "€50k savings; no debt", s.Current.Finance)
	require.Equal(t, "renting", s.Current.Housing)
	require.Empty(t, s.Current.Tax)
	require.Equal(t, 2, s.CurrentRound)
	require.False(t, s.IsComplete)
	require.Equal(t, c, *s.CaseID)
}

func TestSummarizeCompletion(t *testing.T) {
	user := uuid.New()
	c := uuid.New()
	t0 := time.Now().UTC()

	cases := []struct {
		name     string
		history  []UserEvent
		round    int
		complete bool
	}{
		{name: "no events", round: 1},
		{
			name:     "final round answered",
			history:  []UserEvent{answerEvent(1, c, 3, "goal", "x", t0)},
			round:    3,
			complete: true,
		},
		{
			name: "budget from events",
			history: []UserEvent{
				{EventID: 1, CaseID: &c, Type: EventFollowUpAnswer, Category: "goal", Answer: "x", Round: intp(3), MaxRounds: 5, OccurredAt: t0},
			},
			round: 3,
		},
		{
			name: "explicit completion",
			history: []UserEvent{
				answerEvent(1, c, 1, "goal", "x", t0),
				{EventID: 2, CaseID: &c, Type: EventAssessmentCompleted, MaxRounds: 3, OccurredAt: t0},
			},
			round:    1,
			complete: true,
		},
		{
			name: "single round budget before any answer",
			history: []UserEvent{
				{EventID: 1, CaseID: &c, Type: EventInitialSubmission, MaxRounds: 1, OccurredAt: t0},
				{EventID: 2, CaseID: &c, Type: EventFollowUpQuestion, Category: "tax", Question: "Where?", Round: intp(1), MaxRounds: 1, OccurredAt: t0},
			},
			round: 1,
		},
		{
			name: "single round budget answered",
			history: []UserEvent{
				{EventID: 1, CaseID: &c, Type: EventInitialSubmission, MaxRounds: 1, OccurredAt: t0},
				{EventID: 2, CaseID: &c, Type: EventFollowUpAnswer, Category: "tax", Answer: "Spain", Round: intp(1), MaxRounds: 1, OccurredAt: t0},
			},
			round:    1,
			complete: true,
		},
		{
			name: "new case resets round",
			history: []UserEvent{
				answerEvent(1, c, 3, "goal", "x", t0),
				{EventID: 2, CaseID: ptrUUID(uuid.New()), Type: EventInitialSubmission, MaxRounds: 3, OccurredAt: t0},
			},
			round: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Summarize(user, tc.history, 3)
			if s.CurrentRound != tc.round || s.IsComplete != tc.complete {
				t.Fatalf("round=%d complete=%v, want round=%d complete=%v", s.CurrentRound, s.IsComplete, tc.round, tc.complete)
			}
		})
	}
}

func TestSummarizeIsDerivable(t *testing.T) {
	user := uuid.New()
	c := uuid.New()
	t0 := time.Now().UTC()
	history := []UserEvent{
		{EventID: 1, CaseID: &c, Type: EventInitialSubmission, MaxRounds: 3, OccurredAt: t0},
		answerEvent(2, c, 1, "finance", "€50k", t0),
		answerEvent(3, c, 1, "family", "married", t0),
		answerEvent(4, c, 2, "finance", "€50k", t0),
		answerEvent(5, c, 2, "work", "remote", t0),
	}

	// fold prefix by prefix, the way the log does on each write
	var last UserSummary
	for i := range history {
		last = Summarize(user, history[:i+1], 3)
	}
	full := Summarize(user, history, 3)
	if diff := cmp.Diff(full, last); diff != "" {
		t.Fatalf("incremental and full summaries differ (-full +last):\n%s", diff)
	}
	require.Equal(t, int64(5), full.LastEventID)
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }

func TestIsEventType(t *testing.T) {
	require.True(t, IsEventType(EventLLMAnalysis))
	require.False(t, IsEventType("quiz_started"))
}
