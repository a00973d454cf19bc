package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/relocation-intake/internal/domain/intake"
	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
	"github.com/yungbote/relocation-intake/internal/prompts"
)

type call struct {
	system, user, schemaName string
}

type fakeClient struct {
	calls []call
	resp  map[string]any
	err   error
}

func (f *fakeClient) GenerateJSON(_ context.Context, system, user, schemaName string, _ map[string]any) (map[string]any, error) {
	f.calls = append(f.calls, call{system, user, schemaName})
	return f.resp, f.err
}

func (f *fakeClient) GenerateText(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("not used")
}

func newGateway(t *testing.T, c *fakeClient) Gateway {
	t.Helper()
	store, err := prompts.NewStore(logger.NewNop(), "")
	require.NoError(t, err)
	g, err := NewOpenAI(logger.NewNop(), c, store)
	require.NoError(t, err)
	return g
}

func fullSnapshot(overrides map[string]any) map[string]any {
	out := map[string]any{}
	for _, c := range intake.Categories {
		out[string(c)] = ""
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func TestCategorize(t *testing.T) {
	c := &fakeClient{resp: fullSnapshot(map[string]any{"goal": "Move to Italy"})}
	g := newGateway(t, c)

	patch, err := g.Categorize(context.Background(), map[string]string{"destination": "Italy", "blank": "  "})
	require.NoError(t, err)
	require.Equal(t, "Move to Italy", patch["goal"])
	require.Len(t, c.calls, 1)
	require.Equal(t, schemaSnapshot, c.calls[0].schemaName)
	require.Contains(t, c.calls[0].user, `"destination":"Italy"`)
	require.NotContains(t, c.calls[0].user, "blank")
	require.Contains(t, c.calls[0].system, "outstanding_clarifications")
}

func TestCategorizeFailuresAreHard(t *testing.T) {
	_, err := newGateway(t, &fakeClient{}).Categorize(context.Background(), map[string]string{"x": " "})
	require.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	_, err = newGateway(t, &fakeClient{err: context.DeadlineExceeded}).Categorize(context.Background(), map[string]string{"x": "y"})
	require.ErrorIs(t, err, pkgerrors.ErrGateway)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	partial := map[string]any{"goal": "Italy"}
	_, err = newGateway(t, &fakeClient{resp: partial}).Categorize(context.Background(), map[string]string{"x": "y"})
	require.ErrorIs(t, err, pkgerrors.ErrGateway)
}

func TestGenerateFollowUps(t *testing.T) {
	c := &fakeClient{resp: map[string]any{
		"questions": []any{
			map[string]any{"question": "What is your budget?", "category": "finance", "reason": "unclear"},
			map[string]any{"question": "  ", "category": "tax"},
			map[string]any{"question": "where will you  LIVE?", "category": "housing"},
			map[string]any{"question": "Do you speak Italian?", "category": "language"},
			"garbage",
		},
		"is_complete": false,
		"reasoning":   "needs detail",
	}}
	g := newGateway(t, c)
	out := g.GenerateFollowUps(context.Background(), FollowUpRequest{
		Snapshot:          intake.Snapshot{Goal: "Move to Italy"},
		Round:             2,
		MaxRounds:         3,
		PreviousQuestions: []string{"Where will you live?"},
	})
	require.False(t, out.Degraded)
	require.Equal(t, "needs detail", out.Reasoning)
	require.Equal(t, []intake.Question{
		{Text: "What is your budget?", Category: intake.CategoryFinance, Reason: "unclear"},
		{Text: "Do you speak Italian?", Category: intake.CategoryOther},
	}, out.Questions)
	require.Contains(t, c.calls[0].user, "Round 2 of 3")
	require.Contains(t, c.calls[0].user, "Where will you live?")
}

func TestGenerateFollowUpsDegrades(t *testing.T) {
	cases := map[string]*fakeClient{
		"transport": {err: errors.New("connection reset")},
		"malformed": {resp: map[string]any{"questions": "none"}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			out := newGateway(t, c).GenerateFollowUps(context.Background(), FollowUpRequest{Round: 1, MaxRounds: 3})
			require.True(t, out.Degraded)
			require.Empty(t, out.Questions)
			require.False(t, out.IsComplete)
			require.Equal(t, intake.DefaultFollowUpReasoning, out.Reasoning)
			require.ErrorIs(t, out.Cause, pkgerrors.ErrGateway)
		})
	}
}

func TestParseFollowUpsCapsQuestions(t *testing.T) {
	qs := make([]any, 0, 8)
	for i := 0; i < 8; i++ {
		qs = append(qs, map[string]any{"question": fmt.Sprintf("q%d?", i), "category": "goal"})
	}
	out, ok := ParseFollowUps(map[string]any{"questions": qs}, nil)
	require.True(t, ok)
	require.Len(t, out.Questions, MaxQuestions)
	require.Equal(t, intake.DefaultFollowUpReasoning, out.Reasoning)
}

func TestMergeAnswersSendsAnsweredEntries(t *testing.T) {
	c := &fakeClient{resp: fullSnapshot(map[string]any{"finance": "€50k savings"})}
	g := newGateway(t, c)
	entries := []intake.QAEntry{
		{ID: "c-r1-q1", Round: 1, Category: intake.CategoryFinance, Question: "Savings?", Answer: "€50k savings"},
		{ID: "c-r1-q2", Round: 1, Category: intake.CategoryTax, Question: "Tax residence?"},
	}
	patch, err := g.MergeAnswers(context.Background(), intake.Snapshot{Goal: "Italy"}, entries)
	require.NoError(t, err)
	require.Equal(t, "€50k savings", patch["finance"])
	require.Contains(t, c.calls[0].user, "c-r1-q1")
	require.False(t, strings.Contains(c.calls[0].user, "c-r1-q2"))

	_, err = newGateway(t, &fakeClient{err: errors.New("boom")}).MergeAnswers(context.Background(), intake.Snapshot{}, entries)
	require.ErrorIs(t, err, pkgerrors.ErrGateway)
}

func TestNewOpenAIRequiresPrompts(t *testing.T) {
	store, err := prompts.NewMemoryStore()
	require.NoError(t, err)
	_, err = NewOpenAI(logger.NewNop(), &fakeClient{}, store)
	require.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestSnapshotSchemaRequiresEverySlot(t *testing.T) {
	s := SnapshotSchema()
	require.Len(t, s["required"], len(intake.Categories))
	require.Equal(t, false, s["additionalProperties"])
}
