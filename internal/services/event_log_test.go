package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/relocation-intake/internal/domain"
	"github.com/yungbote/relocation-intake/internal/domain/events"
	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
)

func answer(user, caseID uuid.UUID, round int, category, text string) *types.UserEvent {
	r := round
	return &types.UserEvent{
		UserID:    user,
		CaseID:    &caseID,
		Type:      types.EventFollowUpAnswer,
		Category:  category,
		Answer:    text,
		Round:     &r,
		MaxRounds: 3,
	}
}

func TestAddEventDuplicateAnswerSummarizedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caseID := uuid.New()

	first, err := f.events.AddEvent(ctx, answer(f.owner, caseID, 1, "finance", "€50k savings"))
	require.NoError(t, err)
	require.Equal(t, int64(1), first.EventID)
	second, err := f.events.AddEvent(ctx, answer(f.owner, caseID, 1, "finance", "€50k savings"))
	require.NoError(t, err)
	require.Equal(t, int64(2), second.EventID)

	sum, err := f.events.GetUserSummary(ctx, f.owner)
	require.NoError(t, err)
	require.Equal(t, "€50k savings", sum.Current.Finance)
	require.Equal(t, 2, sum.TotalEvents)
	require.Equal(t, int64(2), sum.LastEventID)
}

func TestAddEventSummaryMatchesFullRecompute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caseID := uuid.New()
	for _, e := range []*types.UserEvent{
		answer(f.owner, caseID, 1, "finance", "€50k"),
		answer(f.owner, caseID, 1, "family", "married"),
		answer(f.owner, caseID, 2, "work", "remote"),
	} {
		_, err := f.events.AddEvent(ctx, e)
		require.NoError(t, err)
	}
	stored, err := f.events.GetUserSummary(ctx, f.owner)
	require.NoError(t, err)

	history, err := f.events.ListUserEvents(ctx, f.owner)
	require.NoError(t, err)
	flat := make([]events.UserEvent, 0, len(history))
	for _, h := range history {
		flat = append(flat, *h)
	}
	fresh := events.Summarize(f.owner, flat, 3)
	require.Equal(t, fresh.Current, stored.Current)
	require.Equal(t, fresh.CurrentRound, stored.CurrentRound)
	require.Equal(t, fresh.LastEventID, stored.LastEventID)
	require.Equal(t, 2, stored.CurrentRound)
}

func TestAddEventConcurrentWritersStayContiguous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caseID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.events.AddEvent(ctx, answer(f.owner, caseID, 1, "goal", "answer"))
			if err != nil {
				t.Errorf("AddEvent %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	evs, err := f.events.ListUserEvents(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, evs, 5)
	for i, e := range evs {
		require.Equal(t, int64(i+1), e.EventID)
	}
}

func TestEventLogQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := uuid.New()
	caseID := uuid.New()

	_, err := f.events.AddEvent(ctx, &types.UserEvent{UserID: f.owner, Type: "quiz_started"})
	require.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	for _, u := range []uuid.UUID{f.owner, other} {
		_, err := f.events.AddEvent(ctx, &types.UserEvent{UserID: u, CaseID: &caseID, Type: types.EventInitialSubmission})
		require.NoError(t, err)
		_, err = f.events.AddEvent(ctx, answer(u, caseID, 1, "tax", "Italy"))
		require.NoError(t, err)
	}

	all, err := f.events.ListEventsByType(ctx, uuid.Nil, types.EventFollowUpAnswer)
	require.NoError(t, err)
	require.Len(t, all, 2)
	mine, err := f.events.ListEventsByType(ctx, f.owner, types.EventFollowUpAnswer)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	latest, err := f.events.ListLatestEvents(ctx, f.owner, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	require.Equal(t, int64(2), latest[0].EventID)

	_, err = f.events.GetUserSummary(ctx, uuid.New())
	require.ErrorIs(t, err, pkgerrors.ErrNotFound)
}
