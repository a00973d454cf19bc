package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/relocation-intake/internal/data/repos"
	"github.com/yungbote/relocation-intake/internal/data/repos/testutil"
	"github.com/yungbote/relocation-intake/internal/domain/intake"
	"github.com/yungbote/relocation-intake/internal/gateway/gatewaytest"
	"github.com/yungbote/relocation-intake/internal/realtime"
)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	e.msgs = append(e.msgs, msg)
	e.mu.Unlock()
}

func (e *recordingEmitter) events() []realtime.SSEEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]realtime.SSEEvent, 0, len(e.msgs))
	for _, m := range e.msgs {
		out = append(out, m.Event)
	}
	return out
}

type fixture struct {
	db      *gorm.DB
	gw      *gatewaytest.Fake
	emitter *recordingEmitter
	jobRuns repos.JobRunRepo
	cases   repos.IntakeCaseRepo
	events  EventLog
	jobs    JobService
	intake  IntakeService
	owner   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &fixture{
		db:      db,
		gw:      gatewaytest.New("Move to Italy"),
		emitter: &recordingEmitter{},
		jobRuns: repos.NewJobRunRepo(db, log),
		cases:   repos.NewIntakeCaseRepo(db, log),
		owner:   uuid.New(),
	}
	f.events = NewEventLog(db, log, repos.NewUserEventRepo(db, log), repos.NewUserSummaryRepo(db, log), intake.DefaultMaxRounds)
	f.jobs = NewJobService(log, f.jobRuns, NewJobNotifier(f.emitter))
	f.intake = NewIntakeService(db, log, f.cases, f.jobRuns, f.jobs, f.gw, f.events, IntakeConfig{MaxRounds: 3})
	return f
}

func answerAll(entries []intake.QAEntry, text string) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.ID] = text + " " + e.ID
	}
	return out
}
