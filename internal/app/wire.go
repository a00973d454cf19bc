package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/relocation-intake/internal/data/repos"
	"github.com/yungbote/relocation-intake/internal/gateway"
	apphttp "github.com/yungbote/relocation-intake/internal/http"
	httpH "github.com/yungbote/relocation-intake/internal/http/handlers"
	"github.com/yungbote/relocation-intake/internal/jobs/pipeline/intake_round"
	"github.com/yungbote/relocation-intake/internal/jobs/runtime"
	"github.com/yungbote/relocation-intake/internal/jobs/worker"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
	"github.com/yungbote/relocation-intake/internal/platform/openai"
	"github.com/yungbote/relocation-intake/internal/prompts"
	"github.com/yungbote/relocation-intake/internal/realtime"
	"github.com/yungbote/relocation-intake/internal/realtime/bus"
	"github.com/yungbote/relocation-intake/internal/services"
)

type Repos struct {
	IntakeCase  repos.IntakeCaseRepo
	UserEvent   repos.UserEventRepo
	UserSummary repos.UserSummaryRepo
	JobRun      repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		IntakeCase:  repos.NewIntakeCaseRepo(db, log),
		UserEvent:   repos.NewUserEventRepo(db, log),
		UserSummary: repos.NewUserSummaryRepo(db, log),
		JobRun:      repos.NewJobRunRepo(db, log),
	}
}

type Clients struct {
	OpenAI  openai.Client
	Prompts prompts.Store
	Gateway gateway.Gateway
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	store, err := prompts.NewStore(log, cfg.PromptsFile)
	if err != nil {
		return Clients{}, fmt.Errorf("init prompt store: %w", err)
	}
	oa, err := openai.NewClient(log, cfg.OpenAI)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	gw, err := gateway.NewOpenAI(log, oa, store)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm gateway: %w", err)
	}
	return Clients{OpenAI: oa, Prompts: store, Gateway: gw}, nil
}

// wireBus picks Redis when REDIS_ADDR is set so several instances share SSE traffic.
func wireBus(log *logger.Logger, cfg Config) (bus.Bus, error) {
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		log.Info("REDIS_ADDR unset; SSE stays in-process")
		return bus.NewMemoryBus(), nil
	}
	b, err := bus.NewRedisBus(log, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis SSE bus: %w", err)
	}
	return b, nil
}

type Services struct {
	Events services.EventLog
	Jobs   services.JobService
	Notify services.JobNotifier
	Intake services.IntakeService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, b bus.Bus) (Services, error) {
	log.Info("Wiring services...")
	if b == nil {
		return Services{}, fmt.Errorf("sse bus required")
	}
	notify := services.NewJobNotifier(&services.BusEmitter{Bus: b, Log: log})
	events := services.NewEventLog(db, log, r.UserEvent, r.UserSummary, cfg.MaxRounds)
	jobs := services.NewJobService(log, r.JobRun, notify)
	return Services{
		Events: events,
		Jobs:   jobs,
		Notify: notify,
		Intake: services.NewIntakeService(db, log, r.IntakeCase, r.JobRun, jobs, c.Gateway, events, services.IntakeConfig{MaxRounds: cfg.MaxRounds}),
	}, nil
}

func wireWorker(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, s Services) (*worker.Worker, error) {
	reg := runtime.NewRegistry()
	if err := reg.Register(intake_round.New(log, s.Intake)); err != nil {
		return nil, fmt.Errorf("register intake_round: %w", err)
	}
	return worker.NewWorker(db, log, r.JobRun, reg, s.Notify, cfg.Worker), nil
}

func routerConfig(log *logger.Logger, cfg Config, db *gorm.DB, s Services, hub *realtime.SSEHub) apphttp.RouterConfig {
	log.Info("Wiring handlers...")
	return apphttp.RouterConfig{
		Log:             log,
		ServiceName:     cfg.Otel.ServiceName,
		CORSOrigins:     cfg.CORSOrigins,
		HealthHandler:   httpH.NewHealthHandler(db),
		IntakeHandler:   httpH.NewIntakeHandler(s.Intake),
		EventHandler:    httpH.NewEventHandler(s.Events),
		JobHandler:      httpH.NewJobHandler(s.Jobs),
		RealtimeHandler: httpH.NewRealtimeHandler(log, hub),
	}
}
