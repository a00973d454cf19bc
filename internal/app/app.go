package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/relocation-intake/internal/data/db"
	apphttp "github.com/yungbote/relocation-intake/internal/http"
	"github.com/yungbote/relocation-intake/internal/jobs/worker"
	"github.com/yungbote/relocation-intake/internal/observability"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
	"github.com/yungbote/relocation-intake/internal/realtime"
	"github.com/yungbote/relocation-intake/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Bus      bus.Bus
	Worker   *worker.Worker
	Server   *apphttp.Server

	otelShutdown func(context.Context) error
}

// New wires the whole process from cfg. Nothing runs until Run.
func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)

	theDB, err := OpenDB(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.DB = theDB

	a.SSEHub = realtime.NewSSEHub(log)
	if a.Bus, err = wireBus(log, cfg); err != nil {
		a.Close()
		return nil, err
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Repos = wireRepos(theDB, log)
	a.Services, err = wireServices(theDB, log, cfg, a.Repos, clients, a.Bus)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.Worker, err = wireWorker(theDB, log, cfg, a.Repos, a.Services); err != nil {
		a.Close()
		return nil, err
	}
	a.Server = apphttp.NewServer(":"+cfg.Port, routerConfig(log, cfg, theDB, a.Services, a.SSEHub))
	return a, nil
}

// OpenDB connects and migrates.
func OpenDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	theDB, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return theDB, nil
}

// Run serves HTTP, runs the job worker and forwards bus messages into the hub until ctx
// is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Bus.StartForwarder(gctx, a.SSEHub.Broadcast)
	})
	g.Go(func() error {
		a.Worker.Start(gctx)
		return a.Worker.Wait()
	})
	g.Go(func() error {
		a.Log.Info("Server listening", "port", a.Cfg.Port)
		return a.Server.Run(gctx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
