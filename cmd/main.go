package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/relocation-intake/internal/app"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
	"github.com/yungbote/relocation-intake/internal/prompts"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "intake",
		Short:         "Relocation intake service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the round worker",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply schema migrations and exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "prompts",
			Short: "Print the effective prompt templates as YAML",
			RunE:  runPrompts,
		},
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, app.LoadConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		a.Log.Error("Server stopped", "error", err)
		return err
	}
	a.Log.Info("Shutdown complete")
	return nil
}

func runMigrate(*cobra.Command, []string) error {
	cfg := app.LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	theDB, err := app.OpenDB(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := theDB.DB(); err == nil {
		defer sqlDB.Close()
	}
	log.Info("Migrations applied", "driver", cfg.DB.Driver)
	return nil
}

func runPrompts(cmd *cobra.Command, _ []string) error {
	cfg := app.LoadConfig()
	store, err := prompts.NewStore(logger.NewNop(), cfg.PromptsFile)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(map[string]any{"prompts": store.List()})
}

