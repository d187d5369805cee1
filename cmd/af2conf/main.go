package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/pablo-arantes/af2-conformations/internal/backend"
	"github.com/pablo-arantes/af2-conformations/internal/backend/af2"
	"github.com/pablo-arantes/af2-conformations/internal/config"
	"github.com/pablo-arantes/af2-conformations/internal/env"
	"github.com/pablo-arantes/af2-conformations/internal/envvar"
	"github.com/pablo-arantes/af2-conformations/internal/logger"
	"github.com/pablo-arantes/af2-conformations/internal/msa"
	"github.com/pablo-arantes/af2-conformations/internal/service"
	"github.com/pablo-arantes/af2-conformations/internal/weights"
)

func main() {
	var (
		flagConfigPath = flag.String("config", path.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
		flagSchemaPath = flag.String("schema", path.Join(config.DefaultConfigPath(), "af2conf.v1.schema.json"), "Path to schema file")
		flagWatch      = flag.Bool("watch", false, "Re-run the job whenever the config file changes")
	)
	flag.Parse()

	environment := env.FromEnv()

	slog.SetDefault(
		logger.New(environment,
			logger.WithLogToFile(true),
			logger.WithLogFile("logs/af2conf.log"),
		),
	)

	if *flagWatch {
		watcher, err := config.NewWatcher(*flagConfigPath, *flagSchemaPath, func(cfg *config.Config, err error) {
			if err != nil {
				slog.Error("Failed to reload config", "error", err)
				return
			}

			runJob(context.Background(), cfg)
		})
		if err != nil {
			slog.Error("Failed to create config watcher", "error", err)
			return
		}

		runJob(context.Background(), watcher.Snapshot())

		select {}
	}

	cfg, err := config.LoadAndValidate(*flagConfigPath, *flagSchemaPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return
	}

	slog.Info("Config loaded successfully", "config", *flagConfigPath, "schema", *flagSchemaPath)

	runJob(context.Background(), cfg)
}

// runJob builds the backends and drives one ensemble job end to end.
func runJob(ctx context.Context, cfg *config.Config) {
	backends := backend.NewRegistry()
	defer backends.Close()

	for _, variant := range backend.TemplateCapable() {
		b, err := af2.NewBackend(variant, cfg.Runner.BinPath)
		if err != nil {
			slog.Error("Failed to create backend", "variant", variant, "error", err)
			return
		}

		if err := backends.Register(b); err != nil {
			slog.Error("Failed to register backend", "variant", variant, "error", err)
			return
		}
	}

	host := os.Getenv(envvar.Af2confSearchHost)
	if host == "" {
		host = cfg.Search.Host
	}

	svc := service.NewEnsemble(msa.NewClient(host), weights.NewManager(), backends)

	run, archivePath, err := svc.Run(ctx, cfg)
	if err != nil {
		slog.Error("Job failed", "job", cfg.Job.Name, "error", err)
		return
	}

	slog.Info("Ensemble ready for download", "run_id", run.ID, "structures", len(run.Outputs), "archive", archivePath)
}
