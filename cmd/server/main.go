package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"gosetl/adapters/excel"
	"gosetl/adapters/postgres"
	"gosetl/app"
	"gosetl/internal"
	"gosetl/internal/analysis"
	"gosetl/internal/config"
	"gosetl/ports"
	"gosetl/ui"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	internal.DefaultLogger = internal.NewDefaultLogger()
	log := internal.DefaultLogger

	store, err := openStore(cfg)
	if err != nil {
		log.Error("opening record store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	runCfg := analysis.Config{Alpha: cfg.Analysis.Alpha, Repeats: cfg.Analysis.Repeats}
	analyses := app.NewAnalysisService(store, runCfg)
	batches := app.NewBatchService(store, runCfg, cfg.Analysis.Workers)
	if cfg.Analysis.Seed != 0 {
		analyses.SetSeed(cfg.Analysis.Seed)
		batches.SetSeed(cfg.Analysis.Seed)
	}

	srv := ui.NewServer(analyses, batches)
	if err := srv.ListenAndServe(cfg.Server.Port); err != nil {
		log.Error("server stopped: %v", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (ports.RecordStore, error) {
	if cfg.Paths.ImportFile != "" {
		return excel.OpenFileStore(cfg.Paths.ImportFile)
	}
	return postgres.Open(cfg.Database.URL)
}
