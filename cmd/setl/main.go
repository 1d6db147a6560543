package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gosetl/adapters/excel"
	"gosetl/adapters/export"
	"gosetl/adapters/postgres"
	"gosetl/app"
	"gosetl/domain/plate"
	"gosetl/domain/report"
	"gosetl/internal"
	"gosetl/internal/analysis"
	"gosetl/internal/config"
	"gosetl/ports"
)

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "setl",
		Short: "Statistical analysis of settlement plate records",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newBatchCmd(),
		newImportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	internal.DefaultLogger = internal.NewDefaultLogger()
	return cfg, nil
}

// openStore prefers an imported settlement table over the database.
func openStore(cfg *config.Config) (ports.RecordStore, error) {
	if cfg.Paths.ImportFile != "" {
		return excel.OpenFileStore(cfg.Paths.ImportFile)
	}
	return postgres.Open(cfg.Database.URL)
}

func analysisConfig(cfg *config.Config) analysis.Config {
	return analysis.Config{Alpha: cfg.Analysis.Alpha, Repeats: cfg.Analysis.Repeats}
}

func newRunCmd() *cobra.Command {
	var kind string
	var locations, species, speciesB []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single analysis and write its report files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := app.NewAnalysisService(store, analysisConfig(cfg))
			if cfg.Analysis.Seed != 0 {
				svc.SetSeed(cfg.Analysis.Seed)
			}

			selections := []report.Selection{{Locations: locations, Species: species}}
			if len(speciesB) > 0 {
				selections = append(selections, report.Selection{Locations: locations, Species: speciesB})
			}
			rep, err := svc.Run(cmd.Context(), app.RunRequest{
				Kind:       report.Analysis(kind),
				Selections: selections,
			})
			if err != nil {
				return err
			}

			mdPath, htmlPath, err := export.WriteFiles(rep, cfg.Paths.ExportDir)
			if err != nil {
				return err
			}
			fmt.Printf("report %s: %s, %s\n", rep.ID, mdPath, htmlPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(report.AnalysisSpotPreference),
		"analysis kind: spot_preference, attraction_intra or attraction_inter")
	cmd.Flags().StringSliceVar(&locations, "locations", nil, "restrict to these locations")
	cmd.Flags().StringSliceVar(&species, "species", nil, "first species selection")
	cmd.Flags().StringSliceVar(&speciesB, "species-b", nil, "second species selection (attraction_inter)")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var kind string
	var locations, species []string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a batch over many species and write the xlsx summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(species) == 0 {
				species, err = allSpecies(cmd, store)
				if err != nil {
					return err
				}
			}

			svc := app.NewBatchService(store, analysisConfig(cfg), cfg.Analysis.Workers)
			if cfg.Analysis.Seed != 0 {
				svc.SetSeed(cfg.Analysis.Seed)
			}
			outcome, err := svc.Run(cmd.Context(), app.BatchRequest{
				Kind:      report.Analysis(kind),
				Locations: locations,
				Species:   species,
				ExportDir: cfg.Paths.ExportDir,
			})
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range outcome.Results {
				if res.Err != nil {
					failed++
				}
			}
			fmt.Printf("batch done: %d jobs, %d failed, summary %s\n",
				len(outcome.Results), failed, outcome.SummaryPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(report.AnalysisInterSpecific),
		"analysis kind: spot_preference, attraction_intra or attraction_inter")
	cmd.Flags().StringSliceVar(&locations, "locations", nil, "restrict to these locations")
	cmd.Flags().StringSliceVar(&species, "species", nil, "species set; defaults to every species in the store")
	return cmd
}

// allSpecies lists the store's species for batch runs without an
// explicit species set.
func allSpecies(cmd *cobra.Command, store ports.RecordStore) ([]string, error) {
	switch s := store.(type) {
	case *postgres.RecordStore:
		return s.Species(cmd.Context())
	case *excel.FileStore:
		return s.Species(), nil
	default:
		return nil, fmt.Errorf("store cannot enumerate species; pass --species")
	}
}

func newImportCmd() *cobra.Command {
	var file, location, species string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an xlsx or csv settlement table into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("import requires DATABASE_URL")
			}
			store, err := postgres.Open(cfg.Database.URL)
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := excel.NewDataReader(file).ReadRows()
			if err != nil {
				return err
			}
			byKey := make(map[[2]string][]excel.Row)
			for _, row := range rows {
				loc, sp := row.Location, row.Species
				if location != "" {
					loc = location
				}
				if species != "" {
					sp = species
				}
				byKey[[2]string{loc, sp}] = append(byKey[[2]string{loc, sp}], row)
			}
			total := 0
			for key, group := range byKey {
				imported, err := importGroup(cmd, store, key[0], key[1], group)
				if err != nil {
					return err
				}
				total += imported
			}
			fmt.Printf("imported %d records from %s\n", total, file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "xlsx or csv file to import")
	cmd.Flags().StringVar(&location, "location", "", "override the location column")
	cmd.Flags().StringVar(&species, "species", "", "override the species column")
	cmd.MarkFlagRequired("file")
	return cmd
}

func importGroup(cmd *cobra.Command, store *postgres.RecordStore, location, species string, rows []excel.Row) (int, error) {
	records := make([]plate.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record)
	}
	if err := store.InsertRecords(cmd.Context(), location, species, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
