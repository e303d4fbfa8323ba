package main

import (
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/replenish/pkg/logger"
)

func inputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Input workbook (.xlsx) or directory holding sales.csv, inventory.csv and sku_master.csv",
		EnvVars:  []string{"REPLENISH_INPUT"},
		Required: true,
	}
}

func seedFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:    "seed",
		Usage:   "Random seed for the simulation (0 picks a time-based seed)",
		EnvVars: []string{"ANALYSIS_SEED"},
	}
}

func workersFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "workers",
		Usage:   "Number of concurrent simulation workers",
		Value:   runtime.NumCPU(),
		EnvVars: []string{"ANALYSIS_WORKERS"},
	}
}

func outputDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output-dir",
		Aliases: []string{"o"},
		Usage:   "Directory for result files",
		Value:   "./data/output",
		EnvVars: []string{"APP_DATA_DIR"},
	}
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Usage:   "Output format: csv, xlsx or both",
		Value:   formatBoth,
		EnvVars: []string{"REPLENISH_FORMAT"},
	}
}

func dbURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string; when set, runs and results are stored",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func main() {
	_ = godotenv.Load(".env")

	app := &cli.App{
		Name:  "analyze",
		Usage: "Inventory replenishment analysis: demand, ABC, policies, KPIs, cost-benefit and simulation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "log-pretty",
				Value:   true,
				EnvVars: []string{"LOG_PRETTY"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Init(c.String("log-level"), c.Bool("log-pretty"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the full analysis and write the result tables",
				Flags: []cli.Flag{
					inputFlag(),
					outputDirFlag(),
					formatFlag(),
					seedFlag(),
					workersFlag(),
					dbURLFlag(),
				},
				Before: initDB,
				After:  closeDB,
				Action: runAnalysis,
			},
			{
				Name:  "simulate",
				Usage: "Compute policies and replay Poisson demand against them",
				Flags: []cli.Flag{
					inputFlag(),
					outputDirFlag(),
					seedFlag(),
					workersFlag(),
					&cli.IntFlag{
						Name:    "days",
						Usage:   "Simulation horizon in days (0 keeps the configured horizon)",
						EnvVars: []string{"ANALYSIS_SIMULATION_DAYS"},
					},
				},
				Action: runSimulate,
			},
			{
				Name:  "forecast",
				Usage: "Print the moving-average demand forecast as CSV",
				Flags: []cli.Flag{
					inputFlag(),
					&cli.IntFlag{
						Name:    "window",
						Usage:   "Moving-average window in days (0 keeps the configured window)",
						EnvVars: []string{"ANALYSIS_FORECAST_WINDOW"},
					},
					&cli.IntFlag{
						Name:    "horizon",
						Usage:   "Forecast horizon in days (0 keeps the configured horizon)",
						EnvVars: []string{"ANALYSIS_FORECAST_HORIZON"},
					},
				},
				Action: runForecast,
			},
			{
				Name:  "batch",
				Usage: "Analyse several inputs concurrently, optionally pulled from a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Input workbook or directory (repeatable)",
					},
					&cli.StringFlag{
						Name:    "drive-folder-id",
						Usage:   "Google Drive folder ID holding input workbooks",
						EnvVars: []string{"DRIVE_FOLDER_ID"},
					},
					&cli.StringFlag{
						Name:    "drive-credentials",
						Usage:   "Service account credentials JSON file for Google Drive",
						Value:   "credentials.json",
						EnvVars: []string{"DRIVE_CREDENTIALS_FILE"},
					},
					&cli.StringFlag{
						Name:    "download-dir",
						Usage:   "Local directory where Drive files are downloaded",
						Value:   "./data/uploads/drive",
						EnvVars: []string{"DRIVE_DOWNLOAD_DIR"},
					},
					&cli.IntFlag{
						Name:    "batch-workers",
						Usage:   "Number of inputs analysed concurrently",
						Value:   2,
						EnvVars: []string{"BATCH_WORKERS"},
					},
					&cli.IntFlag{
						Name:    "retries",
						Usage:   "Attempts per input",
						Value:   3,
						EnvVars: []string{"BATCH_RETRIES"},
					},
					outputDirFlag(),
					formatFlag(),
					seedFlag(),
					workersFlag(),
					dbURLFlag(),
				},
				Before: initDB,
				After:  closeDB,
				Action: runBatch,
			},
			{
				Name:  "db",
				Usage: "Database maintenance",
				Subcommands: []*cli.Command{
					{
						Name:  "migrate",
						Usage: "Apply SQL migrations",
						Flags: []cli.Flag{
							requiredDBURLFlag(),
							&cli.StringFlag{
								Name:    "migrations-dir",
								Value:   "./migrations",
								EnvVars: []string{"MIGRATIONS_DIR"},
							},
						},
						Before: initDB,
						After:  closeDB,
						Action: runMigrate,
					},
					{
						Name:  "load",
						Usage: "Clean an input and store it in the input tables",
						Flags: []cli.Flag{
							requiredDBURLFlag(),
							inputFlag(),
						},
						Before: initDB,
						After:  closeDB,
						Action: runLoad,
					},
					{
						Name:  "runs",
						Usage: "List recent analysis runs",
						Flags: []cli.Flag{
							requiredDBURLFlag(),
							&cli.DurationFlag{
								Name:  "since",
								Value: 7 * 24 * time.Hour,
								Usage: "Look-back window",
							},
							&cli.IntFlag{
								Name:  "limit",
								Value: 20,
							},
						},
						Before: initDB,
						After:  closeDB,
						Action: runListRuns,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("analyze failed")
	}
}

func requiredDBURLFlag() *cli.StringFlag {
	f := dbURLFlag()
	f.Required = true
	return f
}
