package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/replenish/internal/bootstrap"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/drive"
	"github.com/andresuchdata/replenish/pkg/logger"
)

// Drive ingestion server: lists Drive folders and analyses workbooks by file id.
func main() {
	cfg := config.Load()
	logger.Init(cfg.App.LogLevel, cfg.Server.Mode == "debug")

	creds := os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON")
	if creds == "" {
		data, err := os.ReadFile(cfg.Drive.CredentialsFile)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to read Google Drive credentials")
		}
		creds = string(data)
	}

	driveService, err := drive.NewService(context.Background(), creds)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer app.Close()

	var datasets drive.DatasetStore
	if app.Datasets != nil {
		datasets = app.Datasets
	}
	ingestService := drive.NewIngestService(driveService, app.Service, datasets)

	r := mux.NewRouter()
	drive.NewHandler(driveService, driveService, ingestService).RegisterRoutes(r)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Log.Info().Str("addr", addr).Msg("Drive ingestion server starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Fatal().Err(err).Msg("server stopped")
	}
}
