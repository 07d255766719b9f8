package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/tallyhq/tally/internal/approval"
	"github.com/tallyhq/tally/internal/blob"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/database"
	"github.com/tallyhq/tally/internal/event"
	eventStore "github.com/tallyhq/tally/internal/event/store"
	tallyHttp "github.com/tallyhq/tally/internal/http"
	blobHandler "github.com/tallyhq/tally/internal/http/blob"
	eventHandler "github.com/tallyhq/tally/internal/http/event"
	reportHandler "github.com/tallyhq/tally/internal/http/report"
	requestHandler "github.com/tallyhq/tally/internal/http/request"
	"github.com/tallyhq/tally/internal/report"
	"github.com/tallyhq/tally/internal/request"
	requestStore "github.com/tallyhq/tally/internal/request/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.Secret == "" {
		slog.Error("AUTH_SECRET must be set")
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	blobs, err := blob.OpenBolt(cfg.Blob.Path)
	if err != nil {
		slog.Error("failed to open blob store", "error", err)
		os.Exit(1)
	}
	defer blobs.Close()

	var (
		eventService   = event.NewService(eventStore.New(db), blobs)
		requestService = request.NewService(requestStore.New(db))
		coordinator    = approval.NewCoordinator(eventService, requestService)
		reportService  = report.NewService(eventService, requestService)
	)

	var (
		eventH   = eventHandler.NewHandler(eventService, requestService)
		requestH = requestHandler.NewHandler(requestService, coordinator)
		reportH  = reportHandler.NewHandler(reportService)
		receiptH = blobHandler.NewHandler(blobs)
	)

	router := tallyHttp.New(cfg.Auth.Secret, eventH, requestH, reportH, receiptH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
