package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/savings-coach/internal/api"
	"github.com/dvloznov/savings-coach/internal/app"
	"github.com/dvloznov/savings-coach/internal/config"
	"github.com/dvloznov/savings-coach/internal/jobs/inmemory"
	"github.com/dvloznov/savings-coach/internal/logger"
	"github.com/dvloznov/savings-coach/internal/scheduler"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	port := flag.String("port", "", "HTTP server port (overrides config)")
	flag.Parse()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	// Initialize logger
	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Format).With().
		Str("service", cfg.Service.Name).
		Logger()

	if cfg.Storage.Bucket == "" {
		log.Warn().Msg("No GCS bucket configured - reports will not be archived")
	}

	ctx := logger.WithContext(context.Background(), log)

	deps, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}
	defer deps.Close()

	coach, err := deps.NewCoach(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize coach")
	}

	// Initialize job infrastructure
	jobQueue := inmemory.NewQueue(cfg.Jobs.BufferSize, cfg.Jobs.Workers, deps.JobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.Jobs.Workers).Msg("Starting job worker")
	if err := jobQueue.Start(workerCtx, deps.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = deps.NewScheduler(jobQueue)
		if err := sched.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	routerDeps := api.Deps{
		Goals:     deps.Service,
		Publisher: jobQueue,
		JobStore:  deps.JobStore,
		Bucket:    cfg.Storage.Bucket,
		APIToken:  cfg.Server.APIToken,
		Log:       log,
	}
	if coach != nil {
		routerDeps.Coach = coach
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(routerDeps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	// Close job queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
