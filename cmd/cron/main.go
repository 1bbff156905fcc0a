package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arbworks/odds-core/internal/config"
	"github.com/arbworks/odds-core/pkg/jobs"
	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/nbastats"
	"github.com/arbworks/odds-core/pkg/storage"
)

func main() {
	// Parse command line flags
	var (
		jobName = flag.String("job", "", "Run specific job once (odds_transform, nba_stats)")
		once    = flag.Bool("once", false, "Run job once and exit")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger.SetupLogger()
	cfg := config.Load()

	if cfg.Storage.Bucket == "" {
		log.Fatal("S3_ARB_BUCKET is required")
	}

	policy := storage.RetryPolicy{
		MaxAttempts: cfg.Storage.RetryAttempts,
		Delay:       time.Duration(cfg.Storage.RetryDelay) * time.Second,
	}
	store, err := storage.New(context.Background(), cfg.Storage.Bucket, policy)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	statsClient := nbastats.NewClient()

	// Create job manager
	jobManager := jobs.NewJobManager()

	transformJob := jobs.NewOddsTransformJob(store, cfg.Backfill.SportKey)
	if err := jobManager.RegisterJob(transformJob); err != nil {
		log.Fatalf("Failed to register odds transform job: %v", err)
	}

	statsJob := jobs.NewNBAStatsJob(statsClient, store, cfg.NBA.Seasons)
	if err := jobManager.RegisterJob(statsJob); err != nil {
		log.Fatalf("Failed to register NBA stats job: %v", err)
	}

	// Handle single job execution
	if *once && *jobName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		switch *jobName {
		case "odds_transform":
			log.Println("Running odds transform job once...")
			if err := transformJob.Execute(ctx); err != nil {
				log.Fatalf("Failed to execute odds transform job: %v", err)
			}
			log.Println("Odds transform completed successfully")
		case "nba_stats":
			log.Println("Running NBA stats job once...")
			if err := statsJob.Execute(ctx); err != nil {
				log.Fatalf("Failed to execute NBA stats job: %v", err)
			}
			log.Println("NBA stats pull completed successfully")
		default:
			log.Fatalf("Unknown job: %s. Available jobs: odds_transform, nba_stats", *jobName)
		}
		return
	}

	// Start job manager
	jobManager.Start()
	log.Printf("Cron job service started with %d jobs", len(jobManager.GetJobs()))

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down cron job service...")
	jobManager.Stop()
	log.Println("Cron job service stopped")
}
