package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/taskhub/pkg/audit"
)

// taskhub-janitor periodically deletes audit events that are past the
// retention window. It runs as a long-lived sidecar by default, or as a
// one-shot job with -run-once for cron-based deployments.

var (
	dbURL         = flag.String("db-url", os.Getenv("TASKHUB_POSTGRES_URL"), "PostgreSQL connection URL")
	schedule      = flag.String("schedule", "0 3 * * *", "Cron schedule for the purge job")
	retentionDays = flag.Int("retention-days", 90, "Delete audit events older than this many days")
	runOnce       = flag.Bool("run-once", false, "Run a single purge and exit")
)

func main() {
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("Database URL is required (set -db-url or TASKHUB_POSTGRES_URL)")
	}
	if *retentionDays <= 0 {
		log.Fatal("retention-days must be positive")
	}

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	recorder := audit.NewDBRecorder(db)

	if *runOnce {
		if err := purge(recorder); err != nil {
			log.Fatalf("Purge failed: %v", err)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() {
		if err := purge(recorder); err != nil {
			log.Printf("Purge failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid schedule %q: %v", *schedule, err)
	}

	c.Start()
	log.Printf("Janitor started with schedule %q, retention %d days", *schedule, *retentionDays)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	ctx := c.Stop()
	<-ctx.Done()
}

func purge(recorder *audit.DBRecorder) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -*retentionDays)
	deleted, err := recorder.Purge(ctx, cutoff)
	if err != nil {
		return err
	}
	log.Printf("Purged %d audit events older than %s", deleted, cutoff.Format(time.RFC3339))
	return nil
}
