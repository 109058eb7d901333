package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/store"
)

// taskhub-admin runs operational tasks against the database directly,
// bypassing the HTTP API. It is meant for deploy pipelines and
// break-glass situations.

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "migrate":
		err = runMigrate(logger, args)
	case "create-admin":
		err = runCreateAdmin(logger, args)
	case "purge-audit":
		err = runPurgeAudit(logger, args)
	case "-h", "--help", "help":
		usage()
	default:
		usage()
		err = fmt.Errorf("unknown command: %s", cmd)
	}
	if err != nil {
		logger.WithError(err).Fatal("command failed")
	}
}

func usage() {
	fmt.Printf("Usage: taskhub-admin <command> [args]\n\n")
	fmt.Printf("Commands:\n")
	fmt.Printf("  %-15s %s\n", "migrate", "Apply pending database migrations")
	fmt.Printf("  %-15s %s\n", "create-admin", "Create a company and its first admin user")
	fmt.Printf("  %-15s %s\n", "purge-audit", "Delete audit events older than the retention window")
}

func openStore(ctx context.Context, dbURL string) (*store.Store, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL is required (set -db-url or TASKHUB_POSTGRES_URL)")
	}
	return store.Open(ctx, dbURL)
}

func runMigrate(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbURL := fs.String("db-url", os.Getenv("TASKHUB_POSTGRES_URL"), "PostgreSQL connection URL")
	fs.Parse(args)

	ctx := context.Background()
	st, err := openStore(ctx, *dbURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := store.RunMigrations(ctx, st.DB()); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runCreateAdmin(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	dbURL := fs.String("db-url", os.Getenv("TASKHUB_POSTGRES_URL"), "PostgreSQL connection URL")
	company := fs.String("company", "", "Company name for the new tenant")
	email := fs.String("email", "", "Email address for the admin user")
	password := fs.String("password", "", "Password for the admin user")
	fs.Parse(args)

	if *company == "" || *email == "" || *password == "" {
		return fmt.Errorf("-company, -email and -password are all required")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ctx := context.Background()
	st, err := openStore(ctx, *dbURL)
	if err != nil {
		return err
	}
	defer st.Close()

	user := &auth.User{
		Email:        *email,
		PasswordHash: hash,
	}
	tenant, err := st.CreateTenantWithAdmin(ctx, *company, user)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"user_id":   user.ID,
		"email":     user.Email,
	}).Info("admin user created")
	return nil
}

func runPurgeAudit(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("purge-audit", flag.ExitOnError)
	dbURL := fs.String("db-url", os.Getenv("TASKHUB_POSTGRES_URL"), "PostgreSQL connection URL")
	retentionDays := fs.Int("retention-days", 90, "Delete audit events older than this many days")
	fs.Parse(args)

	if *retentionDays <= 0 {
		return fmt.Errorf("retention-days must be positive")
	}

	ctx := context.Background()
	st, err := openStore(ctx, *dbURL)
	if err != nil {
		return err
	}
	defer st.Close()

	cutoff := time.Now().AddDate(0, 0, -*retentionDays)
	deleted, err := audit.NewDBRecorder(st.DB()).Purge(ctx, cutoff)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	}).Info("audit log purged")
	return nil
}
