package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/database"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Check database connectivity",
	Long: `Connects to PostgreSQL with the configured settings and pings it.

Example:
  go run ./cmd/trader test-db`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection OK")
	fmt.Println("Database connection OK")
	return nil
}
