// Command migrate manages the ExpenseAI postgres schema.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

var (
	migrationsDir string
	logLevel      string
	log           = zap.NewNop()

	rootCmd = &cobra.Command{
		Use:   "migrate",
		Short: "ExpenseAI database migration tool",
		Long: `Applies, rolls back and scaffolds the postgres schema migrations.

Database settings come from config.toml and EXPENSEAI_DATABASE_* variables.
Without --path the migrations compiled into the binary are used.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "path", "", "migrations directory (default: embedded, or ./migrations for create)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(downCmd())
	rootCmd.AddCommand(stepsCmd())
	rootCmd.AddCommand(gotoCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(forceCmd())
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(listCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	_ = log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	l, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log = l
	return nil
}
