//cmd/seeder/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/config"
	"github.com/unclebandit/donorhub-backend/internal/db"
	"github.com/unclebandit/donorhub-backend/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seeder",
		Short:         "Database maintenance for the donorhub backend",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB, logger *zap.Logger) error {
				return db.Migrate(ctx, conn, logger)
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	var dir string
	var migrate bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo data set",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := seedFiles(dir)
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB, logger *zap.Logger) error {
				if migrate {
					if err := db.Migrate(ctx, conn, logger); err != nil {
						return err
					}
				}
				for _, file := range files {
					content, err := os.ReadFile(file)
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", file, err)
					}
					err = db.WithTx(ctx, conn, func(tx *sql.Tx) error {
						_, err := tx.ExecContext(ctx, string(content))
						return err
					})
					if err != nil {
						return fmt.Errorf("failed to execute %s: %w", file, err)
					}
					logger.Info("seeded", zap.String("file", file))
				}
				logger.Info("database seeding completed", zap.Int("files", len(files)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "seed", "directory holding the seed .sql files")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply migrations before seeding")
	return cmd
}

// seedFiles lists the .sql files of dir in name order.
func seedFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no seed files in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func withDB(ctx context.Context, fn func(ctx context.Context, conn *sql.DB, logger *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	conn, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, conn, logger)
}
