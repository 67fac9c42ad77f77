// cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ammerola/preloved-be/internal/adapters/db"
	redis_a "github.com/ammerola/preloved-be/internal/adapters/redis_adapter"
	"github.com/ammerola/preloved-be/internal/adapters/spreadsheet"
	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/services"
	"github.com/ammerola/preloved-be/internal/pkg/config"
	"github.com/ammerola/preloved-be/internal/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "seeder",
		Short:         "Seed and migrate the preloved catalog database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(seedCmd(&logLevel), migrateCmd(&logLevel))
	return cmd
}

func seedCmd(logLevel *string) *cobra.Command {
	var (
		fixturePath string
		xlsxPath    string
		generate    int
		seed        uint64
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load catalog items from a fixture, a workbook or a generator",
		Long: `Load catalog items into the database.

Sources can be combined; items from every source are validated before
anything is written.

Examples:
  seeder seed --fixture cmd/seeder/fixtures/sample_catalog.yaml
  seeder seed --generate 500 --seed 42
  seeder seed --xlsx inventory.xlsx --dry-run
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fixturePath == "" && xlsxPath == "" && generate <= 0 {
				return errors.New("nothing to seed: set --fixture, --xlsx or --generate")
			}

			slogger := logger.SetupLogger(*logLevel, "text").Logger

			items, err := collectItems(fixturePath, xlsxPath, generate, seed, slogger)
			if err != nil {
				return err
			}
			if dryRun {
				return printSummary(cmd, items)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return seedItems(ctx, items, slogger)
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML catalog fixture")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Excel workbook in the import layout")
	cmd.Flags().IntVar(&generate, "generate", 0, "Number of synthetic items to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed for --generate")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and summarize without writing")

	return cmd
}

func collectItems(fixturePath, xlsxPath string, generate int, seed uint64, logger *slog.Logger) ([]*domain.Item, error) {
	var items []*domain.Item

	if fixturePath != "" {
		loaded, err := loadFixture(fixturePath)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded fixture", slog.String("path", fixturePath), slog.Int("items", len(loaded)))
		items = append(items, loaded...)
	}

	if xlsxPath != "" {
		parsed, rowErrs, err := spreadsheet.ReadFile(xlsxPath)
		if err != nil {
			return nil, err
		}
		for _, re := range rowErrs {
			logger.Warn("skipping row", slog.Int("row", re.Row), slog.String("error", re.Err.Error()))
		}
		logger.Info("loaded workbook", slog.String("path", xlsxPath),
			slog.Int("items", len(parsed)), slog.Int("skipped", len(rowErrs)))
		items = append(items, parsed...)
	}

	if generate > 0 {
		items = append(items, generateItems(generate, seed, time.Now().UTC())...)
		logger.Info("generated items", slog.Int("items", generate), slog.Uint64("seed", seed))
	}

	return items, nil
}

func printSummary(cmd *cobra.Command, items []*domain.Item) error {
	counts := make(map[domain.Category]int)
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%s: %w", item.Title, err)
		}
		counts[item.Category]++
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d items would be seeded\n", len(items))
	for _, c := range domain.AllCategories {
		if counts[c] > 0 {
			fmt.Fprintf(out, "  %-12s %d\n", c, counts[c])
		}
	}
	return nil
}

func seedItems(ctx context.Context, items []*domain.Item, logger *slog.Logger) error {
	cfg, err := config.Load(logger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.NewDatabase(ctx, db.ConfigFrom(cfg.Database).WithPoolSize(4, 1), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	rdb, err := redis_a.Connect(ctx, cfg.Redis, redis_a.WithPoolSize(2))
	if err != nil {
		return err
	}
	defer rdb.Close()

	catalogCfg, err := services.ConfigFrom(cfg.Catalog)
	if err != nil {
		return err
	}

	// Saving through the service drops cached snapshots so the API sees the new items
	catalogService := services.NewCatalogService(
		db.NewItemRepository(database, logger),
		redis_a.NewCache(rdb, cfg.Redis.TTL, logger),
		catalogCfg, logger)

	start := time.Now()
	if err := catalogService.SaveItems(ctx, items); err != nil {
		return err
	}

	logger.Info("seeding complete",
		slog.Int("items", len(items)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func migrateCmd(logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Apply, roll back or inspect schema migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			slogger := logger.SetupLogger(*logLevel, "text").Logger

			cfg, err := config.Load(slogger)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			migrator, err := db.NewMigrator(db.ConfigFrom(cfg.Database).URL(), slogger)
			if err != nil {
				return err
			}
			defer migrator.Close()

			switch args[0] {
			case "up":
				return migrator.Up(cmd.Context())
			case "down":
				return migrator.Down(cmd.Context())
			case "version":
				version, dirty, err := migrator.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			default:
				return fmt.Errorf("unknown migrate action %q", args[0])
			}
		},
	}
	return cmd
}
