package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/smallbiznis/copilot-insights/internal/clock"
	"github.com/smallbiznis/copilot-insights/internal/config"
	dashboarddomain "github.com/smallbiznis/copilot-insights/internal/dashboard/domain"
	"github.com/smallbiznis/copilot-insights/internal/github"
	"github.com/smallbiznis/copilot-insights/internal/ingest"
	"github.com/smallbiznis/copilot-insights/internal/migration"
	"github.com/smallbiznis/copilot-insights/internal/mongostore"
	"github.com/smallbiznis/copilot-insights/internal/observability"
	"github.com/smallbiznis/copilot-insights/internal/ratelimit"
	"github.com/smallbiznis/copilot-insights/internal/seat"
	"github.com/smallbiznis/copilot-insights/internal/server"
	"github.com/smallbiznis/copilot-insights/internal/usage"
	"github.com/smallbiznis/copilot-insights/pkg/db"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const startStopTimeout = 30 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "copilot-insights",
		Short:         "Collect GitHub Copilot usage and billing data and serve dashboard charts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newFetchCommand(ingest.JobFetchMetrics, "Fetch daily usage metrics and upsert them by date", (*ingest.Runner).RunMetrics),
		newFetchCommand(ingest.JobFetchBilling, "Fetch billing seats and sync them with stored seats", (*ingest.Runner).RunBilling),
		newMigrateCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			app := fx.New(
				baseModules(),
				storageModules(cfg),
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newFetchCommand(use, short string, job func(*ingest.Runner, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			var runner *ingest.Runner
			app := fx.New(
				baseModules(),
				storageModules(cfg),
				ratelimit.Module,
				github.Module,
				ingest.Module,
				fx.Populate(&runner),
			)
			return runOnce(cmd.Context(), app, func(ctx context.Context) error {
				return job(runner, ctx)
			})
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the storage schema and indexes, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			app := fx.New(
				baseModules(),
				schemaModules(cfg),
			)
			return runOnce(cmd.Context(), app, nil)
		},
	}
}

// runOnce starts app, runs fn and always stops the app afterwards.
func runOnce(ctx context.Context, app *fx.App, fn func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, startStopTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), startStopTimeout)
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func baseModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		clock.Module,
		db.SnowflakeModule,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
}

// schemaModules opens the configured store and brings its schema up to date.
func schemaModules(cfg config.Config) fx.Option {
	if cfg.UsesMongo() {
		return fx.Options(
			fx.Provide(mongostore.Open),
			fx.Invoke(func(*mongo.Database) {}),
		)
	}
	return fx.Options(
		db.Module,
		migration.Module,
	)
}

// storageModules wires repositories, domain services and the catalog for the configured backend.
func storageModules(cfg config.Config) fx.Option {
	if cfg.UsesMongo() {
		return fx.Options(
			mongostore.Module,
			fx.Provide(fx.Annotate(mongostore.NewCatalog, fx.As(new(dashboarddomain.Catalog)))),
			usage.ServiceModule,
			seat.ServiceModule,
		)
	}
	return fx.Options(
		db.Module,
		migration.Module,
		fx.Provide(fx.Annotate(db.NewCatalog, fx.As(new(dashboarddomain.Catalog)))),
		usage.Module,
		seat.Module,
	)
}
