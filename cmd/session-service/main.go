package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bloggerhub/device-session-service/internal/app"
	"github.com/bloggerhub/device-session-service/internal/config"
	"github.com/bloggerhub/device-session-service/internal/observability"
	"github.com/bloggerhub/device-session-service/internal/repository"
	"github.com/bloggerhub/device-session-service/internal/tools/common"
	"github.com/bloggerhub/device-session-service/internal/tools/loadgen"
	"github.com/bloggerhub/device-session-service/internal/tools/ui"
)

func main() {
	root := &cobra.Command{
		Use:           "session-service",
		Short:         "Multi-device session service with refresh token rotation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newPurgeSessionsCommand(), newLoadgenCommand())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if err := common.LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	return config.Load()
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger, loggerProvider, err := observability.InitLogging(ctx, cfg)
			if err != nil {
				return err
			}
			runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
			if err != nil {
				return err
			}

			a, err := app.InitializeApp(cfg, logger, runtime)
			if err != nil {
				return err
			}

			runErr := a.Run(ctx)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := runtime.Shutdown(shutdownCtx); err != nil {
				logger.Error("observability shutdown", "error", err)
			}
			return runErr
		},
	}
}

func newPurgeSessionsCommand() *cobra.Command {
	var ci bool
	cmd := &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete session records whose refresh window has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := repository.OpenDatabase(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			count, err := repository.NewSessionRepository(db).DeleteExpired(time.Now())
			if ci {
				common.PrintCIResult(err == nil, "purge-sessions", []string{fmt.Sprintf("purged=%d", count)}, err)
			}
			if err != nil {
				return err
			}
			if !ci {
				fmt.Printf("purged %d expired sessions\n", count)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&ci, "ci", false, "non-interactive machine-readable output")
	return cmd
}

func newLoadgenCommand() *cobra.Command {
	cfg := loadgen.Config{}
	var ci bool
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate synthetic traffic against a running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			run := func(ctx context.Context) ([]string, error) {
				res, err := loadgen.Run(ctx, cfg)
				if err != nil {
					return nil, err
				}
				details := []string{fmt.Sprintf("total=%d failures=%d", res.TotalRequests, res.Failures)}
				for class, n := range res.StatusClasses {
					details = append(details, fmt.Sprintf("%s=%d", class, n))
				}
				return details, nil
			}

			var details []string
			var err error
			if ci {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration+time.Minute)
				defer cancel()
				details, err = run(ctx)
				common.PrintCIResult(err == nil, "loadgen", details, err)
			} else {
				details, err = ui.Run("loadgen "+cfg.Profile, run)
				for _, d := range details {
					fmt.Println(d)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&cfg.Profile, "profile", "mixed", "traffic profile (mixed, auth, devices)")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 10*time.Second, "run duration")
	cmd.Flags().IntVar(&cfg.RPS, "rps", 20, "target requests per second")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 4, "worker count")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 42, "rng seed for target selection")
	cmd.Flags().BoolVar(&ci, "ci", false, "non-interactive machine-readable output")
	return cmd
}
