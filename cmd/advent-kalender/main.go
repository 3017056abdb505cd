package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/klabast/wb-services/advent-kalender/internal/app"
	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
	"github.com/klabast/wb-services/advent-kalender/internal/commands"
	"github.com/klabast/wb-services/advent-kalender/internal/logging"
	"github.com/klabast/wb-services/advent-kalender/internal/mcptools"
)

var (
	configPath string
	verbose    bool
	watch      bool
	visitorID  string
	listDate   string
	hashOpts   commands.HashPasswordOptions

	cfg    *app.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "advent-kalender",
	Short: "Advent calendar service with a flying Santa map",
	Long: `advent-kalender serves a date-gated advent calendar of participating
research centers, a map animation visiting them and an ICS feed of the
activation dates.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = app.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calendar API, the Santa animation and the ICS feed",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the calendar tools over MCP on stdin/stdout",
	RunE:  runMCP,
}

var daysCmd = &cobra.Command{
	Use:   "days",
	Short: "Print the schedule and each day's state",
	RunE:  runDays,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear a visitor's opened days",
	RunE:  runReset,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Create the admin auth.secret file (Argon2id)",
	Long: `Creates an auth file with a hashed password (Argon2id) that protects the
admin routes.

Environment Variables:
  AUTH_FILE    Path to auth file (default: auth.secret next to the binary)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if hashOpts.AuthFile == "" {
			hashOpts.AuthFile = cfg.Auth.File
		}
		return commands.HashPassword(hashOpts, cmd.InOrStdin(), cmd.OutOrStdout(), nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", app.DefaultConfigFile, "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&watch, "watch", true, "Reload calendar.date_override when the config file changes")
	}
	daysCmd.Flags().StringVar(&listDate, "date", "", "Evaluate states at this date (YYYY-MM-DD)")
	resetCmd.Flags().StringVar(&visitorID, "visitor", "", "Visitor id to reset")
	_ = resetCmd.MarkFlagRequired("visitor")
	hashPasswordCmd.Flags().StringVar(&hashOpts.AuthFile, "file", "", "Auth file to write")
	hashPasswordCmd.Flags().BoolVar(&hashOpts.Overwrite, "overwrite", false, "Overwrite existing auth file without asking")
	hashPasswordCmd.Flags().BoolVar(&hashOpts.InsecureUnmask, "insecure-unmask-password", false, "Show password as plain text (INSECURE!)")

	rootCmd.AddCommand(serveCmd, mcpCmd, daysCmd, resetCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("error closing runtime", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           rt.Server().Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting advent-kalender", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if rt.Driver != nil {
		g.Go(func() error { return rt.Driver.Run(gctx) })
	}
	if watch {
		g.Go(func() error {
			w := app.NewConfigWatcher(configPath, rt.Clock, logger.Named("config"))
			w.Applied = cfg.Calendar.DateOverride
			if err := w.Run(gctx); err != nil {
				logger.Warn("config watcher disabled", zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv, err := mcptools.FromRuntime(rt)
	if err != nil {
		return err
	}
	return srv.Run(ctx, rt.Driver, cmd.InOrStdin(), cmd.OutOrStdout())
}

func runDays(cmd *cobra.Command, args []string) error {
	load := calendar.DefaultTable
	if cfg.Calendar.TableFile != "" {
		load = func() (*calendar.Table, error) { return calendar.LoadTable(cfg.Calendar.TableFile) }
	}
	table, err := load()
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := calendar.NewClock(nil, loc)
	app.ApplyDateOverride(clock, cfg.Calendar.DateOverride, logger)
	if listDate != "" {
		app.ApplyDateOverride(clock, listDate, logger)
	}
	return commands.ListDays(cmd.OutOrStdout(), table, clock.Today())
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := app.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	return commands.ResetVisitor(ctx, cmd.OutOrStdout(), rt, visitorID)
}
