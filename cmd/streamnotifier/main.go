package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"streamnotifier/internal/app"
	"streamnotifier/internal/config"
	"streamnotifier/pkg/logger"
)

type cliEnv struct {
	cfg *config.Config
	log logger.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "critical: %v\n", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		configPath string
		rt         cliEnv
	)

	root := &cobra.Command{
		Use:           "streamnotifier",
		Short:         "Streaming account resale admin with WhatsApp expiration notices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadPath(config.ResolvePath(configPath))
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			log, err := logger.NewZapAdapter(cfg.App.Name, cfg.Env, logger.WithLevel(cfg.Logger.Level))
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}

			rt.cfg, rt.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.log != nil {
				_ = rt.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults to $CONFIG_PATH, then env only)")

	root.AddCommand(
		serveCommand(&rt),
		generateCommand(&rt),
		dispatchCommand(&rt),
		migrateCommand(&rt),
	)
	return root
}

func serveCommand(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt.log.Infow("application starting",
				"version", rt.cfg.App.Version,
				"env", rt.cfg.Env,
			)
			if err := app.Run(cmd.Context(), rt.cfg, rt.log); err != nil {
				rt.log.Errorw("application crashed", "error", err)
				return err
			}
			rt.log.Info("shutdown complete")
			return nil
		},
	}
}

func generateCommand(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Create pending expiration notices for services expiring soon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := app.Generate(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func dispatchCommand(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Send every pending notification through the WhatsApp gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := app.Dispatch(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func migrateCommand(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(*cobra.Command, []string) error {
			return app.Migrate(rt.cfg, rt.log)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
